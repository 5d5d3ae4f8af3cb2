package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"classattend/internal/account"
	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/config"
	"classattend/internal/httpapi"
	"classattend/internal/httpmiddleware"
	"classattend/internal/logger"
	"classattend/internal/metrics"
	"classattend/internal/roster"
	"classattend/internal/store"
)

func main() {
	cfg := config.Load()
	log := logger.SetupDefault(os.Stdout, cfg.LogLevel)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.Error("http server failed", "error", err)
		os.Exit(1)
	}
}

func runHTTP(cfg config.App, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.MigrateOnStart {
		if err := store.MigrateDSN(ctx, cfg.DBDriver, cfg.DatabaseURL); err != nil {
			return err
		}
		log.Info("migrations applied")
	}

	db, err := store.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := store.NewRedis(store.RedisOptions{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB})
	defer redisClient.Close()
	if redisClient != nil {
		if err := redisClient.Ping(ctx); err != nil {
			log.Warn("redis unreachable at startup, limiters fail open", "error", err)
		}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg)

	var apiLimiter, loginLimiter httpmiddleware.Limiter
	if redisClient != nil {
		apiLimiter = httpmiddleware.NewRedisLimiter(redisClient.Client, redisClient.Key("ratelimit", "api"), cfg.RateLimitPerMin)
		loginLimiter = httpmiddleware.NewRedisLimiter(redisClient.Client, redisClient.Key("ratelimit", "login"), cfg.LoginRateLimitPerMin)
		log.Info("rate limiting backed by redis", "addr", cfg.RedisAddr)
	} else {
		apiLimiter = httpmiddleware.NewMemoryLimiter(cfg.RateLimitPerMin)
		loginLimiter = httpmiddleware.NewMemoryLimiter(cfg.LoginRateLimitPerMin)
	}

	tokens := auth.NewTokens(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.SessionTTL)
	users := account.NewRepository(db.Client)
	rosterSvc := roster.NewService(roster.NewRepository(db.Client))

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:       log,
		DB:           db,
		Redis:        redisClient,
		Auth:         auth.NewService(users, tokens, log),
		Gate:         auth.NewGate(tokens),
		Roster:       rosterSvc,
		Attendance:   attendance.NewService(attendance.NewRepository(db), rosterSvc, collector),
		Metrics:      collector,
		Gatherer:     reg,
		APILimiter:   apiLimiter,
		LoginLimiter: loginLimiter,
		CORSOrigins:  cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", "port", cfg.HTTPPort, "driver", cfg.DBDriver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("server forced shutdown", "error", err)
	}
	log.Info("server exited")
	return nil
}
