package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/crypto/bcrypt"

	"classattend/internal/account"
	"classattend/internal/config"
	"classattend/internal/logger"
	"classattend/internal/roster"
	"classattend/internal/seed"
	"classattend/internal/store"
)

// migrate applies schema migrations and optionally loads demo data.
func main() {
	withSeed := flag.Bool("seed", false, "load demo classes, students and users into an empty database")
	flag.Parse()

	cfg := config.Load()
	log := logger.SetupDefault(os.Stdout, cfg.LogLevel)

	if err := run(cfg, log, *withSeed); err != nil {
		log.Error("migrate failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.App, log *slog.Logger, withSeed bool) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := store.MigrateDSN(ctx, cfg.DBDriver, cfg.DatabaseURL); err != nil {
		return err
	}
	log.Info("migrations applied", "driver", cfg.DBDriver)

	if !withSeed {
		return nil
	}

	db, err := store.Open(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	res, err := seed.Demo(ctx, roster.NewRepository(db.Client), account.NewRepository(db.Client), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	if res.Skipped {
		log.Info("seed skipped, classes already present")
		return nil
	}
	log.Info("demo data loaded", "classes", res.Classes, "students", res.Students, "users", res.Users)
	return nil
}
