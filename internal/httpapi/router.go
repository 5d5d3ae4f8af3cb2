// Package httpapi exposes the attendance services over HTTP.
package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"classattend/internal/account"
	"classattend/internal/attendance"
	"classattend/internal/auth"
	"classattend/internal/httpmiddleware"
	"classattend/internal/metrics"
	"classattend/internal/roster"
	"classattend/internal/store"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	Logger     *slog.Logger
	DB         *store.DB
	Redis      *store.Redis
	Auth       *auth.Service
	Gate       *auth.Gate
	Roster     *roster.Service
	Attendance *attendance.Service
	Metrics    *metrics.Collector
	Gatherer   prometheus.Gatherer

	// APILimiter applies to every /api route, LoginLimiter only to login.
	// Nil disables the limiter.
	APILimiter   httpmiddleware.Limiter
	LoginLimiter httpmiddleware.Limiter

	CORSOrigins []string
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(d Deps) *gin.Engine {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Metrics == nil {
		reg := prometheus.NewRegistry()
		d.Metrics, d.Gatherer = metrics.NewCollector(reg), reg
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	registerValidators()

	h := &handlers{
		logger:     d.Logger,
		db:         d.DB,
		redis:      d.Redis,
		auth:       d.Auth,
		roster:     d.Roster,
		attendance: d.Attendance,
		metrics:    d.Metrics,
	}

	r := gin.New()
	r.Use(
		gin.Recovery(),
		httpmiddleware.RequestID(),
		httpmiddleware.AccessLog(d.Logger, d.Metrics.RecordHTTP, principalID, "/healthz", "/metrics"),
		cors.New(corsConfig(d.CORSOrigins)),
		httpmiddleware.SecurityHeaders(),
	)

	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(metrics.Handler(d.Gatherer)))

	api := r.Group("/api")
	if d.APILimiter != nil {
		api.Use(httpmiddleware.RateLimit("api", d.APILimiter, d.Logger, d.Metrics.RecordRateLimited))
	}

	login := []gin.HandlerFunc{}
	if d.LoginLimiter != nil {
		login = append(login, httpmiddleware.RateLimit("login", d.LoginLimiter, d.Logger, d.Metrics.RecordRateLimited))
	}
	api.POST("/auth/login", append(login, h.login)...)

	authed := api.Group("", d.Gate.Require())
	teacher := auth.AllowRoles(account.RoleTeacher)

	authed.GET("/me", h.me)
	authed.GET("/classes", h.listClasses)
	authed.GET("/students", h.listStudents)
	authed.POST("/students", teacher, h.createStudent)
	authed.POST("/attendance", teacher, h.recordAttendance)
	authed.GET("/attendance", h.listAttendance)
	authed.GET("/reports/class/:className", auth.AllowRoles(account.RoleTeacher, account.RoleParent), h.classReport)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
	return r
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", httpmiddleware.RequestIDHeader},
		ExposeHeaders: []string{httpmiddleware.RequestIDHeader},
		MaxAge:        24 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = origins
	}
	return cfg
}

func principalID(c *gin.Context) (int64, bool) {
	p, ok := auth.PrincipalFrom(c)
	if !ok {
		return 0, false
	}
	return p.UserID, true
}
