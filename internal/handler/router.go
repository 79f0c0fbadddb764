package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/userdesk/userdesk/internal/cache"
	"github.com/userdesk/userdesk/internal/metrics"
	"github.com/userdesk/userdesk/internal/middleware"
	"github.com/userdesk/userdesk/internal/service"
)

// RouterConfig collects everything the router needs.
type RouterConfig struct {
	Logger   *slog.Logger
	Users    *service.UserService
	Auth     *service.AuthService
	Tokens   middleware.TokenVerifier
	Health   *HealthHandler
	Recorder metrics.Recorder
	// MetricsHandler serves /metrics. Omitted when nil.
	MetricsHandler http.Handler
	// Cache backs the login rate limiter. Nil falls back to per-process limits.
	Cache *cache.Cache

	IsDevelopment      bool
	RequestTimeout     time.Duration
	MaxRequestBodySize int64
	LoginRateEnabled   bool
	LoginRatePerMinute int
	LoginRateBurst     int
}

// NewRouter configures the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) *chi.Mux {
	if cfg.Recorder == nil {
		cfg.Recorder = metrics.NewNoop()
	}
	if cfg.Health == nil {
		cfg.Health = NewHealthHandler(nil, nil)
	}

	users := NewUserHandler(cfg.Users, cfg.Logger)
	login := NewAuthHandler(cfg.Auth, cfg.Logger)

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	r.Use(middleware.Metrics(cfg.Recorder))

	// Probes and metrics (no auth required)
	r.Get("/healthz", cfg.Health.Healthz)
	r.Get("/readyz", cfg.Health.Readyz)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(chimiddleware.Timeout(cfg.RequestTimeout))
		}
		if cfg.MaxRequestBodySize > 0 {
			r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))
		}

		r.With(middleware.RateLimitLogin(middleware.RateLimitConfig{
			Logger:    cfg.Logger,
			Cache:     cfg.Cache,
			Enabled:   cfg.LoginRateEnabled,
			PerMinute: cfg.LoginRatePerMinute,
			Burst:     cfg.LoginRateBurst,
		})).Post("/auth", login.Login)

		r.Route("/users", func(r chi.Router) {
			r.Use(middleware.Auth(middleware.AuthConfig{
				Logger: cfg.Logger,
				Tokens: cfg.Tokens,
			}))

			r.Get("/", users.List)
			r.Post("/", users.Create)
			r.Get("/{id}", users.Get)
			r.Put("/{id}", users.Update)
			r.Delete("/{id}", users.Delete)
		})
	})

	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	return r
}
