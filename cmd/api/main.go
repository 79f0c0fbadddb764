// Package main is the entrypoint for the userdesk API server.
package main

import (
	"context"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"strings"

	"github.com/userdesk/userdesk/internal/auth"
	"github.com/userdesk/userdesk/internal/cache"
	"github.com/userdesk/userdesk/internal/config"
	"github.com/userdesk/userdesk/internal/handler"
	"github.com/userdesk/userdesk/internal/metrics"
	"github.com/userdesk/userdesk/internal/model"
	"github.com/userdesk/userdesk/internal/repository"
	"github.com/userdesk/userdesk/internal/server"
	"github.com/userdesk/userdesk/internal/service"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	// Token service first: a bad secret should fail before any connection is opened.
	tokens, err := auth.NewTokenService(auth.TokenConfig{
		Secret:   cfg.JWTSecret,
		TTL:      cfg.TokenTTL(),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	})
	if err != nil {
		logger.Error("failed to initialize token service", slog.String("error", err.Error()))
		os.Exit(1)
	}

	srvOpts := server.Options{
		Port:            cfg.AppPort,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}

	// Storage
	var (
		store    repository.Store[*model.User]
		dbHealth handler.HealthChecker
		closers  []func()
	)
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		store = repository.NewUserMemoryStore()
		logger.Warn("using in-memory store, data is lost on restart")
	default:
		if cfg.DBAutoMigrate {
			if err := runMigrations(ctx, cfg.DatabaseURL); err != nil {
				logger.Error("failed to apply migrations",
					slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				)
				os.Exit(1)
			}
			logger.Info("database migrations applied")
		}

		db, err := repository.Open(ctx, cfg.DatabaseURL, repository.PoolOptions{
			MaxConns: cfg.DBMaxConns,
			MinConns: cfg.DBMinConns,
		})
		if err != nil {
			logger.Error(
				"failed to connect to database",
				slog.String("error", sanitizeError(err, cfg.DatabaseURL)),
				slog.String("database_url", redactURL(cfg.DatabaseURL)),
			)
			os.Exit(1)
		}
		closers = append(closers, db.Close)
		logger.Info("connected to database")

		store = repository.NewUserPostgresStore(db)
		dbHealth = db
	}

	// Cache (optional)
	var (
		cacheClient *cache.Cache
		cacheHealth handler.HealthChecker
	)
	if cfg.RedisURL != "" {
		cacheClient, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error(
				"failed to connect to Redis",
				slog.String("error", sanitizeError(err, cfg.RedisURL)),
				slog.String("redis_url", redactURL(cfg.RedisURL)),
			)
			for _, c := range closers {
				c()
			}
			os.Exit(1)
		}
		cacheHealth = cacheClient
		logger.Info("connected to Redis")
	} else {
		logger.Info("REDIS_URL not set, login rate limits are tracked per process")
	}

	// Services
	recorder := metrics.NewPrometheus()
	userService := service.NewUserService(store, recorder)
	authService := service.NewAuthService(userService, tokens, recorder)

	r := handler.NewRouter(handler.RouterConfig{
		Logger:             logger,
		Users:              userService,
		Auth:               authService,
		Tokens:             tokens,
		Health:             handler.NewHealthHandler(dbHealth, cacheHealth),
		Recorder:           recorder,
		MetricsHandler:     recorder.Handler(),
		Cache:              cacheClient,
		IsDevelopment:      cfg.IsDevelopment(),
		RequestTimeout:     cfg.RequestTimeout,
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		LoginRateEnabled:   cfg.LoginRateLimitEnabled,
		LoginRatePerMinute: cfg.LoginRateLimitPerMinute,
		LoginRateBurst:     cfg.LoginRateLimitBurst,
	})

	srv := server.New(r, srvOpts, logger)
	for _, c := range closers {
		srv.OnShutdown("postgres", func(context.Context) error {
			c()
			return nil
		})
	}
	if cacheClient != nil {
		srv.OnShutdown("redis", func(context.Context) error {
			return cacheClient.Close()
		})
	}

	logger.Info("starting server",
		"port", cfg.AppPort,
		"env", cfg.AppEnv,
		"store", cfg.StoreDriver,
	)

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// runMigrations applies the embedded schema over a short-lived database/sql handle.
func runMigrations(ctx context.Context, databaseURL string) error {
	db, err := repository.OpenMigrationDB(databaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	return repository.Migrate(ctx, db)
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if strings.EqualFold(cfg.LogFormat, "json") {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

var passwordPattern = regexp.MustCompile(`(?i)password=[^\s]+`)

// redactURL strips the password from a connection URL.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return "[redacted]"
	}

	if parsed.User != nil {
		username := parsed.User.Username()
		if username == "" {
			parsed.User = url.User("redacted")
		} else {
			parsed.User = url.User(username)
		}
	}

	return parsed.String()
}

// sanitizeError removes connection secrets from driver error messages.
func sanitizeError(err error, secrets ...string) string {
	if err == nil {
		return ""
	}

	msg := err.Error()
	for _, secret := range secrets {
		if secret == "" {
			continue
		}
		redacted := redactURL(secret)
		if redacted == "" {
			redacted = "[redacted]"
		}
		msg = strings.ReplaceAll(msg, secret, redacted)
	}

	return passwordPattern.ReplaceAllString(msg, "password=redacted")
}
