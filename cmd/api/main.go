// Package main is the entrypoint for the usermeta API server.
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/usermeta/usermeta/internal/cache"
	"github.com/usermeta/usermeta/internal/config"
	"github.com/usermeta/usermeta/internal/docstore"
	"github.com/usermeta/usermeta/internal/handler"
	"github.com/usermeta/usermeta/internal/middleware"
	"github.com/usermeta/usermeta/internal/model"
	"github.com/usermeta/usermeta/internal/server"
	"github.com/usermeta/usermeta/internal/service"
	"github.com/usermeta/usermeta/internal/telemetry"
	"github.com/usermeta/usermeta/internal/vault"
)

// usersTable is the table backing the user metadata collection.
const usersTable = "documents"

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := initLogger(cfg)

	// Initialize tracing
	tracerProvider, err := telemetry.Init(ctx, cfg.ServiceName, cfg.ServiceVersion)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Initialize document store
	store, err := docstore.New(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("connected to database")

	// Initialize cache
	cacheClient, err := cache.New(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	defer cacheClient.Close()
	logger.Info("connected to Redis")

	// Clients are built once here and shared read-only across all
	// request goroutines.
	secrets := vault.NewClient(cfg.VaultAddr, cfg.VaultToken)
	users := docstore.NewCollection[model.UserRecord](store, usersTable)
	userService := service.NewUserService(users, logger)

	// Initialize handlers
	h := handler.New()
	healthHandler := handler.NewHealthHandler(store, cacheClient)
	userHandler := handler.NewUserHandler(userService, logger)

	// Setup router
	r := setupRouter(h, healthHandler, userHandler, cacheClient, secrets, cfg, logger)

	// Create and run server
	srv := server.New(
		r,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)
	srv.OnShutdown("tracer", tracerProvider.Shutdown)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"service", cfg.ServiceName,
		"version", cfg.ServiceVersion,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	var h slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	if cfg.LogFormat == "json" {
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
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// setupRouter configures the chi router with all routes and middleware.
func setupRouter(
	h *handler.Handler,
	healthHandler *handler.HealthHandler,
	userHandler *handler.UserHandler,
	cacheClient *cache.Cache,
	secrets vault.SecretSource,
	cfg *config.Config,
	logger *slog.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(maxBodySize(cfg.MaxRequestBodySize))

	// Liveness and probes (no auth required)
	r.Get("/", h.Alive)
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)

	authCfg := middleware.AuthKeyConfig{
		Logger:     logger,
		Secrets:    secrets,
		SecretName: cfg.VaultSecretName,
	}

	rateLimitCfg := middleware.RateLimitConfig{
		Logger:  logger,
		Cache:   cacheClient,
		Enabled: cfg.RateLimitEnabled,
		RPS:     cfg.RateLimitRPS,
		Burst:   cfg.RateLimitBurst,
	}

	// API v1 routes. The shared-secret check applies to every route
	// here, reads and writes alike.
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.RateLimitIP(rateLimitCfg))
		r.Use(middleware.AuthKey(authCfg))

		r.Route("/users", func(r chi.Router) {
			r.Post("/", userHandler.Save)
			r.Get("/", userHandler.List)
			r.Delete("/", userHandler.Delete)
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}

// maxBodySize caps request body reads so a hostile payload cannot
// exhaust memory.
func maxBodySize(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, limit)
			next.ServeHTTP(w, r)
		})
	}
}
