package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/iho/salesledger/internal/adapter/http/handler"
	"github.com/iho/salesledger/internal/adapter/http/middleware"
	"github.com/iho/salesledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	SalesHandler  *handler.SalesHandler
	HealthHandler *handler.HealthHandler

	Logger zerolog.Logger

	// Optional
	MetricsHandler     http.Handler
	HTTPMetrics        *middleware.HTTPMetrics
	IdempotencyStore   usecase.IdempotencyStore
	IdempotencyTTL     time.Duration
	RateLimiter        *middleware.RateLimiter
	CORSAllowedOrigins []string
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	if cfg.HTTPMetrics != nil {
		r.Use(cfg.HTTPMetrics.Wrap)
	}
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", middleware.IdempotencyKeyHeader, middleware.RequestIDHeader},
			ExposedHeaders: []string{middleware.RequestIDHeader},
			MaxAge:         300,
		}))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/sales", cfg.SalesHandler.List)
		r.With(idempotency(cfg)...).Post("/sales", cfg.SalesHandler.Record)
		r.Get("/summary", cfg.SalesHandler.Summary)
		r.Get("/roster", cfg.SalesHandler.Roster)
	})

	return r
}

func idempotency(cfg RouterConfig) []func(http.Handler) http.Handler {
	if cfg.IdempotencyStore == nil {
		return nil
	}
	return []func(http.Handler) http.Handler{
		middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL).Wrap,
	}
}
