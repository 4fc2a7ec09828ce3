package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	httpAdapter "github.com/iho/salesledger/internal/adapter/http"
	"github.com/iho/salesledger/internal/adapter/http/handler"
	"github.com/iho/salesledger/internal/adapter/http/middleware"
	"github.com/iho/salesledger/internal/adapter/repository/memory"
	postgresRepo "github.com/iho/salesledger/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/salesledger/internal/adapter/repository/redis"
	"github.com/iho/salesledger/internal/infrastructure/config"
	"github.com/iho/salesledger/internal/infrastructure/logger"
	"github.com/iho/salesledger/internal/infrastructure/metrics"
	"github.com/iho/salesledger/internal/infrastructure/postgres"
	"github.com/iho/salesledger/internal/infrastructure/redis"
	"github.com/iho/salesledger/internal/usecase"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	limiterIdleTimeout     = 30 * time.Minute
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logger
	appLogger := logger.New(logger.Config{
		Service: cfg.ServiceName,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})
	log.Logger = appLogger
	zerolog.DefaultContextLogger = &appLogger

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Error().Err(err).Msg("server failed")
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger zerolog.Logger) error {
	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	server := newHTTPServer(cfg, a.handler)

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("port", cfg.HTTPPort).Str("storage", cfg.StorageDriver).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Info().Msg("server stopped")
	return nil
}

func newHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           h,
		ReadTimeout:       cfg.HTTPReadTimeout,
		ReadHeaderTimeout: cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
		IdleTimeout:       cfg.HTTPIdleTimeout,
	}
}

// app holds the wired HTTP handler and the resources it owns.
type app struct {
	handler http.Handler
	closers []func()
}

// Close releases resources in reverse order of acquisition.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	a := &app{}
	checks := map[string]handler.Pinger{}

	// Initialize repositories
	var saleRepo usecase.SaleRepository
	switch cfg.StorageDriver {
	case config.StorageMemory:
		memRepo := memory.NewSaleRepository()
		saleRepo = memRepo
		checks["storage"] = memRepo
		logger.Warn().Msg("using in-memory storage; sales are lost on restart")

	default:
		pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
			DatabaseURL:    cfg.DatabaseURL,
			MaxConns:       cfg.DatabaseMaxConns,
			MinConns:       cfg.DatabaseMinConns,
			ConnectTimeout: cfg.DatabaseConnectTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.closers = append(a.closers, pool.Close)
		logger.Info().Int("max_conns", cfg.DatabaseMaxConns).Msg("connected to postgres")

		if cfg.MigrateOnStart {
			if err := postgres.RunMigrations(cfg.DatabaseURL); err != nil {
				a.Close()
				return nil, err
			}
		}

		opts := []postgresRepo.Option{
			postgresRepo.WithMaxInFlight(cfg.DatabaseMaxConns),
			postgresRepo.WithAcquireTimeout(cfg.DatabaseAcquireTimeout),
			postgresRepo.WithObserver(appMetrics),
		}
		if cfg.DatabaseRetryReads {
			opts = append(opts, postgresRepo.WithRetrier(postgresRepo.NewRetrier(logger)))
		}
		pgRepo := postgresRepo.NewSaleRepository(pool, opts...)
		saleRepo = pgRepo
		checks["postgres"] = pgRepo
	}

	ucOpts := []usecase.SalesOption{
		usecase.WithMetrics(appMetrics),
		usecase.WithLogger(logger),
	}

	// Connect to Redis (optional)
	var idempotencyStore usecase.IdempotencyStore
	if cfg.RedisURL != "" {
		redisClient, err := redis.NewClient(ctx, cfg.RedisURL, cfg.DatabaseConnectTimeout)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.closers = append(a.closers, func() { redisClient.Close() })
		logger.Info().Msg("connected to redis")

		ucOpts = append(ucOpts, usecase.WithSummaryCache(redisRepo.NewSummaryCache(redisClient, cfg.SummaryCacheTTL)))
		idempotencyStore = redisRepo.NewIdempotencyStore(redisClient)
		checks["redis"] = redis.NewChecker(redisClient)
	}

	// Initialize use cases
	salesUC := usecase.NewSalesUseCase(saleRepo, cfg.SalesPolicy(), ucOpts...)

	var rateLimiter *middleware.RateLimiter
	if cfg.RateLimitRPS > 0 {
		rateLimiter = middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
		go cleanupLimiters(ctx, rateLimiter)
	}

	a.handler = httpAdapter.NewRouter(httpAdapter.RouterConfig{
		SalesHandler:       handler.NewSalesHandler(salesUC, loc),
		HealthHandler:      handler.NewHealthHandler(checks),
		Logger:             logger,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		HTTPMetrics:        middleware.NewHTTPMetrics(registry),
		IdempotencyStore:   idempotencyStore,
		IdempotencyTTL:     cfg.IdempotencyTTL,
		RateLimiter:        rateLimiter,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	return a, nil
}

func cleanupLimiters(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.CleanupLimiters(limiterIdleTimeout)
		}
	}
}
