package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/expertauto/expertise/internal"
	"github.com/expertauto/expertise/internal/handler"
	"github.com/expertauto/expertise/internal/jobs"
	"github.com/expertauto/expertise/internal/metrics"
	"github.com/expertauto/expertise/internal/middleware"
	"github.com/expertauto/expertise/internal/repository"
	"github.com/expertauto/expertise/internal/service"
	"github.com/expertauto/expertise/internal/storage"
	"github.com/expertauto/expertise/internal/worker"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func run() error {
	ctx := context.Background()

	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize database connection
	db, err := sql.Open("pgx", cfg.DatabaseUrl)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// Run migrations
	if err := internal.RunMigrations(ctx, db, logger); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Database ready")

	// Initialize repository and storage
	store := repository.NewStore(db)

	files, err := storage.New(cfg.StorageConfig(), logger)
	if err != nil {
		return fmt.Errorf("storage initialization failed: %w", err)
	}
	logger.Info("Storage ready", "provider", cfg.StorageProvider)

	// Initialize services
	reportService := service.NewReportService(store, files, cfg.ReportServiceConfig(), logger)
	officeService := service.NewOfficeService(store, logger)
	exportService := service.NewExportService(store, files, logger)

	// Initialize background worker
	var jobWorker *worker.Worker
	if cfg.WorkerEnabled {
		jobWorker, err = worker.New(store, cfg.WorkerConfig(), logger)
		if err != nil {
			return fmt.Errorf("worker initialization failed: %w", err)
		}
		jobWorker.Register(jobs.NewGenerateStatementHandler(reportService, store, files, logger))
		jobWorker.Start(ctx)
	} else {
		logger.Warn("Worker disabled, statement exports will stay queued")
	}

	// Initialize middleware
	isSecure := cfg.Env != "development"
	tokens := middleware.NewTokenMiddleware(cfg.JWTSecret, logger)
	security := middleware.NewSecurityHeadersMiddleware(isSecure)
	requestLog := middleware.NewRequestLoggingMiddleware(logger)
	metricsAuth := middleware.NewBasicAuthMiddleware("metrics", cfg.MetricsUsername, cfg.MetricsPassword, logger)

	limitCreate := func(next http.Handler) http.Handler { return next }
	if cfg.CreateRateLimit > 0 {
		limiter := middleware.NewRateLimiter(cfg.CreateRateLimit, time.Minute)
		limitCreate = middleware.NewRateLimitMiddleware(limiter, logger).Limit
	}

	// Initialize handlers
	reportHandler := handler.NewReportHandler(reportService, logger)
	officeHandler := handler.NewOfficeHandler(officeService, logger)
	valuationHandler := handler.NewValuationHandler(reportService, logger)
	exportHandler := handler.NewExportHandler(exportService, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			logger.Warn("Health check failed", "error", err)
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Prometheus scrape endpoint
	if cfg.MetricsUsername == "" && cfg.MetricsPassword == "" {
		logger.Warn("Metrics endpoint is not protected, set METRICS_USERNAME and METRICS_PASSWORD")
	}
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Generated statements when stored on local disk
	if local, ok := files.(*storage.LocalStorage); ok {
		mux.Handle("GET /files/", tokens.RequireActor(http.StripPrefix("/files/", local.Handler())))
	}

	reportHandler.RegisterRoutes(mux, tokens.RequireActor, limitCreate)
	officeHandler.RegisterRoutes(mux, tokens.RequireActor, tokens.RequireRole)
	valuationHandler.RegisterRoutes(mux, tokens.RequireActor)
	exportHandler.RegisterRoutes(mux, tokens.RequireActor)

	app := middleware.Stack(
		security.Handler,
		tokens.WithActor,
		requestLog.Handler,
		metrics.Middleware, // innermost so the matched pattern is visible
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Channel to listen for interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal or a listener failure
	select {
	case <-sigChan:
		logger.Info("Shutdown signal received, initiating graceful shutdown...")
	case err := <-serverErr:
		logger.Error("Server failed", "error", err)
	}

	// Create shutdown context with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
	}

	// In-flight jobs finish after the server stops accepting requests
	if jobWorker != nil {
		jobWorker.Stop()
	}

	logger.Info("Graceful shutdown complete")
	return nil
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}
