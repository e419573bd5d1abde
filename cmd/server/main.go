package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/DukeRupert/fleetintake/internal"
	"github.com/DukeRupert/fleetintake/internal/handler"
	"github.com/DukeRupert/fleetintake/internal/metrics"
	"github.com/DukeRupert/fleetintake/internal/middleware"
	"github.com/DukeRupert/fleetintake/internal/report"
	"github.com/DukeRupert/fleetintake/internal/service"
	"github.com/DukeRupert/fleetintake/internal/session"
	"github.com/DukeRupert/fleetintake/web"
)

// devTemplatesDir is re-read on every render in development.
const devTemplatesDir = "web/templates"

func run(ctx context.Context) error {
	// Load configuration
	cfg, err := internal.NewConfig()
	if err != nil {
		return fmt.Errorf("config initialization failed: %w", err)
	}

	// Configure logger
	logger := internal.NewLogger(os.Stdout, cfg.Env, cfg.LogLevel)

	// Initialize template renderer
	renderer, err := handler.NewRenderer(templateConfig(cfg, logger))
	if err != nil {
		return fmt.Errorf("renderer initialization failed: %w", err)
	}
	logger.Info("Templates loaded", "count", len(renderer.Pages()))

	// Initialize session store and services
	store := session.NewStore(cfg.SessionIdleTimeout, logger)
	intakeService := service.NewIntakeService(store, service.IntakeConfig{
		ReportIDScope: cfg.ReportIDScope,
	}, logger)
	reportService := service.NewReportService(intakeService, logger,
		report.NewPDFGenerator(cfg.ReportLocation),
		report.NewJSONGenerator(cfg.ReportLocation),
	)

	// Initialize middleware
	isSecure := !cfg.IsDevelopment()
	sessionMw := middleware.NewSessionMiddleware(store, logger, isSecure)
	csrfMw := middleware.NewCSRFMiddleware(logger, isSecure)
	limiter := middleware.NewRateLimiter(cfg.RateLimitRequests, cfg.RateLimitWindow, logger)
	rateLimitMw := middleware.NewRateLimitMiddleware(limiter, logger)
	metricsAuth := middleware.NewMetricsAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword, logger)
	if !metricsAuth.Enabled() {
		logger.Warn("metrics endpoint is unprotected; set METRICS_USERNAME and METRICS_PASSWORD")
	}

	// Initialize handlers
	intakeHandler := handler.NewIntakeHandler(intakeService, reportService, renderer, cfg.ReportLocation, logger)

	// ==========================================================================
	// Create router and register routes
	// ==========================================================================

	mux := http.NewServeMux()

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServerFS(web.Static())))

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Metrics
	mux.Handle("GET /metrics", metricsAuth.Handler(promhttp.Handler()))

	// Intake screens. Every route gets a session and CSRF token; the POST
	// events are verified and rate limited per client IP.
	page := middleware.Stack(sessionMw.WithSession, csrfMw.Protect)
	action := middleware.Stack(rateLimitMw.Limit, sessionMw.WithSession, csrfMw.Protect)
	intakeHandler.RegisterRoutes(mux, page, action)

	// Request metrics read the matched pattern, so they wrap the mux
	// directly.
	app := middleware.Stack(
		middleware.NewSecurityHeadersMiddleware(isSecure).Handler,
		middleware.NewRequestLoggingMiddleware(logger).Handler,
		metrics.Middleware,
	)(mux)

	// ==========================================================================
	// Start server
	// ==========================================================================

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Server started", "address", server.Addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return store.Run(gctx, cfg.SessionSweepInterval)
	})

	g.Go(func() error {
		return limiter.Run(gctx, cfg.RateLimitWindow)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutdown signal received, initiating graceful shutdown...")

		// Create shutdown context with timeout
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("Server stopped gracefully", "sessions", store.Len())
	return nil
}

// templateConfig reads templates from disk in development when the
// directory is present, so edits show up without a rebuild.
func templateConfig(cfg *internal.Config, logger *slog.Logger) handler.RendererConfig {
	var fsys fs.FS = web.Templates()
	reload := false
	if cfg.IsDevelopment() {
		if info, err := os.Stat(devTemplatesDir); err == nil && info.IsDir() {
			fsys = os.DirFS(devTemplatesDir)
			reload = true
		}
	}
	return handler.RendererConfig{FS: fsys, Logger: logger, Reload: reload}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatal(err)
	}
}
