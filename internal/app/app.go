package app

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"fmrreport/internal/config"
	"fmrreport/internal/datastore"
	"fmrreport/internal/errors"
	"fmrreport/internal/infrastructure"
	customMiddleware "fmrreport/internal/middleware"
	"fmrreport/internal/services"
	handlers "fmrreport/internal/transport/http"
	"fmrreport/pkg/contracts"
	"fmrreport/pkg/contracts/domain"
)

// DataSource is what the application needs from the measurement database.
type DataSource interface {
	services.RecordFetcher
	services.Pinger
}

// poolStatter is implemented by data sources backed by database/sql.
type poolStatter interface {
	Stats() sql.DBStats
}

// Application represents the main application container
type Application struct {
	Config         *config.Config
	Router         *chi.Mux
	Server         *http.Server
	Logger         *slog.Logger
	OTelProviders  *infrastructure.OTelProviders
	Metrics        *infrastructure.ReportMetrics
	RuntimeMetrics *infrastructure.RuntimeMetrics
	DataSource     DataSource
	ReportService  *services.ReportService
	HealthService  *services.HealthService
	ErrorHandler   *errors.ErrorHandler

	closeDataSource func() error
}

// NewApplication loads configuration, opens the data source and wires every
// component.
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.String("driver", cfg.Database.Driver))

	providers, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry, contracts.Version), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	fetcher, err := datastore.Open(cfg.Database, logger)
	if err != nil {
		providers.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to open data source: %w", err)
	}

	app, err := New(cfg, logger, providers, fetcher)
	if err != nil {
		fetcher.Close()
		providers.Shutdown(context.Background())
		return nil, err
	}
	app.closeDataSource = fetcher.Close
	return app, nil
}

// New wires an application around an existing data source. providers may be
// nil, in which case tracing falls back to the global provider and metrics
// are off.
func New(cfg *config.Config, logger *slog.Logger, providers *infrastructure.OTelProviders, source DataSource) (*Application, error) {
	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: providers,
		DataSource:    source,
		// Stack traces reach 5xx bodies only when debugging.
		ErrorHandler:  errors.NewErrorHandler(logger, strings.EqualFold(cfg.Logging.Level, "debug")),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices() error {
	if a.OTelProviders != nil && a.OTelProviders.Meter != nil {
		metrics, err := infrastructure.CreateReportMetrics(a.OTelProviders.Meter)
		if err != nil {
			return fmt.Errorf("failed to create report metrics: %w", err)
		}
		a.Metrics = metrics

		var poolStats infrastructure.PoolStatsFunc
		if ps, ok := a.DataSource.(poolStatter); ok {
			poolStats = ps.Stats
		}
		rm, err := infrastructure.NewRuntimeMetrics(a.OTelProviders.Meter, poolStats)
		if err != nil {
			return fmt.Errorf("failed to create runtime metrics: %w", err)
		}
		a.RuntimeMetrics = rm
	}

	a.ReportService = services.NewReportService(a.DataSource, services.ReportOptions{
		FilenamePrefix: a.Config.Report.FilenamePrefix,
		SheetName:      a.Config.Report.SheetName,
		CSVBOM:         a.Config.Report.CSVBOM,
	}, a.Metrics, a.Logger)

	a.HealthService = services.NewHealthService(contracts.Version, contracts.BuildTime, contracts.Commit(), a.DataSource, a.RuntimeMetrics, a.Logger)

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// RequestID → RealIP → OTel → Logger → Recoverer → headers → CORS → rate limit → Timeout
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)
	r.Use(customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics).Handler)
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.DefaultSecureHeaders().Handler)
	r.Use(customMiddleware.StripSlashes)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(a.getCORSConfig()))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// Probes and metrics stay outside the report timeout.
	handlers.NewHealthHandler(a.HealthService, a.Logger).Register(r)

	var prometheus http.Handler
	if a.OTelProviders != nil {
		prometheus = a.OTelProviders.PrometheusHTTP
	}
	r.Mount("/metrics", handlers.NewMetricsHandler(prometheus, a.RuntimeMetrics).Routes())

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.Timeout(a.Config.Server.ReportTimeout, a.Logger))

		form := handlers.NewFormHandler(a.ReportService, config.AppName, a.Logger)
		r.Get("/", form.ServeForm)
		r.Post("/", form.Submit)

		r.Route("/api/reports", func(r chi.Router) {
			r.Use(customMiddleware.APIKeyAuth(a.Logger, a.Config.Security.APIKeys))
			r.Use(customMiddleware.AuditLog(a.Logger))

			defaultFormat, ok := domain.ParseReportFormat(a.Config.Report.DefaultFormat)
			if !ok {
				defaultFormat = domain.ReportFormatExcel
			}
			r.Mount("/", handlers.NewReportHandler(a.ReportService, defaultFormat, a.Logger, a.ErrorHandler).Routes())
		})
	})

	a.Router = r
}

// getCORSConfig returns CORS configuration from the security settings
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		MaxAge:         300,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server. The write timeout must leave room for
// the report timeout.
func (a *Application) createServer() {
	writeTimeout := a.Config.Server.WriteTimeout
	if floor := a.Config.Server.ReportTimeout + 5*time.Second; writeTimeout < floor {
		writeTimeout = floor
	}

	a.Server = &http.Server{
		Addr:           fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the HTTP server in the background. A listen failure cancels ctx.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", config.AppName),
		slog.String("version", contracts.Version),
		slog.Int("port", a.Config.Server.Port),
		slog.String("level", a.Config.Logging.Level))

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			cancel()
		}
	}()

	a.performStartupHealthCheck(ctx)

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	if a.RuntimeMetrics != nil {
		if err := a.RuntimeMetrics.Unregister(); err != nil {
			a.Logger.ErrorContext(ctx, "Error unregistering runtime metrics", slog.String("error", err.Error()))
		}
	}

	if a.closeDataSource != nil {
		if err := a.closeDataSource(); err != nil {
			a.Logger.ErrorContext(ctx, "Error closing data source", slog.String("error", err.Error()))
		}
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until interrupted
func (a *Application) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	select {
	case <-sigChan:
		a.Logger.InfoContext(ctx, "Received interrupt signal")
	case <-ctx.Done():
		a.Logger.WarnContext(ctx, "Server stopped unexpectedly")
	}

	return a.Stop(context.Background())
}

// performStartupHealthCheck pings the data source once so a bad DSN shows up
// in the startup log rather than on the first report. It never fails startup.
func (a *Application) performStartupHealthCheck(ctx context.Context) {
	status := a.HealthService.ReadinessCheck(ctx)
	if status.Status != services.StatusReady {
		a.Logger.WarnContext(ctx, "Startup health check warnings",
			slog.String("database", status.Services["database"].Message))
		return
	}
	a.Logger.InfoContext(ctx, "Startup health check passed")
}
