package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"fmrreport/internal/config"
)

const (
	ServiceName = "fmr-report"
	MeterName   = "fmrreport"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout" or "none"
	MetricExporter string // "prometheus" or "none"
	SampleRatio    float64
}

// OTelProviders holds the OpenTelemetry providers. MeterProvider, Meter and
// PrometheusHTTP stay nil when metrics are disabled.
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// NewOTelConfig maps the telemetry settings onto an OTelConfig for the given
// build version.
func NewOTelConfig(t config.TelemetryConfig, version string) *OTelConfig {
	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: version,
		Environment:    t.Environment,
		TraceExporter:  t.TraceExporter,
		MetricExporter: t.MetricExporter,
		SampleRatio:    t.SampleRatio,
	}
}

// InitializeOTel installs the global tracer and meter providers and the W3C
// propagators. Tracing is always on so that request logs carry a trace_id.
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if cfg == nil {
		cfg = NewOTelConfig(config.Default().Telemetry, "dev")
	}
	ctx := context.Background()

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", instanceID()),
	)

	providers := &OTelProviders{Logger: logger}
	if err := providers.setupTracing(cfg, res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := providers.setupMetrics(cfg, res); err != nil {
		providers.TracerProvider.Shutdown(ctx)
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))

	return providers, nil
}

func (p *OTelProviders) setupTracing(cfg *OTelConfig, res *resource.Resource) error {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	}

	switch cfg.TraceExporter {
	case "stdout":
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	case "none":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	p.TracerProvider = sdktrace.NewTracerProvider(opts...)
	p.Tracer = p.TracerProvider.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(p.TracerProvider)
	return nil
}

func (p *OTelProviders) setupMetrics(cfg *OTelConfig, res *resource.Resource) error {
	switch cfg.MetricExporter {
	case "prometheus":
	case "none":
		return nil
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	// The exporter registers with the default Prometheus registry, which
	// promhttp.Handler serves.
	exporter, err := prometheus.New()
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	p.MeterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	p.Meter = p.MeterProvider.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	p.PrometheusHTTP = promhttp.Handler()
	otel.SetMeterProvider(p.MeterProvider)
	return nil
}

// ReportMetrics holds the application's metric instruments
type ReportMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	ReportRequestsTotal metric.Int64Counter
	ReportDuration      metric.Float64Histogram
	ReportRowsFetched   metric.Int64Histogram
	ReportRowsEmitted   metric.Int64Histogram
}

// CreateReportMetrics creates the HTTP and report pipeline instruments.
func CreateReportMetrics(meter metric.Meter) (*ReportMetrics, error) {
	var (
		m    ReportMetrics
		errs []error
	)
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	var err error
	m.HTTPRequestsTotal, err = meter.Int64Counter("http_requests_total",
		metric.WithDescription("Total number of HTTP requests"))
	collect(err)
	m.HTTPRequestDuration, err = meter.Float64Histogram("http_request_duration_seconds",
		metric.WithDescription("HTTP request duration in seconds"), metric.WithUnit("s"))
	collect(err)
	m.HTTPActiveRequests, err = meter.Int64UpDownCounter("http_active_requests",
		metric.WithDescription("Number of in-flight HTTP requests"))
	collect(err)

	m.ReportRequestsTotal, err = meter.Int64Counter("report_requests_total",
		metric.WithDescription("Report generations by outcome and format"))
	collect(err)
	m.ReportDuration, err = meter.Float64Histogram("report_generation_duration_seconds",
		metric.WithDescription("Report generation duration in seconds"), metric.WithUnit("s"))
	collect(err)
	m.ReportRowsFetched, err = meter.Int64Histogram("report_rows_fetched",
		metric.WithDescription("Measurement rows returned by the data source per report"))
	collect(err)
	m.ReportRowsEmitted, err = meter.Int64Histogram("report_rows_emitted",
		metric.WithDescription("Rows written to the report artifact"))
	collect(err)

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return &m, nil
}

// RecordReportMetrics records one report generation. outcome is a short label
// such as "success", "invalid_date", "data_source_error" or "no_data". Zero
// row counts are not recorded.
func RecordReportMetrics(ctx context.Context, metrics *ReportMetrics, outcome, format string, duration time.Duration, rowsFetched, rowsEmitted int) {
	if metrics == nil {
		return
	}

	labels := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("format", format),
	)
	metrics.ReportRequestsTotal.Add(ctx, 1, labels)
	metrics.ReportDuration.Record(ctx, duration.Seconds(), labels)

	if rowsFetched > 0 {
		metrics.ReportRowsFetched.Record(ctx, int64(rowsFetched))
	}
	if rowsEmitted > 0 {
		metrics.ReportRowsEmitted.Record(ctx, int64(rowsEmitted))
	}

	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent("report.metrics_recorded", trace.WithAttributes(
			attribute.String("outcome", outcome),
			attribute.Float64("duration_seconds", duration.Seconds()),
		))
	}
}

// Shutdown flushes and stops both providers.
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error
	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

func instanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}
