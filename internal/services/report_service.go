package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fmrreport/internal/dataprocessing"
	"fmrreport/internal/exporter"
	"fmrreport/internal/infrastructure"
	"fmrreport/pkg/contracts/domain"
)

// RecordFetcher returns the measurement rows created in [rng.Start, rng.End).
// Row order is not significant.
type RecordFetcher interface {
	Fetch(ctx context.Context, rng domain.DateRange) ([]domain.MeasurementRow, error)
}

// ReportOptions configures the generated artifact.
type ReportOptions struct {
	FilenamePrefix string
	SheetName      string
	CSVBOM         bool
}

// DefaultReportOptions matches the artifact names users already know.
func DefaultReportOptions() ReportOptions {
	return ReportOptions{
		FilenamePrefix: "Machine_Data",
		SheetName:      "Machine Data",
		CSVBOM:         true,
	}
}

// ReportService runs the whole report pipeline for one request. It keeps no
// state between calls and is safe for concurrent use.
type ReportService struct {
	fetcher   RecordFetcher
	processor dataprocessing.Processor
	metrics   *infrastructure.ReportMetrics
	options   ReportOptions
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewReportService creates the service. metrics may be nil.
func NewReportService(fetcher RecordFetcher, options ReportOptions, metrics *infrastructure.ReportMetrics, logger *slog.Logger) *ReportService {
	logger = serviceLogger(logger, "report_service")
	defaults := DefaultReportOptions()
	if options.FilenamePrefix == "" {
		options.FilenamePrefix = defaults.FilenamePrefix
	}
	if options.SheetName == "" {
		options.SheetName = defaults.SheetName
	}

	return &ReportService{
		fetcher:   fetcher,
		processor: dataprocessing.NewMeasurementProcessor(logger),
		metrics:   metrics,
		options:   options,
		logger:    logger,
		tracer:    otel.Tracer("fmrreport.services"),
		now:       time.Now,
	}
}

// Generate validates the raw dates, fetches the window and renders the report
// in the requested format. Errors match ErrInvalidDateFormat, ErrDataSource,
// ErrNoData or ErrReportGeneration.
func (s *ReportService) Generate(ctx context.Context, startDate, endDate string, format domain.ReportFormat) (*domain.Report, error) {
	started := s.now()
	ctx, span := s.tracer.Start(ctx, "report.generate",
		trace.WithAttributes(
			attribute.String("report.start_date", startDate),
			attribute.String("report.end_date", endDate),
			attribute.String("report.format", string(format)),
		))
	defer span.End()

	report, fetched, err := s.generate(ctx, startDate, endDate, format)

	outcome := outcomeOf(err)
	emitted := 0
	if report != nil {
		emitted = report.RowCount
	}
	infrastructure.RecordReportMetrics(ctx, s.metrics, outcome, string(format), s.now().Sub(started), fetched, emitted)
	span.SetAttributes(attribute.String("report.outcome", outcome))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
		return nil, err
	}
	return report, nil
}

func (s *ReportService) generate(ctx context.Context, startDate, endDate string, format domain.ReportFormat) (*domain.Report, int, error) {
	rng, err := dataprocessing.ParseDateRange(startDate, endDate)
	if err != nil {
		s.logger.InfoContext(ctx, "rejected report dates",
			slog.String("start_date", startDate),
			slog.String("end_date", endDate))
		return nil, 0, err
	}

	writer, err := exporter.NewTableWriter(format, exporter.Options{
		SheetName: s.options.SheetName,
		CSVBOM:    s.options.CSVBOM,
		Logger:    s.logger,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %w", ErrUnsupportedFormat, err)
	}

	rows, err := s.fetch(ctx, rng)
	if err != nil {
		return nil, 0, err
	}

	if len(rows) == 0 {
		s.logger.WarnContext(ctx, "no data in range",
			slog.String("start_date", rng.RawStart),
			slog.String("end_date", rng.RawEnd))
		return nil, 0, ErrNoData
	}

	s.logger.DebugContext(ctx, "measurement rows fetched",
		slog.Int("rows", len(rows)),
		slog.Any("features", distinctFeatures(rows)))

	table, err := s.processor.Process(ctx, rows)
	if err != nil {
		s.logger.ErrorContext(ctx, "report processing failed", slog.String("error", err.Error()))
		return nil, len(rows), fmt.Errorf("%w: %w", ErrReportGeneration, err)
	}

	_, encodeSpan := s.tracer.Start(ctx, "report.encode",
		trace.WithAttributes(attribute.Int("report.rows", len(table.Rows))))
	content, err := exporter.Encode(writer, table)
	encodeSpan.End()
	if err != nil {
		s.logger.ErrorContext(ctx, "report encoding failed", slog.String("error", err.Error()))
		return nil, len(rows), fmt.Errorf("%w: %w", ErrReportGeneration, err)
	}

	report := &domain.Report{
		Filename:    s.Filename(rng, format),
		Format:      format,
		ContentType: format.ContentType(),
		Content:     content,
		RowCount:    len(table.Rows),
		GeneratedAt: s.now().UTC(),
	}

	s.logger.InfoContext(ctx, "report generated",
		slog.String("filename", report.Filename),
		slog.Int("rows_fetched", len(rows)),
		slog.Int("rows_emitted", report.RowCount),
		slog.Int("bytes", len(content)))

	return report, len(rows), nil
}

func (s *ReportService) fetch(ctx context.Context, rng domain.DateRange) ([]domain.MeasurementRow, error) {
	rows, err := s.fetcher.Fetch(ctx, rng)
	if err == nil {
		return rows, nil
	}

	s.logger.ErrorContext(ctx, "measurement fetch failed",
		slog.String("start_date", rng.RawStart),
		slog.String("end_date", rng.RawEnd),
		slog.String("error", err.Error()))

	var dsErr *domain.DataSourceError
	if errors.As(err, &dsErr) {
		return nil, err
	}
	return nil, &domain.DataSourceError{Cause: err}
}

// Filename names the artifact from the caller's raw date strings.
func (s *ReportService) Filename(rng domain.DateRange, format domain.ReportFormat) string {
	return fmt.Sprintf("%s_%s_%s.%s", s.options.FilenamePrefix, rng.RawStart, rng.RawEnd, format.Extension())
}

func distinctFeatures(rows []domain.MeasurementRow) []string {
	seen := make(map[string]struct{})
	for _, r := range rows {
		seen[dataprocessing.NormalizeFeatureName(r.FeatureName)] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for f := range seen {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidDateFormat):
		return "invalid_date"
	case errors.Is(err, ErrNoData):
		return "no_data"
	case errors.Is(err, ErrDataSource):
		return "data_source_error"
	case errors.Is(err, ErrUnsupportedFormat):
		return "unsupported_format"
	default:
		return "generation_error"
	}
}
