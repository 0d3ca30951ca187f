package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"fmrreport/pkg/contracts/domain"
)

// MeasurementProcessor runs normalize → fixtures → aggregate → pivot → finalize.
// It holds no state between calls.
type MeasurementProcessor struct {
	logger *slog.Logger
	tracer trace.Tracer
}

// NewMeasurementProcessor creates a new processor. A nil logger uses slog.Default().
func NewMeasurementProcessor(logger *slog.Logger) *MeasurementProcessor {
	if logger == nil {
		logger = slog.Default()
	}
	return &MeasurementProcessor{
		logger: logger.With(slog.String("component", "measurement_processor")),
		tracer: otel.Tracer("fmrreport.dataprocessing"),
	}
}

// Process implements Processor.
func (p *MeasurementProcessor) Process(ctx context.Context, rows []domain.MeasurementRow) (*domain.ReportTable, error) {
	table, _, err := p.ProcessWithStats(ctx, rows)
	return table, err
}

// ProcessWithStats is Process plus per-stage counts. Each stage runs in its
// own child span of dataprocessing.process.
func (p *MeasurementProcessor) ProcessWithStats(ctx context.Context, rows []domain.MeasurementRow) (*domain.ReportTable, ProcessingStats, error) {
	ctx, span := p.tracer.Start(ctx, "dataprocessing.process",
		trace.WithAttributes(attribute.Int("rows.input", len(rows))))
	defer span.End()

	stats := ProcessingStats{InputRows: len(rows)}

	_, stage := p.tracer.Start(ctx, "dataprocessing.normalize")
	normalized := Normalize(rows)
	stage.SetAttributes(attribute.Int("rows", len(normalized)))
	stage.End()

	_, stage = p.tracer.Start(ctx, "dataprocessing.fixtures")
	normalized = AssignFixtures(normalized)
	stage.End()
	p.logger.DebugContext(ctx, "rows normalized", slog.Int("rows", len(normalized)))

	_, stage = p.tracer.Start(ctx, "dataprocessing.aggregate")
	aggregated, skipped := Aggregate(normalized)
	stage.SetAttributes(
		attribute.Int("readings", len(aggregated)),
		attribute.Int("skipped_no_drawing_no", skipped),
	)
	stage.End()
	stats.SkippedNoDrawingNo = skipped
	stats.AggregatedReadings = len(aggregated)
	if skipped > 0 {
		p.logger.WarnContext(ctx, "rows without drawing number skipped",
			slog.Int("skipped", skipped))
	}
	p.logger.DebugContext(ctx, "readings aggregated", slog.Int("readings", len(aggregated)))

	_, stage = p.tracer.Start(ctx, "dataprocessing.pivot")
	wide, err := Pivot(aggregated)
	if err != nil {
		stage.RecordError(err)
		stage.SetStatus(codes.Error, "pivot failed")
		stage.End()
		span.RecordError(err)
		span.SetStatus(codes.Error, "pivot failed")
		return nil, stats, fmt.Errorf("pivot failed: %w", err)
	}
	stage.SetAttributes(attribute.Int("sessions", len(wide.Rows)))
	stage.End()
	stats.Sessions = len(wide.Rows)
	stats.Features = wide.Columns
	p.logger.DebugContext(ctx, "readings pivoted",
		slog.Int("sessions", len(wide.Rows)),
		slog.Any("features", wide.Columns))

	_, stage = p.tracer.Start(ctx, "dataprocessing.finalize")
	report := Finalize(wide)
	stage.End()
	stats.OutputColumns = report.Columns
	span.SetAttributes(
		attribute.Int("rows.output", len(report.Rows)),
		attribute.StringSlice("columns", report.Columns),
	)
	p.logger.DebugContext(ctx, "report finalized",
		slog.Int("rows", len(report.Rows)),
		slog.Any("columns", report.Columns))

	return report, stats, nil
}
