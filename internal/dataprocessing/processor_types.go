package dataprocessing

import (
	"context"

	"fmrreport/pkg/contracts/domain"
)

// Processor defines the interface for data processing operations
type Processor interface {
	// Process turns raw measurement rows into the final report table
	Process(ctx context.Context, rows []domain.MeasurementRow) (*domain.ReportTable, error)
}

// ProcessingStats reports row counts observed at each stage.
type ProcessingStats struct {
	InputRows          int
	SkippedNoDrawingNo int
	AggregatedReadings int
	Sessions           int
	Features           []string
	OutputColumns      []string
}
