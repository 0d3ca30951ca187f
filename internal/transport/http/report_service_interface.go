package http

import (
	"context"

	"fmrreport/pkg/contracts/domain"
)

// ReportGenerator is the part of services.ReportService the handlers use.
type ReportGenerator interface {
	Generate(ctx context.Context, startDate, endDate string, format domain.ReportFormat) (*domain.Report, error)
}
