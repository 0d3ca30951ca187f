package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fmrreport/pkg/contracts/domain"
)

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := time.Parse("2006-01-02 15:04:05", s)
	require.NoError(t, err)
	return v
}

func reading(t *testing.T, org, created, drawing, feature string, actual float64) domain.MeasurementRow {
	t.Helper()
	return domain.MeasurementRow{
		FeatureName:      feature,
		Actual:           domain.Some(actual),
		Nominal:          domain.Some(0),
		USL:              domain.Some(0.01),
		LSL:              domain.Some(-0.01),
		OrganizationName: org,
		DrawingNo:        drawing,
		HasDrawingNo:     true,
		CreatedAt:        ts(t, created),
	}
}

func normalizedRow(t *testing.T, org, created, fixture, feature string, actual domain.Value) domain.NormalizedRow {
	t.Helper()
	return domain.NormalizedRow{
		FeatureName:      feature,
		Actual:           actual,
		OrganizationName: org,
		DrawingNo:        "D1",
		HasDrawingNo:     true,
		CreatedAt:        ts(t, created),
		Fixture:          fixture,
	}
}

// displayRow renders a report row the way it will appear in the sheet.
func displayRow(row []domain.Cell) []string {
	out := make([]string, len(row))
	for i, c := range row {
		out[i] = c.Display()
	}
	return out
}
