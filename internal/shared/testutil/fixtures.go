package testutil

import (
	"time"

	"fmrreport/pkg/contracts/domain"
)

// At returns a UTC timestamp on the given day of January 2024.
func At(day, hour, minute int) time.Time {
	return time.Date(2024, time.January, day, hour, minute, 0, 0, time.UTC)
}

// Reading builds one raw measurement row as the database would return it.
func Reading(machine string, created time.Time, drawing, feature string, actual float64) domain.MeasurementRow {
	return domain.MeasurementRow{
		OrganizationName: machine,
		CreatedAt:        created,
		DrawingNo:        drawing,
		HasDrawingNo:     drawing != "",
		FeatureName:      feature,
		Actual:           domain.Some(actual),
	}
}

// SampleMeasurements is two machines, three sessions and four features.
// Roundness is stored in millimetres and shows up as 2.0 after rescaling.
func SampleMeasurements() []domain.MeasurementRow {
	return []domain.MeasurementRow{
		Reading("grinder-01 ", At(5, 8, 0), "F 002 A", "Pt (pt)", 1.2),
		Reading("grinder-01 ", At(5, 8, 0), "F 002 A", "Rz (rz)", 3.5),
		Reading("grinder-01 ", At(5, 8, 0), "F 002 A", "Roundness (roundness_on_cone_p26)", 0.002),
		Reading("grinder-01 ", At(5, 9, 30), "F 002 A", "Pt (pt)", 1.4),
		Reading("GRINDER-02", At(6, 14, 0), "F 002 B", "Wt (wt)", 0.8),
	}
}
