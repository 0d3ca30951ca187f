package dataprocessing

import (
	"sort"
	"strings"

	"fmrreport/pkg/contracts/domain"
)

// NormalizeRow cleans one raw reading: machine names are trimmed and
// uppercased, feature names are trimmed, lowercased and whitespace-collapsed,
// and the nominal/usl/lsl triple is folded into UL and LL.
func NormalizeRow(row domain.MeasurementRow) domain.NormalizedRow {
	return domain.NormalizedRow{
		FeatureName:             NormalizeFeatureName(row.FeatureName),
		Actual:                  row.Actual,
		UL:                      row.Nominal.Add(row.USL),
		LL:                      row.Nominal.Add(row.LSL),
		OrganizationName:        strings.ToUpper(strings.TrimSpace(row.OrganizationName)),
		OrganizationDescription: row.OrganizationDescription,
		DrawingNo:               row.DrawingNo,
		HasDrawingNo:            row.HasDrawingNo,
		CreatedAt:               row.CreatedAt,
	}
}

// NormalizeFeatureName is the exact key the rename table is matched against.
func NormalizeFeatureName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// Normalize maps every row and sorts the result by machine, then timestamp.
// The sort is stable: rows sharing both keys keep their fetch order, which is
// what fixture assignment depends on.
func Normalize(rows []domain.MeasurementRow) []domain.NormalizedRow {
	out := make([]domain.NormalizedRow, len(rows))
	for i, row := range rows {
		out[i] = NormalizeRow(row)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].OrganizationName != out[j].OrganizationName {
			return out[i].OrganizationName < out[j].OrganizationName
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	return out
}
