package dataprocessing

import (
	"fmrreport/pkg/contracts/domain"
)

// Finalize turns the pivot output into the report table:
//
//  1. known feature columns are renamed to report labels, unknown ones are dropped
//  2. micron columns are multiplied by 1000
//  3. missing values become empty cells
//  4. Date and a 1-based SR NO are added
//  5. columns are selected and ordered by the fixed report layout
//
// Row order is kept as given.
func Finalize(table *domain.WideTable) *domain.ReportTable {
	n := len(table.Rows)
	columns := make(map[string][]domain.Cell, len(reportColumns)+len(keyLabels))

	for _, feature := range table.Columns {
		label, ok := FeatureLabel(feature)
		if !ok {
			continue
		}
		values := make([]domain.Value, n)
		for i, row := range table.Rows {
			values[i] = row.Features[feature]
		}
		if IsRescaled(label) {
			values = rescale(values)
		}
		columns[label] = fill(values)
	}

	for source, label := range keyLabels {
		cells := make([]domain.Cell, n)
		for i, row := range table.Rows {
			cells[i] = domain.TextCell(sessionField(row.SessionKey, source))
		}
		columns[label] = cells
	}

	serial := make([]domain.Cell, n)
	dates := make([]domain.Cell, n)
	for i, row := range table.Rows {
		serial[i] = domain.IntCell(i + 1)
		dates[i] = domain.TextCell(row.CreatedAt.Format(ReportDateLayout))
	}
	columns[ColumnSerial] = serial
	columns[ColumnDate] = dates

	report := &domain.ReportTable{Rows: make([][]domain.Cell, n)}
	var selected [][]domain.Cell
	for _, name := range reportColumns {
		cells, ok := columns[name]
		if !ok {
			continue
		}
		report.Columns = append(report.Columns, name)
		selected = append(selected, cells)
	}

	for i := range report.Rows {
		row := make([]domain.Cell, len(selected))
		for c, cells := range selected {
			row[c] = cells[i]
		}
		report.Rows[i] = row
	}

	return report
}

// rescale converts to microns. Values that are not finite numbers stay missing.
func rescale(values []domain.Value) []domain.Value {
	out := make([]domain.Value, len(values))
	for i, v := range values {
		if v.Valid {
			out[i] = domain.Some(v.Float * micronScale)
		}
	}
	return out
}

func fill(values []domain.Value) []domain.Cell {
	cells := make([]domain.Cell, len(values))
	for i, v := range values {
		cells[i] = domain.NumberCell(v)
	}
	return cells
}

func sessionField(key domain.SessionKey, source string) string {
	switch source {
	case "organization_name":
		return key.OrganizationName
	case "drawing_no":
		return key.DrawingNo
	case "fixture":
		return key.Fixture
	default:
		return ""
	}
}
