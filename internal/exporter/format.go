package exporter

import (
	"unicode/utf8"

	"fmrreport/pkg/contracts/domain"
)

// columnWidth is the longer of the header and the widest displayed value in
// column idx, plus padding. Widths count characters, not bytes.
func columnWidth(header string, rows [][]domain.Cell, idx int) int {
	width := utf8.RuneCountInString(header)
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		if n := utf8.RuneCountInString(row[idx].Display()); n > width {
			width = n
		}
	}
	return width + columnPadding
}

// formatRecord renders one report row as CSV fields.
func formatRecord(row []domain.Cell) []string {
	record := make([]string, len(row))
	for i, c := range row {
		record[i] = c.Display()
	}
	return record
}
