package domain

import (
	"strconv"
	"strings"
	"time"
)

// ReportFormat defines the format of a generated report
type ReportFormat string

const (
	ReportFormatExcel ReportFormat = "xlsx"
	ReportFormatCSV   ReportFormat = "csv"
)

// Extension returns the file extension for the format, without the dot.
func (f ReportFormat) Extension() string {
	return string(f)
}

// ContentType returns the MIME type served for the format.
func (f ReportFormat) ContentType() string {
	switch f {
	case ReportFormatCSV:
		return "text/csv; charset=utf-8"
	default:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
}

// ParseReportFormat maps user input to a format, defaulting to Excel.
func ParseReportFormat(s string) (ReportFormat, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "xlsx", "excel":
		return ReportFormatExcel, true
	case "csv":
		return ReportFormatCSV, true
	default:
		return "", false
	}
}

// DateRange is a half-open interval [Start, End) covering whole calendar days.
// RawStart and RawEnd keep the caller's input for naming the artifact.
type DateRange struct {
	Start    time.Time
	End      time.Time
	RawStart string
	RawEnd   string
}

// CellKind describes what a report cell holds.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellInteger
	CellNumber
	CellText
)

// Cell is one value of the final report table.
type Cell struct {
	Kind CellKind
	Int  int
	Num  float64
	Text string
}

// IntCell returns an integer cell.
func IntCell(i int) Cell { return Cell{Kind: CellInteger, Int: i} }

// TextCell returns a text cell.
func TextCell(s string) Cell { return Cell{Kind: CellText, Text: s} }

// NumberCell returns a numeric cell, or an empty cell for an absent value.
func NumberCell(v Value) Cell {
	if !v.Valid {
		return Cell{}
	}
	return Cell{Kind: CellNumber, Num: v.Float}
}

// IsEmpty reports whether the cell has no value.
func (c Cell) IsEmpty() bool {
	return c.Kind == CellEmpty
}

// Display renders the cell as shown in the report. Empty cells render as "".
func (c Cell) Display() string {
	switch c.Kind {
	case CellInteger:
		return strconv.Itoa(c.Int)
	case CellNumber:
		return formatNumber(c.Num)
	case CellText:
		return c.Text
	default:
		return ""
	}
}

// formatNumber prints the shortest round-tripping form. Decimal exponents
// below -4 or from 16 up use scientific notation ("1e-05", "1.5e+16");
// everything else is positional with at least one fractional digit ("2.0").
func formatNumber(v float64) string {
	sci := strconv.FormatFloat(v, 'e', -1, 64)
	if i := strings.IndexByte(sci, 'e'); i >= 0 {
		if exp, err := strconv.Atoi(sci[i+1:]); err == nil && (exp < -4 || exp >= 16) {
			return sci
		}
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// ReportTable is the final, ordered report ready for serialization.
type ReportTable struct {
	Columns []string
	Rows    [][]Cell
}

// Column returns the index of the named column, or -1.
func (t *ReportTable) Column(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Report is a generated artifact ready to be handed to the caller.
type Report struct {
	Filename    string       `json:"filename"`
	Format      ReportFormat `json:"format"`
	ContentType string       `json:"content_type"`
	Content     []byte       `json:"-"`
	RowCount    int          `json:"row_count"`
	GeneratedAt time.Time    `json:"generated_at"`
}
