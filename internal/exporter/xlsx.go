package exporter

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"fmrreport/pkg/contracts/domain"
)

// DefaultSheetName is the single sheet every workbook carries.
const DefaultSheetName = "Machine Data"

// headerFillColor is the light blue header shading.
const headerFillColor = "CCE5FF"

// columnPadding is added to every computed column width.
const columnPadding = 2

// WorkbookWriter serializes a report table into a one-sheet xlsx workbook with
// a styled, frozen header row and auto-sized columns.
type WorkbookWriter struct {
	sheetName string
	logger    *slog.Logger
}

// WorkbookOption configures a WorkbookWriter.
type WorkbookOption func(*WorkbookWriter)

// WithSheetName overrides DefaultSheetName.
func WithSheetName(name string) WorkbookOption {
	return func(w *WorkbookWriter) {
		if name != "" {
			w.sheetName = name
		}
	}
}

// WithWorkbookLogger sets the logger used for debug output.
func WithWorkbookLogger(logger *slog.Logger) WorkbookOption {
	return func(w *WorkbookWriter) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// NewWorkbookWriter creates a new xlsx writer
func NewWorkbookWriter(opts ...WorkbookOption) *WorkbookWriter {
	w := &WorkbookWriter{
		sheetName: DefaultSheetName,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Format implements TableWriter.
func (w *WorkbookWriter) Format() domain.ReportFormat {
	return domain.ReportFormatExcel
}

// WriteTable implements TableWriter.
func (w *WorkbookWriter) WriteTable(out io.Writer, table *domain.ReportTable) error {
	f, err := w.build(table)
	if err != nil {
		return err
	}
	defer f.Close()

	buf, err := f.WriteToBuffer()
	if err != nil {
		return fmt.Errorf("failed to serialize workbook: %w", err)
	}
	if _, err := buf.WriteTo(out); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (w *WorkbookWriter) build(table *domain.ReportTable) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", w.sheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(headerStyle())
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	if err := w.writeHeader(f, table.Columns, headerStyle); err != nil {
		f.Close()
		return nil, err
	}
	if err := w.writeRows(f, table.Rows); err != nil {
		f.Close()
		return nil, err
	}
	if err := w.sizeColumns(f, table); err != nil {
		f.Close()
		return nil, err
	}

	if err := f.SetPanes(w.sheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to freeze header row: %w", err)
	}

	w.logger.Debug("workbook built",
		slog.String("sheet", w.sheetName),
		slog.Int("columns", len(table.Columns)),
		slog.Int("rows", len(table.Rows)))

	return f, nil
}

func headerStyle() *excelize.Style {
	border := func(side string) excelize.Border {
		return excelize.Border{Type: side, Color: "000000", Style: 1}
	}
	return &excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "000000"},
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
			WrapText:   true,
		},
		Fill: excelize.Fill{Type: "pattern", Color: []string{headerFillColor}, Pattern: 1},
		Border: []excelize.Border{
			border("left"),
			border("right"),
			border("top"),
			border("bottom"),
		},
	}
}

func (w *WorkbookWriter) writeHeader(f *excelize.File, columns []string, styleID int) error {
	for i, name := range columns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("invalid header cell: %w", err)
		}
		if err := f.SetCellValue(w.sheetName, cell, name); err != nil {
			return fmt.Errorf("failed to write header %q: %w", name, err)
		}
		if err := f.SetCellStyle(w.sheetName, cell, cell, styleID); err != nil {
			return fmt.Errorf("failed to style header %q: %w", name, err)
		}
	}
	return nil
}

func (w *WorkbookWriter) writeRows(f *excelize.File, rows [][]domain.Cell) error {
	for r, row := range rows {
		for c, value := range row {
			if value.IsEmpty() {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return fmt.Errorf("invalid data cell: %w", err)
			}
			if err := f.SetCellValue(w.sheetName, cell, cellValue(value)); err != nil {
				return fmt.Errorf("failed to write cell %s: %w", cell, err)
			}
		}
	}
	return nil
}

func (w *WorkbookWriter) sizeColumns(f *excelize.File, table *domain.ReportTable) error {
	for i, name := range table.Columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("invalid column index %d: %w", i+1, err)
		}
		width := float64(columnWidth(name, table.Rows, i))
		if err := f.SetColWidth(w.sheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}
	return nil
}

func cellValue(c domain.Cell) interface{} {
	switch c.Kind {
	case domain.CellInteger:
		return c.Int
	case domain.CellNumber:
		return c.Num
	default:
		return c.Text
	}
}
