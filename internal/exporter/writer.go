package exporter

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"fmrreport/pkg/contracts/domain"
)

// ErrUnsupportedFormat is returned for a report format with no writer.
var ErrUnsupportedFormat = errors.New("unsupported report format")

// TableWriter serializes a finished report table.
type TableWriter interface {
	Format() domain.ReportFormat
	WriteTable(out io.Writer, table *domain.ReportTable) error
}

// Options configures the writers returned by NewTableWriter.
type Options struct {
	SheetName string
	CSVBOM    bool
	Logger    *slog.Logger
}

// NewTableWriter returns the writer for format.
func NewTableWriter(format domain.ReportFormat, opts Options) (TableWriter, error) {
	switch format {
	case domain.ReportFormatExcel:
		return NewWorkbookWriter(WithSheetName(opts.SheetName), WithWorkbookLogger(opts.Logger)), nil
	case domain.ReportFormatCSV:
		return NewCSVWriter(opts.CSVBOM, opts.Logger), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// Encode runs w over table and returns the bytes.
func Encode(w TableWriter, table *domain.ReportTable) ([]byte, error) {
	var buf bytes.Buffer
	if err := w.WriteTable(&buf, table); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
