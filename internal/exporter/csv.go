package exporter

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"

	"fmrreport/pkg/contracts/domain"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVWriter provides CSV export functionality
type CSVWriter struct {
	bom    bool
	logger *slog.Logger
}

// NewCSVWriter creates a new CSV writer instance. With bom set, output starts
// with a UTF-8 byte order mark so Excel picks the right encoding.
func NewCSVWriter(bom bool, logger *slog.Logger) *CSVWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSVWriter{bom: bom, logger: logger}
}

// WriteOptions configures CSV writing behavior
type WriteOptions struct {
	Headers   []string
	Records   [][]string
	BOMPrefix bool // Add UTF-8 BOM for Excel compatibility
}

// WriteCSV writes headers and records to out.
func (w *CSVWriter) WriteCSV(out io.Writer, options WriteOptions) error {
	w.logger.Debug("Writing CSV",
		slog.Int("header_count", len(options.Headers)),
		slog.Int("record_count", len(options.Records)))

	if options.BOMPrefix {
		if _, err := out.Write(utf8BOM); err != nil {
			return fmt.Errorf("failed to write BOM: %w", err)
		}
	}

	writer := csv.NewWriter(out)

	if len(options.Headers) > 0 {
		if err := writer.Write(options.Headers); err != nil {
			return fmt.Errorf("failed to write headers: %w", err)
		}
	}

	for i, record := range options.Records {
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write record %d: %w", i, err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Format implements TableWriter.
func (w *CSVWriter) Format() domain.ReportFormat {
	return domain.ReportFormatCSV
}

// WriteTable implements TableWriter. Empty cells become empty fields.
func (w *CSVWriter) WriteTable(out io.Writer, table *domain.ReportTable) error {
	records := make([][]string, len(table.Rows))
	for i, row := range table.Rows {
		records[i] = formatRecord(row)
	}

	return w.WriteCSV(out, WriteOptions{
		Headers:   table.Columns,
		Records:   records,
		BOMPrefix: w.bom,
	})
}
