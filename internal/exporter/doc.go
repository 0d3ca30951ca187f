// Package exporter serializes finished machine data reports.
//
// WorkbookWriter produces the xlsx workbook: one "Machine Data" sheet, a bold,
// centered, shaded and bordered header row that stays frozen while scrolling,
// and columns sized to their widest displayed value plus two characters.
// Numeric cells are written as numbers and empty cells are left blank.
//
// CSVWriter writes the same table as CSV, optionally prefixed with a UTF-8 BOM
// for Excel compatibility.
//
// Example usage:
//
//	w, err := exporter.NewTableWriter(domain.ReportFormatExcel, exporter.Options{})
//	if err != nil {
//	    return err
//	}
//	content, err := exporter.Encode(w, table)
package exporter
