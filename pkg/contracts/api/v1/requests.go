// Package api contains the HTTP contract of the FMR report service.
// Version v1 represents the current stable API version.
package api

import (
	"net/url"
	"strings"

	"fmrreport/pkg/contracts/domain"
)

// MachineDataReportRequest asks for the machine data report of a date window.
// Both bounds are inclusive calendar days.
type MachineDataReportRequest struct {
	StartDate string `json:"start_date" query:"start_date" validate:"required,reportdate"`
	EndDate   string `json:"end_date" query:"end_date" validate:"required,reportdate"`
	Format    string `json:"format,omitempty" query:"format" validate:"omitempty,oneof=xlsx csv excel"`
}

// MachineDataReportRequestFromValues reads the request from query or form
// values. Dates are kept verbatim: surrounding whitespace is a format error.
func MachineDataReportRequestFromValues(v url.Values) MachineDataReportRequest {
	return MachineDataReportRequest{
		StartDate: v.Get("start_date"),
		EndDate:   v.Get("end_date"),
		Format:    strings.ToLower(strings.TrimSpace(v.Get("format"))),
	}
}

// ReportFormat resolves the requested output format, defaulting to Excel.
func (r MachineDataReportRequest) ReportFormat() domain.ReportFormat {
	f, ok := domain.ParseReportFormat(r.Format)
	if !ok {
		return domain.ReportFormatExcel
	}
	return f
}
