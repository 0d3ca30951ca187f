// Package http implements the HTTP handlers of the FMR report service. The
// handlers only parse requests, call the services layer and format responses.
//
// # Routes
//
//	GET  /                              date-range form
//	POST /                              form submit: download or form with message
//	GET  /api/reports/machine-data      ?start_date=&end_date=&format=xlsx|csv
//	POST /api/reports/machine-data      JSON or form body with the same fields
//	GET  /api/health, /api/health/ready, /api/health/live, /api/version
//	GET  /metrics, /metrics/runtime
//
// # Error Handling
//
// API errors follow RFC 7807 Problem Details and are produced by
// errors.ErrorHandler:
//
//	{
//	    "type": "/errors/report/no-data",
//	    "title": "No Data",
//	    "status": 404,
//	    "detail": "No data available for the selected date range.",
//	    "instance": "/api/reports/machine-data",
//	    "trace_id": "..."
//	}
//
// The form shows the same detail text above the inputs instead.
//
// # Testing
//
// Handlers are tested with httptest and a testify mock of ReportGenerator.
package http
