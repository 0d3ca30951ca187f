// Package services implements the business logic layer of the FMR report
// service. Handlers and the CLI call into it; it calls the data source through
// the RecordFetcher interface and never touches HTTP.
//
// # Report pipeline
//
// ReportService.Generate runs one request end to end:
//
//	dates → fetch → normalize → fixtures → aggregate → pivot → finalize → encode
//
// Every call works on its own copy of the data, so a single ReportService is
// shared by all requests.
//
// # Error Handling
//
// Generate returns errors matching one of:
//
//	- ErrInvalidDateFormat: either date is not a real YYYY-MM-DD date
//	- ErrDataSource: the fetch failed; the cause is kept and shown to the user
//	- ErrNoData: the fetch succeeded but the window is empty
//	- ErrReportGeneration: processing or encoding failed
//
// domain.UserMessage turns any of them into the text shown on the form and
// printed by the CLI.
//
// # Testing
//
// Services are tested by mocking the fetcher:
//
//	fetcher := new(MockRecordFetcher)
//	fetcher.On("Fetch", mock.Anything, mock.Anything).Return(rows, nil)
//	report, err := NewReportService(fetcher, DefaultReportOptions(), nil, logger).
//		Generate(ctx, "2024-01-01", "2024-01-31", domain.ReportFormatExcel)
package services
