package domain

import "errors"

// User-facing messages for the three expected report failures.
const (
	MessageInvalidDateFormat = "Incorrect date format. Please use YYYY-MM-DD."
	MessageNoData            = "No data available for the selected date range."
	MessageDataSourcePrefix  = "Database error: "
	MessageInternal          = "An unexpected error occurred while generating the report."
)

var (
	// ErrInvalidDateFormat means a report date is not a real YYYY-MM-DD date.
	ErrInvalidDateFormat = errors.New("invalid date format")

	// ErrNoData means the window matched no measurement rows.
	ErrNoData = errors.New("no data in range")

	// ErrDataSource classifies every failure to read from the measurement database.
	ErrDataSource = errors.New("data source error")

	// ErrReportGeneration is a failure after data was fetched.
	ErrReportGeneration = errors.New("report generation failed")
)

// DataSourceError carries the database cause so it can be shown to the user.
type DataSourceError struct {
	Cause error
}

func (e *DataSourceError) Error() string {
	if e.Cause == nil {
		return MessageDataSourcePrefix + "unknown"
	}
	return MessageDataSourcePrefix + e.Cause.Error()
}

func (e *DataSourceError) Unwrap() error { return e.Cause }

// Is reports a match against ErrDataSource.
func (e *DataSourceError) Is(target error) bool { return target == ErrDataSource }

// UserMessage returns the text shown to a report requester for err.
func UserMessage(err error) string {
	var dsErr *DataSourceError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidDateFormat):
		return MessageInvalidDateFormat
	case errors.Is(err, ErrNoData):
		return MessageNoData
	case errors.As(err, &dsErr):
		return dsErr.Error()
	case errors.Is(err, ErrDataSource):
		return MessageDataSourcePrefix + err.Error()
	default:
		return MessageInternal
	}
}
