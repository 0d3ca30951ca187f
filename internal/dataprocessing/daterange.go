package dataprocessing

import (
	"fmt"
	"time"

	"fmrreport/pkg/contracts/domain"
)

// DateLayout is the only accepted input format for report dates.
const DateLayout = "2006-01-02"

// ErrInvalidDateFormat is returned when either bound of a date range does not parse.
var ErrInvalidDateFormat = domain.ErrInvalidDateFormat

// ParseDateRange validates the two input dates and returns the half-open range
// [start, end+1day) so that the whole end date is covered.
func ParseDateRange(start, end string) (domain.DateRange, error) {
	startDate, err := time.Parse(DateLayout, start)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("%w: start date %q", ErrInvalidDateFormat, start)
	}
	endDate, err := time.Parse(DateLayout, end)
	if err != nil {
		return domain.DateRange{}, fmt.Errorf("%w: end date %q", ErrInvalidDateFormat, end)
	}

	return domain.DateRange{
		Start:    startDate,
		End:      endDate.AddDate(0, 0, 1),
		RawStart: start,
		RawEnd:   end,
	}, nil
}
