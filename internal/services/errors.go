package services

import (
	"errors"

	"fmrreport/pkg/contracts/domain"
)

// Report errors. Handlers map these to user messages and status codes.
var (
	ErrInvalidDateFormat = domain.ErrInvalidDateFormat
	ErrNoData            = domain.ErrNoData
	ErrDataSource        = domain.ErrDataSource
	ErrReportGeneration  = domain.ErrReportGeneration

	ErrUnsupportedFormat = errors.New("unsupported report format")
)
