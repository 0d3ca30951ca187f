package config

import "time"

// Application constants for the FMR report service
const (
	// Application Info
	AppName = "FMR Report"

	// Rate Limiting
	DefaultRateLimit = 10 // requests per second
	DefaultBurstSize = 20

	// Operation Timeouts
	DefaultReportTimeout = 90 * time.Second
	DefaultQueryTimeout  = 60 * time.Second

	// Report artifact
	DefaultSheetName      = "Machine Data"
	DefaultFilenamePrefix = "Machine_Data"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
