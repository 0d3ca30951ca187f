package services

import (
	"log/slog"

	"fmrreport/internal/infrastructure"
)

// serviceLogger scopes a logger to a service, falling back to the global logger.
func serviceLogger(logger *slog.Logger, service string) *slog.Logger {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	return infrastructure.WithComponent(logger, service)
}
