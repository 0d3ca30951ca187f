// Package shared holds helpers used by more than one package.
//
// The testutil subpackage provides a capturing slog handler and measurement
// fixtures for tests of the pipeline, the report service and the HTTP layer.
// Nothing here is imported by production code.
package shared
