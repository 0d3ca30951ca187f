// Package dataprocessing reshapes raw FMR measurement rows into the machine
// data report.
//
// # Architecture
//
// The package is a chain of pure stages:
//
//  1. ParseDateRange: validates the YYYY-MM-DD inputs into a half-open range
//  2. Normalize: trims and cases text, derives UL/LL, sorts by machine then time
//  3. AssignFixtures: labels rows Chuck 1 / Chuck 2 by position within a machine
//  4. Aggregate: averages duplicate readings per (time, machine, chuck, part, feature)
//  5. Pivot: one row per session, one sparse column per feature
//  6. Finalize: renames, converts micron columns, numbers rows, orders columns
//
// MeasurementProcessor runs stages 2 to 6 with logging and tracing.
//
// # Usage
//
//	rng, err := dataprocessing.ParseDateRange("2024-01-05", "2024-01-10")
//	if err != nil {
//	    return err // wraps ErrInvalidDateFormat
//	}
//	rows := fetch(rng)
//	table, err := dataprocessing.NewMeasurementProcessor(logger).Process(ctx, rows)
//
// # Missing values
//
// Readings are carried as domain.Value so that an absent measurement stays
// distinct from zero through aggregation, pivot and rescaling. Only Finalize
// turns absent values into empty cells.
//
// # Data Flow
//
//	MeasurementRow → NormalizedRow → AggregatedRow → WideTable → ReportTable
package dataprocessing
