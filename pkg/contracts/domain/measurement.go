package domain

import (
	"math"
	"time"
)

// Fixture labels assigned alternately within a machine's row sequence.
const (
	FixtureChuck1 = "Chuck 1"
	FixtureChuck2 = "Chuck 2"
)

// Value is a numeric measurement that may be absent. The zero Value is absent,
// which keeps "missing" distinct from a real 0.0 reading.
type Value struct {
	Float float64
	Valid bool
}

// Some returns a present Value. NaN and infinities are treated as absent.
func Some(f float64) Value {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Value{}
	}
	return Value{Float: f, Valid: true}
}

// None returns an absent Value.
func None() Value {
	return Value{}
}

// Add returns v+o, absent if either side is absent.
func (v Value) Add(o Value) Value {
	if !v.Valid || !o.Valid {
		return Value{}
	}
	return Some(v.Float + o.Float)
}

// MeasurementRow is one raw reading as returned by the data source.
type MeasurementRow struct {
	FeatureName             string    `json:"feature_name" db:"name"`
	Actual                  Value     `json:"actual" db:"actual"`
	Nominal                 Value     `json:"nominal" db:"nominal"`
	USL                     Value     `json:"usl" db:"usl"`
	LSL                     Value     `json:"lsl" db:"lsl"`
	OrganizationName        string    `json:"organization_name" db:"OrganizationName"`
	OrganizationDescription string    `json:"organization_description" db:"OrgnizationDescription"`
	DrawingNo               string    `json:"drawing_no" db:"drawing_no"`
	HasDrawingNo            bool      `json:"-"`
	CreatedAt               time.Time `json:"created_at" db:"CreatedDateTime"`
}

// NormalizedRow is a cleaned MeasurementRow with derived limit columns.
// Fixture is empty until the fixture assigner has run.
type NormalizedRow struct {
	FeatureName             string
	Actual                  Value
	UL                      Value
	LL                      Value
	OrganizationName        string
	OrganizationDescription string
	DrawingNo               string
	HasDrawingNo            bool
	CreatedAt               time.Time
	Fixture                 string
}

// SessionKey identifies one wide report row.
type SessionKey struct {
	CreatedAt        time.Time
	OrganizationName string
	Fixture          string
	DrawingNo        string
}

// AggregationKey identifies one averaged reading.
type AggregationKey struct {
	SessionKey
	FeatureName string
}

// AggregatedRow carries the mean of every reading sharing its key.
// Actual is absent when none of the grouped readings had a value.
type AggregatedRow struct {
	AggregationKey
	Actual Value
}

// WideRow holds one session with a sparse set of feature columns.
type WideRow struct {
	SessionKey
	Features map[string]Value
}

// WideTable is the pivot output. Columns lists every distinct feature name seen
// anywhere in the aggregated set, sorted.
type WideTable struct {
	Columns []string
	Rows    []WideRow
}
