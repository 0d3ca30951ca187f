package datastore

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"fmrreport/pkg/contracts/domain"
)

// timestampLayouts are tried in order for drivers that hand back text.
var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999Z07:00",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02",
}

// timestamp scans DATETIME columns regardless of whether the driver returns
// time.Time (sqlserver, sqlite with a declared type) or text (mysql without
// parseTime, plain sqlite TEXT).
type timestamp struct {
	Time  time.Time
	Valid bool
}

func (ts *timestamp) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		ts.Time, ts.Valid = time.Time{}, false
		return nil
	case time.Time:
		ts.Time, ts.Valid = v, true
		return nil
	case string:
		return ts.parse(v)
	case []byte:
		return ts.parse(string(v))
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
}

func (ts *timestamp) parse(s string) error {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			ts.Time, ts.Valid = t, true
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// rowScanner is satisfied by *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanMeasurement reads one result row in MeasurementQuery column order.
func scanMeasurement(r rowScanner) (domain.MeasurementRow, error) {
	var (
		name, orgName, orgDesc, drawingNo sql.NullString
		actual, nominal, usl, lsl         sql.NullFloat64
		created                           timestamp
	)

	if err := r.Scan(
		&name, &actual, &nominal, &usl, &lsl,
		&orgName, &orgDesc,
		&drawingNo, &created,
	); err != nil {
		return domain.MeasurementRow{}, err
	}

	return domain.MeasurementRow{
		FeatureName:             name.String,
		Actual:                  value(actual),
		Nominal:                 value(nominal),
		USL:                     value(usl),
		LSL:                     value(lsl),
		OrganizationName:        orgName.String,
		OrganizationDescription: orgDesc.String,
		DrawingNo:               drawingNo.String,
		HasDrawingNo:            drawingNo.Valid,
		CreatedAt:               created.Time,
	}, nil
}

func value(n sql.NullFloat64) domain.Value {
	if !n.Valid {
		return domain.None()
	}
	return domain.Some(n.Float64)
}
