package datastore

import (
	"fmt"
	"strconv"

	// Registered database/sql drivers, selected by config.DatabaseConfig.Driver.
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/microsoft/go-mssqldb"
	_ "modernc.org/sqlite"

	"fmrreport/internal/config"
)

// Dialect captures the per-driver differences the fetcher cares about.
type Dialect struct {
	// Name is the configured driver name.
	Name string
	// DriverName is the name registered with database/sql.
	DriverName string

	placeholder func(n int) string
}

var dialects = map[string]Dialect{
	config.DriverSQLServer: {
		Name:        config.DriverSQLServer,
		DriverName:  "sqlserver",
		placeholder: func(n int) string { return "@p" + strconv.Itoa(n) },
	},
	config.DriverMySQL: {
		Name:        config.DriverMySQL,
		DriverName:  "mysql",
		placeholder: questionMark,
	},
	config.DriverSQLite: {
		Name:        config.DriverSQLite,
		DriverName:  "sqlite",
		placeholder: questionMark,
	},
}

func questionMark(int) string { return "?" }

// DialectFor returns the dialect for a configured driver name.
func DialectFor(driver string) (Dialect, error) {
	d, ok := dialects[driver]
	if !ok {
		return Dialect{}, fmt.Errorf("%w: %q", ErrUnsupportedDriver, driver)
	}
	return d, nil
}

// Placeholder renders the n-th (1-based) bind parameter.
func (d Dialect) Placeholder(n int) string {
	return d.placeholder(n)
}

// measurementQuery joins report data to its header, the indent that produced
// it and the machine, filtered on the half-open creation window.
const measurementQuery = `
SELECT
    zfrd.name, zfrd.actual, zfrd.nominal, zfrd.usl, zfrd.lsl,
    org.OrganizationName, org.OrgnizationDescription,
    zfrh.drawing_no, ind.CreatedDateTime
FROM
    FmrTables.tblZeissFmrReportData zfrd
JOIN
    FmrTables.tblZeissFmrReportHeader zfrh ON zfrd.report_id = zfrh.report_id
JOIN
    FmrTables.tblIndents ind ON zfrh.IndentID = ind.IndentID
JOIN
    NirTables.tblOrganizations org ON ind.MachineID = org.OrganizationID
WHERE
    ind.CreatedDateTime >= %s
    AND ind.CreatedDateTime < %s`

// MeasurementQuery returns the fetch query with this dialect's placeholders.
// The first parameter is the inclusive start date, the second the exclusive end.
func (d Dialect) MeasurementQuery() string {
	return fmt.Sprintf(measurementQuery, d.Placeholder(1), d.Placeholder(2))
}
