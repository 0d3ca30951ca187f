// Package datastore reads raw FMR measurements from the quality database.
//
// The query joins report data, report headers, indents and machines across
// the FmrTables and NirTables schemas and filters on the indent's creation
// time. Three database/sql drivers are registered: sqlserver
// (microsoft/go-mssqldb), mysql (go-sql-driver/mysql) and sqlite
// (modernc.org/sqlite). Only placeholder syntax differs between them.
//
// Each Fetch checks a dedicated connection out of the pool and returns it on
// every exit path.
package datastore
