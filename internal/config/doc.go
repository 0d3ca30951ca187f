// Package config provides centralized configuration management for the FMR
// report service.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern FMR_<SECTION>_<FIELD>:
//
//	FMR_SERVER_PORT=8080
//	FMR_DATABASE_DRIVER=sqlserver
//	FMR_DATABASE_HOST=NA0VSQL05
//	FMR_DATABASE_NAME=B105_FMR_SQL_DB
//	FMR_DATABASE_USER=report
//	FMR_DATABASE_PASSWORD=...
//	FMR_LOGGING_LEVEL=debug
//
// FMR_CONFIG_FILE points at a YAML file; otherwise config.yaml and
// configs/config.yaml are tried.
//
// # Database
//
// Driver is one of sqlserver, mysql or sqlite. DSN is used verbatim when set.
// For sqlserver the DSN may instead be assembled from host, port, name, user
// and password. Credentials are never compiled in.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// Tests can start from config.Default(), which passes validation as is.
package config
