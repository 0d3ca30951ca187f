// Package app wires the FMR report service together and manages its
// lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from environment and files
//	2. Initialize logging and OpenTelemetry
//	3. Open the measurement database
//	4. Build the report and health services
//	5. Set up the router and middleware
//	6. Start the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// New takes an already opened DataSource, which is how tests run the full
// router without a database server.
//
// # Graceful Shutdown
//
// On SIGINT or SIGTERM the server stops accepting connections, in-flight
// reports finish within the shutdown timeout, the connection pool is closed
// and telemetry is flushed. The package never calls os.Exit.
package app
