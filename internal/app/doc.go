// Package app wires the demand engine's HTTP server together: configuration,
// logging, OpenTelemetry, services, handlers and graceful shutdown.
//
// # Initialization Flow
//
//  1. Load configuration from .env, EVCO_* environment variables and an optional YAML file
//  2. Initialize the JSON slog logger and OpenTelemetry providers
//  3. Resolve and create the data, uploads, reports and logs directories
//  4. Create the run store, analysis service, health service and report writer
//  5. Build the chi router and HTTP server
//
// # Usage
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return app.Run()
//
// Run blocks until SIGINT or SIGTERM, then shuts the server down within
// Server.ShutdownTimeout and flushes telemetry. The package never calls
// os.Exit; main decides the exit code.
package app
