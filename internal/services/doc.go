// Package services is the layer between transports (HTTP, CLI) and the
// engine packages.
//
// AnalysisService runs normalization, reconciliation and deep analysis,
// wraps each run and stage in an OpenTelemetry span, records run metrics,
// and registers completed runs in a RunStore. HealthService backs the
// health, readiness, liveness and version endpoints.
//
// Runs are synchronous: a call returns when the run is complete and stored.
package services
