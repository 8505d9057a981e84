// Package main is the entry point for the PlateWise telemetry service.
//
// The daemon hosts the in-process telemetry trio (request tracing, log
// aggregation, and SLA monitoring) behind one HTTP query surface used by
// the platform's dashboards, plus ingest endpoints for client log batches
// and SLA measurements.
//
// Configuration:
//   - Environment variables (12-factor)
//   - CLI flags (override env vars)
//   - Defaults for development
//
// Usage:
//
//	# Production mode
//	./telemetryd -port 8090
//
//	# Development mode (colored logs, debug level)
//	./telemetryd -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown with a final retention sweep
package main
