// Package server wires the telemetry trio behind one HTTP surface.
//
// This package orchestrates all components:
//   - HTTP routing with Gin framework
//   - Middleware stack (CORS, rate limiting, recovery, metrics, request tracing)
//   - Service construction (tracing, log aggregation, SLA monitoring)
//   - The zap bridge feeding application logs into the aggregator
//   - The periodic retention sweep across all three services
//
// Server Lifecycle:
//  1. Load configuration from environment/flags
//  2. Initialize logger (production or development)
//  3. Construct services and tee the logger into the aggregator
//  4. Setup HTTP routes and middleware
//  5. Start HTTP server and the cleanup ticker
//  6. Graceful shutdown on signal, with a final retention sweep
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv := server.New(cfg, logging.NewDefault())
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
