// Package config provides 12-factor configuration management for the
// telemetry service.
//
// Configuration is loaded from environment variables with sensible defaults.
// CLI flags can override environment variables for development flexibility.
//
// Configuration Sections:
//   - Server: HTTP server settings (port, host)
//   - Tracing: sampling rate, open-span timeout, history capacities
//   - Logs: ring-buffer capacities and rotated-file directory
//   - SLA: measurement/breach/alert capacities and report cache TTL
//   - Logging: log level and output format for the service itself
//   - RateLimit: per-IP rate limiting for the query API
//   - Cleanup: retention sweep interval and max ages
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s:%s\n", cfg.Server.Host, cfg.Server.Port)
//
// Environment Variables:
//   - PORT, HOST
//   - TRACING_ENABLED, TRACING_SAMPLE_RATE, TRACING_MAX_TRACE_DURATION_MS
//   - LOGS_MAX_ENTRIES, LOGS_FILE_DIR
//   - SLA_REPORT_CACHE_TTL
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST
//   - CLEANUP_INTERVAL_SECONDS
package config
