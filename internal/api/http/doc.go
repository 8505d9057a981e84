// Package http exposes the telemetry query and ingest API over gin.
//
// Read endpoints cover traces (list, detail, operation stats, summary),
// logs (recent, search, error summary, logger stats, pattern analysis,
// export), and SLA (targets, reports, dashboard, export). Ingest
// endpoints accept client log batches and SLA measurements. Misses map to
// 404, validation failures to 400; the services themselves never error on
// queries.
package http
