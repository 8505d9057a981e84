/*
Package monitoring provides Prometheus self-instrumentation for the
telemetry core.

# Overview

The telemetry services are themselves observable: this package tracks how
many spans, traces, log entries, measurements, breaches, and alerts flow
through the core, plus HTTP metrics for the query API.

# Usage

	// Create metrics collector
	metrics := monitoring.NewMetrics()

	// Add middleware to Gin router
	router.Use(monitoring.Middleware(metrics))

	// Record core activity (nil-safe, services accept a nil collector)
	metrics.RecordSpanStarted()
	metrics.RecordMeasurement("api_response_time", "healthy")

# Metrics Endpoint

Expose metrics via the standard Prometheus endpoint:

	import "github.com/prometheus/client_golang/prometheus/promhttp"
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
*/
package monitoring
