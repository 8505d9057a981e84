package monitoring

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the telemetry core.
type Metrics struct {
	// HTTP metrics (query API)
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Tracing metrics
	TracesStarted    prometheus.Counter
	TracesSampledOut prometheus.Counter
	TracesFinished   *prometheus.CounterVec
	SpansStarted     prometheus.Counter
	SpansFinished    *prometheus.CounterVec
	SpansTimedOut    prometheus.Counter

	// Log aggregation metrics
	LogEntries *prometheus.CounterVec

	// SLA metrics
	Measurements     *prometheus.CounterVec
	Breaches         *prometheus.CounterVec
	Alerts           prometheus.Counter
	ReportCacheHits  prometheus.Counter
	ReportCacheMiss  prometheus.Counter

	// System metrics
	Uptime    prometheus.Gauge
	startTime time.Time

	// Snapshot for JSON API - track current values
	snapshot MetricsSnapshot

	mu sync.RWMutex
}

// MetricsSnapshot holds current metric values for JSON API.
type MetricsSnapshot struct {
	TotalRequests int64
	TotalErrors   int64
	TotalDuration float64 // sum of all request durations
	RequestCount  int64   // count for averaging
}

// NewMetrics creates a new metrics collector.
func NewMetrics() *Metrics {
	m := &Metrics{
		startTime: time.Now(),

		RequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_http_requests_total",
				Help: "Total number of HTTP requests against the query API",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "telemetry_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),

		TracesStarted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "telemetry_traces_started_total",
				Help: "Total number of traces started",
			},
		),
		TracesSampledOut: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "telemetry_traces_sampled_out_total",
				Help: "Total number of traces rejected by the sampling decision",
			},
		),
		TracesFinished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_traces_finished_total",
				Help: "Total number of traces finished",
			},
			[]string{"status"},
		),
		SpansStarted: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "telemetry_spans_started_total",
				Help: "Total number of spans started",
			},
		),
		SpansFinished: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_spans_finished_total",
				Help: "Total number of spans finished",
			},
			[]string{"status"},
		),
		SpansTimedOut: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "telemetry_spans_timed_out_total",
				Help: "Total number of spans force-finished by the timeout sweep",
			},
		),

		LogEntries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_log_entries_total",
				Help: "Total number of log entries ingested",
			},
			[]string{"level"},
		),

		Measurements: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_sla_measurements_total",
				Help: "Total number of SLA measurements recorded",
			},
			[]string{"target", "status"},
		),
		Breaches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "telemetry_sla_breaches_total",
				Help: "Total number of SLA breaches recorded",
			},
			[]string{"target"},
		),
		Alerts: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "telemetry_sla_alerts_total",
				Help: "Total number of SLA alerts raised",
			},
		),
		ReportCacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "telemetry_sla_report_cache_hits_total",
				Help: "Total number of compliance report cache hits",
			},
		),
		ReportCacheMiss: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "telemetry_sla_report_cache_misses_total",
				Help: "Total number of compliance report cache misses",
			},
		),

		Uptime: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "telemetry_uptime_seconds",
				Help: "Telemetry service uptime in seconds",
			},
		),
	}

	// Start uptime updater
	go m.updateUptime()

	return m
}

// updateUptime continuously updates the uptime metric.
func (m *Metrics) updateUptime() {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		m.Uptime.Set(time.Since(m.startTime).Seconds())
	}
}

// RecordHTTPRequest records an HTTP request against the query API.
func (m *Metrics) RecordHTTPRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())

	// Update snapshot
	m.mu.Lock()
	m.snapshot.TotalRequests++
	m.snapshot.TotalDuration += duration.Seconds()
	m.snapshot.RequestCount++
	if len(status) > 0 && (status[0] == '4' || status[0] == '5') {
		m.snapshot.TotalErrors++
	}
	m.mu.Unlock()
}

// RecordTraceStarted records a trace creation.
func (m *Metrics) RecordTraceStarted() {
	if m == nil {
		return
	}
	m.TracesStarted.Inc()
}

// RecordTraceSampledOut records a trace rejected by sampling.
func (m *Metrics) RecordTraceSampledOut() {
	if m == nil {
		return
	}
	m.TracesSampledOut.Inc()
}

// RecordTraceFinished records a trace completion.
func (m *Metrics) RecordTraceFinished(status string) {
	if m == nil {
		return
	}
	m.TracesFinished.WithLabelValues(status).Inc()
}

// RecordSpanStarted records a span creation.
func (m *Metrics) RecordSpanStarted() {
	if m == nil {
		return
	}
	m.SpansStarted.Inc()
}

// RecordSpanFinished records a span completion.
func (m *Metrics) RecordSpanFinished(status string) {
	if m == nil {
		return
	}
	m.SpansFinished.WithLabelValues(status).Inc()
}

// RecordSpanTimedOut records a span force-finished by the timeout sweep.
func (m *Metrics) RecordSpanTimedOut() {
	if m == nil {
		return
	}
	m.SpansTimedOut.Inc()
}

// RecordLogEntry records an ingested log entry.
func (m *Metrics) RecordLogEntry(level string) {
	if m == nil {
		return
	}
	m.LogEntries.WithLabelValues(level).Inc()
}

// RecordMeasurement records an SLA measurement classification.
func (m *Metrics) RecordMeasurement(target, status string) {
	if m == nil {
		return
	}
	m.Measurements.WithLabelValues(target, status).Inc()
}

// RecordBreach records an SLA breach.
func (m *Metrics) RecordBreach(target string) {
	if m == nil {
		return
	}
	m.Breaches.WithLabelValues(target).Inc()
}

// RecordAlert records an SLA alert.
func (m *Metrics) RecordAlert() {
	if m == nil {
		return
	}
	m.Alerts.Inc()
}

// RecordReportCache records a compliance report cache lookup.
func (m *Metrics) RecordReportCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.ReportCacheHits.Inc()
	} else {
		m.ReportCacheMiss.Inc()
	}
}

// GetSnapshot returns the current JSON-API snapshot.
func (m *Metrics) GetSnapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot
}

// GetUptimeSeconds returns seconds since the collector was created.
func (m *Metrics) GetUptimeSeconds() float64 {
	if m == nil {
		return 0
	}
	return time.Since(m.startTime).Seconds()
}
