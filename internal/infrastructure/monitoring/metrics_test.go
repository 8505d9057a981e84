package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// One collector per test binary: promauto registers on the default registry.
var testMetrics = NewMetrics()

func TestRecordHTTPRequestSnapshot(t *testing.T) {
	m := testMetrics

	m.RecordHTTPRequest("GET", "/traces", "200", 10*time.Millisecond)
	m.RecordHTTPRequest("GET", "/traces", "200", 30*time.Millisecond)
	m.RecordHTTPRequest("POST", "/logs/stream", "400", 5*time.Millisecond)

	snap := m.GetSnapshot()
	require.EqualValues(t, 3, snap.TotalRequests)
	assert.EqualValues(t, 1, snap.TotalErrors, "4xx and 5xx count as errors")
	assert.EqualValues(t, 3, snap.RequestCount)
	assert.InDelta(t, 0.045, snap.TotalDuration, 1e-9)

	assert.InDelta(t, 2, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "/traces", "200")), 1e-9)
}

func TestDomainCounters(t *testing.T) {
	m := testMetrics

	m.RecordTraceStarted()
	m.RecordTraceFinished("ok")
	m.RecordSpanStarted()
	m.RecordSpanFinished("error")
	m.RecordLogEntry("ERROR")
	m.RecordMeasurement("api_response_time", "warning")
	m.RecordBreach("api_response_time")
	m.RecordAlert()
	m.RecordReportCache(true)
	m.RecordReportCache(false)

	assert.InDelta(t, 1, testutil.ToFloat64(m.TracesStarted), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.TracesFinished.WithLabelValues("ok")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.SpansFinished.WithLabelValues("error")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LogEntries.WithLabelValues("ERROR")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Measurements.WithLabelValues("api_response_time", "warning")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Breaches.WithLabelValues("api_response_time")), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Alerts), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ReportCacheHits), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.ReportCacheMiss), 1e-9)
}

func TestUptime(t *testing.T) {
	assert.GreaterOrEqual(t, testMetrics.GetUptimeSeconds(), 0.0)
}

func TestNilReceiverIsSafe(t *testing.T) {
	var m *Metrics

	m.RecordTraceStarted()
	m.RecordTraceSampledOut()
	m.RecordTraceFinished("ok")
	m.RecordSpanStarted()
	m.RecordSpanFinished("ok")
	m.RecordSpanTimedOut()
	m.RecordLogEntry("INFO")
	m.RecordMeasurement("t", "healthy")
	m.RecordBreach("t")
	m.RecordAlert()
	m.RecordReportCache(true)

	assert.Zero(t, m.GetUptimeSeconds())
	assert.Zero(t, m.GetSnapshot().TotalRequests)
}
