package tracing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewise/telemetry/internal/shared/types"
)

func newTestService(cfg Config) *Service {
	return New(cfg, nil, nil)
}

func TestStartTraceDisabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Enabled = false
	svc := newTestService(cfg)

	assert.Empty(t, svc.StartTrace("op", "svc"))
	assert.Empty(t, svc.StartSpan("op", "trace_x", "", nil))
}

func TestSampling(t *testing.T) {
	cfg := DefaultConfig()
	cfg.SampleRate = 0.5
	svc := newTestService(cfg)

	svc.sample = func() float64 { return 0.9 }
	assert.Empty(t, svc.StartTrace("op", "svc"), "draw above rate should reject")

	svc.sample = func() float64 { return 0.3 }
	assert.NotEmpty(t, svc.StartTrace("op", "svc"), "draw below rate should record")
}

func TestStartTraceRegistersRootSpan(t *testing.T) {
	svc := newTestService(DefaultConfig())

	traceID := svc.StartTrace("GET /api/plans", "meal-planner")
	require.NotEmpty(t, traceID)

	trace := svc.GetTrace(traceID)
	require.NotNil(t, trace)
	assert.Equal(t, 1, trace.SpanCount)
	assert.Equal(t, traceID, trace.Spans[0].TraceID)
	assert.Equal(t, trace.RootSpanID, trace.Spans[0].SpanID)
	assert.Empty(t, trace.Spans[0].ParentSpanID, "root span has no parent")
	assert.False(t, trace.Finished())
}

// Finishing a span twice, or tagging/logging after finish, must leave state
// unchanged and not panic.
func TestSpanLifecycleNoOpAfterFinish(t *testing.T) {
	svc := newTestService(DefaultConfig())

	traceID := svc.StartTrace("op", "svc")
	spanID := svc.StartSpan("child", traceID, "", nil)
	require.NotEmpty(t, spanID)

	svc.FinishSpan(spanID, StatusOK, "", nil)

	before := svc.GetTrace(traceID)
	require.NotNil(t, before)

	assert.NotPanics(t, func() {
		svc.FinishSpan(spanID, StatusError, "late", nil)
		svc.AddSpanTag(spanID, "late", types.String("tag"))
		svc.AddSpanLog(spanID, "late log", "INFO", nil)
	})

	after := svc.GetTrace(traceID)
	require.NotNil(t, after)
	assert.Equal(t, before.ErrorCount, after.ErrorCount)

	var child *Span
	for _, sp := range after.Spans {
		if sp.SpanID == spanID {
			child = sp
		}
	}
	require.NotNil(t, child)
	assert.Equal(t, StatusOK, child.Status)
	assert.NotContains(t, child.Tags, "late")
	assert.Empty(t, child.Logs)
}

func TestTraceErrorPropagation(t *testing.T) {
	svc := newTestService(DefaultConfig())

	traceID := svc.StartTrace("op", "svc")
	const n = 5
	const k = 2
	for i := 0; i < n; i++ {
		spanID := svc.StartSpan(fmt.Sprintf("child-%d", i), traceID, "", nil)
		status := StatusOK
		errMsg := ""
		if i < k {
			status = StatusError
			errMsg = "boom"
		}
		svc.FinishSpan(spanID, status, errMsg, nil)
	}
	rootID := svc.GetTrace(traceID).RootSpanID
	svc.FinishSpan(rootID, StatusOK, "", nil)
	svc.FinishTrace(traceID)

	trace := svc.GetTrace(traceID)
	require.NotNil(t, trace)
	assert.Equal(t, k, trace.ErrorCount)
	assert.Equal(t, StatusError, trace.Status)
	assert.Equal(t, n+1, trace.SpanCount)
}

func TestTraceStatusOKWithoutErrors(t *testing.T) {
	svc := newTestService(DefaultConfig())

	traceID := svc.StartTrace("op", "svc")
	spanID := svc.StartSpan("child", traceID, "", nil)
	svc.FinishSpan(spanID, StatusOK, "", nil)
	rootID := svc.GetTrace(traceID).RootSpanID
	svc.FinishSpan(rootID, StatusOK, "", nil)
	svc.FinishTrace(traceID)

	trace := svc.GetTrace(traceID)
	assert.Equal(t, StatusOK, trace.Status)
	assert.Equal(t, 0, trace.ErrorCount)
}

// FinishTrace must force-finish any spans still open in the trace as
// timeout. The trace status is derived before that sweep, so spans merely
// open at finish time do not mark the trace itself as timed out.
func TestFinishTraceForcesTimeoutOnOpenSpans(t *testing.T) {
	svc := newTestService(DefaultConfig())

	traceID := svc.StartTrace("op", "svc")
	spanID := svc.StartSpan("never-finished", traceID, "", nil)
	require.NotEmpty(t, spanID)

	svc.FinishTrace(traceID)

	trace := svc.GetTrace(traceID)
	require.NotNil(t, trace)
	assert.True(t, trace.Finished())
	assert.Equal(t, StatusOK, trace.Status)
	for _, sp := range trace.Spans {
		assert.True(t, sp.Finished(), "span %s should be sealed", sp.SpanID)
		assert.Equal(t, StatusTimeout, sp.Status)
	}
}

// A trace finished without explicitly finishing its root span stays ok:
// the root is swept as timeout but the trace status was already derived.
func TestFinishTraceWithOpenRootIsOK(t *testing.T) {
	svc := newTestService(DefaultConfig())

	traceID := svc.StartTrace("GET /api/generate", "meal-planner")
	require.NotEmpty(t, traceID)

	spanID := svc.StartSpan("db.query", traceID, "", nil)
	svc.AddSpanTag(spanID, "rows", types.Int(5))
	svc.FinishSpan(spanID, StatusOK, "", nil)

	svc.FinishTrace(traceID)

	trace := svc.GetTrace(traceID)
	require.NotNil(t, trace)
	assert.True(t, trace.Finished())
	assert.Equal(t, 2, trace.SpanCount)
	assert.Equal(t, StatusOK, trace.Status)
	assert.Equal(t, 0, trace.ErrorCount)

	var child *Span
	for _, sp := range trace.Spans {
		if sp.SpanID == spanID {
			child = sp
		}
	}
	require.NotNil(t, child)
	assert.Equal(t, int64(5), child.Tags["rows"].Int64())
}

func TestEndToEndRequestTrace(t *testing.T) {
	svc := newTestService(DefaultConfig())

	traceID := svc.StartTrace("GET /api/generate", "meal-planner")
	require.NotEmpty(t, traceID)

	spanID := svc.StartSpan("db.query", traceID, "", nil)
	svc.AddSpanTag(spanID, "rows", types.Int(5))
	svc.FinishSpan(spanID, StatusOK, "", nil)

	rootID := svc.GetTrace(traceID).RootSpanID
	svc.FinishSpan(rootID, StatusOK, "", nil)
	svc.FinishTrace(traceID)

	trace := svc.GetTrace(traceID)
	require.NotNil(t, trace)
	assert.Equal(t, 2, trace.SpanCount)
	assert.Equal(t, StatusOK, trace.Status)

	var child *Span
	for _, sp := range trace.Spans {
		if sp.SpanID == spanID {
			child = sp
		}
	}
	require.NotNil(t, child)
	assert.Equal(t, int64(5), child.Tags["rows"].Int64())
}

func TestUnknownIDsAreSilentNoOps(t *testing.T) {
	svc := newTestService(DefaultConfig())

	assert.NotPanics(t, func() {
		svc.FinishSpan("span_unknown", StatusOK, "", nil)
		svc.FinishTrace("trace_unknown")
		svc.AddSpanTag("span_unknown", "k", types.String("v"))
		svc.AddSpanLog("span_unknown", "msg", "INFO", nil)
	})
	assert.Nil(t, svc.GetTrace("trace_unknown"))
	assert.Empty(t, svc.GetTraces(TraceQuery{}))
}

// Spans for traces that were already finished are still tracked in the
// active-span table, just not attached to a trace object.
func TestStartSpanAfterTraceFinished(t *testing.T) {
	svc := newTestService(DefaultConfig())

	traceID := svc.StartTrace("op", "svc")
	svc.FinishTrace(traceID)

	spanID := svc.StartSpan("straggler", traceID, "", nil)
	require.NotEmpty(t, spanID)

	svc.FinishSpan(spanID, StatusOK, "", nil)

	// The trace's span count is unchanged.
	trace := svc.GetTrace(traceID)
	assert.Equal(t, 1, trace.SpanCount)

	// But the span made it into the operation aggregate.
	stats := svc.GetOperationStats()
	assert.Equal(t, int64(1), stats["straggler"].Count)
}

func TestOperationStats(t *testing.T) {
	svc := newTestService(DefaultConfig())

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	current := base
	svc.now = func() time.Time { return current }

	durations := []time.Duration{10 * time.Millisecond, 30 * time.Millisecond, 50 * time.Millisecond}
	for i, d := range durations {
		current = base
		traceID := svc.StartTrace("root", "svc")
		spanID := svc.StartSpan("db.query", traceID, "", nil)
		current = base.Add(d)
		status := StatusOK
		if i == 2 {
			status = StatusError
		}
		svc.FinishSpan(spanID, status, "", nil)
		svc.FinishTrace(traceID)
	}

	stats := svc.GetOperationStats()
	dbStats, ok := stats["db.query"]
	require.True(t, ok)
	assert.Equal(t, int64(3), dbStats.Count)
	assert.Equal(t, int64(1), dbStats.ErrorCount)
	assert.InDelta(t, 33.33, dbStats.ErrorRatePercent, 0.01)
	assert.InDelta(t, 10.0, dbStats.MinDurationMS, 0.001)
	assert.InDelta(t, 50.0, dbStats.MaxDurationMS, 0.001)
	assert.InDelta(t, 30.0, dbStats.AvgDurationMS, 0.001)
}

func TestTraceSummaryPercentileMonotonicity(t *testing.T) {
	svc := newTestService(DefaultConfig())

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	current := base
	svc.now = func() time.Time { return current }

	// Durations deliberately out of order.
	for _, ms := range []int{500, 20, 300, 10, 250, 90, 40, 700, 60, 5} {
		current = base
		traceID := svc.StartTrace("op", "svc")
		current = base.Add(time.Duration(ms) * time.Millisecond)
		svc.FinishTrace(traceID)
	}

	summary := svc.GetTraceSummary()
	assert.Equal(t, 10, summary.TotalTraces)
	assert.LessOrEqual(t, summary.P50DurationMS, summary.P95DurationMS)
	assert.LessOrEqual(t, summary.P95DurationMS, summary.P99DurationMS)
	assert.Equal(t, 1, summary.UniqueServices)
	assert.InDelta(t, 1.0, summary.AvgSpansPerTrace, 0.001)
}

func TestGetTracesFilters(t *testing.T) {
	svc := newTestService(DefaultConfig())

	base := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	current := base
	svc.now = func() time.Time { return current }

	mk := func(op, service string, dur time.Duration, fail bool) string {
		current = current.Add(time.Second)
		start := current
		traceID := svc.StartTrace(op, service)
		if fail {
			spanID := svc.StartSpan("inner", traceID, "", nil)
			svc.FinishSpan(spanID, StatusError, "fail", nil)
		}
		current = start.Add(dur)
		svc.FinishTrace(traceID)
		return traceID
	}

	slow := mk("GET /api/plans", "api", 800*time.Millisecond, false)
	mk("GET /api/plans", "api", 20*time.Millisecond, false)
	failed := mk("POST /api/generate", "worker", 100*time.Millisecond, true)

	byService := svc.GetTraces(TraceQuery{Service: "worker"})
	require.Len(t, byService, 1)
	assert.Equal(t, failed, byService[0].TraceID)

	byStatus := svc.GetTraces(TraceQuery{Status: StatusError})
	require.Len(t, byStatus, 1)
	assert.Equal(t, failed, byStatus[0].TraceID)

	slowOnes := svc.GetTraces(TraceQuery{MinDurationMS: 500})
	require.Len(t, slowOnes, 1)
	assert.Equal(t, slow, slowOnes[0].TraceID)

	all := svc.GetTraces(TraceQuery{})
	require.Len(t, all, 3)
	// Newest first.
	assert.Equal(t, failed, all[0].TraceID)

	limited := svc.GetTraces(TraceQuery{Limit: 2})
	assert.Len(t, limited, 2)
}

func TestTraceHistoryBounded(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TraceHistorySize = 20
	svc := newTestService(cfg)

	ids := make([]string, 0, 70)
	for i := 0; i < 70; i++ {
		traceID := svc.StartTrace(fmt.Sprintf("op-%d", i), "svc")
		svc.FinishTrace(traceID)
		ids = append(ids, traceID)
	}

	all := svc.GetTraces(TraceQuery{Limit: 100})
	assert.Len(t, all, 20)

	// The earliest 50 are evicted.
	for _, early := range ids[:50] {
		assert.Nil(t, svc.GetTrace(early))
	}
	for _, late := range ids[50:] {
		assert.NotNil(t, svc.GetTrace(late))
	}
}

func TestCleanupOldData(t *testing.T) {
	svc := newTestService(DefaultConfig())

	base := time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)
	current := base
	svc.now = func() time.Time { return current }

	oldTrace := svc.StartTrace("old", "svc")
	svc.FinishTrace(oldTrace)

	// A span left open beyond the max trace duration.
	hung := svc.StartTrace("hung", "svc")

	current = base.Add(48 * time.Hour)
	fresh := svc.StartTrace("fresh", "svc")
	svc.FinishTrace(fresh)

	res := svc.CleanupOldData(24 * time.Hour)

	assert.Equal(t, 1, res.TracesRemoved)
	assert.Equal(t, 1, res.SpansTimedOut)
	assert.Nil(t, svc.GetTrace(oldTrace))
	assert.NotNil(t, svc.GetTrace(fresh))

	// The hung trace's root span was force-finished as timeout.
	svc.FinishTrace(hung)
	trace := svc.GetTrace(hung)
	require.NotNil(t, trace)
	assert.Equal(t, StatusTimeout, trace.Status)
}

func TestGetTraceReturnsCopy(t *testing.T) {
	svc := newTestService(DefaultConfig())

	traceID := svc.StartTrace("op", "svc")
	got := svc.GetTrace(traceID)
	got.Spans[0].Tags["mutated"] = types.Bool(true)

	again := svc.GetTrace(traceID)
	assert.NotContains(t, again.Spans[0].Tags, "mutated")
}
