package tracing

import (
	"math/rand"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/platewise/telemetry/internal/infrastructure/monitoring"
	"github.com/platewise/telemetry/internal/shared/id"
	"github.com/platewise/telemetry/internal/shared/types"
	"github.com/platewise/telemetry/internal/telemetry/ring"
)

// Config defines tracing service configuration.
type Config struct {
	Enabled          bool
	SampleRate       float64 // 0.0–1.0 probability a new trace is recorded
	MaxTraceDuration time.Duration
	SpanHistorySize  int
	TraceHistorySize int
}

// DefaultConfig returns production-ready tracing configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:          true,
		SampleRate:       1.0,
		MaxTraceDuration: 30 * time.Second,
		SpanHistorySize:  50000,
		TraceHistorySize: 10000,
	}
}

// Service tracks hierarchical spans grouped into traces, computes timing
// and error aggregates, and evicts old data on a rolling window.
//
// Every mutation is a silent no-op on unknown or already-finished ids:
// tracing must never break the business logic calling it.
type Service struct {
	mu  sync.Mutex
	cfg Config

	activeSpans  map[string]*Span
	activeTraces map[string]*Trace
	spanHistory  *ring.Buffer[*Span]
	traceHistory *ring.Buffer[*Trace]
	opStats      map[string]*opAggregate

	logger  *zap.Logger
	metrics *monitoring.Metrics

	// injectable for deterministic tests
	now    func() time.Time
	sample func() float64
}

// New creates a tracing service. logger and metrics may be nil.
func New(cfg Config, logger *zap.Logger, metrics *monitoring.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SpanHistorySize <= 0 {
		cfg.SpanHistorySize = DefaultConfig().SpanHistorySize
	}
	if cfg.TraceHistorySize <= 0 {
		cfg.TraceHistorySize = DefaultConfig().TraceHistorySize
	}
	if cfg.MaxTraceDuration <= 0 {
		cfg.MaxTraceDuration = DefaultConfig().MaxTraceDuration
	}
	return &Service{
		cfg:          cfg,
		activeSpans:  make(map[string]*Span),
		activeTraces: make(map[string]*Trace),
		spanHistory:  ring.New[*Span](cfg.SpanHistorySize),
		traceHistory: ring.New[*Trace](cfg.TraceHistorySize),
		opStats:      make(map[string]*opAggregate),
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
		sample:       rand.Float64,
	}
}

// SetEnabled toggles tracing at runtime.
func (s *Service) SetEnabled(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg.Enabled = enabled
}

// SetSampleRate adjusts the sampling probability at runtime.
func (s *Service) SetSampleRate(rate float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rate < 0 {
		rate = 0
	}
	if rate > 1 {
		rate = 1
	}
	s.cfg.SampleRate = rate
}

// StartTrace allocates a new trace with a root span and returns the trace
// id. Returns "" when tracing is disabled or the sampling decision rejects
// the trace.
func (s *Service) StartTrace(operationName, serviceName string) string {
	traceID, _ := s.startTrace(operationName, serviceName)
	return traceID
}

func (s *Service) startTrace(operationName, serviceName string) (string, string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled {
		return "", ""
	}
	if s.sample() > s.cfg.SampleRate {
		s.metrics.RecordTraceSampledOut()
		return "", ""
	}

	traceID := id.NewTraceID().String()
	spanID := id.NewSpanID().String()
	start := s.now()

	root := &Span{
		SpanID:        spanID,
		TraceID:       traceID,
		OperationName: operationName,
		StartTime:     start,
		Tags:          types.Attributes{},
		Status:        StatusOK,
	}
	trace := &Trace{
		TraceID:       traceID,
		RootSpanID:    spanID,
		ServiceName:   serviceName,
		OperationName: operationName,
		Spans:         []*Span{root},
		StartTime:     start,
		Status:        StatusOK,
		SpanCount:     1,
	}

	s.activeSpans[spanID] = root
	s.activeTraces[traceID] = trace
	s.metrics.RecordTraceStarted()
	s.metrics.RecordSpanStarted()

	return traceID, spanID
}

// StartSpan allocates a child span within an existing trace. Returns ""
// when tracing is disabled or traceID is empty. When the trace is no
// longer active the span is still tracked in the active-span table but not
// attached to a trace object.
func (s *Service) StartSpan(operationName, traceID, parentSpanID string, tags types.Attributes) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.cfg.Enabled || traceID == "" {
		return ""
	}

	spanID := id.NewSpanID().String()
	span := &Span{
		SpanID:        spanID,
		TraceID:       traceID,
		ParentSpanID:  parentSpanID,
		OperationName: operationName,
		StartTime:     s.now(),
		Tags:          tags.Clone(),
		Status:        StatusOK,
	}

	s.activeSpans[spanID] = span
	if trace, ok := s.activeTraces[traceID]; ok {
		trace.Spans = append(trace.Spans, span)
		trace.SpanCount++
	}
	s.metrics.RecordSpanStarted()

	return spanID
}

// FinishSpan seals a span: sets end time, duration, and status, merges any
// provided tags, updates the per-operation aggregate and the owning trace's
// error count, and moves the span to bounded history. No-op when the span
// is unknown or already finished.
func (s *Service) FinishSpan(spanID string, status Status, errorMessage string, tags types.Attributes) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.finishSpanLocked(spanID, status, errorMessage, tags)
}

func (s *Service) finishSpanLocked(spanID string, status Status, errorMessage string, tags types.Attributes) {
	span, ok := s.activeSpans[spanID]
	if !ok {
		return
	}

	end := s.now()
	span.EndTime = &end
	span.DurationMS = end.Sub(span.StartTime).Seconds() * 1000
	if status == "" {
		status = StatusOK
	}
	span.Status = status
	span.ErrorMessage = errorMessage
	if tags != nil {
		span.Tags.Merge(tags)
	}

	s.recordOperation(span)

	if trace, ok := s.activeTraces[span.TraceID]; ok && status == StatusError {
		trace.ErrorCount++
	}

	s.spanHistory.Push(span)
	delete(s.activeSpans, spanID)
	s.metrics.RecordSpanFinished(string(status))
}

// FinishTrace seals a trace: sets end time and duration, derives the
// overall status, then force-finishes any spans still open that belong to
// it (as timeout), and moves the trace to bounded history. Status is
// derived before the sweep, so an open root span at finish time does not
// turn a clean trace into a timeout; a trace-level timeout only arises
// from spans timed out earlier. No-op when the trace is unknown.
func (s *Service) FinishTrace(traceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	trace, ok := s.activeTraces[traceID]
	if !ok {
		return
	}

	end := s.now()
	trace.EndTime = &end
	trace.DurationMS = end.Sub(trace.StartTime).Seconds() * 1000
	trace.Status = trace.deriveStatus()

	for spanID, span := range s.activeSpans {
		if span.TraceID == traceID {
			s.finishSpanLocked(spanID, StatusTimeout, "", nil)
		}
	}

	s.traceHistory.Push(trace)
	delete(s.activeTraces, traceID)
	s.metrics.RecordTraceFinished(string(trace.Status))
}

// AddSpanTag mutates an active span only; silent no-op otherwise.
func (s *Service) AddSpanTag(spanID, key string, value types.Value) {
	s.mu.Lock()
	defer s.mu.Unlock()

	span, ok := s.activeSpans[spanID]
	if !ok {
		return
	}
	span.Tags[key] = value
}

// AddSpanLog appends a log record to an active span; silent no-op otherwise.
func (s *Service) AddSpanLog(spanID, message, level string, fields types.Attributes) {
	s.mu.Lock()
	defer s.mu.Unlock()

	span, ok := s.activeSpans[spanID]
	if !ok {
		return
	}
	span.Logs = append(span.Logs, SpanLog{
		Timestamp: s.now(),
		Level:     level,
		Message:   message,
		Fields:    fields.Clone(),
	})
}

// GetTrace returns a copy of the trace, checking the active table first and
// then scanning history. Returns nil on miss.
func (s *Service) GetTrace(traceID string) *Trace {
	s.mu.Lock()
	defer s.mu.Unlock()

	if trace, ok := s.activeTraces[traceID]; ok {
		return trace.clone()
	}
	for i := s.traceHistory.Len() - 1; i >= 0; i-- {
		if t := s.traceHistory.At(i); t.TraceID == traceID {
			return t.clone()
		}
	}
	return nil
}

// TraceQuery filters finished traces.
type TraceQuery struct {
	Limit         int
	Service       string
	Operation     string
	Status        Status
	MinDurationMS float64
}

// GetTraces filters trace history, sorted by start time descending,
// truncated to the query limit (default 50).
func (s *Service) GetTraces(q TraceQuery) []*Trace {
	s.mu.Lock()
	snapshot := s.traceHistory.Snapshot()
	s.mu.Unlock()

	limit := q.Limit
	if limit <= 0 {
		limit = 50
	}

	matched := make([]*Trace, 0, limit)
	for _, t := range snapshot {
		if q.Service != "" && t.ServiceName != q.Service {
			continue
		}
		if q.Operation != "" && t.OperationName != q.Operation {
			continue
		}
		if q.Status != "" && t.Status != q.Status {
			continue
		}
		if t.DurationMS < q.MinDurationMS {
			continue
		}
		matched = append(matched, t)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].StartTime.After(matched[j].StartTime)
	})
	if len(matched) > limit {
		matched = matched[:limit]
	}

	out := make([]*Trace, len(matched))
	for i, t := range matched {
		out[i] = t.clone()
	}
	return out
}

// CleanupResult reports what a retention sweep removed.
type CleanupResult struct {
	TracesRemoved int `json:"traces_removed"`
	SpansRemoved  int `json:"spans_removed"`
	SpansTimedOut int `json:"spans_timed_out"`
}

// CleanupOldData drops history entries older than maxAge and force-finishes
// (as timeout) active spans open longer than the configured max trace
// duration. Expected to be invoked periodically by an external scheduler.
func (s *Service) CleanupOldData(maxAge time.Duration) CleanupResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-maxAge)
	var res CleanupResult

	res.TracesRemoved = s.traceHistory.DropWhile(func(t *Trace) bool {
		return t.StartTime.Before(cutoff)
	})
	res.SpansRemoved = s.spanHistory.DropWhile(func(sp *Span) bool {
		return sp.StartTime.Before(cutoff)
	})

	now := s.now()
	for spanID, span := range s.activeSpans {
		if now.Sub(span.StartTime) > s.cfg.MaxTraceDuration {
			s.finishSpanLocked(spanID, StatusTimeout, "exceeded max trace duration", nil)
			s.metrics.RecordSpanTimedOut()
			res.SpansTimedOut++
		}
	}

	if res.TracesRemoved > 0 || res.SpansRemoved > 0 || res.SpansTimedOut > 0 {
		s.logger.Debug("trace retention sweep",
			zap.Int("traces_removed", res.TracesRemoved),
			zap.Int("spans_removed", res.SpansRemoved),
			zap.Int("spans_timed_out", res.SpansTimedOut),
		)
	}
	return res
}
