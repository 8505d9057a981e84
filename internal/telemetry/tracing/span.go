package tracing

import (
	"time"

	"github.com/platewise/telemetry/internal/shared/types"
)

// Status classifies a finished span or trace.
type Status string

const (
	StatusOK      Status = "ok"
	StatusError   Status = "error"
	StatusTimeout Status = "timeout"
)

// SpanLog is one log record attached to a span. Append-only.
type SpanLog struct {
	Timestamp time.Time        `json:"timestamp"`
	Level     string           `json:"level"`
	Message   string           `json:"message"`
	Fields    types.Attributes `json:"fields,omitempty"`
}

// Span represents one unit of work within a trace. A span with a nil
// EndTime is active; once finished it is immutable.
type Span struct {
	SpanID        string           `json:"span_id"`
	TraceID       string           `json:"trace_id"`
	ParentSpanID  string           `json:"parent_span_id,omitempty"`
	OperationName string           `json:"operation_name"`
	StartTime     time.Time        `json:"start_time"`
	EndTime       *time.Time       `json:"end_time,omitempty"`
	DurationMS    float64          `json:"duration_ms"`
	Tags          types.Attributes `json:"tags"`
	Logs          []SpanLog        `json:"logs,omitempty"`
	Status        Status           `json:"status"`
	ErrorMessage  string           `json:"error_message,omitempty"`
}

// Finished reports whether the span has been sealed.
func (s *Span) Finished() bool { return s.EndTime != nil }

// clone deep-copies the span so read APIs never expose shared mutable state.
func (s *Span) clone() *Span {
	cp := *s
	cp.Tags = s.Tags.Clone()
	if s.Logs != nil {
		cp.Logs = make([]SpanLog, len(s.Logs))
		copy(cp.Logs, s.Logs)
	}
	if s.EndTime != nil {
		end := *s.EndTime
		cp.EndTime = &end
	}
	return &cp
}

// Trace is the tree of spans for one logical request, rooted at exactly
// one span.
type Trace struct {
	TraceID       string     `json:"trace_id"`
	RootSpanID    string     `json:"root_span_id"`
	ServiceName   string     `json:"service_name"`
	OperationName string     `json:"operation_name"`
	Spans         []*Span    `json:"spans"`
	StartTime     time.Time  `json:"start_time"`
	EndTime       *time.Time `json:"end_time,omitempty"`
	DurationMS    float64    `json:"duration_ms"`
	Status        Status     `json:"status"`
	ErrorCount    int        `json:"error_count"`
	SpanCount     int        `json:"span_count"`
}

// Finished reports whether FinishTrace has sealed the trace.
func (t *Trace) Finished() bool { return t.EndTime != nil }

func (t *Trace) clone() *Trace {
	cp := *t
	cp.Spans = make([]*Span, len(t.Spans))
	for i, sp := range t.Spans {
		cp.Spans[i] = sp.clone()
	}
	if t.EndTime != nil {
		end := *t.EndTime
		cp.EndTime = &end
	}
	return &cp
}

// deriveStatus computes the overall trace status from its spans.
// Errors dominate timeouts; otherwise the trace is ok.
func (t *Trace) deriveStatus() Status {
	if t.ErrorCount > 0 {
		return StatusError
	}
	for _, sp := range t.Spans {
		if sp.Status == StatusTimeout {
			return StatusTimeout
		}
	}
	return StatusOK
}
