package tracing

import (
	"context"
	"net/http"
)

// Context keys for trace propagation
type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	spanIDKey  contextKey = "span_id"
)

// Header names for simple cross-process correlation.
const (
	HeaderTraceID      = "X-Trace-ID"
	HeaderParentSpanID = "X-Parent-Span-ID"
)

// WithTraceContext returns a context carrying the trace and span ids.
func WithTraceContext(ctx context.Context, traceID, spanID string) context.Context {
	ctx = context.WithValue(ctx, traceIDKey, traceID)
	return context.WithValue(ctx, spanIDKey, spanID)
}

// TraceIDFromContext retrieves the trace ID from context, or "".
func TraceIDFromContext(ctx context.Context) string {
	if traceID, ok := ctx.Value(traceIDKey).(string); ok {
		return traceID
	}
	return ""
}

// SpanIDFromContext retrieves the current span ID from context, or "".
func SpanIDFromContext(ctx context.Context) string {
	if spanID, ok := ctx.Value(spanIDKey).(string); ok {
		return spanID
	}
	return ""
}

// ExtractTraceContext extracts the inbound correlation header pair.
func ExtractTraceContext(headers http.Header) (traceID, parentSpanID string) {
	return headers.Get(HeaderTraceID), headers.Get(HeaderParentSpanID)
}

// InjectTraceContext injects the current trace context into outbound headers.
func InjectTraceContext(ctx context.Context, headers http.Header) {
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		headers.Set(HeaderTraceID, traceID)
	}
	if spanID := SpanIDFromContext(ctx); spanID != "" {
		headers.Set(HeaderParentSpanID, spanID)
	}
}
