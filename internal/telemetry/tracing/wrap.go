package tracing

import (
	"context"
	"fmt"

	"github.com/platewise/telemetry/internal/shared/types"
)

// Scope is a handle over a span opened by StartScoped. Finish must be
// deferred so the span is sealed on both normal and panicking paths.
type Scope struct {
	svc     *Service
	traceID string
	spanID  string
	root    bool
	done    bool
}

// StartScoped opens a unit of work: when no trace is active in ctx a new
// trace is started (and this scope becomes trace-root, finishing the trace
// on Finish); otherwise a child span is started. The returned context
// carries the new span for nested scopes.
//
// When tracing is disabled or the trace is sampled out, the scope is inert
// and Finish does nothing.
func (s *Service) StartScoped(ctx context.Context, operationName, serviceName string) (*Scope, context.Context) {
	if traceID := TraceIDFromContext(ctx); traceID != "" {
		spanID := s.StartSpan(operationName, traceID, SpanIDFromContext(ctx), nil)
		if spanID == "" {
			return &Scope{svc: s}, ctx
		}
		return &Scope{svc: s, traceID: traceID, spanID: spanID},
			WithTraceContext(ctx, traceID, spanID)
	}

	traceID, rootSpanID := s.startTrace(operationName, serviceName)
	if traceID == "" {
		return &Scope{svc: s}, ctx
	}
	return &Scope{svc: s, traceID: traceID, spanID: rootSpanID, root: true},
		WithTraceContext(ctx, traceID, rootSpanID)
}

// TraceID returns the owning trace id, or "" for an inert scope.
func (sc *Scope) TraceID() string { return sc.traceID }

// SpanID returns the span id, or "" for an inert scope.
func (sc *Scope) SpanID() string { return sc.spanID }

// AddTag tags the scoped span.
func (sc *Scope) AddTag(key string, value types.Value) {
	if sc.spanID != "" {
		sc.svc.AddSpanTag(sc.spanID, key, value)
	}
}

// AddLog appends a log record to the scoped span.
func (sc *Scope) AddLog(message, level string, fields types.Attributes) {
	if sc.spanID != "" {
		sc.svc.AddSpanLog(sc.spanID, message, level, fields)
	}
}

// Finish seals the scope. Call as `defer scope.Finish(&err)`: a non-nil
// *errp finishes the span with status error and the error message attached
// as a span log; a panic does the same and then re-panics unmodified.
func (sc *Scope) Finish(errp *error) {
	if r := recover(); r != nil {
		sc.finish(StatusError, fmt.Sprintf("%v", r))
		panic(r)
	}
	if errp != nil && *errp != nil {
		sc.finish(StatusError, (*errp).Error())
		return
	}
	sc.finish(StatusOK, "")
}

func (sc *Scope) finish(status Status, errorMessage string) {
	if sc.done {
		return
	}
	sc.done = true
	if sc.spanID == "" {
		return
	}
	if errorMessage != "" {
		sc.svc.AddSpanLog(sc.spanID, errorMessage, "ERROR", nil)
	}
	sc.svc.FinishSpan(sc.spanID, status, errorMessage, nil)
	if sc.root {
		sc.svc.FinishTrace(sc.traceID)
	}
}

// WrapFunc returns fn wrapped in a scope: a trace when none is active in
// the caller's context, a child span otherwise. Errors and panics are
// recorded on the span and propagated unchanged.
func (s *Service) WrapFunc(operationName, serviceName string, fn func(context.Context) error) func(context.Context) error {
	return func(ctx context.Context) (err error) {
		scope, ctx := s.StartScoped(ctx, operationName, serviceName)
		defer scope.Finish(&err)
		return fn(ctx)
	}
}
