/*
Package tracing tracks hierarchical spans grouped into traces, entirely
in-process.

# Overview

The service keeps active spans and traces in mutable tables and moves them
into bounded FIFO history buffers when finished. Per-operation timing and
error aggregates are maintained incrementally; a global summary exposes
nearest-rank duration percentiles. A rolling retention sweep evicts old
history and force-finishes spans open past the configured maximum.

# Failure semantics

Every query returns nil or empty on miss; every mutation is a silent no-op
on unknown or already-finished ids. Telemetry is never the reason a
request fails.

# Usage

	svc := tracing.New(tracing.DefaultConfig(), logger.Logger, metrics)

	traceID := svc.StartTrace("GET /api/generate", "meal-planner")
	spanID := svc.StartSpan("db.query", traceID, "", nil)
	svc.AddSpanTag(spanID, "rows", types.Int(5))
	svc.FinishSpan(spanID, tracing.StatusOK, "", nil)
	svc.FinishTrace(traceID)

Function-level tracing uses the scoped helpers:

	scope, ctx := svc.StartScoped(ctx, "generate.plan", "meal-planner")
	defer scope.Finish(&err)
*/
package tracing
