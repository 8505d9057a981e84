/*
Package logs aggregates structured log entries in memory for querying,
pattern analysis, and export.

# Overview

Ingested entries land in a bounded FIFO buffer with dedicated sub-buffers
for errors, warnings, and performance-tagged records. Per-logger and
per-source counters are cumulative: they keep counting after the entries
they counted have been evicted.

A zapcore.Core bridge (NewZapCore) tees application zap output into the
aggregator, promoting well-known correlation fields (user_id, trace_id,
request_id) onto entry columns. Entries are also appended as JSON lines
to date-stamped files when a directory is configured; CleanupOldLogs
prunes rotated files past retention.

# Failure semantics

Capture is best-effort. The bridge swallows its own panics, file append
failures are logged and dropped, and queries over an empty service return
empty results, never errors.
*/
package logs
