package logs

import (
	"os"
	"strings"

	"go.uber.org/zap/zapcore"

	"github.com/platewise/telemetry/internal/shared/types"
)

// correlation ids promoted from zap fields onto Entry columns.
const (
	fieldUserID    = "user_id"
	fieldSessionID = "session_id"
	fieldRequestID = "request_id"
	fieldTraceID   = "trace_id"
	fieldSpanID    = "span_id"
)

// zapBridge is a zapcore.Core that feeds application log records into the
// aggregation service. It is meant to be teed next to the real output core,
// so a bridge failure can never lose the line on disk: Write recovers any
// panic and always returns nil.
type zapBridge struct {
	svc    *Service
	enab   zapcore.LevelEnabler
	scope  string
	fields []zapcore.Field
}

// NewZapCore returns a core that captures entries from loggers whose name
// starts with nameScope (pass "" to capture everything) at or above the
// enabled level.
func NewZapCore(svc *Service, enab zapcore.LevelEnabler, nameScope string) zapcore.Core {
	if enab == nil {
		enab = zapcore.DebugLevel
	}
	return &zapBridge{svc: svc, enab: enab, scope: nameScope}
}

func (b *zapBridge) Enabled(l zapcore.Level) bool { return b.enab.Enabled(l) }

func (b *zapBridge) With(fields []zapcore.Field) zapcore.Core {
	clone := *b
	clone.fields = make([]zapcore.Field, 0, len(b.fields)+len(fields))
	clone.fields = append(clone.fields, b.fields...)
	clone.fields = append(clone.fields, fields...)
	return &clone
}

func (b *zapBridge) Check(entry zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !b.Enabled(entry.Level) {
		return ce
	}
	if b.scope != "" && !strings.HasPrefix(entry.LoggerName, b.scope) {
		return ce
	}
	return ce.AddCore(entry, b)
}

func (b *zapBridge) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	defer func() {
		// Capture is best-effort; the primary core already wrote the line.
		_ = recover()
	}()

	enc := zapcore.NewMapObjectEncoder()
	for _, f := range b.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}

	e := &Entry{
		Timestamp:   entry.Time,
		Level:       levelFromZap(entry.Level),
		LoggerName:  entry.LoggerName,
		Message:     entry.Message,
		ProcessID:   os.Getpid(),
		ExtraFields: types.Attributes{},
	}
	if entry.Caller.Defined {
		e.Module, e.Function = splitCaller(entry.Caller.Function)
		e.LineNumber = entry.Caller.Line
	}

	for key, raw := range enc.Fields {
		str, isString := raw.(string)
		switch {
		case key == fieldUserID && isString:
			e.UserID = str
		case key == fieldSessionID && isString:
			e.SessionID = str
		case key == fieldRequestID && isString:
			e.RequestID = str
		case key == fieldTraceID && isString:
			e.TraceID = str
		case key == fieldSpanID && isString:
			e.SpanID = str
		default:
			e.ExtraFields[key] = types.FromAny(raw)
		}
	}

	b.svc.AddEntry(e)
	return nil
}

func (b *zapBridge) Sync() error { return nil }

// splitCaller breaks a runtime function name like
// "github.com/acme/svc/internal/server.(*Server).Run" into its package
// ("server") and function ("(*Server).Run") parts.
func splitCaller(fn string) (module, function string) {
	if fn == "" {
		return "", ""
	}
	if i := strings.LastIndex(fn, "/"); i >= 0 {
		fn = fn[i+1:]
	}
	if i := strings.Index(fn, "."); i >= 0 {
		return fn[:i], fn[i+1:]
	}
	return fn, ""
}
