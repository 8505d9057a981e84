package logs

import (
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/platewise/telemetry/internal/shared/types"
)

// Severity levels, normalized to the aggregator's canonical uppercase form.
const (
	LevelDebug    = "DEBUG"
	LevelInfo     = "INFO"
	LevelWarning  = "WARNING"
	LevelError    = "ERROR"
	LevelCritical = "CRITICAL"
)

// Entry is one structured log record. Immutable once ingested.
type Entry struct {
	Timestamp  time.Time `json:"timestamp"`
	Level      string    `json:"level"`
	LoggerName string    `json:"logger_name"`
	Message    string    `json:"message"`
	Module     string    `json:"module"`
	Function   string    `json:"function"`
	LineNumber int       `json:"line_number"`
	ThreadID   string    `json:"thread_id,omitempty"`
	ProcessID  int       `json:"process_id,omitempty"`

	// Optional correlation ids
	UserID    string `json:"user_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	RequestID string `json:"request_id,omitempty"`
	TraceID   string `json:"trace_id,omitempty"`
	SpanID    string `json:"span_id,omitempty"`

	ExtraFields types.Attributes `json:"extra_fields"`
}

// normalize enforces entry invariants: canonical level casing, a non-nil
// extra-field map, and a timestamp.
func (e *Entry) normalize(now func() time.Time) {
	e.Level = NormalizeLevel(e.Level)
	if e.ExtraFields == nil {
		e.ExtraFields = types.Attributes{}
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now()
	}
}

// source identifies where the entry was emitted, as "module.function".
func (e *Entry) source() string {
	return e.Module + "." + e.Function
}

// truncateRunes shortens s to at most limit runes, never splitting a
// multi-byte character.
func truncateRunes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

// NormalizeLevel maps assorted level spellings onto the canonical set.
func NormalizeLevel(level string) string {
	switch strings.ToUpper(level) {
	case "DEBUG", "VERBOSE", "TRACE":
		return LevelDebug
	case "INFO", "":
		return LevelInfo
	case "WARN", "WARNING":
		return LevelWarning
	case "ERROR":
		return LevelError
	case "CRITICAL", "FATAL", "PANIC", "DPANIC":
		return LevelCritical
	default:
		return strings.ToUpper(level)
	}
}

// levelFromZap converts a zap level to the canonical form.
func levelFromZap(l zapcore.Level) string {
	switch l {
	case zapcore.DebugLevel:
		return LevelDebug
	case zapcore.InfoLevel:
		return LevelInfo
	case zapcore.WarnLevel:
		return LevelWarning
	case zapcore.ErrorLevel:
		return LevelError
	default:
		return LevelCritical
	}
}
