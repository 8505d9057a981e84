package logs

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/platewise/telemetry/internal/infrastructure/monitoring"
	"github.com/platewise/telemetry/internal/telemetry/ring"
)

// Config bounds the in-memory buffers and points at the on-disk log
// directory. A zero Dir disables file output.
type Config struct {
	MaxEntries    int
	MaxErrors     int
	MaxWarnings   int
	MaxPerfLogs   int
	Dir           string
	RetentionDays int
}

// DefaultConfig returns the production buffer sizes.
func DefaultConfig() Config {
	return Config{
		MaxEntries:    100000,
		MaxErrors:     1000,
		MaxWarnings:   1000,
		MaxPerfLogs:   10000,
		RetentionDays: 30,
	}
}

type loggerStats struct {
	Count  int64            `json:"count"`
	Levels map[string]int64 `json:"levels"`
}

// LoggerStats is the cumulative per-logger tally. Counts survive buffer
// eviction: they track everything ever ingested, not what is retained.
type LoggerStats struct {
	Count  int64            `json:"count"`
	Levels map[string]int64 `json:"levels"`
}

// Service aggregates structured log entries into bounded in-memory buffers
// and keeps cumulative per-logger and per-source statistics.
//
// All reads copy matching entries out under the lock and post-process the
// copy; no I/O happens while the lock is held.
type Service struct {
	mu sync.RWMutex

	cfg     Config
	entries *ring.Buffer[*Entry]

	// Level-scoped sub-buffers for cheap error/warning queries.
	errorEntries   *ring.Buffer[*Entry]
	warningEntries *ring.Buffer[*Entry]
	perfEntries    *ring.Buffer[*Entry]

	perLogger     map[string]*loggerStats
	errorPatterns map[string]int64 // "module.function" -> cumulative error count

	files   *fileWriter
	logger  *zap.Logger
	metrics *monitoring.Metrics

	now func() time.Time
}

// New constructs the aggregation service. File output is enabled when
// cfg.Dir is set; a directory that cannot be created is reported but does
// not fail construction.
func New(cfg Config, logger *zap.Logger, metrics *monitoring.Metrics) *Service {
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = DefaultConfig().MaxEntries
	}
	if cfg.MaxErrors <= 0 {
		cfg.MaxErrors = DefaultConfig().MaxErrors
	}
	if cfg.MaxWarnings <= 0 {
		cfg.MaxWarnings = DefaultConfig().MaxWarnings
	}
	if cfg.MaxPerfLogs <= 0 {
		cfg.MaxPerfLogs = DefaultConfig().MaxPerfLogs
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		cfg:            cfg,
		entries:        ring.New[*Entry](cfg.MaxEntries),
		errorEntries:   ring.New[*Entry](cfg.MaxErrors),
		warningEntries: ring.New[*Entry](cfg.MaxWarnings),
		perfEntries:    ring.New[*Entry](cfg.MaxPerfLogs),
		perLogger:      make(map[string]*loggerStats),
		errorPatterns:  make(map[string]int64),
		logger:         logger,
		metrics:        metrics,
		now:            time.Now,
	}

	if cfg.Dir != "" {
		fw, err := newFileWriter(cfg.Dir)
		if err != nil {
			logger.Error("Log directory unavailable, file output disabled",
				zap.String("dir", cfg.Dir), zap.Error(err))
		} else {
			s.files = fw
		}
	}
	return s
}

// AddEntry ingests one log entry. The in-memory buffers are updated under
// the lock; the file append happens after release on the writer's own lock.
func (s *Service) AddEntry(e *Entry) {
	if e == nil {
		return
	}
	e.normalize(s.now)

	s.mu.Lock()
	s.entries.Push(e)

	st := s.perLogger[e.LoggerName]
	if st == nil {
		st = &loggerStats{Levels: make(map[string]int64)}
		s.perLogger[e.LoggerName] = st
	}
	st.Count++
	st.Levels[e.Level]++

	switch e.Level {
	case LevelError, LevelCritical:
		s.errorEntries.Push(e)
		s.errorPatterns[e.source()]++
	case LevelWarning:
		s.warningEntries.Push(e)
	}
	if hasPerfField(e) {
		s.perfEntries.Push(e)
	}
	s.mu.Unlock()

	s.metrics.RecordLogEntry(e.Level)
	if s.files != nil {
		if err := s.files.Append(e); err != nil {
			s.logger.Warn("Log file append failed", zap.Error(err))
		}
	}
}

func hasPerfField(e *Entry) bool {
	for _, key := range []string{"duration", "duration_ms", "response_time", "response_time_ms"} {
		if _, ok := e.ExtraFields[key]; ok {
			return true
		}
	}
	return false
}

// Query selects entries for GetRecentLogs and ExportLogs. Zero fields
// match everything.
type Query struct {
	Level   string
	Logger  string
	UserID  string
	TraceID string
	Since   time.Time
	Limit   int
}

// GetRecentLogs returns matching entries, newest first, capped at
// q.Limit (default 100).
func (s *Service) GetRecentLogs(q Query) []*Entry {
	snapshot := s.snapshot(s.entries)

	level := NormalizeLevel(q.Level)
	matched := snapshot[:0]
	for _, e := range snapshot {
		if q.Level != "" && e.Level != level {
			continue
		}
		if q.Logger != "" && e.LoggerName != q.Logger {
			continue
		}
		if q.UserID != "" && e.UserID != q.UserID {
			continue
		}
		if q.TraceID != "" && e.TraceID != q.TraceID {
			continue
		}
		if !q.Since.IsZero() && e.Timestamp.Before(q.Since) {
			continue
		}
		matched = append(matched, e)
	}

	sortNewestFirst(matched)
	limit := q.Limit
	if limit <= 0 {
		limit = 100
	}
	if len(matched) > limit {
		matched = matched[:limit]
	}
	return matched
}

// GetLoggerStats returns cumulative per-logger counts keyed by logger name.
func (s *Service) GetLoggerStats() map[string]LoggerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]LoggerStats, len(s.perLogger))
	for name, st := range s.perLogger {
		levels := make(map[string]int64, len(st.Levels))
		for lvl, n := range st.Levels {
			levels[lvl] = n
		}
		out[name] = LoggerStats{Count: st.Count, Levels: levels}
	}
	return out
}

// SearchLogs scans retained entries newest-first for a case-insensitive
// substring of the message, stopping as soon as limit matches are found.
func (s *Service) SearchLogs(query string, limit int) []*Entry {
	if query == "" {
		return nil
	}
	if limit <= 0 {
		limit = 100
	}
	needle := strings.ToLower(query)

	snapshot := s.snapshot(s.entries)
	sortNewestFirst(snapshot)

	matches := make([]*Entry, 0, limit)
	for _, e := range snapshot {
		if strings.Contains(strings.ToLower(e.Message), needle) {
			matches = append(matches, e)
			if len(matches) >= limit {
				break
			}
		}
	}
	return matches
}

// CleanupOldLogs deletes rotated log files older than the configured
// retention and reports how many were removed. In-memory buffers are
// bounded by count, not age, and are untouched.
func (s *Service) CleanupOldLogs() (int, error) {
	if s.files == nil {
		return 0, nil
	}
	days := s.cfg.RetentionDays
	if days <= 0 {
		days = DefaultConfig().RetentionDays
	}
	removed, err := s.files.RemoveOlderThan(s.now().AddDate(0, 0, -days))
	if removed > 0 {
		s.logger.Info("Rotated log files removed", zap.Int("count", removed))
	}
	return removed, err
}

// Close flushes and closes the current log file, if any.
func (s *Service) Close() error {
	if s.files == nil {
		return nil
	}
	return s.files.Close()
}

const exportMessageLimit = 200

// ExportLogs serializes matching entries as "json" (full records) or "csv"
// (flat columns, messages truncated to 200 characters).
func (s *Service) ExportLogs(format string, q Query) ([]byte, error) {
	entries := s.GetRecentLogs(q)

	switch strings.ToLower(format) {
	case "json":
		return sonic.Marshal(entries)
	case "csv":
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		_ = w.Write([]string{"timestamp", "level", "logger", "message", "module", "function", "line"})
		for _, e := range entries {
			msg := truncateRunes(e.Message, exportMessageLimit)
			_ = w.Write([]string{
				e.Timestamp.UTC().Format(time.RFC3339Nano),
				e.Level,
				e.LoggerName,
				msg,
				e.Module,
				e.Function,
				strconv.Itoa(e.LineNumber),
			})
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unsupported export format %q", format)
	}
}

// snapshot copies a buffer's contents under the read lock.
func (s *Service) snapshot(b *ring.Buffer[*Entry]) []*Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return b.Snapshot()
}

func sortNewestFirst(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.After(entries[j].Timestamp)
	})
}
