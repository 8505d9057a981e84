package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/platewise/telemetry/internal/shared/types"
	"github.com/platewise/telemetry/internal/telemetry/logs"
)

// logQuery builds a logs.Query from common query parameters.
func logQuery(c *gin.Context) logs.Query {
	q := logs.Query{
		Level:   c.Query("level"),
		Logger:  c.Query("logger"),
		UserID:  c.Query("user_id"),
		TraceID: c.Query("trace_id"),
		Limit:   intQuery(c, "limit", 100),
	}
	if hours := intQuery(c, "since_hours", 0); hours > 0 {
		q.Since = time.Now().Add(-time.Duration(hours) * time.Hour)
	}
	return q
}

// GetLogs returns recent log entries, newest first.
func (h *Handlers) GetLogs(c *gin.Context) {
	entries := h.logs.GetRecentLogs(logQuery(c))
	c.JSON(http.StatusOK, gin.H{
		"logs":  entries,
		"count": len(entries),
	})
}

// SearchLogs performs a case-insensitive message substring search.
func (h *Handlers) SearchLogs(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter 'q' is required"})
		return
	}

	entries := h.logs.SearchLogs(query, intQuery(c, "limit", 100))
	c.JSON(http.StatusOK, gin.H{
		"query":   query,
		"results": entries,
		"count":   len(entries),
	})
}

// GetErrorSummary returns windowed error aggregates.
func (h *Handlers) GetErrorSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.logs.GetErrorSummary(intQuery(c, "hours", 24)))
}

// GetLoggerStats returns cumulative per-logger counts.
func (h *Handlers) GetLoggerStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"loggers": h.logs.GetLoggerStats(),
	})
}

// AnalyzeLogPatterns returns hourly/level/module activity breakdowns.
func (h *Handlers) AnalyzeLogPatterns(c *gin.Context) {
	c.JSON(http.StatusOK, h.logs.AnalyzePatterns(intQuery(c, "hours", 24)))
}

// ExportLogs streams filtered entries as JSON or CSV.
func (h *Handlers) ExportLogs(c *gin.Context) {
	format := strings.ToLower(c.DefaultQuery("format", "json"))

	data, err := h.logs.ExportLogs(format, logQuery(c))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	contentType := "application/json"
	filename := "logs.json"
	if format == "csv" {
		contentType = "text/csv"
		filename = "logs.csv"
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, contentType, data)
}

// ClientLogEntry represents a log entry pushed by an application client.
type ClientLogEntry struct {
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Logger    string                 `json:"logger"`
	Context   map[string]interface{} `json:"context"`
	Timestamp float64                `json:"timestamp"` // epoch seconds, optional
}

// LogStreamRequest represents a batch of client log entries.
type LogStreamRequest struct {
	Source  string           `json:"source"`
	Entries []ClientLogEntry `json:"entries"`
}

// StreamLogs ingests a batch of log entries from an application client
// (frontend, worker) into the aggregator.
func (h *Handlers) StreamLogs(c *gin.Context) {
	var req LogStreamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid log request format"})
		return
	}

	if req.Source == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Log source is required"})
		return
	}
	if len(req.Entries) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No log entries provided"})
		return
	}

	processed := 0
	for _, entry := range req.Entries {
		if entry.Message == "" {
			h.logger.Warn("Dropped empty client log entry", zap.String("source", req.Source))
			continue
		}
		h.logs.AddEntry(clientEntry(req.Source, entry))
		processed++
	}

	c.JSON(http.StatusOK, gin.H{
		"success":           true,
		"entries_received":  len(req.Entries),
		"entries_processed": processed,
		"timestamp":         time.Now().Unix(),
	})
}

// clientEntry converts a pushed client record into an aggregator entry.
// The logger name is namespaced under the declared source so client logs
// stay distinguishable from server-side ones.
func clientEntry(source string, in ClientLogEntry) *logs.Entry {
	e := &logs.Entry{
		Level:       in.Level,
		Message:     in.Message,
		LoggerName:  source,
		ExtraFields: types.FromMap(in.Context),
	}
	if in.Logger != "" {
		e.LoggerName = source + "." + in.Logger
	}
	if in.Timestamp > 0 {
		sec := int64(in.Timestamp)
		nsec := int64((in.Timestamp - float64(sec)) * 1e9)
		e.Timestamp = time.Unix(sec, nsec).UTC()
	}
	if uid, ok := in.Context["user_id"].(string); ok {
		e.UserID = uid
	}
	if tid, ok := in.Context["trace_id"].(string); ok {
		e.TraceID = tid
	}
	return e
}
