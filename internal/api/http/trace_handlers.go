package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/platewise/telemetry/internal/telemetry/tracing"
)

// GetTraces lists finished traces, filtered by query parameters.
func (h *Handlers) GetTraces(c *gin.Context) {
	q := tracing.TraceQuery{
		Limit:         intQuery(c, "limit", 50),
		Service:       c.Query("service"),
		Operation:     c.Query("operation"),
		Status:        tracing.Status(c.Query("status")),
		MinDurationMS: floatQuery(c, "min_duration_ms", 0),
	}

	traces := h.tracer.GetTraces(q)
	c.JSON(http.StatusOK, gin.H{
		"traces": traces,
		"count":  len(traces),
	})
}

// GetTrace returns one trace, active or finished.
func (h *Handlers) GetTrace(c *gin.Context) {
	trace := h.tracer.GetTrace(c.Param("id"))
	if trace == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "trace not found"})
		return
	}
	c.JSON(http.StatusOK, trace)
}

// GetOperationStats returns the per-operation timing aggregates.
func (h *Handlers) GetOperationStats(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"operations": h.tracer.GetOperationStats(),
	})
}

// GetTraceSummary returns global trace counters and duration percentiles.
func (h *Handlers) GetTraceSummary(c *gin.Context) {
	c.JSON(http.StatusOK, h.tracer.GetTraceSummary())
}
