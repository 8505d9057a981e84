package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/platewise/telemetry/internal/infrastructure/monitoring"
	"github.com/platewise/telemetry/internal/logging"
	"github.com/platewise/telemetry/internal/telemetry/logs"
	"github.com/platewise/telemetry/internal/telemetry/sla"
	"github.com/platewise/telemetry/internal/telemetry/tracing"
)

// Handlers bundles the query and ingest endpoints over the three
// telemetry services.
type Handlers struct {
	tracer  *tracing.Service
	logs    *logs.Service
	sla     *sla.Service
	metrics *monitoring.Metrics
	logger  *logging.Logger

	// instanceID distinguishes this process in health responses when
	// several replicas sit behind one load balancer.
	instanceID string
}

// NewHandlers creates the handler set.
func NewHandlers(
	tracer *tracing.Service,
	logsSvc *logs.Service,
	slaSvc *sla.Service,
	metrics *monitoring.Metrics,
	logger *logging.Logger,
) *Handlers {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handlers{
		tracer:     tracer,
		logs:       logsSvc,
		sla:        slaSvc,
		metrics:    metrics,
		logger:     logger,
		instanceID: uuid.New().String(),
	}
}

// Health reports service liveness and uptime.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"service":        "telemetry",
		"instance_id":    h.instanceID,
		"uptime_seconds": h.metrics.GetUptimeSeconds(),
	})
}

// intQuery parses an integer query parameter, falling back on absence or
// garbage.
func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

// floatQuery parses a float query parameter.
func floatQuery(c *gin.Context, name string, fallback float64) float64 {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}
