package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/platewise/telemetry/internal/shared/types"
	"github.com/platewise/telemetry/internal/telemetry/sla"
)

// GetSLATargets lists all objective definitions.
func (h *Handlers) GetSLATargets(c *gin.Context) {
	targets := h.sla.GetTargets()
	c.JSON(http.StatusOK, gin.H{
		"targets": targets,
		"count":   len(targets),
	})
}

// SLATargetRequest is the create-target payload.
type SLATargetRequest struct {
	Name              string                 `json:"name"`
	Description       string                 `json:"description"`
	MetricType        string                 `json:"metric_type"`
	TargetValue       float64                `json:"target_value"`
	Comparison        string                 `json:"comparison"`
	TimeWindowMinutes int                    `json:"time_window_minutes"`
	AlertThreshold    float64                `json:"alert_threshold"`
	CriticalThreshold float64                `json:"critical_threshold"`
	Tags              map[string]interface{} `json:"tags"`
}

// CreateSLATarget registers a new objective.
func (h *Handlers) CreateSLATarget(c *gin.Context) {
	var req SLATargetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid target format"})
		return
	}

	target := &sla.Target{
		Name:              req.Name,
		Description:       req.Description,
		MetricType:        sla.MetricType(req.MetricType),
		TargetValue:       req.TargetValue,
		Comparison:        sla.Comparison(req.Comparison),
		TimeWindowMinutes: req.TimeWindowMinutes,
		AlertThreshold:    req.AlertThreshold,
		CriticalThreshold: req.CriticalThreshold,
		Tags:              types.FromMap(req.Tags),
	}
	if err := h.sla.AddTarget(target); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"target":  target,
	})
}

// DeleteSLATarget removes an objective and its buffers.
func (h *Handlers) DeleteSLATarget(c *gin.Context) {
	name := c.Param("name")
	if !h.sla.RemoveTarget(name) {
		c.JSON(http.StatusNotFound, gin.H{"error": "target not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SLAMeasurementRequest is the record-measurement payload.
type SLAMeasurementRequest struct {
	TargetName string                 `json:"target_name"`
	Value      float64                `json:"value"`
	Metadata   map[string]interface{} `json:"metadata"`
}

// RecordSLAMeasurement records one sample against a target.
func (h *Handlers) RecordSLAMeasurement(c *gin.Context) {
	var req SLAMeasurementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid measurement format"})
		return
	}

	if !h.sla.RecordMeasurement(req.TargetName, req.Value, types.FromMap(req.Metadata)) {
		c.JSON(http.StatusNotFound, gin.H{"error": "target not found"})
		return
	}

	h.logger.Debug("Measurement recorded via API",
		zap.String("target", req.TargetName),
		zap.Float64("value", req.Value))
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// GetSLAReport returns the compliance report for one target.
func (h *Handlers) GetSLAReport(c *gin.Context) {
	rep := h.sla.GetComplianceReport(c.Param("name"), intQuery(c, "hours", 24))
	if rep == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no report available"})
		return
	}
	c.JSON(http.StatusOK, rep)
}

// GetSLAReports returns reports for every target with data in the window.
func (h *Handlers) GetSLAReports(c *gin.Context) {
	reports := h.sla.GetAllComplianceReports(intQuery(c, "hours", 24))
	c.JSON(http.StatusOK, gin.H{
		"reports": reports,
		"count":   len(reports),
	})
}

// GetSLADashboard returns the aggregate health rollup.
func (h *Handlers) GetSLADashboard(c *gin.Context) {
	c.JSON(http.StatusOK, h.sla.GetDashboardData())
}

// ExportSLAData dumps definitions, measurements, breaches, and reports.
func (h *Handlers) ExportSLAData(c *gin.Context) {
	dump := h.sla.Export(c.Query("target"), intQuery(c, "hours", 24))
	if dump == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "target not found"})
		return
	}
	c.JSON(http.StatusOK, dump)
}
