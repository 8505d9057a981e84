package sla

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/platewise/telemetry/internal/shared/types"
)

// MetricType categorizes what a target measures.
type MetricType string

const (
	MetricAvailability MetricType = "availability"
	MetricResponseTime MetricType = "response_time"
	MetricErrorRate    MetricType = "error_rate"
	MetricThroughput   MetricType = "throughput"
	MetricCustom       MetricType = "custom"
)

// Comparison is the operator applied to (value, target_value).
type Comparison string

const (
	CompareGTE Comparison = ">="
	CompareLTE Comparison = "<="
	CompareEQ  Comparison = "=="
	CompareGT  Comparison = ">"
	CompareLT  Comparison = "<"
)

// Status is a measurement (or report) classification bucket.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusWarning  Status = "warning"
	StatusBreached Status = "breached"
	StatusCritical Status = "critical"
)

// equalityTolerance is the slack allowed before an "==" target counts as
// missed.
const equalityTolerance = 0.01

var (
	ErrInvalidComparison = errors.New("invalid comparison operator")
	ErrInvalidMetricType = errors.New("invalid metric type")
	ErrEmptyName         = errors.New("target name is required")
)

// Target is a named service-level objective: a metric, a comparison
// against a target value, and warning/critical threshold tiers in the
// same unit.
type Target struct {
	Name              string           `json:"name"`
	Description       string           `json:"description"`
	MetricType        MetricType       `json:"metric_type"`
	TargetValue       float64          `json:"target_value"`
	Comparison        Comparison       `json:"comparison"`
	TimeWindowMinutes int              `json:"time_window_minutes"`
	AlertThreshold    float64          `json:"alert_threshold"`
	CriticalThreshold float64          `json:"critical_threshold"`
	Tags              types.Attributes `json:"tags"`
}

// Validate rejects targets whose operator or metric type is outside the
// known sets.
func (t *Target) Validate() error {
	if t.Name == "" {
		return ErrEmptyName
	}
	switch t.Comparison {
	case CompareGTE, CompareLTE, CompareEQ, CompareGT, CompareLT:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidComparison, t.Comparison)
	}
	switch t.MetricType {
	case MetricAvailability, MetricResponseTime, MetricErrorRate, MetricThroughput, MetricCustom:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidMetricType, t.MetricType)
	}
	if t.Tags == nil {
		t.Tags = types.Attributes{}
	}
	return nil
}

// meets reports whether value satisfies the target's comparison.
func (t *Target) meets(value float64) bool {
	switch t.Comparison {
	case CompareGTE:
		return value >= t.TargetValue
	case CompareLTE:
		return value <= t.TargetValue
	case CompareGT:
		return value > t.TargetValue
	case CompareLT:
		return value < t.TargetValue
	case CompareEQ:
		return math.Abs(value-t.TargetValue) < equalityTolerance
	default:
		return false
	}
}

// beyond reports whether value has crossed a threshold tier, applying the
// target's comparison direction: for ">="-style targets lower is worse,
// for "<="-style targets higher is worse, and "==" targets measure the
// absolute deviation from the target value.
func (t *Target) beyond(value, threshold float64) bool {
	switch t.Comparison {
	case CompareGTE, CompareGT:
		return value < threshold
	case CompareLTE, CompareLT:
		return value > threshold
	case CompareEQ:
		return math.Abs(value-t.TargetValue) > threshold
	default:
		return false
	}
}

// classify runs the per-measurement state machine. The branch order is
// load-bearing: a missed target outside both threshold tiers falls through
// to breached even when a numerically worse value would land in warning.
// Existing consumers depend on exactly this bucketing.
func (t *Target) classify(value float64) Status {
	if t.meets(value) {
		return StatusHealthy
	}
	if t.beyond(value, t.CriticalThreshold) {
		return StatusCritical
	}
	if t.beyond(value, t.AlertThreshold) {
		return StatusWarning
	}
	return StatusBreached
}

// breachPercentage normalizes the deviation from the target value to a
// percentage. Directional comparisons clamp to [0,100]; "==" reports the
// raw relative deviation capped at 100.
func (t *Target) breachPercentage(value float64) float64 {
	if t.TargetValue == 0 {
		return 100
	}
	var pct float64
	switch t.Comparison {
	case CompareEQ:
		pct = math.Abs(value-t.TargetValue) / math.Abs(t.TargetValue) * 100
		return math.Min(pct, 100)
	case CompareGTE, CompareGT:
		pct = (t.TargetValue - value) / t.TargetValue * 100
	default:
		pct = (value - t.TargetValue) / t.TargetValue * 100
	}
	return math.Min(math.Max(pct, 0), 100)
}

// Measurement is one timestamped sample recorded against a target.
type Measurement struct {
	Timestamp  time.Time        `json:"timestamp"`
	TargetName string           `json:"target_name"`
	Value      float64          `json:"value"`
	Status     Status           `json:"status"`
	Metadata   types.Attributes `json:"metadata"`
}

// Breach records a measurement that classified critical or breached,
// with the target context frozen at recording time.
type Breach struct {
	Timestamp   time.Time  `json:"timestamp"`
	TargetName  string     `json:"target_name"`
	Value       float64    `json:"value"`
	TargetValue float64    `json:"target_value"`
	Comparison  Comparison `json:"comparison"`
	Status      Status     `json:"status"`
}

// Alert is the notification-facing record derived from a breach.
type Alert struct {
	ID               string    `json:"id"`
	Timestamp        time.Time `json:"timestamp"`
	TargetName       string    `json:"target_name"`
	Severity         Status    `json:"severity"`
	Value            float64   `json:"value"`
	BreachPercentage float64   `json:"breach_percentage"`
	Message          string    `json:"message"`
}

// DefaultTargets returns the six objectives seeded at construction. The
// thresholds match the values the dashboards were calibrated against.
func DefaultTargets() []*Target {
	return []*Target{
		{
			Name:              "system_availability",
			Description:       "Overall system uptime",
			MetricType:        MetricAvailability,
			TargetValue:       99.9,
			Comparison:        CompareGTE,
			TimeWindowMinutes: 60,
			AlertThreshold:    99.5,
			CriticalThreshold: 99.0,
			Tags:              types.Attributes{"category": types.String("infrastructure")},
		},
		{
			Name:              "api_response_time",
			Description:       "API endpoint response time in milliseconds",
			MetricType:        MetricResponseTime,
			TargetValue:       500,
			Comparison:        CompareLTE,
			TimeWindowMinutes: 15,
			AlertThreshold:    750,
			CriticalThreshold: 1000,
			Tags:              types.Attributes{"category": types.String("performance")},
		},
		{
			Name:              "error_rate",
			Description:       "Percentage of requests resulting in errors",
			MetricType:        MetricErrorRate,
			TargetValue:       1.0,
			Comparison:        CompareLTE,
			TimeWindowMinutes: 30,
			AlertThreshold:    2.0,
			CriticalThreshold: 5.0,
			Tags:              types.Attributes{"category": types.String("reliability")},
		},
		{
			Name:              "meal_generation_success",
			Description:       "Meal plan generation success rate",
			MetricType:        MetricCustom,
			TargetValue:       95.0,
			Comparison:        CompareGTE,
			TimeWindowMinutes: 60,
			AlertThreshold:    90.0,
			CriticalThreshold: 85.0,
			Tags:              types.Attributes{"category": types.String("business")},
		},
		{
			Name:              "user_registration_time",
			Description:       "Time to complete user registration in milliseconds",
			MetricType:        MetricResponseTime,
			TargetValue:       3000,
			Comparison:        CompareLTE,
			TimeWindowMinutes: 30,
			AlertThreshold:    5000,
			CriticalThreshold: 8000,
			Tags:              types.Attributes{"category": types.String("performance")},
		},
		{
			Name:              "payment_processing_success",
			Description:       "Payment processing success rate",
			MetricType:        MetricCustom,
			TargetValue:       99.5,
			Comparison:        CompareGTE,
			TimeWindowMinutes: 60,
			AlertThreshold:    99.0,
			CriticalThreshold: 98.0,
			Tags:              types.Attributes{"category": types.String("business")},
		},
	}
}
