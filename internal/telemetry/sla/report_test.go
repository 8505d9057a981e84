package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComplianceReportScenario(t *testing.T) {
	svc := newTestService(DefaultConfig())

	for i := 0; i < 3; i++ {
		require.True(t, svc.RecordMeasurement("meal_generation_success", 0.0, nil))
	}
	for i := 0; i < 7; i++ {
		require.True(t, svc.RecordMeasurement("meal_generation_success", 100.0, nil))
	}

	rep := svc.GetComplianceReport("meal_generation_success", 1)
	require.NotNil(t, rep)
	assert.Equal(t, 10, rep.TotalMeasurements)
	assert.Equal(t, 7, rep.CompliantMeasurements)
	assert.InDelta(t, 70.0, rep.CompliancePercentage, 1e-9)
	assert.InDelta(t, 0.0, rep.MinValue, 1e-9)
	assert.InDelta(t, 100.0, rep.MaxValue, 1e-9)
	assert.InDelta(t, 70.0, rep.AvgValue, 1e-9)

	// Report status runs the compliance percentage itself through the
	// target thresholds: 70 < critical threshold 85 for a >= 95 target.
	assert.Equal(t, StatusCritical, rep.Status)

	assert.Len(t, rep.Breaches, 3)
	assert.Nil(t, rep.UptimePercentage, "uptime only derives for availability targets")
}

func TestComplianceReportCached(t *testing.T) {
	svc := newTestService(DefaultConfig())
	require.True(t, svc.RecordMeasurement("api_response_time", 200, nil))

	first := svc.GetComplianceReport("api_response_time", 1)
	require.NotNil(t, first)

	second := svc.GetComplianceReport("api_response_time", 1)
	assert.Same(t, first, second, "repeat call within TTL returns the cached report")

	other := svc.GetComplianceReport("api_response_time", 2)
	require.NotNil(t, other)
	assert.NotSame(t, first, other, "cache is keyed by window too")
}

func TestComplianceReportInvalidatedByNewMeasurement(t *testing.T) {
	svc := newTestService(DefaultConfig())
	require.True(t, svc.RecordMeasurement("api_response_time", 200, nil))

	first := svc.GetComplianceReport("api_response_time", 1)
	require.NotNil(t, first)
	assert.Equal(t, 1, first.TotalMeasurements)

	require.True(t, svc.RecordMeasurement("api_response_time", 300, nil))

	second := svc.GetComplianceReport("api_response_time", 1)
	require.NotNil(t, second)
	assert.Equal(t, 2, second.TotalMeasurements, "recording invalidates the cached report")
}

// A measurement landing between the report's buffer snapshot and the cache
// write must keep the report out of the cache, or the stale aggregate would
// survive its own invalidation for the full TTL. The clock hook fires the
// measurement at exactly that point.
func TestReportComputedOverStaleSnapshotIsNotCached(t *testing.T) {
	svc := newTestService(DefaultConfig())
	require.True(t, svc.RecordMeasurement("api_response_time", 200, nil))

	fired := false
	svc.now = func() time.Time {
		if !fired {
			fired = true
			require.True(t, svc.RecordMeasurement("api_response_time", 300, nil))
		}
		return testBase
	}

	stale := svc.GetComplianceReport("api_response_time", 1)
	require.NotNil(t, stale)
	assert.Equal(t, 1, stale.TotalMeasurements, "snapshot predates the concurrent measurement")

	fresh := svc.GetComplianceReport("api_response_time", 1)
	require.NotNil(t, fresh)
	assert.Equal(t, 2, fresh.TotalMeasurements, "the stale report must not outlive its invalidation")
}

func TestComplianceReportMisses(t *testing.T) {
	svc := newTestService(DefaultConfig())

	assert.Nil(t, svc.GetComplianceReport("unknown", 1))
	assert.Nil(t, svc.GetComplianceReport("api_response_time", 1), "no measurements in window")

	// A measurement outside the window does not count.
	svc.now = func() time.Time { return testBase.Add(-3 * time.Hour) }
	require.True(t, svc.RecordMeasurement("api_response_time", 200, nil))
	svc.now = func() time.Time { return testBase }
	assert.Nil(t, svc.GetComplianceReport("api_response_time", 1))
}

func TestAvailabilityReportDerivesUptime(t *testing.T) {
	svc := newTestService(DefaultConfig())

	require.True(t, svc.RecordMeasurement("system_availability", 100, nil))
	require.True(t, svc.RecordMeasurement("system_availability", 100, nil))
	require.True(t, svc.RecordMeasurement("system_availability", 90, nil))
	require.True(t, svc.RecordMeasurement("system_availability", 100, nil))

	rep := svc.GetComplianceReport("system_availability", 2)
	require.NotNil(t, rep)
	assert.InDelta(t, 75.0, rep.CompliancePercentage, 1e-9)

	require.NotNil(t, rep.UptimePercentage)
	assert.InDelta(t, 75.0, *rep.UptimePercentage, 1e-9)

	require.NotNil(t, rep.DowntimeMinutes)
	assert.InDelta(t, 30.0, *rep.DowntimeMinutes, 1e-9, "(100-75)/100 * 2h * 60min")
}

func TestGetAllComplianceReportsSkipsEmpty(t *testing.T) {
	svc := newTestService(DefaultConfig())

	require.True(t, svc.RecordMeasurement("api_response_time", 200, nil))
	require.True(t, svc.RecordMeasurement("error_rate", 0.5, nil))

	reports := svc.GetAllComplianceReports(1)
	assert.Len(t, reports, 2, "targets without data produce no report")
	assert.Contains(t, reports, "api_response_time")
	assert.Contains(t, reports, "error_rate")
}

func TestDashboardRollup(t *testing.T) {
	svc := newTestService(DefaultConfig())

	// performance category: healthy
	require.True(t, svc.RecordMeasurement("api_response_time", 200, nil))
	// reliability category: the sample is critical and compliance is 0,
	// but the error_rate report still classifies healthy because 0% run
	// through a <= 1.0 target satisfies the comparison.
	require.True(t, svc.RecordMeasurement("error_rate", 10, nil))

	d := svc.GetDashboardData()
	require.NotNil(t, d)

	assert.Equal(t, 6, d.TargetCount)
	assert.Len(t, d.Reports, 2)
	assert.Equal(t, 2, d.StatusCounts[StatusHealthy])
	assert.InDelta(t, 50.0, d.AverageCompliance, 1e-9)

	require.Contains(t, d.Categories, "performance")
	assert.Equal(t, 1, d.Categories["performance"].Targets)
	assert.InDelta(t, 100, d.Categories["performance"].AverageCompliance, 1e-9)
	assert.InDelta(t, 100, d.Categories["performance"].HealthyRate, 1e-9)

	require.Contains(t, d.Categories, "reliability")
	assert.InDelta(t, 0, d.Categories["reliability"].AverageCompliance, 1e-9)

	require.NotEmpty(t, d.RecentAlerts)
	assert.Equal(t, "error_rate", d.RecentAlerts[0].TargetName)
}

func TestDashboardWorstOfOrdering(t *testing.T) {
	svc := newTestService(Config{SeedDefaults: false})

	gte := &Target{
		Name:              "strict_availability",
		MetricType:        MetricAvailability,
		TargetValue:       99.9,
		Comparison:        CompareGTE,
		AlertThreshold:    99.5,
		CriticalThreshold: 99.0,
	}
	require.NoError(t, svc.AddTarget(gte))
	require.True(t, svc.RecordMeasurement("strict_availability", 98.0, nil)) // critical sample, compliance 0 -> critical report

	loose := &Target{
		Name:              "loose_availability",
		MetricType:        MetricAvailability,
		TargetValue:       99.9,
		Comparison:        CompareGTE,
		AlertThreshold:    -1,
		CriticalThreshold: -2,
	}
	require.NoError(t, svc.AddTarget(loose))
	require.True(t, svc.RecordMeasurement("loose_availability", 99.0, nil)) // compliance 0, above both tiers -> breached report

	d := svc.GetDashboardData()
	assert.Equal(t, StatusBreached, d.OverallStatus, "breached outranks critical in the rollup")
}

func TestDashboardEmpty(t *testing.T) {
	svc := newTestService(Config{SeedDefaults: false})

	d := svc.GetDashboardData()
	require.NotNil(t, d)
	assert.Equal(t, StatusHealthy, d.OverallStatus)
	assert.Zero(t, d.TargetCount)
	assert.Empty(t, d.Reports)
	assert.Empty(t, d.RecentAlerts)
}

func TestExportAllTargets(t *testing.T) {
	svc := newTestService(DefaultConfig())
	require.True(t, svc.RecordMeasurement("api_response_time", 1200, nil))

	dump := svc.Export("", 1)
	require.NotNil(t, dump)
	assert.Len(t, dump.Targets, 6)
	assert.Len(t, dump.Measurements["api_response_time"], 1)
	assert.Len(t, dump.Breaches["api_response_time"], 1)
	assert.Contains(t, dump.Reports, "api_response_time")
	assert.NotContains(t, dump.Reports, "error_rate", "no data, no report")

	assert.Nil(t, svc.Export("unknown", 1))
}
