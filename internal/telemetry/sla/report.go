package sla

import (
	"time"
)

// Report is a computed compliance aggregate over one target's
// measurements within a time window. Reports are cached for the
// configured TTL keyed by (target, hours).
type Report struct {
	TargetName            string    `json:"target_name"`
	Description           string    `json:"description"`
	WindowHours           int       `json:"window_hours"`
	TotalMeasurements     int       `json:"total_measurements"`
	CompliantMeasurements int       `json:"compliant_measurements"`
	CompliancePercentage  float64   `json:"compliance_percentage"`
	MinValue              float64   `json:"min_value"`
	AvgValue              float64   `json:"avg_value"`
	MaxValue              float64   `json:"max_value"`
	Status                Status    `json:"status"`
	Breaches              []*Breach `json:"breaches"`
	GeneratedAt           time.Time `json:"generated_at"`

	// Set only for availability-type targets.
	UptimePercentage *float64 `json:"uptime_percentage,omitempty"`
	DowntimeMinutes  *float64 `json:"downtime_minutes,omitempty"`
}

// GetComplianceReport computes (or returns a cached) compliance report for
// one target over the trailing window. Returns nil when the target is
// unknown or has no measurements in the window.
//
// The report status runs the compliance percentage itself through the
// target's classification thresholds. The threshold fields serve two
// scales here, raw metric and percentage; dashboards were built on this
// behavior.
func (s *Service) GetComplianceReport(targetName string, hours int) *Report {
	if hours <= 0 {
		hours = 24
	}

	key := reportCacheKey(targetName, hours)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if rep, ok := cached.(*Report); ok {
				s.metrics.RecordReportCache(true)
				return rep
			}
		}
	}

	s.mu.RLock()
	t, ok := s.targets[targetName]
	if !ok {
		s.mu.RUnlock()
		return nil
	}
	gen := s.reportGen[targetName]
	measurements := s.measurements[targetName].Snapshot()
	breaches := s.breaches[targetName].Snapshot()
	s.mu.RUnlock()

	cutoff := s.now().Add(-time.Duration(hours) * time.Hour)

	windowed := measurements[:0]
	for _, m := range measurements {
		if !m.Timestamp.Before(cutoff) {
			windowed = append(windowed, m)
		}
	}
	if len(windowed) == 0 {
		return nil
	}

	compliant := 0
	minV, maxV, sum := windowed[0].Value, windowed[0].Value, 0.0
	for _, m := range windowed {
		if m.Status == StatusHealthy {
			compliant++
		}
		if m.Value < minV {
			minV = m.Value
		}
		if m.Value > maxV {
			maxV = m.Value
		}
		sum += m.Value
	}
	pct := float64(compliant) / float64(len(windowed)) * 100

	inWindow := breaches[:0]
	for _, b := range breaches {
		if !b.Timestamp.Before(cutoff) {
			inWindow = append(inWindow, b)
		}
	}

	rep := &Report{
		TargetName:            targetName,
		Description:           t.Description,
		WindowHours:           hours,
		TotalMeasurements:     len(windowed),
		CompliantMeasurements: compliant,
		CompliancePercentage:  pct,
		MinValue:              minV,
		AvgValue:              sum / float64(len(windowed)),
		MaxValue:              maxV,
		Status:                t.classify(pct),
		Breaches:              inWindow,
		GeneratedAt:           s.now(),
	}
	if t.MetricType == MetricAvailability {
		uptime := pct
		downtime := (100 - pct) / 100 * float64(hours) * 60
		rep.UptimePercentage = &uptime
		rep.DowntimeMinutes = &downtime
	}

	if s.cache != nil {
		// A measurement recorded since the snapshot has already invalidated
		// this window; caching the stale report would outlive that
		// invalidation for the full TTL.
		s.mu.Lock()
		if s.reportGen[targetName] == gen {
			s.cache.SetWithTTL(key, rep, 1, s.cfg.ReportCacheTTL)
			s.cache.Wait()
			if s.cacheKeys[targetName] == nil {
				s.cacheKeys[targetName] = make(map[string]struct{})
			}
			s.cacheKeys[targetName][key] = struct{}{}
		}
		s.mu.Unlock()
	}
	s.metrics.RecordReportCache(false)
	return rep
}

// GetAllComplianceReports returns a report for every target that has
// measurements in the window, keyed by target name.
func (s *Service) GetAllComplianceReports(hours int) map[string]*Report {
	s.mu.RLock()
	names := make([]string, 0, len(s.targets))
	for name := range s.targets {
		names = append(names, name)
	}
	s.mu.RUnlock()

	out := make(map[string]*Report, len(names))
	for _, name := range names {
		if rep := s.GetComplianceReport(name, hours); rep != nil {
			out[name] = rep
		}
	}
	return out
}

// CategorySummary rolls reports up by the targets' "category" tag.
type CategorySummary struct {
	Targets           int     `json:"targets"`
	AverageCompliance float64 `json:"average_compliance"`
	HealthyRate       float64 `json:"healthy_rate"`
}

// Dashboard is the aggregate health view over all targets.
type Dashboard struct {
	OverallStatus     Status                     `json:"overall_status"`
	AverageCompliance float64                    `json:"average_compliance"`
	StatusCounts      map[Status]int             `json:"status_counts"`
	Reports           map[string]*Report         `json:"reports"`
	RecentAlerts      []*Alert                   `json:"recent_alerts"`
	Categories        map[string]CategorySummary `json:"categories"`
	TargetCount       int                        `json:"target_count"`
	GeneratedAt       time.Time                  `json:"generated_at"`
}

const dashboardWindowHours = 24
const dashboardAlertLimit = 50

// statusRank orders statuses for the worst-of rollup. Breached outranks
// critical here, matching how the dashboard has always sorted its banner.
func statusRank(st Status) int {
	switch st {
	case StatusBreached:
		return 3
	case StatusCritical:
		return 2
	case StatusWarning:
		return 1
	default:
		return 0
	}
}

// GetDashboardData aggregates all targets' reports over the last 24 hours
// into a single health rollup with recent alerts and per-category
// averages.
func (s *Service) GetDashboardData() *Dashboard {
	reports := s.GetAllComplianceReports(dashboardWindowHours)

	d := &Dashboard{
		OverallStatus: StatusHealthy,
		StatusCounts:  make(map[Status]int),
		Reports:       reports,
		RecentAlerts:  s.GetRecentAlerts(dashboardAlertLimit),
		Categories:    make(map[string]CategorySummary),
		GeneratedAt:   s.now(),
	}

	s.mu.RLock()
	d.TargetCount = len(s.targets)
	categoryOf := make(map[string]string, len(s.targets))
	for name, t := range s.targets {
		if cat := t.Tags["category"].Str(); cat != "" {
			categoryOf[name] = cat
		}
	}
	s.mu.RUnlock()

	if len(reports) == 0 {
		return d
	}

	type catAgg struct {
		targets, healthy int
		compliance       float64
	}
	byCategory := make(map[string]*catAgg)

	sum := 0.0
	for name, rep := range reports {
		sum += rep.CompliancePercentage
		d.StatusCounts[rep.Status]++
		if statusRank(rep.Status) > statusRank(d.OverallStatus) {
			d.OverallStatus = rep.Status
		}

		cat, ok := categoryOf[name]
		if !ok {
			continue
		}
		agg := byCategory[cat]
		if agg == nil {
			agg = &catAgg{}
			byCategory[cat] = agg
		}
		agg.targets++
		agg.compliance += rep.CompliancePercentage
		if rep.Status == StatusHealthy {
			agg.healthy++
		}
	}
	d.AverageCompliance = sum / float64(len(reports))

	for cat, agg := range byCategory {
		d.Categories[cat] = CategorySummary{
			Targets:           agg.targets,
			AverageCompliance: agg.compliance / float64(agg.targets),
			HealthyRate:       float64(agg.healthy) / float64(agg.targets) * 100,
		}
	}
	return d
}

// ExportData is the full dump produced by Export.
type ExportData struct {
	GeneratedAt  time.Time                 `json:"generated_at"`
	WindowHours  int                       `json:"window_hours"`
	Targets      []*Target                 `json:"targets"`
	Measurements map[string][]*Measurement `json:"measurements"`
	Breaches     map[string][]*Breach      `json:"breaches"`
	Reports      map[string]*Report        `json:"reports"`
}

// Export dumps target definitions, in-window measurements and breaches,
// and computed reports for one target (or all targets when name is
// empty). Returns nil for an unknown name.
func (s *Service) Export(targetName string, hours int) *ExportData {
	if hours <= 0 {
		hours = 24
	}

	s.mu.RLock()
	var targets []*Target
	if targetName != "" {
		t, ok := s.targets[targetName]
		if !ok {
			s.mu.RUnlock()
			return nil
		}
		targets = []*Target{t}
	} else {
		for _, t := range s.targets {
			targets = append(targets, t)
		}
	}
	snapshots := make(map[string][]*Measurement, len(targets))
	breachSnaps := make(map[string][]*Breach, len(targets))
	for _, t := range targets {
		snapshots[t.Name] = s.measurements[t.Name].Snapshot()
		breachSnaps[t.Name] = s.breaches[t.Name].Snapshot()
	}
	s.mu.RUnlock()

	cutoff := s.now().Add(-time.Duration(hours) * time.Hour)

	out := &ExportData{
		GeneratedAt:  s.now(),
		WindowHours:  hours,
		Targets:      targets,
		Measurements: make(map[string][]*Measurement, len(targets)),
		Breaches:     make(map[string][]*Breach, len(targets)),
		Reports:      make(map[string]*Report, len(targets)),
	}
	for _, t := range targets {
		ms := snapshots[t.Name]
		kept := ms[:0]
		for _, m := range ms {
			if !m.Timestamp.Before(cutoff) {
				kept = append(kept, m)
			}
		}
		out.Measurements[t.Name] = kept

		bs := breachSnaps[t.Name]
		keptB := bs[:0]
		for _, b := range bs {
			if !b.Timestamp.Before(cutoff) {
				keptB = append(keptB, b)
			}
		}
		out.Breaches[t.Name] = keptB

		if rep := s.GetComplianceReport(t.Name, hours); rep != nil {
			out.Reports[t.Name] = rep
		}
	}
	return out
}
