package sla

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"

	"github.com/platewise/telemetry/internal/infrastructure/monitoring"
	"github.com/platewise/telemetry/internal/shared/id"
	"github.com/platewise/telemetry/internal/shared/types"
	"github.com/platewise/telemetry/internal/telemetry/ring"
)

// Config bounds the per-target buffers and the report cache.
type Config struct {
	MaxMeasurementsPerTarget int
	MaxBreachesPerTarget     int
	MaxAlerts                int
	ReportCacheTTL           time.Duration
	SeedDefaults             bool
}

// DefaultConfig returns the production limits with default targets seeded.
func DefaultConfig() Config {
	return Config{
		MaxMeasurementsPerTarget: 10000,
		MaxBreachesPerTarget:     1000,
		MaxAlerts:                5000,
		ReportCacheTTL:           300 * time.Second,
		SeedDefaults:             true,
	}
}

// Service evaluates measurements against declared objectives, records
// breaches and alerts, and serves cached compliance reports.
//
// One coarse mutex guards the target map and buffers. Report computation
// snapshots under the read lock and aggregates outside it; the ristretto
// cache has its own internal synchronization.
type Service struct {
	mu sync.RWMutex

	cfg          Config
	targets      map[string]*Target
	measurements map[string]*ring.Buffer[*Measurement]
	breaches     map[string]*ring.Buffer[*Breach]
	alerts       *ring.Buffer[*Alert]

	cache     *ristretto.Cache
	cacheKeys map[string]map[string]struct{} // target name -> live report cache keys
	reportGen map[string]uint64              // bumped on every invalidation; guards late cache writes

	logger  *zap.Logger
	metrics *monitoring.Metrics

	now func() time.Time
}

// New constructs the service, seeding the default targets unless disabled.
// A report-cache construction failure degrades to uncached reports.
func New(cfg Config, logger *zap.Logger, metrics *monitoring.Metrics) *Service {
	def := DefaultConfig()
	if cfg.MaxMeasurementsPerTarget <= 0 {
		cfg.MaxMeasurementsPerTarget = def.MaxMeasurementsPerTarget
	}
	if cfg.MaxBreachesPerTarget <= 0 {
		cfg.MaxBreachesPerTarget = def.MaxBreachesPerTarget
	}
	if cfg.MaxAlerts <= 0 {
		cfg.MaxAlerts = def.MaxAlerts
	}
	if cfg.ReportCacheTTL <= 0 {
		cfg.ReportCacheTTL = def.ReportCacheTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Service{
		cfg:          cfg,
		targets:      make(map[string]*Target),
		measurements: make(map[string]*ring.Buffer[*Measurement]),
		breaches:     make(map[string]*ring.Buffer[*Breach]),
		alerts:       ring.New[*Alert](cfg.MaxAlerts),
		cacheKeys:    make(map[string]map[string]struct{}),
		reportGen:    make(map[string]uint64),
		logger:       logger,
		metrics:      metrics,
		now:          time.Now,
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     1000,
		BufferItems: 64,
	})
	if err != nil {
		logger.Error("Report cache unavailable, compliance reports will be recomputed", zap.Error(err))
	} else {
		s.cache = cache
	}

	if cfg.SeedDefaults {
		for _, t := range DefaultTargets() {
			if err := s.AddTarget(t); err != nil {
				logger.Error("Default target rejected", zap.String("target", t.Name), zap.Error(err))
			}
		}
	}
	return s
}

// AddTarget registers an objective, replacing any previous definition of
// the same name. Targets with unknown operators or metric types are
// rejected.
func (s *Service) AddTarget(t *Target) error {
	if t == nil {
		return ErrEmptyName
	}
	if err := t.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	s.targets[t.Name] = t
	if s.measurements[t.Name] == nil {
		s.measurements[t.Name] = ring.New[*Measurement](s.cfg.MaxMeasurementsPerTarget)
	}
	if s.breaches[t.Name] == nil {
		s.breaches[t.Name] = ring.New[*Breach](s.cfg.MaxBreachesPerTarget)
	}
	s.mu.Unlock()

	s.invalidateReports(t.Name)
	s.logger.Info("SLA target registered",
		zap.String("target", t.Name),
		zap.String("comparison", string(t.Comparison)),
		zap.Float64("target_value", t.TargetValue))
	return nil
}

// RemoveTarget drops a target along with its measurement and breach
// buffers. Returns false if the name is unknown.
func (s *Service) RemoveTarget(name string) bool {
	s.mu.Lock()
	_, ok := s.targets[name]
	if ok {
		delete(s.targets, name)
		delete(s.measurements, name)
		delete(s.breaches, name)
	}
	s.mu.Unlock()

	if ok {
		s.invalidateReports(name)
		s.logger.Info("SLA target removed", zap.String("target", name))
	}
	return ok
}

// GetTarget returns the named objective, or nil if unknown.
func (s *Service) GetTarget(name string) *Target {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.targets[name]
}

// GetTargets returns all objectives sorted by name.
func (s *Service) GetTargets() []*Target {
	s.mu.RLock()
	out := make([]*Target, 0, len(s.targets))
	for _, t := range s.targets {
		out = append(out, t)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// RecordMeasurement classifies one sample against the named target and
// appends it to the target's buffer. Critical and breached classifications
// additionally record a breach and derive an alert. Returns false when the
// target is unknown.
func (s *Service) RecordMeasurement(targetName string, value float64, metadata types.Attributes) bool {
	if metadata == nil {
		metadata = types.Attributes{}
	}

	s.mu.Lock()
	t, ok := s.targets[targetName]
	if !ok {
		s.mu.Unlock()
		return false
	}

	status := t.classify(value)
	m := &Measurement{
		Timestamp:  s.now(),
		TargetName: targetName,
		Value:      value,
		Status:     status,
		Metadata:   metadata,
	}
	s.measurements[targetName].Push(m)

	breached := status == StatusCritical || status == StatusBreached
	if breached {
		s.breaches[targetName].Push(&Breach{
			Timestamp:   m.Timestamp,
			TargetName:  targetName,
			Value:       value,
			TargetValue: t.TargetValue,
			Comparison:  t.Comparison,
			Status:      status,
		})
		pct := t.breachPercentage(value)
		s.alerts.Push(&Alert{
			ID:               id.NewAlertID().String(),
			Timestamp:        m.Timestamp,
			TargetName:       targetName,
			Severity:         status,
			Value:            value,
			BreachPercentage: pct,
			Message: fmt.Sprintf("SLA %s on %s: observed %.2f against target %s %.2f",
				status, targetName, value, t.Comparison, t.TargetValue),
		})
	}
	s.mu.Unlock()

	s.metrics.RecordMeasurement(targetName, string(status))
	if breached {
		s.metrics.RecordBreach(targetName)
		s.metrics.RecordAlert()
		s.logger.Warn("SLA breach recorded",
			zap.String("target", targetName),
			zap.String("status", string(status)),
			zap.Float64("value", value))
	}
	s.invalidateReports(targetName)
	return true
}

// GetRecentAlerts returns up to limit alerts, newest first.
func (s *Service) GetRecentAlerts(limit int) []*Alert {
	if limit <= 0 {
		limit = 50
	}

	s.mu.RLock()
	all := s.alerts.Snapshot()
	s.mu.RUnlock()

	// Buffer is append-ordered; reverse for newest-first.
	for i, j := 0, len(all)-1; i < j; i, j = i+1, j-1 {
		all[i], all[j] = all[j], all[i]
	}
	if len(all) > limit {
		all = all[:limit]
	}
	return all
}

// CleanupResult reports what an SLA retention sweep removed.
type CleanupResult struct {
	MeasurementsRemoved int `json:"measurements_removed"`
	BreachesRemoved     int `json:"breaches_removed"`
	AlertsRemoved       int `json:"alerts_removed"`
}

// CleanupOldData drops measurements, breaches, and alerts older than the
// cutoff and clears the report cache. Buffers are append-ordered by
// timestamp, so the trim is a head drop.
func (s *Service) CleanupOldData(days int) CleanupResult {
	if days <= 0 {
		days = 30
	}
	cutoff := s.now().AddDate(0, 0, -days)

	var res CleanupResult
	s.mu.Lock()
	for _, buf := range s.measurements {
		res.MeasurementsRemoved += buf.DropWhile(func(m *Measurement) bool {
			return m.Timestamp.Before(cutoff)
		})
	}
	for _, buf := range s.breaches {
		res.BreachesRemoved += buf.DropWhile(func(b *Breach) bool {
			return b.Timestamp.Before(cutoff)
		})
	}
	res.AlertsRemoved = s.alerts.DropWhile(func(a *Alert) bool {
		return a.Timestamp.Before(cutoff)
	})
	s.cacheKeys = make(map[string]map[string]struct{})
	for name := range s.targets {
		s.reportGen[name]++
	}
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Clear()
	}

	if res.MeasurementsRemoved+res.BreachesRemoved+res.AlertsRemoved > 0 {
		s.logger.Info("SLA retention sweep",
			zap.Int("measurements_removed", res.MeasurementsRemoved),
			zap.Int("breaches_removed", res.BreachesRemoved),
			zap.Int("alerts_removed", res.AlertsRemoved))
	}
	return res
}

// invalidateReports drops every cached report for one target. The
// generation bump also voids report computations already in flight, so a
// snapshot taken before this call cannot be cached after it.
func (s *Service) invalidateReports(targetName string) {
	s.mu.Lock()
	s.reportGen[targetName]++
	keys := s.cacheKeys[targetName]
	delete(s.cacheKeys, targetName)
	s.mu.Unlock()

	if s.cache == nil {
		return
	}
	for key := range keys {
		s.cache.Del(key)
	}
}

func reportCacheKey(targetName string, hours int) string {
	return fmt.Sprintf("%s|%dh", targetName, hours)
}
