package tracing

import "sort"

// opAggregate is the running per-operation-name aggregate, updated once per
// finished span.
type opAggregate struct {
	count         int64
	errorCount    int64
	totalDuration float64
	minDuration   float64
	maxDuration   float64
}

func (s *Service) recordOperation(span *Span) {
	agg, ok := s.opStats[span.OperationName]
	if !ok {
		agg = &opAggregate{minDuration: span.DurationMS, maxDuration: span.DurationMS}
		s.opStats[span.OperationName] = agg
	}
	agg.count++
	agg.totalDuration += span.DurationMS
	if span.DurationMS < agg.minDuration {
		agg.minDuration = span.DurationMS
	}
	if span.DurationMS > agg.maxDuration {
		agg.maxDuration = span.DurationMS
	}
	if span.Status == StatusError {
		agg.errorCount++
	}
}

// OperationStats is the exported per-operation aggregate.
type OperationStats struct {
	Count            int64   `json:"count"`
	ErrorCount       int64   `json:"error_count"`
	ErrorRatePercent float64 `json:"error_rate_percent"`
	AvgDurationMS    float64 `json:"avg_duration_ms"`
	MinDurationMS    float64 `json:"min_duration_ms"`
	MaxDurationMS    float64 `json:"max_duration_ms"`
}

// GetOperationStats returns the running aggregate for every operation name.
func (s *Service) GetOperationStats() map[string]OperationStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]OperationStats, len(s.opStats))
	for name, agg := range s.opStats {
		stats := OperationStats{
			Count:         agg.count,
			ErrorCount:    agg.errorCount,
			MinDurationMS: agg.minDuration,
			MaxDurationMS: agg.maxDuration,
		}
		if agg.count > 0 {
			stats.ErrorRatePercent = float64(agg.errorCount) / float64(agg.count) * 100
			stats.AvgDurationMS = agg.totalDuration / float64(agg.count)
		}
		out[name] = stats
	}
	return out
}

// Summary holds global trace counters and duration percentiles.
type Summary struct {
	TotalTraces      int     `json:"total_traces"`
	ErrorTraces      int     `json:"error_traces"`
	ErrorRatePercent float64 `json:"error_rate_percent"`
	ActiveTraces     int     `json:"active_traces"`
	ActiveSpans      int     `json:"active_spans"`
	AvgSpansPerTrace float64 `json:"avg_spans_per_trace"`
	P50DurationMS    float64 `json:"p50_duration_ms"`
	P95DurationMS    float64 `json:"p95_duration_ms"`
	P99DurationMS    float64 `json:"p99_duration_ms"`
	UniqueOperations int     `json:"unique_operations"`
	UniqueServices   int     `json:"unique_services"`
}

// GetTraceSummary computes global counters over finished traces plus
// active-table sizes. Percentiles use the nearest-rank estimator over the
// sorted duration set.
func (s *Service) GetTraceSummary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	summary := Summary{
		ActiveTraces:     len(s.activeTraces),
		ActiveSpans:      len(s.activeSpans),
		UniqueOperations: len(s.opStats),
	}

	n := s.traceHistory.Len()
	summary.TotalTraces = n
	if n == 0 {
		return summary
	}

	durations := make([]float64, 0, n)
	services := make(map[string]struct{})
	totalSpans := 0
	for i := 0; i < n; i++ {
		t := s.traceHistory.At(i)
		durations = append(durations, t.DurationMS)
		services[t.ServiceName] = struct{}{}
		totalSpans += t.SpanCount
		if t.Status == StatusError {
			summary.ErrorTraces++
		}
	}

	sort.Float64s(durations)
	summary.ErrorRatePercent = float64(summary.ErrorTraces) / float64(n) * 100
	summary.AvgSpansPerTrace = float64(totalSpans) / float64(n)
	summary.P50DurationMS = percentile(durations, 0.50)
	summary.P95DurationMS = percentile(durations, 0.95)
	summary.P99DurationMS = percentile(durations, 0.99)
	summary.UniqueServices = len(services)

	return summary
}

// percentile is a nearest-rank estimator over an ascending-sorted set:
// values[int(len*p)], clamped to the last element.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(float64(len(sorted)) * p)
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
