package logs

import (
	"sort"
	"time"
)

const (
	messageGroupKeyLimit = 100
	recentErrorsLimit    = 20
	topSourcesLimit      = 10
	topErrorHoursLimit   = 5
	topModulesLimit      = 10
)

// MessageGroup counts error entries sharing a message prefix.
type MessageGroup struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// SourceCount is a cumulative error tally for one "module.function" site.
type SourceCount struct {
	Source string `json:"source"`
	Count  int64  `json:"count"`
}

// ErrorSummary describes recent error activity within a time window.
type ErrorSummary struct {
	WindowHours      int            `json:"window_hours"`
	TotalErrors      int            `json:"total_errors"`
	ErrorRatePerHour float64        `json:"error_rate_per_hour"`
	TopMessages      []MessageGroup `json:"top_messages"`
	RecentErrors     []*Entry       `json:"recent_errors"`
	TopSources       []SourceCount  `json:"top_sources"`
}

// GetErrorSummary aggregates retained error entries from the last `hours`
// hours. Messages are grouped on their first 100 characters so variable
// suffixes (ids, values) collapse into one pattern. The source tally is
// cumulative over the service lifetime, not windowed.
func (s *Service) GetErrorSummary(hours int) *ErrorSummary {
	if hours <= 0 {
		hours = 24
	}
	cutoff := s.now().Add(-time.Duration(hours) * time.Hour)

	s.mu.RLock()
	errs := s.errorEntries.Snapshot()
	sources := make([]SourceCount, 0, len(s.errorPatterns))
	for src, n := range s.errorPatterns {
		sources = append(sources, SourceCount{Source: src, Count: n})
	}
	s.mu.RUnlock()

	windowed := errs[:0]
	for _, e := range errs {
		if !e.Timestamp.Before(cutoff) {
			windowed = append(windowed, e)
		}
	}
	sortNewestFirst(windowed)

	byMessage := make(map[string]int)
	for _, e := range windowed {
		byMessage[truncateRunes(e.Message, messageGroupKeyLimit)]++
	}
	groups := make([]MessageGroup, 0, len(byMessage))
	for msg, n := range byMessage {
		groups = append(groups, MessageGroup{Message: msg, Count: n})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].Count != groups[j].Count {
			return groups[i].Count > groups[j].Count
		}
		return groups[i].Message < groups[j].Message
	})

	sort.Slice(sources, func(i, j int) bool {
		if sources[i].Count != sources[j].Count {
			return sources[i].Count > sources[j].Count
		}
		return sources[i].Source < sources[j].Source
	})
	if len(sources) > topSourcesLimit {
		sources = sources[:topSourcesLimit]
	}

	recent := windowed
	if len(recent) > recentErrorsLimit {
		recent = recent[:recentErrorsLimit]
	}

	return &ErrorSummary{
		WindowHours:      hours,
		TotalErrors:      len(windowed),
		ErrorRatePerHour: float64(len(windowed)) / float64(hours),
		TopMessages:      groups,
		RecentErrors:     recent,
		TopSources:       sources,
	}
}

// HourCount is an hourly bucket tally.
type HourCount struct {
	Hour  string `json:"hour"`
	Count int    `json:"count"`
}

// ModuleCount tallies total activity for one module.
type ModuleCount struct {
	Module string `json:"module"`
	Count  int    `json:"count"`
}

// PatternReport breaks retained log activity down by hour, level, and
// module over a time window.
type PatternReport struct {
	WindowHours       int                       `json:"window_hours"`
	TotalLogs         int                       `json:"total_logs"`
	HourlyLevelCounts map[string]map[string]int `json:"hourly_level_counts"`
	TopErrorHours     []HourCount               `json:"top_error_hours"`
	TopModules        []ModuleCount             `json:"top_modules"`
	UniqueLoggers     int                       `json:"unique_loggers"`
	UniqueUsers       int                       `json:"unique_users"`
	UniqueTraces      int                       `json:"unique_traces"`
}

// AnalyzePatterns buckets retained entries from the last `hours` hours by
// hour-of-day and level, surfacing the heaviest error hours and the most
// active modules.
func (s *Service) AnalyzePatterns(hours int) *PatternReport {
	if hours <= 0 {
		hours = 24
	}
	cutoff := s.now().Add(-time.Duration(hours) * time.Hour)

	snapshot := s.snapshot(s.entries)

	hourly := make(map[string]map[string]int)
	errorsByHour := make(map[string]int)
	byModule := make(map[string]int)
	loggers := make(map[string]struct{})
	users := make(map[string]struct{})
	traces := make(map[string]struct{})

	total := 0
	for _, e := range snapshot {
		if e.Timestamp.Before(cutoff) {
			continue
		}
		total++

		bucket := e.Timestamp.UTC().Format("2006-01-02 15:00")
		levels := hourly[bucket]
		if levels == nil {
			levels = make(map[string]int)
			hourly[bucket] = levels
		}
		levels[e.Level]++
		if e.Level == LevelError || e.Level == LevelCritical {
			errorsByHour[bucket]++
		}

		if e.Module != "" {
			byModule[e.Module]++
		}
		loggers[e.LoggerName] = struct{}{}
		if e.UserID != "" {
			users[e.UserID] = struct{}{}
		}
		if e.TraceID != "" {
			traces[e.TraceID] = struct{}{}
		}
	}

	errorHours := make([]HourCount, 0, len(errorsByHour))
	for h, n := range errorsByHour {
		errorHours = append(errorHours, HourCount{Hour: h, Count: n})
	}
	sort.Slice(errorHours, func(i, j int) bool {
		if errorHours[i].Count != errorHours[j].Count {
			return errorHours[i].Count > errorHours[j].Count
		}
		return errorHours[i].Hour < errorHours[j].Hour
	})
	if len(errorHours) > topErrorHoursLimit {
		errorHours = errorHours[:topErrorHoursLimit]
	}

	modules := make([]ModuleCount, 0, len(byModule))
	for m, n := range byModule {
		modules = append(modules, ModuleCount{Module: m, Count: n})
	}
	sort.Slice(modules, func(i, j int) bool {
		if modules[i].Count != modules[j].Count {
			return modules[i].Count > modules[j].Count
		}
		return modules[i].Module < modules[j].Module
	})
	if len(modules) > topModulesLimit {
		modules = modules[:topModulesLimit]
	}

	return &PatternReport{
		WindowHours:       hours,
		TotalLogs:         total,
		HourlyLevelCounts: hourly,
		TopErrorHours:     errorHours,
		TopModules:        modules,
		UniqueLoggers:     len(loggers),
		UniqueUsers:       len(users),
		UniqueTraces:      len(traces),
	}
}
