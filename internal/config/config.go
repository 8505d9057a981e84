package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds all telemetry service configuration.
type Config struct {
	Server    ServerConfig
	Tracing   TracingConfig
	Logs      LogsConfig
	SLA       SLAConfig
	Logging   LogConfig
	RateLimit RateLimitConfig
	Cleanup   CleanupConfig
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8090"`
	Host string `envconfig:"HOST" default:"0.0.0.0"`
}

// TracingConfig holds span/trace tracking configuration.
type TracingConfig struct {
	Enabled            bool    `envconfig:"TRACING_ENABLED" default:"true"`
	SampleRate         float64 `envconfig:"TRACING_SAMPLE_RATE" default:"1.0"`
	MaxTraceDurationMS int     `envconfig:"TRACING_MAX_TRACE_DURATION_MS" default:"30000"`
	SpanHistorySize    int     `envconfig:"TRACING_SPAN_HISTORY" default:"50000"`
	TraceHistorySize   int     `envconfig:"TRACING_TRACE_HISTORY" default:"10000"`
}

// LogsConfig holds log aggregation configuration.
type LogsConfig struct {
	MaxEntries        int    `envconfig:"LOGS_MAX_ENTRIES" default:"100000"`
	ErrorBufferSize   int    `envconfig:"LOGS_ERROR_BUFFER" default:"1000"`
	WarningBufferSize int    `envconfig:"LOGS_WARNING_BUFFER" default:"1000"`
	PerfBufferSize    int    `envconfig:"LOGS_PERF_BUFFER" default:"10000"`
	FileDir           string `envconfig:"LOGS_FILE_DIR" default:""`
}

// SLAConfig holds SLA monitoring configuration.
type SLAConfig struct {
	MeasurementBufferSize int `envconfig:"SLA_MEASUREMENT_BUFFER" default:"10000"`
	BreachBufferSize      int `envconfig:"SLA_BREACH_BUFFER" default:"1000"`
	AlertBufferSize       int `envconfig:"SLA_ALERT_BUFFER" default:"5000"`
	ReportCacheTTLSeconds int `envconfig:"SLA_REPORT_CACHE_TTL" default:"300"`
}

// LogConfig holds logging configuration for the service itself.
type LogConfig struct {
	Level       string `envconfig:"LOG_LEVEL" default:"info"`
	Development bool   `envconfig:"LOG_DEV" default:"false"`
}

// RateLimitConfig holds rate limiting configuration for the query API.
type RateLimitConfig struct {
	RequestsPerSecond int  `envconfig:"RATE_LIMIT_RPS" default:"100"`
	Burst             int  `envconfig:"RATE_LIMIT_BURST" default:"200"`
	Enabled           bool `envconfig:"RATE_LIMIT_ENABLED" default:"true"`
}

// CleanupConfig holds retention sweep configuration.
type CleanupConfig struct {
	IntervalSeconds  int `envconfig:"CLEANUP_INTERVAL_SECONDS" default:"300"`
	MaxTraceAgeHours int `envconfig:"CLEANUP_MAX_TRACE_AGE_HOURS" default:"24"`
	LogRetentionDays int `envconfig:"CLEANUP_LOG_RETENTION_DAYS" default:"7"`
	SLARetentionDays int `envconfig:"CLEANUP_SLA_RETENTION_DAYS" default:"30"`
}

// MaxTraceDuration returns the force-finish threshold for open spans.
func (c TracingConfig) MaxTraceDuration() time.Duration {
	return time.Duration(c.MaxTraceDurationMS) * time.Millisecond
}

// Interval returns the cleanup sweep interval.
func (c CleanupConfig) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

// LoadOrDefault loads configuration from environment or returns default.
func LoadOrDefault() *Config {
	cfg, err := Load()
	if err != nil {
		return Default()
	}
	return cfg
}

// Default returns default configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: "8090",
			Host: "0.0.0.0",
		},
		Tracing: TracingConfig{
			Enabled:            true,
			SampleRate:         1.0,
			MaxTraceDurationMS: 30000,
			SpanHistorySize:    50000,
			TraceHistorySize:   10000,
		},
		Logs: LogsConfig{
			MaxEntries:        100000,
			ErrorBufferSize:   1000,
			WarningBufferSize: 1000,
			PerfBufferSize:    10000,
		},
		SLA: SLAConfig{
			MeasurementBufferSize: 10000,
			BreachBufferSize:      1000,
			AlertBufferSize:       5000,
			ReportCacheTTLSeconds: 300,
		},
		Logging: LogConfig{
			Level:       "info",
			Development: false,
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond: 100,
			Burst:             200,
			Enabled:           true,
		},
		Cleanup: CleanupConfig{
			IntervalSeconds:  300,
			MaxTraceAgeHours: 24,
			LogRetentionDays: 7,
			SLARetentionDays: 30,
		},
	}
}
