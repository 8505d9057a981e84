package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	api "github.com/platewise/telemetry/internal/api/http"
	"github.com/platewise/telemetry/internal/api/middleware"
	"github.com/platewise/telemetry/internal/config"
	"github.com/platewise/telemetry/internal/infrastructure/monitoring"
	"github.com/platewise/telemetry/internal/logging"
	"github.com/platewise/telemetry/internal/telemetry/logs"
	"github.com/platewise/telemetry/internal/telemetry/sla"
	"github.com/platewise/telemetry/internal/telemetry/tracing"
)

// Server owns the three telemetry services and the HTTP query surface
// over them.
type Server struct {
	cfg     *config.Config
	logger  *logging.Logger
	metrics *monitoring.Metrics

	tracer *tracing.Service
	logs   *logs.Service
	sla    *sla.Service

	router  *gin.Engine
	httpSrv *http.Server

	cleanupStop chan struct{}
	cleanupDone chan struct{}
}

// New wires the telemetry services together. The returned server's Logger
// tees every record into the log aggregator; callers should emit their own
// logs through it so they show up in queries.
func New(cfg *config.Config, baseLogger *logging.Logger) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if baseLogger == nil {
		baseLogger = logging.NewDefault()
	}

	metrics := monitoring.NewMetrics()

	logsSvc := logs.New(logs.Config{
		MaxEntries:    cfg.Logs.MaxEntries,
		MaxErrors:     cfg.Logs.ErrorBufferSize,
		MaxWarnings:   cfg.Logs.WarningBufferSize,
		MaxPerfLogs:   cfg.Logs.PerfBufferSize,
		Dir:           cfg.Logs.FileDir,
		RetentionDays: cfg.Cleanup.LogRetentionDays,
	}, baseLogger.Logger, metrics)

	// Records under the reserved namespace feed the aggregator.
	logger := baseLogger.WithCore(logs.NewZapCore(logsSvc, zapcore.DebugLevel, logging.Namespace))

	tracer := tracing.New(tracing.Config{
		Enabled:          cfg.Tracing.Enabled,
		SampleRate:       cfg.Tracing.SampleRate,
		MaxTraceDuration: cfg.Tracing.MaxTraceDuration(),
		SpanHistorySize:  cfg.Tracing.SpanHistorySize,
		TraceHistorySize: cfg.Tracing.TraceHistorySize,
	}, logger.Named("tracing").Logger, metrics)

	slaSvc := sla.New(sla.Config{
		MaxMeasurementsPerTarget: cfg.SLA.MeasurementBufferSize,
		MaxBreachesPerTarget:     cfg.SLA.BreachBufferSize,
		MaxAlerts:                cfg.SLA.AlertBufferSize,
		ReportCacheTTL:           time.Duration(cfg.SLA.ReportCacheTTLSeconds) * time.Second,
		SeedDefaults:             true,
	}, logger.Named("sla").Logger, metrics)

	s := &Server{
		cfg:         cfg,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		logs:        logsSvc,
		sla:         slaSvc,
		cleanupStop: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
	s.router = s.buildRouter()
	return s
}

// Logger returns the server logger, teed into the log aggregator.
func (s *Server) Logger() *logging.Logger { return s.logger }

// Tracer exposes the tracing service for embedding callers.
func (s *Server) Tracer() *tracing.Service { return s.tracer }

// Logs exposes the log aggregation service.
func (s *Server) Logs() *logs.Service { return s.logs }

// SLA exposes the SLA monitoring service.
func (s *Server) SLA() *sla.Service { return s.sla }

func (s *Server) buildRouter() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if s.cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: s.cfg.RateLimit.RequestsPerSecond,
			Burst:             s.cfg.RateLimit.Burst,
		}))
	}
	router.Use(monitoring.Middleware(s.metrics))
	router.Use(middleware.Tracing(s.tracer))

	handlers := api.NewHandlers(s.tracer, s.logs, s.sla, s.metrics, s.logger)

	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Tracing
	router.GET("/traces", handlers.GetTraces)
	router.GET("/traces/summary", handlers.GetTraceSummary)
	router.GET("/traces/operations", handlers.GetOperationStats)
	router.GET("/traces/:id", handlers.GetTrace)

	// Logs
	router.GET("/logs", handlers.GetLogs)
	router.GET("/logs/search", handlers.SearchLogs)
	router.GET("/logs/errors", handlers.GetErrorSummary)
	router.GET("/logs/stats", handlers.GetLoggerStats)
	router.GET("/logs/patterns", handlers.AnalyzeLogPatterns)
	router.GET("/logs/export", handlers.ExportLogs)
	router.POST("/logs/stream", handlers.StreamLogs)

	// SLA
	router.GET("/sla/targets", handlers.GetSLATargets)
	router.POST("/sla/targets", handlers.CreateSLATarget)
	router.DELETE("/sla/targets/:name", handlers.DeleteSLATarget)
	router.POST("/sla/measurements", handlers.RecordSLAMeasurement)
	router.GET("/sla/reports", handlers.GetSLAReports)
	router.GET("/sla/reports/:name", handlers.GetSLAReport)
	router.GET("/sla/dashboard", handlers.GetSLADashboard)
	router.GET("/sla/export", handlers.ExportSLAData)

	return router
}

// Router returns the configured engine, mainly for tests.
func (s *Server) Router() *gin.Engine { return s.router }

// Run starts the retention sweeper and serves HTTP until the listener
// fails or Shutdown is called.
func (s *Server) Run() error {
	go s.cleanupLoop()

	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.logger.Info("Telemetry service listening", zap.String("addr", addr))
	if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP listener, runs one final retention sweep, and
// closes the log file writer.
func (s *Server) Shutdown(ctx context.Context) error {
	close(s.cleanupStop)

	var err error
	if s.httpSrv != nil {
		err = s.httpSrv.Shutdown(ctx)
	}

	select {
	case <-s.cleanupDone:
	case <-ctx.Done():
	}

	s.runCleanup()
	if cerr := s.logs.Close(); cerr != nil && err == nil {
		err = cerr
	}
	s.logger.Info("Telemetry service stopped")
	return err
}

// cleanupLoop runs the periodic retention sweep across all three
// services. The services do not own timers themselves; this loop is the
// only scheduler.
func (s *Server) cleanupLoop() {
	defer close(s.cleanupDone)

	interval := s.cfg.Cleanup.Interval()
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runCleanup()
		case <-s.cleanupStop:
			return
		}
	}
}

func (s *Server) runCleanup() {
	traceRes := s.tracer.CleanupOldData(time.Duration(s.cfg.Cleanup.MaxTraceAgeHours) * time.Hour)
	slaRes := s.sla.CleanupOldData(s.cfg.Cleanup.SLARetentionDays)
	filesRemoved, err := s.logs.CleanupOldLogs()
	if err != nil {
		s.logger.Warn("Log file cleanup failed", zap.Error(err))
	}

	s.logger.Debug("Retention sweep finished",
		zap.Int("traces_removed", traceRes.TracesRemoved),
		zap.Int("spans_removed", traceRes.SpansRemoved),
		zap.Int("spans_timed_out", traceRes.SpansTimedOut),
		zap.Int("measurements_removed", slaRes.MeasurementsRemoved),
		zap.Int("log_files_removed", filesRemoved),
	)
}
