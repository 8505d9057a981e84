package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/platewise/telemetry/internal/telemetry/tracing"
)

func newTracedRouter(tracer *tracing.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Tracing(tracer))
	r.GET("/plans/:id", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"id": c.Param("id")})
	})
	r.GET("/boom", func(c *gin.Context) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "boom"})
	})
	return r
}

func TestTracingMiddlewareStartsAndFinishesTrace(t *testing.T) {
	tracer := tracing.New(tracing.DefaultConfig(), nil, nil)
	r := newTracedRouter(tracer)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans/42", nil))
	require.Equal(t, http.StatusOK, w.Code)

	traceID := w.Header().Get(tracing.HeaderTraceID)
	require.NotEmpty(t, traceID, "trace id is echoed back")

	trace := tracer.GetTrace(traceID)
	require.NotNil(t, trace)
	assert.True(t, trace.Finished())
	assert.Equal(t, tracing.StatusOK, trace.Status)
	assert.Equal(t, "GET /plans/:id", trace.OperationName, "route pattern, not raw path")

	root := trace.Spans[0]
	assert.Equal(t, "GET", root.Tags["http.method"].Str())
	assert.Equal(t, "/plans/42", root.Tags["http.path"].Str())
	assert.EqualValues(t, 200, root.Tags["http.status_code"].Int64())
}

func TestTracingMiddlewareMarksServerErrors(t *testing.T) {
	tracer := tracing.New(tracing.DefaultConfig(), nil, nil)
	r := newTracedRouter(tracer)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	require.Equal(t, http.StatusInternalServerError, w.Code)

	trace := tracer.GetTrace(w.Header().Get(tracing.HeaderTraceID))
	require.NotNil(t, trace)
	assert.Equal(t, tracing.StatusError, trace.Status)
	assert.Equal(t, 1, trace.ErrorCount)
}

func TestTracingMiddlewareJoinsInboundTrace(t *testing.T) {
	tracer := tracing.New(tracing.DefaultConfig(), nil, nil)
	r := newTracedRouter(tracer)

	upstream := tracer.StartTrace("upstream", "gateway")
	require.NotEmpty(t, upstream)

	req := httptest.NewRequest(http.MethodGet, "/plans/1", nil)
	req.Header.Set(tracing.HeaderTraceID, upstream)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, upstream, w.Header().Get(tracing.HeaderTraceID))

	trace := tracer.GetTrace(upstream)
	require.NotNil(t, trace)
	assert.False(t, trace.Finished(), "joined traces are finished by their owner, not the request")
	assert.Equal(t, 2, trace.SpanCount)
}

func TestTracingMiddlewareDisabled(t *testing.T) {
	cfg := tracing.DefaultConfig()
	cfg.Enabled = false
	tracer := tracing.New(cfg, nil, nil)
	r := newTracedRouter(tracer)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/plans/42", nil))
	assert.Equal(t, http.StatusOK, w.Code, "requests are served untraced")
	assert.Empty(t, w.Header().Get(tracing.HeaderTraceID))
}
