package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/platewise/telemetry/internal/shared/types"
	"github.com/platewise/telemetry/internal/telemetry/tracing"
)

// Tracing opens a span around every request. When the caller supplies an
// X-Trace-ID header the request joins that trace as a child span; otherwise
// a fresh trace is started and finished with the request. The active trace
// context is placed on the request context for downstream scopes, and the
// trace id is echoed back on the response.
func Tracing(tracer *tracing.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		operation := c.Request.Method + " " + routePath(c)

		inboundTrace, inboundParent := tracing.ExtractTraceContext(c.Request.Header)

		var traceID, spanID string
		ownsTrace := false
		if inboundTrace != "" {
			traceID = inboundTrace
			spanID = tracer.StartSpan(operation, traceID, inboundParent, nil)
		} else {
			traceID = tracer.StartTrace(operation, "telemetry-api")
			if traceID != "" {
				if tr := tracer.GetTrace(traceID); tr != nil {
					spanID = tr.RootSpanID
				}
				ownsTrace = true
			}
		}

		if spanID == "" {
			// Disabled, sampled out, or inbound trace rejected: serve untraced.
			c.Next()
			return
		}

		ctx := tracing.WithTraceContext(c.Request.Context(), traceID, spanID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(tracing.HeaderTraceID, traceID)

		c.Next()

		status := c.Writer.Status()
		tags := types.Attributes{
			"http.method":        types.String(c.Request.Method),
			"http.path":          types.String(c.Request.URL.Path),
			"http.status_code":   types.Int(int64(status)),
			"http.remote_addr":   types.String(c.ClientIP()),
			"http.user_agent":    types.String(c.Request.UserAgent()),
			"http.response_size": types.Int(int64(c.Writer.Size())),
		}

		spanStatus := tracing.StatusOK
		errMsg := ""
		if status >= 500 {
			spanStatus = tracing.StatusError
			errMsg = fmt.Sprintf("HTTP %d", status)
		}
		tracer.FinishSpan(spanID, spanStatus, errMsg, tags)
		if ownsTrace {
			tracer.FinishTrace(traceID)
		}
	}
}

// routePath prefers the registered route pattern over the raw URL so
// operation names stay low-cardinality.
func routePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return strings.SplitN(c.Request.URL.Path, "?", 2)[0]
}
