package api

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/soyj/pairbook/common/trace"
)

// traceMiddleware attaches a trace ID to every request context and logs the
// request on completion. The ID is echoed back in X-Trace-Id so a client can
// quote it when reporting a problem.
func traceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Trace-Id")
		if id == "" {
			id = trace.GenerateID()
		}
		c.Request = c.Request.WithContext(trace.WithTraceID(c.Request.Context(), id))
		c.Header("X-Trace-Id", id)

		start := time.Now()
		c.Next()

		slog.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
			"trace_id", id,
		)
	}
}
