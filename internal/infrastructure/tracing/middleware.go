package tracing

import (
	"github.com/gin-gonic/gin"
)

// HTTPMiddleware assigns every request a trace ID, reusing the caller's
// X-Trace-ID when it is well formed, and echoes it on the response
func HTTPMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := Accept(c.GetHeader(Header))

		c.Request = c.Request.WithContext(WithTraceID(c.Request.Context(), traceID))
		c.Header(Header, string(traceID))

		c.Next()
	}
}
