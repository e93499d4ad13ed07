package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// TraceIDHeader carries the request correlation id. Clients may supply
// their own; requests arriving without one get a fresh uuid.
const TraceIDHeader = "X-Trace-ID"

const traceIDKey = "trace_id"

// TraceID tags every request with a correlation id and echoes it in the
// response, so a dashboard call can be matched to its log lines.
func TraceID() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if traceID == "" {
			traceID = uuid.NewString()
		}

		c.Set(traceIDKey, traceID)
		c.Header(TraceIDHeader, traceID)

		c.Next()
	}
}

// GetTraceID returns the request's correlation id, or "" outside a
// traced request.
func GetTraceID(c *gin.Context) string {
	if traceID, exists := c.Get(traceIDKey); exists {
		return traceID.(string)
	}
	return ""
}
