package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"subtrack/pkg/utils"
)

const TraceIDHeader = "X-Trace-ID"

// TraceIDMiddleware keeps a well-formed inbound trace id from an upstream
// proxy and mints one otherwise.
func TraceIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := c.GetHeader(TraceIDHeader)
		if _, err := uuid.Parse(traceID); err != nil {
			traceID = uuid.NewString()
		}
		c.Set(utils.TraceIDKey, traceID)
		c.Writer.Header().Set(TraceIDHeader, traceID)
		c.Next()
	}
}
