package utils

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const loggerKey = "logger"

// SetLogger attaches the request-scoped logger to the gin context.
func SetLogger(c *gin.Context, l *zap.Logger) {
	c.Set(loggerKey, l)
}

// LoggerFrom returns the request-scoped logger, or a no-op logger when none
// was attached.
func LoggerFrom(c *gin.Context) *zap.Logger {
	if v, ok := c.Get(loggerKey); ok {
		if l, ok := v.(*zap.Logger); ok {
			return l
		}
	}
	return zap.NewNop()
}
