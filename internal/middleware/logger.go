package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/loglens/backend/internal/logger"
	"github.com/sirupsen/logrus"
)

// RequestLogger logs one line per request through the application logger.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		fields := logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
			"client":  c.ClientIP(),
		}
		if sub, ok := c.Get("subject"); ok {
			fields["subject"] = sub
		}
		if len(c.Errors) > 0 {
			fields["errors"] = c.Errors.String()
		}

		entry := logger.GetLogger().WithFields(fields)
		switch {
		case c.Writer.Status() >= 500:
			entry.Error("[API] request failed")
		case c.Writer.Status() >= 400:
			entry.Warn("[API] request rejected")
		default:
			entry.Info("[API] request")
		}
	}
}
