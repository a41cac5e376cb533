package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Audit writes one structured log entry per admin mutation once the handler
// has answered. Reads are not audited.
func Audit(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("audit")
	return func(c *gin.Context) {
		switch c.Request.Method {
		case http.MethodGet, http.MethodHead, http.MethodOptions:
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("action", c.Request.Method+" "+c.FullPath()),
			zap.String("target", targetID(c)),
			zap.Int("status", status),
			zap.Int64("latency_ms", time.Since(start).Milliseconds()),
			zap.String("client_ip", c.ClientIP()),
			zap.Bool("confirmed", c.Query("confirm") == "true"),
		}
		if session, ok := SessionFromContext(c); ok {
			fields = append(fields, zap.String("actor", session.Email()))
		}
		switch {
		case status >= http.StatusInternalServerError:
			logger.Warn("admin action failed", fields...)
		case status >= http.StatusBadRequest:
			logger.Info("admin action rejected", fields...)
		default:
			logger.Info("admin action", fields...)
		}
	}
}

func targetID(c *gin.Context) string {
	for _, key := range []string{"id", "postId"} {
		if v := c.Param(key); v != "" {
			return v
		}
	}
	return ""
}
