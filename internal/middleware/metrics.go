package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/wisdom-gateway/internal/service"
)

const unmatchedRoute = "unmatched"

// Metrics records request latency by route template. Requests that match no
// route share one label so arbitrary paths cannot grow the series count.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		path := c.FullPath()
		if path == "" {
			path = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
