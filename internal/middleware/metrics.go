package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sfp-api/internal/service"
)

// Metrics records duration and count per route. The route template
// (FullPath) keeps /api/feedbacks/:id as one series instead of one per
// record id; unmatched paths fall back to the raw URL.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, duration)
	}
}
