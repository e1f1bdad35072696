package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPMetrics is the slice of the Prometheus collector this middleware needs.
type HTTPMetrics interface {
	RecordHTTPRequest(method, path, status string, duration time.Duration)
}

// MetricsMiddleware records per-request duration labelled by method, route
// and status. The route template keeps label cardinality bounded.
func MetricsMiddleware(metrics HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		metrics.RecordHTTPRequest(
			c.Request.Method,
			path,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
