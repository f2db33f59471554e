package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/cliq-relay-backend/internal/observability"
)

// Metrics records per-route request counts and latency. Scrapes of
// /metrics are not counted. A nil m disables instrumentation.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}
		m.IncInflight()
		start := time.Now()
		defer func() {
			m.DecInflight()
			// FullPath is empty for unmatched routes; keep raw paths out of labels.
			m.ObserveHTTP(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
		}()
		c.Next()
	}
}
