package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/wellness-backend/internal/observability"
)

// Metrics records request count and latency per route template. Unmatched
// paths share the "unmatched" route label.
func Metrics(m *observability.Metrics) gin.HandlerFunc {
	if m == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		start := time.Now()
		m.APIInflightInc()
		defer m.APIInflightDec()

		c.Next()

		m.ObserveAPI(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
