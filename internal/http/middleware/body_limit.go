package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const DefaultMaxBodyBytes int64 = 1 << 20

// MaxBody caps the request body; reads past the limit fail and the JSON
// binders surface that as a 400.
func MaxBody(limit int64) gin.HandlerFunc {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	return func(c *gin.Context) {
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"success": false,
				"error":   "request body too large",
				"code":    "body_too_large",
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}
