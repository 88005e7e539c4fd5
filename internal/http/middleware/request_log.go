package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/wellness-backend/internal/platform/ctxutil"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

// Health routes log at debug level.
var quietRoutes = map[string]bool{
	"/healthcheck": true,
	"/readyz":      true,
}

func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		if log == nil {
			return
		}

		status := c.Writer.Status()
		route := c.FullPath()
		fields := []interface{}{
			"method", strings.ToUpper(c.Request.Method),
			"route", routeLabel(route),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes_in", c.Request.ContentLength,
			"bytes_out", c.Writer.Size(),
		}
		if route == "" {
			fields = append(fields, "path", c.Request.URL.Path)
		}
		if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
			fields = append(fields, "trace_id", td.TraceID, "request_id", td.RequestID)
		}
		if userID := ctxutil.UserID(c.Request.Context()); userID != uuid.Nil {
			fields = append(fields, "user_id", userID.String())
		}
		if strings.TrimSpace(c.GetHeader("Idempotency-Key")) != "" {
			fields = append(fields, "idempotency_key", true)
		}
		if c.Writer.Header().Get("Idempotent-Replayed") != "" {
			fields = append(fields, "replayed", true)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		switch {
		case status >= 500:
			log.Error("HTTP request", fields...)
		case status >= 400:
			log.Warn("HTTP request", fields...)
		case quietRoutes[route]:
			log.Debug("HTTP request", fields...)
		default:
			log.Info("HTTP request", fields...)
		}
	}
}

func routeLabel(route string) string {
	if route == "" {
		return "unmatched"
	}
	return route
}
