package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/wellness-backend/internal/http/handlers"
	httpMW "github.com/yungbote/wellness-backend/internal/http/middleware"
	"github.com/yungbote/wellness-backend/internal/observability"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	AllowedOrigins []string
	MaxBodyBytes   int64
	Metrics        *observability.Metrics

	AuthMiddleware *httpMW.AuthMiddleware

	HealthHandler  *httpH.HealthHandler
	TimeLogHandler *httpH.TimeLogHandler
	BulkHandler    *httpH.BulkHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))
	r.Use(httpMW.MaxBody(cfg.MaxBodyBytes))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	api := r.Group("/api")
	protected := api.Group("/")
	{
		if cfg.AuthMiddleware != nil {
			protected.Use(cfg.AuthMiddleware.RequireAuth())
		}

		// Time log
		if cfg.TimeLogHandler != nil {
			protected.POST("/time-log/parse", cfg.TimeLogHandler.Parse)
		}

		// Activities
		if cfg.BulkHandler != nil {
			protected.POST("/activities/bulk", cfg.BulkHandler.Insert)
		}
	}

	return r
}
