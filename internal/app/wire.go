package app

import (
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/clients/redis"
	"github.com/yungbote/wellness-backend/internal/data/repos"
	"github.com/yungbote/wellness-backend/internal/data/tx"
	httpx "github.com/yungbote/wellness-backend/internal/http"
	httpH "github.com/yungbote/wellness-backend/internal/http/handlers"
	httpMW "github.com/yungbote/wellness-backend/internal/http/middleware"
	"github.com/yungbote/wellness-backend/internal/observability"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
	"github.com/yungbote/wellness-backend/internal/services"
)

type Repos struct {
	Category        repos.CategoryRepo
	CategoryMapping repos.CategoryMappingRepo
	Activity        repos.ActivityRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Category:        repos.NewCategoryRepo(db, log),
		CategoryMapping: repos.NewCategoryMappingRepo(db, log),
		Activity:        repos.NewActivityRepo(db, log),
	}
}

type Services struct {
	Auth        services.AuthService
	TimeLog     services.TimeLogService
	Bulk        services.BulkEntryService
	Idempotency services.IdempotencyStore
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, loc *time.Location, reposet Repos, rdb goredis.UniversalClient, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")
	var idem services.IdempotencyStore
	if rdb != nil {
		idem = services.NewRedisIdempotencyStore(log, rdb, cfg.Idempotency.PendingTTL, cfg.Idempotency.ResultTTL)
	} else {
		log.Warn("REDIS_ADDR not set; idempotency keys are tracked in memory")
		idem = services.NewMemoryIdempotencyStore(cfg.Idempotency.PendingTTL, cfg.Idempotency.ResultTTL)
	}
	return Services{
		Auth:    services.NewAuthService(log, cfg.JWTSecretKey, cfg.JWTIssuer),
		TimeLog: services.NewTimeLogService(log, reposet.Category, reposet.CategoryMapping, loc, cfg.StoreTimeout, metrics),
		Bulk: services.NewBulkEntryService(log, reposet.Category, reposet.Activity, reposet.CategoryMapping, services.BulkEntryConfig{
			Defaults:         cfg.ValidationRules,
			IncludePersisted: cfg.Guardrails.IncludePersisted,
			Location:         loc,
			StoreTimeout:     cfg.StoreTimeout,
			Runner:           tx.NewGormRunner(db),
			Metrics:          metrics,
		}),
		Idempotency: idem,
	}
}

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health  *httpH.HealthHandler
	TimeLog *httpH.TimeLogHandler
	Bulk    *httpH.BulkHandler
}

func wireMiddleware(log *logger.Logger, serviceset Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, serviceset.Auth),
	}
}

func wireHandlers(log *logger.Logger, serviceset Services, checks map[string]httpH.Pinger) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:  httpH.NewHealthHandler(checks),
		TimeLog: httpH.NewTimeLogHandler(log, serviceset.TimeLog),
		Bulk:    httpH.NewBulkHandler(log, serviceset.Bulk, serviceset.Idempotency),
	}
}

func wireServer(log *logger.Logger, cfg Config, handlers Handlers, middleware Middleware, metrics *observability.Metrics) *httpx.Server {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.Service()
	}
	return httpx.NewServer(httpx.RouterConfig{
		Log:            log,
		ServiceName:    serviceName,
		AllowedOrigins: cfg.AllowedOrigins,
		MaxBodyBytes:   cfg.MaxBodyBytes,
		Metrics:        metrics,
		AuthMiddleware: middleware.Auth,
		HealthHandler:  handlers.Health,
		TimeLogHandler: handlers.TimeLog,
		BulkHandler:    handlers.Bulk,
	})
}

func healthChecks(pg httpH.Pinger, rdb goredis.UniversalClient) map[string]httpH.Pinger {
	checks := map[string]httpH.Pinger{"postgres": pg}
	if rdb != nil {
		checks["redis"] = redis.Pinger{Client: rdb}
	}
	return checks
}
