package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/wellness-backend/internal/clients/redis"
	"github.com/yungbote/wellness-backend/internal/data/db"
	httpx "github.com/yungbote/wellness-backend/internal/http"
	"github.com/yungbote/wellness-backend/internal/observability"
	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Redis    goredis.UniversalClient
	Cfg      Config
	Repos    Repos
	Services Services
	Server   *httpx.Server
	Metrics  *observability.Metrics

	pg           *db.PostgresService
	otelShutdown func(context.Context) error
}

func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	loc, _ := cfg.Location()

	a := &App{Log: log, Cfg: cfg}
	a.otelShutdown = observability.InitOTel(ctx, log, cfg.Otel)
	if cfg.Metrics.Enabled {
		a.Metrics = observability.NewMetrics(log)
	}

	pg, err := db.NewPostgresService(cfg.Postgres, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	a.pg = pg
	if err := pg.AutoMigrateAll(); err != nil {
		a.Close()
		return nil, fmt.Errorf("postgres automigrate: %w", err)
	}
	a.DB = pg.DB()

	if cfg.Redis.Enabled() {
		rdb, err := redis.NewClient(ctx, log, cfg.Redis)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("init redis: %w", err)
		}
		a.Redis = rdb
	}

	a.Repos = wireRepos(a.DB, log)
	a.Services = wireServices(a.DB, log, cfg, loc, a.Repos, a.Redis, a.Metrics)
	handlerset := wireHandlers(log, a.Services, healthChecks(pg, a.Redis))
	middleware := wireMiddleware(log, a.Services)
	a.Server = wireServer(log, cfg, handlerset, middleware, a.Metrics)
	return a, nil
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests
// within the configured shutdown timeout.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	addr := ":" + strings.TrimPrefix(a.Cfg.Port, ":")

	g, gctx := errgroup.WithContext(ctx)
	a.Metrics.StartServer(gctx, a.Log, a.Cfg.Metrics.Addr)
	g.Go(func() error {
		a.Log.Info("Server listening", "addr", addr)
		return a.Server.Run(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
		defer cancel()
		a.Log.Info("Shutting down server")
		return a.Server.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *App) Close() {
	if a == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.Cfg.ShutdownTimeout)
	defer cancel()
	if a.otelShutdown != nil {
		if err := a.otelShutdown(ctx); err != nil && a.Log != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if a.pg != nil {
		_ = a.pg.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
