package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/wellness-backend/internal/platform/logger"
)

type Config struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	DialTimeout time.Duration `yaml:"dial_timeout"`
}

func (c Config) Enabled() bool { return strings.TrimSpace(c.Addr) != "" }

// NewClient connects and pings. Addr may list several comma-separated
// addresses for a cluster.
func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (goredis.UniversalClient, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if !cfg.Enabled() {
		return nil, fmt.Errorf("missing redis addr")
	}
	dial := cfg.DialTimeout
	if dial <= 0 {
		dial = 5 * time.Second
	}

	var addrs []string
	for _, a := range strings.Split(cfg.Addr, ",") {
		if a = strings.TrimSpace(a); a != "" {
			addrs = append(addrs, a)
		}
	}
	rdb := goredis.NewUniversalClient(&goredis.UniversalOptions{
		Addrs:       addrs,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dial,
	})

	pingCtx, cancel := context.WithTimeout(ctx, dial)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.With("service", "RedisClient").Info("Connected to Redis", "addrs", addrs)
	return rdb, nil
}

// Pinger adapts a client to the readiness check interface.
type Pinger struct {
	Client goredis.UniversalClient
}

func (p Pinger) Ping(ctx context.Context) error {
	return p.Client.Ping(ctx).Err()
}
