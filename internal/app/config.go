package app

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/wellness-backend/internal/clients/redis"
	"github.com/yungbote/wellness-backend/internal/data/db"
	types "github.com/yungbote/wellness-backend/internal/domain"
	"github.com/yungbote/wellness-backend/internal/domain/tracking"
	"github.com/yungbote/wellness-backend/internal/observability"
	"github.com/yungbote/wellness-backend/internal/platform/envutil"
)

const defaultConfigPath = "config.yaml"

type Config struct {
	LogMode string `yaml:"log_mode"`
	Port    string `yaml:"port"`

	JWTSecretKey string `yaml:"jwt_secret_key"`
	JWTIssuer    string `yaml:"jwt_issuer"`

	AllowedOrigins  []string      `yaml:"allowed_origins"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`

	// Timezone names the IANA zone used for wall-clock defaults and date
	// adjustment.
	Timezone     string        `yaml:"timezone"`
	StoreTimeout time.Duration `yaml:"store_timeout"`

	ValidationRules types.ValidationRule `yaml:"validation_rules"`
	Guardrails      GuardrailConfig      `yaml:"guardrails"`
	Idempotency     IdempotencyConfig    `yaml:"idempotency"`

	Postgres db.PostgresConfig           `yaml:"postgres"`
	Redis    redis.Config                `yaml:"redis"`
	Otel     observability.OtelConfig    `yaml:"otel"`
	Metrics  observability.MetricsConfig `yaml:"metrics"`
}

type GuardrailConfig struct {
	IncludePersisted bool `yaml:"include_persisted"`
}

type IdempotencyConfig struct {
	PendingTTL time.Duration `yaml:"pending_ttl"`
	ResultTTL  time.Duration `yaml:"result_ttl"`
}

func DefaultConfig() Config {
	return Config{
		LogMode:         "development",
		Port:            "8080",
		MaxBodyBytes:    1 << 20,
		ShutdownTimeout: 15 * time.Second,
		Timezone:        "UTC",
		StoreTimeout:    15 * time.Second,
		ValidationRules: tracking.DefaultValidationRule(),
		Idempotency: IdempotencyConfig{
			PendingTTL: 2 * time.Minute,
			ResultTTL:  24 * time.Hour,
		},
		Postgres: db.PostgresConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Name:            "wellness",
			SSLMode:         "disable",
			MaxOpenConns:    20,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Otel: observability.OtelConfig{
			ServiceName: observability.DefaultServiceName,
			SampleRatio: 0.1,
		},
		Metrics: observability.MetricsConfig{
			Addr: observability.DefaultMetricsAddr,
		},
	}
}

// LoadConfig layers defaults, the YAML file named by CONFIG_PATH and env
// overrides, then validates. A missing default config.yaml is not an error;
// a missing explicit CONFIG_PATH is.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	if err := cfg.loadFile(path, explicit); err != nil {
		return Config{}, err
	}
	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string, required bool) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.LogMode = envutil.String("LOG_MODE", c.LogMode)
	c.Port = envutil.String("PORT", c.Port)
	c.JWTSecretKey = envutil.String("JWT_SECRET_KEY", c.JWTSecretKey)
	c.JWTIssuer = envutil.String("JWT_ISSUER", c.JWTIssuer)
	if origins := envutil.String("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		c.AllowedOrigins = splitList(origins)
	}
	c.Timezone = envutil.String("TIMEZONE", c.Timezone)
	c.StoreTimeout = envutil.Seconds("STORE_TIMEOUT_SECONDS", c.StoreTimeout)
	c.ShutdownTimeout = envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", c.ShutdownTimeout)

	c.ValidationRules.SleepCutoffHour = envutil.Int("SLEEP_CUTOFF_HOUR", c.ValidationRules.SleepCutoffHour)
	c.ValidationRules.Enforce15MinIncrements = envutil.Bool("ENFORCE_15_MIN_INCREMENTS", c.ValidationRules.Enforce15MinIncrements)
	c.ValidationRules.AutoRound15Min = envutil.Bool("AUTO_ROUND_15_MIN", c.ValidationRules.AutoRound15Min)
	c.Guardrails.IncludePersisted = envutil.Bool("GUARDRAIL_INCLUDE_PERSISTED", c.Guardrails.IncludePersisted)

	c.Postgres.Host = envutil.String("POSTGRES_HOST", c.Postgres.Host)
	c.Postgres.Port = envutil.Int("POSTGRES_PORT", c.Postgres.Port)
	c.Postgres.User = envutil.String("POSTGRES_USER", c.Postgres.User)
	c.Postgres.Password = envutil.String("POSTGRES_PASSWORD", c.Postgres.Password)
	c.Postgres.Name = envutil.String("POSTGRES_NAME", c.Postgres.Name)
	c.Postgres.SSLMode = envutil.String("POSTGRES_SSLMODE", c.Postgres.SSLMode)

	c.Redis.Addr = envutil.String("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = envutil.String("REDIS_PASSWORD", c.Redis.Password)
	c.Redis.DB = envutil.Int("REDIS_DB", c.Redis.DB)

	c.Otel.Enabled = envutil.Bool("OTEL_ENABLED", c.Otel.Enabled)
	c.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", c.Otel.ServiceName)
	c.Otel.Environment = envutil.String("OTEL_ENVIRONMENT", c.Otel.Environment)
	c.Otel.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", c.Otel.Endpoint)
	c.Otel.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", c.Otel.Insecure)
	if h := observability.ParseHeaders(envutil.String("OTEL_EXPORTER_OTLP_HEADERS", "")); h != nil {
		c.Otel.Headers = h
	}

	c.Metrics.Enabled = envutil.Bool("METRICS_ENABLED", c.Metrics.Enabled)
	c.Metrics.Addr = envutil.String("METRICS_ADDR", c.Metrics.Addr)
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		errs = append(errs, errors.New("jwt_secret_key is required"))
	}
	if err := c.ValidationRules.Validate(); err != nil {
		errs = append(errs, err)
	}
	if c.StoreTimeout <= 0 {
		errs = append(errs, errors.New("store_timeout must be positive"))
	}
	if c.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("max_body_bytes must be positive"))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}
	if c.Idempotency.PendingTTL <= 0 || c.Idempotency.ResultTTL <= 0 {
		errs = append(errs, errors.New("idempotency ttls must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(c.Timezone))
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// LoadPostgresConfig resolves only the database settings, for tooling that
// does not serve requests.
func LoadPostgresConfig() (db.PostgresConfig, error) {
	cfg := DefaultConfig()
	path := strings.TrimSpace(os.Getenv("CONFIG_PATH"))
	explicit := path != ""
	if !explicit {
		path = defaultConfigPath
	}
	if err := cfg.loadFile(path, explicit); err != nil {
		return db.PostgresConfig{}, err
	}
	cfg.applyEnv()
	return cfg.Postgres, nil
}
