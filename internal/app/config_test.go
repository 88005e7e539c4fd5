package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfig_FileThenEnv(t *testing.T) {
	path := writeConfig(t, `
port: "9090"
jwt_secret_key: from-file
timezone: America/New_York
store_timeout: 5s
validation_rules:
  sleep_cutoff_hour: 3
guardrails:
  include_persisted: true
postgres:
  host: db.internal
  name: tracker
redis:
  addr: redis:6379
`)
	t.Setenv("CONFIG_PATH", path)
	t.Setenv("PORT", "7070")
	t.Setenv("SLEEP_CUTOFF_HOUR", "5")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "7070" {
		t.Fatalf("env should override file port, got %q", cfg.Port)
	}
	if cfg.JWTSecretKey != "from-file" || cfg.StoreTimeout != 5*time.Second {
		t.Fatalf("file values lost: %+v", cfg)
	}
	if cfg.ValidationRules.SleepCutoffHour != 5 {
		t.Fatalf("cutoff=%d", cfg.ValidationRules.SleepCutoffHour)
	}
	if !cfg.ValidationRules.Enforce15MinIncrements || !cfg.ValidationRules.AutoRound15Min {
		t.Fatalf("defaults for unset rule fields lost: %+v", cfg.ValidationRules)
	}
	if !cfg.Guardrails.IncludePersisted || cfg.Postgres.Host != "db.internal" || cfg.Postgres.Port != 5432 {
		t.Fatalf("nested config: %+v %+v", cfg.Guardrails, cfg.Postgres)
	}
	if !cfg.Redis.Enabled() {
		t.Fatalf("redis should be enabled")
	}
	loc, err := cfg.Location()
	if err != nil || loc.String() != "America/New_York" {
		t.Fatalf("loc=%v err=%v", loc, err)
	}
}

func TestLoadConfig_MissingDefaultFileIsFine(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("JWT_SECRET_KEY", "s3cret")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" || cfg.MaxBodyBytes != 1<<20 || cfg.ValidationRules.SleepCutoffHour != 4 {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	cases := []struct {
		name string
		body string
		env  map[string]string
		want string
	}{
		{name: "missing_explicit_file", env: map[string]string{"CONFIG_PATH": "/nonexistent/config.yaml"}, want: "read config"},
		{name: "malformed_yaml", body: "port: [", want: "parse config"},
		{name: "no_secret", body: "port: \"8080\"\n", want: "jwt_secret_key is required"},
		{name: "bad_cutoff", body: "jwt_secret_key: x\nvalidation_rules:\n  sleep_cutoff_hour: 24\n", want: "sleep_cutoff_hour"},
		{name: "bad_timezone", body: "jwt_secret_key: x\ntimezone: Mars/Olympus\n", want: "timezone"},
		{name: "zero_timeout", body: "jwt_secret_key: x\n", env: map[string]string{"STORE_TIMEOUT_SECONDS": "0"}, want: "store_timeout"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET_KEY", "")
			if tc.body != "" {
				t.Setenv("CONFIG_PATH", writeConfig(t, tc.body))
			}
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			if err == nil || !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("err=%v want containing %q", err, tc.want)
			}
		})
	}
}
