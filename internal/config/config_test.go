package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"glp/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.SessionLifetime != 24*time.Hour || cfg.RateLimitPerSecond != 10 {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.IsProduction() {
		t.Error("default env must not be production")
	}
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "glp.yaml")
	yml := `addr: ":9090"
database_path: /var/lib/glp/glp.db
session_lifetime: 8h
log_level: debug
admin:
  username: root
email:
  from: Program <hello@example.org>
`
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("GLP_ADDR", ":7070")
	t.Setenv("GLP_SLOW_QUERY_MS", "120")
	t.Setenv("GLP_SEED_DEMO", "true")

	cfg, err := config.Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Addr != ":7070" {
		t.Errorf("env must override yaml, addr = %q", cfg.Addr)
	}
	if cfg.DatabasePath != "/var/lib/glp/glp.db" || cfg.SessionLifetime != 8*time.Hour {
		t.Errorf("yaml values not applied: %+v", cfg)
	}
	if cfg.SlowQuery() != 120*time.Millisecond || !cfg.SeedDemo {
		t.Errorf("env values not applied: %+v", cfg)
	}
	if cfg.Admin.Username != "root" || cfg.Admin.Password != "change-me-now" {
		t.Errorf("admin = %+v", cfg.Admin)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("level = %v", cfg.SlogLevel())
	}
}

func TestLoad_BadEnvValue(t *testing.T) {
	t.Setenv("GLP_RATE_LIMIT_PER_SECOND", "lots")
	if _, err := config.Load(""); err == nil || !strings.Contains(err.Error(), "GLP_RATE_LIMIT_PER_SECOND") {
		t.Fatalf("expected named env error, got %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	key := strings.Repeat("ab", 32)
	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"defaults", func(*config.Config) {}, ""},
		{"production without key", func(c *config.Config) { c.Env = config.EnvProduction }, "csrf_key is required"},
		{"production with key", func(c *config.Config) { c.Env = config.EnvProduction; c.CSRFKey = key }, ""},
		{"short key", func(c *config.Config) { c.CSRFKey = "abcd" }, "64 hex characters"},
		{"bad level", func(c *config.Config) { c.LogLevel = "loud" }, "log_level"},
		{"zero rate", func(c *config.Config) { c.RateLimitPerSecond = 0 }, "rate_limit_per_second"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("got %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestCSRFKeyBytes(t *testing.T) {
	cfg := config.Default()
	random, err := cfg.CSRFKeyBytes()
	if err != nil || len(random) != 32 {
		t.Fatalf("random key = %d bytes, err %v", len(random), err)
	}
	cfg.CSRFKey = strings.Repeat("01", 32)
	key, err := cfg.CSRFKeyBytes()
	if err != nil || len(key) != 32 || key[0] != 1 {
		t.Fatalf("configured key = %v, err %v", key, err)
	}
}
