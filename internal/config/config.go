// Package config loads server settings from defaults, an optional YAML file,
// a .env file and GLP_* environment variables, in that order.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvProduction enables secure cookies and makes the CSRF key mandatory.
const EnvProduction = "production"

// Config holds every runtime setting of the server.
type Config struct {
	Addr               string        `yaml:"addr"`
	Env                string        `yaml:"env"`
	DatabasePath       string        `yaml:"database_path"`
	CSRFKey            string        `yaml:"csrf_key"` // 64 hex characters
	SessionLifetime    time.Duration `yaml:"session_lifetime"`
	SlowQueryMs        int           `yaml:"slow_query_ms"`
	SlowRequestMs      int           `yaml:"slow_request_ms"`
	RateLimitPerSecond int           `yaml:"rate_limit_per_second"`
	LogLevel           string        `yaml:"log_level"`
	BaseURL            string        `yaml:"base_url"`
	SeedDemo           bool          `yaml:"seed_demo"`
	Admin              AdminConfig   `yaml:"admin"`
	Email              EmailConfig   `yaml:"email"`
}

// AdminConfig holds the credentials of the account seeded into an empty database.
type AdminConfig struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	Password string `yaml:"password"`
}

// EmailConfig configures notification email. An empty ResendKey disables delivery.
type EmailConfig struct {
	ResendKey string `yaml:"resend_key"`
	From      string `yaml:"from"`
	ReplyTo   string `yaml:"reply_to"`
}

// Default returns the development defaults.
func Default() *Config {
	return &Config{
		Addr:               ":8080",
		Env:                "development",
		DatabasePath:       "glp.db",
		SessionLifetime:    24 * time.Hour,
		SlowQueryMs:        50,
		SlowRequestMs:      200,
		RateLimitPerSecond: 10,
		LogLevel:           "info",
		BaseURL:            "http://localhost:8080",
		Admin: AdminConfig{
			Username: "admin",
			Email:    "admin@example.org",
			Password: "change-me-now",
		},
		Email: EmailConfig{
			From:    "Girls Leadership Program <noreply@example.org>",
			ReplyTo: "programs@example.org",
		},
	}
}

// Load builds the configuration. path may be empty to skip the YAML file.
// PRE: none
// POST: Returns a validated Config, or the first read, parse or validation error
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	// .env never overrides variables already set in the environment.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := map[string]*string{
		"GLP_ADDR":           &c.Addr,
		"GLP_ENV":            &c.Env,
		"GLP_DATABASE_PATH":  &c.DatabasePath,
		"GLP_CSRF_KEY":       &c.CSRFKey,
		"GLP_LOG_LEVEL":      &c.LogLevel,
		"GLP_BASE_URL":       &c.BaseURL,
		"GLP_ADMIN_USERNAME": &c.Admin.Username,
		"GLP_ADMIN_EMAIL":    &c.Admin.Email,
		"GLP_ADMIN_PASSWORD": &c.Admin.Password,
		"GLP_RESEND_KEY":     &c.Email.ResendKey,
		"GLP_RESEND_FROM":    &c.Email.From,
		"GLP_REPLY_TO":       &c.Email.ReplyTo,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	ints := map[string]*int{
		"GLP_SLOW_QUERY_MS":         &c.SlowQueryMs,
		"GLP_SLOW_REQUEST_MS":       &c.SlowRequestMs,
		"GLP_RATE_LIMIT_PER_SECOND": &c.RateLimitPerSecond,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}

	if v := os.Getenv("GLP_SESSION_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("GLP_SESSION_LIFETIME: %w", err)
		}
		c.SessionLifetime = d
	}
	if v := os.Getenv("GLP_SEED_DEMO"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("GLP_SEED_DEMO: %w", err)
		}
		c.SeedDemo = b
	}
	return nil
}

// Validate checks the settings that would otherwise fail at request time.
func (c *Config) Validate() error {
	var problems []string
	if c.Addr == "" {
		problems = append(problems, "addr is required")
	}
	if c.DatabasePath == "" {
		problems = append(problems, "database_path is required")
	}
	if c.SessionLifetime <= 0 {
		problems = append(problems, "session_lifetime must be positive")
	}
	if c.RateLimitPerSecond < 1 {
		problems = append(problems, "rate_limit_per_second must be at least 1")
	}
	if c.CSRFKey != "" {
		if key, err := hex.DecodeString(c.CSRFKey); err != nil || len(key) != 32 {
			problems = append(problems, "csrf_key must be 64 hex characters (32 bytes)")
		}
	} else if c.IsProduction() {
		problems = append(problems, "csrf_key is required in production")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		problems = append(problems, err.Error())
	}
	if len(problems) > 0 {
		return errors.New("invalid config: " + strings.Join(problems, "; "))
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// CSRFKeyBytes returns the decoded CSRF key, or a random one when none is configured.
// A random key invalidates every form token on restart.
// PRE: Validate has passed
func (c *Config) CSRFKeyBytes() ([]byte, error) {
	if c.CSRFKey != "" {
		return hex.DecodeString(c.CSRFKey)
	}
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		return nil, fmt.Errorf("generate csrf key: %w", err)
	}
	slog.Warn("config_warning", "event", "random_csrf_key", "hint", "set GLP_CSRF_KEY so form tokens survive restarts")
	return key, nil
}

// SlogLevel returns the configured log level.
// PRE: Validate has passed
func (c *Config) SlogLevel() slog.Level {
	l, _ := parseLevel(c.LogLevel)
	return l
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log_level %q is not one of debug, info, warn, error", s)
	}
	return l, nil
}

// SlowQuery returns the slow-query threshold.
func (c *Config) SlowQuery() time.Duration {
	return time.Duration(c.SlowQueryMs) * time.Millisecond
}

// SlowRequest returns the slow-request threshold.
func (c *Config) SlowRequest() time.Duration {
	return time.Duration(c.SlowRequestMs) * time.Millisecond
}
