// Package config loads and validates all settings at startup. Every other
// package receives typed values; nothing reads os.Getenv directly.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the fully-parsed application configuration.
type Config struct {
	// ── Server ────────────────────────────────────────────────────────────────
	Port           string        `mapstructure:"PORT"`
	Env            string        `mapstructure:"ENV"`      // "development" | "staging" | "production"
	BaseURL        string        `mapstructure:"BASE_URL"` // used in report links
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`

	// ── Database ──────────────────────────────────────────────────────────────
	DatabaseURL    string `mapstructure:"DATABASE_URL"`
	DBMaxOpenConns int    `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns int    `mapstructure:"DB_MAX_IDLE_CONNS"`

	// ── Resend ────────────────────────────────────────────────────────────────
	// Optional. Without RESEND_API_KEY notifications are only logged.
	ResendAPIKey      string `mapstructure:"RESEND_API_KEY"`
	EmailFromAddr     string `mapstructure:"EMAIL_FROM_ADDR"`
	EmailFromName     string `mapstructure:"EMAIL_FROM_NAME"`
	ReportNotifyEmail string `mapstructure:"REPORT_NOTIFY_EMAIL"` // empty disables notifications

	// ── Worker ────────────────────────────────────────────────────────────────
	WorkerCount  int           `mapstructure:"WORKER_COUNT"`
	PollInterval time.Duration `mapstructure:"POLL_INTERVAL"`
	JobTimeout   time.Duration `mapstructure:"JOB_TIMEOUT"`
	MaxRetries   int           `mapstructure:"MAX_RETRIES"`
}

var defaults = map[string]any{
	"PORT":                "8080",
	"ENV":                 "development",
	"BASE_URL":            "http://localhost:8080",
	"REQUEST_TIMEOUT":     "30s",
	"DB_MAX_OPEN_CONNS":   25,
	"DB_MAX_IDLE_CONNS":   10,
	"EMAIL_FROM_ADDR":     "reports@localhost",
	"EMAIL_FROM_NAME":     "Care Recommendations",
	"REPORT_NOTIFY_EMAIL": "",
	"WORKER_COUNT":        2,
	"POLL_INTERVAL":       "30s",
	"JOB_TIMEOUT":         "2m",
	"MAX_RETRIES":         3,
}

// keys without a default still need binding so Unmarshal sees them.
var unset = []string{"DATABASE_URL", "RESEND_API_KEY"}

// Load reads .env from the working directory when present, then the
// environment. Real environment variables always win over the file.
func Load() (*Config, error) {
	return LoadFile(".env")
}

// LoadFile is Load with an explicit dotenv path. A missing file is ignored.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	v.AutomaticEnv()

	for key, val := range defaults {
		v.SetDefault(key, val)
		_ = v.BindEnv(key)
	}
	for _, key := range unset {
		_ = v.BindEnv(key)
	}

	// Try reading the file, but don't fail if missing.
	_ = v.ReadInConfig()

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, c.validate()
}

// IsProduction reports whether the JSON log handler should be used.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func (c *Config) validate() error {
	var errs []error

	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("missing required setting: DATABASE_URL"))
	}

	switch c.Env {
	case "development", "staging", "production":
	default:
		errs = append(errs, fmt.Errorf("ENV must be development, staging or production, got %q", c.Env))
	}

	if c.WorkerCount <= 0 {
		errs = append(errs, fmt.Errorf("WORKER_COUNT must be positive, got %d", c.WorkerCount))
	}
	if c.MaxRetries <= 0 {
		errs = append(errs, fmt.Errorf("MAX_RETRIES must be positive, got %d", c.MaxRetries))
	}
	for name, d := range map[string]time.Duration{
		"POLL_INTERVAL":   c.PollInterval,
		"JOB_TIMEOUT":     c.JobTimeout,
		"REQUEST_TIMEOUT": c.RequestTimeout,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be a positive duration, got %s", name, d))
		}
	}

	if c.ResendAPIKey != "" && c.EmailFromAddr == "" {
		errs = append(errs, errors.New("EMAIL_FROM_ADDR is required when RESEND_API_KEY is set"))
	}

	return errors.Join(errs...)
}
