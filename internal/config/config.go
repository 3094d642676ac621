package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the bot configuration. Values are read from APP_-prefixed
// environment variables.
type Config struct {
	ListenAddr string `envconfig:"LISTEN_ADDR" default:":8080"`

	DatabaseDSN string `envconfig:"DB_DSN" required:"true"`

	// CalDAV endpoint settings.
	CalDAVBaseURL       string `envconfig:"CALDAV_BASE_URL" default:"https://calendar.mail.ru"`
	CalDAVPrincipalPath string `envconfig:"CALDAV_PRINCIPAL_PATH" default:"/principals/"`
	CalDAVAuth          string `envconfig:"CALDAV_AUTH" default:"basic"`

	// Timezone all event timestamps are normalized to.
	Timezone string `envconfig:"TZ" default:"Europe/Moscow"`

	// Polling cadence. Ticks are aligned to wall-clock boundaries of this
	// interval.
	CheckInterval time.Duration `envconfig:"CHECK_INTERVAL" default:"60s"`

	// Fallback reminder lead time for events without alarms. Zero disables
	// the fallback.
	ReminderLead time.Duration `envconfig:"REMINDER_LEAD" default:"15m"`

	// Hour of day (local) after which the daily digest may be sent.
	DigestHour int `envconfig:"DIGEST_HOUR" default:"9"`

	// Maximum number of users processed concurrently within one tick.
	WorkerLimit int `envconfig:"WORKER_LIMIT" default:"4"`

	// Outbound CalDAV request pacing.
	RequestRate  float64 `envconfig:"REQUEST_RATE" default:"10"`
	RequestBurst int     `envconfig:"REQUEST_BURST" default:"20"`

	PrometheusEnabled bool   `envconfig:"PROMETHEUS_ENDPOINT_ENABLED" default:"false"`
	LogLevel          string `envconfig:"LOG_LEVEL" default:"info"`

	location *time.Location
}

// Load reads and validates configuration from the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := envconfig.Process("app", cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.DatabaseDSN == "" {
		return nil, fmt.Errorf("APP_DB_DSN is required")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", cfg.Timezone, err)
	}
	cfg.location = loc

	if cfg.CheckInterval < time.Second {
		return nil, fmt.Errorf("APP_CHECK_INTERVAL must be at least 1s (got %s)", cfg.CheckInterval)
	}
	if cfg.DigestHour < 0 || cfg.DigestHour > 23 {
		return nil, fmt.Errorf("APP_DIGEST_HOUR must be in [0,23] (got %d)", cfg.DigestHour)
	}
	if cfg.WorkerLimit < 1 {
		return nil, fmt.Errorf("APP_WORKER_LIMIT must be positive (got %d)", cfg.WorkerLimit)
	}
	switch cfg.CalDAVAuth {
	case "basic", "digest":
	default:
		return nil, fmt.Errorf("APP_CALDAV_AUTH must be \"basic\" or \"digest\" (got %q)", cfg.CalDAVAuth)
	}
	if cfg.ReminderLead < 0 {
		return nil, fmt.Errorf("APP_REMINDER_LEAD must not be negative (got %s)", cfg.ReminderLead)
	}

	return cfg, nil
}

// Location returns the configured timezone, resolved once at load time.
func (c *Config) Location() *time.Location {
	if c.location == nil {
		return time.UTC
	}
	return c.location
}
