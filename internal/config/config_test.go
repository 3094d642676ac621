package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("APP_DB_DSN", "postgres://localhost/calbot")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.CheckInterval != 60*time.Second {
		t.Errorf("CheckInterval = %v", cfg.CheckInterval)
	}
	if cfg.DigestHour != 9 {
		t.Errorf("DigestHour = %d", cfg.DigestHour)
	}
	if cfg.CalDAVAuth != "basic" {
		t.Errorf("CalDAVAuth = %q", cfg.CalDAVAuth)
	}
	if cfg.Location().String() != "Europe/Moscow" {
		t.Errorf("Location = %v", cfg.Location())
	}
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("APP_DB_DSN", "")
	if _, err := Load(); err == nil {
		t.Fatal("expected error without database DSN")
	}
}

func TestLoadValidation(t *testing.T) {
	cases := []struct {
		name  string
		key   string
		value string
	}{
		{"bad auth scheme", "APP_CALDAV_AUTH", "ntlm"},
		{"interval too small", "APP_CHECK_INTERVAL", "500ms"},
		{"digest hour out of range", "APP_DIGEST_HOUR", "24"},
		{"zero workers", "APP_WORKER_LIMIT", "0"},
		{"negative lead", "APP_REMINDER_LEAD", "-5m"},
		{"bogus timezone", "APP_TZ", "Nowhere/Void"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("APP_DB_DSN", "postgres://localhost/calbot")
			t.Setenv(tc.key, tc.value)
			if _, err := Load(); err == nil {
				t.Errorf("expected %s=%s to fail validation", tc.key, tc.value)
			}
		})
	}
}
