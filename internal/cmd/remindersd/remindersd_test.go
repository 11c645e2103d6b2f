package remindersd

import (
	"flag"
	"testing"
	"time"
)

func TestParseConfig_ParsesDefaultsAndFlags(t *testing.T) {
	fs := flag.NewFlagSet("remindersd", flag.ContinueOnError)
	t.Setenv("MURMUR_REMINDERS_PORT", "9190")
	t.Setenv("MURMUR_REMINDERS_REMOTE_URL", "https://api.murmur.test")

	cfg, err := ParseConfig(fs, []string{"-user-id", "user-e2e", "-locale", "pt-BR"})
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 9190 {
		t.Fatalf("port = %d, want 9190", cfg.Port)
	}
	if cfg.RemoteBaseURL != "https://api.murmur.test" {
		t.Fatalf("remote url = %q", cfg.RemoteBaseURL)
	}
	if cfg.UserID != "user-e2e" {
		t.Fatalf("user id = %q, want %q", cfg.UserID, "user-e2e")
	}
	if cfg.Locale != "pt-BR" {
		t.Fatalf("locale = %q, want %q", cfg.Locale, "pt-BR")
	}
}

func TestParseConfig_Defaults(t *testing.T) {
	fs := flag.NewFlagSet("remindersd", flag.ContinueOnError)

	cfg, err := ParseConfig(fs, nil)
	if err != nil {
		t.Fatalf("parse config: %v", err)
	}
	if cfg.Port != 8090 {
		t.Fatalf("port = %d, want 8090", cfg.Port)
	}
	if cfg.DBPath != "data/reminders.db" {
		t.Fatalf("db path = %q", cfg.DBPath)
	}
	if cfg.Locale != "en" {
		t.Fatalf("locale = %q, want en", cfg.Locale)
	}
	if cfg.SchedulingDisabled {
		t.Fatal("scheduling disabled by default")
	}
	if cfg.DriftCheckInterval != 10*time.Minute {
		t.Fatalf("drift interval = %v, want 10m", cfg.DriftCheckInterval)
	}
}
