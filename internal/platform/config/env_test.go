package config

import (
	"testing"
	"time"
)

type envTestConfig struct {
	DBPath       string        `env:"MURMUR_TEST_DB_PATH" envDefault:"data/test.db"`
	PollInterval time.Duration `env:"MURMUR_TEST_POLL_INTERVAL" envDefault:"30s"`
}

func TestParseEnvDefaults(t *testing.T) {
	cfg := envTestConfig{}
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.DBPath != "data/test.db" {
		t.Fatalf("expected default db path, got %q", cfg.DBPath)
	}
	if cfg.PollInterval != 30*time.Second {
		t.Fatalf("expected default poll interval, got %v", cfg.PollInterval)
	}
}

func TestParseEnvOverrides(t *testing.T) {
	t.Setenv("MURMUR_TEST_DB_PATH", "/tmp/override.db")
	t.Setenv("MURMUR_TEST_POLL_INTERVAL", "5s")

	cfg := envTestConfig{}
	if err := ParseEnv(&cfg); err != nil {
		t.Fatalf("parse env: %v", err)
	}
	if cfg.DBPath != "/tmp/override.db" {
		t.Fatalf("expected override db path, got %q", cfg.DBPath)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Fatalf("expected override poll interval, got %v", cfg.PollInterval)
	}
}
