package cmd

import (
	"context"
	"flag"
	"testing"
)

type entrypointTestConfig struct {
	DBPath string `env:"MURMUR_ENTRYPOINT_TEST_DB" envDefault:"data/reminders.db"`
	Port   int    `env:"MURMUR_ENTRYPOINT_TEST_PORT" envDefault:"8090"`
}

func TestParseConfigReadsEnvAndFlags(t *testing.T) {
	t.Setenv("MURMUR_ENTRYPOINT_TEST_DB", "/tmp/env.db")

	cfg := entrypointTestConfig{}
	if err := ParseConfig(&cfg); err != nil {
		t.Fatalf("parse config: %v", err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	fs.StringVar(&cfg.DBPath, "db-path", cfg.DBPath, "db path")
	fs.IntVar(&cfg.Port, "port", cfg.Port, "port")

	if err := ParseArgs(fs, []string{"-port", "9000"}); err != nil {
		t.Fatalf("parse args: %v", err)
	}
	if cfg.DBPath != "/tmp/env.db" {
		t.Fatalf("expected env db path, got %q", cfg.DBPath)
	}
	if cfg.Port != 9000 {
		t.Fatalf("expected flag port 9000, got %d", cfg.Port)
	}
}

func TestParseConfigRejectsNilTarget(t *testing.T) {
	if err := ParseConfig[entrypointTestConfig](nil); err == nil {
		t.Fatal("expected nil target error")
	}
}

func TestParseArgsRejectsNilParser(t *testing.T) {
	if err := ParseArgs(nil, []string{}); err == nil {
		t.Fatal("expected nil parser error")
	}
}

func TestRunWithTelemetryRejectsMissingInputs(t *testing.T) {
	if err := RunWithTelemetry(context.Background(), "", func(context.Context) error { return nil }); err == nil {
		t.Fatal("expected missing service name error")
	}
	if err := RunWithTelemetry(context.Background(), ServiceReminders, nil); err == nil {
		t.Fatal("expected missing run function error")
	}
}

func TestRunWithTelemetryRunsBody(t *testing.T) {
	t.Setenv("MURMUR_OTEL_ENDPOINT", "")

	ran := false
	err := RunWithTelemetry(context.Background(), ServiceReminders, func(context.Context) error {
		ran = true
		return nil
	})
	if err != nil {
		t.Fatalf("run with telemetry: %v", err)
	}
	if !ran {
		t.Fatal("expected run body to execute")
	}
}
