package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabasePath != "data/notify-agent.db" {
		t.Errorf("DatabasePath = %s, want data/notify-agent.db", cfg.DatabasePath)
	}
	if cfg.APIPort != 8575 {
		t.Errorf("APIPort = %d, want 8575", cfg.APIPort)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %s, want info", cfg.LogLevel)
	}
	if cfg.SweepInterval() != 15*time.Minute {
		t.Errorf("SweepInterval = %v, want 15m", cfg.SweepInterval())
	}
	if cfg.ProbeTimeout() != 3*time.Second {
		t.Errorf("ProbeTimeout = %v, want 3s", cfg.ProbeTimeout())
	}
	if cfg.OwnPackage != "com.notifylab.agent" {
		t.Errorf("OwnPackage = %s", cfg.OwnPackage)
	}
}

func TestLoad_CustomValues(t *testing.T) {
	t.Setenv("DATABASE_PATH", "/tmp/agent.db")
	t.Setenv("API_PORT", "9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("SWEEP_INTERVAL_MINUTES", "5")
	t.Setenv("ENDPOINT_URL", "https://hooks.example.com/notify")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.DatabasePath != "/tmp/agent.db" {
		t.Errorf("DatabasePath = %s, want /tmp/agent.db", cfg.DatabasePath)
	}
	if cfg.APIPort != 9090 {
		t.Errorf("APIPort = %d, want 9090", cfg.APIPort)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %s, want debug", cfg.LogLevel)
	}
	if cfg.SweepInterval() != 5*time.Minute {
		t.Errorf("SweepInterval = %v, want 5m", cfg.SweepInterval())
	}
	if cfg.SeedEndpointURL != "https://hooks.example.com/notify" {
		t.Errorf("SeedEndpointURL = %s", cfg.SeedEndpointURL)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	t.Setenv("API_PORT", "70000")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for out-of-range API_PORT, got nil")
	}

	t.Setenv("API_PORT", "8575")
	t.Setenv("SWEEP_INTERVAL_MINUTES", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for zero sweep interval, got nil")
	}
}
