package config

import (
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
)

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		t.Fatalf("env.Parse: %v", err)
	}
	if cfg.Env != "development" {
		t.Errorf("Env = %q, want development", cfg.Env)
	}
	if cfg.StorePath != "./data/settlement" {
		t.Errorf("StorePath = %q, want ./data/settlement", cfg.StorePath)
	}
	if cfg.ShutdownTimeout != 10*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 10s", cfg.ShutdownTimeout)
	}
	if cfg.IsProd() {
		t.Errorf("IsProd() = true for default environment")
	}
}

func TestEnvironmentOverride(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("STORE_PATH", "/var/lib/settlement")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		t.Fatalf("env.Parse: %v", err)
	}
	if !cfg.IsProd() {
		t.Errorf("IsProd() = false, want true")
	}
	if cfg.StorePath != "/var/lib/settlement" {
		t.Errorf("StorePath = %q, want /var/lib/settlement", cfg.StorePath)
	}
	if cfg.ShutdownTimeout != 30*time.Second {
		t.Errorf("ShutdownTimeout = %v, want 30s", cfg.ShutdownTimeout)
	}
}
