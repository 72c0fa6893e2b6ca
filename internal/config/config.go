// Package config provides application configuration loaded from environment
// variables. Use the package-level Get() function to obtain the singleton
// Config instance.
package config

import (
	"fmt"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the root configuration object for the settlement engine process.
// Every field here is an ambient operational setting — storage location,
// logging behaviour, server binding. The engine's own tunables (MIN_STAKE,
// FEE_BP, the clamp bounds, …) are compile-time constants in internal/domain
// and are never read from the environment.
type Config struct {
	// Env selects the logging profile: "development" gets a human-readable
	// console encoder, "production" gets structured JSON.
	Env string `env:"ENVIRONMENT" envDefault:"development"`

	// StorePath is the directory the embedded record store opens.
	StorePath string `env:"STORE_PATH" envDefault:"./data/settlement"`

	// ListenAddr is an instruction endpoint address. cmd/engine does not read
	// it: instructions arrive on stdin and no listener is opened.
	ListenAddr string `env:"LISTEN_ADDR" envDefault:":7700"`

	// ShutdownTimeout bounds how long graceful shutdown waits for the record
	// store to close before the process exits anyway. It does not wait for an
	// in-flight instruction to finish.
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// LogLevel names a minimum zap level ("debug", "info", "warn", "error").
	// cmd/engine does not apply it; the logger's level follows the Env profile.
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// IsProd returns true when running in the production environment.
func (c *Config) IsProd() bool {
	return c.Env == "production"
}

// ──────────────────────────────────────────────────────────────────────────────
// Singleton
// ──────────────────────────────────────────────────────────────────────────────

var (
	instance *Config
	once     sync.Once
	loadErr  error
)

// Get returns the singleton Config, parsing it once from environment
// variables. Panics if parsing fails — call this early in main() to catch
// misconfiguration at startup.
func Get() *Config {
	once.Do(func() {
		instance, loadErr = load()
	})
	if loadErr != nil {
		panic(fmt.Sprintf("config: failed to load: %v", loadErr))
	}
	return instance
}

// MustLoad loads configuration and panics on any parse error. Intended for
// use in main().
func MustLoad() *Config {
	return Get()
}

func load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return cfg, nil
}
