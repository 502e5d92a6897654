// Package config loads process configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/emiliopalmerini/growthops/internal/adapters/otel"
	"github.com/emiliopalmerini/growthops/internal/util"
)

// Prefix is prepended to every variable name, e.g. GROWTHOPS_PORT.
const Prefix = "GROWTHOPS"

// Storage backends.
const (
	StorageMemory = "memory"
	StorageLocal  = "local"
	StorageTurso  = "turso"
)

// Config holds everything the CLI, server and dashboard need.
type Config struct {
	Storage      string `envconfig:"STORAGE" default:"local"`
	DatabasePath string `envconfig:"DATABASE_PATH"`
	DatabaseURL  string `envconfig:"DATABASE_URL"`
	AuthToken    string `envconfig:"AUTH_TOKEN"`

	Port  int    `envconfig:"PORT" default:"8080"`
	Owner string `envconfig:"OWNER" default:"Me"`

	RequireResult   bool          `envconfig:"REQUIRE_RESULT" default:"false"`
	SyncInterval    time.Duration `envconfig:"SYNC_INTERVAL" default:"5s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"10s"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`

	OTelEnabled  bool   `envconfig:"OTEL_ENABLED" default:"false"`
	OTelEndpoint string `envconfig:"OTEL_ENDPOINT" default:"localhost:4317"`
	OTelInsecure bool   `envconfig:"OTEL_INSECURE" default:"true"`
}

// Load reads the environment, fills derived defaults and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if cfg.DatabasePath == "" {
		path, err := util.DefaultDatabasePath()
		if err != nil {
			return nil, err
		}
		cfg.DatabasePath = path
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects unknown storage backends and incomplete turso settings.
func (c *Config) Validate() error {
	switch c.Storage {
	case StorageMemory, StorageLocal:
	case StorageTurso:
		if c.DatabaseURL == "" || c.AuthToken == "" {
			return errors.New("GROWTHOPS_DATABASE_URL and GROWTHOPS_AUTH_TOKEN are required for turso storage")
		}
	default:
		return fmt.Errorf("unknown storage %q, want memory, local or turso", c.Storage)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.SyncInterval <= 0 {
		return errors.New("sync interval must be positive")
	}
	return nil
}

// OTel returns the exporter settings.
func (c *Config) OTel() otel.Config {
	return otel.Config{
		Endpoint: c.OTelEndpoint,
		Enabled:  c.OTelEnabled,
		Insecure: c.OTelInsecure,
	}
}

// Addr returns the HTTP listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
