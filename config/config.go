// Package config defines service configuration and layered loading.
//
// Precedence (low -> high): built-in defaults, YAML file named by
// OVERTIME_CONFIG, then environment variables prefixed OVERTIME_.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Store driver names accepted in configuration.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config contains process configuration.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// StoreDriver selects the backing store: memory, sqlite, or postgres.
	StoreDriver string `koanf:"store_driver"`

	// SQLitePath is the database file path when StoreDriver is sqlite.
	SQLitePath string `koanf:"sqlite_path"`

	// PostgresDSN is the connection string when StoreDriver is postgres.
	PostgresDSN string `koanf:"postgres_dsn"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:        ":8080",
		LogLevel:    "info",
		StoreDriver: DriverMemory,
		SQLitePath:  "overtime.db",
	}
}

// Load builds a Config by layering defaults, optional file, and env vars.
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("OVERTIME_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	}

	// Environment variables: OVERTIME_ADDR, OVERTIME_STORE_DRIVER, ...
	// Keys map to lowercase flat koanf tags with underscores preserved.
	envProvider := env.Provider("OVERTIME_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "overtime_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("load env config: %w", err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	switch c.StoreDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("sqlite_path must not be empty when store_driver is sqlite")
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return errors.New("postgres_dsn must not be empty when store_driver is postgres")
		}
	default:
		return fmt.Errorf("unknown store_driver %q", c.StoreDriver)
	}
	return nil
}
