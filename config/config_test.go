package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/overtime-engine/config"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, config.DriverMemory, cfg.StoreDriver)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("OVERTIME_ADDR", ":9090")
	t.Setenv("OVERTIME_LOG_LEVEL", "debug")
	t.Setenv("OVERTIME_STORE_DRIVER", "sqlite")
	t.Setenv("OVERTIME_SQLITE_PATH", "/tmp/overtime-test.db")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, config.DriverSQLite, cfg.StoreDriver)
	assert.Equal(t, "/tmp/overtime-test.db", cfg.SQLitePath)
}

func TestLoad_FileThenEnvPrecedence(t *testing.T) {
	// GIVEN: A config file setting addr and driver, plus an env var for addr
	// WHEN: Loading
	// THEN: Env wins over file, file wins over defaults

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("addr: \":7000\"\nlog_level: warn\n"), 0o600))

	t.Setenv("OVERTIME_CONFIG", path)
	t.Setenv("OVERTIME_ADDR", ":7100")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, ":7100", cfg.Addr)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_RejectsUnknownDriver(t *testing.T) {
	t.Setenv("OVERTIME_STORE_DRIVER", "cassandra")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("OVERTIME_STORE_DRIVER", "postgres")

	_, err := config.Load()
	require.Error(t, err)
}
