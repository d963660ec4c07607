package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Config reads for the rest of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LOG_LEVEL", "LOG_FORMAT", "PORT", "CLIENT_ORIGIN", "HANDLER_TIMEOUT",
		"STORAGE_DRIVER", "SQLITE_PATH", "REDIS_HOST", "REDIS_PORT", "REDIS_DB",
		"REDIS_PREFIX", "STRICT_TURNS",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestLoad(t *testing.T) {
	t.Run("Defaults without a file", func(t *testing.T) {
		// Given: no config file and no overrides
		clearEnv(t)

		// When: loading
		cfg, err := Load(filepath.Join(t.TempDir(), "missing.yml"))

		// Then: defaults apply
		require.NoError(t, err)
		assert.Equal(t, "5000", cfg.HTTPPort)
		assert.Equal(t, DriverSQLite, cfg.Storage.Driver)
		assert.Equal(t, "./data/gomoku.db", cfg.Storage.SQLitePath)
		assert.Equal(t, 10*time.Second, cfg.HandlerTimeout)
		assert.Equal(t, "*", cfg.ClientOrigin)
		assert.False(t, cfg.Game.StrictTurns)
		assert.Equal(t, "localhost:6379", cfg.Redis.GetRedisAddr())
	})

	t.Run("Environment overrides", func(t *testing.T) {
		// Given: overrides in the environment
		clearEnv(t)
		t.Setenv("PORT", "8088")
		t.Setenv("STORAGE_DRIVER", "memory")
		t.Setenv("STRICT_TURNS", "true")
		t.Setenv("HANDLER_TIMEOUT", "3s")

		// When: loading
		cfg, err := Load("")

		// Then: they win over the defaults
		require.NoError(t, err)
		assert.Equal(t, "8088", cfg.HTTPPort)
		assert.Equal(t, DriverMemory, cfg.Storage.Driver)
		assert.True(t, cfg.Game.StrictTurns)
		assert.Equal(t, 3*time.Second, cfg.HandlerTimeout)
	})

	t.Run("YAML file", func(t *testing.T) {
		// Given: a config file selecting redis
		clearEnv(t)
		path := filepath.Join(t.TempDir(), "config.yml")
		require.NoError(t, os.WriteFile(path, []byte(`
http-port: "7000"
storage:
  driver: redis
redis:
  host: cache
  port: "6380"
  prefix: "g:1"
game:
  strict-turns: true
`), 0o600))

		// When: loading it
		cfg, err := Load(path)

		// Then: file values are used
		require.NoError(t, err)
		assert.Equal(t, "7000", cfg.HTTPPort)
		assert.Equal(t, DriverRedis, cfg.Storage.Driver)
		assert.Equal(t, "cache:6380", cfg.Redis.GetRedisAddr())
		assert.Equal(t, "g:1", cfg.Redis.Prefix)
		assert.True(t, cfg.Game.StrictTurns)
	})

	t.Run("Unknown driver", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("STORAGE_DRIVER", "postgres")

		_, err := Load("")

		assert.ErrorContains(t, err, "unknown storage driver")
	})
}
