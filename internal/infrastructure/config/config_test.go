package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("loads default values when env vars not set", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "printmarket-orders", cfg.App.Name)
		assert.Equal(t, "development", cfg.App.Env)
		assert.Equal(t, "8080", cfg.App.Port)
		assert.Equal(t, DriverPostgres, cfg.Database.Driver)
		assert.Equal(t, "localhost", cfg.Database.Host)
		assert.Equal(t, 5432, cfg.Database.Port)
		assert.Equal(t, "printmarket", cfg.Database.DBName)
		assert.Equal(t, "disable", cfg.Database.SSLMode)
		assert.Equal(t, 25, cfg.Database.MaxOpenConns)
		assert.Equal(t, 5, cfg.Database.MaxIdleConns)
		assert.Equal(t, 2*time.Second, cfg.Order.LockWait)
		assert.Equal(t, LockBackendMemory, cfg.Order.LockBackend)
		assert.Equal(t, cfg.Order.LockWait, cfg.Order.DBLockTimeout)
		assert.Equal(t, 24*time.Hour, cfg.Event.IdempotencyTTL)
		assert.Equal(t, cfg.App.Name, cfg.Telemetry.ServiceName)
		assert.False(t, cfg.Telemetry.Enabled)
		assert.Equal(t, 60*time.Second, cfg.Telemetry.MetricsInterval)
		assert.True(t, cfg.Event.ProcessorEnabled)
		assert.True(t, cfg.Event.CleanupEnabled)
	})

	t.Run("environment overrides defaults", func(t *testing.T) {
		t.Setenv("PRINTMARKET_APP_PORT", "9090")
		t.Setenv("PRINTMARKET_DATABASE_HOST", "db.internal")
		t.Setenv("PRINTMARKET_DATABASE_PORT", "5433")
		t.Setenv("PRINTMARKET_ORDER_LOCK_WAIT", "500ms")
		t.Setenv("PRINTMARKET_ORDER_LOCK_BACKEND", "redis")
		t.Setenv("PRINTMARKET_REDIS_HOST", "cache.internal")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "9090", cfg.App.Port)
		assert.Equal(t, "db.internal", cfg.Database.Host)
		assert.Equal(t, 5433, cfg.Database.Port)
		assert.Equal(t, 500*time.Millisecond, cfg.Order.LockWait)
		assert.Equal(t, LockBackendRedis, cfg.Order.LockBackend)
		assert.Equal(t, "cache.internal:6379", cfg.Redis.Addr())
	})

	t.Run("rejects unknown lock backend", func(t *testing.T) {
		t.Setenv("PRINTMARKET_ORDER_LOCK_BACKEND", "etcd")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "order.lock_backend")
	})

	t.Run("rejects redis lock ttl shorter than the wait", func(t *testing.T) {
		t.Setenv("PRINTMARKET_ORDER_LOCK_BACKEND", "redis")
		t.Setenv("PRINTMARKET_ORDER_LOCK_WAIT", "5s")
		t.Setenv("PRINTMARKET_ORDER_LOCK_TTL", "1s")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "order.lock_ttl")
	})

	t.Run("rejects unknown database driver", func(t *testing.T) {
		t.Setenv("PRINTMARKET_DATABASE_DRIVER", "mysql")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver")
	})

	t.Run("rejects idle conns above open conns", func(t *testing.T) {
		t.Setenv("PRINTMARKET_DATABASE_MAX_OPEN_CONNS", "2")
		t.Setenv("PRINTMARKET_DATABASE_MAX_IDLE_CONNS", "5")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot exceed")
	})
}

func TestLoad_ProductionValidation(t *testing.T) {
	setValidProductionBase := func(t *testing.T) {
		t.Setenv("PRINTMARKET_APP_ENV", "production")
		t.Setenv("PRINTMARKET_JWT_SECRET", "this-is-a-very-secure-jwt-secret-key-32chars")
		t.Setenv("PRINTMARKET_DATABASE_PASSWORD", "secure-password")
		t.Setenv("PRINTMARKET_DATABASE_SSLMODE", "require")
	}

	t.Run("requires jwt.secret in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("PRINTMARKET_JWT_SECRET", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret is required in production")
	})

	t.Run("requires jwt.secret at least 32 characters in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("PRINTMARKET_JWT_SECRET", "short-secret")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "jwt.secret must be at least 32 characters")
	})

	t.Run("requires database.password in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("PRINTMARKET_DATABASE_PASSWORD", "")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.password is required in production")
	})

	t.Run("requires SSL enabled in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("PRINTMARKET_DATABASE_SSLMODE", "disable")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.sslmode cannot be 'disable' in production")
	})

	t.Run("rejects sqlite in production", func(t *testing.T) {
		setValidProductionBase(t)
		t.Setenv("PRINTMARKET_DATABASE_DRIVER", "sqlite")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "database.driver must be postgres in production")
	})

	t.Run("passes validation with valid production config", func(t *testing.T) {
		setValidProductionBase(t)

		cfg, err := Load()
		require.NoError(t, err)
		assert.Equal(t, "production", cfg.App.Env)
	})
}

func TestDatabaseConfig_DSN(t *testing.T) {
	t.Run("generates valid DSN", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "testuser",
			Password: "testpass",
			DBName:   "testdb",
			SSLMode:  "disable",
		}

		dsn := cfg.DSN()
		assert.Contains(t, dsn, "localhost:5432")
		assert.Contains(t, dsn, "testuser")
		assert.Contains(t, dsn, "/testdb")
		assert.Contains(t, dsn, "sslmode=disable")
	})

	t.Run("escapes special characters in password", func(t *testing.T) {
		cfg := DatabaseConfig{
			Host:     "localhost",
			Port:     5432,
			User:     "user",
			Password: "pass@word#123",
			DBName:   "db",
			SSLMode:  "disable",
		}

		assert.Contains(t, cfg.DSN(), "pass%40word%23123")
	})
}
