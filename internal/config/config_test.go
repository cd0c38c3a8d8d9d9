package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigMethods(t *testing.T) {
	t.Run("Addr returns formatted port", func(t *testing.T) {
		cfg := &Config{Port: 3000}
		assert.Equal(t, ":3000", cfg.Addr())
	})

	t.Run("SessionTTL converts seconds to duration", func(t *testing.T) {
		cfg := &Config{SessionTTLSeconds: 300}
		assert.Equal(t, 5*time.Minute, cfg.SessionTTL())
	})

	t.Run("ResetTokenTTL converts seconds to duration", func(t *testing.T) {
		cfg := &Config{ResetTokenTTLSeconds: 1800}
		assert.Equal(t, 30*time.Minute, cfg.ResetTokenTTL())
	})

	t.Run("PollInterval converts seconds to duration", func(t *testing.T) {
		cfg := &Config{PollIntervalSeconds: 5}
		assert.Equal(t, 5*time.Second, cfg.PollInterval())
	})
}

func TestValidate(t *testing.T) {
	t.Run("redis store requires REDIS_URL", func(t *testing.T) {
		cfg := &Config{SessionStore: "redis"}
		assert.Error(t, cfg.Validate(false))

		cfg.RedisURL = "redis://localhost:6379"
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("memory store needs no redis", func(t *testing.T) {
		cfg := &Config{SessionStore: "memory"}
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("unknown store is rejected", func(t *testing.T) {
		cfg := &Config{SessionStore: "dynamo"}
		assert.Error(t, cfg.Validate(false))
	})

	t.Run("admin password hash must be bcrypt", func(t *testing.T) {
		cfg := &Config{SessionStore: "memory", AdminPasswordHash: "plaintext"}
		assert.Error(t, cfg.Validate(false))

		cfg.AdminPasswordHash = "$2b$12$abcdefghijklmnopqrstuv"
		assert.NoError(t, cfg.Validate(false))
	})

	t.Run("production requires a strong JWT secret", func(t *testing.T) {
		cfg := &Config{SessionStore: "memory", JWTSecret: "secret"}
		assert.Error(t, cfg.Validate(true))

		cfg.JWTSecret = "0123456789abcdef0123456789abcdef"
		assert.NoError(t, cfg.Validate(true))
	})
}

func TestLoad(t *testing.T) {
	originalEnv := map[string]string{
		"PORT":                    os.Getenv("PORT"),
		"DATABASE_URL":            os.Getenv("DATABASE_URL"),
		"REDIS_URL":               os.Getenv("REDIS_URL"),
		"SESSION_STORE":           os.Getenv("SESSION_STORE"),
		"SESSION_TTL_SECONDS":     os.Getenv("SESSION_TTL_SECONDS"),
		"RESET_TOKEN_TTL_SECONDS": os.Getenv("RESET_TOKEN_TTL_SECONDS"),
		"LOG_LEVEL":               os.Getenv("LOG_LEVEL"),
	}

	defer func() {
		for k, v := range originalEnv {
			if v == "" {
				os.Unsetenv(k)
			} else {
				os.Setenv(k, v)
			}
		}
	}()

	t.Run("loads config with defaults", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Unsetenv("PORT")
		os.Unsetenv("SESSION_STORE")
		os.Unsetenv("SESSION_TTL_SECONDS")
		os.Unsetenv("RESET_TOKEN_TTL_SECONDS")
		os.Unsetenv("LOG_LEVEL")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 8080, cfg.Port)
		assert.Equal(t, "postgres://localhost/test", cfg.DatabaseURL)
		assert.Equal(t, "redis", cfg.SessionStore)
		assert.Equal(t, 300, cfg.SessionTTLSeconds)
		assert.Equal(t, 1800, cfg.ResetTokenTTLSeconds)
		assert.Equal(t, "info", cfg.LogLevel)
	})

	t.Run("loads custom values", func(t *testing.T) {
		os.Setenv("DATABASE_URL", "postgres://localhost/test")
		os.Setenv("PORT", "3000")
		os.Setenv("SESSION_STORE", "memory")
		os.Setenv("SESSION_TTL_SECONDS", "60")
		os.Setenv("LOG_LEVEL", "debug")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 3000, cfg.Port)
		assert.Equal(t, "memory", cfg.SessionStore)
		assert.Equal(t, 60, cfg.SessionTTLSeconds)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("fails without required DATABASE_URL", func(t *testing.T) {
		os.Unsetenv("DATABASE_URL")

		_, err := Load()
		assert.Error(t, err)
	})
}
