package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog/log"
)

var knownWeakSecrets = []string{
	"change-me", "dev-secret-change-me", "secret", "admin", "password",
}

type Config struct {
	Port                   int    `env:"PORT" envDefault:"8080"`
	DatabaseURL            string `env:"DATABASE_URL,required"`
	RedisURL               string `env:"REDIS_URL"`
	SessionStore           string `env:"SESSION_STORE" envDefault:"redis"`
	SessionTTLSeconds      int    `env:"SESSION_TTL_SECONDS" envDefault:"300"`
	ResetTokenTTLSeconds   int    `env:"RESET_TOKEN_TTL_SECONDS" envDefault:"1800"`
	PollIntervalSeconds    int    `env:"POLL_INTERVAL_SECONDS" envDefault:"5"`
	PollMaxAttempts        int    `env:"POLL_MAX_ATTEMPTS" envDefault:"60"`
	JWTSecret              string `env:"JWT_SECRET"`
	AdminPasswordHash      string `env:"ADMIN_PASSWORD_HASH"`
	MobileAuthBaseURL      string `env:"MOBILE_AUTH_BASE_URL" envDefault:"https://musicengine.vercel.app"`
	SpreadsheetSinkURL     string `env:"SPREADSHEET_SINK_URL"`
	SpreadsheetSinkTimeout int    `env:"SPREADSHEET_SINK_TIMEOUT_SECONDS" envDefault:"10"`
	LogLevel               string `env:"LOG_LEVEL" envDefault:"info"`
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLSeconds) * time.Second
}

func (c *Config) ResetTokenTTL() time.Duration {
	return time.Duration(c.ResetTokenTTLSeconds) * time.Second
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.PollIntervalSeconds) * time.Second
}

func (c *Config) SinkTimeout() time.Duration {
	return time.Duration(c.SpreadsheetSinkTimeout) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

func (c *Config) Validate(isProduction bool) error {
	switch c.SessionStore {
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when SESSION_STORE=redis")
		}
	case "memory":
		// Single-instance deployments and tests only; sessions do not
		// survive a restart and are invisible to other instances.
		if isProduction {
			log.Warn().Msg("SESSION_STORE=memory in production: pairing sessions are process-local")
		}
	default:
		return fmt.Errorf("SESSION_STORE must be redis or memory, got %q", c.SessionStore)
	}

	if c.AdminPasswordHash != "" {
		if !strings.HasPrefix(c.AdminPasswordHash, "$2a$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2b$") &&
			!strings.HasPrefix(c.AdminPasswordHash, "$2y$") {
			return fmt.Errorf("ADMIN_PASSWORD_HASH must be a bcrypt hash (generate with: go run scripts/hash-password.go <password>)")
		}
	}

	if isProduction {
		if err := validateSecret("JWT_SECRET", c.JWTSecret); err != nil {
			return err
		}
		if strings.HasPrefix(c.RedisURL, "redis://") {
			log.Warn().Msg("REDIS_URL uses redis:// (not TLS) in production: consider using rediss://")
		}
		if c.SpreadsheetSinkURL == "" {
			log.Warn().Msg("SPREADSHEET_SINK_URL is empty in production: registrations will not be forwarded")
		}
	}

	return nil
}

func validateSecret(name, value string) error {
	if len(value) < 32 {
		return fmt.Errorf("%s must be at least 32 characters in production (generate with: openssl rand -base64 32)", name)
	}
	for _, weak := range knownWeakSecrets {
		if value == weak {
			return fmt.Errorf("%s is a known weak default; set a strong secret in production", name)
		}
	}
	return nil
}

func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
