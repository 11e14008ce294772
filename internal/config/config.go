// Package config loads server configuration from DINKUP_* environment variables.
package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix is prepended to every variable name
const EnvPrefix = "DINKUP_"

// Config is the server configuration
type Config struct {
	Host string `env:"HOST" envDefault:"0.0.0.0"`
	Port int    `env:"PORT" envDefault:"8080"`

	// StorageType is one of memory, redis, postgres or sqlite
	StorageType string `env:"STORAGE_TYPE" envDefault:"memory"`
	RedisURL    string `env:"REDIS_URL"`
	DatabaseDSN string `env:"DATABASE_DSN"`

	JWTSecret string        `env:"JWT_SECRET"`
	TokenTTL  time.Duration `env:"TOKEN_TTL" envDefault:"24h"`

	AdminsExempt   bool          `env:"ADMINS_EXEMPT" envDefault:"true"`
	PayLinkBaseURL string        `env:"PAYLINK_BASE_URL" envDefault:"https://venmo.com/"`
	ReminderWindow time.Duration `env:"REMINDER_WINDOW" envDefault:"24h"`
	// Timezone is an IANA zone name used when showing session times to players
	Timezone string `env:"TIMEZONE" envDefault:"UTC"`

	// EventsChannel is the Redis pub/sub channel for events; empty disables publishing
	EventsChannel string `env:"EVENTS_CHANNEL" envDefault:"dinkup:events"`

	OTelEndpoint string `env:"OTEL_ENDPOINT"`
	ServiceName  string `env:"SERVICE_NAME" envDefault:"dinkup"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load parses configuration from the process environment
func Load() (Config, error) {
	return parse(env.Options{Prefix: EnvPrefix})
}

// LoadFrom parses configuration from the given variables instead of the process environment
func LoadFrom(vars map[string]string) (Config, error) {
	return parse(env.Options{Prefix: EnvPrefix, Environment: vars})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the selected storage has what it needs
func (c Config) Validate() error {
	switch c.StorageType {
	case "memory":
	case "redis":
		if c.RedisURL == "" {
			return errors.New("DINKUP_REDIS_URL required when DINKUP_STORAGE_TYPE=redis")
		}
	case "postgres", "sqlite":
		if c.DatabaseDSN == "" {
			return fmt.Errorf("DINKUP_DATABASE_DSN required when DINKUP_STORAGE_TYPE=%s", c.StorageType)
		}
	default:
		return fmt.Errorf("invalid DINKUP_STORAGE_TYPE %q: must be memory, redis, postgres or sqlite", c.StorageType)
	}
	if c.JWTSecret == "" {
		return errors.New("DINKUP_JWT_SECRET is required")
	}
	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid DINKUP_TIMEZONE %q: %w", c.Timezone, err)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid DINKUP_PORT %d", c.Port)
	}
	return nil
}

// Location returns the configured time zone, falling back to UTC
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Addr returns the HTTP listen address
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}
