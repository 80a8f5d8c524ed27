package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
)

// Store backends.
const (
	StoreRedis  = "redis"
	StoreMemory = "memory"
)

// Config holds all configuration for the session module.
type Config struct {
	// Cookie
	CookieName     string `env:"SESSION_COOKIE_NAME" envDefault:"timeline_session"`
	CookiePath     string `env:"SESSION_COOKIE_PATH" envDefault:"/"`
	CookieDomain   string `env:"SESSION_COOKIE_DOMAIN" envDefault:""`
	CookieSecure   bool   `env:"SESSION_SECURE" envDefault:"false"`
	CookieSameSite string `env:"SESSION_SAME_SITE" envDefault:"Strict"`

	// Lifecycle
	RotateAfter time.Duration `env:"SESSION_ROTATE_AFTER" envDefault:"1800s"`
	IdleTTL     time.Duration `env:"SESSION_IDLE_TTL" envDefault:"2h"`

	// Backend
	Store     string `env:"SESSION_STORE" envDefault:"redis"`
	KeyPrefix string `env:"SESSION_KEY_PREFIX" envDefault:"session:"`
	Redis     RedisConfig
}

// RedisConfig configures the Redis connection backing the session store.
type RedisConfig struct {
	Host            string        `env:"REDIS_HOST" envDefault:"localhost"`
	Port            string        `env:"REDIS_PORT" envDefault:"6379"`
	Password        string        `env:"REDIS_PASSWORD" envDefault:""`
	Database        int           `env:"REDIS_DB" envDefault:"0"`
	MaxRetries      int           `env:"REDIS_MAX_RETRIES" envDefault:"3"`
	PoolSize        int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	MinIdleConns    int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	EnableTLS       bool          `env:"REDIS_TLS" envDefault:"false"`
	ConnMaxIdleTime time.Duration `env:"REDIS_CONN_MAX_IDLE_TIME" envDefault:"30m"`
	ConnMaxLifetime time.Duration `env:"REDIS_CONN_MAX_LIFETIME" envDefault:"1h"`
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return net.JoinHostPort(r.Host, r.Port)
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load session configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the defaults without reading the environment.
func DefaultConfig() *Config {
	return &Config{
		CookieName:     "timeline_session",
		CookiePath:     "/",
		CookieSameSite: "Strict",
		RotateAfter:    1800 * time.Second,
		IdleTTL:        2 * time.Hour,
		Store:          StoreMemory,
		KeyPrefix:      "session:",
		Redis: RedisConfig{
			Host:            "localhost",
			Port:            "6379",
			MaxRetries:      3,
			PoolSize:        10,
			MinIdleConns:    2,
			ConnMaxIdleTime: 30 * time.Minute,
			ConnMaxLifetime: time.Hour,
		},
	}
}

// Validate normalizes SameSite and checks durations and the backend name.
func (c *Config) Validate() error {
	if c.CookieName == "" {
		return errors.New("session cookie name is required")
	}

	switch strings.ToLower(c.CookieSameSite) {
	case "strict":
		c.CookieSameSite = "Strict"
	case "lax":
		c.CookieSameSite = "Lax"
	case "none":
		c.CookieSameSite = "None"
		if !c.CookieSecure {
			return errors.New("session_same_site=None requires SESSION_SECURE=true")
		}
	default:
		return errors.New("session_same_site must be one of 'Strict', 'Lax', or 'None'")
	}

	if c.RotateAfter <= 0 {
		return errors.New("session_rotate_after must be positive")
	}
	if c.IdleTTL <= 0 {
		return errors.New("session_idle_ttl must be positive")
	}

	switch c.Store {
	case StoreRedis, StoreMemory:
	default:
		return fmt.Errorf("unknown session store %q", c.Store)
	}
	return nil
}
