package config

import (
	"errors"
	"time"

	"github.com/caarlos0/env/v6"
	"golang.org/x/crypto/bcrypt"
)

// Config holds all configuration for the auth module.
type Config struct {
	// MongoDB Configuration
	MongoDBURI   string `env:"MONGODB_URI,required"`
	DatabaseName string `env:"DATABASE_NAME" envDefault:"timeline"`

	// Password hashing
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// Failed logins are answered after a random delay in [FailureDelayMin, FailureDelayMax].
	FailureDelayMin time.Duration `env:"LOGIN_FAILURE_DELAY_MIN" envDefault:"100ms"`
	FailureDelayMax time.Duration `env:"LOGIN_FAILURE_DELAY_MAX" envDefault:"500ms"`

	// Rate limiting for POST /login and POST /signup, per client IP.
	RateLimit       int           `env:"LOGIN_RATE_LIMIT" envDefault:"10"`
	RateLimitWindow time.Duration `env:"LOGIN_RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.New("failed to load auth configuration from environment: " + err.Error() +
			". Please ensure all required environment variables are set.")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the defaults without reading the environment.
func DefaultConfig() *Config {
	return &Config{
		DatabaseName:    "timeline",
		BcryptCost:      bcrypt.DefaultCost,
		FailureDelayMin: 100 * time.Millisecond,
		FailureDelayMax: 500 * time.Millisecond,
		RateLimit:       10,
		RateLimitWindow: time.Minute,
	}
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return errors.New("bcrypt_cost out of range")
	}
	if c.FailureDelayMin < 0 || c.FailureDelayMax < c.FailureDelayMin {
		return errors.New("login failure delay range is invalid")
	}
	if c.RateLimit <= 0 || c.RateLimitWindow <= 0 {
		return errors.New("login rate limit must be positive")
	}
	return nil
}
