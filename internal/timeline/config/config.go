package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v6"
)

// Image storage backends.
const (
	ImageStorageLocal = "local"
	ImageStorageS3    = "s3"
)

// Config holds all configuration for the timeline module.
type Config struct {
	// Posting limits
	PostMaxLength int   `env:"POST_MAX_LENGTH" envDefault:"1000"`
	ImageMaxBytes int64 `env:"IMAGE_MAX_BYTES" envDefault:"10485760"`
	TimelineLimit int64 `env:"TIMELINE_LIMIT" envDefault:"100"`

	// Timestamps on the timeline are shown in this zone.
	DisplayTimezone string `env:"TIMELINE_TIMEZONE" envDefault:"Local"`

	// Image storage
	ImageStorage   string `env:"IMAGE_STORAGE" envDefault:"local"`
	UploadDir      string `env:"UPLOAD_DIR" envDefault:"./upload/image"`
	ImageURLPrefix string `env:"IMAGE_URL_PREFIX" envDefault:"/upload/image"`
	S3             S3Config

	// Live stream
	StreamPingInterval time.Duration `env:"STREAM_PING_INTERVAL" envDefault:"30s"`
	StreamSendBuffer   int           `env:"STREAM_SEND_BUFFER" envDefault:"16"`
}

// S3Config configures the S3-compatible image store.
type S3Config struct {
	Bucket          string        `env:"S3_BUCKET"`
	Region          string        `env:"S3_REGION" envDefault:"us-east-1"`
	AccessKeyID     string        `env:"S3_ACCESS_KEY_ID"`
	SecretAccessKey string        `env:"S3_SECRET_ACCESS_KEY"`
	Endpoint        string        `env:"S3_ENDPOINT"`
	BaseURL         string        `env:"S3_BASE_URL"`
	ForcePathStyle  bool          `env:"S3_FORCE_PATH_STYLE" envDefault:"false"`
	KeyPrefix       string        `env:"S3_KEY_PREFIX" envDefault:"upload/image/"`
	UploadTimeout   time.Duration `env:"S3_UPLOAD_TIMEOUT" envDefault:"30s"`
}

// LoadConfig loads configuration from environment variables and applies defaults.
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to load timeline configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultConfig returns the defaults without reading the environment.
func DefaultConfig() *Config {
	return &Config{
		PostMaxLength:      1000,
		ImageMaxBytes:      10 << 20,
		TimelineLimit:      100,
		DisplayTimezone:    "Local",
		ImageStorage:       ImageStorageLocal,
		UploadDir:          "./upload/image",
		ImageURLPrefix:     "/upload/image",
		StreamPingInterval: 30 * time.Second,
		StreamSendBuffer:   16,
		S3: S3Config{
			Region:        "us-east-1",
			KeyPrefix:     "upload/image/",
			UploadTimeout: 30 * time.Second,
		},
	}
}

// Location resolves DisplayTimezone, falling back to the process zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.DisplayTimezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// Validate checks limits and the storage selection.
func (c *Config) Validate() error {
	if c.PostMaxLength <= 0 || c.ImageMaxBytes <= 0 || c.TimelineLimit <= 0 {
		return errors.New("post, image and timeline limits must be positive")
	}
	if c.StreamSendBuffer <= 0 || c.StreamPingInterval <= 0 {
		return errors.New("stream buffer and ping interval must be positive")
	}
	if _, err := time.LoadLocation(c.DisplayTimezone); err != nil {
		return fmt.Errorf("invalid timeline_timezone: %w", err)
	}
	switch c.ImageStorage {
	case ImageStorageLocal:
		if c.UploadDir == "" {
			return errors.New("upload_dir is required for local image storage")
		}
	case ImageStorageS3:
		if c.S3.Bucket == "" || c.S3.Region == "" {
			return errors.New("s3_bucket and s3_region are required for s3 image storage")
		}
	default:
		return fmt.Errorf("unknown image storage %q", c.ImageStorage)
	}
	return nil
}
