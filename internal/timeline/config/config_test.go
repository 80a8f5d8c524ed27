package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 1000, cfg.PostMaxLength)
	assert.Equal(t, int64(10<<20), cfg.ImageMaxBytes)
	assert.Equal(t, int64(100), cfg.TimelineLimit)
	assert.Equal(t, ImageStorageLocal, cfg.ImageStorage)
}

func TestLoadConfig_S3RequiresBucket(t *testing.T) {
	t.Setenv("IMAGE_STORAGE", "s3")

	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("S3_BUCKET", "images")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "images", cfg.S3.Bucket)
}

func TestValidate_UnknownStorage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ImageStorage = "ftp"
	assert.Error(t, cfg.Validate())
}
