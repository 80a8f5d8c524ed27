package di_test

import (
	"context"
	"testing"

	authconfig "timeline/internal/auth/config"
	"timeline/internal/di"
	sessionconfig "timeline/internal/session/config"
	timelineconfig "timeline/internal/timeline/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func memorySessionConfig() *sessionconfig.Config {
	cfg := sessionconfig.DefaultConfig()
	cfg.Store = sessionconfig.StoreMemory
	return cfg
}

func TestContainer_InitializationOrder(t *testing.T) {
	c := di.NewContainer(nil, nil)
	ctx := context.Background()

	err := c.InitializeAuth(ctx, authconfig.DefaultConfig())
	assert.ErrorContains(t, err, "session module")

	require.NoError(t, c.InitializeSession(memorySessionConfig()))

	err = c.InitializeAuth(ctx, authconfig.DefaultConfig())
	assert.ErrorContains(t, err, "MongoDB")

	err = c.InitializeTimeline(ctx, timelineconfig.DefaultConfig())
	assert.ErrorContains(t, err, "auth module")
}

func TestContainer_UnknownSessionStore(t *testing.T) {
	c := di.NewContainer(nil, nil)
	cfg := sessionconfig.DefaultConfig()
	cfg.Store = "memcached"

	assert.Error(t, c.InitializeSession(cfg))
}

func TestContainer_HealthCheckAndCleanup(t *testing.T) {
	c := di.NewContainer(nil, nil)
	require.NoError(t, c.InitializeSession(memorySessionConfig()))

	status, err := c.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"session_store": "HEALTHY"}, status)

	require.NoError(t, c.Close())
	assert.Nil(t, c.SessionModule)
	require.NoError(t, c.Cleanup(context.Background()))

	status, err = c.HealthCheck(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, status)
}

func TestContainer_ConnectMongoFailure(t *testing.T) {
	c := di.NewContainer(nil, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 0)
	defer cancel()

	err := c.ConnectMongo(ctx, "mongodb://127.0.0.1:1/?serverSelectionTimeoutMS=100", "timeline")

	assert.Error(t, err)
	assert.Nil(t, c.MongoDB)
}
