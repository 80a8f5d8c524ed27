package main

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"timeline/internal/shared/logger"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clientIP(t *testing.T, cfg *ServerConfig, forwarded string) string {
	t.Helper()
	app := fiber.New(fiberConfig(cfg, logger.NewNopLogger()))
	app.Get("/ip", func(c *fiber.Ctx) error {
		return c.SendString(c.IP())
	})

	req := httptest.NewRequest(http.MethodGet, "/ip", nil)
	req.Header.Set("X-Forwarded-For", forwarded)
	resp, err := app.Test(req)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestFiberConfig_ProxyHeaderNeedsTrustedProxy(t *testing.T) {
	tests := []struct {
		name string
		cfg  ServerConfig
	}{
		{name: "no proxy header", cfg: ServerConfig{}},
		{name: "untrusted sender", cfg: ServerConfig{ProxyHeader: fiber.HeaderXForwardedFor, TrustedProxies: []string{"10.0.0.1"}}},
		{name: "no trusted proxies", cfg: ServerConfig{ProxyHeader: fiber.HeaderXForwardedFor}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotEqual(t, "198.51.100.7", clientIP(t, &tt.cfg, "198.51.100.7"))
		})
	}
}

func TestFiberConfig_TrustCheckFollowsProxyHeader(t *testing.T) {
	cfg := fiberConfig(&ServerConfig{ProxyHeader: fiber.HeaderXForwardedFor, TrustedProxies: []string{"10.0.0.1"}}, nil)

	assert.True(t, cfg.EnableTrustedProxyCheck)
	assert.Equal(t, fiber.HeaderXForwardedFor, cfg.ProxyHeader)
	assert.Equal(t, []string{"10.0.0.1"}, cfg.TrustedProxies)
	assert.False(t, fiberConfig(&ServerConfig{}, nil).EnableTrustedProxyCheck)
}
