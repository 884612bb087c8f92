package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 5005, cfg.Server.Port)
	assert.Equal(t, "browser", cfg.Scraper.RenderMode)
	assert.Equal(t, 30*time.Second, cfg.Scraper.NavigationTimeout)
	assert.Equal(t, 3*time.Second, cfg.Scraper.SettleDelay)
	assert.Equal(t, []string{"Font", "Media"}, cfg.Scraper.BlockedResourceTypes)
	assert.Equal(t, ".xiaohongshu.com", cfg.Site.CookieDomain)
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowOrigins)
	assert.Empty(t, cfg.Auth.APIKeys)
	assert.True(t, cfg.Browser.Stealth)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("XHS_PORT", "9090")
	t.Setenv("XHS_NAV_TIMEOUT", "5s")
	t.Setenv("XHS_SETTLE_DELAY", "0s")
	t.Setenv("XHS_API_KEYS", " k1, ,k2 ")
	t.Setenv("XHS_RENDER_MODE", "http")
	t.Setenv("XHS_STEALTH", "false")

	cfg := Load()

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Scraper.NavigationTimeout)
	assert.Equal(t, time.Duration(0), cfg.Scraper.SettleDelay)
	assert.Equal(t, []string{"k1", "k2"}, cfg.Auth.APIKeys)
	assert.Equal(t, "http", cfg.Scraper.RenderMode)
	assert.False(t, cfg.Browser.Stealth)
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("XHS_PORT", "not-a-port")
	t.Setenv("XHS_NAV_TIMEOUT", "soon")
	t.Setenv("XHS_HEADLESS", "maybe")

	cfg := Load()

	assert.Equal(t, 5005, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Scraper.NavigationTimeout)
	assert.True(t, cfg.Browser.Headless)
}
