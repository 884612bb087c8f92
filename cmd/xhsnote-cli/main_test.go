package main

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/xhsnote/config"
	"github.com/use-agent/xhsnote/scraper"
)

func boundViper(t *testing.T, args ...string) *viper.Viper {
	t.Helper()
	f := pflag.NewFlagSet("extract", pflag.ContinueOnError)
	f.String("mode", scraper.ModeBrowser, "")
	f.Duration("timeout", 30*time.Second, "")
	f.Duration("settle", 3*time.Second, "")
	require.NoError(t, f.Parse(args))

	v := viper.New()
	require.NoError(t, v.BindPFlags(f))
	return v
}

func TestApplyOverrides_FlagDefaultsKeepEnvConfig(t *testing.T) {
	t.Setenv("XHS_RENDER_MODE", scraper.ModeHTTP)
	t.Setenv("XHS_NAV_TIMEOUT", "12s")
	cfg := config.Load()

	applyOverrides(cfg, boundViper(t))
	assert.Equal(t, scraper.ModeHTTP, cfg.Scraper.RenderMode)
	assert.Equal(t, 12*time.Second, cfg.Scraper.NavigationTimeout)
	assert.Equal(t, 3*time.Second, cfg.Scraper.SettleDelay)
}

func TestApplyOverrides_ExplicitFlagsWin(t *testing.T) {
	t.Setenv("XHS_RENDER_MODE", scraper.ModeHTTP)
	cfg := config.Load()

	applyOverrides(cfg, boundViper(t, "--mode", scraper.ModeBrowser, "--settle", "500ms"))
	assert.Equal(t, scraper.ModeBrowser, cfg.Scraper.RenderMode)
	assert.Equal(t, 500*time.Millisecond, cfg.Scraper.SettleDelay)
	assert.Equal(t, 30*time.Second, cfg.Scraper.NavigationTimeout)
}

func TestApplyOverrides_ConfigFileKeys(t *testing.T) {
	cfg := config.Load()
	v := boundViper(t)
	v.Set("timeout", "45s")

	applyOverrides(cfg, v)
	assert.Equal(t, 45*time.Second, cfg.Scraper.NavigationTimeout)
	assert.Equal(t, scraper.ModeBrowser, cfg.Scraper.RenderMode)
}
