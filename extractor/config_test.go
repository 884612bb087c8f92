package extractor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/xhsnote/config"
	"github.com/use-agent/xhsnote/models"
)

func TestFromConfig(t *testing.T) {
	rulesPath := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(rulesPath, []byte(`{"title":[".headline"]}`), 0o644))

	cfg := &config.Config{
		Scraper: config.ScraperConfig{RulesFile: rulesPath},
		Site:    config.SiteConfig{Host: "www.rednote.test", CookieDomain: ".rednote.test"},
		Drift:   config.DriftConfig{Reference: "00000000000000ff", Threshold: 4},
	}
	r := &fakeRenderer{html: `<div class="headline">From custom rules</div>`}

	x, err := FromConfig(r, cfg)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xff), x.driftRef)
	assert.Equal(t, 4, x.driftLimit)

	res, err := x.Extract(context.Background(), &models.ExtractRequest{URL: "/explore/abc", Cookie: "a=1"})
	require.NoError(t, err)
	assert.Equal(t, "From custom rules", res.Record.Title)
	assert.Equal(t, "https://www.rednote.test/explore/abc", r.gotURL)
	assert.Equal(t, ".rednote.test", r.gotSession[0].Domain)
}

func TestFromConfig_Errors(t *testing.T) {
	_, err := FromConfig(&fakeRenderer{}, &config.Config{
		Scraper: config.ScraperConfig{RulesFile: filepath.Join(t.TempDir(), "missing.json")},
	})
	assert.Error(t, err)

	_, err = FromConfig(&fakeRenderer{}, &config.Config{
		Drift: config.DriftConfig{Reference: "zz"},
	})
	assert.ErrorContains(t, err, "layout fingerprint")
}

func TestFromConfig_OverriddenPlaceholderStillEmpty(t *testing.T) {
	rulesPath := filepath.Join(t.TempDir(), "rules.json")
	require.NoError(t, os.WriteFile(rulesPath, []byte(`{"defaultTitle":"未命名笔记"}`), 0o644))

	r := &fakeRenderer{html: `<html><body><div>nothing</div></body></html>`}
	x, err := FromConfig(r, &config.Config{Scraper: config.ScraperConfig{RulesFile: rulesPath}})
	require.NoError(t, err)

	res, err := x.Extract(context.Background(), &models.ExtractRequest{URL: "https://www.xiaohongshu.com/explore/abc"})
	assert.Nil(t, res)
	var xerr *models.ExtractError
	require.True(t, errors.As(err, &xerr))
	assert.Equal(t, models.ErrCodeEmptyResult, xerr.Code)
	assert.Equal(t, 1, r.pages[0].closed)
}
