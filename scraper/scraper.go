// Package scraper provides the renderers behind the extraction pipeline: a
// headless Chrome renderer driven by go-rod and a static HTTP renderer that
// fetches with a Chrome TLS fingerprint.
package scraper

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/xhsnote/config"
	"github.com/use-agent/xhsnote/extractor"
	"github.com/use-agent/xhsnote/models"
)

var _ extractor.Renderer = (*BrowserRenderer)(nil)

// BrowserRenderer owns one Chrome process. Every Render call gets its own
// incognito context, so cookies never leak between requests.
// It is safe for concurrent use.
type BrowserRenderer struct {
	browser     *rod.Browser
	browserCfg  config.BrowserConfig
	scraperCfg  config.ScraperConfig
	activePages atomic.Int32
}

// NewBrowserRenderer launches a headless browser and connects to it.
func NewBrowserRenderer(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (*BrowserRenderer, error) {
	l := launcher.New().
		Headless(browserCfg.Headless).
		NoSandbox(browserCfg.NoSandbox)

	if browserCfg.BrowserBin != "" {
		l = l.Bin(browserCfg.BrowserBin)
	}
	if browserCfg.DefaultProxy != "" {
		l = l.Proxy(browserCfg.DefaultProxy)
	}

	// ── Stealth flags ────────────────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("disable-features"), "AudioServiceOutOfProcess,TranslateUI")
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("no-first-run"))
	l.Set(flags.Flag("lang"), "zh-CN")

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeBrowserCrash, "failed to launch browser", err)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewExtractError(models.ErrCodeBrowserCrash, "failed to connect to browser", err)
	}

	return &BrowserRenderer{
		browser:    browser,
		browserCfg: browserCfg,
		scraperCfg: scraperCfg,
	}, nil
}

// Available pings the browser over CDP.
func (r *BrowserRenderer) Available(ctx context.Context) bool {
	_, err := proto.BrowserGetVersion{}.Call(r.browser.Context(ctx))
	return err == nil
}

// ActivePages returns the number of pages currently open.
func (r *BrowserRenderer) ActivePages() int {
	return int(r.activePages.Load())
}

// Close kills the browser process. Call this on graceful shutdown to
// prevent zombie Chrome processes.
func (r *BrowserRenderer) Close() error {
	slog.Info("renderer shutting down: closing browser", "activePages", r.ActivePages())
	if err := r.browser.Close(); err != nil {
		return err
	}
	slog.Info("renderer shutdown complete")
	return nil
}

// navigationContext bounds a page load. A non-positive limit means only the
// request context applies.
func navigationContext(ctx context.Context, limit time.Duration) (context.Context, context.CancelFunc) {
	if limit <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, limit)
}
