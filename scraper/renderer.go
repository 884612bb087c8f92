package scraper

import (
	"fmt"
	"strings"

	"github.com/use-agent/xhsnote/config"
	"github.com/use-agent/xhsnote/extractor"
)

// Render modes accepted by New.
const (
	ModeBrowser = "browser"
	ModeHTTP    = "http"
)

// Renderer is an extractor.Renderer the process owns: it reports open
// pages for /health and must be closed on shutdown.
type Renderer interface {
	extractor.Renderer
	ActivePages() int
	Close() error
}

// New builds the renderer selected by cfg.Scraper.RenderMode.
func New(cfg *config.Config) (Renderer, error) {
	switch strings.ToLower(cfg.Scraper.RenderMode) {
	case "", ModeBrowser:
		return NewBrowserRenderer(cfg.Browser, cfg.Scraper)
	case ModeHTTP:
		return NewStaticRenderer(cfg.Browser, cfg.Scraper), nil
	default:
		return nil, fmt.Errorf("unknown render mode %q (want %q or %q)", cfg.Scraper.RenderMode, ModeBrowser, ModeHTTP)
	}
}
