package extractor

import (
	"fmt"

	"github.com/use-agent/xhsnote/config"
	"github.com/use-agent/xhsnote/drift"
	"github.com/use-agent/xhsnote/heuristic"
)

// FromConfig compiles the rule table (built-in or cfg.Scraper.RulesFile),
// parses the drift reference and returns a ready Extractor.
func FromConfig(r Renderer, cfg *config.Config) (*Extractor, error) {
	rules := heuristic.DefaultRules()
	if cfg.Scraper.RulesFile != "" {
		loaded, err := heuristic.LoadRules(cfg.Scraper.RulesFile)
		if err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
		rules = loaded
	}
	eng, err := heuristic.Compile(rules)
	if err != nil {
		return nil, fmt.Errorf("compile rules: %w", err)
	}

	var ref uint64
	if cfg.Drift.Reference != "" {
		if ref, err = drift.Parse(cfg.Drift.Reference); err != nil {
			return nil, fmt.Errorf("layout fingerprint: %w", err)
		}
	}

	return New(r, eng, Options{
		SiteHost:       cfg.Site.Host,
		CookieDomain:   cfg.Site.CookieDomain,
		DriftReference: ref,
		DriftThreshold: cfg.Drift.Threshold,
	}), nil
}
