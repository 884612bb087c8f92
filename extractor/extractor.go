// Package extractor runs the note pipeline: canonicalize the link, build the
// cookie session, render the page, evaluate the field heuristics in it and
// validate the result.
package extractor

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/use-agent/xhsnote/drift"
	"github.com/use-agent/xhsnote/heuristic"
	"github.com/use-agent/xhsnote/models"
	"github.com/use-agent/xhsnote/note"
)

// Renderer loads a URL with an optional cookie session and hands back a
// live page. Implementations must return an *models.ExtractError with
// ErrCodeNavigationTimeout when the navigation bound is exceeded.
type Renderer interface {
	Render(ctx context.Context, targetURL string, session []models.Credential) (Page, error)

	// Available reports whether the rendering engine can take requests.
	Available(ctx context.Context) bool
}

// Page is one rendered document, owned by a single request. Only
// serializable values cross this boundary.
type Page interface {
	// Evaluate runs the engine's fallback chains against the document.
	Evaluate(ctx context.Context, eng *heuristic.Engine) (*models.Record, error)

	// HTML returns the current document markup.
	HTML(ctx context.Context) (string, error)

	// Close releases the page and everything acquired for it. It must be
	// safe to call more than once.
	Close() error
}

// Options tune an Extractor.
type Options struct {
	// SiteHost rebuilds scheme-less note links. Default: note.SiteHost.
	SiteHost string

	// CookieDomain scopes session cookies. Default: note.CookieDomain.
	CookieDomain string

	// DriftReference is a known-good layout fingerprint (0 = none).
	DriftReference uint64

	// DriftThreshold is the Hamming distance that counts as drift.
	DriftThreshold int
}

// Extractor is safe for concurrent use; it holds no per-request state.
type Extractor struct {
	renderer      Renderer
	engine        *heuristic.Engine
	canonicalizer note.Canonicalizer
	cookieDomain  string
	driftRef      uint64
	driftLimit    int
}

// New creates an Extractor. A nil engine uses the built-in rules.
func New(renderer Renderer, eng *heuristic.Engine, opts Options) *Extractor {
	if eng == nil {
		eng = heuristic.MustCompile(heuristic.DefaultRules())
	}
	if opts.CookieDomain == "" {
		opts.CookieDomain = note.CookieDomain
	}
	if opts.DriftThreshold <= 0 {
		opts.DriftThreshold = drift.DefaultThreshold
	}
	return &Extractor{
		renderer:      renderer,
		engine:        eng,
		canonicalizer: note.Canonicalizer{Host: opts.SiteHost},
		cookieDomain:  opts.CookieDomain,
		driftRef:      opts.DriftReference,
		driftLimit:    opts.DriftThreshold,
	}
}

// Result is a successful extraction plus the timings behind it.
type Result struct {
	Record       *models.Record
	NoteID       string
	URL          string
	RenderMs     int64
	EvaluationMs int64
}

// Available reports whether the underlying renderer is usable.
func (x *Extractor) Available(ctx context.Context) bool {
	return x.renderer != nil && x.renderer.Available(ctx)
}

// Extract runs the full pipeline for one request.
//
// Errors are always *models.ExtractError. A page that rendered but yielded
// neither title nor content fails with ErrCodeEmptyResult and
// note.EmptyResultMessage. The rendered page is closed on every path.
func (x *Extractor) Extract(ctx context.Context, req *models.ExtractRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// ── 1. Canonicalize ─────────────────────────────────────────────
	noteID := note.ExtractID(req.URL)
	targetURL := x.canonicalizer.URL(req.URL)

	// ── 2. Session ──────────────────────────────────────────────────
	session := note.BuildSessionFor(req.Cookie, x.cookieDomain)

	log := slog.With("url", req.URL, "canonical_url", targetURL, "note_id", noteID)
	log.Info("extracting note", "cookies", len(session))

	// ── 3. Render ───────────────────────────────────────────────────
	renderStart := time.Now()
	page, err := x.renderer.Render(ctx, targetURL, session)
	renderMs := time.Since(renderStart).Milliseconds()
	if err != nil {
		xerr := classify(err, models.ErrCodeNavigation, "failed to load note page")
		log.Error("render failed", "error", err, "code", xerr.Code, "render_ms", renderMs)
		return nil, xerr
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			log.Warn("failed to close page", "error", closeErr)
		}
	}()

	// ── 4. Evaluate ─────────────────────────────────────────────────
	evalStart := time.Now()
	rec, err := page.Evaluate(ctx, x.engine)
	evalMs := time.Since(evalStart).Milliseconds()
	if err != nil {
		xerr := classify(err, models.ErrCodeEvaluation, "failed to evaluate note page")
		log.Error("evaluation failed", "error", err, "code", xerr.Code)
		return nil, xerr
	}
	rec = heuristic.Normalize(rec, x.engine.Rules())

	// ── 5. Validate ─────────────────────────────────────────────────
	outcome := note.Validate(rec, x.engine.Rules().DefaultTitle)
	if !outcome.OK() {
		x.logDrift(ctx, log, page)
		log.Warn("no content extracted", "render_ms", renderMs, "evaluation_ms", evalMs)
		return nil, models.NewExtractError(models.ErrCodeEmptyResult, outcome.Reason, nil)
	}

	log.Info("note extracted",
		"title", rec.Title,
		"images", len(rec.Images),
		"tags", len(rec.Tags),
		"render_ms", renderMs,
		"evaluation_ms", evalMs,
	)
	return &Result{
		Record:       outcome.Record,
		NoteID:       noteID,
		URL:          targetURL,
		RenderMs:     renderMs,
		EvaluationMs: evalMs,
	}, nil
}

// logDrift records the layout fingerprint of a page that yielded nothing,
// so a redesign shows up in the logs as drift rather than as login walls.
func (x *Extractor) logDrift(ctx context.Context, log *slog.Logger, page Page) {
	html, err := page.HTML(ctx)
	if err != nil {
		log.Debug("could not read page HTML for drift check", "error", err)
		return
	}
	r := drift.Compare(html, x.driftRef, x.driftLimit)
	log.Warn("layout fingerprint",
		"fingerprint", drift.Format(r.Fingerprint),
		"distance", r.Distance,
		"drifted", r.Drifted,
	)
}

// classify turns any pipeline error into an ExtractError. Context
// deadlines become navigation timeouts; typed errors pass through.
func classify(err error, code, msg string) *models.ExtractError {
	var xerr *models.ExtractError
	if errors.As(err, &xerr) {
		return xerr
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewExtractError(models.ErrCodeNavigationTimeout, "page navigation timed out", err)
	case errors.Is(err, context.Canceled):
		return models.NewExtractError(models.ErrCodeNavigationTimeout, "request canceled", err)
	default:
		return models.NewExtractError(code, msg, err)
	}
}
