package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/xhsnote/extractor"
	"github.com/use-agent/xhsnote/heuristic"
	"github.com/use-agent/xhsnote/models"
	"github.com/ysmood/gson"
)

const siteReferer = "https://www.xiaohongshu.com/"

// Render opens the target in a fresh incognito context.
//
// Lifecycle (numbered steps match the inline comments):
//
//  1. Incognito context     – isolates the request's cookies
//  2. Stealth injection     – mask navigator.webdriver etc. (before navigation!)
//  3. Headers and cookies   – session credentials scoped to the site domain
//  4. Hijack mount          – drop blocked resource types (before navigation!)
//  5. Navigate + wait       – bounded by the navigation timeout
//  6. Settle                – let client-side rendering finish
//
// On any failure after step 1 everything acquired so far is released before
// returning. On success the caller owns the page and must Close it.
func (r *BrowserRenderer) Render(ctx context.Context, targetURL string, session []models.Credential) (extractor.Page, error) {
	// ── 1. Incognito context ──────────────────────────────────────────
	incognito, err := r.browser.Incognito()
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeBrowserCrash, "failed to create browser context", err)
	}
	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		_ = incognito.Close()
		return nil, models.NewExtractError(models.ErrCodeBrowserCrash, "failed to open page", err)
	}
	r.activePages.Add(1)

	rp := &rodPage{page: page, incognito: incognito, active: &r.activePages}

	if err := r.prepare(rp, session); err != nil {
		_ = rp.Close()
		return nil, err
	}

	// ── 5. Navigate + wait ────────────────────────────────────────────
	navCtx, cancel := navigationContext(ctx, r.scraperCfg.NavigationTimeout)
	defer cancel()

	p := page.Context(navCtx)
	waitDOM := p.WaitNavigation(proto.PageLifecycleEventNameDOMContentLoaded)
	if err := p.Navigate(targetURL); err != nil {
		_ = rp.Close()
		return nil, categorizeError(err, "navigation to note page failed")
	}
	waitDOM()
	if err := navCtx.Err(); err != nil {
		_ = rp.Close()
		return nil, categorizeError(err, "navigation to note page failed")
	}

	// ── 6. Settle ─────────────────────────────────────────────────────
	if d := r.scraperCfg.SettleDelay; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			_ = rp.Close()
			return nil, categorizeError(ctx.Err(), "request canceled")
		}
	}

	return rp, nil
}

// prepare runs steps 2-4 on a fresh page.
func (r *BrowserRenderer) prepare(rp *rodPage, session []models.Credential) error {
	page := rp.page

	// ── 2. Stealth injection ──────────────────────────────────────────
	if r.browserCfg.Stealth {
		if _, err := page.EvalOnNewDocument(stealth.JS); err != nil {
			slog.Warn("stealth injection failed, proceeding without stealth", "error", err)
		}
	}

	// ── 3. Headers and cookies ────────────────────────────────────────
	if err := (proto.NetworkSetExtraHTTPHeaders{
		Headers: toHeadersMap(map[string]string{
			"Referer":         siteReferer,
			"Accept-Language": "zh-CN,zh;q=0.9,en;q=0.8",
		}),
	}).Call(page); err != nil {
		slog.Warn("setting extra headers failed, proceeding without them", "error", err)
	}

	if len(session) > 0 {
		if err := page.SetCookies(toCookieParams(session)); err != nil {
			return models.NewExtractError(models.ErrCodeBrowserCrash, "failed to set session cookies", err)
		}
	}

	// ── 4. Hijack mount ───────────────────────────────────────────────
	rp.router = setupHijack(page, r.scraperCfg.BlockedResourceTypes)
	return nil
}

// rodPage is a rendered note page held open for evaluation.
type rodPage struct {
	page      *rod.Page
	incognito *rod.Browser
	router    *rod.HijackRouter
	active    *atomic.Int32

	closeOnce sync.Once
	closeErr  error
}

// Evaluate runs the in-page heuristics. The rule table is passed as the
// script argument and the record comes back as plain JSON.
func (rp *rodPage) Evaluate(ctx context.Context, eng *heuristic.Engine) (*models.Record, error) {
	res, err := rp.page.Context(ctx).Eval(heuristic.Script, eng.Rules())
	if err != nil {
		return nil, categorizeEvalError(err)
	}

	raw, err := res.Value.MarshalJSON()
	if err != nil {
		return nil, models.NewExtractError(models.ErrCodeEvaluation, "unreadable evaluation result", err)
	}
	var rec models.Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, models.NewExtractError(models.ErrCodeEvaluation, "unreadable evaluation result", err)
	}
	return &rec, nil
}

// HTML returns the live document markup.
func (rp *rodPage) HTML(ctx context.Context) (string, error) {
	return rp.page.Context(ctx).HTML()
}

// Close stops the hijack router, closes the page and disposes of the
// incognito context. Later calls return the first result.
func (rp *rodPage) Close() error {
	rp.closeOnce.Do(func() {
		defer rp.active.Add(-1)
		if rp.router != nil {
			_ = rp.router.Stop()
		}
		var errs []error
		if err := rp.page.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := rp.incognito.Close(); err != nil {
			errs = append(errs, err)
		}
		rp.closeErr = errors.Join(errs...)
	})
	return rp.closeErr
}

// toHeadersMap converts a plain string map to the proto.NetworkHeaders type
// (map[string]gson.JSON) required by NetworkSetExtraHTTPHeaders.
func toHeadersMap(headers map[string]string) proto.NetworkHeaders {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	return m
}

func toCookieParams(session []models.Credential) []*proto.NetworkCookieParam {
	params := make([]*proto.NetworkCookieParam, 0, len(session))
	for _, c := range session {
		path := c.Path
		if path == "" {
			path = "/"
		}
		params = append(params, &proto.NetworkCookieParam{
			Name:   c.Name,
			Value:  c.Value,
			Domain: c.Domain,
			Path:   path,
		})
	}
	return params
}

// categorizeError wraps raw errors into typed ExtractErrors so the API layer
// can map them to appropriate HTTP status codes.
func categorizeError(err error, msg string) *models.ExtractError {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return models.NewExtractError(models.ErrCodeNavigationTimeout, "page navigation timed out", err)
	case errors.Is(err, context.Canceled):
		return models.NewExtractError(models.ErrCodeNavigationTimeout, "request canceled", err)
	default:
		return models.NewExtractError(models.ErrCodeNavigation, msg, err)
	}
}

func categorizeEvalError(err error) *models.ExtractError {
	var evalErr *rod.EvalError
	if errors.As(err, &evalErr) {
		return models.NewExtractError(models.ErrCodeEvaluation, "note script failed in page", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return categorizeError(err, "")
	}
	return models.NewExtractError(models.ErrCodeBrowserCrash, "page evaluation failed", err)
}
