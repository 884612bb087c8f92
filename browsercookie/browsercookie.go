// Package browsercookie reads a logged-in RED session out of the local
// browser cookie stores, so the CLI can extract notes that need a login
// without the user copying cookies by hand.
package browsercookie

import (
	"context"
	"strings"
	"time"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // register every supported browser
	"github.com/use-agent/xhsnote/models"
	"github.com/use-agent/xhsnote/note"
)

// Browser selects which cookie stores are read.
type Browser string

const (
	BrowserAuto    Browser = "auto"
	BrowserChrome  Browser = "chrome"
	BrowserFirefox Browser = "firefox"
	BrowserSafari  Browser = "safari"
	BrowserEdge    Browser = "edge"
)

// Session collects the cookies stored for domain by the chosen browser.
// Expired cookies are skipped and the first cookie seen for a name wins.
func Session(ctx context.Context, browser Browser, domain string) []models.Credential {
	target := strings.TrimPrefix(domain, ".")
	now := time.Now()
	seen := map[string]struct{}{}
	session := []models.Credential{}

	for cookie, err := range kooky.TraverseCookies(ctx) {
		if err != nil || cookie == nil {
			continue
		}
		if !matchesBrowser(cookie.Browser, browser) || !matchesDomain(cookie.Domain, target) {
			continue
		}
		if !cookie.Expires.IsZero() && cookie.Expires.Before(now) {
			continue
		}
		if _, dup := seen[cookie.Name]; dup {
			continue
		}
		seen[cookie.Name] = struct{}{}
		session = append(session, models.Credential{
			Name:   cookie.Name,
			Value:  cookie.Value,
			Domain: domain,
			Path:   "/",
		})
	}
	return session
}

// Header is Session formatted as a Cookie header value.
func Header(ctx context.Context, browser Browser, domain string) string {
	return note.CookieHeader(Session(ctx, browser, domain))
}

func matchesBrowser(info kooky.BrowserInfo, want Browser) bool {
	if want == BrowserAuto || want == "" {
		return true
	}
	if info == nil {
		return false
	}
	return browserMatches(info.Browser(), want)
}

func browserMatches(name string, want Browser) bool {
	name = strings.ToLower(name)
	switch want {
	case BrowserChrome:
		return strings.Contains(name, "chrome") || strings.Contains(name, "chromium")
	case BrowserFirefox:
		return strings.Contains(name, "firefox")
	case BrowserSafari:
		return strings.Contains(name, "safari")
	case BrowserEdge:
		return strings.Contains(name, "edge")
	}
	return false
}

// matchesDomain reports whether a cookie stored for cookieDomain is sent to
// target or any of its subdomains.
func matchesDomain(cookieDomain, target string) bool {
	cookieDomain = strings.TrimPrefix(cookieDomain, ".")
	if cookieDomain == "" || target == "" {
		return false
	}
	return cookieDomain == target || strings.HasSuffix(cookieDomain, "."+target)
}
