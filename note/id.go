// Package note turns raw user input into what the renderer needs (a
// canonical URL and a cookie session) and judges whether an extracted
// record is worth returning.
package note

import (
	"regexp"
	"strings"
)

// SiteHost is the canonical web host for notes.
const SiteHost = "www.xiaohongshu.com"

// idPatterns are tried in order; the first capture wins.
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`xhslink\.com/(\w+)`), // share short link
	regexp.MustCompile(`/explore/(\w+)`),     // canonical
	regexp.MustCompile(`/item/(\w+)`),        // legacy
}

// ExtractID returns the note identifier embedded in rawURL, or "" when no
// known link shape matches.
func ExtractID(rawURL string) string {
	for _, re := range idPatterns {
		if m := re.FindStringSubmatch(rawURL); m != nil {
			return m[1]
		}
	}
	return ""
}

// CanonicalURL returns the URL the renderer should load.
//
// A link is rebuilt as https://<SiteHost>/explore/<id> only when an id was
// found and the input is not already absolute; anything starting with
// "http" is passed through untouched, short links included.
func CanonicalURL(rawURL string) string {
	return canonicalURL(rawURL, SiteHost)
}

func canonicalURL(rawURL, host string) string {
	id := ExtractID(rawURL)
	if id != "" && !strings.HasPrefix(rawURL, "http") {
		return "https://" + host + "/explore/" + id
	}
	return rawURL
}

// Canonicalizer rebuilds note links against a configurable host.
type Canonicalizer struct {
	Host string
}

// URL applies the CanonicalURL rule with c.Host.
func (c Canonicalizer) URL(rawURL string) string {
	host := c.Host
	if host == "" {
		host = SiteHost
	}
	return canonicalURL(rawURL, host)
}
