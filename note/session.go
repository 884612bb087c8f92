package note

import (
	"strings"

	"github.com/use-agent/xhsnote/models"
)

// CookieDomain is the domain every session cookie is scoped to.
const CookieDomain = ".xiaohongshu.com"

// BuildSession parses a raw Cookie header ("a=1; b=2") into credentials
// scoped to CookieDomain.
//
// Segments without "=" are skipped. Only the first "=" separates name from
// value, so values such as base64 padding survive intact. Output order
// matches input order; empty input yields an empty session.
func BuildSession(rawCookie string) []models.Credential {
	return BuildSessionFor(rawCookie, CookieDomain)
}

// BuildSessionFor is BuildSession with an explicit cookie domain.
func BuildSessionFor(rawCookie, domain string) []models.Credential {
	session := []models.Credential{}
	for _, segment := range strings.Split(rawCookie, ";") {
		segment = strings.TrimSpace(segment)
		name, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		session = append(session, models.Credential{
			Name:   strings.TrimSpace(name),
			Value:  strings.TrimSpace(value),
			Domain: domain,
			Path:   "/",
		})
	}
	return session
}

// CookieHeader formats a session back into a Cookie header value.
func CookieHeader(session []models.Credential) string {
	parts := make([]string, 0, len(session))
	for _, c := range session {
		parts = append(parts, c.Name+"="+c.Value)
	}
	return strings.Join(parts, "; ")
}
