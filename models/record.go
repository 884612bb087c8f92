package models

import "net/http"

// Record is the structured note recovered from a rendered page.
//
// Every field always carries a value: the heuristic engine fills the
// defaults below when it cannot find a field, so a Record is never
// partially populated.
type Record struct {
	Title        string   `json:"title"`
	Content      string   `json:"content"`
	Images       []string `json:"images"`
	Author       string   `json:"author"`
	AuthorAvatar string   `json:"authorAvatar"`
	Likes        int      `json:"likes"`
	Tags         []string `json:"tags"`
}

// Placeholder values used when a field cannot be located.
const (
	DefaultTitle  = "Untitled Note"
	DefaultAuthor = "Unknown Author"
)

// Credential is a single cookie scoped to the target site, handed to the
// renderer to authenticate the page load.
type Credential struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Domain string `json:"domain"`
	Path   string `json:"path"`
}

// HTTPCookie converts the credential for use with net/http clients.
func (c Credential) HTTPCookie() *http.Cookie {
	return &http.Cookie{
		Name:   c.Name,
		Value:  c.Value,
		Domain: c.Domain,
		Path:   c.Path,
	}
}
