// Package heuristic locates note fields in a rendered page.
//
// Each field has an ordered list of CSS selector candidates, most specific
// first. The first candidate that yields non-empty text wins; when all of
// them miss, a field-specific fallback or a constant default applies. The
// candidate lists live in Rules so they can be changed without touching the
// evaluation code, and the same Rules drive both the in-page script (Script)
// and the static goquery evaluator (Engine.Evaluate).
package heuristic

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/andybalholm/cascadia"
	"github.com/use-agent/xhsnote/models"
)

// Rules is the selector table. The JSON form is what the in-page script
// receives as its only argument.
type Rules struct {
	Title   []string `json:"title"`
	Content []string `json:"content"`
	Author  []string `json:"author"`
	Avatar  []string `json:"avatar"`
	Likes   []string `json:"likes"`
	Tags    []string `json:"tags"`

	// Paragraph selects the blocks aggregated when no content candidate hits.
	Paragraph string `json:"paragraph"`
	// MinParagraphLen is exclusive: a paragraph must be longer than this.
	MinParagraphLen int `json:"minParagraphLen"`

	Image string `json:"image"`
	// LazyAttrs are checked before src, in order.
	LazyAttrs []string `json:"lazyAttrs"`
	// ImageMarkers keep only note images (CDN or site URLs).
	ImageMarkers []string `json:"imageMarkers"`

	MaxImages int `json:"maxImages"`
	MaxTags   int `json:"maxTags"`

	DefaultTitle  string `json:"defaultTitle"`
	DefaultAuthor string `json:"defaultAuthor"`
}

// DefaultRules returns the built-in table for xiaohongshu.com note pages.
func DefaultRules() *Rules {
	return &Rules{
		Title: []string{
			"#detail-title",
			".note-content .title",
			`[class*="note-title"]`,
			`[class*="title"]`,
			"h1",
			".title",
		},
		Content: []string{
			"#detail-desc",
			".note-content .desc",
			`[class*="note-text"]`,
			`[class*="content"]`,
			`[class*="desc"]`,
			".content",
		},
		Author: []string{
			`[class*="author-name"]`,
			".author-wrapper .username",
			`[class*="username"]`,
			`[class*="nickname"]`,
		},
		Avatar: []string{
			`[class*="avatar"] img`,
		},
		Likes: []string{
			`[class*="like-count"]`,
			".like-wrapper .count",
			`[class*="likes"]`,
			`[class*="interaction"]`,
		},
		Tags: []string{
			`[class*="tag"]`,
			`[class*="topic"]`,
			`a[href*="/search_result"]`,
		},
		Paragraph:       "p",
		MinParagraphLen: 10,
		Image:           "img",
		LazyAttrs:       []string{"data-src"},
		ImageMarkers:    []string{"xhscdn", "xiaohongshu"},
		MaxImages:       9,
		MaxTags:         10,
		DefaultTitle:    models.DefaultTitle,
		DefaultAuthor:   models.DefaultAuthor,
	}
}

// LoadRules reads a JSON rule table from path. Fields absent from the file
// keep their DefaultRules value.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("heuristic: read rules: %w", err)
	}
	r := DefaultRules()
	if err := json.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("heuristic: parse rules %s: %w", path, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate compiles every selector so a malformed table fails at startup
// rather than inside a page.
func (r *Rules) Validate() error {
	groups := map[string][]string{
		"title":   r.Title,
		"content": r.Content,
		"author":  r.Author,
		"avatar":  r.Avatar,
		"likes":   r.Likes,
		"tags":    r.Tags,
	}
	for field, sels := range groups {
		for _, sel := range sels {
			if _, err := cascadia.Compile(sel); err != nil {
				return fmt.Errorf("heuristic: %s selector %q: %w", field, sel, err)
			}
		}
	}
	for _, sel := range []string{r.Paragraph, r.Image} {
		if _, err := cascadia.Compile(sel); err != nil {
			return fmt.Errorf("heuristic: selector %q: %w", sel, err)
		}
	}
	if r.MaxImages < 0 || r.MaxTags < 0 || r.MinParagraphLen < 0 {
		return fmt.Errorf("heuristic: caps and lengths must be non-negative")
	}
	return nil
}
