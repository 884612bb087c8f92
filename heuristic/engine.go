package heuristic

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/use-agent/xhsnote/models"
)

// Engine is a compiled Rules table. It is read-only after Compile and safe
// for concurrent use.
type Engine struct {
	rules *Rules

	title   []goquery.Matcher
	content []goquery.Matcher
	author  []goquery.Matcher
	avatar  []goquery.Matcher
	likes   []goquery.Matcher

	tags      goquery.Matcher
	paragraph goquery.Matcher
	image     goquery.Matcher
}

// Compile validates r and compiles its selectors.
func Compile(r *Rules) (*Engine, error) {
	if r == nil {
		r = DefaultRules()
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}

	e := &Engine{rules: r}
	e.title = mustCompileAll(r.Title)
	e.content = mustCompileAll(r.Content)
	e.author = mustCompileAll(r.Author)
	e.avatar = mustCompileAll(r.Avatar)
	e.likes = mustCompileAll(r.Likes)
	e.paragraph = cascadia.MustCompile(r.Paragraph)
	e.image = cascadia.MustCompile(r.Image)
	if len(r.Tags) > 0 {
		e.tags = cascadia.MustCompile(strings.Join(r.Tags, ", "))
	}
	return e, nil
}

// MustCompile is Compile for tables known to be valid, such as DefaultRules.
func MustCompile(r *Rules) *Engine {
	e, err := Compile(r)
	if err != nil {
		panic(fmt.Sprintf("heuristic: %v", err))
	}
	return e
}

// mustCompileAll is only called after Validate has accepted every selector.
func mustCompileAll(sels []string) []goquery.Matcher {
	out := make([]goquery.Matcher, 0, len(sels))
	for _, sel := range sels {
		out = append(out, cascadia.MustCompile(sel))
	}
	return out
}

// Rules returns the table the engine was compiled from. Callers must not
// modify it.
func (e *Engine) Rules() *Rules {
	return e.rules
}

// Evaluate runs the fallback chains against a parsed document. It mirrors
// Script for pages that were fetched without a browser. If doc.Url is set,
// image sources are resolved against it.
func (e *Engine) Evaluate(doc *goquery.Document) *models.Record {
	rec := &models.Record{
		Title:        e.firstText(doc, e.title),
		Content:      e.firstText(doc, e.content),
		Author:       e.firstText(doc, e.author),
		AuthorAvatar: e.avatarSource(doc),
		Likes:        e.likeCount(doc),
		Images:       e.images(doc),
		Tags:         e.tagTexts(doc),
	}
	if rec.Content == "" {
		rec.Content = e.paragraphs(doc)
	}
	return Normalize(rec, e.rules)
}

// firstText returns the trimmed text of the first element matched by the
// first candidate that yields any text.
func (e *Engine) firstText(doc *goquery.Document, candidates []goquery.Matcher) string {
	for _, m := range candidates {
		if text := TrimText(doc.FindMatcher(m).First().Text()); text != "" {
			return text
		}
	}
	return ""
}

// paragraphs aggregates long-enough paragraph texts in document order.
func (e *Engine) paragraphs(doc *goquery.Document) string {
	var kept []string
	doc.FindMatcher(e.paragraph).Each(func(_ int, s *goquery.Selection) {
		if text := TrimText(s.Text()); longerThan(text, e.rules.MinParagraphLen) {
			kept = append(kept, text)
		}
	})
	return strings.Join(kept, "\n")
}

func (e *Engine) images(doc *goquery.Document) []string {
	images := []string{}
	doc.FindMatcher(e.image).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src := e.source(doc, s)
		if src != "" && HasMarker(src, e.rules.ImageMarkers) {
			images = append(images, src)
		}
		return len(images) < e.rules.MaxImages
	})
	return FirstN(images, e.rules.MaxImages)
}

func (e *Engine) avatarSource(doc *goquery.Document) string {
	for _, m := range e.avatar {
		img := doc.FindMatcher(m).First()
		if img.Length() == 0 {
			continue
		}
		if src := e.source(doc, img); src != "" {
			return src
		}
	}
	return ""
}

// likeCount parses the first candidate whose first element contains digits.
func (e *Engine) likeCount(doc *goquery.Document) int {
	for _, m := range e.likes {
		text := doc.FindMatcher(m).First().Text()
		if hasDigits(text) {
			return ParseLikes(text)
		}
	}
	return 0
}

func (e *Engine) tagTexts(doc *goquery.Document) []string {
	tags := []string{}
	if e.tags == nil {
		return tags
	}
	doc.FindMatcher(e.tags).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if text := TrimText(s.Text()); text != "" {
			tags = append(tags, text)
		}
		return len(tags) < e.rules.MaxTags
	})
	return FirstN(tags, e.rules.MaxTags)
}

// source prefers a lazy-load attribute over src, resolving relative URLs
// against the document URL when it is known.
func (e *Engine) source(doc *goquery.Document, img *goquery.Selection) string {
	raw := ""
	for _, attr := range e.rules.LazyAttrs {
		if v := TrimText(img.AttrOr(attr, "")); v != "" {
			raw = v
			break
		}
	}
	if raw == "" {
		raw = TrimText(img.AttrOr("src", ""))
	}
	if raw == "" || doc.Url == nil {
		return raw
	}
	if u, err := doc.Url.Parse(raw); err == nil {
		return u.String()
	}
	return raw
}
