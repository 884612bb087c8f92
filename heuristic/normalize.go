package heuristic

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/use-agent/xhsnote/models"
)

var digitRun = regexp.MustCompile(`\d+`)

// ParseLikes returns the first run of ASCII digits in text as an integer,
// ignoring separators and unit suffixes around it: "1234 likes" is 1234,
// "1,234" is 1 and "no numbers" is 0. Runs too large for int saturate.
func ParseLikes(text string) int {
	run := digitRun.FindString(text)
	if run == "" {
		return 0
	}
	n, err := strconv.Atoi(run)
	if err != nil {
		return math.MaxInt
	}
	return n
}

// hasDigits reports whether ParseLikes would find a number in text.
func hasDigits(text string) bool {
	return digitRun.MatchString(text)
}

// TrimText trims the same characters as JavaScript's String.prototype.trim,
// so the static and in-page evaluators agree.
func TrimText(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

// longerThan reports whether s has more than n characters.
func longerThan(s string, n int) bool {
	return utf8.RuneCountInString(s) > n
}

// HasMarker reports whether src contains one of markers. An empty marker
// list keeps everything.
func HasMarker(src string, markers []string) bool {
	if len(markers) == 0 {
		return true
	}
	for _, m := range markers {
		if strings.Contains(src, m) {
			return true
		}
	}
	return false
}

// FirstN truncates s to at most n elements, keeping the earliest ones.
func FirstN(s []string, n int) []string {
	if n >= 0 && len(s) > n {
		return s[:n]
	}
	return s
}

// Normalize enforces the record invariants on evaluator output: defaults for
// missing text fields, non-nil slices, the image and tag caps and a
// non-negative like count. It is applied to both evaluators' results, so a
// record returned by a page script is held to the same contract.
func Normalize(rec *models.Record, r *Rules) *models.Record {
	if rec == nil {
		rec = &models.Record{}
	}
	rec.Title = TrimText(rec.Title)
	if rec.Title == "" {
		rec.Title = r.DefaultTitle
	}
	rec.Author = TrimText(rec.Author)
	if rec.Author == "" {
		rec.Author = r.DefaultAuthor
	}
	rec.Content = TrimText(rec.Content)
	rec.AuthorAvatar = TrimText(rec.AuthorAvatar)
	if rec.Likes < 0 {
		rec.Likes = 0
	}

	images := make([]string, 0, len(rec.Images))
	for _, src := range rec.Images {
		if src != "" {
			images = append(images, src)
		}
	}
	rec.Images = FirstN(images, r.MaxImages)

	tags := make([]string, 0, len(rec.Tags))
	for _, tag := range rec.Tags {
		if tag = TrimText(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	rec.Tags = FirstN(tags, r.MaxTags)
	return rec
}
