// Package drift fingerprints the markup structure of a rendered note page.
//
// Note pages have no versioned schema, so the first sign of a redesign is
// usually a run of empty extractions. Logging a structural fingerprint with
// every result, and comparing it to a known-good reference, tells "the site
// changed its layout" apart from "this note needs a login".
package drift

import (
	"fmt"
	"hash/fnv"
	"math/bits"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// DefaultThreshold is the Hamming distance above which two pages are
// considered structurally different.
const DefaultThreshold = 12

// Fingerprint computes a 64-bit SimHash over the page's element structure:
// tag names in document order plus each element's class names. Text and
// other attributes are ignored, so two notes with the same layout collide
// and a class-name redesign moves the hash.
func Fingerprint(htmlStr string) uint64 {
	tokens := structureTokens(htmlStr)
	if len(tokens) == 0 {
		return 0
	}
	return simhash(tokens)
}

// Distance returns the Hamming distance between two fingerprints.
func Distance(a, b uint64) int {
	return bits.OnesCount64(a ^ b)
}

// Format renders a fingerprint the way it is logged and configured.
func Format(fp uint64) string {
	return fmt.Sprintf("%016x", fp)
}

// Parse reads a fingerprint produced by Format.
func Parse(s string) (uint64, error) {
	fp, err := strconv.ParseUint(strings.TrimSpace(s), 16, 64)
	if err != nil {
		return 0, fmt.Errorf("drift: invalid fingerprint %q: %w", s, err)
	}
	return fp, nil
}

// Report compares a page against a reference layout.
type Report struct {
	Fingerprint uint64
	Reference   uint64
	Distance    int
	// Drifted is set only when a reference is configured and the distance
	// exceeds the threshold.
	Drifted bool
}

// Compare fingerprints htmlStr and measures it against reference. A zero
// reference means none is configured; Distance is then -1.
func Compare(htmlStr string, reference uint64, threshold int) Report {
	fp := Fingerprint(htmlStr)
	r := Report{Fingerprint: fp, Reference: reference, Distance: -1}
	if reference == 0 {
		return r
	}
	r.Distance = Distance(fp, reference)
	r.Drifted = r.Distance > threshold
	return r
}

// structureTokens emits one token per start tag and one per tag/class pair,
// then folds tags into 3-tag shingles to capture nesting order.
func structureTokens(htmlStr string) []string {
	z := html.NewTokenizer(strings.NewReader(htmlStr))
	var tags, tokens []string
	for {
		switch z.Next() {
		case html.ErrorToken:
			for i := 0; i+3 <= len(tags); i++ {
				tokens = append(tokens, strings.Join(tags[i:i+3], ">"))
			}
			if len(tokens) == 0 && len(tags) > 0 {
				tokens = append(tokens, tags...)
			}
			return tokens
		case html.StartTagToken, html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			tags = append(tags, tag)
			for hasAttr {
				var key, val []byte
				key, val, hasAttr = z.TagAttr()
				if string(key) != "class" {
					continue
				}
				for _, class := range strings.Fields(string(val)) {
					tokens = append(tokens, tag+"."+class)
				}
			}
		}
	}
}

func simhash(tokens []string) uint64 {
	var vector [64]int
	for _, tok := range tokens {
		h := fnv.New64a()
		h.Write([]byte(tok))
		sum := h.Sum64()
		for i := 0; i < 64; i++ {
			if sum&(1<<uint(i)) != 0 {
				vector[i]++
			} else {
				vector[i]--
			}
		}
	}

	var fp uint64
	for i := 0; i < 64; i++ {
		if vector[i] > 0 {
			fp |= 1 << uint(i)
		}
	}
	return fp
}
