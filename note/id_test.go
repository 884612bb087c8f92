package note

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractID_KnownShapes(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"short link", "https://xhslink.com/abc123", "abc123"},
		{"short link with share text", "look at this http://xhslink.com/a/Xy9_z copy and open", "a"},
		{"explore", "https://www.xiaohongshu.com/explore/64f1a2b3000000001f03a1b2", "64f1a2b3000000001f03a1b2"},
		{"explore with query", "https://www.xiaohongshu.com/explore/6501abc?xsec_token=AB%3D&source=web", "6501abc"},
		{"legacy item", "https://www.xiaohongshu.com/discovery/item/5f00aa11", "5f00aa11"},
		{"scheme-less explore", "www.xiaohongshu.com/explore/abc", "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractID(tt.url))
		})
	}
}

func TestExtractID_NoMatch(t *testing.T) {
	for _, url := range []string{
		"",
		"https://example.com/post/123",
		"https://www.xiaohongshu.com/user/profile/5d1",
		"https://www.xiaohongshu.com/explore/",
	} {
		assert.Empty(t, ExtractID(url), url)
	}
}

func TestExtractID_Priority(t *testing.T) {
	// The short-link pattern outranks /explore/ even when both appear.
	assert.Equal(t, "short", ExtractID("https://xhslink.com/short?next=/explore/long"))
	// /explore/ outranks /item/.
	assert.Equal(t, "aaa", ExtractID("https://x.test/item/bbb/explore/aaa"))
}

func TestExtractID_Idempotent(t *testing.T) {
	for _, url := range []string{"https://xhslink.com/abc123", "nothing here", "/item/q1"} {
		first := ExtractID(url)
		assert.Equal(t, first, ExtractID(url))
	}
}

func TestCanonicalURL_Branches(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		// Absolute inputs are never rebuilt, even though an id is found.
		{"absolute short link kept", "https://xhslink.com/abc123", "https://xhslink.com/abc123"},
		{"absolute explore kept", "https://www.xiaohongshu.com/explore/abc", "https://www.xiaohongshu.com/explore/abc"},
		{"absolute item kept", "http://www.xiaohongshu.com/item/abc", "http://www.xiaohongshu.com/item/abc"},
		// Scheme-less inputs with an id reach the rebuild branch.
		{"scheme-less short link rebuilt", "xhslink.com/abc123", "https://www.xiaohongshu.com/explore/abc123"},
		{"scheme-less explore rebuilt", "www.xiaohongshu.com/explore/abc", "https://www.xiaohongshu.com/explore/abc"},
		{"scheme-less item rebuilt", "xiaohongshu.com/discovery/item/abc", "https://www.xiaohongshu.com/explore/abc"},
		// No id: returned as-is.
		{"unknown kept", "some text", "some text"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanonicalURL(tt.url))
		})
	}
}

func TestCanonicalizer_CustomHost(t *testing.T) {
	c := Canonicalizer{Host: "edith.test"}
	assert.Equal(t, "https://edith.test/explore/n1", c.URL("xhslink.com/n1"))
	assert.Equal(t, "https://www.xiaohongshu.com/explore/n1", Canonicalizer{}.URL("xhslink.com/n1"))
}
