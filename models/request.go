package models

import "strings"

// ExtractRequest is the payload for POST /extract.
type ExtractRequest struct {
	// URL is the note link: a share short link, an /explore/ link or a
	// legacy /item/ link. Required.
	URL string `json:"url"`

	// Cookie is an optional raw Cookie header copied from a logged-in
	// browser session ("a=1; b=2"). Empty means an anonymous render.
	Cookie string `json:"cookie,omitempty"`
}

// Validate rejects requests that must not reach the renderer.
func (r *ExtractRequest) Validate() error {
	if strings.TrimSpace(r.URL) == "" {
		return NewExtractError(ErrCodeInvalidInput, "missing url parameter", nil)
	}
	return nil
}

// ManualRequest is the payload for POST /manual: a note typed in by hand
// when automatic extraction is not possible.
type ManualRequest struct {
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	Images    []string `json:"images,omitempty"`
	SourceURL string   `json:"sourceUrl,omitempty"`
}
