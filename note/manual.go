package note

import (
	"strings"

	"github.com/use-agent/xhsnote/models"
)

// ManualEntry labels records typed in by hand.
const ManualEntry = "Manual Entry"

// FromManual builds a record from hand-entered fields. It fails with
// ErrCodeInvalidInput when both title and content are blank.
func FromManual(req *models.ManualRequest) (*models.Record, error) {
	title := strings.TrimSpace(req.Title)
	content := strings.TrimSpace(req.Content)
	if title == "" && content == "" {
		return nil, models.NewExtractError(models.ErrCodeInvalidInput, "title and content cannot both be empty", nil)
	}
	if title == "" {
		title = ManualEntry
	}

	images := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		if img = strings.TrimSpace(img); img != "" {
			images = append(images, img)
		}
	}

	return &models.Record{
		Title:   title,
		Content: content,
		Images:  images,
		Author:  ManualEntry,
		Tags:    []string{},
	}, nil
}
