package handler

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/xhsnote/models"
	"github.com/use-agent/xhsnote/note"
)

// Manual returns a handler for POST /manual, the hand-entry fallback for
// notes that cannot be extracted.
func Manual() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ManualRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewExtractError(models.ErrCodeInvalidInput, "invalid request body", err), nil)
			return
		}

		rec, err := note.FromManual(&req)
		if err != nil {
			respondError(c, err, nil)
			return
		}

		slog.Info("manual note created", "title", rec.Title, "source_url", req.SourceURL, "images", len(rec.Images))
		c.JSON(http.StatusOK, models.ExtractResponse{Success: true, Data: rec})
	}
}
