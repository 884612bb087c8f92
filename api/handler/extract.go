package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/xhsnote/extractor"
	"github.com/use-agent/xhsnote/models"
)

// Extract returns a handler for POST /extract.
//
// Flow:
//  1. Parse the {url, cookie?} body.
//  2. Run the extraction pipeline.
//  3. Answer 200 with the record, or map the failure to 400/404/500.
func Extract(x *extractor.Extractor) gin.HandlerFunc {
	return func(c *gin.Context) {
		totalStart := time.Now()

		// ── 1. Parse request ────────────────────────────────────────
		var req models.ExtractRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			slog.Debug("rejecting malformed extract body", "error", err)
			respondError(c, models.NewExtractError(models.ErrCodeInvalidInput, "invalid request body", err), nil)
			return
		}

		// ── 2. Extract ──────────────────────────────────────────────
		res, err := x.Extract(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err, &models.TimingInfo{
				TotalMs: time.Since(totalStart).Milliseconds(),
			})
			return
		}

		// ── 3. Assemble response ────────────────────────────────────
		c.JSON(http.StatusOK, models.ExtractResponse{
			Success: true,
			Data:    res.Record,
			Timing: &models.TimingInfo{
				TotalMs:      time.Since(totalStart).Milliseconds(),
				RenderMs:     res.RenderMs,
				EvaluationMs: res.EvaluationMs,
			},
		})
	}
}
