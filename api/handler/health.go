package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/xhsnote/extractor"
	"github.com/use-agent/xhsnote/models"
)

// Version is reported by /health.
const Version = "0.1.0"

// PageCounter reports how many rendered pages are currently open.
type PageCounter interface {
	ActivePages() int
}

// Health returns a handler for GET /health. The status is always "ok" while
// the process serves requests; renderEngineAvailable tells whether
// extraction can currently succeed.
func Health(x *extractor.Extractor, pages PageCounter, renderMode string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		active := 0
		if pages != nil {
			active = pages.ActivePages()
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:                "ok",
			RenderEngineAvailable: x.Available(ctx),
			RenderMode:            renderMode,
			ActivePages:           active,
			Uptime:                time.Since(startTime).Round(time.Second).String(),
			Version:               Version,
		})
	}
}
