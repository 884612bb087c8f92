package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/use-agent/xhsnote/api/handler"
	"github.com/use-agent/xhsnote/api/middleware"
	"github.com/use-agent/xhsnote/config"
	"github.com/use-agent/xhsnote/extractor"
	"github.com/use-agent/xhsnote/models"
)

const corsMaxAge = 12 * time.Hour

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger → CORS
//	API:     Auth (if API keys are configured)
//
// Every route is served at the root and again under /api/v1. Health is
// outside auth so monitoring probes always work.
func NewRouter(x *extractor.Extractor, pages handler.PageCounter, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.CustomRecovery(recoverJSON))
	r.Use(gin.Logger())
	r.Use(corsMiddleware(cfg.CORS.AllowOrigins))

	health := handler.Health(x, pages, cfg.Scraper.RenderMode, startTime)
	auth := middleware.Auth(cfg.Auth.APIKeys)

	for _, g := range []*gin.RouterGroup{&r.RouterGroup, r.Group("/api/v1")} {
		g.GET("/health", health)

		protected := g.Group("", auth)
		protected.POST("/extract", handler.Extract(x))
		protected.POST("/manual", handler.Manual())
	}

	return r
}

// recoverJSON answers a panicking request with the generic failure body.
func recoverJSON(c *gin.Context, recovered any) {
	slog.Error("panic while handling request", "path", c.Request.URL.Path, "panic", recovered)
	c.AbortWithStatusJSON(http.StatusInternalServerError, models.ExtractResponse{
		Success: false,
		Error:   "extraction failed",
		Code:    models.ErrCodeInternal,
	})
}

func corsMiddleware(origins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{
			"Origin", "Content-Type", "Content-Length", "Accept",
			"Authorization", "X-API-Key", "X-Requested-With",
		},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        corsMaxAge,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cors.New(cfg)
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cors.New(cfg)
	}
	cfg.AllowOrigins = origins
	return cors.New(cfg)
}
