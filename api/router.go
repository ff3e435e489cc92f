package api

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/itemscope/api/handler"
	"github.com/use-agent/itemscope/api/middleware"
	"github.com/use-agent/itemscope/config"
	"github.com/use-agent/itemscope/scrape"
)

// NewRouter creates a configured Gin engine with all routes and middleware.
//
// Middleware chain:
//
//	Global:  Recovery → Logger
//	API:     Auth (if keys configured) → RateLimit
//
// Health endpoint is intentionally outside auth so monitoring probes always work.
func NewRouter(o *scrape.Orchestrator, sm *scrape.SessionManager, cfg *config.Config, startTime time.Time) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.Logger())

	v1 := r.Group("/api/v1")

	// Health — no auth required.
	v1.GET("/health", handler.Health(sm, startTime))

	// Protected group — auth + rate limit.
	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.Auth.APIKeys))
	protected.Use(middleware.RateLimit(cfg.RateLimit))

	protected.POST("/scrape", handler.Scrape(o))
	protected.POST("/scrape/both", handler.ScrapeBoth(o))
	protected.POST("/warmup", handler.Warmup(sm))

	return r
}
