package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/itemscope/models"
	"github.com/use-agent/itemscope/scrape"
)

// Warmup returns a handler for POST /api/v1/warmup. It launches the shared
// browser session ahead of traffic so the first rendered scrape does not
// pay the launch cost.
func Warmup(sm *scrape.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := sm.Warmup(c.Request.Context()); err != nil {
			scrapeErr := asScrapeError(err)
			c.JSON(mapErrorToStatus(scrapeErr), models.WarmupResponse{
				OK:    false,
				Error: scrapeErr.ToDetail(),
			})
			return
		}
		c.JSON(http.StatusOK, models.WarmupResponse{OK: true, Warmed: true})
	}
}
