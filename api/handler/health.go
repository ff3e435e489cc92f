package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/itemscope/models"
	"github.com/use-agent/itemscope/scrape"
)

// Health returns a handler for GET /api/v1/health.
//
// A launching session reports "degraded": the service answers but rendered
// scrapes will queue behind the launch.
func Health(sm *scrape.SessionManager, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sm.Stats()

		status := "healthy"
		if session.State == models.SessionLaunching {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Session: session,
			Version: "0.1.0",
		})
	}
}
