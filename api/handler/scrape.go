package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/itemscope/models"
	"github.com/use-agent/itemscope/scrape"
)

// Scrape returns a handler for POST /api/v1/scrape.
//
// The orchestrator owns the cascade policy; the handler only parses the
// request, maps ScrapeError codes to HTTP statuses, and never leaks a raw
// stack trace. A rejected extraction is still HTTP 200: the structured
// result carries ok=false and the reason.
func Scrape(o *scrape.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScrapeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		result, err := o.Scrape(c.Request.Context(), &req)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, models.ScrapeResponse{
			Success: result.OK,
			Result:  result,
		})
	}
}

// ScrapeBoth returns a handler for POST /api/v1/scrape/both.
func ScrapeBoth(o *scrape.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ScrapeBothRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, models.ScrapeBothResult{
				OK: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeInvalidInput,
					Message: err.Error(),
				},
			})
			return
		}

		result, err := o.ScrapeBoth(c.Request.Context(), &req)
		if err != nil {
			scrapeErr := asScrapeError(err)
			c.JSON(mapErrorToStatus(scrapeErr), models.ScrapeBothResult{
				OK:    false,
				Error: scrapeErr.ToDetail(),
			})
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// respondError maps a ScrapeError to the correct HTTP status code and writes
// a structured JSON error response.
func respondError(c *gin.Context, err error) {
	scrapeErr := asScrapeError(err)
	c.JSON(mapErrorToStatus(scrapeErr), models.ScrapeResponse{
		Success: false,
		Error:   scrapeErr.ToDetail(),
	})
}

func asScrapeError(err error) *models.ScrapeError {
	if scrapeErr, ok := err.(*models.ScrapeError); ok {
		return scrapeErr
	}
	return models.NewScrapeError(models.ErrCodeInternal, err.Error(), err)
}

// mapErrorToStatus translates error codes to HTTP status codes.
func mapErrorToStatus(e *models.ScrapeError) int {
	switch e.Code {
	case models.ErrCodeTimeout:
		return http.StatusGatewayTimeout // 504
	case models.ErrCodeNetwork:
		return http.StatusBadGateway // 502
	case models.ErrCodeInvalidInput:
		return http.StatusBadRequest // 400
	case models.ErrCodeRateLimited:
		return http.StatusTooManyRequests // 429
	case models.ErrCodeUnauthorized:
		return http.StatusUnauthorized // 401
	case models.ErrCodeSession:
		return http.StatusServiceUnavailable // 503
	default:
		return http.StatusInternalServerError // 500
	}
}
