package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/use-agent/itemscope/config"
	"github.com/use-agent/itemscope/models"
)

const (
	visitorTTL    = time.Hour
	sweepInterval = 5 * time.Minute
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimit returns token-bucket middleware keyed by caller identity: the
// API key when auth is on, the client IP otherwise. Rates come from
// ITEMSCOPE_RATE_RPS and ITEMSCOPE_RATE_BURST.
//
// A sweeper goroutine drops visitors idle past visitorTTL so the map does
// not grow with every IP that ever hit the service.
func RateLimit(cfg config.RateLimitConfig) gin.HandlerFunc {
	var mu sync.Mutex
	visitors := make(map[string]*visitor)

	lookup := func(identity string) *rate.Limiter {
		mu.Lock()
		defer mu.Unlock()
		v, ok := visitors[identity]
		if !ok {
			v = &visitor{limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)}
			visitors[identity] = v
		}
		v.lastSeen = time.Now()
		return v.limiter
	}

	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			cutoff := time.Now().Add(-visitorTTL)
			mu.Lock()
			for id, v := range visitors {
				if v.lastSeen.Before(cutoff) {
					delete(visitors, id)
				}
			}
			mu.Unlock()
		}
	}()

	return func(c *gin.Context) {
		identity := c.ClientIP()
		if key, ok := c.Get(identityKey); ok {
			identity = key.(string)
		}

		if !lookup(identity).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ScrapeResponse{
				Success: false,
				Error: &models.ErrorDetail{
					Code:    models.ErrCodeRateLimited,
					Message: "rate limit exceeded",
				},
			})
			return
		}
		c.Next()
	}
}
