package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/itemscope/models"
)

// identityKey is the gin context key carrying the caller's identity from
// the auth middleware to the rate limiter.
const identityKey = "api_key"

// Auth returns API-key middleware for the keys configured via
// ITEMSCOPE_API_KEYS. A request authenticates with either header style:
//
//	X-API-Key: <key>
//	Authorization: Bearer <key>
//
// With no keys configured the service runs open and the middleware does
// nothing, which is the expected mode for local development.
func Auth(apiKeys []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	if len(allowed) == 0 {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		key := presentedKey(c)
		if key == "" {
			abortUnauthorized(c, "missing API key: send X-API-Key or Authorization: Bearer")
			return
		}
		if _, ok := allowed[key]; !ok {
			abortUnauthorized(c, "unknown API key")
			return
		}
		c.Set(identityKey, key)
		c.Next()
	}
}

func presentedKey(c *gin.Context) string {
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	if auth := c.GetHeader("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

func abortUnauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ScrapeResponse{
		Success: false,
		Error: &models.ErrorDetail{
			Code:    models.ErrCodeUnauthorized,
			Message: msg,
		},
	})
}
