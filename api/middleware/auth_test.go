package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/itemscope/config"
)

func TestAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name   string
		keys   []string
		header map[string]string
		want   int
	}{
		{"open when unconfigured", nil, nil, http.StatusOK},
		{"missing key", []string{"k1"}, nil, http.StatusUnauthorized},
		{"unknown key", []string{"k1"}, map[string]string{"X-API-Key": "nope"}, http.StatusUnauthorized},
		{"x-api-key accepted", []string{"k1"}, map[string]string{"X-API-Key": "k1"}, http.StatusOK},
		{"bearer accepted", []string{"k1"}, map[string]string{"Authorization": "Bearer k1"}, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/x", Auth(tt.keys), func(c *gin.Context) { c.Status(http.StatusOK) })

			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

func TestRateLimitExhaustsBurst(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x",
		RateLimit(config.RateLimitConfig{RequestsPerSecond: 0.001, Burst: 1}),
		func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	r.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/x", nil))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}

	second := httptest.NewRecorder()
	r.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/x", nil))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}
}
