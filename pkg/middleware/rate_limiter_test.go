package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLimitedEngine(cfg RateLimiterConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	l := NewRateLimiter(cfg, nil)
	r := gin.New()
	r.Use(l.Middleware())
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }
	r.POST("/api/events", ok)
	r.GET("/api/alerts", ok)
	r.GET("/health", ok)
	return r
}

func doLimited(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestPerRouteRateOverridesDefault(t *testing.T) {
	r := newLimitedEngine(RateLimiterConfig{
		Rate:          "100-M",
		AddHeaders:    true,
		PerRouteRates: map[string]string{"/api/events": "2-M"},
	})

	require.Equal(t, http.StatusOK, doLimited(r, http.MethodPost, "/api/events").Code)
	require.Equal(t, http.StatusOK, doLimited(r, http.MethodPost, "/api/events").Code)

	w := doLimited(r, http.MethodPost, "/api/events")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	// 其他路由走默认速率，不受影响
	assert.Equal(t, http.StatusOK, doLimited(r, http.MethodGet, "/api/alerts").Code)
}

func TestSkipPathsBypassLimiter(t *testing.T) {
	r := newLimitedEngine(RateLimiterConfig{
		Rate:      "1-M",
		SkipPaths: []string{"/health"},
	})

	for i := 0; i < 3; i++ {
		require.Equal(t, http.StatusOK, doLimited(r, http.MethodGet, "/health").Code)
	}
}

func TestRateLimitHeaders(t *testing.T) {
	r := newLimitedEngine(RateLimiterConfig{Rate: "5-M", AddHeaders: true})

	w := doLimited(r, http.MethodGet, "/api/alerts")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "5", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "4", w.Header().Get("X-RateLimit-Remaining"))
}

func TestUpdateConfigChangesRate(t *testing.T) {
	l := NewRateLimiter(RateLimiterConfig{Rate: "1-M"}, nil)
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(l.Middleware())
	r.GET("/api/alerts", func(c *gin.Context) { c.Status(http.StatusOK) })

	require.Equal(t, http.StatusOK, doLimited(r, http.MethodGet, "/api/alerts").Code)
	require.Equal(t, http.StatusTooManyRequests, doLimited(r, http.MethodGet, "/api/alerts").Code)

	l.UpdateConfig(RateLimiterConfig{Rate: "100-M"})
	assert.Equal(t, http.StatusOK, doLimited(r, http.MethodGet, "/api/alerts").Code)
}
