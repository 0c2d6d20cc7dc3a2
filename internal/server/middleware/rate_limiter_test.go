package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadskatr/patent-database/internal/pkg/logger"
	"github.com/sadskatr/patent-database/internal/pkg/redis"
)

func newTestRouter(t *testing.T, cfg RateLimiterConfig, clock *time.Time) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	rcfg := redis.DefaultConfig()
	rcfg.Addr = mr.Addr()
	client, err := redis.New(rcfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	limiter := NewRateLimiter(client, cfg, logger.NewNop())
	limiter.now = func() time.Time { return *clock }

	router := gin.New()
	router.Use(limiter.Handler())
	router.POST("/search", func(c *gin.Context) { c.Status(http.StatusOK) })
	router.GET("/fields", func(c *gin.Context) { c.Status(http.StatusOK) })
	return router
}

func do(router *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRateLimiter_BlocksAfterLimit(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	router := newTestRouter(t, RateLimiterConfig{MaxRequests: 3, WindowSeconds: 10}, &clock)

	for i := 0; i < 3; i++ {
		w := do(router, http.MethodPost, "/search")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
		assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
		assert.Equal(t, []string{"2", "1", "0"}[i], w.Header().Get("X-RateLimit-Remaining"))
	}

	w := do(router, http.MethodPost, "/search")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "10", w.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"success":false,"error":"Too many requests, please try again in 10 seconds"}`, w.Body.String())
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	router := newTestRouter(t, RateLimiterConfig{MaxRequests: 1, WindowSeconds: 5}, &clock)

	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/search").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(router, http.MethodPost, "/search").Code)

	clock = clock.Add(6 * time.Second)
	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/search").Code)
}

func TestRateLimiter_EndpointStrategy(t *testing.T) {
	clock := time.Unix(1_700_000_000, 0)
	router := newTestRouter(t, RateLimiterConfig{MaxRequests: 1, WindowSeconds: 60, Strategy: StrategyEndpoint}, &clock)

	assert.Equal(t, http.StatusOK, do(router, http.MethodPost, "/search").Code)
	assert.Equal(t, http.StatusOK, do(router, http.MethodGet, "/fields").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(router, http.MethodPost, "/search").Code)
}

type failingRunner struct{}

func (failingRunner) Eval(context.Context, string, []string, ...interface{}) (interface{}, error) {
	return nil, errors.New("connection refused")
}

func TestRateLimiter_FailsOpen(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(NewRateLimiter(failingRunner{}, RateLimiterConfig{}, nil).Handler())
	router.GET("/fields", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := do(router, http.MethodGet, "/fields")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
}

func TestNewRateLimiter_Defaults(t *testing.T) {
	l := NewRateLimiter(failingRunner{}, RateLimiterConfig{}, nil)
	assert.Equal(t, 100, l.config.MaxRequests)
	assert.Equal(t, 60, l.config.WindowSeconds)
	assert.Equal(t, StrategyIP, l.config.Strategy)
}

func TestBuildRateLimitKey(t *testing.T) {
	gin.SetMode(gin.TestMode)

	var ipKey, endpointKey string
	router := gin.New()
	router.GET("/api/valid-fields/:search_type", func(c *gin.Context) {
		ipKey = buildRateLimitKey(c, StrategyIP)
		endpointKey = buildRateLimitKey(c, StrategyEndpoint)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/valid-fields/simple", nil)
	req.RemoteAddr = "203.0.113.7:5555"
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "patent_database:rate_limit:ip:203.0.113.7", ipKey)
	assert.Equal(t, "patent_database:rate_limit:endpoint:/api/valid-fields/:search_type:203.0.113.7", endpointKey)
}
