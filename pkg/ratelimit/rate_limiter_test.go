package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *Config {
	return &Config{
		Enabled:                 true,
		WindowDuration:          time.Minute,
		DefaultRequests:         3,
		BookingCriticalRequests: 2,
		HealthRequests:          100,
		LocalIdleEviction:       time.Minute,
	}
}

func TestRedisSlidingWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	rl := NewRateLimiter(client, testConfig())
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		res, err := rl.IsAllowed(ctx, "10.0.0.1", RateLimitTypeDefault)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d", i)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := rl.IsAllowed(ctx, "10.0.0.1", RateLimitTypeDefault)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = rl.IsAllowed(ctx, "10.0.0.2", RateLimitTypeDefault)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestFallsBackToLocalWhenRedisFails(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	mr.Close()

	rl := NewRateLimiter(client, testConfig())
	ctx := context.Background()

	allowed := 0
	for i := 0; i < 5; i++ {
		res, err := rl.IsAllowed(ctx, "10.0.0.1", RateLimitTypeBookingCritical)
		require.NoError(t, err)
		if res.Allowed {
			allowed++
		}
	}
	assert.Equal(t, 2, allowed)
}

func TestLocalLimiterEvictsIdleClients(t *testing.T) {
	rl := NewRateLimiter(nil, testConfig())
	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	now := start
	rl.now = func() time.Time { return now }

	_, err := rl.IsAllowed(context.Background(), "a", RateLimitTypeDefault)
	require.NoError(t, err)
	_, err = rl.IsAllowed(context.Background(), "b", RateLimitTypeDefault)
	require.NoError(t, err)
	assert.Equal(t, 2, rl.local.size())

	now = start.Add(2 * time.Minute)
	_, err = rl.IsAllowed(context.Background(), "c", RateLimitTypeDefault)
	require.NoError(t, err)
	assert.Equal(t, 1, rl.local.size())
}

func TestWhitelistAndDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.WhitelistedIPs = []string{"127.0.0.1"}
	rl := NewRateLimiter(nil, cfg)

	for i := 0; i < 10; i++ {
		res, err := rl.IsAllowed(context.Background(), "127.0.0.1", RateLimitTypeDefault)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	}

	cfg2 := testConfig()
	cfg2.Enabled = false
	rl2 := NewRateLimiter(nil, cfg2)
	for i := 0; i < 10; i++ {
		res, _ := rl2.IsAllowed(context.Background(), "x", RateLimitTypeDefault)
		assert.True(t, res.Allowed)
	}
}

func TestGetRateLimitType(t *testing.T) {
	assert.Equal(t, RateLimitTypeHealth, getRateLimitType("GET", "/health"))
	assert.Equal(t, RateLimitTypeBookingCritical, getRateLimitType("POST", "/api/v1/bookings"))
	assert.Equal(t, RateLimitTypeBookingCritical, getRateLimitType("POST", "/api/v1/bookings/cancel"))
	assert.Equal(t, RateLimitTypeBooking, getRateLimitType("GET", "/api/v1/bookings/:id"))
	assert.Equal(t, RateLimitTypeAdmin, getRateLimitType("POST", "/api/v1/admin/venues"))
	assert.Equal(t, RateLimitTypePublic, getRateLimitType("GET", "/api/v1/venues"))
	assert.Equal(t, RateLimitTypeUser, getRateLimitType("GET", "/api/v1/notifications"))
}

func TestMiddlewareRejectsOverLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig()
	cfg.DefaultRequests = 1
	engine := gin.New()
	engine.Use(Middleware(NewRateLimiter(nil, cfg)))
	engine.GET("/thing", func(c *gin.Context) { c.Status(http.StatusOK) })

	first := httptest.NewRecorder()
	engine.ServeHTTP(first, httptest.NewRequest(http.MethodGet, "/thing", nil))
	assert.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := httptest.NewRecorder()
	engine.ServeHTTP(second, httptest.NewRequest(http.MethodGet, "/thing", nil))
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
