package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func enforceRateLimits(t *testing.T) {
	t.Helper()
	prev := rateLimitBypassed
	rateLimitBypassed = func() bool { return false }
	t.Cleanup(func() { rateLimitBypassed = prev })
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestCheckRateLimit_BypassedOutsideProduction(t *testing.T) {
	for _, env := range []string{"test", "development"} {
		t.Run(env, func(t *testing.T) {
			t.Setenv("APP_ENV", env)
			q, err := CheckRateLimit(context.Background(), nil, "likes", "1", 1, time.Minute)
			assert.NoError(t, err)
			assert.True(t, q.Allowed)
		})
	}
}

func TestCheckRateLimit_NilRedis(t *testing.T) {
	enforceRateLimits(t)

	q, err := CheckRateLimit(context.Background(), nil, "likes", "1", 1, time.Minute)
	assert.ErrorIs(t, err, errNoRedis)
	assert.False(t, q.Allowed)
}

func TestCheckRateLimit_CountsWithinWindow(t *testing.T) {
	enforceRateLimits(t)
	mr, rdb := setupRedis(t)
	ctx := context.Background()

	for i := range 3 {
		q, err := CheckRateLimit(ctx, rdb, "likes", "user:7", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, q.Allowed, "request %d", i+1)
		assert.Equal(t, 2-i, q.Remaining)
	}
	q, err := CheckRateLimit(ctx, rdb, "likes", "user:7", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, q.Allowed)
	assert.Zero(t, q.Remaining)
	assert.Greater(t, q.RetryAfter, time.Duration(0))
	assert.Greater(t, mr.TTL("rl:likes:user:7"), time.Duration(0))

	mr.FastForward(time.Minute + time.Second)
	q, err = CheckRateLimit(ctx, rdb, "likes", "user:7", 3, time.Minute)
	require.NoError(t, err)
	assert.True(t, q.Allowed, "window expiry resets the counter")
}

func TestRateLimitMiddleware(t *testing.T) {
	enforceRateLimits(t)
	_, rdb := setupRedis(t)

	app := fiber.New()
	app.Post("/likes/:postId", func(c *fiber.Ctx) error {
		c.Locals("userID", uint(42))
		return c.Next()
	}, RateLimit(rdb, 1, time.Minute, "like_toggle"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/likes/1", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	// The key is per user and per resource name, not per path.
	resp, err = app.Test(httptest.NewRequest(http.MethodPost, "/likes/2", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("Retry-After"))
}

func TestRateLimitWithPolicy_RedisDown(t *testing.T) {
	enforceRateLimits(t)

	handler := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app := fiber.New()
	app.Get("/open", RateLimitWithPolicy(nil, 1, time.Minute, FailOpen), handler)
	app.Get("/closed", RateLimitWithPolicy(nil, 1, time.Minute, FailClosed), handler)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/open", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/closed", nil))
	require.NoError(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
