package ratelimit

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-monolith/mono/pkg/types"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any)         {}
func (m *mockLogger) Info(_ string, _ ...any)          {}
func (m *mockLogger) Warn(_ string, _ ...any)          {}
func (m *mockLogger) Error(_ string, _ ...any)         {}
func (m *mockLogger) With(_ ...any) types.Logger       { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger   { return m }

type fakeLimiter struct {
	limit   int
	calls   int
	failErr error
}

func (f *fakeLimiter) Allow(_ context.Context, _ string) (*Result, error) {
	if f.failErr != nil {
		return nil, f.failErr
	}
	f.calls++
	allowed := f.calls <= f.limit
	res := &Result{Allowed: allowed, ResetAt: time.Now().Add(time.Minute)}
	if allowed {
		res.Remaining = f.limit - f.calls
	} else {
		res.RetryAfter = 30 * time.Second
	}
	return res, nil
}

func (f *fakeLimiter) Limit() int { return f.limit }

func newTestApp(l Limiter) *fiber.App {
	app := fiber.New()
	app.Post("/login", IPRateLimit(l), func(c *fiber.Ctx) error {
		return c.SendString("OK")
	})
	return app
}

func TestIPRateLimit_AllowsThenRejects(t *testing.T) {
	app := newTestApp(&fakeLimiter{limit: 2})

	for i := 0; i < 2; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	}

	resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "30", resp.Header.Get("Retry-After"))
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))

	var body struct {
		Error struct {
			Code    string         `json:"code"`
			Message string         `json:"message"`
			Details map[string]any `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, CodeRateLimited, body.Error.Code)
	assert.EqualValues(t, 30, body.Error.Details["retry_after"])
}

func TestIPRateLimit_FailsOpen(t *testing.T) {
	app := newTestApp(&fakeLimiter{limit: 1, failErr: errors.New("connection refused")})

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/login", nil))
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode)
		assert.Equal(t, "unavailable", resp.Header.Get("X-RateLimit-Error"))
	}
}

func TestSlidingWindowLimiter_Redis(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	defer client.Close()

	if err := client.Ping(t.Context()).Err(); err != nil {
		t.Skip("Redis not available, skipping integration test")
	}

	prefix := "test:task-tracker:ratelimit:"
	defer func() {
		keys, _ := client.Keys(context.Background(), prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(context.Background(), keys...)
		}
	}()

	limiter := NewSlidingWindowLimiter(client, Config{RequestsPerWindow: 3, WindowSize: time.Minute}, prefix)

	for i := 0; i < 3; i++ {
		res, err := limiter.Allow(t.Context(), "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, res.Allowed, "request %d should pass", i+1)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := limiter.Allow(t.Context(), "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Positive(t, res.RetryAfter)

	// Keys are independent.
	res, err = limiter.Allow(t.Context(), "10.0.0.2")
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestModule_StartFailsWithoutRedis(t *testing.T) {
	m := NewModule("127.0.0.1:1", "", 10, &mockLogger{})
	assert.Equal(t, "rate-limiter", m.Name())

	health := m.Health(context.Background())
	assert.False(t, health.Healthy)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	assert.Error(t, m.Start(ctx))
}
