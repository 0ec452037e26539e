package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryRateLimiter_Window(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	rl := &memoryRateLimiter{windows: make(map[string]*rateWindow), now: func() time.Time { return now }}
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		d := rl.Allow(ctx, "k", 3, time.Minute)
		assert.True(t, d.Allowed, "request %d", i)
		assert.Equal(t, i, d.Count)
	}
	assert.False(t, rl.Allow(ctx, "k", 3, time.Minute).Allowed)
	assert.True(t, rl.Allow(ctx, "other", 3, time.Minute).Allowed)

	now = now.Add(time.Minute)
	d := rl.Allow(ctx, "k", 3, time.Minute)
	assert.True(t, d.Allowed)
	assert.Equal(t, 1, d.Count)
}

func TestRateLimit_Middleware(t *testing.T) {
	h := RateLimit(NewMemoryRateLimiter(), 2, time.Minute, zerolog.Nop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	do := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/signin", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1:1234").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.1:1235").Code)
	rec := do("10.0.0.1:1236")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, do("10.0.0.2:1234").Code)
}

func TestRateLimit_DisabledPassesThrough(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	h := RateLimit(nil, 10, time.Minute, zerolog.Nop())(next)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitKeyIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "ip:192.0.2.7", rateLimitKeyIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "ip:203.0.113.9", rateLimitKeyIP(req))
}

// Runs against a real Redis when REDIS_ADDR is set.
func TestRedisRateLimiter_Integration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	client, err := OpenRedis(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer client.Close()

	rl := NewRedisRateLimiter(client, zerolog.Nop())
	key := "test:" + uuid.NewString()
	ctx := context.Background()

	assert.True(t, rl.Allow(ctx, key, 2, time.Minute).Allowed)
	assert.True(t, rl.Allow(ctx, key, 2, time.Minute).Allowed)
	d := rl.Allow(ctx, key, 2, time.Minute)
	assert.False(t, d.Allowed)
	assert.Equal(t, 3, d.Count)
}
