package middleware

import (
	"context"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// RateDecision is the result of counting one request against a window.
type RateDecision struct {
	Allowed   bool
	Count     int
	WindowEnd time.Time
}

// RateLimiter counts requests per key in fixed windows.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) RateDecision
}

type memoryRateLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
	now     func() time.Time
}

type rateWindow struct {
	count int
	end   time.Time
}

// NewMemoryRateLimiter returns a process-local limiter, used when no Redis
// address is configured.
func NewMemoryRateLimiter() RateLimiter {
	return &memoryRateLimiter{windows: make(map[string]*rateWindow), now: time.Now}
}

func (rl *memoryRateLimiter) Allow(_ context.Context, key string, limit int, window time.Duration) RateDecision {
	if limit <= 0 {
		return RateDecision{Allowed: true}
	}
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()
	w, ok := rl.windows[key]
	if !ok || !now.Before(w.end) {
		// Drop expired windows while we hold the lock anyway.
		for k, old := range rl.windows {
			if !now.Before(old.end) {
				delete(rl.windows, k)
			}
		}
		w = &rateWindow{end: now.Add(window)}
		rl.windows[key] = w
	}
	w.count++
	return RateDecision{Allowed: w.count <= limit, Count: w.count, WindowEnd: w.end}
}

// RateLimit rejects requests with 429 once a client exceeds limit requests
// per window on the same route. Clients are keyed by remote IP.
func RateLimit(limiter RateLimiter, limit int, window time.Duration, logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if limiter == nil || limit <= 0 {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKeyIP(r) + ":" + r.URL.Path
			decision := limiter.Allow(r.Context(), key, limit, window)

			remaining := limit - decision.Count
			if remaining < 0 {
				remaining = 0
			}
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if !decision.Allowed {
				retry := int(time.Until(decision.WindowEnd).Seconds())
				if retry < 1 {
					retry = 1
				}
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				logger.Warn().Str("key", key).Int("count", decision.Count).Msg("Rate limit exceeded")
				writeError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKeyIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return "ip:" + ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host == "" {
		host = "unknown"
	}
	return "ip:" + host
}
