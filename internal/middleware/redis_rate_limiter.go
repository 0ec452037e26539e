package middleware

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

type redisRateLimiter struct {
	client  redis.Cmdable
	logger  zerolog.Logger
	prefix  string
	timeout time.Duration
}

// NewRedisRateLimiter returns a limiter whose windows are shared by every
// instance using the same Redis. Redis errors fail open.
func NewRedisRateLimiter(client redis.Cmdable, logger zerolog.Logger) RateLimiter {
	return &redisRateLimiter{
		client:  client,
		logger:  logger.With().Str("component", "RedisRateLimiter").Logger(),
		prefix:  "fluentphrases:ratelimit:",
		timeout: 250 * time.Millisecond,
	}
}

func (rl *redisRateLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) RateDecision {
	if limit <= 0 {
		return RateDecision{Allowed: true}
	}
	if window <= 0 {
		window = time.Minute
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rl.timeout)
	defer cancel()

	redisKey := rl.prefix + key
	counter, err := rl.client.Incr(ctx, redisKey).Result()
	if err != nil {
		rl.logger.Error().Err(err).Str("op", "incr").Msg("Redis rate limiter error")
		return RateDecision{Allowed: true}
	}
	if counter == 1 {
		if err := rl.client.Expire(ctx, redisKey, window).Err(); err != nil {
			rl.logger.Error().Err(err).Str("op", "expire").Msg("Redis rate limiter error")
		}
	}
	ttl, err := rl.client.TTL(ctx, redisKey).Result()
	if err != nil || ttl <= 0 {
		ttl = window
	}
	return RateDecision{
		Allowed:   int(counter) <= limit,
		Count:     int(counter),
		WindowEnd: time.Now().Add(ttl),
	}
}

// OpenRedis connects and pings a Redis server.
func OpenRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}
