package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims the window, counts what is left and records the
// new request only when under the limit. Returns 1 when allowed.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local counter_key = KEYS[2]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local count = redis.call('ZCARD', key)
	if count >= limit then
		return 0
	end

	local seq = redis.call('INCR', counter_key)
	redis.call('ZADD', key, now, now .. ':' .. seq)
	redis.call('PEXPIRE', key, window_ms)
	redis.call('PEXPIRE', counter_key, window_ms)
	return 1
`)

// SlidingWindow is a Redis-backed limiter allowing limit events per window.
// State lives in a sorted set per key, so it is shared by every relay
// instance pointed at the same Redis.
type SlidingWindow struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewSlidingWindow creates a SlidingWindow. Keys are stored under prefix.
func NewSlidingWindow(client *redis.Client, limit int, window time.Duration, prefix string) *SlidingWindow {
	return &SlidingWindow{client: client, limit: limit, window: window, prefix: prefix}
}

// Allow implements Limiter.
func (l *SlidingWindow) Allow(ctx context.Context, key string) (bool, error) {
	now := time.Now()
	redisKey := l.prefix + key

	allowed, err := slidingWindowScript.Run(ctx, l.client,
		[]string{redisKey, redisKey + ":counter"},
		now.UnixMilli(),
		now.Add(-l.window).UnixMilli(),
		l.limit,
		l.window.Milliseconds(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("run sliding window script: %w", err)
	}
	return allowed == 1, nil
}

// Forget implements Limiter.
func (l *SlidingWindow) Forget(ctx context.Context, key string) {
	redisKey := l.prefix + key
	l.client.Del(ctx, redisKey, redisKey+":counter")
}
