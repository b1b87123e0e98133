// Package ratelimit throttles the credential endpoints per client IP with a
// Redis sliding window shared by every instance of the service.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds one rate limit.
type Config struct {
	// RequestsPerWindow is the maximum number of requests allowed in the window.
	RequestsPerWindow int
	// WindowSize is the duration of the sliding window.
	WindowSize time.Duration
}

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	// RetryAfter is only set when the request was rejected.
	RetryAfter time.Duration
}

// slidingWindowScript trims the window, counts, and admits atomically.
// KEYS: window set, member counter. ARGV: now ms, window start ms, limit,
// window size ms. Returns {allowed, remaining, retry_after_ms}.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local counter_key = KEYS[2]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_size_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local count = redis.call('ZCARD', key)

	if count < limit then
		local counter = redis.call('INCR', counter_key)
		redis.call('ZADD', key, now, now .. ':' .. counter)
		redis.call('PEXPIRE', key, window_size_ms)
		redis.call('PEXPIRE', counter_key, window_size_ms)
		return {1, limit - count - 1, 0}
	end

	local oldest = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
	local retry_after = 0
	if #oldest >= 2 then
		retry_after = oldest[2] + window_size_ms - now
	end
	return {0, 0, retry_after}
`)

// SlidingWindowLimiter keeps one Redis sorted set of request timestamps per
// key.
type SlidingWindowLimiter struct {
	client redis.Scripter
	config Config
	prefix string
	now    func() time.Time
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
func NewSlidingWindowLimiter(client redis.Scripter, config Config, prefix string) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		client: client,
		config: config,
		prefix: prefix,
		now:    time.Now,
	}
}

// Allow records a request for key if it fits in the window.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := l.now()
	redisKey := l.prefix + key

	raw, err := slidingWindowScript.Run(ctx, l.client, []string{redisKey, redisKey + ":counter"},
		now.UnixMilli(),
		now.Add(-l.config.WindowSize).UnixMilli(),
		l.config.RequestsPerWindow,
		l.config.WindowSize.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("failed to run rate limit script: %w", err)
	}
	if len(raw) < 3 {
		return nil, fmt.Errorf("unexpected result length: %d", len(raw))
	}

	res := &Result{
		Allowed:   raw[0] == 1,
		Remaining: int(raw[1]),
		ResetAt:   now.Add(l.config.WindowSize),
	}
	if !res.Allowed && raw[2] > 0 {
		res.RetryAfter = time.Duration(raw[2]) * time.Millisecond
	}
	return res, nil
}

// Limit returns the configured number of requests per window.
func (l *SlidingWindowLimiter) Limit() int {
	return l.config.RequestsPerWindow
}
