// Package ratelimit provides a Redis-based sliding window rate limiter for
// the public auth routes.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limit is a request budget over a sliding window.
type Limit struct {
	RequestsPerWindow int
	WindowSize        time.Duration
}

// Result represents the outcome of a rate limit check.
type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
	// RetryAfter is only set when the request was denied.
	RetryAfter time.Duration
}

// slidingWindowScript evicts entries older than the window, then admits the
// request if the window still has room. It replies {admitted, remaining,
// retry_after_ms}.
//
// KEYS[1] window set, KEYS[2] sequence counter
// ARGV[1] now ms, ARGV[2] window ms, ARGV[3] budget
var slidingWindowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local budget = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local used = redis.call('ZCARD', KEYS[1])

if used >= budget then
	local first = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
	local wait = 0
	if first[2] then
		wait = tonumber(first[2]) + window - now
	end
	return {0, 0, wait}
end

-- the sequence keeps members unique within one millisecond
local seq = redis.call('INCR', KEYS[2])
redis.call('ZADD', KEYS[1], now, now .. '-' .. seq)
redis.call('PEXPIRE', KEYS[1], window)
redis.call('PEXPIRE', KEYS[2], window)
return {1, budget - used - 1, 0}
`)

// SlidingWindowLimiter tracks request timestamps per key in a sorted set.
type SlidingWindowLimiter struct {
	client *redis.Client
	limit  Limit
	prefix string
}

func NewSlidingWindowLimiter(client *redis.Client, limit Limit, prefix string) *SlidingWindowLimiter {
	return &SlidingWindowLimiter{
		client: client,
		limit:  limit,
		prefix: prefix,
	}
}

// Allow checks and records one request for key.
func (l *SlidingWindowLimiter) Allow(ctx context.Context, key string) (*Result, error) {
	now := time.Now()
	windowKey := l.prefix + key

	reply, err := slidingWindowScript.Run(ctx, l.client,
		[]string{windowKey, windowKey + ":seq"},
		now.UnixMilli(),
		l.limit.WindowSize.Milliseconds(),
		l.limit.RequestsPerWindow,
	).Int64Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(reply) != 3 {
		return nil, fmt.Errorf("rate limit script: want 3 values, got %d", len(reply))
	}

	res := &Result{
		Allowed:   reply[0] == 1,
		Remaining: int(reply[1]),
		ResetAt:   now.Add(l.limit.WindowSize),
	}
	if !res.Allowed {
		res.RetryAfter = time.Duration(reply[2]) * time.Millisecond
	}
	return res, nil
}

// Limit returns the limiter's budget.
func (l *SlidingWindowLimiter) Limit() Limit {
	return l.limit
}
