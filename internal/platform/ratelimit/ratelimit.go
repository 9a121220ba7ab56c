// Package ratelimit throttles login attempts with a token bucket kept in Redis,
// so every API instance shares the same budget per client.
package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const tokenBucketLua = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local burst = tonumber(ARGV[2])
local now = tonumber(ARGV[3])

local data = redis.call("HMGET", key, "tokens", "ts")
local tokens = tonumber(data[1])
local ts = tonumber(data[2])
if tokens == nil then
  tokens = burst
end
if ts == nil then
  ts = now
end

tokens = math.min(burst, tokens + (math.max(0, now - ts) * rate) / 1000.0)

local allowed = 0
local wait_ms = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
else
  wait_ms = math.ceil((1 - tokens) * 1000.0 / rate)
end

redis.call("HSET", key, "tokens", tostring(tokens), "ts", tostring(now))
redis.call("PEXPIRE", key, math.ceil((burst / rate) * 1000.0 * 2))

return {allowed, wait_ms}
`

// Decision is the result of one attempt against a bucket.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Limiter is a Redis token bucket keyed per client.
type Limiter struct {
	rdb    redis.Scripter
	prefix string
	rate   float64 // tokens per second
	burst  float64
	now    func() time.Time
	script *redis.Script
	logger *slog.Logger
}

// NewLimiter creates a Limiter refilling perMinute tokens a minute up to burst.
// Keys are stored as prefix + client key.
func NewLimiter(rdb redis.Scripter, prefix string, perMinute, burst int, logger *slog.Logger) *Limiter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Limiter{
		rdb:    rdb,
		prefix: prefix,
		rate:   float64(perMinute) / 60.0,
		burst:  float64(burst),
		now:    time.Now,
		script: redis.NewScript(tokenBucketLua),
		logger: logger.With(slog.String("component", "rate_limiter")),
	}
}

// Allow takes one token from the bucket for key.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	if l.rate <= 0 || l.burst <= 0 {
		return Decision{Allowed: true}, nil
	}

	res, err := l.script.Run(ctx, l.rdb, []string{l.prefix + key}, l.rate, l.burst, l.now().UnixMilli()).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("ratelimit eval: %w", err)
	}
	values, ok := res.([]any)
	if !ok || len(values) < 2 {
		return Decision{}, fmt.Errorf("ratelimit invalid result: %v", res)
	}

	d := Decision{
		Allowed:    toInt64(values[0]) == 1,
		RetryAfter: time.Duration(toInt64(values[1])) * time.Millisecond,
	}
	if !d.Allowed {
		l.logger.DebugContext(ctx, "rate limit exceeded", slog.String("key", key))
	}
	return d, nil
}

func toInt64(v any) int64 {
	switch t := v.(type) {
	case int64:
		return t
	case string:
		if parsed, err := strconv.ParseInt(t, 10, 64); err == nil {
			return parsed
		}
	}
	return 0
}
