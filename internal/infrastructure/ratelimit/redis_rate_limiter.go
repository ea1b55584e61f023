// Package ratelimit provides distributed rate limiting using Redis.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/turtacn/vaultgate/internal/domain/service"
	"github.com/turtacn/vaultgate/pkg/constants"
	"github.com/turtacn/vaultgate/pkg/errors"
	"github.com/turtacn/vaultgate/pkg/logger"
)

// RedisRateLimiter implements distributed rate limiting using Redis.
// When Redis is unavailable it degrades to per-process token buckets.
type RedisRateLimiter struct {
	client       redis.UniversalClient
	script       *redis.Script
	logger       logger.Logger
	config       *RateLimiterConfig
	localBuckets *TokenBucketPool
	now          func() time.Time
}

var _ service.RateLimitService = (*RedisRateLimiter)(nil)

// RateLimiterConfig holds rate limiter configuration.
type RateLimiterConfig struct {
	// Limit is the number of requests allowed per Window
	Limit int64
	// Window is the time window for rate limiting
	Window time.Duration
	// EnableLocalFallback enables local token bucket fallback
	EnableLocalFallback bool
	// KeyPrefix is the Redis key prefix
	KeyPrefix string
}

// RateLimitResult represents the result of a rate limit check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	ResetAt   time.Time
}

// Lua script for atomic token bucket operations
const tokenBucketLuaScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local requested = tonumber(ARGV[3])
local now = tonumber(ARGV[4])

local bucket = redis.call('HMGET', key, 'tokens', 'last_refill')
local tokens = tonumber(bucket[1]) or capacity
local last_refill = tonumber(bucket[2]) or now

-- rate is per second, elapsed in ms
local elapsed = math.max(0, now - last_refill)
tokens = math.min(tokens + elapsed * rate / 1000, capacity)

local allowed = 0
if tokens >= requested then
    tokens = tokens - requested
    allowed = 1
end

-- time until the bucket is full again
local reset_ms = 0
if tokens < capacity then
    reset_ms = math.ceil((capacity - tokens) / rate * 1000)
end

redis.call('HSET', key, 'tokens', tostring(tokens), 'last_refill', tostring(now))
redis.call('PEXPIRE', key, reset_ms + 60000)

return {allowed, math.floor(tokens), math.floor(capacity), reset_ms}
`

// NewRedisRateLimiter creates a new Redis-based rate limiter.
func NewRedisRateLimiter(client redis.UniversalClient, config *RateLimiterConfig, log logger.Logger) (*RedisRateLimiter, error) {
	if client == nil {
		return nil, errors.ErrInvalidRequest("redis client is required")
	}
	if config == nil {
		config = DefaultRateLimiterConfig()
	}
	if config.Limit <= 0 || config.Window <= 0 {
		return nil, errors.ErrInvalidRequest("rate limit and window must be positive")
	}

	rl := &RedisRateLimiter{
		client: client,
		script: redis.NewScript(tokenBucketLuaScript),
		logger: log.WithComponent("rate_limiter"),
		config: config,
		now:    time.Now,
	}

	if config.EnableLocalFallback {
		rl.localBuckets = NewTokenBucketPool(TokenBucketConfig{
			Capacity: float64(config.Limit),
			Rate:     float64(config.Limit) / config.Window.Seconds(),
		}, 10*config.Window)
	}

	rl.logger.Info(context.Background(), "Redis rate limiter initialized",
		logger.Int64("limit", config.Limit),
		logger.Duration("window", config.Window),
		logger.Bool("local_fallback", config.EnableLocalFallback),
	)
	return rl, nil
}

// DefaultRateLimiterConfig returns default rate limiter configuration.
func DefaultRateLimiterConfig() *RateLimiterConfig {
	return &RateLimiterConfig{
		Limit:               constants.DefaultRateLimitPerMinute,
		Window:              constants.RateLimitWindow,
		EnableLocalFallback: true,
		KeyPrefix:           "ratelimit",
	}
}

// Allow checks if a request is allowed under the rate limit.
func (rl *RedisRateLimiter) Allow(ctx context.Context, scope constants.RateLimitScope, identifier string) (bool, int, time.Time, error) {
	key := rl.buildKey(scope, identifier)
	rate := float64(rl.config.Limit) / rl.config.Window.Seconds()
	now := rl.now()

	result, err := rl.executeScript(ctx, key, rl.config.Limit, rate, 1, now)
	if err == nil {
		return result.Allowed, int(result.Remaining), result.ResetAt, nil
	}

	if rl.localBuckets == nil {
		rl.logger.Error(ctx, "Rate limit check failed", err, logger.String("key", key))
		return false, 0, time.Time{}, errors.WrapError(err, errors.CodeTemporarilyUnavailable, "rate limiter unavailable")
	}

	rl.logger.Warn(ctx, "Redis rate limit check failed, using local bucket",
		logger.String("key", key), logger.Error(err))
	bucket := rl.localBuckets.GetOrCreate(key)
	allowed := bucket.Allow()
	return allowed, int(bucket.Available()), now.Add(bucket.TimeUntilAvailable(float64(rl.config.Limit))), nil
}

// ResetLimit clears the counters for a specific key.
func (rl *RedisRateLimiter) ResetLimit(ctx context.Context, scope constants.RateLimitScope, identifier string) error {
	key := rl.buildKey(scope, identifier)
	if err := rl.client.Del(ctx, key).Err(); err != nil {
		return errors.WrapError(err, errors.CodeServerError, "failed to reset rate limit")
	}
	if rl.localBuckets != nil {
		rl.localBuckets.Remove(key)
	}
	return nil
}

func (rl *RedisRateLimiter) executeScript(ctx context.Context, key string, capacity int64, rate float64, requested int64, now time.Time) (*RateLimitResult, error) {
	raw, err := rl.script.Run(ctx, rl.client, []string{key}, capacity, rate, requested, now.UnixMilli()).Result()
	if err != nil {
		return nil, err
	}

	values, ok := raw.([]interface{})
	if !ok || len(values) < 4 {
		return nil, fmt.Errorf("invalid Lua script result")
	}
	ints := make([]int64, 4)
	for i := range ints {
		v, ok := values[i].(int64)
		if !ok {
			return nil, fmt.Errorf("invalid Lua script result at %d", i)
		}
		ints[i] = v
	}

	return &RateLimitResult{
		Allowed:   ints[0] == 1,
		Remaining: ints[1],
		Limit:     ints[2],
		ResetAt:   now.Add(time.Duration(ints[3]) * time.Millisecond),
	}, nil
}

func (rl *RedisRateLimiter) buildKey(scope constants.RateLimitScope, identifier string) string {
	return fmt.Sprintf("%s:%s:%s", rl.config.KeyPrefix, scope, identifier)
}

// Close releases local buckets.
func (rl *RedisRateLimiter) Close() error {
	if rl.localBuckets != nil {
		rl.localBuckets.Clear()
	}
	return nil
}
