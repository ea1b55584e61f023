// Package ratelimit provides rate limiting implementations.
package ratelimit

import (
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/turtacn/vaultgate/pkg/constants"
)

// TokenBucket implements the token bucket algorithm for rate limiting.
// It provides thread-safe rate limiting with automatic token refill.
type TokenBucket struct {
	mu         sync.Mutex
	capacity   float64   // Maximum number of tokens
	tokens     float64   // Current number of tokens
	rate       float64   // Tokens added per second
	lastRefill time.Time // Last time tokens were refilled
	now        func() time.Time
}

// TokenBucketConfig holds configuration for creating a token bucket.
type TokenBucketConfig struct {
	// Capacity is the maximum number of tokens the bucket can hold
	Capacity float64
	// Rate is the number of tokens added per second
	Rate float64
}

// NewTokenBucket creates a new full token bucket with the specified capacity and rate.
func NewTokenBucket(capacity, rate float64) *TokenBucket {
	return newTokenBucket(capacity, rate, time.Now)
}

func newTokenBucket(capacity, rate float64, now func() time.Time) *TokenBucket {
	if capacity <= 0 {
		capacity = float64(constants.DefaultRateLimitPerMinute)
	}
	if rate <= 0 {
		rate = float64(constants.DefaultRateLimitPerMinute) / 60.0 // per second
	}

	return &TokenBucket{
		capacity:   capacity,
		tokens:     capacity,
		rate:       rate,
		lastRefill: now(),
		now:        now,
	}
}

// Allow attempts to consume one token from the bucket.
func (tb *TokenBucket) Allow() bool {
	return tb.AllowN(1.0)
}

// AllowN attempts to consume n tokens from the bucket.
func (tb *TokenBucket) AllowN(n float64) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= n {
		tb.tokens -= n
		return true
	}
	return false
}

// refill adds tokens based on elapsed time. Must be called with lock held.
func (tb *TokenBucket) refill() {
	now := tb.now()
	elapsed := now.Sub(tb.lastRefill).Seconds()

	tb.tokens += elapsed * tb.rate
	if tb.tokens > tb.capacity {
		tb.tokens = tb.capacity
	}
	tb.lastRefill = now
}

// Available returns the current number of tokens available.
func (tb *TokenBucket) Available() float64 {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	return tb.tokens
}

// TimeUntilAvailable returns the duration until n tokens will be available.
func (tb *TokenBucket) TimeUntilAvailable(n float64) time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens >= n {
		return 0
	}
	seconds := (n - tb.tokens) / tb.rate
	return time.Duration(seconds * float64(time.Second))
}

// TokenBucketPool keeps one bucket per key in a go-cache that evicts buckets idle for longer than idleTTL.
type TokenBucketPool struct {
	mu      sync.Mutex
	buckets *cache.Cache
	config  TokenBucketConfig
	idleTTL time.Duration
	now     func() time.Time
}

// NewTokenBucketPool creates a new token bucket pool.
func NewTokenBucketPool(config TokenBucketConfig, idleTTL time.Duration) *TokenBucketPool {
	return &TokenBucketPool{
		buckets: cache.New(idleTTL, 2*idleTTL),
		config:  config,
		idleTTL: idleTTL,
		now:     time.Now,
	}
}

// GetOrCreate returns the bucket for key, creating a full one when absent, and refreshes its idle timer.
func (p *TokenBucketPool) GetOrCreate(key string) *TokenBucket {
	p.mu.Lock()
	defer p.mu.Unlock()

	if v, ok := p.buckets.Get(key); ok {
		bucket := v.(*TokenBucket)
		p.buckets.Set(key, bucket, p.idleTTL)
		return bucket
	}

	bucket := newTokenBucket(p.config.Capacity, p.config.Rate, p.now)
	p.buckets.Set(key, bucket, p.idleTTL)
	return bucket
}

// Remove removes a bucket from the pool.
func (p *TokenBucketPool) Remove(key string) {
	p.buckets.Delete(key)
}

// Size returns the number of live buckets in the pool.
func (p *TokenBucketPool) Size() int {
	return p.buckets.ItemCount()
}

// Clear removes all buckets from the pool.
func (p *TokenBucketPool) Clear() {
	p.buckets.Flush()
}
