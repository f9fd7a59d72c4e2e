// Package ratelimit provides rate limiting for inbound chat requests.
// It implements a token bucket algorithm for smooth rate limiting.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Config holds rate limiter configuration.
type Config struct {
	Enabled           bool
	RequestsPerMinute int
	PerSessionLimit   bool
}

// DefaultConfig returns the default rate limiting configuration.
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		RequestsPerMinute: 60,
		PerSessionLimit:   true,
	}
}

// Limiter implements a token bucket rate limiter with a global bucket and
// optional per-session buckets.
type Limiter struct {
	config       Config
	buckets      sync.Map // map[string]*bucket
	globalBucket *bucket
}

type bucket struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // tokens per second
	lastRefill time.Time
	mu         sync.Mutex
}

func newBucket(maxTokens, refillRate float64) *bucket {
	return &bucket{
		tokens:     maxTokens,
		maxTokens:  maxTokens,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// refill adds tokens based on elapsed time. Callers hold b.mu.
func (b *bucket) refill() {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.lastRefill = now

	b.tokens += elapsed * b.refillRate
	if b.tokens > b.maxTokens {
		b.tokens = b.maxTokens
	}
}

func (b *bucket) tryTake(n float64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()

	if b.tokens >= n {
		b.tokens -= n
		return true
	}
	return false
}

// waitUntil blocks until n tokens are available or the context is
// cancelled.
func (b *bucket) waitUntil(ctx context.Context, n float64) error {
	for {
		if b.tryTake(n) {
			return nil
		}

		b.mu.Lock()
		b.refill()
		deficit := n - b.tokens
		waitTime := time.Duration(deficit/b.refillRate) * time.Second
		b.mu.Unlock()

		if waitTime <= 0 {
			waitTime = 100 * time.Millisecond
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(waitTime):
			continue
		}
	}
}

// NewLimiter creates a new rate limiter with the given configuration.
func NewLimiter(config Config) *Limiter {
	l := &Limiter{config: config}

	if config.Enabled {
		l.globalBucket = newBucket(
			float64(config.RequestsPerMinute),
			float64(config.RequestsPerMinute)/60.0,
		)
	}

	return l
}

// AllowRequest checks if a request is allowed under the rate limit.
func (l *Limiter) AllowRequest(sessionKey string) bool {
	if !l.config.Enabled {
		return true
	}

	if !l.globalBucket.tryTake(1) {
		return false
	}

	if l.config.PerSessionLimit && sessionKey != "" {
		if !l.getSessionBucket(sessionKey).tryTake(1) {
			return false
		}
	}

	return true
}

// WaitForRequest blocks until a request is allowed or the context is
// cancelled.
func (l *Limiter) WaitForRequest(ctx context.Context, sessionKey string) error {
	if !l.config.Enabled {
		return nil
	}

	if err := l.globalBucket.waitUntil(ctx, 1); err != nil {
		return err
	}

	if l.config.PerSessionLimit && sessionKey != "" {
		return l.getSessionBucket(sessionKey).waitUntil(ctx, 1)
	}

	return nil
}

func (l *Limiter) getSessionBucket(sessionKey string) *bucket {
	if cached, ok := l.buckets.Load(sessionKey); ok {
		return cached.(*bucket)
	}

	newB := newBucket(
		float64(l.config.RequestsPerMinute),
		float64(l.config.RequestsPerMinute)/60.0,
	)
	actual, _ := l.buckets.LoadOrStore(sessionKey, newB)
	return actual.(*bucket)
}
