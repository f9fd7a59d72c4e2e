package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestBucket_TryTake(t *testing.T) {
	b := newBucket(10, 1) // 10 tokens, 1 token/sec refill

	for i := 0; i < 10; i++ {
		if !b.tryTake(1) {
			t.Errorf("Expected to take token %d", i)
		}
	}

	if b.tryTake(1) {
		t.Error("Should not be able to take more tokens")
	}
}

func TestBucket_Refill(t *testing.T) {
	b := newBucket(10, 10) // 10 tokens, 10 tokens/sec refill

	for i := 0; i < 10; i++ {
		b.tryTake(1)
	}

	time.Sleep(200 * time.Millisecond)

	if !b.tryTake(1) {
		t.Error("Should have refilled at least 1 token")
	}
}

func TestBucket_WaitUntil(t *testing.T) {
	b := newBucket(1, 10) // 1 token, 10 tokens/sec refill

	b.tryTake(1)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	if err := b.waitUntil(ctx, 1); err != nil {
		t.Errorf("waitUntil failed: %v", err)
	}
}

func TestBucket_WaitUntilCancelled(t *testing.T) {
	b := newBucket(1, 0.01)
	b.tryTake(1)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	if err := b.waitUntil(ctx, 1); err == nil {
		t.Error("Expected context cancellation error")
	}
}

func TestLimiter_Disabled(t *testing.T) {
	l := NewLimiter(Config{Enabled: false})

	for i := 0; i < 1000; i++ {
		if !l.AllowRequest("u1") {
			t.Fatal("Disabled limiter should always allow")
		}
	}
}

func TestLimiter_GlobalLimit(t *testing.T) {
	l := NewLimiter(Config{
		Enabled:           true,
		RequestsPerMinute: 5,
	})

	allowed := 0
	for i := 0; i < 10; i++ {
		if l.AllowRequest("") {
			allowed++
		}
	}

	if allowed != 5 {
		t.Errorf("Expected 5 allowed requests, got %d", allowed)
	}
}

func TestLimiter_PerSessionLimit(t *testing.T) {
	l := NewLimiter(Config{
		Enabled:           true,
		RequestsPerMinute: 100,
		PerSessionLimit:   true,
	})

	// Different sessions get independent buckets.
	if !l.AllowRequest("u1") {
		t.Error("u1 first request should be allowed")
	}
	if !l.AllowRequest("u2") {
		t.Error("u2 first request should be allowed")
	}
}

func TestLimiter_WaitForRequest(t *testing.T) {
	l := NewLimiter(Config{
		Enabled:           true,
		RequestsPerMinute: 600, // 10/sec, fast refill for the test
		PerSessionLimit:   true,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	for i := 0; i < 3; i++ {
		if err := l.WaitForRequest(ctx, "u1"); err != nil {
			t.Fatalf("WaitForRequest failed: %v", err)
		}
	}
}
