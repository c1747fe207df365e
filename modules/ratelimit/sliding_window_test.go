package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func redisClient(t *testing.T, prefix string) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skip("Redis not available, skipping integration test")
	}

	cleanup := func() {
		keys, _ := client.Keys(ctx, prefix+"*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	}
	cleanup()
	t.Cleanup(func() {
		cleanup()
		client.Close()
	})
	return client
}

func TestSlidingWindowLimiter_Allow(t *testing.T) {
	prefix := "test:ratelimit:allow:"
	client := redisClient(t, prefix)
	ctx := context.Background()

	limiter := NewSlidingWindowLimiter(client, Limit{RequestsPerWindow: 5, WindowSize: time.Minute}, prefix)

	for i := 0; i < 5; i++ {
		result, err := limiter.Allow(ctx, "test-key")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !result.Allowed {
			t.Errorf("Request %d should be allowed", i+1)
		}
		if result.Remaining != 5-i-1 {
			t.Errorf("Expected %d remaining, got %d", 5-i-1, result.Remaining)
		}
	}

	result, err := limiter.Allow(ctx, "test-key")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Allowed {
		t.Error("6th request should be denied")
	}
	if result.Remaining != 0 {
		t.Errorf("Expected 0 remaining, got %d", result.Remaining)
	}
	if result.RetryAfter <= 0 {
		t.Error("RetryAfter should be positive")
	}
}

func TestSlidingWindowLimiter_DifferentKeys(t *testing.T) {
	prefix := "test:ratelimit:diffkeys:"
	client := redisClient(t, prefix)
	ctx := context.Background()

	limiter := NewSlidingWindowLimiter(client, Limit{RequestsPerWindow: 2, WindowSize: time.Minute}, prefix)

	for i := 0; i < 2; i++ {
		if _, err := limiter.Allow(ctx, "key1"); err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
	}

	result, err := limiter.Allow(ctx, "key1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if result.Allowed {
		t.Error("key1 should be exhausted")
	}

	result, err = limiter.Allow(ctx, "key2")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Allowed {
		t.Error("key2 should have its own budget")
	}
}

func TestSlidingWindowLimiter_WindowExpiry(t *testing.T) {
	prefix := "test:ratelimit:expiry:"
	client := redisClient(t, prefix)
	ctx := context.Background()

	limiter := NewSlidingWindowLimiter(client, Limit{RequestsPerWindow: 1, WindowSize: 200 * time.Millisecond}, prefix)

	if result, err := limiter.Allow(ctx, "k"); err != nil || !result.Allowed {
		t.Fatalf("first request should be allowed: %+v %v", result, err)
	}
	if result, err := limiter.Allow(ctx, "k"); err != nil || result.Allowed {
		t.Fatalf("second request should be denied: %+v %v", result, err)
	}

	time.Sleep(300 * time.Millisecond)

	result, err := limiter.Allow(ctx, "k")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !result.Allowed {
		t.Error("request after the window should be allowed")
	}
}
