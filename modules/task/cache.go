package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	domain "github.com/example/todo-app/domain/task"
	"github.com/example/todo-app/metrics"
	"github.com/redis/go-redis/v9"
)

// ListCache stores listing pages in Redis. Each owner has a version counter
// that is part of every page key; bumping it on any mutation orphans all of
// that owner's cached pages, which then expire through their TTL.
//
// A nil *ListCache is valid and caches nothing.
type ListCache struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	metrics *metrics.PromMetrics
}

// NewListCache creates a cache over an existing Redis client.
func NewListCache(client *redis.Client, prefix string, ttl time.Duration, m *metrics.PromMetrics) *ListCache {
	return &ListCache{
		client:  client,
		prefix:  prefix,
		ttl:     ttl,
		metrics: m,
	}
}

func (c *ListCache) versionKey(owner string) string {
	return c.prefix + "ver:" + owner
}

func (c *ListCache) pageKey(owner string, version int64, q domain.ListQuery) string {
	return fmt.Sprintf("%slist:%s:v%d:%s", c.prefix, owner, version, q.CacheKey())
}

func (c *ListCache) version(ctx context.Context, owner string) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey(owner)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Get returns a cached page. found is false on a miss. The returned version
// must be handed to Set so that a page computed while a mutation bumped the
// version is never stored under the new one.
func (c *ListCache) Get(ctx context.Context, owner string, q domain.ListQuery) (result domain.ListResult, version int64, found bool, err error) {
	if c == nil {
		return domain.ListResult{}, 0, false, nil
	}

	version, err = c.version(ctx, owner)
	if err != nil {
		return domain.ListResult{}, 0, false, fmt.Errorf("cache get error: %w", err)
	}

	data, err := c.client.Get(ctx, c.pageKey(owner, version, q)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			c.metrics.CacheMiss()
			return domain.ListResult{}, version, false, nil
		}
		return domain.ListResult{}, 0, false, fmt.Errorf("cache get error: %w", err)
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return domain.ListResult{}, 0, false, fmt.Errorf("cache unmarshal error: %w", err)
	}
	c.metrics.CacheHit()
	return result, version, true, nil
}

// Set stores a page under the version returned by Get.
func (c *ListCache) Set(ctx context.Context, owner string, version int64, q domain.ListQuery, result domain.ListResult) error {
	if c == nil {
		return nil
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("cache marshal error: %w", err)
	}

	if err := c.client.Set(ctx, c.pageKey(owner, version, q), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set error: %w", err)
	}
	return nil
}

// Invalidate drops every cached page of owner.
func (c *ListCache) Invalidate(ctx context.Context, owner string) error {
	if c == nil {
		return nil
	}
	if err := c.client.Incr(ctx, c.versionKey(owner)).Err(); err != nil {
		return fmt.Errorf("cache invalidate error: %w", err)
	}
	return nil
}

// Ping checks if the Redis connection is healthy.
func (c *ListCache) Ping(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client connection.
func (c *ListCache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
