package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a tag-aware cache on Redis. Values are plain keys with a
// TTL; each tag is a set of the keys carrying it. Implements
// domain.TagCache.
type RedisCache struct {
	client *redis.Client
	logger *slog.Logger
}

// NewRedisCache creates a cache from a Redis URL.
func NewRedisCache(url string, logger *slog.Logger) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts), logger: logger}, nil
}

// Close closes the Redis connection.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is available.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get retrieves a cached value by key.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	return data, true
}

// Set stores a value under the key and registers it in each tag set. Tag
// sets expire a little after the longest-lived member so they cannot leak.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration, tags []string) {
	pipe := c.client.Pipeline()
	pipe.Set(ctx, key, value, ttl)
	for _, tag := range tags {
		tagKey := tagSetKey(tag)
		pipe.SAdd(ctx, tagKey, key)
		pipe.Expire(ctx, tagKey, ttl+time.Minute)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// Invalidate drops a single entry.
func (c *RedisCache) Invalidate(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.logger.Warn("cache invalidation failed", "key", key, "error", err)
	}
}

// InvalidateTags drops every entry carrying any of the tags.
func (c *RedisCache) InvalidateTags(ctx context.Context, tags []string) {
	for _, tag := range tags {
		tagKey := tagSetKey(tag)
		keys, err := c.client.SMembers(ctx, tagKey).Result()
		if err != nil {
			c.logger.Warn("tag lookup failed", "tag", tag, "error", err)
			continue
		}
		pipe := c.client.Pipeline()
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		pipe.Del(ctx, tagKey)
		if _, err := pipe.Exec(ctx); err != nil {
			c.logger.Warn("tag invalidation failed", "tag", tag, "error", err)
		}
	}
}

func tagSetKey(tag string) string {
	return "tag:" + tag
}
