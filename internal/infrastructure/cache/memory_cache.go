package cache

import (
	"context"
	"sync"
	"time"
)

// cacheEntry holds one cached upstream response with its expiry and tags.
type cacheEntry struct {
	data      []byte
	tags      []string
	expiresAt time.Time
}

// MemoryCache is a thread-safe in-memory cache with TTL expiry and
// tag-based invalidation. Implements domain.TagCache. Used when no Redis
// backend is configured, and in tests.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	byTag   map[string]map[string]struct{}
}

// NewMemoryCache creates an empty cache and starts its cleanup loop.
func NewMemoryCache() *MemoryCache {
	c := &MemoryCache{
		entries: make(map[string]*cacheEntry),
		byTag:   make(map[string]map[string]struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Get retrieves a cached value by key.
func (c *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, found := c.entries[key]
	if !found || time.Now().After(entry.expiresAt) {
		return nil, false
	}
	return entry.data, true
}

// Set stores a value under the key, indexed by every tag.
func (c *MemoryCache) Set(_ context.Context, key string, value []byte, ttl time.Duration, tags []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(key)
	c.entries[key] = &cacheEntry{
		data:      value,
		tags:      tags,
		expiresAt: time.Now().Add(ttl),
	}
	for _, tag := range tags {
		if c.byTag[tag] == nil {
			c.byTag[tag] = make(map[string]struct{})
		}
		c.byTag[tag][key] = struct{}{}
	}
}

// Invalidate drops a single entry.
func (c *MemoryCache) Invalidate(_ context.Context, key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(key)
}

// InvalidateTags drops every entry carrying any of the tags. Invalidation
// is idempotent: unknown tags are a no-op.
func (c *MemoryCache) InvalidateTags(_ context.Context, tags []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, tag := range tags {
		for key := range c.byTag[tag] {
			c.removeLocked(key)
		}
		delete(c.byTag, tag)
	}
}

// removeLocked deletes an entry and its tag index references. Caller holds
// the write lock.
func (c *MemoryCache) removeLocked(key string) {
	entry, found := c.entries[key]
	if !found {
		return
	}
	for _, tag := range entry.tags {
		if keys := c.byTag[tag]; keys != nil {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.byTag, tag)
			}
		}
	}
	delete(c.entries, key)
}

// cleanup removes expired entries.
func (c *MemoryCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			c.removeLocked(key)
		}
	}
}

// cleanupLoop runs periodic cleanup of expired entries.
func (c *MemoryCache) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		c.cleanup()
	}
}
