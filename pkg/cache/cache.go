package cache

import (
	"sync"
	"time"
)

// EntityKey identifies a cached entry by what it is, not by a formatted
// string key. Invalidation happens through tags, never by matching key
// patterns.
type EntityKey struct {
	Kind string
	ID   string
}

// Cache stores entities keyed by (kind, id) with a tag set per entry.
// Implementations can be in-memory or backed by an external store.
type Cache interface {
	// Get retrieves a value from the cache.
	// Returns the value and true if found, nil and false otherwise.
	Get(key EntityKey) (interface{}, bool)

	// Set stores a value with the specified TTL and tags. Invalidating any
	// of the tags removes the entry.
	Set(key EntityKey, value interface{}, ttl time.Duration, tags ...string)

	// GetOrSet atomically gets a value or computes and caches it if not
	// found. The compute function is only called on a miss.
	GetOrSet(key EntityKey, ttl time.Duration, compute func() (interface{}, error), tags ...string) (interface{}, error)

	// Delete removes a specific entry.
	Delete(key EntityKey)

	// InvalidateTag removes every entry carrying the tag.
	InvalidateTag(tag string)

	// Clear removes all items from the cache.
	Clear()

	// Size returns the number of items currently in the cache.
	Size() int

	// Stop shuts down the cache and its cleanup goroutine.
	Stop()
}

type cacheItem struct {
	value      interface{}
	expiration time.Time
	tags       []string
}

func (item *cacheItem) isExpired() bool {
	return time.Now().After(item.expiration)
}

// InMemoryCache is a thread-safe in-memory implementation of Cache.
type InMemoryCache struct {
	items           map[EntityKey]*cacheItem
	tags            map[string]map[EntityKey]struct{}
	mu              sync.RWMutex
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

// NewInMemoryCache creates a new in-memory cache with automatic cleanup.
// cleanupInterval determines how often expired items are removed.
func NewInMemoryCache(cleanupInterval time.Duration) *InMemoryCache {
	cache := &InMemoryCache{
		items:           make(map[EntityKey]*cacheItem),
		tags:            make(map[string]map[EntityKey]struct{}),
		cleanupInterval: cleanupInterval,
		stopCleanup:     make(chan struct{}),
	}

	go cache.startCleanup()

	return cache
}

func (c *InMemoryCache) Get(key EntityKey) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, found := c.items[key]
	if !found || item.isExpired() {
		return nil, false
	}

	return item.value, true
}

func (c *InMemoryCache) Set(key EntityKey, value interface{}, ttl time.Duration, tags ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.set(key, value, ttl, tags)
}

// set stores an entry and indexes its tags. Caller must hold the write lock.
func (c *InMemoryCache) set(key EntityKey, value interface{}, ttl time.Duration, tags []string) {
	if old, found := c.items[key]; found {
		c.unindexTags(key, old.tags)
	}

	c.items[key] = &cacheItem{
		value:      value,
		expiration: time.Now().Add(ttl),
		tags:       tags,
	}

	for _, tag := range tags {
		keys, ok := c.tags[tag]
		if !ok {
			keys = make(map[EntityKey]struct{})
			c.tags[tag] = keys
		}
		keys[key] = struct{}{}
	}
}

func (c *InMemoryCache) GetOrSet(key EntityKey, ttl time.Duration, compute func() (interface{}, error), tags ...string) (interface{}, error) {
	c.mu.RLock()
	item, found := c.items[key]
	if found && !item.isExpired() {
		c.mu.RUnlock()
		return item.value, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring the write lock, another goroutine might
	// have computed it already.
	item, found = c.items[key]
	if found && !item.isExpired() {
		return item.value, nil
	}

	value, err := compute()
	if err != nil {
		return nil, err
	}

	c.set(key, value, ttl, tags)

	return value, nil
}

func (c *InMemoryCache) Delete(key EntityKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.remove(key)
}

func (c *InMemoryCache) InvalidateTag(tag string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.tags[tag] {
		c.remove(key)
	}
	delete(c.tags, tag)
}

// remove deletes an entry and its tag index references. Caller must hold
// the write lock.
func (c *InMemoryCache) remove(key EntityKey) {
	item, found := c.items[key]
	if !found {
		return
	}

	c.unindexTags(key, item.tags)
	delete(c.items, key)
}

func (c *InMemoryCache) unindexTags(key EntityKey, tags []string) {
	for _, tag := range tags {
		if keys, ok := c.tags[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.tags, tag)
			}
		}
	}
}

func (c *InMemoryCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[EntityKey]*cacheItem)
	c.tags = make(map[string]map[EntityKey]struct{})
}

// Size returns the number of items currently in the cache.
// Note: This includes expired items that haven't been cleaned up yet.
func (c *InMemoryCache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

func (c *InMemoryCache) Stop() {
	c.stopOnce.Do(func() {
		close(c.stopCleanup)
	})
}

func (c *InMemoryCache) startCleanup() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stopCleanup:
			return
		}
	}
}

func (c *InMemoryCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, item := range c.items {
		if now.After(item.expiration) {
			c.unindexTags(key, item.tags)
			delete(c.items, key)
		}
	}
}
