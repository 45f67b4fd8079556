// Package cache provides a small in-memory TTL cache used by the store.
package cache

import (
	"context"
	"sync"
	"time"
)

// Config holds the cache configuration.
type Config struct {
	// DefaultTTL applies to entries stored with Set.
	DefaultTTL time.Duration
	// CleanupInterval is how often expired entries are purged. Zero disables
	// the background cleanup; expired entries are still never returned.
	CleanupInterval time.Duration
	// MaxItems bounds the number of entries. Zero means unbounded.
	MaxItems int
	// OnEviction is called for entries removed by expiry or capacity.
	OnEviction func(key string, value any)
}

type item struct {
	value     any
	expiresAt time.Time
}

// Cache is a concurrency-safe map with per-entry expiry.
type Cache struct {
	config Config

	mu    sync.RWMutex
	items map[string]item

	stop     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// New creates a cache and starts its cleanup loop.
func New(config Config) *Cache {
	c := &Cache{
		config: config,
		items:  make(map[string]item),
		stop:   make(chan struct{}),
		now:    time.Now,
	}
	if config.CleanupInterval > 0 {
		go c.cleanupLoop()
	}
	return c
}

// Set stores value under key with the default TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) {
	c.SetWithTTL(ctx, key, value, c.config.DefaultTTL)
}

// SetWithTTL stores value under key. A non-positive ttl never expires.
func (c *Cache) SetWithTTL(_ context.Context, key string, value any, ttl time.Duration) {
	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	c.mu.Lock()
	if _, exists := c.items[key]; !exists && c.config.MaxItems > 0 && len(c.items) >= c.config.MaxItems {
		c.evictOneLocked()
	}
	c.items[key] = item{value: value, expiresAt: expiresAt}
	c.mu.Unlock()
}

// Get returns the value of key if present and not expired.
func (c *Cache) Get(_ context.Context, key string) (any, bool) {
	c.mu.RLock()
	it, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || c.expired(it) {
		return nil, false
	}
	return it.value, true
}

// Delete removes key.
func (c *Cache) Delete(_ context.Context, key string) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Clear removes every entry.
func (c *Cache) Clear(_ context.Context) {
	c.mu.Lock()
	c.items = make(map[string]item)
	c.mu.Unlock()
}

// Size returns the number of stored entries, expired ones included until the
// next cleanup.
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Close stops the cleanup loop.
func (c *Cache) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
}

func (c *Cache) expired(it item) bool {
	return !it.expiresAt.IsZero() && c.now().After(it.expiresAt)
}

// evictOneLocked drops an expired entry if any, otherwise the entry closest
// to expiry. Entries without expiry go last.
func (c *Cache) evictOneLocked() {
	var victim string
	var victimItem item
	found := false
	for k, it := range c.items {
		if c.expired(it) {
			victim, victimItem, found = k, it, true
			break
		}
		if !found || (!it.expiresAt.IsZero() && (victimItem.expiresAt.IsZero() || it.expiresAt.Before(victimItem.expiresAt))) {
			victim, victimItem, found = k, it, true
		}
	}
	if !found {
		return
	}
	delete(c.items, victim)
	if c.config.OnEviction != nil {
		c.config.OnEviction(victim, victimItem.value)
	}
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.config.CleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.purgeExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *Cache) purgeExpired() {
	c.mu.Lock()
	evicted := make(map[string]any)
	for k, it := range c.items {
		if c.expired(it) {
			evicted[k] = it.value
			delete(c.items, k)
		}
	}
	c.mu.Unlock()

	if c.config.OnEviction != nil {
		for k, v := range evicted {
			c.config.OnEviction(k, v)
		}
	}
}
