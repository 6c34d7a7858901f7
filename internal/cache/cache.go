// Package cache provides a small thread-safe TTL cache used to memoize
// verified bearer tokens in the auth middleware.
package cache

import (
	"sync"
	"time"
)

// VerifiedTokenTTL is the upper bound on how long a verified token stays
// memoized. Callers cap each entry at the token's remaining lifetime.
const VerifiedTokenTTL = 60 * time.Second

type entry struct {
	value      interface{}
	expiration time.Time
}

// TTLCache is a thread-safe in-memory cache with per-entry TTL.
type TTLCache struct {
	mu    sync.RWMutex
	items map[string]entry
}

// New creates an empty cache.
func New() *TTLCache {
	return &TTLCache{items: make(map[string]entry)}
}

// Get returns the value for key if present and not expired.
func (c *TTLCache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.items[key]
	if !ok || time.Now().After(e.expiration) {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key for the given TTL.
func (c *TTLCache) Set(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// Opportunistic cleanup keeps the map from growing unbounded.
	if len(c.items) > 4096 {
		now := time.Now()
		for k, e := range c.items {
			if now.After(e.expiration) {
				delete(c.items, k)
			}
		}
	}
	c.items[key] = entry{value: value, expiration: time.Now().Add(ttl)}
}

// Delete removes key from the cache.
func (c *TTLCache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}
