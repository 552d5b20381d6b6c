package cache

import (
	"sync"
	"time"

	"ai-companion-chat/backend/pkg/config"
)

type item struct {
	value      interface{}
	expiration int64
}

func (it item) expired() bool {
	if it.expiration == 0 {
		return false
	}
	return time.Now().UnixNano() > it.expiration
}

// Cache is a small thread-safe in-memory TTL cache. It backs the resolved
// settings snapshot so a chat turn does not re-read the settings table for
// every responder.
type Cache struct {
	items           map[string]item
	mu              sync.RWMutex
	defaultTTL      time.Duration
	cleanupInterval time.Duration
}

// NewCache creates a cache using the TTL and purge window from config.
func NewCache() *Cache {
	cfg := config.Get()

	c := &Cache{
		items:           make(map[string]item),
		defaultTTL:      cfg.Cache.TTL,
		cleanupInterval: cfg.Cache.PurgeWindow,
	}
	if c.cleanupInterval > 0 {
		go c.cleanupLoop()
	}
	return c
}

// Set stores a value under key with the default TTL.
func (c *Cache) Set(key string, value interface{}) {
	var exp int64
	if c.defaultTTL > 0 {
		exp = time.Now().Add(c.defaultTTL).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = item{value: value, expiration: exp}
}

// Get returns the value under key, or false when absent or expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, found := c.items[key]
	if !found || it.expired() {
		return nil, false
	}
	return it.value, true
}

// Delete removes the value under key.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for range ticker.C {
		c.deleteExpired()
	}
}

func (c *Cache) deleteExpired() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UnixNano()
	for k, it := range c.items {
		if it.expiration > 0 && now > it.expiration {
			delete(c.items, k)
		}
	}
}
