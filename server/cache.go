package server

import (
	"sync"
	"time"
)

// Decision is a cached resolution outcome for one request path. Redirect
// false means "serve the page normally" and is cached too, so unmatched hot
// paths don't rescan the rule list on every hit.
type Decision struct {
	Redirect    bool
	Destination string
	Status      int
}

type cacheEntry struct {
	decision  Decision
	expiresAt time.Time
}

// TTLCache is a thread-safe decision cache with TTL support.
type TTLCache struct {
	items map[string]cacheEntry
	mu    sync.RWMutex
	stop  chan struct{}
}

// NewTTLCache creates a new cache and starts the cleanup goroutine.
func NewTTLCache() *TTLCache {
	c := &TTLCache{
		items: make(map[string]cacheEntry),
		stop:  make(chan struct{}),
	}
	go c.cleanupLoop()
	return c
}

// Set adds a decision to the cache with a specific TTL.
func (c *TTLCache) Set(key string, d Decision, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = cacheEntry{
		decision:  d,
		expiresAt: time.Now().Add(ttl),
	}
}

// Get retrieves a decision if it exists and hasn't expired.
func (c *TTLCache) Get(key string) (Decision, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.items[key]
	if !ok {
		return Decision{}, false
	}

	if time.Now().After(entry.expiresAt) {
		return Decision{}, false
	}

	return entry.decision, true
}

// Flush drops every entry. Called after a rule reload so stale decisions
// never outlive the snapshot that produced them.
func (c *TTLCache) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]cacheEntry)
}

// Stop stops the background cleanup goroutine.
func (c *TTLCache) Stop() {
	close(c.stop)
}

func (c *TTLCache) cleanupLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.stop:
			return
		}
	}
}

func (c *TTLCache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	for key, entry := range c.items {
		if now.After(entry.expiresAt) {
			delete(c.items, key)
		}
	}
}
