// Package cache implements the per-method response cache (component D):
// a TTL map keyed by (method, canonical(params)), so that a repeated
// invocation of a cacheable method with equal parameters is answered
// without a round trip to the upstream platform.
//
// A mutex-guarded map plus a background sweep goroutine, with a single
// per-entry TTL keyed by method+params.
package cache

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/compresr/bot-gateway/internal/canon"
)

type entry struct {
	value     json.RawMessage
	method    string
	expiresAt time.Time
}

// Stats summarizes the cache's current contents.
type Stats struct {
	Size     int
	ByMethod map[string]int
}

// Cache is a process-local, in-memory TTL map. Every operation is
// linearisable: a single mutex guards the map for the lifetime of the
// call, and no lock is held across anything that could block.
type Cache struct {
	mu       sync.Mutex
	entries  map[string]entry
	stopChan chan struct{}
	stopped  bool
}

// New builds a cache with a background sweep goroutine that evicts
// expired entries every 30 seconds, so memory doesn't grow unbounded
// between reads of a rarely-hit key.
func New() *Cache {
	c := &Cache{
		entries:  make(map[string]entry),
		stopChan: make(chan struct{}),
	}
	go c.sweep()
	return c
}

// Lookup returns the cached value for (method, params), or ok=false on
// miss or expiry. An expired entry is evicted eagerly on the read that
// finds it.
func (c *Cache) Lookup(method string, params map[string]any) (json.RawMessage, bool) {
	key := canon.Key(method, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, found := c.entries[key]
	if !found {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Store records value for (method, params) with the given TTL. A
// non-positive TTL is a no-op: only methods with a registered TTL are
// meant to reach this call, and a zero TTL from a misconfigured caller
// should never poison the cache with an entry that's already expired.
func (c *Cache) Store(method string, params map[string]any, value json.RawMessage, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	key := canon.Key(method, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     value,
		method:    method,
		expiresAt: time.Now().Add(ttl),
	}
}

// EvictMethod removes every entry belonging to method, leaving entries
// of other methods untouched.
func (c *Cache) EvictMethod(method string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if e.method == method {
			delete(c.entries, k)
		}
	}
}

// Clear removes every entry. Idempotent: calling it on an already-empty
// cache is a no-op.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]entry)
}

// Stats reports the current size and a per-method breakdown, including
// entries that have expired but not yet been swept.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	byMethod := make(map[string]int, len(c.entries))
	for _, e := range c.entries {
		byMethod[e.method]++
	}
	return Stats{Size: len(c.entries), ByMethod: byMethod}
}

// Close stops the sweep goroutine. Safe to call more than once.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.stopped {
		c.stopped = true
		close(c.stopChan)
	}
}

func (c *Cache) sweep() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.evictExpired()
		}
	}
}

func (c *Cache) evictExpired() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}
