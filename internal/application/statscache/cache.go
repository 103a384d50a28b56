// Package statscache memoizes statistics projections. Entries expire after a
// TTL and are dropped early when a registration invalidates one of their tags.
package statscache

import (
	"sync"
	"time"
)

// DefaultTTL is used when the configured TTL is zero.
const DefaultTTL = 30 * time.Second

// Tag builders. A cached value is tagged with every enrollment, group and
// date it was computed from.
func EnrollmentTag(id string) string { return "enrollment:" + id }
func GroupTag(id string) string      { return "group:" + id }
func DateTag(date string) string     { return "date:" + date }

type item[V any] struct {
	value   V
	expires time.Time
	tags    []string
}

// Cache is a TTL cache with tag invalidation, safe for concurrent use.
// A negative TTL disables caching entirely.
type Cache[V any] struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	gen   uint64
	items map[string]item[V]
	byTag map[string]map[string]struct{}
}

// New creates a cache. ttl == 0 uses DefaultTTL.
func New[V any](ttl time.Duration) *Cache[V] {
	if ttl == 0 {
		ttl = DefaultTTL
	}
	return &Cache[V]{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]item[V]),
		byTag: make(map[string]map[string]struct{}),
	}
}

// WithClock overrides the time source. Used by tests.
func (c *Cache[V]) WithClock(now func() time.Time) *Cache[V] {
	c.now = now
	return c
}

// Generation returns the invalidation counter. Read it before loading a
// value from the store and pass it to Set.
func (c *Cache[V]) Generation() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.gen
}

// Get returns a live cached value.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	it, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(it.expires) {
		c.dropLocked(key)
		var zero V
		return zero, false
	}
	return it.value, true
}

// Set stores value under key unless an invalidation happened since gen was
// read, in which case the value may be stale and is discarded.
// POST: Returns whether the value was stored
func (c *Cache[V]) Set(key string, value V, gen uint64, tags ...string) bool {
	if c.ttl < 0 {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.dropLocked(key)
	c.items[key] = item[V]{value: value, expires: c.now().Add(c.ttl), tags: tags}
	for _, tag := range tags {
		keys, ok := c.byTag[tag]
		if !ok {
			keys = make(map[string]struct{})
			c.byTag[tag] = keys
		}
		keys[key] = struct{}{}
	}
	return true
}

// Invalidate drops every entry carrying any of tags and advances the
// generation so in-flight loads cannot repopulate stale values.
// POST: Returns the number of entries dropped
func (c *Cache[V]) Invalidate(tags ...string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	dropped := 0
	for _, tag := range tags {
		for key := range c.byTag[tag] {
			if _, ok := c.items[key]; ok {
				c.dropLocked(key)
				dropped++
			}
		}
		delete(c.byTag, tag)
	}
	return dropped
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

func (c *Cache[V]) dropLocked(key string) {
	it, ok := c.items[key]
	if !ok {
		return
	}
	delete(c.items, key)
	for _, tag := range it.tags {
		if keys, ok := c.byTag[tag]; ok {
			delete(keys, key)
			if len(keys) == 0 {
				delete(c.byTag, tag)
			}
		}
	}
}
