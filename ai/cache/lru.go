// Package cache provides the generic in-memory LRU used to hold live sessions.
package cache

import (
	"container/list"
	"sync"
	"time"
)

// EvictReason tells an eviction callback why an entry left the cache.
type EvictReason int

const (
	EvictCapacity EvictReason = iota
	EvictExpired
	EvictRemoved
)

// String returns the string representation of EvictReason.
func (r EvictReason) String() string {
	switch r {
	case EvictCapacity:
		return "capacity"
	case EvictExpired:
		return "expired"
	case EvictRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// LRUCache implements an LRU cache with TTL support and generics.
// With sliding expiration enabled every hit pushes the deadline forward,
// so the TTL becomes an idle timeout.
type LRUCache[K comparable, V any] struct {
	cache      map[K]*entry[K, V]
	order      *list.List
	onEvict    func(key K, value V, reason EvictReason)
	capacity   int
	defaultTTL time.Duration
	sliding    bool
	mu         sync.Mutex
}

type entry[K comparable, V any] struct {
	expiresAt time.Time
	element   *list.Element
	key       K
	value     V
	ttl       time.Duration
}

// Option configures an LRUCache.
type Option[K comparable, V any] func(*LRUCache[K, V])

// WithSlidingExpiration refreshes an entry's deadline on every Get.
func WithSlidingExpiration[K comparable, V any]() Option[K, V] {
	return func(c *LRUCache[K, V]) { c.sliding = true }
}

// WithEvictCallback registers fn to run after an entry is dropped. fn runs
// without the cache lock held.
func WithEvictCallback[K comparable, V any](fn func(key K, value V, reason EvictReason)) Option[K, V] {
	return func(c *LRUCache[K, V]) { c.onEvict = fn }
}

// NewLRUCache creates a new LRU cache.
func NewLRUCache[K comparable, V any](capacity int, defaultTTL time.Duration, opts ...Option[K, V]) *LRUCache[K, V] {
	if capacity <= 0 {
		capacity = 1000
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	c := &LRUCache[K, V]{
		capacity:   capacity,
		defaultTTL: defaultTTL,
		cache:      make(map[K]*entry[K, V]),
		order:      list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type evicted[K comparable, V any] struct {
	key    K
	value  V
	reason EvictReason
}

// Get retrieves a value from the cache.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	var zero V

	c.mu.Lock()
	e, ok := c.cache[key]
	if !ok {
		c.mu.Unlock()
		return zero, false
	}

	now := time.Now()
	if now.After(e.expiresAt) {
		c.removeEntry(e)
		c.mu.Unlock()
		c.notify([]evicted[K, V]{{e.key, e.value, EvictExpired}})
		return zero, false
	}

	if c.sliding {
		e.expiresAt = now.Add(e.ttl)
	}
	c.order.MoveToFront(e.element)
	value := e.value
	c.mu.Unlock()
	return value, true
}

// Set stores a value in the cache. A non-positive ttl uses the default.
func (c *LRUCache[K, V]) Set(key K, value V, ttl time.Duration) {
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	c.mu.Lock()
	if e, ok := c.cache[key]; ok {
		e.value = value
		e.ttl = ttl
		e.expiresAt = time.Now().Add(ttl)
		c.order.MoveToFront(e.element)
		c.mu.Unlock()
		return
	}

	var dropped []evicted[K, V]
	for len(c.cache) >= c.capacity {
		oldest, ok := c.order.Back().Value.(*entry[K, V])
		if !ok {
			break
		}
		c.removeEntry(oldest)
		dropped = append(dropped, evicted[K, V]{oldest.key, oldest.value, EvictCapacity})
	}

	e := &entry[K, V]{
		key:       key,
		value:     value,
		ttl:       ttl,
		expiresAt: time.Now().Add(ttl),
	}
	e.element = c.order.PushFront(e)
	c.cache[key] = e
	c.mu.Unlock()

	c.notify(dropped)
}

// SetWithDefaultTTL stores a value using the default TTL.
func (c *LRUCache[K, V]) SetWithDefaultTTL(key K, value V) {
	c.Set(key, value, c.defaultTTL)
}

// Remove removes a specific entry from the cache.
func (c *LRUCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	e, ok := c.cache[key]
	if ok {
		c.removeEntry(e)
	}
	c.mu.Unlock()

	if ok {
		c.notify([]evicted[K, V]{{e.key, e.value, EvictRemoved}})
	}
	return ok
}

// Size returns the number of entries in the cache, expired or not.
func (c *LRUCache[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.cache)
}

// Capacity returns the maximum capacity of the cache.
func (c *LRUCache[K, V]) Capacity() int {
	return c.capacity
}

// CleanupExpired removes all expired entries.
// Returns the number of entries removed.
func (c *LRUCache[K, V]) CleanupExpired() int {
	c.mu.Lock()
	now := time.Now()
	var dropped []evicted[K, V]
	for _, e := range c.cache {
		if now.After(e.expiresAt) {
			dropped = append(dropped, evicted[K, V]{e.key, e.value, EvictExpired})
		}
	}
	for _, d := range dropped {
		c.removeEntry(c.cache[d.key])
	}
	c.mu.Unlock()

	c.notify(dropped)
	return len(dropped)
}

// removeEntry removes an entry from the cache.
// Must be called with lock held.
func (c *LRUCache[K, V]) removeEntry(e *entry[K, V]) {
	c.order.Remove(e.element)
	delete(c.cache, e.key)
}

func (c *LRUCache[K, V]) notify(dropped []evicted[K, V]) {
	if c.onEvict == nil {
		return
	}
	for _, d := range dropped {
		c.onEvict(d.key, d.value, d.reason)
	}
}
