// Package cache provides a generic in-memory cache with per-entry expiry,
// used to avoid repeating calls to external services.
package cache

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

type item[V any] struct {
	value     V
	expiresAt int64 // unix nanos, 0 never expires
}

func (it item[V]) expired(now int64) bool {
	return it.expiresAt != 0 && now > it.expiresAt
}

// Stats is a point-in-time view of cache effectiveness
type Stats struct {
	Hits   uint64
	Misses uint64
	Size   int
}

// TTLCache is a thread-safe cache with time-based expiration. When maxItems
// is positive, entries closest to expiry are evicted first once it is full.
type TTLCache[K comparable, V any] struct {
	mu         sync.RWMutex
	items      map[K]item[V]
	defaultTTL time.Duration
	maxItems   int

	hits   atomic.Uint64
	misses atomic.Uint64

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache. A positive cleanupInterval starts a background
// sweeper that runs until Stop.
func New[K comparable, V any](defaultTTL, cleanupInterval time.Duration, maxItems int) *TTLCache[K, V] {
	c := &TTLCache[K, V]{
		items:      make(map[K]item[V]),
		defaultTTL: defaultTTL,
		maxItems:   maxItems,
		stop:       make(chan struct{}),
	}
	if cleanupInterval > 0 {
		go c.cleanup(cleanupInterval)
	}
	return c
}

// Set stores value with the default TTL
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, c.defaultTTL)
}

// SetWithTTL stores value for ttl. A non-positive ttl never expires.
func (c *TTLCache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = time.Now().Add(ttl).UnixNano()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = item[V]{value: value, expiresAt: expiresAt}
	if c.maxItems > 0 && len(c.items) > c.maxItems {
		c.evictOldest()
	}
}

// Get returns the value for key if present and not expired
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	it, found := c.items[key]
	c.mu.RUnlock()

	if !found {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	if it.expired(time.Now().UnixNano()) {
		c.mu.Lock()
		if latest, ok := c.items[key]; ok && latest.expired(time.Now().UnixNano()) {
			delete(c.items, key)
		}
		c.mu.Unlock()
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	return it.value, true
}

// Delete removes key
func (c *TTLCache[K, V]) Delete(key K) {
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}

// Len returns the number of stored entries, including expired ones not yet swept
func (c *TTLCache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Clear removes every entry
func (c *TTLCache[K, V]) Clear() {
	c.mu.Lock()
	c.items = make(map[K]item[V])
	c.mu.Unlock()
}

// Stats returns hit and miss counters and the current size
func (c *TTLCache[K, V]) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Size:   c.Len(),
	}
}

// Stop ends the background sweeper
func (c *TTLCache[K, V]) Stop() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// evictOldest must be called with the write lock held
func (c *TTLCache[K, V]) evictOldest() {
	excess := len(c.items) - c.maxItems
	if excess <= 0 {
		return
	}

	type entry struct {
		key       K
		expiresAt int64
	}
	entries := make([]entry, 0, len(c.items))
	for k, v := range c.items {
		exp := v.expiresAt
		if exp == 0 {
			exp = math.MaxInt64
		}
		entries = append(entries, entry{k, exp})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].expiresAt < entries[j].expiresAt
	})
	for _, e := range entries[:excess] {
		delete(c.items, e.key)
	}
}

func (c *TTLCache[K, V]) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.deleteExpired()
		case <-c.stop:
			return
		}
	}
}

func (c *TTLCache[K, V]) deleteExpired() {
	now := time.Now().UnixNano()
	c.mu.Lock()
	for k, v := range c.items {
		if v.expired(now) {
			delete(c.items, k)
		}
	}
	c.mu.Unlock()
}
