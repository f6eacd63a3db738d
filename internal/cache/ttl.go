// Package cache provides a keyed expiring cache with stale-read capability.
//
// Staleness is computed lazily at read time from the entry's write
// timestamp; there is no sweeper goroutine. Entries are replaced whole on
// write, so readers never observe a partially populated value.
package cache

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Entry is an immutable cached value paired with its write timestamp.
type Entry[V any] struct {
	Value     V
	WrittenAt time.Time
}

type Cache[K comparable, V any] struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   clockwork.Clock
	entries map[K]Entry[V]
}

func New[K comparable, V any](ttl time.Duration, clock clockwork.Clock) *Cache[K, V] {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &Cache[K, V]{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[K]Entry[V]),
	}
}

// Get returns the cached entry regardless of staleness.
func (c *Cache[K, V]) Get(key K) (Entry[V], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	return entry, ok
}

// Lookup returns the cached entry along with a staleness flag, so callers
// can serve the hit immediately and decide to refresh in the background.
func (c *Cache[K, V]) Lookup(key K) (entry Entry[V], stale bool, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok = c.entries[key]
	if !ok {
		return Entry[V]{}, false, false
	}

	return entry, c.isStale(entry), true
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry[V]{Value: value, WrittenAt: c.clock.Now()}
}

// Seed restores a persisted entry under its original write timestamp, so
// staleness carries over from the durable copy.
func (c *Cache[K, V]) Seed(key K, value V, writtenAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = Entry[V]{Value: value, WrittenAt: writtenAt}
}

func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, key)
}

func (c *Cache[K, V]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]Entry[V])
}

func (c *Cache[K, V]) isStale(entry Entry[V]) bool {
	if c.ttl <= 0 {
		return false
	}

	return c.clock.Now().Sub(entry.WrittenAt) > c.ttl
}
