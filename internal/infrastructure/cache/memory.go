// Package cache provides the in-process and Redis-backed implementations of
// repository.Cache used to memoize the anchor date and top-item rankings.
package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/grablet/merchant-api/internal/domain/repository"
)

type memoryEntry[V any] struct {
	value     V
	expiresAt time.Time
}

// MemoryCache is a mutex-guarded map. Entries live until invalidated, or until
// their TTL elapses when one is set.
type MemoryCache[V any] struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry[V]
	ttl     time.Duration
	now     func() time.Time

	hits   int64
	misses int64
}

// NewMemoryCache creates an in-process cache. A zero ttl keeps entries forever.
func NewMemoryCache[V any](ttl time.Duration) *MemoryCache[V] {
	return &MemoryCache[V]{
		entries: make(map[string]memoryEntry[V]),
		ttl:     ttl,
		now:     time.Now,
	}
}

var _ repository.Cache[int] = (*MemoryCache[int])(nil)

func (c *MemoryCache[V]) Get(_ context.Context, key string) (V, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && !entry.expiresAt.IsZero() && c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		ok = false
	}

	if !ok {
		atomic.AddInt64(&c.misses, 1)
		var zero V
		return zero, false
	}
	atomic.AddInt64(&c.hits, 1)
	return entry.value, true
}

func (c *MemoryCache[V]) Put(_ context.Context, key string, value V) error {
	entry := memoryEntry[V]{value: value}
	if c.ttl > 0 {
		entry.expiresAt = c.now().Add(c.ttl)
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache[V]) Invalidate(_ context.Context, key string) error {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	return nil
}

func (c *MemoryCache[V]) Clear(_ context.Context) error {
	c.mu.Lock()
	c.entries = make(map[string]memoryEntry[V])
	c.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (c *MemoryCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Stats returns hit and miss counters for monitoring.
func (c *MemoryCache[V]) Stats() map[string]interface{} {
	out := stats(atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses))
	out["entries"] = c.Len()
	return out
}

func stats(hits, misses int64) map[string]interface{} {
	total := hits + misses
	out := map[string]interface{}{
		"hits":          hits,
		"misses":        misses,
		"total_lookups": total,
	}
	if total > 0 {
		out["hit_rate"] = float64(hits) / float64(total)
	}
	return out
}
