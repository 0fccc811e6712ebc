// Package cache provides the process-wide lookup caches shared by the DKIM
// key resolver and the DMARC policy resolver.
//
// Entries are never invalidated or mutated once stored. The lock is never
// held while a value is being resolved, so two callers missing on the same
// key may both resolve it; the first value stored wins and is returned to
// both.
package cache

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var metricLookups = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "mailauth_cache_lookups_total",
		Help: "Cache lookups, by cache name and result (hit, miss, error).",
	},
	[]string{
		"cache",
		"result",
	},
)

// Cache maps keys to immutable values.
type Cache[K comparable, V any] struct {
	name string

	mu      sync.Mutex
	entries map[K]V
}

// New returns an empty cache. Name labels the cache in metrics.
func New[K comparable, V any](name string) *Cache[K, V] {
	return &Cache[K, V]{
		name:    name,
		entries: map[K]V{},
	}
}

// Get returns the cached value for key.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

// Add stores v for key unless key is already present, and returns the value
// now stored.
func (c *Cache[K, V]) Add(key K, v V) V {
	c.mu.Lock()
	defer c.mu.Unlock()
	if prev, ok := c.entries[key]; ok {
		return prev
	}
	c.entries[key] = v
	return v
}

// Len returns the number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// GetOrResolve returns the cached value for key, or calls resolve and stores
// its result. Errors from resolve are returned and nothing is stored.
func (c *Cache[K, V]) GetOrResolve(ctx context.Context, key K, resolve func(ctx context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		metricLookups.WithLabelValues(c.name, "hit").Inc()
		return v, nil
	}
	metricLookups.WithLabelValues(c.name, "miss").Inc()

	v, err := resolve(ctx)
	if err != nil {
		metricLookups.WithLabelValues(c.name, "error").Inc()
		var zero V
		return zero, err
	}
	return c.Add(key, v), nil
}
