// Package cache implements the retrieval result cache (C9): a
// TTL+LRU cache in front of the hybrid retriever with single-flight
// request coalescing (spec.md §4.9).
package cache

import (
	"container/list"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Key canonically hashes (normalizedQuery, k, method, filters) into the
// cache key spec.md §4.9 names.
func Key(normalizedQuery string, k int, method string, filters map[string]string) string {
	var b strings.Builder
	b.WriteString(normalizedQuery)
	b.WriteByte(0x1f)
	fmt.Fprintf(&b, "%d", k)
	b.WriteByte(0x1f)
	b.WriteString(method)

	keys := make([]string, 0, len(filters))
	for fk := range filters {
		keys = append(keys, fk)
	}
	sort.Strings(keys)
	for _, fk := range keys {
		b.WriteByte(0x1f)
		b.WriteString(fk)
		b.WriteByte('=')
		b.WriteString(filters[fk])
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

type entry struct {
	key       string
	value     any
	expiresAt time.Time
	elem      *list.Element
}

// Cache is a TTL+LRU cache of arbitrary values, fronted by a singleflight
// group so at most one computation runs per key at a time; late arrivals
// for the same key block on the in-flight call and receive its result
// (spec.md §4.9).
type Cache struct {
	ttl        time.Duration
	maxEntries int

	mu      sync.Mutex
	entries map[string]*entry
	order   *list.List // front = most recently used

	flight singleflight.Group
}

// New creates a Cache with the given TTL and LRU capacity.
func New(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
		order:      list.New(),
	}
}

// GetOrCompute returns the cached value for key if present and unexpired;
// otherwise it calls compute exactly once across all concurrent callers
// for that key (via singleflight) and caches the result, unless compute
// returns an error — errors are never cached (spec.md §4.9: "On error,
// negative results are NOT cached").
func (c *Cache) GetOrCompute(ctx context.Context, key string, compute func(ctx context.Context) (any, error)) (any, error) {
	if v, ok := c.get(key); ok {
		return v, nil
	}

	v, err, _ := c.flight.Do(key, func() (any, error) {
		if v, ok := c.get(key); ok {
			return v, nil
		}
		result, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		c.put(key, result)
		return result, nil
	})
	return v, err
}

func (c *Cache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		c.removeLocked(e)
		return nil, false
	}
	c.order.MoveToFront(e.elem)
	return e.value, true
}

func (c *Cache) put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.entries[key]; ok {
		c.removeLocked(existing)
	}

	e := &entry{key: key, value: value, expiresAt: time.Now().Add(c.ttl)}
	e.elem = c.order.PushFront(e)
	c.entries[key] = e

	for len(c.entries) > c.maxEntries {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest.Value.(*entry))
	}
}

func (c *Cache) removeLocked(e *entry) {
	c.order.Remove(e.elem)
	delete(c.entries, e.key)
}

// Len returns the current number of live (not necessarily unexpired)
// entries, for tests and metrics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
