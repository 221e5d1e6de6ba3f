// Copyright © 2024 The ELPS authors

package mro

import (
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Key identifies a cached linearization.
type Key struct {
	Namespace string
	Algorithm Algorithm
}

type generation struct {
	id      uint64
	entries sync.Map // Key -> Ancestry
}

// Cache memoizes linearizations for one analysis session.  It is safe for
// concurrent use.  Invalidate discards every entry at once: a reader sees
// either the complete prior contents or an empty cache.
type Cache struct {
	gen   atomic.Pointer[generation]
	next  atomic.Uint64
	group singleflight.Group
}

func NewCache() *Cache {
	c := &Cache{}
	c.gen.Store(&generation{})
	return c
}

// GetOrCompute returns the ancestry stored for key, calling compute on a
// miss.  Concurrent misses for the same key share one computation.  No lock
// is held while compute runs.  The returned ancestry is shared and must not
// be modified.
func (c *Cache) GetOrCompute(key Key, compute func() Ancestry) Ancestry {
	gen := c.gen.Load()
	if v, ok := gen.entries.Load(key); ok {
		cacheHits.Inc()
		return v.(Ancestry)
	}
	cacheMisses.Inc()
	flight := fmt.Sprintf("%d/%d/%s", gen.id, key.Algorithm, key.Namespace)
	v, _, _ := c.group.Do(flight, func() (interface{}, error) {
		if v, ok := gen.entries.Load(key); ok {
			return v, nil
		}
		anc := compute()
		// After an Invalidate gen is unreachable, so a result computed
		// against the old symbol graph is never visible to new readers.
		gen.entries.Store(key, anc)
		return anc, nil
	})
	return v.(Ancestry)
}

// Invalidate drops every entry.
func (c *Cache) Invalidate() {
	id := c.next.Add(1)
	c.gen.Store(&generation{id: id})
	cacheInvalidations.Inc()
}

// Generation returns the number of invalidations so far.
func (c *Cache) Generation() uint64 {
	return c.gen.Load().id
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	n := 0
	c.gen.Load().entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
