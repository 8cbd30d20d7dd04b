// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package boundedcache implements a fixed-capacity hash-indexed cache with
// insertion-order (FIFO) eviction, generalized from limitedset's
// ring-buffer-over-map idiom to hold an arbitrary value per key, plus a
// multi-value variant used for orphan-vote multi-maps keyed by parent hash.
package boundedcache

import (
	"container/ring"
	"sync"
)

// entry is stored in the ring so eviction can find the key to remove from
// the hash index.
type entry[K comparable, V any] struct {
	key   K
	value V
}

// Cache is a bounded, single-value-per-key FIFO cache.
type Cache[K comparable, V any] struct {
	mu   sync.Mutex
	size int
	r    *ring.Ring
	hash map[K]*ring.Ring
}

// New creates a cache holding up to n keys.
func New[K comparable, V any](n int) *Cache[K, V] {
	if n < 1 {
		n = 1
	}
	return &Cache[K, V]{
		size: n,
		r:    ring.New(n),
		hash: make(map[K]*ring.Ring, n),
	}
}

// Insert adds or replaces the value for k. A new key takes the slot of the
// oldest-inserted entry (by insertion order, not by this update), evicting
// that entry if it is still present; slots freed by Erase are not reused
// ahead of it.
func (c *Cache[K, V]) Insert(k K, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if r, ok := c.hash[k]; ok {
		r.Value = entry[K, V]{key: k, value: v}
		return
	}

	if old, ok := c.r.Value.(entry[K, V]); ok {
		delete(c.hash, old.key)
	}
	c.r.Value = entry[K, V]{key: k, value: v}
	c.hash[k] = c.r
	c.r = c.r.Next()
}

// Get returns the value for k and whether it was present.
func (c *Cache[K, V]) Get(k K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var zero V
	r, ok := c.hash[k]
	if !ok {
		return zero, false
	}
	e := r.Value.(entry[K, V])
	return e.value, true
}

// HasKey reports whether k is present.
func (c *Cache[K, V]) HasKey(k K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.hash[k]
	return ok
}

// Erase removes k if present.
func (c *Cache[K, V]) Erase(k K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.hash[k]
	if !ok {
		return
	}
	// nil, not a zero-valued entry: Insert's eviction type-asserts this
	// ring slot's old value to find the hash key to drop, and a zero
	// entry{} would type-assert ok=true with a zero-valued key, wrongly
	// evicting whatever else lives at the zero key (e.g. Hash{}).
	r.Value = nil
	delete(c.hash, k)
}

// GetSize returns the current number of entries.
func (c *Cache[K, V]) GetSize() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.hash)
}

// Clear empties the cache.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.r = ring.New(c.size)
	c.hash = make(map[K]*ring.Ring, c.size)
}
