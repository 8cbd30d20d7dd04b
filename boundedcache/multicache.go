// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package boundedcache

import "sync"

// MultiCache is a bounded cache permitting multiple values per key, used
// for the orphan-vote multi-map keyed by the unknown parent hash
// (cmmapOrphanVotes in spec.md §4.2/§4.3).
//
// Capacity bounds the total number of values across all keys, evicted in
// insertion order across the whole cache (not per-key), mirroring the
// single-value Cache's global FIFO policy.
type MultiCache[K comparable, V any] struct {
	mu     sync.Mutex
	single *Cache[uint64, multiEntry[K, V]]
	nextID uint64
	byKey  map[K]map[uint64]struct{}
}

type multiEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewMulti creates a multi-value cache holding up to n total values.
func NewMulti[K comparable, V any](n int) *MultiCache[K, V] {
	return &MultiCache[K, V]{
		single: New[uint64, multiEntry[K, V]](n),
		byKey:  make(map[K]map[uint64]struct{}),
	}
}

// Insert adds v under key k; returns an id that can later be used to
// remove this specific value.
func (m *MultiCache[K, V]) Insert(k K, v V) uint64 {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.mu.Unlock()

	m.single.Insert(id, multiEntry[K, V]{key: k, value: v})

	m.mu.Lock()
	defer m.mu.Unlock()
	ids, ok := m.byKey[k]
	if !ok {
		ids = make(map[uint64]struct{})
		m.byKey[k] = ids
	}
	ids[id] = struct{}{}
	return id
}

// Get returns every value currently stored under k.
func (m *MultiCache[K, V]) Get(k K) []V {
	m.mu.Lock()
	ids := make([]uint64, 0, len(m.byKey[k]))
	for id := range m.byKey[k] {
		ids = append(ids, id)
	}
	m.mu.Unlock()

	values := make([]V, 0, len(ids))
	for _, id := range ids {
		if e, ok := m.single.Get(id); ok {
			values = append(values, e.value)
		}
	}
	return values
}

// Keys returns every key currently holding at least one value.
func (m *MultiCache[K, V]) Keys() []K {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make([]K, 0, len(m.byKey))
	for k, ids := range m.byKey {
		for id := range ids {
			if m.single.HasKey(id) {
				keys = append(keys, k)
				break
			}
		}
	}
	return keys
}

// HasKey reports whether any value is stored under k.
func (m *MultiCache[K, V]) HasKey(k K) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id := range m.byKey[k] {
		if m.single.HasKey(id) {
			return true
		}
	}
	return false
}

// Erase removes every value stored under k.
func (m *MultiCache[K, V]) Erase(k K) {
	m.mu.Lock()
	ids := m.byKey[k]
	delete(m.byKey, k)
	m.mu.Unlock()

	for id := range ids {
		m.single.Erase(id)
	}
}

// GetSize returns the total number of values across all keys.
func (m *MultiCache[K, V]) GetSize() int {
	return m.single.GetSize()
}

// Clear empties the cache.
func (m *MultiCache[K, V]) Clear() {
	m.mu.Lock()
	m.byKey = make(map[K]map[uint64]struct{})
	m.mu.Unlock()
	m.single.Clear()
}
