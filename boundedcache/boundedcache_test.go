// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package boundedcache_test

import (
	"testing"

	"github.com/dashpay/govman/boundedcache"
)

func TestInsertAndGet(t *testing.T) {
	c := boundedcache.New[string, int](4)
	c.Insert("a", 1)
	c.Insert("b", 2)

	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("expected a=1, got %v %v", v, ok)
	}
	if !c.HasKey("b") {
		t.Errorf("expected key b present")
	}
	if c.GetSize() != 2 {
		t.Errorf("expected size 2, got %d", c.GetSize())
	}
}

func TestFIFOEviction(t *testing.T) {
	c := boundedcache.New[string, int](3)
	c.Insert("a", 1)
	c.Insert("b", 2)
	c.Insert("c", 3)
	c.Insert("d", 4) // evicts "a"

	if c.HasKey("a") {
		t.Errorf("expected a to be evicted")
	}
	if !c.HasKey("d") {
		t.Errorf("expected d present")
	}
	if c.GetSize() != 3 {
		t.Errorf("expected bounded size 3, got %d", c.GetSize())
	}
}

func TestEraseAndClear(t *testing.T) {
	c := boundedcache.New[string, int](3)
	c.Insert("a", 1)
	c.Erase("a")
	if c.HasKey("a") {
		t.Errorf("expected a erased")
	}
	c.Insert("b", 2)
	c.Clear()
	if c.GetSize() != 0 {
		t.Errorf("expected empty cache after clear, got %d", c.GetSize())
	}
}

func TestMultiCache(t *testing.T) {
	m := boundedcache.NewMulti[string, int](10)
	m.Insert("p", 1)
	m.Insert("p", 2)
	m.Insert("q", 3)

	vals := m.Get("p")
	if len(vals) != 2 {
		t.Errorf("expected 2 values under p, got %d", len(vals))
	}
	if !m.HasKey("q") {
		t.Errorf("expected q present")
	}

	m.Erase("p")
	if m.HasKey("p") {
		t.Errorf("expected p erased")
	}
	if !m.HasKey("q") {
		t.Errorf("expected q to survive erase of p")
	}
}
