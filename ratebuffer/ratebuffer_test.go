// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package ratebuffer_test

import (
	"testing"
	"time"

	"github.com/dashpay/govman/ratebuffer"
)

func TestRateRequiresTwoSamples(t *testing.T) {
	b := ratebuffer.New(10)
	if r := b.Rate(); r != 0 {
		t.Errorf("expected 0 rate with no samples, got %v", r)
	}
	b.AddTimestamp(time.Unix(1000, 0))
	if r := b.Rate(); r != 0 {
		t.Errorf("expected 0 rate with one sample, got %v", r)
	}
}

func TestRateAfterTwoSubmissions(t *testing.T) {
	// S4: trigger at t, then t+1s; rate after both = 2/1 = 2
	b := ratebuffer.New(10)
	t0 := time.Unix(1000, 0)
	b.AddTimestamp(t0)
	b.AddTimestamp(t0.Add(1 * time.Second))

	rate := b.Rate()
	if rate != 2 {
		t.Errorf("expected rate 2, got %v", rate)
	}

	maxRate := ratebuffer.MaxRate(6 * 3600)
	if rate <= maxRate {
		t.Errorf("expected rate %v to exceed max rate %v", rate, maxRate)
	}
}

func TestWouldExceedDoesNotMutate(t *testing.T) {
	b := ratebuffer.New(10)
	t0 := time.Unix(1000, 0)
	b.AddTimestamp(t0)

	maxRate := ratebuffer.MaxRate(6 * 3600)
	_, exceeds := b.WouldExceed(t0.Add(1*time.Second), maxRate)
	if !exceeds {
		t.Errorf("expected what-if evaluation to exceed max rate")
	}

	// canonical buffer must be unaffected: still only one real sample
	if b.Count() != 1 {
		t.Errorf("WouldExceed must not mutate canonical buffer, count = %d", b.Count())
	}
}

func TestEvictionOnOverflow(t *testing.T) {
	b := ratebuffer.New(3)
	base := time.Unix(0, 0)
	for i := 0; i < 5; i++ {
		b.AddTimestamp(base.Add(time.Duration(i) * time.Second))
	}
	if b.Count() != 3 {
		t.Errorf("expected bounded count 3, got %d", b.Count())
	}
	// oldest two (t=0,1) were evicted; span should be newest(4)-oldest(2)=2s, count 3 => rate 1.5
	if rate := b.Rate(); rate != 1.5 {
		t.Errorf("expected rate 1.5 after eviction, got %v", rate)
	}
}
