// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package ratebuffer implements a per-masternode sliding-window timestamp
// ring used to enforce governance-object submission rate caps.
package ratebuffer

import (
	"sync"
	"time"
)

// Buffer holds up to size recent timestamps in insertion order.
type Buffer struct {
	sync.Mutex
	samples []time.Time
	next    int
	count   int
	size    int
}

// New creates a rate buffer holding up to n timestamps.
func New(n int) *Buffer {
	if n < 2 {
		n = 2
	}
	return &Buffer{
		samples: make([]time.Time, n),
		size:    n,
	}
}

// AddTimestamp inserts t into the ring, evicting the oldest sample if full.
func (b *Buffer) AddTimestamp(t time.Time) {
	b.Lock()
	defer b.Unlock()
	b.samples[b.next] = t
	b.next = (b.next + 1) % b.size
	if b.count < b.size {
		b.count++
	}
}

// Rate returns count / (newest - oldest) in events per second, or 0 if
// fewer than two samples are present.
func (b *Buffer) Rate() float64 {
	b.Lock()
	defer b.Unlock()
	return b.rateLocked()
}

func (b *Buffer) rateLocked() float64 {
	if b.count < 2 {
		return 0
	}
	oldestIdx := (b.next - b.count + b.size) % b.size
	newestIdx := (b.next - 1 + b.size) % b.size
	oldest := b.samples[oldestIdx]
	newest := b.samples[newestIdx]
	span := newest.Sub(oldest).Seconds()
	if span <= 0 {
		return 0
	}
	return float64(b.count) / span
}

// WouldExceed reports the rate that would result from adding t without
// mutating the canonical buffer, used for the "what-if" evaluation in the
// admission pipeline's rate check (spec.md §4.1, §5 "Shared resource").
func (b *Buffer) WouldExceed(t time.Time, maxRate float64) (rate float64, exceeds bool) {
	b.Lock()
	defer b.Unlock()

	trial := Buffer{
		samples: append([]time.Time(nil), b.samples...),
		next:    b.next,
		count:   b.count,
		size:    b.size,
	}
	trial.samples[trial.next] = t
	trial.next = (trial.next + 1) % trial.size
	if trial.count < trial.size {
		trial.count++
	}
	rate = trial.rateLocked()
	return rate, rate > maxRate
}

// Count returns the number of samples currently held.
func (b *Buffer) Count() int {
	b.Lock()
	defer b.Unlock()
	return b.count
}

// MaxRate computes the trigger rate cap from the superblock cycle length,
// i.e. ~2 triggers per cycle with a 10% fudge factor (spec.md §4.1).
func MaxRate(superblockCycleSeconds float64) float64 {
	if superblockCycleSeconds <= 0 {
		return 0
	}
	return 2 * 1.1 / superblockCycleSeconds
}
