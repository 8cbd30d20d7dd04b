// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman

import "sync"

// voteKey identifies the latest-wins slot for one (masternode, signal)
// pair within a single object's vote file (spec.md §3, §4.4 step 5).
type voteKey struct {
	outpoint Outpoint
	signal   VoteSignal
}

// VoteFile is the per-object append-only keyed set of votes: latest-wins
// per (masternode, signal), exactly as spec.md's Glossary defines it.
type VoteFile struct {
	mu    sync.Mutex
	byKey map[voteKey]*Vote
}

// NewVoteFile creates an empty vote file.
func NewVoteFile() *VoteFile {
	return &VoteFile{byKey: make(map[voteKey]*Vote)}
}

// Add inserts v, replacing any existing vote for the same (masternode,
// signal) pair. Returns the replaced vote, if any.
func (f *VoteFile) Add(v *Vote) *Vote {
	f.mu.Lock()
	defer f.mu.Unlock()
	k := voteKey{outpoint: v.MasternodeOutpoint, signal: v.Signal}
	old := f.byKey[k]
	f.byKey[k] = v
	return old
}

// Current returns the latest vote for (outpoint, signal), if any.
func (f *VoteFile) Current(outpoint Outpoint, signal VoteSignal) (*Vote, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byKey[voteKey{outpoint: outpoint, signal: signal}]
	return v, ok
}

// RemoveByOutpoint removes every vote cast by outpoint, returning their
// hashes (used by RemoveInvalidVotes, spec.md §4.9 step 2).
func (f *VoteFile) RemoveByOutpoint(outpoint Outpoint) []Hash {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed []Hash
	for k, v := range f.byKey {
		if k.outpoint == outpoint {
			removed = append(removed, v.Hash)
			delete(f.byKey, k)
		}
	}
	return removed
}

// Count returns the number of votes currently in the file.
func (f *VoteFile) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byKey)
}

// All returns every vote currently in the file (a shallow copy slice; the
// manager's lock discipline ensures callers see a consistent snapshot,
// per spec.md §3 "Ownership").
func (f *VoteFile) All() []*Vote {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*Vote, 0, len(f.byKey))
	for _, v := range f.byKey {
		out = append(out, v)
	}
	return out
}
