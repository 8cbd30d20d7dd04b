// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman

import (
	"time"

	"github.com/dashpay/govman/validator"
)

// safeRelaySafetyFraction expresses SUPERBLOCK_TRIGGER_SAFE_RELAY_DELAY as
// a fraction of the superblock cycle length, supplemented from the
// original source (original_source/src/governance.cpp additional-relay
// scheduling) per SPEC_FULL.md.
const safeRelaySafetyFraction = 1.0 / 12.0

// UpdatedBlockTip implements the Chain-Tip Watcher (C10, spec.md §4.9),
// reacting to a new best tip B.
func (m *Manager) UpdatedBlockTip(b BlockHeader, mnListEnabled bool, localValidity func(*Object) validator.Outcome) {
	var deferred []deferredAction

	m.cs.Lock()
	m.cachedHeight = b.Height
	m.cs.Unlock()

	if mnListEnabled {
		m.removeInvalidVotesLocked(&deferred)
	}

	m.checkPostponedObjectsLocked(localValidity, &deferred)
	m.scheduleAdditionalRelayLocked(b, &deferred)

	for _, action := range deferred {
		action()
	}

	if m.triggers != nil {
		if err := m.triggers.ExecuteBest(b.Height); err != nil {
			m.log.Warnf("superblock execution failed at height %d: %v", b.Height, err)
		}
	}
}

// removeInvalidVotesLocked implements RemoveInvalidVotes (spec.md §4.9
// step 2): diffs the masternode list against the last snapshot used for
// voting-key comparisons and strips votes cast from any changed or
// removed outpoint.
func (m *Manager) removeInvalidVotesLocked(deferred *[]deferredAction) {
	m.cs.Lock()
	defer m.cs.Unlock()

	curList := m.mnDirectory.ListAtChainTip()
	diff := m.mnDirectory.Diff(m.lastMNListForVotingKeys, curList)

	changed := make(map[Outpoint]struct{}, len(diff.Changed)+len(diff.Removed))
	for _, o := range diff.Changed {
		changed[o] = struct{}{}
	}
	for _, o := range diff.Removed {
		changed[o] = struct{}{}
	}

	for _, obj := range m.mapObjects {
		for outpoint := range changed {
			if obj.Type == ObjectTypeRecord {
				fundingHeight := m.chain.NextSuperblockHeight(obj.CreationTime)
				if m.cachedHeight >= fundingHeight {
					continue
				}
			}
			for _, voteHash := range obj.votes.RemoveByOutpoint(outpoint) {
				m.voteToObject.Erase(voteHash)
				m.invalidVotes.Erase(voteHash)
				delete(m.setRequestedVotes, voteHash)
			}
		}
	}

	m.lastMNListForVotingKeys = curList
}

// checkPostponedObjectsLocked re-evaluates confirmation status for
// postponed objects and admits or continues to postpone them (spec.md
// §4.9 step 3, first half). localValidity may block on chain lookups
// (spec.md §5), so the postponed set is snapshotted, cs released, and
// localValidity called before cs is retaken to apply the outcomes -
// re-checking each object is still postponed, since it may have been
// admitted or erased by a concurrent call while cs was free.
func (m *Manager) checkPostponedObjectsLocked(localValidity func(*Object) validator.Outcome, deferred *[]deferredAction) {
	m.cs.Lock()
	candidates := make([]*Object, 0, len(m.mapPostponed))
	for _, obj := range m.mapPostponed {
		candidates = append(candidates, obj)
	}
	m.cs.Unlock()

	if len(candidates) == 0 {
		return
	}

	outcomes := make(map[Hash]validator.Outcome, len(candidates))
	for _, obj := range candidates {
		outcomes[obj.Hash] = localValidity(obj)
	}

	m.cs.Lock()
	defer m.cs.Unlock()

	now := time.Now()
	for _, obj := range candidates {
		if _, stillPostponed := m.mapPostponed[obj.Hash]; !stillPostponed {
			continue
		}
		outcome := outcomes[obj.Hash]
		if outcome.MissingConfirmations {
			continue
		}
		delete(m.mapPostponed, obj.Hash)
		if !outcome.Valid {
			continue
		}
		m.admitObjectLocked(obj, now, deferred)
	}
}

// scheduleAdditionalRelayLocked implements the safe-relay-window portion
// of spec.md §4.9 step 3: triggers whose timestamp has aged past the safe
// relay delay are queued for an additional relay pass.
func (m *Manager) scheduleAdditionalRelayLocked(b BlockHeader, deferred *[]deferredAction) {
	m.cs.Lock()
	safeDelay := time.Duration(m.rateLimits.SuperblockCycleSeconds*safeRelaySafetyFraction) * time.Second
	var toRelay []*Object
	for _, obj := range m.mapObjects {
		if obj.Type != ObjectTypeTrigger {
			continue
		}
		if _, already := m.setAdditionalRelayObjects[obj.Hash]; already {
			continue
		}
		if time.Since(obj.CreationTime) >= safeDelay {
			m.setAdditionalRelayObjects[obj.Hash] = struct{}{}
			toRelay = append(toRelay, obj)
		}
	}
	m.cs.Unlock()

	for _, obj := range toRelay {
		o := obj
		*deferred = append(*deferred, func() { m.relayObject(o) })
	}
}
