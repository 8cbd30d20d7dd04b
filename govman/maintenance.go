// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman

import (
	"math/rand"
	"time"

	"github.com/dashpay/govman/background"
	"github.com/dashpay/govman/util"
	"github.com/dashpay/govman/validator"
)

// MaintenanceProcess returns a background.Process that runs DoMaintenance
// on interval, following background.go's Process/Processes/Start contract
// (the same shape reservoir/expiry.go's periodic-select loop targets).
func (m *Manager) MaintenanceProcess(interval time.Duration, localValidity func(*Object) validator.Outcome) background.Process {
	return func(args interface{}, shutdown <-chan bool, done chan<- bool) {
		defer close(done)
		util.LogInfo(m.log, util.CoGreen, "maintenance loop starting…")

	loop:
		for {
			select {
			case <-shutdown:
				break loop
			case <-time.After(interval):
				m.DoMaintenance(localValidity)
			}
		}
		util.LogInfo(m.log, util.CoGreen, "maintenance loop stopped")
	}
}

// DoMaintenance runs the periodic cleanup pipeline in order (spec.md §4.7):
// CleanOrphanObjects, RequestOrphanObjects, UpdateCachesAndClean.
func (m *Manager) DoMaintenance(localValidity func(*Object) validator.Outcome) {
	var deferred []deferredAction
	m.cleanOrphanObjectsLocked()
	m.requestOrphanObjectsLocked(&deferred)
	m.updateCachesAndCleanLocked(localValidity, &deferred)

	for _, action := range deferred {
		action()
	}
}

// cleanOrphanObjectsLocked drops orphan-vote and orphan-object entries
// whose deferred expiration has passed.
func (m *Manager) cleanOrphanObjectsLocked() {
	m.cs.Lock()
	defer m.cs.Unlock()

	now := time.Now()
	for parentHash, entries := range m.snapshotOrphanVotesLocked() {
		var toKeep []orphanVoteEntry
		for _, e := range entries {
			if now.Before(e.expiration) {
				toKeep = append(toKeep, e)
			}
		}
		if len(toKeep) != len(entries) {
			m.orphanVotes.Erase(parentHash)
			for _, e := range toKeep {
				m.orphanVotes.Insert(parentHash, e)
			}
		}
	}

	for h, entry := range m.mapOrphan {
		if !now.Before(entry.expiration) {
			delete(m.mapOrphan, h)
			delete(m.masternodeOrphanCounter, entry.object.MasternodeOutpoint)
		}
	}
}

// requestOrphanObjectsLocked asks a random non-masternode peer for each
// orphan-vote key not currently in mapObjects.
func (m *Manager) requestOrphanObjectsLocked(deferred *[]deferredAction) {
	m.cs.Lock()
	keys := m.orphanVotes.Keys()
	var toRequest []Hash
	for _, k := range keys {
		if _, known := m.mapObjects[k]; !known {
			toRequest = append(toRequest, k)
		}
	}
	m.cs.Unlock()

	if len(toRequest) == 0 || m.peers == nil {
		return
	}
	*deferred = append(*deferred, func() {
		candidates := m.peers.CopyNodeVector(func(p PeerHandle) bool {
			return !p.IsMasternodeConnection()
		})
		if len(candidates) == 0 {
			return
		}
		p := candidates[rand.Intn(len(candidates))]
		for _, h := range toRequest {
			m.peers.AskFor(p, InventoryItem{Kind: InvGovernanceObject, Hash: h})
		}
	})
}

// updateCachesAndCleanLocked clears each object's dirty marker (sentinel
// flags are not recomputed here), evicts objects past their deletion delay, and re-validates unlocked
// proposals/records (spec.md §4.7 step 3). localValidity may block on chain
// lookups (spec.md §5), so it never runs while cs is held: a first locked
// pass evicts and collects revalidation candidates, localValidity runs on
// them with cs released, then a second locked pass applies the outcomes,
// re-checking each candidate is still live in case a concurrent admission
// pass erased it while cs was free.
func (m *Manager) updateCachesAndCleanLocked(localValidity func(*Object) validator.Outcome, deferred *[]deferredAction) {
	candidates := m.evictAndCollectCandidatesLocked(deferred)

	outcomes := make(map[Hash]validator.Outcome, len(candidates))
	for _, obj := range candidates {
		outcomes[obj.Hash] = localValidity(obj)
	}

	m.applyLocalValidityLocked(candidates, outcomes)
}

func (m *Manager) evictAndCollectCandidatesLocked(deferred *[]deferredAction) []*Object {
	m.cs.Lock()
	defer m.cs.Unlock()

	if m.triggers != nil {
		m.triggers.Expire(time.Now())
	}

	now := time.Now()
	var candidates []*Object
	for h, obj := range m.mapObjects {
		if obj.dirty {
			obj.dirty = false
		}

		if obj.CanDelete(now, deletionDelay) {
			objCopy := obj
			if objCopy.Type == ObjectTypeRecord {
				*deferred = append(*deferred, func() { m.removePin(objCopy) })
			}
			for _, voteHash := range objCopy.votes.RemoveByOutpoint(objCopy.MasternodeOutpoint) {
				m.voteToObject.Erase(voteHash)
			}
			delete(m.mapObjects, h)
			m.mapErased[h] = erasedEntry{expiration: m.erasedExpiration(objCopy, now)}
			m.metrics.objectsErased.Inc()
			util.LogDebug(m.log, util.CoYellow, "evicted object "+h.String())
			continue
		}

		if obj.Type == ObjectTypeProposal || (obj.Type == ObjectTypeRecord && !(obj.recordLocked && obj.permLocked)) {
			candidates = append(candidates, obj)
		}
	}

	for h, entry := range m.mapErased {
		if !now.Before(entry.expiration) {
			delete(m.mapErased, h)
		}
	}

	return candidates
}

// applyLocalValidityLocked marks each candidate cachedDelete when its
// precomputed outcome (from localValidity, run unlocked) was invalid.
func (m *Manager) applyLocalValidityLocked(candidates []*Object, outcomes map[Hash]validator.Outcome) {
	m.cs.Lock()
	defer m.cs.Unlock()

	now := time.Now()
	for _, obj := range candidates {
		if _, live := m.mapObjects[obj.Hash]; !live {
			continue
		}
		if !outcomes[obj.Hash].Valid {
			obj.cachedDelete = true
			obj.deletionTime = now
		}
	}
}

// erasedExpiration computes how long an erased hash is remembered before it
// may be re-introduced (invariant 6): proposals and records forever
// (represented as a far-future sentinel), others creation+2*cycle+delay.
func (m *Manager) erasedExpiration(obj *Object, now time.Time) time.Time {
	if obj.Type == ObjectTypeProposal || obj.Type == ObjectTypeRecord {
		return now.AddDate(100, 0, 0)
	}
	cycle := time.Duration(m.rateLimits.SuperblockCycleSeconds) * time.Second
	return obj.CreationTime.Add(superblockGraceCycles*cycle + deletionDelay)
}
