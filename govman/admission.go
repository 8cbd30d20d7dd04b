// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman

import (
	"time"

	"github.com/dashpay/govman/validator"
)

// orphanExpiration is GOVERNANCE_ORPHAN_EXPIRATION_TIME from the original
// source: how long an orphan object/vote is kept before being dropped by
// the maintenance loop.
const orphanExpiration = 10 * time.Minute

// maxOrphanObjectsPerMasternode mirrors the original's hard-coded cap of
// 10 in-flight orphan objects per masternode (spec.md invariant 7).
const maxOrphanObjectsPerMasternode = 10

// deletionDelay is the grace period objects remain visible after being
// marked cached_delete/expired before the maintenance loop purges them
// (spec.md invariant 5).
const deletionDelay = 24 * time.Hour

// superblockGraceCycles is how many superblock cycles an erased hash for
// a non-proposal/record object is remembered before it may be
// re-introduced (invariant 6).
const superblockGraceCycles = 2

// deferredAction is blocking peer I/O or other work collected while cs is
// held and run after it is released, per spec.md §9's Design Note on
// threading an explicit lock guard through the pipeline.
type deferredAction func()

// ProcessObject implements the admission pipeline for a governance object
// received from peer (spec.md §4.3). localValidity is always invoked with
// cs released: it may block on chain lookups (spec.md §5), so gates 1-5 run
// locked, localValidity runs free, and gates 6-8 resume under a fresh lock
// (admissionDecideLocked), re-checking the request/duplicate gates since
// another goroutine may have admitted or erased obj in between.
func (m *Manager) ProcessObject(peer PeerHandle, obj *Object, localValidity func(*Object) validator.Outcome) Result {
	var deferred []deferredAction

	pre, early, done := m.admissionPrecheckLocked(peer, obj, &deferred)
	if done {
		for _, action := range deferred {
			action()
		}
		return early
	}

	outcome := localValidity(obj)

	result := m.admissionDecideLocked(peer, obj, pre, outcome, &deferred)

	for _, action := range deferred {
		action()
	}
	return result
}

// admissionPrecheck carries the state gates 1-5 computed under cs forward
// to admissionDecideLocked, which resumes once localValidity has run
// unlocked.
type admissionPrecheck struct {
	now               time.Time
	rateCheckBypassed bool
}

func (m *Manager) admissionPrecheckLocked(peer PeerHandle, obj *Object, deferred *[]deferredAction) (admissionPrecheck, Result, bool) {
	m.cs.Lock()
	defer m.cs.Unlock()

	// 1. protocol gate
	const minGovProto = 70213
	if peer.ProtocolVersion() < minGovProto {
		*deferred = append(*deferred, func() {
			m.peers.PushMessage(peer, WireMessage{Command: "REJECT"})
		})
		return admissionPrecheck{}, warning("peer protocol version below minimum"), true
	}

	// 2. sync gate
	if !m.syncOracle.IsBlockchainSynced() || !m.syncOracle.IsSynced() {
		return admissionPrecheck{}, warning("not synced, dropping silently"), true
	}

	// 3. request gate - consumed on success (at-most-once acceptance)
	if _, requested := m.setRequestedObjects[obj.Hash]; !requested {
		return admissionPrecheck{}, warning("object was not requested"), true
	}

	// 4. duplicate gate
	if m.isKnownHashLocked(obj.Hash) {
		delete(m.setRequestedObjects, obj.Hash)
		return admissionPrecheck{}, warning("duplicate object"), true
	}

	now := time.Now()

	// 5. rate check (TRIGGER only)
	rateCheckBypassed := false
	if obj.Type == ObjectTypeTrigger {
		buf, existed := m.rateBuffers[obj.MasternodeOutpoint]
		if !existed {
			rateCheckBypassed = true
		} else {
			if _, exceeds := buf.WouldExceed(now, m.maxTriggerRate()); exceeds {
				m.metrics.rateRejections.Inc()
				return admissionPrecheck{}, permanent("rate too high", 0), true
			}
		}
	}

	return admissionPrecheck{now: now, rateCheckBypassed: rateCheckBypassed}, Result{}, false
}

// admissionDecideLocked resumes the pipeline (gates 6-8) once localValidity
// (step 6) has run with cs released.
func (m *Manager) admissionDecideLocked(peer PeerHandle, obj *Object, pre admissionPrecheck, outcome validator.Outcome, deferred *[]deferredAction) Result {
	m.cs.Lock()
	defer m.cs.Unlock()

	// re-check the gates whose outcome cs release may have invalidated
	if _, requested := m.setRequestedObjects[obj.Hash]; !requested {
		return warning("object was not requested")
	}
	if m.isKnownHashLocked(obj.Hash) {
		delete(m.setRequestedObjects, obj.Hash)
		return warning("duplicate object")
	}

	now := pre.now

	if pre.rateCheckBypassed && (outcome.Valid || outcome.MissingMasternode) {
		buf := m.rateBufferFor(obj.MasternodeOutpoint)
		if _, exceeds := buf.WouldExceed(now, m.maxTriggerRate()); exceeds {
			m.metrics.rateRejections.Inc()
			return warning("rate too high after signature verification")
		}
	}

	if !outcome.Valid {
		switch {
		case outcome.MissingMasternode:
			return m.handleMasternodeMissingLocked(peer, obj, now, deferred)
		case outcome.MissingConfirmations:
			return m.handleMissingConfirmationsLocked(obj, deferred)
		default:
			*deferred = append(*deferred, func() {
				m.peers.Misbehaving(peer, 20)
			})
			delete(m.setRequestedObjects, obj.Hash)
			return permanent(outcome.Error, 20)
		}
	}

	// 7. post-signature rate re-check already folded into step 5/6 above
	// for the bypass case; non-bypass buffers were already checked.

	// 8. admit
	return m.admitObjectLocked(obj, now, deferred)
}

// isKnownHashLocked reports whether h is present in any of
// {mapObjects, mapPostponed, mapOrphan, mapErased} (invariant 2). Must be
// called with cs held.
func (m *Manager) isKnownHashLocked(h Hash) bool {
	if _, ok := m.mapObjects[h]; ok {
		return true
	}
	if _, ok := m.mapPostponed[h]; ok {
		return true
	}
	if _, ok := m.mapOrphan[h]; ok {
		return true
	}
	if _, ok := m.mapErased[h]; ok {
		return true
	}
	return false
}

func (m *Manager) handleMasternodeMissingLocked(peer PeerHandle, obj *Object, now time.Time, deferred *[]deferredAction) Result {
	count := m.masternodeOrphanCounter[obj.MasternodeOutpoint]
	if count >= maxOrphanObjectsPerMasternode {
		*deferred = append(*deferred, func() {
			m.peers.AskFor(peer, InventoryItem{Kind: InvGovernanceObject, Hash: obj.Hash})
		})
		return warning("too many orphan objects for masternode")
	}
	m.masternodeOrphanCounter[obj.MasternodeOutpoint] = count + 1
	m.mapOrphan[obj.Hash] = orphanEntry{
		object:     obj,
		peer:       peer,
		expiration: now.Add(orphanExpiration),
	}
	m.metrics.objectsOrphaned.Inc()
	return warning("missing masternode")
}

func (m *Manager) handleMissingConfirmationsLocked(obj *Object, deferred *[]deferredAction) Result {
	cid, _ := ExtractIPFSCid(obj)
	if !validator.ValidIPFSHashLength(cid) {
		delete(m.setRequestedObjects, obj.Hash)
		return warning("ipfs hash not valid")
	}
	m.mapPostponed[obj.Hash] = obj
	delete(m.setRequestedObjects, obj.Hash)
	m.metrics.objectsPostponed.Inc()

	if m.contentStore != nil && (obj.Type == ObjectTypeProposal || obj.Type == ObjectTypeRecord) {
		*deferred = append(*deferred, func() { m.addPin(obj, cid) })
	}
	return accept()
}

func (m *Manager) admitObjectLocked(obj *Object, now time.Time, deferred *[]deferredAction) Result {
	obj.votes = NewVoteFile()
	m.mapObjects[obj.Hash] = obj
	delete(m.setRequestedObjects, obj.Hash)

	if obj.Type == ObjectTypeTrigger {
		if m.triggers != nil {
			if err := m.triggers.Register(obj); err != nil {
				obj.cachedDelete = true
				obj.deletionTime = now
			}
		}
		buf := m.rateBufferFor(obj.MasternodeOutpoint)
		buf.AddTimestamp(now)
	}

	m.metrics.objectsAdmitted.WithLabelValues(obj.Type.String()).Inc()

	cid, _ := ExtractIPFSCid(obj)
	if m.contentStore != nil && (obj.Type == ObjectTypeProposal || obj.Type == ObjectTypeRecord) {
		*deferred = append(*deferred, func() { m.addPin(obj, cid) })
	}

	replayHash := obj.Hash
	if m.observer != nil {
		*deferred = append(*deferred, func() { m.observer.NotifyGovernanceObject(obj) })
	}
	*deferred = append(*deferred, func() { m.relayObject(obj) })
	*deferred = append(*deferred, func() { m.replayOrphanVotes(replayHash) })

	return accept()
}

// relayObject pushes obj onto the gossip bus via the peer layer. Run
// outside cs per the deferred-action discipline.
func (m *Manager) relayObject(obj *Object) {
	if m.peers == nil {
		return
	}
	m.peers.PushInventory(nil, InventoryItem{Kind: InvGovernanceObject, Hash: obj.Hash})
}
