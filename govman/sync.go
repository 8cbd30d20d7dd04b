// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman

import (
	"math/rand"
	"time"

	"github.com/AndreasBriese/bbloom"
)

// SyncRequest is a decoded MNGOVERNANCESYNC message (spec.md §6).
type SyncRequest struct {
	ParentHash Hash   // zero => full sync
	Bloom      []byte // serialized bloom filter bit-set of votes the peer already has
	BloomLocs  uint64 // number of hash functions used to build Bloom
}

// HandleInventory processes an advertised (kind, hash) pair received on an
// INV message (spec.md §4.3 step 3's "set by a prior inventory ask" — the
// half of the admission pipeline's request gate that actually populates
// setRequestedObjects/setRequestedVotes, grounded on governance.cpp's INV
// case in CGovernanceManager::ProcessMessage). Already-known hashes are not
// re-requested.
func (m *Manager) HandleInventory(peer PeerHandle, inv InventoryItem) {
	m.cs.Lock()
	var alreadyKnown bool
	switch inv.Kind {
	case InvGovernanceObject:
		alreadyKnown = m.isKnownHashLocked(inv.Hash)
		if !alreadyKnown {
			m.setRequestedObjects[inv.Hash] = struct{}{}
		}
	case InvGovernanceVote:
		_, alreadyKnown = m.voteToObject.Get(inv.Hash)
		if !alreadyKnown && !m.invalidVotes.HasKey(inv.Hash) {
			m.setRequestedVotes[inv.Hash] = struct{}{}
		} else {
			alreadyKnown = true
		}
	}
	m.cs.Unlock()

	if !alreadyKnown {
		m.peers.AskFor(peer, inv)
	}
}

// HandleSync implements the Sync Protocol (C7, spec.md §4.6): full sync,
// single-object vote sync, dispatched on whether req.ParentHash is zero.
func (m *Manager) HandleSync(peer PeerHandle, req SyncRequest) Result {
	if req.ParentHash.IsZero() {
		return m.handleFullSync(peer)
	}
	return m.handleSingleObjectVoteSync(peer, req)
}

// handleFullSync pushes an inventory entry per non-deleted-non-expired
// object (RECORDs sent even if deleted/expired), gated by a per-peer
// already-fulfilled record (spec.md §4.6).
func (m *Manager) handleFullSync(peer PeerHandle) Result {
	m.cs.Lock()
	if last, ok := m.fulfilledFullSyncPeers[peer.ID()]; ok && time.Since(last) < time.Hour {
		m.cs.Unlock()
		m.peers.Misbehaving(peer, 20)
		return permanent("full sync already fulfilled", 20)
	}
	m.fulfilledFullSyncPeers[peer.ID()] = time.Now()

	var toSend []Hash
	for h, obj := range m.mapObjects {
		if obj.Type == ObjectTypeRecord || !(obj.cachedDelete || obj.expired) {
			toSend = append(toSend, h)
		}
	}
	m.cs.Unlock()

	for _, h := range toSend {
		m.peers.PushInventory(peer, InventoryItem{Kind: InvGovernanceObject, Hash: h})
	}
	m.peers.PushMessage(peer, WireMessage{Command: "SYNCSTATUSCOUNT"})
	return accept()
}

// handleSingleObjectVoteSync pushes inventory for each vote on the
// requested object not already present in the peer's bloom filter and
// passing per-signal validity (spec.md §4.6).
func (m *Manager) handleSingleObjectVoteSync(peer PeerHandle, req SyncRequest) Result {
	m.cs.Lock()
	obj, ok := m.mapObjects[req.ParentHash]
	if !ok {
		m.cs.Unlock()
		return warning("unknown object for vote sync")
	}
	votes := obj.votes.All()
	m.cs.Unlock()

	var filter *bbloom.Bloom
	if len(req.Bloom) > 0 && req.BloomLocs > 0 {
		f := bbloom.NewWithBoolset(&req.Bloom, req.BloomLocs)
		filter = &f
	}

	var toSend []Hash
	for _, v := range votes {
		if filter != nil && filter.Has(v.Hash[:]) {
			continue
		}
		if v.Signal == VoteSignalFunding {
			switch obj.Type {
			case ObjectTypeProposal, ObjectTypeRecord:
				if _, ok := m.mnDirectory.ByCollateral(v.MasternodeOutpoint); !ok {
					continue
				}
			}
		}
		toSend = append(toSend, v.Hash)
	}

	for _, h := range toSend {
		m.peers.PushInventory(peer, InventoryItem{Kind: InvGovernanceVote, Hash: h})
	}
	m.peers.PushMessage(peer, WireMessage{Command: "SYNCSTATUSCOUNT"})
	return accept()
}

// RequestTargetedVoteRefresh implements the targeted vote request half of
// C7: for each known object, shuffle and ask up to 3 peers, at most once
// per 60 minutes per (object, peer); triggers prioritized; masternode
// connections excluded (spec.md §4.6).
func (m *Manager) RequestTargetedVoteRefresh(cooldown time.Duration) {
	m.cs.Lock()
	objs := make([]*Object, 0, len(m.mapObjects))
	for _, obj := range m.mapObjects {
		objs = append(objs, obj)
	}
	m.cs.Unlock()

	// triggers prioritized over other types
	sortTriggersFirst(objs)

	candidates := m.peers.CopyNodeVector(func(p PeerHandle) bool {
		return !p.IsMasternodeConnection() && !p.IsInboundOnMasternode()
	})
	if len(candidates) == 0 {
		return
	}

	now := time.Now()
	for _, obj := range objs {
		shuffled := append([]PeerHandle(nil), candidates...)
		rand.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		asked := 0
		for _, p := range shuffled {
			if asked >= 3 {
				break
			}
			key := voteSyncKey{object: obj.Hash, peer: p.ID()}

			m.cs.Lock()
			last, seen := m.voteSyncHistory[key]
			if seen && now.Sub(last) < cooldown {
				m.cs.Unlock()
				continue
			}
			m.voteSyncHistory[key] = now
			m.cs.Unlock()

			m.peers.PushMessage(p, WireMessage{Command: "MNGOVERNANCESYNC"})
			asked++
		}
	}
}

func sortTriggersFirst(objs []*Object) {
	i := 0
	for j, obj := range objs {
		if obj.Type == ObjectTypeTrigger {
			objs[i], objs[j] = objs[j], objs[i]
			i++
		}
	}
}
