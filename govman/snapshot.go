// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman

import (
	"encoding/gob"
	"io"
	"time"

	"github.com/dashpay/govman/internal/govfault"
)

// snapshotVersion is checked on load; bump when the wire shape changes
// (spec.md §6 "Persisted state" — "serialized under a version tag").
const snapshotVersion = 1

// snapshotVote is the gob-friendly rendering of a Vote.
type snapshotVote struct {
	Hash               Hash
	ParentHash         Hash
	MasternodeOutpoint Outpoint
	Signal             VoteSignal
	Outcome            VoteOutcome
	Timestamp          time.Time
	Signature          []byte
}

// snapshotObject is the gob-friendly rendering of an Object, including its
// vote file, flags, creation time and deletion time (spec.md §6).
type snapshotObject struct {
	Hash               Hash
	Type               ObjectType
	ParentHash         Hash
	Payload            []byte
	CollateralTx       Hash
	MasternodeOutpoint Outpoint
	CreationTime       time.Time
	Signature          []byte

	CachedDelete bool
	Expired      bool
	RecordLocked bool
	PermLocked   bool
	DeletionTime time.Time

	Votes []snapshotVote
}

// Snapshot is the full persisted state: every accepted object (with its
// vote file) plus the last masternode list used for voting-key diffing.
type Snapshot struct {
	Version   int
	Objects   []snapshotObject
	LastMNList []Masternode
}

// SaveSnapshot serializes the manager's current mapObjects and
// lastMNListForVotingKeys into w (spec.md §6 "Persisted state").
func (m *Manager) SaveSnapshot(w io.Writer) error {
	m.cs.Lock()
	snap := Snapshot{Version: snapshotVersion, LastMNList: append([]Masternode(nil), m.lastMNListForVotingKeys...)}
	for _, obj := range m.mapObjects {
		so := snapshotObject{
			Hash:               obj.Hash,
			Type:               obj.Type,
			ParentHash:         obj.ParentHash,
			Payload:            obj.Payload,
			CollateralTx:       obj.CollateralTx,
			MasternodeOutpoint: obj.MasternodeOutpoint,
			CreationTime:       obj.CreationTime,
			Signature:          obj.Signature,
			CachedDelete:       obj.cachedDelete,
			Expired:            obj.expired,
			RecordLocked:       obj.recordLocked,
			PermLocked:         obj.permLocked,
			DeletionTime:       obj.deletionTime,
		}
		if obj.votes != nil {
			for _, v := range obj.votes.All() {
				so.Votes = append(so.Votes, snapshotVote{
					Hash:               v.Hash,
					ParentHash:         v.ParentHash,
					MasternodeOutpoint: v.MasternodeOutpoint,
					Signal:             v.Signal,
					Outcome:            v.Outcome,
					Timestamp:          v.Timestamp,
					Signature:          v.Signature,
				})
			}
		}
		snap.Objects = append(snap.Objects, so)
	}
	m.cs.Unlock()

	return gob.NewEncoder(w).Encode(snap)
}

// LoadSnapshot rebuilds mapObjects, the vote-to-object index and the
// last masternode list from a previously saved snapshot (spec.md §6:
// "on startup, the manager loads the snapshot, rebuilds cmapVoteToObject
// from every object's vote file, and re-registers TRIGGER objects with the
// trigger manager, marking any rejected as cached_delete").
func (m *Manager) LoadSnapshot(r io.Reader) error {
	var snap Snapshot
	if err := gob.NewDecoder(r).Decode(&snap); err != nil {
		return govfault.ErrSnapshotCorrupt
	}
	if snap.Version != snapshotVersion {
		return govfault.ErrSnapshotVersion
	}

	m.cs.Lock()
	defer m.cs.Unlock()

	m.mapObjects = make(map[Hash]*Object, len(snap.Objects))
	m.lastMNListForVotingKeys = snap.LastMNList

	for _, so := range snap.Objects {
		obj := &Object{
			Hash:               so.Hash,
			Type:               so.Type,
			ParentHash:         so.ParentHash,
			Payload:            so.Payload,
			CollateralTx:       so.CollateralTx,
			MasternodeOutpoint: so.MasternodeOutpoint,
			CreationTime:       so.CreationTime,
			Signature:          so.Signature,
			cachedDelete:       so.CachedDelete,
			expired:            so.Expired,
			recordLocked:       so.RecordLocked,
			permLocked:         so.PermLocked,
			deletionTime:       so.DeletionTime,
			votes:              NewVoteFile(),
		}
		for _, sv := range so.Votes {
			v := &Vote{
				Hash:               sv.Hash,
				ParentHash:         sv.ParentHash,
				MasternodeOutpoint: sv.MasternodeOutpoint,
				Signal:             sv.Signal,
				Outcome:            sv.Outcome,
				Timestamp:          sv.Timestamp,
				Signature:          sv.Signature,
			}
			obj.votes.Add(v)
			m.voteToObject.Insert(v.Hash, obj.Hash)
		}
		m.mapObjects[obj.Hash] = obj

		if obj.Type == ObjectTypeTrigger && m.triggers != nil {
			if err := m.triggers.Register(obj); err != nil {
				obj.cachedDelete = true
				obj.deletionTime = time.Now()
			}
		}
	}

	return nil
}
