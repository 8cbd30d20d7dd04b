// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package govman implements the Governance Manager: the in-memory
// object/vote index, the peer message admission pipeline, the sync
// protocol, the periodic maintenance loop and the chain-tip watcher for a
// masternode governance subsystem.
package govman

import (
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/sha3"
)

// HashLength is the size in bytes of a governance object/vote hash.
const HashLength = 32

// Hash is a SHA3-256 content hash, stored little endian, grounded on
// merkle.Digest.
type Hash [HashLength]byte

// NewHash computes the SHA3-256 hash of record.
func NewHash(record []byte) Hash {
	return sha3.Sum256(record)
}

func (h Hash) String() string {
	return hex.EncodeToString(h[:])
}

// GoString implements fmt.GoStringer.
func (h Hash) GoString() string {
	return "<SHA3-256:" + hex.EncodeToString(h[:]) + ">"
}

// IsZero reports whether h is the all-zero sentinel hash, used as the
// parent-hash of top-level objects.
func (h Hash) IsZero() bool {
	return h == Hash{}
}

// Outpoint identifies a masternode's collateral transaction output.
type Outpoint struct {
	TxID  Hash
	Index uint32
}

func (o Outpoint) String() string {
	return fmt.Sprintf("%s-%d", o.TxID, o.Index)
}

// ObjectType enumerates the kinds of governance objects (spec.md §3).
type ObjectType int

const (
	ObjectTypeOther ObjectType = iota
	ObjectTypeProposal
	ObjectTypeTrigger
	ObjectTypeRecord
)

func (t ObjectType) String() string {
	switch t {
	case ObjectTypeProposal:
		return "PROPOSAL"
	case ObjectTypeTrigger:
		return "TRIGGER"
	case ObjectTypeRecord:
		return "RECORD"
	default:
		return "OTHER"
	}
}

// VoteSignal enumerates what a vote speaks to (spec.md §3).
type VoteSignal int

const (
	VoteSignalNone VoteSignal = iota
	VoteSignalFunding
	VoteSignalValid
	VoteSignalDelete
	VoteSignalEndorsed
)

// VoteOutcome enumerates a vote's cast outcome.
type VoteOutcome int

const (
	VoteOutcomeNone VoteOutcome = iota
	VoteOutcomeYes
	VoteOutcomeNo
	VoteOutcomeAbstain
)

// Object is a signed, serializable governance artifact (spec.md §3).
type Object struct {
	Hash               Hash
	Type               ObjectType
	ParentHash         Hash
	Payload            []byte
	CollateralTx       Hash
	MasternodeOutpoint Outpoint
	CreationTime       time.Time
	Signature          []byte

	// mutable cached flags; the maintenance loop (§4.7) clears dirty and
	// sets cachedDelete/deletionTime, the others come from a loaded snapshot
	dirty        bool
	cachedDelete bool
	expired      bool
	recordLocked bool
	permLocked   bool
	deletionTime time.Time

	votes *VoteFile
}

// payloadDocument holds the optional content-id carried in a proposal/record
// payload's "ipfscid" field, extracted by ExtractIPFSCid.
type payloadDocument struct {
	IPFSCid string `json:"ipfscid"`
}

// Vote is cast by a masternode on an object (spec.md §3).
type Vote struct {
	Hash               Hash
	ParentHash         Hash
	MasternodeOutpoint Outpoint
	Signal             VoteSignal
	Outcome            VoteOutcome
	Timestamp          time.Time
	Signature          []byte
}

// CanDelete reports whether an object is past its deletion delay and is not
// a record held by both record-lock and perm-lock sentinels (invariant 5,
// spec.md §3).
func (o *Object) CanDelete(now time.Time, deletionDelay time.Duration) bool {
	if !o.cachedDelete && !o.expired {
		return false
	}
	if o.Type == ObjectTypeRecord && o.recordLocked && o.permLocked {
		return false
	}
	return now.Sub(o.deletionTime) >= deletionDelay
}
