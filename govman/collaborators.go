// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman

import (
	"context"
	"time"
)

// BlockHeader is the minimal chain-header surface the manager consults.
type BlockHeader struct {
	Height uint32
	Time   time.Time
}

// ConsensusParams carries the chain parameters the manager needs (the
// superblock cycle length, minimum protocol version, etc.).
type ConsensusParams struct {
	SuperblockCycleSeconds float64
	MinGovernanceProtocol  uint32
}

// Chain is the read-only chain collaborator (spec.md §6). Callers are
// expected to already hold (or not need) the chain lock cs_main before
// calling into the manager per the §5 acquisition order (cs_main then cs);
// this interface never acquires a lock of its own.
type Chain interface {
	Height() uint32
	Block(height uint32) (BlockHeader, error)
	Transaction(txid Hash) (tx []byte, blockHash Hash, err error)
	// Confirmations reports how many blocks have been mined on top of the
	// block containing txid (0 if unconfirmed), erroring if txid is
	// unknown. Used by the local-validity collateral check (spec.md §4.5).
	Confirmations(txid Hash) (uint32, error)
	ConsensusParams() ConsensusParams
	// NextSuperblockHeight returns the height of the next superblock that
	// would fund an object created at t (supplemented from the original's
	// GetCollateralNextSuperBlock, used by the record voting-window rule).
	NextSuperblockHeight(t time.Time) uint32
}

// Masternode describes one entry in the deterministic masternode list.
type Masternode struct {
	Outpoint   Outpoint
	VotingKey  []byte
	OperatorKey []byte
	Identity   string
}

// MasternodeDiff is the set of collateral outpoints whose voting or
// operator key changed, plus outpoints removed outright, between two tips.
type MasternodeDiff struct {
	Changed []Outpoint
	Removed []Outpoint
}

// MasternodeDirectory is the authoritative masternode list collaborator
// (spec.md §6).
type MasternodeDirectory interface {
	ListAtChainTip() []Masternode
	ByCollateral(o Outpoint) (Masternode, bool)
	Diff(prev, cur []Masternode) MasternodeDiff
	IdentitiesInUse() map[string]struct{}
}

// SyncOracle reports chain/masternode-list sync status (spec.md §6).
type SyncOracle interface {
	IsBlockchainSynced() bool
	IsSynced() bool
	BumpAssetLastTime(label string)
}

// PeerHandle is an opaque, comparable reference to a connected peer.
type PeerHandle interface {
	ID() string
	ProtocolVersion() uint32
	IsMasternodeConnection() bool
	IsInboundOnMasternode() bool
}

// InventoryKind distinguishes the two governance inventory message types.
type InventoryKind int

const (
	InvGovernanceObject InventoryKind = iota
	InvGovernanceVote
)

// InventoryItem is a single advertised (kind, hash) pair.
type InventoryItem struct {
	Kind InventoryKind
	Hash Hash
}

// WireMessage is an opaque outbound peer message (e.g. MNGOVERNANCEOBJECT,
// MNGOVERNANCEOBJECTVOTE, SYNCSTATUSCOUNT, REJECT).
type WireMessage struct {
	Command string
	Body    []byte
}

// PeerLayer is the narrow channel into the generic peer transport
// (spec.md §1, §6); message framing, gossip primitives and ban scoring
// live outside this module.
type PeerLayer interface {
	PushMessage(p PeerHandle, msg WireMessage) error
	PushInventory(p PeerHandle, inv InventoryItem)
	AskFor(p PeerHandle, inv InventoryItem)
	RemoveAskFor(p PeerHandle, inv InventoryItem)
	CopyNodeVector(filter func(PeerHandle) bool) []PeerHandle
	Misbehaving(p PeerHandle, score int)
}

// Listing is the recursive directory listing returned by the content
// store's filesLs call; Size is in bytes, summed over every leaf.
type Listing struct {
	Size int64
}

// ContentStore is the external content-addressed store collaborator
// (spec.md §6, C9).
type ContentStore interface {
	FilesLs(ctx context.Context, path string) (Listing, error)
	PinAdd(ctx context.Context, path string) error
	PinRm(ctx context.Context, path string, recursive bool) error
}

// ObserverBus fans out governance acceptance events to downstream
// consumers (ZMQ/script side effects, spec.md §6).
type ObserverBus interface {
	NotifyGovernanceObject(o *Object)
	NotifyGovernanceVote(v *Vote)
}

// TriggerManager registers/unregisters TRIGGER objects and executes the
// best superblock at a given height (spec.md §4.3 step 8, §4.9 step 4).
type TriggerManager interface {
	Register(o *Object) error
	Expire(now time.Time)
	ExecuteBest(height uint32) error
}

// SignatureVerifier checks the cryptographic signature over an object or
// vote's canonical serialization against the masternode's registered keys.
// The chain-of-trust material (collateral key, voting key) itself is out
// of scope (spec.md §1); this interface is the narrow hook the admission
// pipeline and vote processor call into.
type SignatureVerifier interface {
	VerifyObjectSignature(o *Object) bool
	VerifyVoteSignature(v *Vote, votingKey []byte) bool
}
