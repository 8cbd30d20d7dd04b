// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"time"

	"github.com/dashpay/govman/govman"
	"github.com/dashpay/govman/internal/govfault"
)

// The governance manager is a subsystem meant to be embedded in a full
// masternode node (spec.md §9 Design Notes: capability objects instead of
// ambient globals): the chain tip, the deterministic masternode list and
// sync status are normally owned by that host process and injected via
// govman.Collaborators. This binary has no such host, so the three
// collaborators below stand in for it in isolation: they carry no block
// data and never learn of a masternode, which is a safe (if inert) default
// until a real host.Chain/host.MasternodeDirectory wires through.

// placeholderChain implements govman.Chain with no block data.
type placeholderChain struct {
	consensus govman.ConsensusParams
}

func (c placeholderChain) Height() uint32 { return 0 }

func (c placeholderChain) Block(height uint32) (govman.BlockHeader, error) {
	return govman.BlockHeader{}, govfault.ErrUnknownBlock
}

func (c placeholderChain) Transaction(txid govman.Hash) ([]byte, govman.Hash, error) {
	return nil, govman.Hash{}, govfault.ErrUnknownTransaction
}

func (c placeholderChain) Confirmations(txid govman.Hash) (uint32, error) {
	return 0, govfault.ErrUnknownTransaction
}

func (c placeholderChain) ConsensusParams() govman.ConsensusParams { return c.consensus }

func (c placeholderChain) NextSuperblockHeight(t time.Time) uint32 { return 0 }

// placeholderMasternodes implements govman.MasternodeDirectory with an
// always-empty list.
type placeholderMasternodes struct{}

func (placeholderMasternodes) ListAtChainTip() []govman.Masternode { return nil }

func (placeholderMasternodes) ByCollateral(o govman.Outpoint) (govman.Masternode, bool) {
	return govman.Masternode{}, false
}

func (placeholderMasternodes) Diff(prev, cur []govman.Masternode) govman.MasternodeDiff {
	return govman.MasternodeDiff{}
}

func (placeholderMasternodes) IdentitiesInUse() map[string]struct{} {
	return map[string]struct{}{}
}

// placeholderSyncOracle implements govman.SyncOracle, reporting "not
// synced" so the admission pipeline's sync gate (spec.md §4.1 step 2)
// correctly refuses to admit objects until a real chain is wired in.
type placeholderSyncOracle struct{}

func (placeholderSyncOracle) IsBlockchainSynced() bool { return false }
func (placeholderSyncOracle) IsSynced() bool           { return false }
func (placeholderSyncOracle) BumpAssetLastTime(string) {}
