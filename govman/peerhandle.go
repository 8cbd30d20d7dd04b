// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman

import (
	peerlib "github.com/libp2p/go-libp2p-core/peer"

	"github.com/dashpay/govman/util"
)

// LibP2PPeerHandle adapts a libp2p peer.ID into a PeerHandle, the same
// stable-identifier type announce/setup.go threads through its state
// (peer transport itself remains out of scope, spec.md §1; only the
// identifier type is reused here).
type LibP2PPeerHandle struct {
	PeerID       peerlib.ID
	Protocol     uint32
	IsMasternode bool
	IsInbound    bool
}

func (h LibP2PPeerHandle) ID() string { return h.PeerID.String() }

func (h LibP2PPeerHandle) ProtocolVersion() uint32 { return h.Protocol }

func (h LibP2PPeerHandle) IsMasternodeConnection() bool { return h.IsMasternode }

func (h LibP2PPeerHandle) IsInboundOnMasternode() bool { return h.IsInbound }

// Same reports whether two handles name the same underlying peer,
// regardless of which connection (inbound/outbound) currently carries it.
func (h LibP2PPeerHandle) Same(other LibP2PPeerHandle) bool {
	return util.IDEqual(h.PeerID, other.PeerID)
}

// SortPeerHandles orders handles by peer ID (util.IDCompare), for
// deterministic iteration over a peer set.
func SortPeerHandles(handles []LibP2PPeerHandle) {
	for i := 1; i < len(handles); i++ {
		for j := i; j > 0 && util.IDCompare(handles[j].PeerID, handles[j-1].PeerID) < 0; j-- {
			handles[j], handles[j-1] = handles[j-1], handles[j]
		}
	}
}
