// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman_test

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dashpay/govman/govman"
)

// invariant 6: load(save(S)) = S for the governance snapshot, observed
// through the post-load manager's public behavior rather than unexported
// fields.
func TestSnapshot_RoundTrip(t *testing.T) {
	m, _, mnDir, _, _, _ := newTestManager()
	peer := &fakePeer{id: "p1", proto: 70213}

	outpoint := govman.Outpoint{TxID: hashOf(240), Index: 0}
	mnDir.add(outpoint, []byte("votingkey"))

	obj := proposalWithCid(241, "QmSnapshotRoundTripTest0000000000000001")
	m.HandleInventory(peer, govman.InventoryItem{Kind: govman.InvGovernanceObject, Hash: obj.Hash})
	require.True(t, m.ProcessObject(peer, obj, alwaysValid).Accepted())

	vote := &govman.Vote{
		Hash:               hashOf(242),
		ParentHash:         obj.Hash,
		MasternodeOutpoint: outpoint,
		Signal:             govman.VoteSignalValid,
		Timestamp:          time.Now(),
	}
	require.True(t, m.ProcessVote(peer, vote).Accepted())

	var buf bytes.Buffer
	require.NoError(t, m.SaveSnapshot(&buf))

	m2, peers2, mnDir2, _, _, _ := newTestManager()
	mnDir2.add(outpoint, []byte("votingkey"))
	require.NoError(t, m2.LoadSnapshot(bytes.NewReader(buf.Bytes())))

	// the restored object is visible to a full sync the same way the
	// original would have been.
	m2.HandleSync(peer, govman.SyncRequest{})
	var sawObject bool
	for _, inv := range peers2.relayed {
		if inv.kind == govman.InvGovernanceObject && inv.hash == obj.Hash {
			sawObject = true
		}
	}
	require.True(t, sawObject)

	// the restored vote is visible to a single-object vote sync.
	peers2.relayed = nil
	m2.HandleSync(peer, govman.SyncRequest{ParentHash: obj.Hash})
	var sawVote bool
	for _, inv := range peers2.relayed {
		if inv.kind == govman.InvGovernanceVote && inv.hash == vote.Hash {
			sawVote = true
		}
	}
	require.True(t, sawVote)
}

func TestSnapshot_RejectsTruncatedStream(t *testing.T) {
	m, _, _, _, _, _ := newTestManager()

	var buf bytes.Buffer
	require.NoError(t, m.SaveSnapshot(&buf))

	// a truncated stream cannot decode: the gob decoder hits an
	// unexpected EOF partway through the record.
	full := buf.Bytes()
	truncated := full[:len(full)/2]

	m2, _, _, _, _, _ := newTestManager()
	err := m2.LoadSnapshot(bytes.NewReader(truncated))
	require.Error(t, err)
}
