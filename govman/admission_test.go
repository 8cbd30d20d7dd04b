// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dashpay/govman/govman"
	"github.com/dashpay/govman/validator"
)

func alwaysValid(*govman.Object) validator.Outcome { return validator.Outcome{Valid: true} }

func missingConfirmations(*govman.Object) validator.Outcome {
	return validator.Outcome{MissingConfirmations: true, Error: "not enough fee confirmations"}
}

func missingMasternode(*govman.Object) validator.Outcome {
	return validator.Outcome{MissingMasternode: true, Error: "masternode not found"}
}

func proposalWithCid(hash byte, cid string) *govman.Object {
	payload := []byte(`{"ipfscid":"` + cid + `"}`)
	return &govman.Object{
		Hash:         hashOf(hash),
		Type:         govman.ObjectTypeProposal,
		CreationTime: time.Now(),
		Payload:      payload,
	}
}

// S1 — accept a valid proposal previously advertised via inventory.
func TestProcessObject_AdmitsRequestedValidProposal(t *testing.T) {
	m, peers, _, store, bus, _ := newTestManager()
	peer := &fakePeer{id: "p1", proto: 70213}
	obj := proposalWithCid(1, "QmTestCidForProposal0000000000000000000001")

	m.HandleInventory(peer, govman.InventoryItem{Kind: govman.InvGovernanceObject, Hash: obj.Hash})

	res := m.ProcessObject(peer, obj, alwaysValid)
	require.True(t, res.Accepted())

	require.Len(t, peers.relayed, 1)
	require.Equal(t, obj.Hash, peers.relayed[0].hash)
	require.Len(t, store.pins, 1)
	require.Len(t, bus.objs, 1)

	// re-sending the same object is now a duplicate, not requested again.
	res2 := m.ProcessObject(peer, obj, alwaysValid)
	require.False(t, res2.Accepted())
}

func TestProcessObject_DropsUnrequestedObject(t *testing.T) {
	m, _, _, _, _, _ := newTestManager()
	peer := &fakePeer{id: "p1", proto: 70213}
	obj := proposalWithCid(2, "QmTestCidForProposal0000000000000000000002")

	res := m.ProcessObject(peer, obj, alwaysValid)
	require.False(t, res.Accepted())
	require.Equal(t, govman.SeverityWarning, res.Severity)
}

func TestProcessObject_BelowMinProtocolRejected(t *testing.T) {
	m, _, _, _, _, _ := newTestManager()
	peer := &fakePeer{id: "p1", proto: 70000}
	obj := proposalWithCid(3, "QmTestCidForProposal0000000000000000000003")

	m.HandleInventory(peer, govman.InventoryItem{Kind: govman.InvGovernanceObject, Hash: obj.Hash})
	res := m.ProcessObject(peer, obj, alwaysValid)
	require.False(t, res.Accepted())
}

// S5 — missing confirmations postpones admission until a later chain tip.
func TestProcessObject_MissingConfirmationsPostpones(t *testing.T) {
	m, _, _, store, _, _ := newTestManager()
	peer := &fakePeer{id: "p1", proto: 70213}
	obj := proposalWithCid(4, "QmTestCidForProposal0000000000000000000004")

	m.HandleInventory(peer, govman.InventoryItem{Kind: govman.InvGovernanceObject, Hash: obj.Hash})
	res := m.ProcessObject(peer, obj, missingConfirmations)
	require.True(t, res.Accepted())
	require.Len(t, store.pins, 1)

	// confirmations now suffice at a later tip: admitted S1-shaped.
	m.UpdatedBlockTip(govman.BlockHeader{Height: 1001, Time: time.Now()}, false, alwaysValid)

	res2 := m.ProcessObject(peer, obj, alwaysValid)
	require.False(t, res2.Accepted()) // no longer requested, duplicate vs postponed-then-admitted
}

func TestProcessObject_MissingMasternodeOrphans(t *testing.T) {
	m, peers, _, _, _, _ := newTestManager()
	peer := &fakePeer{id: "p1", proto: 70213}
	obj := proposalWithCid(5, "QmTestCidForProposal0000000000000000000005")

	m.HandleInventory(peer, govman.InventoryItem{Kind: govman.InvGovernanceObject, Hash: obj.Hash})
	res := m.ProcessObject(peer, obj, missingMasternode)
	require.False(t, res.Accepted())
	require.Equal(t, govman.SeverityWarning, res.Severity)
	require.Empty(t, peers.misbehavings)
}

// invariant 7: 11th orphan object from the same masternode triggers a
// deferred AskFor and is dropped rather than queued.
func TestProcessObject_OrphanCapPerMasternode(t *testing.T) {
	m, peers, _, _, _, _ := newTestManager()
	peer := &fakePeer{id: "p1", proto: 70213}
	outpoint := govman.Outpoint{TxID: hashOf(99), Index: 0}

	for i := 0; i < 10; i++ {
		obj := proposalWithCid(byte(10+i), "QmTestCidForProposal00000000000000000000"+string(rune('A'+i)))
		obj.MasternodeOutpoint = outpoint
		m.HandleInventory(peer, govman.InventoryItem{Kind: govman.InvGovernanceObject, Hash: obj.Hash})
		res := m.ProcessObject(peer, obj, missingMasternode)
		require.False(t, res.Accepted())
	}

	overflow := proposalWithCid(30, "QmTestCidForProposalOverflow000000000000001")
	overflow.MasternodeOutpoint = outpoint
	m.HandleInventory(peer, govman.InventoryItem{Kind: govman.InvGovernanceObject, Hash: overflow.Hash})
	res := m.ProcessObject(peer, overflow, missingMasternode)
	require.False(t, res.Accepted())
	require.NotEmpty(t, peers.askedFor)
}

// S4 — rate-limited trigger: second TRIGGER from the same masternode
// within a second is rejected once the rate exceeds max_rate.
func TestProcessObject_RateLimitedTrigger(t *testing.T) {
	m, _, mnDir, _, _, triggers := newTestManager()
	peer := &fakePeer{id: "p1", proto: 70213}
	outpoint := govman.Outpoint{TxID: hashOf(7), Index: 0}
	mnDir.add(outpoint, []byte("votingkey"))
	_ = triggers

	g1 := &govman.Object{Hash: hashOf(40), Type: govman.ObjectTypeTrigger, MasternodeOutpoint: outpoint, CreationTime: time.Now()}
	m.HandleInventory(peer, govman.InventoryItem{Kind: govman.InvGovernanceObject, Hash: g1.Hash})
	res1 := m.ProcessObject(peer, g1, alwaysValid)
	require.True(t, res1.Accepted())

	g2 := &govman.Object{Hash: hashOf(41), Type: govman.ObjectTypeTrigger, MasternodeOutpoint: outpoint, CreationTime: time.Now()}
	m.HandleInventory(peer, govman.InventoryItem{Kind: govman.InvGovernanceObject, Hash: g2.Hash})
	res2 := m.ProcessObject(peer, g2, alwaysValid)
	require.False(t, res2.Accepted())
}
