// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/dashpay/govman/govman"
)

func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "govman-test-log")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	if err := logger.Initialise(logger.Configuration{
		Directory: dir,
		File:      "test.log",
		Size:      1048576,
		Count:     10,
	}); err != nil {
		panic(err)
	}

	os.Exit(m.Run())
}

// fakeChain is a minimal, deterministic Chain collaborator for tests. When
// knownTx is nil every txid is reported found with 6 confirmations; when
// non-nil, Transaction/Confirmations are keyed on the exact txid passed in,
// so tests can tell apart lookups against distinct hash-shaped fields (e.g.
// Object.CollateralTx vs. Object.MasternodeOutpoint.TxID).
type fakeChain struct {
	height  uint32
	blocks  map[uint32]govman.BlockHeader
	params  govman.ConsensusParams
	cycle   time.Duration
	knownTx map[govman.Hash]uint32
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		height: 1000,
		blocks: map[uint32]govman.BlockHeader{
			1000: {Height: 1000, Time: time.Unix(500000, 0)},
			1001: {Height: 1001, Time: time.Unix(500600, 0)},
		},
		params: govman.ConsensusParams{SuperblockCycleSeconds: 6 * 3600, MinGovernanceProtocol: 70213},
		cycle:  6 * 3600 * time.Second,
	}
}

func (c *fakeChain) Height() uint32 { return c.height }
func (c *fakeChain) Block(h uint32) (govman.BlockHeader, error) {
	b, ok := c.blocks[h]
	if !ok {
		return govman.BlockHeader{}, errNotFound
	}
	return b, nil
}
func (c *fakeChain) Transaction(txid govman.Hash) ([]byte, govman.Hash, error) {
	if c.knownTx != nil {
		if _, ok := c.knownTx[txid]; !ok {
			return nil, govman.Hash{}, errNotFound
		}
	}
	return []byte("tx"), govman.Hash{}, nil
}
func (c *fakeChain) Confirmations(txid govman.Hash) (uint32, error) {
	if c.knownTx != nil {
		n, ok := c.knownTx[txid]
		if !ok {
			return 0, errNotFound
		}
		return n, nil
	}
	return 6, nil
}
func (c *fakeChain) ConsensusParams() govman.ConsensusParams { return c.params }
func (c *fakeChain) NextSuperblockHeight(t time.Time) uint32 { return 1000 }

type sentinelErr string

func (e sentinelErr) Error() string { return string(e) }

const errNotFound = sentinelErr("not found")

// fakeMNDirectory tracks a small masternode roster.
type fakeMNDirectory struct {
	mu  sync.Mutex
	mns map[govman.Outpoint]govman.Masternode
}

func newFakeMNDirectory() *fakeMNDirectory {
	return &fakeMNDirectory{mns: make(map[govman.Outpoint]govman.Masternode)}
}

func (d *fakeMNDirectory) add(o govman.Outpoint, votingKey []byte) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.mns[o] = govman.Masternode{Outpoint: o, VotingKey: votingKey}
}

func (d *fakeMNDirectory) ListAtChainTip() []govman.Masternode {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]govman.Masternode, 0, len(d.mns))
	for _, mn := range d.mns {
		out = append(out, mn)
	}
	return out
}

func (d *fakeMNDirectory) ByCollateral(o govman.Outpoint) (govman.Masternode, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	mn, ok := d.mns[o]
	return mn, ok
}

func (d *fakeMNDirectory) Diff(prev, cur []govman.Masternode) govman.MasternodeDiff {
	prevKeys := make(map[govman.Outpoint][]byte)
	for _, mn := range prev {
		prevKeys[mn.Outpoint] = mn.VotingKey
	}
	curSet := make(map[govman.Outpoint]bool)
	var diff govman.MasternodeDiff
	for _, mn := range cur {
		curSet[mn.Outpoint] = true
		if oldKey, existed := prevKeys[mn.Outpoint]; existed && string(oldKey) != string(mn.VotingKey) {
			diff.Changed = append(diff.Changed, mn.Outpoint)
		}
	}
	for _, mn := range prev {
		if !curSet[mn.Outpoint] {
			diff.Removed = append(diff.Removed, mn.Outpoint)
		}
	}
	return diff
}

func (d *fakeMNDirectory) IdentitiesInUse() map[string]struct{} { return nil }

type fakeSyncOracle struct{ synced bool }

func (s *fakeSyncOracle) IsBlockchainSynced() bool    { return s.synced }
func (s *fakeSyncOracle) IsSynced() bool              { return s.synced }
func (s *fakeSyncOracle) BumpAssetLastTime(string)    {}

type fakePeer struct {
	id          string
	proto       uint32
	masternode  bool
	inboundOnMN bool
}

func (p *fakePeer) ID() string                     { return p.id }
func (p *fakePeer) ProtocolVersion() uint32         { return p.proto }
func (p *fakePeer) IsMasternodeConnection() bool    { return p.masternode }
func (p *fakePeer) IsInboundOnMasternode() bool     { return p.inboundOnMN }

type recordedInv struct {
	kind govman.InventoryKind
	hash govman.Hash
}

type fakePeerLayer struct {
	mu           sync.Mutex
	relayed      []recordedInv
	askedFor     []govman.InventoryItem
	misbehavings []int
	messages     []govman.WireMessage
	knownPeers   []govman.PeerHandle
}

func (p *fakePeerLayer) PushMessage(peer govman.PeerHandle, msg govman.WireMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.messages = append(p.messages, msg)
	return nil
}
func (p *fakePeerLayer) PushInventory(peer govman.PeerHandle, inv govman.InventoryItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.relayed = append(p.relayed, recordedInv{kind: inv.Kind, hash: inv.Hash})
}
func (p *fakePeerLayer) AskFor(peer govman.PeerHandle, inv govman.InventoryItem) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.askedFor = append(p.askedFor, inv)
}
func (p *fakePeerLayer) RemoveAskFor(peer govman.PeerHandle, inv govman.InventoryItem) {}
func (p *fakePeerLayer) CopyNodeVector(filter func(govman.PeerHandle) bool) []govman.PeerHandle {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []govman.PeerHandle
	for _, peer := range p.knownPeers {
		if filter == nil || filter(peer) {
			out = append(out, peer)
		}
	}
	return out
}
func (p *fakePeerLayer) Misbehaving(peer govman.PeerHandle, score int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.misbehavings = append(p.misbehavings, score)
}

type fakeContentStore struct {
	mu       sync.Mutex
	pins     []string
	unpins   []string
	failList bool
}

func (c *fakeContentStore) FilesLs(ctx context.Context, path string) (govman.Listing, error) {
	if c.failList {
		return govman.Listing{}, errNotFound
	}
	return govman.Listing{Size: 1024}, nil
}
func (c *fakeContentStore) PinAdd(ctx context.Context, path string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pins = append(c.pins, path)
	return nil
}
func (c *fakeContentStore) PinRm(ctx context.Context, path string, recursive bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unpins = append(c.unpins, path)
	return nil
}

type fakeObserverBus struct {
	mu     sync.Mutex
	objs   []govman.Hash
	votes  []govman.Hash
}

func (b *fakeObserverBus) NotifyGovernanceObject(o *govman.Object) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objs = append(b.objs, o.Hash)
}
func (b *fakeObserverBus) NotifyGovernanceVote(v *govman.Vote) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.votes = append(b.votes, v.Hash)
}

type fakeTriggerManager struct {
	registered []govman.Hash
	rejectAll  bool
}

func (t *fakeTriggerManager) Register(o *govman.Object) error {
	if t.rejectAll {
		return errNotFound
	}
	t.registered = append(t.registered, o.Hash)
	return nil
}
func (t *fakeTriggerManager) Expire(now time.Time)             {}
func (t *fakeTriggerManager) ExecuteBest(height uint32) error  { return nil }

type fakeVerifier struct{ alwaysValid bool }

func (v *fakeVerifier) VerifyObjectSignature(o *govman.Object) bool { return v.alwaysValid }
func (v *fakeVerifier) VerifyVoteSignature(vote *govman.Vote, key []byte) bool {
	return v.alwaysValid
}

func newTestManager() (*govman.Manager, *fakePeerLayer, *fakeMNDirectory, *fakeContentStore, *fakeObserverBus, *fakeTriggerManager) {
	peers := &fakePeerLayer{}
	mnDir := newFakeMNDirectory()
	store := &fakeContentStore{}
	bus := &fakeObserverBus{}
	triggers := &fakeTriggerManager{}

	m := govman.New(govman.Collaborators{
		Chain:        newFakeChain(),
		Masternodes:  mnDir,
		SyncOracle:   &fakeSyncOracle{synced: true},
		Peers:        peers,
		ContentStore: store,
		Observer:     bus,
		Triggers:     triggers,
		Verifier:     &fakeVerifier{alwaysValid: true},
	}, govman.RateLimitConfig{BufferSize: 5, SuperblockCycleSeconds: 6 * 3600}, govman.CacheSizeConfig{
		VoteToObjectSize: 100,
		InvalidVoteSize:  100,
		OrphanVoteSize:   100,
	})
	m.Initialise()
	return m, peers, mnDir, store, bus, triggers
}

func newManagerWithVerifier(v govman.SignatureVerifier) (*govman.Manager, *fakePeerLayer, *fakeMNDirectory, *fakeContentStore, *fakeObserverBus, *fakeTriggerManager) {
	peers := &fakePeerLayer{}
	mnDir := newFakeMNDirectory()
	store := &fakeContentStore{}
	bus := &fakeObserverBus{}
	triggers := &fakeTriggerManager{}

	m := govman.New(govman.Collaborators{
		Chain:        newFakeChain(),
		Masternodes:  mnDir,
		SyncOracle:   &fakeSyncOracle{synced: true},
		Peers:        peers,
		ContentStore: store,
		Observer:     bus,
		Triggers:     triggers,
		Verifier:     v,
	}, govman.RateLimitConfig{BufferSize: 5, SuperblockCycleSeconds: 6 * 3600}, govman.CacheSizeConfig{
		VoteToObjectSize: 100,
		InvalidVoteSize:  100,
		OrphanVoteSize:   100,
	})
	m.Initialise()
	return m, peers, mnDir, store, bus, triggers
}

func newManagerWithChain(chain govman.Chain) (*govman.Manager, *fakePeerLayer, *fakeMNDirectory, *fakeContentStore, *fakeObserverBus, *fakeTriggerManager) {
	peers := &fakePeerLayer{}
	mnDir := newFakeMNDirectory()
	store := &fakeContentStore{}
	bus := &fakeObserverBus{}
	triggers := &fakeTriggerManager{}

	m := govman.New(govman.Collaborators{
		Chain:        chain,
		Masternodes:  mnDir,
		SyncOracle:   &fakeSyncOracle{synced: true},
		Peers:        peers,
		ContentStore: store,
		Observer:     bus,
		Triggers:     triggers,
		Verifier:     &fakeVerifier{alwaysValid: true},
	}, govman.RateLimitConfig{BufferSize: 5, SuperblockCycleSeconds: 6 * 3600}, govman.CacheSizeConfig{
		VoteToObjectSize: 100,
		InvalidVoteSize:  100,
		OrphanVoteSize:   100,
	})
	m.Initialise()
	return m, peers, mnDir, store, bus, triggers
}

func hashOf(b byte) govman.Hash {
	var h govman.Hash
	h[0] = b
	return h
}
