// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman

import (
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/dashpay/govman/boundedcache"
	"github.com/dashpay/govman/internal/govfault"
	"github.com/dashpay/govman/ratebuffer"
)

// orphanEntry is an object awaiting masternode visibility
// (mapMasternodeOrphanObjects, spec.md §3/§4.3).
type orphanEntry struct {
	object     *Object
	peer       PeerHandle
	expiration time.Time
}

// orphanVoteEntry pairs a queued orphan vote with its deferred expiration
// (spec.md §4.7 step 1, "CleanOrphanObjects").
type orphanVoteEntry struct {
	vote       *Vote
	expiration time.Time
}

// erasedEntry remembers a hash that has been evicted, so stale
// re-introductions can be rejected until expiration (invariant 6).
type erasedEntry struct {
	expiration time.Time
}

// Manager is the Governance Manager. It owns no package-level state (the
// Design Notes in spec.md §9 explicitly reject a global singleton); every
// collaborator is injected at construction via New.
//
// cs is the single coarse mutex protecting every mutable collection listed
// in spec.md §5. Callers that also need the chain lock must acquire it
// before calling into the manager (cs_main then cs, never the reverse).
type Manager struct {
	cs sync.Mutex

	log *logger.L

	chain        Chain
	mnDirectory  MasternodeDirectory
	syncOracle   SyncOracle
	peers        PeerLayer
	contentStore ContentStore
	observer     ObserverBus
	triggers     TriggerManager
	verifier     SignatureVerifier

	rateLimits RateLimitConfig
	cacheSizes CacheSizeConfig

	mapObjects   map[Hash]*Object
	mapPostponed map[Hash]*Object
	mapOrphan    map[Hash]orphanEntry
	mapErased    map[Hash]erasedEntry

	masternodeOrphanCounter map[Outpoint]int
	lastMNListForVotingKeys []Masternode

	setRequestedObjects       map[Hash]struct{}
	setRequestedVotes         map[Hash]struct{}
	setAdditionalRelayObjects map[Hash]struct{}
	fulfilledFullSyncPeers    map[string]time.Time
	voteSyncHistory           map[voteSyncKey]time.Time

	voteToObject *boundedcache.Cache[Hash, Hash]
	invalidVotes *boundedcache.Cache[Hash, struct{}]
	orphanVotes  *boundedcache.MultiCache[Hash, orphanVoteEntry]

	rateBuffers map[Outpoint]*ratebuffer.Buffer

	cachedHeight uint32
	initialised  bool

	metrics *metricsSet
}

// voteSyncKey is the (object, peer) pair used to rate-limit targeted vote
// requests to at most once per 60 minutes (spec.md §4.6).
type voteSyncKey struct {
	object Hash
	peer   string
}

// RateLimitConfig mirrors internal/config.RateLimits without importing the
// config package, keeping govman importable independent of the daemon's
// configuration format.
type RateLimitConfig struct {
	BufferSize             int
	SuperblockCycleSeconds float64
}

// CacheSizeConfig mirrors internal/config.Cache.
type CacheSizeConfig struct {
	VoteToObjectSize int
	InvalidVoteSize  int
	OrphanVoteSize   int
}

// Collaborators bundles every injected dependency (spec.md §9 Design
// Notes: capability objects instead of ambient globals).
type Collaborators struct {
	Chain        Chain
	Masternodes  MasternodeDirectory
	SyncOracle   SyncOracle
	Peers        PeerLayer
	ContentStore ContentStore
	Observer     ObserverBus
	Triggers     TriggerManager
	Verifier     SignatureVerifier
}

// New constructs a Manager. It does not start any background loop; a
// snapshot, if any, is loaded with (*Manager).LoadSnapshot before calling
// (*Manager).Initialise.
func New(c Collaborators, rateLimits RateLimitConfig, cacheSizes CacheSizeConfig) *Manager {
	if rateLimits.BufferSize <= 0 {
		rateLimits.BufferSize = 5
	}
	if cacheSizes.VoteToObjectSize <= 0 {
		cacheSizes.VoteToObjectSize = 100000
	}
	if cacheSizes.InvalidVoteSize <= 0 {
		cacheSizes.InvalidVoteSize = 20000
	}
	if cacheSizes.OrphanVoteSize <= 0 {
		cacheSizes.OrphanVoteSize = 20000
	}

	return &Manager{
		log: logger.New("govman"),

		chain:        c.Chain,
		mnDirectory:  c.Masternodes,
		syncOracle:   c.SyncOracle,
		peers:        c.Peers,
		contentStore: c.ContentStore,
		observer:     c.Observer,
		triggers:     c.Triggers,
		verifier:     c.Verifier,

		rateLimits: rateLimits,
		cacheSizes: cacheSizes,

		mapObjects:   make(map[Hash]*Object),
		mapPostponed: make(map[Hash]*Object),
		mapOrphan:    make(map[Hash]orphanEntry),
		mapErased:    make(map[Hash]erasedEntry),

		masternodeOrphanCounter: make(map[Outpoint]int),

		setRequestedObjects:       make(map[Hash]struct{}),
		setRequestedVotes:         make(map[Hash]struct{}),
		setAdditionalRelayObjects: make(map[Hash]struct{}),
		fulfilledFullSyncPeers:    make(map[string]time.Time),
		voteSyncHistory:           make(map[voteSyncKey]time.Time),

		voteToObject: boundedcache.New[Hash, Hash](cacheSizes.VoteToObjectSize),
		invalidVotes: boundedcache.New[Hash, struct{}](cacheSizes.InvalidVoteSize),
		orphanVotes:  boundedcache.NewMulti[Hash, orphanVoteEntry](cacheSizes.OrphanVoteSize),

		rateBuffers: make(map[Outpoint]*ratebuffer.Buffer),

		metrics: newMetricsSet(),
	}
}

// Initialise marks the manager ready to admit traffic. Snapshot loading, if
// any, is performed by the caller via LoadSnapshot before calling this.
func (m *Manager) Initialise() error {
	m.cs.Lock()
	defer m.cs.Unlock()
	if m.initialised {
		return govfault.ErrAlreadyInitialised
	}
	m.initialised = true
	m.log.Info("initialised")
	return nil
}

// Finalise marks the manager no longer ready to admit traffic, mirroring
// the teacher's Initialise/Finalise subsystem pairing (e.g.
// cache/setup.go). It does not clear indices: a subsequent SaveSnapshot
// still sees the final state.
func (m *Manager) Finalise() error {
	m.cs.Lock()
	defer m.cs.Unlock()
	if !m.initialised {
		return govfault.ErrNotInitialised
	}
	m.initialised = false
	m.log.Info("finalised")
	return nil
}

// rateBufferFor returns (creating if necessary) the rate buffer for a
// masternode outpoint. Must be called with cs held.
func (m *Manager) rateBufferFor(o Outpoint) *ratebuffer.Buffer {
	b, ok := m.rateBuffers[o]
	if !ok {
		b = ratebuffer.New(m.rateLimits.BufferSize)
		m.rateBuffers[o] = b
	}
	return b
}

// maxTriggerRate computes the cap from the configured superblock cycle
// (spec.md §4.1).
func (m *Manager) maxTriggerRate() float64 {
	return ratebuffer.MaxRate(m.rateLimits.SuperblockCycleSeconds)
}
