// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package config defines the libucl-tagged configuration structs consumed
// by the governance daemon, grouped per subsystem the way
// command/bitmarkd/configuration.go composes its Configuration struct.
package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/bitmark-inc/logger"
)

// RateLimits controls the per-masternode submission rate cap (C1).
type RateLimits struct {
	BufferSize             int     `libucl:"buffer_size" json:"buffer_size"`
	SuperblockCycleSeconds float64 `libucl:"superblock_cycle_seconds" json:"superblock_cycle_seconds"`
}

// Cache controls the bounded-cache capacities (C2).
type Cache struct {
	VoteToObjectSize int `libucl:"vote_to_object_size" json:"vote_to_object_size"`
	InvalidVoteSize  int `libucl:"invalid_vote_size" json:"invalid_vote_size"`
	OrphanVoteSize   int `libucl:"orphan_vote_size" json:"orphan_vote_size"`
}

// ContentStore configures the external content-addressed store client (C9).
type ContentStore struct {
	Endpoint         string        `libucl:"endpoint" json:"endpoint"`
	Timeout          time.Duration `libucl:"timeout" json:"timeout"`
	MaxListingBytes  int64         `libucl:"max_listing_bytes" json:"max_listing_bytes"`
}

// Maintenance controls the periodic cleanup loop (C8).
type Maintenance struct {
	Interval time.Duration `libucl:"interval" json:"interval"`
}

// Sync controls the peer sync protocol cadence (C7).
type Sync struct {
	TargetedRequestInterval time.Duration `libucl:"targeted_request_interval" json:"targeted_request_interval"`
	FullSyncCooldown        time.Duration `libucl:"full_sync_cooldown" json:"full_sync_cooldown"`
}

// ObserverBus configures the ZMQ publish socket used for
// notifyGovernanceObject/notifyGovernanceVote side effects.
type ObserverBus struct {
	Listen     []string `libucl:"listen" json:"listen"`
	PrivateKey string   `libucl:"private_key" json:"private_key"`
	PublicKey  string   `libucl:"public_key" json:"public_key"`
}

// Configuration is the root governance-daemon configuration, composed the
// way command/bitmarkd/configuration.go composes its per-subsystem blocks.
type Configuration struct {
	DataDirectory string `libucl:"data_directory" json:"data_directory"`
	PidFile       string `libucl:"pidfile" json:"pidfile"`
	SnapshotFile  string `libucl:"snapshot_file" json:"snapshot_file"`

	RateLimits   RateLimits           `libucl:"rate_limits" json:"rate_limits"`
	Cache        Cache                `libucl:"cache" json:"cache"`
	ContentStore ContentStore         `libucl:"content_store" json:"content_store"`
	Maintenance  Maintenance          `libucl:"maintenance" json:"maintenance"`
	Sync         Sync                 `libucl:"sync" json:"sync"`
	Observer     ObserverBus          `libucl:"observer" json:"observer"`
	Logging      logger.Configuration `libucl:"logging" json:"logging"`
}

// Defaults returns a Configuration populated with the values the original
// governance.cpp hard-codes as constants (MAX_CACHE_SIZE equivalents, the localhost:5001 content-store endpoint,
// etc.), exposed here as overridable defaults rather than compiled-in
// constants (§9 Open Question: endpoint configurability).
func Defaults() Configuration {
	return Configuration{
		RateLimits: RateLimits{
			BufferSize:             5,
			SuperblockCycleSeconds: 6 * 3600,
		},
		Cache: Cache{
			VoteToObjectSize: 100000,
			InvalidVoteSize:  20000,
			OrphanVoteSize:   20000,
		},
		ContentStore: ContentStore{
			Endpoint:        "http://localhost:5001",
			Timeout:         30 * time.Second,
			MaxListingBytes: 10 * 1024 * 1024,
		},
		Maintenance: Maintenance{
			Interval: 60 * time.Second,
		},
		Sync: Sync{
			TargetedRequestInterval: 60 * time.Minute,
			FullSyncCooldown:        60 * time.Minute,
		},
	}
}

// Load reads a Configuration from fileName, starting from Defaults so any
// field the file omits keeps its default value. The teacher's
// command/bitmarkd/configuration.go decodes via a libucl parser
// (github.com/bitmark-inc/go-libucl); that module is not a pure-Go
// dependency and is not importable here, so Load decodes the same
// libucl-tagged struct's parallel `json` tags via the standard library
// instead (see DESIGN.md).
func Load(fileName string) (Configuration, error) {
	cfg := Defaults()

	f, err := os.Open(fileName)
	if err != nil {
		return Configuration{}, err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(&cfg); err != nil {
		return Configuration{}, err
	}
	return cfg, nil
}
