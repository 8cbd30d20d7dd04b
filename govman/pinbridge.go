// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman

import (
	"context"
	"time"
)

// maxPinSizeBytes is the 10 MB cutoff below which a payload's IPFS
// directory listing is eligible for pinning (spec.md §4.8 step 3).
const maxPinSizeBytes = 10 * 1024 * 1024

// addPin mirrors the Content-Pin Bridge (C9): best-effort, never affects
// admission. Called outside cs via the deferred-action list.
func (m *Manager) addPin(obj *Object, cid string) {
	if cid == "" || m.contentStore == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	path := "/ipfs/" + cid
	listing, err := m.contentStore.FilesLs(ctx, path)
	if err != nil {
		m.log.Warnf("content store listing failed for %s: %v", path, err)
		m.metrics.pinFailures.Inc()
		return
	}
	if listing.Size > maxPinSizeBytes {
		m.log.Debugf("content %s exceeds pin size cutoff (%d bytes)", path, listing.Size)
		return
	}
	if err := m.contentStore.PinAdd(ctx, path); err != nil {
		m.log.Warnf("content store pin failed for %s: %v", path, err)
		m.metrics.pinFailures.Inc()
		return
	}
	m.metrics.pinSuccesses.Inc()
}

// removePin issues a recursive unpin for a RECORD's payload, ignoring
// errors (spec.md §4.7/§4.8: "issue a recursive unpin; ignore errors").
func (m *Manager) removePin(obj *Object) {
	if m.contentStore == nil || obj.Type != ObjectTypeRecord {
		return
	}
	cid, err := ExtractIPFSCid(obj)
	if err != nil || cid == "" {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	path := "/ipfs/" + cid
	if err := m.contentStore.PinRm(ctx, path, true); err != nil {
		m.log.Warnf("content store unpin failed for %s: %v", path, err)
		m.metrics.pinFailures.Inc()
		return
	}
	m.metrics.pinSuccesses.Inc()
}
