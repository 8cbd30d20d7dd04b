// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package validator

import "time"

// ObjectInput is the minimal, dependency-free view of a governance object
// LocalValidity needs. govman adapts its own Object type into this shape
// rather than validator importing govman, keeping the validator package
// usable standalone (grounded on governance.cpp's
// CGovernanceObject::IsValidLocally, which takes no collaborators beyond
// what is passed in here).
type ObjectInput struct {
	IsTrigger          bool
	PayloadSize        int
	CollateralTxFound  bool
	CollateralAmount   int64
	Confirmations      uint32
	RequiredConfirmations uint32
	MasternodeKnown    bool
	SignatureValid     bool
	CreationTime       time.Time
}

// Outcome is the four-way result of CGovernanceObject::IsValidLocally:
// either Valid is true and the other two flags are false, or Valid is false
// and at most one of MissingMasternode, MissingConfirmations is true (both
// false for a plainly invalid object, with Error saying why).
type Outcome struct {
	Valid                bool
	MissingMasternode    bool
	MissingConfirmations bool
	Error                string
}

// LocalValidityParams bundles the chain-derived bounds LocalValidity checks
// timestamps and sizes against.
type LocalValidityParams struct {
	Now                time.Time
	MaxFutureDeviation time.Duration
	SuperblockCycle    time.Duration
	MaxPayloadBytes    int
}

// LocalValidity validates an object's syntax, collateral, masternode
// resolvability, signature and timestamp window (spec.md §4.5), grounded
// on governance.cpp's IsValidLocally.
func LocalValidity(in ObjectInput, p LocalValidityParams) Outcome {
	if in.PayloadSize == 0 || (p.MaxPayloadBytes > 0 && in.PayloadSize > p.MaxPayloadBytes) {
		return Outcome{Error: "payload has invalid size"}
	}

	if !in.MasternodeKnown {
		return Outcome{MissingMasternode: true, Error: "masternode not found"}
	}

	if !in.CollateralTxFound {
		return Outcome{Error: "collateral transaction not found"}
	}

	if in.Confirmations < in.RequiredConfirmations {
		return Outcome{MissingConfirmations: true, Error: "not enough fee confirmations"}
	}

	if !in.SignatureValid {
		return Outcome{Error: "signature is invalid"}
	}

	earliest := p.Now.Add(-2 * p.SuperblockCycle)
	latest := p.Now.Add(p.MaxFutureDeviation)
	if in.CreationTime.Before(earliest) || in.CreationTime.After(latest) {
		return Outcome{Error: "object creation time is out of range"}
	}

	return Outcome{Valid: true}
}
