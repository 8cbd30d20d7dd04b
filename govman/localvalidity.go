// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman

import (
	"time"

	"github.com/dashpay/govman/validator"
)

// requiredCollateralConfirmations is the fee-transaction confirmation
// threshold IsValidLocally enforces. governance.cpp itself only carries
// MAX_TIME_FUTURE_DEVIATION/RELIABLE_PROPAGATION_TIME (the former is used
// below as maxFutureDeviation); the
// object-level collateral-confirmation constant lives in
// governance-object.cpp, which is outside this pack's original_source, so
// this value is a documented default rather than a verbatim constant.
const requiredCollateralConfirmations = 6

// maxObjectPayloadBytes bounds a governance object's serialized payload.
// Same provenance note as requiredCollateralConfirmations above.
const maxObjectPayloadBytes = 16 * 1024

// maxFutureDeviation is governance.cpp's MAX_TIME_FUTURE_DEVIATION.
const maxFutureDeviation = 60 * 60 * time.Second

// LocalValidity is the default `func(*Object) validator.Outcome` callback:
// it adapts obj plus the manager's own Chain/MasternodeDirectory/
// SignatureVerifier collaborators into a validator.ObjectInput and
// delegates to validator.LocalValidity. Callers needing custom collateral
// or signature semantics (e.g. tests) pass their own callback instead;
// this method exists so cmd/governanced has a real one to wire in.
//
// It calls m.chain.Transaction/Confirmations, both blocking chain fetches
// per spec.md §5; every caller in this package runs it with cs released.
func (m *Manager) LocalValidity(obj *Object) validator.Outcome {
	_, mnKnown := m.mnDirectory.ByCollateral(obj.MasternodeOutpoint)

	var collateralFound bool
	var confirmations uint32
	if _, _, err := m.chain.Transaction(obj.CollateralTx); err == nil {
		collateralFound = true
		if c, err := m.chain.Confirmations(obj.CollateralTx); err == nil {
			confirmations = c
		}
	}

	sigValid := m.verifier == nil || m.verifier.VerifyObjectSignature(obj)

	in := validator.ObjectInput{
		IsTrigger:             obj.Type == ObjectTypeTrigger,
		PayloadSize:           len(obj.Payload),
		CollateralTxFound:     collateralFound,
		Confirmations:         confirmations,
		RequiredConfirmations: requiredCollateralConfirmations,
		MasternodeKnown:       mnKnown,
		SignatureValid:        sigValid,
		CreationTime:          obj.CreationTime,
	}

	params := validator.LocalValidityParams{
		Now:                time.Now(),
		MaxFutureDeviation: maxFutureDeviation,
		SuperblockCycle:    time.Duration(m.rateLimits.SuperblockCycleSeconds) * time.Second,
		MaxPayloadBytes:    maxObjectPayloadBytes,
	}

	return validator.LocalValidity(in, params)
}
