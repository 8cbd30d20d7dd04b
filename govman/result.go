// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman

// Severity classifies the outcome of admitting an object or vote
// (spec.md §7).
type Severity int

const (
	SeverityNone Severity = iota
	SeverityWarning
	SeverityPermanent
	SeverityInternal
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "WARNING"
	case SeverityPermanent:
		return "PERMANENT_ERROR"
	case SeverityInternal:
		return "INTERNAL_ERROR"
	default:
		return "NONE"
	}
}

// Result is the tagged outcome of an admission attempt. Callers apply
// PeerLayer.Misbehaving(peer, NodePenalty) only when SyncOracle.IsSynced()
// is true (spec.md §7).
type Result struct {
	Severity    Severity
	Message     string
	NodePenalty int
}

// Accepted reports whether the result represents a successful admission.
func (r Result) Accepted() bool {
	return r.Severity == SeverityNone
}

func accept() Result {
	return Result{Severity: SeverityNone}
}

func warning(msg string) Result {
	return Result{Severity: SeverityWarning, Message: msg}
}

func permanent(msg string, penalty int) Result {
	return Result{Severity: SeverityPermanent, Message: msg, NodePenalty: penalty}
}

func internalError(msg string) Result {
	return Result{Severity: SeverityInternal, Message: msg}
}

// AdmissionStats mirrors the original's status-object pattern
// (fStatusOK/nLastTriggerRejectedCount in CGovernanceManager::UpdatedBlockTip,
// supplemented per SPEC_FULL.md). The admission pipeline does not fill or
// return it: ProcessObject returns only a Result, and no status flag is
// updated on a trigger rate rejection.
type AdmissionStats struct {
	StatusOK               bool
	LastTriggerRejectedRate float64
}
