// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package bus

import "github.com/dashpay/govman/govman"

// NullBus implements govman.ObserverBus as a no-op, for tests and for
// deployments that run without ZMQ notification configured.
type NullBus struct{}

func (NullBus) NotifyGovernanceObject(*govman.Object) {}
func (NullBus) NotifyGovernanceVote(*govman.Vote)      {}
