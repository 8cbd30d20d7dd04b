// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package govman

import "github.com/prometheus/client_golang/prometheus"

// metricsSet holds the Prometheus collectors exported by the manager.
// The manager does not register them itself; RegisterMetrics registers
// them with a caller-supplied prometheus.Registerer.
type metricsSet struct {
	objectsAdmitted  *prometheus.CounterVec
	objectsPostponed prometheus.Counter
	objectsOrphaned  prometheus.Counter
	objectsErased    prometheus.Counter
	voteOutcomes     *prometheus.CounterVec
	rateRejections   prometheus.Counter
	pinSuccesses     prometheus.Counter
	pinFailures      prometheus.Counter
}

func newMetricsSet() *metricsSet {
	return &metricsSet{
		objectsAdmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "govman",
			Name:      "objects_admitted_total",
			Help:      "governance objects admitted, by type",
		}, []string{"type"}),
		objectsPostponed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "govman",
			Name:      "objects_postponed_total",
			Help:      "governance objects routed to the postponed queue",
		}),
		objectsOrphaned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "govman",
			Name:      "objects_orphaned_total",
			Help:      "governance objects routed to the orphan queue",
		}),
		objectsErased: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "govman",
			Name:      "objects_erased_total",
			Help:      "governance objects evicted by the maintenance loop",
		}),
		voteOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "govman",
			Name:      "vote_admission_total",
			Help:      "vote admission attempts, by result severity",
		}, []string{"severity"}),
		rateRejections: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "govman",
			Name:      "trigger_rate_rejections_total",
			Help:      "trigger objects rejected by the rate buffer",
		}),
		pinSuccesses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "govman",
			Name:      "content_store_pin_success_total",
			Help:      "successful content-store pin/unpin calls",
		}),
		pinFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "govman",
			Name:      "content_store_pin_failure_total",
			Help:      "failed content-store pin/unpin calls (best-effort, non-fatal)",
		}),
	}
}

// Collectors returns every metric for registration with a
// prometheus.Registerer.
func (m *metricsSet) Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.objectsAdmitted,
		m.objectsPostponed,
		m.objectsOrphaned,
		m.objectsErased,
		m.voteOutcomes,
		m.rateRejections,
		m.pinSuccesses,
		m.pinFailures,
	}
}

// RegisterMetrics registers the manager's collectors with r.
func (m *Manager) RegisterMetrics(r prometheus.Registerer) error {
	for _, c := range m.metrics.Collectors() {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return nil
}
