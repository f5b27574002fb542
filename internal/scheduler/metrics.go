// Copyright 2016 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scheduler

import "github.com/prometheus/client_golang/prometheus"

// prometheusCollector aliases the library's own interface so callers
// of Metrics don't need to import prometheus just to hold the slice.
type prometheusCollector = prometheus.Collector

// metrics bundles the three collectors spec §10.5 names. None of them
// sit on the hot path of a single Tick beyond an atomic increment or
// store, so enabling -metrics-addr never changes scheduling behavior.
type metrics struct {
	ticksTotal    prometheus.Counter
	threadsActive prometheus.Gauge
	groupsActive  prometheus.Gauge
}

func newMetrics() *metrics {
	return &metrics{
		ticksTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stagejit_scheduler_ticks_total",
			Help: "Total number of scheduler ticks run.",
		}),
		threadsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stagejit_scheduler_active_threads",
			Help: "Number of threads currently live across all groups.",
		}),
		groupsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stagejit_scheduler_active_groups",
			Help: "Number of trigger-cohort groups currently live.",
		}),
	}
}

func (m *metrics) collectors() []prometheusCollector {
	return []prometheusCollector{m.ticksTotal, m.threadsActive, m.groupsActive}
}
