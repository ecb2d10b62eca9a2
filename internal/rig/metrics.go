// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package rig

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Transition names used as metric labels.
const (
	TransitionEdit         = "edit"
	TransitionBuild        = "build"
	TransitionAddComponent = "add_component"
)

// Status values for transition metrics.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Transitions counts rig transitions by outcome.
// Use RegisterMetrics to register this with a Prometheus registry.
var Transitions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "crab_rig_transitions_total",
		Help: "Total number of rig transitions",
	},
	[]string{"transition", "status"},
)

// TransitionDuration is the histogram of rig transition durations.
// Use RegisterMetrics to register this with a Prometheus registry.
var TransitionDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "crab_rig_transition_duration_seconds",
		Help:    "Rig transition duration in seconds",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"transition"},
)

// RegisterMetrics registers rig package metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(Transitions)
	reg.MustRegister(TransitionDuration)
}

// RecordTransition counts one transition and observes its duration.
func RecordTransition(transition string, err error, d time.Duration) {
	status := StatusSuccess
	if err != nil {
		status = StatusFailed
	}
	Transitions.WithLabelValues(transition, status).Inc()
	TransitionDuration.WithLabelValues(transition).Observe(d.Seconds())
}
