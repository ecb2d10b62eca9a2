// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package plugin

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Status values for plugin load metrics.
const (
	StatusLoaded  = "loaded"
	StatusSkipped = "skipped"
	StatusFailed  = "failed"
)

// PluginLoads counts plugin load attempts during discovery.
// Use RegisterMetrics to register this with a Prometheus registry.
var PluginLoads = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "crab_plugin_loads_total",
		Help: "Total number of plugin load attempts by kind, mechanism and status",
	},
	[]string{"kind", "mechanism", "status"},
)

// RegisterMetrics registers plugin package metrics with the given registry.
// Panics if registration fails (following prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(PluginLoads)
}

// RecordLoad increments the load counter.
func RecordLoad(kind Kind, mechanism Mechanism, status string) {
	PluginLoads.WithLabelValues(string(kind), mechanism.String(), status).Inc()
}
