// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package behaviour defines rig-wide behaviours: plugins that wire
// components together once the control rig exists. At rest a behaviour is
// only a Record in the rig meta; Build materializes it and Edit deletes
// everything it tracked.
package behaviour

import (
	"context"

	"github.com/crabrig/crab/internal/scene"
)

// Rig is the view of a rig a behaviour works against.
type Rig interface {
	Graph() scene.Graph
	Node() scene.NodeID
	ControlOrg() scene.NodeID
	SkeletonOrg() scene.NodeID
	GuideOrg() scene.NodeID
	// Track records a node the behaviour created so that Edit deletes it.
	Track(node scene.NodeID) error
}

// Behaviour is a behaviour plugin.
type Behaviour interface {
	Identifier() string
	Version() string
	// DefaultOptions returns the options a new record starts with.
	DefaultOptions() map[string]any
	// Apply materializes one record against a built rig.
	Apply(ctx context.Context, r Rig, options map[string]any) error
}

// Identify returns the identifier of b. It is the factory's identity accessor.
func Identify(b Behaviour) string {
	return b.Identifier()
}

// VersionOf returns the version of b. It is the factory's version accessor.
func VersionOf(b Behaviour) string {
	return b.Version()
}
