// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package process defines rig lifecycle processes: plugins whose hooks run
// around the Edit and Build transitions. Hooks of one process may run on
// different instances, so any state carried from one phase to the next
// lives on the rig root or rig meta.
package process

import (
	"context"
	"log/slog"

	"github.com/crabrig/crab/internal/scene"
)

// Rig is the view of a rig a process works against.
type Rig interface {
	Graph() scene.Graph
	Name() string
	Node() scene.NodeID
	Meta() scene.NodeID
	ControlOrg() scene.NodeID
	SkeletonOrg() scene.NodeID
	GuideOrg() scene.NodeID
	GeometryOrg() scene.NodeID
	// IsClean is false while the last build has not finished.
	IsClean() bool
}

// Process is a process plugin.
type Process interface {
	Identifier() string
	Version() string
	// Snapshot runs first in Edit, while the control rig still exists.
	Snapshot(ctx context.Context, r Rig) error
	// PostEdit runs after the control rig is deleted.
	PostEdit(ctx context.Context, r Rig) error
	// PreBuild runs before any component builds its controls.
	PreBuild(ctx context.Context, r Rig) error
	// PostBuild runs after every component and behaviour is applied.
	PostBuild(ctx context.Context, r Rig) error
}

// Identify returns the identifier of p. It is the factory's identity accessor.
func Identify(p Process) string {
	return p.Identifier()
}

// VersionOf returns the version of p. It is the factory's version accessor.
func VersionOf(p Process) string {
	return p.Version()
}

// Hooks implements every hook as a no-op. Embed it to override only the
// phases a process cares about.
type Hooks struct{}

// Snapshot does nothing.
func (Hooks) Snapshot(context.Context, Rig) error { return nil }

// PostEdit does nothing.
func (Hooks) PostEdit(context.Context, Rig) error { return nil }

// PreBuild does nothing.
func (Hooks) PreBuild(context.Context, Rig) error { return nil }

// PostBuild does nothing.
func (Hooks) PostBuild(context.Context, Rig) error { return nil }

func logger(id string, r Rig) *slog.Logger {
	return slog.Default().With("process", id, "rig", r.Name())
}
