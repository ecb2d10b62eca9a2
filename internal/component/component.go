// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package component defines the protocol every skeletal-rigging plugin
// honours, and the convenience operations the framework gives them.
//
// A Descriptor is what the component factory dispenses. The rig calls
// Descriptor.New with a Base bound to the scene to get a live Component,
// then drives it in a fixed order: CreateSkeleton and CreateGuide once when
// the component is added, LinkGuide at every edit, UnlinkGuide and CreateRig
// at every build. Any operation may be a no-op.
package component

import (
	"context"

	"github.com/crabrig/crab/internal/scene"
)

// Component is a live component instance.
type Component interface {
	// CreateSkeleton builds the joints under parent. The first joint must be
	// passed to Base.MarkAsSkeletalRoot and every joint needed later must be
	// tagged. Returning false reports failure without an error.
	CreateSkeleton(ctx context.Context, parent scene.NodeID) (bool, error)
	// CreateGuide builds helper geometry under the guide root.
	CreateGuide(ctx context.Context, parent scene.NodeID) error
	// LinkGuide makes the guides drive the skeleton.
	LinkGuide(ctx context.Context) error
	// UnlinkGuide leaves the skeleton free to be driven by controls.
	UnlinkGuide(ctx context.Context) error
	// CreateRig builds the controls under parent and binds joints to them.
	CreateRig(ctx context.Context, parent scene.NodeID) (bool, error)
}

// Remover is implemented by components that need their own removal. It
// replaces Base.Remove, which implementations usually call last.
type Remover interface {
	Remove() error
}

// Descriptor identifies a component plugin and creates instances of it.
type Descriptor interface {
	Identifier() string
	Version() string
	// DefaultOptions returns the option bag a fresh instance starts with.
	DefaultOptions() Options
	// New returns a component bound to b.
	New(b *Base) Component
}

// Identify returns the identifier of d. It is the factory's identity accessor.
func Identify(d Descriptor) string {
	return d.Identifier()
}

// VersionOf returns the version of d. It is the factory's version accessor.
func VersionOf(d Descriptor) string {
	return d.Version()
}

// Noop implements every Component operation as a no-op. Embed it to
// override only what a component needs.
type Noop struct{}

// CreateSkeleton does nothing and succeeds.
func (Noop) CreateSkeleton(context.Context, scene.NodeID) (bool, error) { return true, nil }

// CreateGuide does nothing.
func (Noop) CreateGuide(context.Context, scene.NodeID) error { return nil }

// LinkGuide does nothing.
func (Noop) LinkGuide(context.Context) error { return nil }

// UnlinkGuide does nothing.
func (Noop) UnlinkGuide(context.Context) error { return nil }

// CreateRig does nothing and succeeds.
func (Noop) CreateRig(context.Context, scene.NodeID) (bool, error) { return true, nil }
