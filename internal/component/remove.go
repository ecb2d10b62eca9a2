// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package component

import (
	"github.com/samber/oops"

	"github.com/crabrig/crab/internal/meta"
	"github.com/crabrig/crab/internal/scene"
)

// ErrRemovalRefused is the code returned when a component still deforms geometry.
const ErrRemovalRefused = "REMOVAL_REFUSED"

// Skinned returns the joints of the component that carry non-zero weight in
// any skin cluster.
func (b *Base) Skinned() []scene.NodeID {
	var out []scene.NodeID
	for _, j := range b.Joints() {
		for _, w := range b.g.SkinWeights(j) {
			if w != 0 {
				out = append(out, j)
				break
			}
		}
	}
	return out
}

// Remove deletes the component. It refuses with REMOVAL_REFUSED while any of
// its joints is skinned. Otherwise the skeleton roots of child components
// move to this component's parent, then the guide, control and skeleton
// hierarchies and the meta are deleted.
func (b *Base) Remove() error {
	if !b.HasMeta() {
		return oops.In("component").Code("NODE_NOT_FOUND").With("component", b.identifier).Errorf("component has no meta")
	}
	if skinned := b.Skinned(); len(skinned) > 0 {
		names := make([]string, len(skinned))
		for i, j := range skinned {
			names[i] = b.g.Name(j)
		}
		return oops.In("component").Code(ErrRemovalRefused).
			With("component", b.identifier).
			With("joints", names).
			Errorf("component has skinned joints")
	}

	root := b.SkeletonRoot()
	if !scene.IsNull(root) {
		parent := b.g.Parent(root)
		for _, child := range b.ChildComponents(false) {
			childRoot := meta.SkeletonRoot(b.g, child)
			if err := b.g.SetParent(childRoot, parent); err != nil {
				return oops.In("component").With("component", b.identifier).Wrap(err)
			}
		}
	}

	b.ClearBindings()
	for _, n := range []scene.NodeID{b.GuideRoot(), b.ControlRoot(), root, b.meta} {
		if scene.IsNull(n) || !b.g.Exists(n) {
			continue
		}
		if err := b.g.Delete(n); err != nil {
			b.logger.Warn("failed to delete component node", "node", b.g.Name(n), "error", err)
		}
	}
	b.meta = scene.Null
	return nil
}
