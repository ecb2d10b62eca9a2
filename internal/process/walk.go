// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package process

import (
	"github.com/crabrig/crab/internal/naming"
	"github.com/crabrig/crab/internal/scene"
)

// Controls returns the transforms below the control org whose names carry
// the control prefix, in post-order.
func Controls(r Rig) []scene.NodeID {
	g := r.Graph()
	var out []scene.NodeID
	for _, n := range scene.Descendants(g, r.ControlOrg()) {
		if g.Type(n) == scene.TypeTransform && naming.Prefix(g.Name(n)) == naming.Control {
			out = append(out, n)
		}
	}
	return out
}

// Joints returns every joint below the skeleton org, in post-order.
func Joints(r Rig) []scene.NodeID {
	g := r.Graph()
	var out []scene.NodeID
	for _, n := range scene.Descendants(g, r.SkeletonOrg()) {
		if g.Type(n) == scene.TypeJoint {
			out = append(out, n)
		}
	}
	return out
}

func ensureString(g scene.Graph, node scene.NodeID, attr, value string) error {
	if err := scene.EnsureAttr(g, node, scene.AttrSpec{Name: attr, Kind: scene.KindString}); err != nil {
		return err
	}
	return g.SetAttr(node, attr, value)
}
