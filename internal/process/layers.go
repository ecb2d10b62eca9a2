// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package process

import (
	"context"
	"slices"

	"github.com/crabrig/crab/internal/naming"
	"github.com/crabrig/crab/internal/scene"
)

// LayersIdentifier names the layer assignment process.
const LayersIdentifier = "Layers"

// Display layer attributes.
const (
	AttrLayerMembers     = "members"
	AttrLayerDisplayType = "display_type"
)

// Layer display types.
const (
	DisplayNormal    = 0
	DisplayTemplate  = 1
	DisplayReference = 2
)

// Layers puts the skeleton, controls and geometry of the rig into display
// layers, creating the layers on first use.
type Layers struct {
	Hooks
}

// Identifier returns "Layers".
func (Layers) Identifier() string { return LayersIdentifier }

// Version returns the process version.
func (Layers) Version() string { return "1.0.0" }

// PostBuild assigns each org to its layer. Geometry is drawn as a reference
// so animators select controls instead of meshes.
func (Layers) PostBuild(_ context.Context, r Rig) error {
	g := r.Graph()
	for _, l := range []struct {
		desc    string
		org     scene.NodeID
		display int
	}{
		{"Skeleton", r.SkeletonOrg(), DisplayNormal},
		{"Controls", r.ControlOrg(), DisplayNormal},
		{"Geometry", r.GeometryOrg(), DisplayReference},
	} {
		layer, err := EnsureLayer(g, naming.Compose(naming.Layer, l.desc, 1, naming.Middle), l.display)
		if err != nil {
			return err
		}
		if scene.IsNull(l.org) || !g.Exists(l.org) {
			continue
		}
		if err := AddToLayer(g, layer, l.org); err != nil {
			return err
		}
	}
	return nil
}

// EnsureLayer returns the display layer called name, creating it if needed.
func EnsureLayer(g scene.Graph, name string, display int) (scene.NodeID, error) {
	if id, ok := scene.FindByName(g, name); ok && g.Type(id) == scene.TypeDisplayLayer {
		return id, nil
	}
	id, err := g.CreateNode(scene.TypeDisplayLayer, name, scene.Null)
	if err != nil {
		return scene.Null, err
	}
	if err := g.AddAttr(id, scene.AttrSpec{Name: AttrLayerMembers, Kind: scene.KindMessage, Multi: true}); err != nil {
		return scene.Null, err
	}
	if err := g.AddAttr(id, scene.AttrSpec{
		Name: AttrLayerDisplayType,
		Kind: scene.KindEnum,
		Enum: []string{"normal", "template", "reference"},
	}); err != nil {
		return scene.Null, err
	}
	if err := g.SetAttr(id, AttrLayerDisplayType, display); err != nil {
		return scene.Null, err
	}
	return id, nil
}

// AddToLayer makes node a member of layer unless it already is.
func AddToLayer(g scene.Graph, layer, node scene.NodeID) error {
	if slices.Contains(g.Inputs(layer, AttrLayerMembers), node) {
		return nil
	}
	return g.Connect(node, scene.Plug{Node: layer, Attr: AttrLayerMembers, Index: g.NextIndex(layer, AttrLayerMembers)})
}

// LayerMembers returns the members of layer.
func LayerMembers(g scene.Graph, layer scene.NodeID) []scene.NodeID {
	return g.Inputs(layer, AttrLayerMembers)
}
