// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package meta maintains the meta-graph: neutral network nodes that record
// a component's identity and link, by message connection, to the roots of
// its skeleton, guide and control hierarchies.
//
// Because the links are connections rather than names, they survive renames
// and travel with the scene file.
package meta

import (
	"encoding/json"
	"slices"
	"strings"

	"cogentcore.org/core/math32"
	"github.com/samber/oops"

	"github.com/crabrig/crab/internal/naming"
	"github.com/crabrig/crab/internal/scene"
)

// Component meta attributes.
const (
	AttrComponentMarker = "crab_component"
	AttrIdentifier      = "identifier"
	AttrVersion         = "version"
	AttrOptions         = "options"
	AttrSkeletonRoot    = "skeleton_root_link"
	AttrGuideRoot       = "guide_root_link"
	AttrControlRoot     = "control_root_link"

	// LabelPrefix prefixes the multi-message attributes used as tag index.
	LabelPrefix = "label_"
)

// Outliner hint attributes written on marked skeletal roots.
const (
	AttrUseOutlinerColour = "use_outliner_colour"
	AttrOutlinerColour    = "outliner_colour"
)

// RootColour is the outliner colour of component skeletal roots.
var RootColour = math32.Vector3{X: 0.2, Y: 0.8, Z: 0.4}

var rootLinks = []string{AttrSkeletonRoot, AttrGuideRoot, AttrControlRoot}

// Create makes a component meta node named META_<Identifier>_N_<side>.
// The side is taken from the "side" option when it is a string.
func Create(g scene.Graph, identifier, version string, options map[string]any) (scene.NodeID, error) {
	if identifier == "" {
		return scene.Null, oops.In("meta").Errorf("component identifier cannot be empty")
	}
	side := naming.Middle
	if s, ok := options["side"].(string); ok && s != "" {
		side = s
	}
	name := naming.MakeName(g, naming.Meta, identifier, side, 1)

	id, err := g.CreateNode(scene.TypeNetwork, name, scene.Null)
	if err != nil {
		return scene.Null, oops.In("meta").With("identifier", identifier).Wrap(err)
	}
	specs := []scene.AttrSpec{
		{Name: AttrComponentMarker, Kind: scene.KindBool},
		{Name: AttrIdentifier, Kind: scene.KindString},
		{Name: AttrVersion, Kind: scene.KindString},
		{Name: AttrOptions, Kind: scene.KindString},
		{Name: AttrSkeletonRoot, Kind: scene.KindMessage},
		{Name: AttrGuideRoot, Kind: scene.KindMessage},
		{Name: AttrControlRoot, Kind: scene.KindMessage},
	}
	for _, spec := range specs {
		if err := g.AddAttr(id, spec); err != nil {
			return scene.Null, oops.In("meta").With("attr", spec.Name).Wrap(err)
		}
	}
	if err := g.SetAttr(id, AttrComponentMarker, true); err != nil {
		return scene.Null, err
	}
	if err := g.SetAttr(id, AttrIdentifier, identifier); err != nil {
		return scene.Null, err
	}
	if err := g.SetAttr(id, AttrVersion, version); err != nil {
		return scene.Null, err
	}
	if err := SetOptions(g, id, options); err != nil {
		return scene.Null, err
	}
	return id, nil
}

// IsComponentMeta reports whether id is a component meta node.
func IsComponentMeta(g scene.Graph, id scene.NodeID) bool {
	return scene.Bool(g, id, AttrComponentMarker)
}

// All returns every component meta in the scene, in creation order.
func All(g scene.Graph) []scene.NodeID {
	ids, err := g.Ls("*")
	if err != nil {
		return nil
	}
	return slices.DeleteFunc(ids, func(id scene.NodeID) bool { return !IsComponentMeta(g, id) })
}

// Identifier returns the plugin identifier stored on a meta.
func Identifier(g scene.Graph, m scene.NodeID) string {
	return scene.String(g, m, AttrIdentifier)
}

// Version returns the plugin version stored on a meta.
func Version(g scene.Graph, m scene.NodeID) string {
	return scene.String(g, m, AttrVersion)
}

// Options decodes the option bag stored on a meta.
func Options(g scene.Graph, m scene.NodeID) (map[string]any, error) {
	raw := scene.String(g, m, AttrOptions)
	out := map[string]any{}
	if raw == "" {
		return out, nil
	}
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, oops.In("meta").With("meta", g.Name(m)).Wrap(err)
	}
	return out, nil
}

// SetOptions stores the option bag as a JSON object.
func SetOptions(g scene.Graph, m scene.NodeID, options map[string]any) error {
	if options == nil {
		options = map[string]any{}
	}
	data, err := json.Marshal(options)
	if err != nil {
		return oops.In("meta").With("meta", g.Name(m)).Wrap(err)
	}
	return g.SetAttr(m, AttrOptions, string(data))
}

// MarkAsSkeletalRoot links node as the skeleton root of m and colours it in
// the outliner.
func MarkAsSkeletalRoot(g scene.Graph, node, m scene.NodeID) error {
	if err := link(g, node, m, AttrSkeletonRoot); err != nil {
		return err
	}
	return SetOutlinerColour(g, node, RootColour)
}

// MarkAsGuideRoot links node as the guide root of m.
func MarkAsGuideRoot(g scene.Graph, node, m scene.NodeID) error {
	return link(g, node, m, AttrGuideRoot)
}

// MarkAsControlRoot links node as the control root of m.
func MarkAsControlRoot(g scene.Graph, node, m scene.NodeID) error {
	return link(g, node, m, AttrControlRoot)
}

func link(g scene.Graph, node, m scene.NodeID, attr string) error {
	if err := g.Connect(node, scene.Plug{Node: m, Attr: attr}); err != nil {
		return oops.In("meta").
			With("node", g.Name(node)).
			With("meta", g.Name(m)).
			With("attr", attr).
			Wrap(err)
	}
	return nil
}

// SkeletonRoot returns the skeleton root of m, or Null.
func SkeletonRoot(g scene.Graph, m scene.NodeID) scene.NodeID {
	return scene.Input(g, m, AttrSkeletonRoot)
}

// GuideRoot returns the guide root of m, or Null.
func GuideRoot(g scene.Graph, m scene.NodeID) scene.NodeID {
	return scene.Input(g, m, AttrGuideRoot)
}

// ControlRoot returns the control root of m, or Null.
func ControlRoot(g scene.Graph, m scene.NodeID) scene.NodeID {
	return scene.Input(g, m, AttrControlRoot)
}

// SetOutlinerColour turns on the outliner colour override of node.
func SetOutlinerColour(g scene.Graph, node scene.NodeID, c math32.Vector3) error {
	if err := scene.EnsureAttr(g, node, scene.AttrSpec{Name: AttrUseOutlinerColour, Kind: scene.KindBool}); err != nil {
		return err
	}
	if err := scene.EnsureAttr(g, node, scene.AttrSpec{Name: AttrOutlinerColour, Kind: scene.KindVector}); err != nil {
		return err
	}
	if err := g.SetAttr(node, AttrUseOutlinerColour, true); err != nil {
		return err
	}
	return g.SetAttr(node, AttrOutlinerColour, c)
}

// Tag appends target to the label_<label> index of m, creating the index on
// first use. Tagging the same target twice stores it twice.
func Tag(g scene.Graph, target scene.NodeID, label string, m scene.NodeID) error {
	if label == "" {
		return oops.In("meta").With("meta", g.Name(m)).Errorf("tag label cannot be empty")
	}
	attr := LabelPrefix + label
	if err := scene.EnsureAttr(g, m, scene.AttrSpec{Name: attr, Kind: scene.KindMessage, Multi: true}); err != nil {
		return oops.In("meta").With("meta", g.Name(m)).With("label", label).Wrap(err)
	}
	plug := scene.Plug{Node: m, Attr: attr, Index: g.NextIndex(m, attr)}
	if err := g.Connect(target, plug); err != nil {
		return oops.In("meta").
			With("meta", g.Name(m)).
			With("label", label).
			With("target", g.Name(target)).
			Wrap(err)
	}
	return nil
}

// Find returns the nodes tagged with label on m, in tagging order.
func Find(g scene.Graph, label string, m scene.NodeID) []scene.NodeID {
	return g.Inputs(m, LabelPrefix+label)
}

// FindFirst returns the first node tagged with label on m, or Null.
func FindFirst(g scene.Graph, label string, m scene.NodeID) scene.NodeID {
	return scene.Input(g, m, LabelPrefix+label)
}

// Labels lists the tag labels present on m.
func Labels(g scene.Graph, m scene.NodeID) []string {
	var out []string
	for _, attr := range g.Attrs(m) {
		if label, ok := strings.CutPrefix(attr, LabelPrefix); ok {
			out = append(out, label)
		}
	}
	return out
}

// IsComponentRoot returns the component meta node is a skeleton, guide or
// control root of, or Null.
func IsComponentRoot(g scene.Graph, node scene.NodeID) scene.NodeID {
	for _, p := range g.Outputs(node) {
		if slices.Contains(rootLinks, p.Attr) && IsComponentMeta(g, p.Node) {
			return p.Node
		}
	}
	return scene.Null
}

// ResolveFromNode walks up from node (inclusive) and returns the first
// component meta found, or Null at the world root.
func ResolveFromNode(g scene.Graph, node scene.NodeID) scene.NodeID {
	if IsComponentMeta(g, node) {
		return node
	}
	for n := node; !scene.IsNull(n); n = g.Parent(n) {
		if m := IsComponentRoot(g, n); !scene.IsNull(m) {
			return m
		}
	}
	return scene.Null
}
