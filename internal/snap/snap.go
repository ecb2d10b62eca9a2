// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package snap stores offset records between pairs of nodes and matches
// one node onto another through them. Records live in the scene, so a
// match keeps working after the rig is edited and rebuilt.
package snap

import (
	"slices"

	"cogentcore.org/core/math32"
	"github.com/samber/oops"

	"github.com/crabrig/crab/internal/naming"
	"github.com/crabrig/crab/internal/scene"
)

// Snap record attributes.
const (
	AttrMarker = "crab_snap"
	AttrLabel  = "snap_label"
	AttrOffset = "offset"
	AttrSource = "source"
	AttrTarget = "target"
)

// ErrNotFound is the code returned when no record carries a label.
const ErrNotFound = "SNAP_NOT_FOUND"

// Record is one stored offset.
type Record struct {
	Node   scene.NodeID
	Label  string
	Source scene.NodeID
	Target scene.NodeID
	Offset math32.Matrix4
}

// Create stores the current offset of target relative to source under
// label. Several records may share a label; Match applies all of them.
func Create(g scene.Graph, label string, source, target scene.NodeID) (scene.NodeID, error) {
	if label == "" {
		return scene.Null, oops.In("snap").Code("INVALID_LABEL").Errorf("snap label cannot be empty")
	}
	if !g.Exists(source) || !g.Exists(target) {
		return scene.Null, oops.In("snap").Code("NODE_NOT_FOUND").
			With("source", source.String()).
			With("target", target.String()).
			Errorf("snap source and target must exist")
	}
	offset, err := Offset(g, source, target)
	if err != nil {
		return scene.Null, err
	}

	name := naming.MakeName(g, naming.Snap, label, side(g, target), 1)
	n, err := g.CreateNode(scene.TypeNetwork, name, scene.Null)
	if err != nil {
		return scene.Null, oops.In("snap").With("label", label).Wrap(err)
	}
	for _, spec := range []scene.AttrSpec{
		{Name: AttrMarker, Kind: scene.KindBool},
		{Name: AttrLabel, Kind: scene.KindString},
		{Name: AttrOffset, Kind: scene.KindMatrix},
		{Name: AttrSource, Kind: scene.KindMessage},
		{Name: AttrTarget, Kind: scene.KindMessage},
	} {
		if err := g.AddAttr(n, spec); err != nil {
			return scene.Null, err
		}
	}
	if err := g.SetAttr(n, AttrMarker, true); err != nil {
		return scene.Null, err
	}
	if err := g.SetAttr(n, AttrLabel, label); err != nil {
		return scene.Null, err
	}
	if err := g.SetAttr(n, AttrOffset, offset); err != nil {
		return scene.Null, err
	}
	if err := g.Connect(source, scene.Plug{Node: n, Attr: AttrSource}); err != nil {
		return scene.Null, err
	}
	if err := g.Connect(target, scene.Plug{Node: n, Attr: AttrTarget}); err != nil {
		return scene.Null, err
	}
	return n, nil
}

// Offset returns the matrix that carries source's world matrix onto
// target's: target = source * offset.
func Offset(g scene.Graph, source, target scene.NodeID) (math32.Matrix4, error) {
	sw := scene.WorldMatrix(g, source)
	inv, err := sw.Inverse()
	if err != nil {
		return math32.Matrix4{}, oops.In("snap").With("source", g.Name(source)).Wrap(err)
	}
	tw := scene.WorldMatrix(g, target)
	return *inv.Mul(&tw), nil
}

// All returns every snap record in creation order.
func All(g scene.Graph) []scene.NodeID {
	ids, err := g.Ls(naming.Snap + "_*")
	if err != nil {
		return nil
	}
	return slices.DeleteFunc(ids, func(id scene.NodeID) bool { return !scene.Bool(g, id, AttrMarker) })
}

// Find returns the records carrying label.
func Find(g scene.Graph, label string) []Record {
	var out []Record
	for _, n := range All(g) {
		if scene.String(g, n, AttrLabel) != label {
			continue
		}
		rec, ok := read(g, n)
		if ok {
			out = append(out, rec)
		}
	}
	return out
}

// Labels returns the distinct labels, sorted.
func Labels(g scene.Graph) []string {
	var out []string
	for _, n := range All(g) {
		if l := scene.String(g, n, AttrLabel); !slices.Contains(out, l) {
			out = append(out, l)
		}
	}
	slices.Sort(out)
	return out
}

// Match moves the target of every record with label onto its source times
// the stored offset. It returns the targets moved.
func Match(g scene.Graph, label string) ([]scene.NodeID, error) {
	records := Find(g, label)
	if len(records) == 0 {
		return nil, oops.In("snap").Code(ErrNotFound).With("label", label).Errorf("no snap records for label")
	}
	moved := make([]scene.NodeID, 0, len(records))
	for _, rec := range records {
		sw := scene.WorldMatrix(g, rec.Source)
		world := *sw.Mul(&rec.Offset)
		if err := scene.SetWorldMatrix(g, rec.Target, world); err != nil {
			return moved, oops.In("snap").With("label", label).With("target", g.Name(rec.Target)).Wrap(err)
		}
		moved = append(moved, rec.Target)
	}
	return moved, nil
}

// Delete removes every record carrying label.
func Delete(g scene.Graph, label string) error {
	for _, rec := range Find(g, label) {
		if err := g.Delete(rec.Node); err != nil {
			return err
		}
	}
	return nil
}

func read(g scene.Graph, n scene.NodeID) (Record, bool) {
	rec := Record{
		Node:   n,
		Label:  scene.String(g, n, AttrLabel),
		Source: scene.Input(g, n, AttrSource),
		Target: scene.Input(g, n, AttrTarget),
	}
	if scene.IsNull(rec.Source) || scene.IsNull(rec.Target) {
		return Record{}, false
	}
	v, err := g.GetAttr(n, AttrOffset)
	if err != nil {
		return Record{}, false
	}
	rec.Offset, _ = v.(math32.Matrix4)
	return rec, true
}

func side(g scene.Graph, n scene.NodeID) string {
	if s := naming.Side(g.Name(n)); slices.Contains(naming.Sides, s) {
		return s
	}
	return naming.Middle
}
