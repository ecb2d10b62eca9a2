// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package process

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/samber/oops"

	"github.com/crabrig/crab/internal/scene"
)

// AttrShapeInfo is the string attribute on the rig root holding the stored
// control shapes.
const AttrShapeInfo = "shape_info"

// ShapeInfoIdentifier names the shape persistence process.
const ShapeInfoIdentifier = "ShapeInfo"

// shapePrecision is the number of decimals cvs and knots are stored with.
const shapePrecision = 5

// ShapeRecord is the stored curve data of one control.
type ShapeRecord struct {
	Node   string        `json:"node"`
	Curves []scene.Curve `json:"curves"`
}

// ShapeInfo keeps animator edits to control shapes across rebuilds. Snapshot
// stores every control's curves on the rig root; PostBuild puts them back on
// the rebuilt controls of the same name.
type ShapeInfo struct {
	Hooks
}

// Identifier returns "ShapeInfo".
func (ShapeInfo) Identifier() string { return ShapeInfoIdentifier }

// Version returns the process version.
func (ShapeInfo) Version() string { return "1.0.0" }

// Snapshot writes the curves of every control to the rig root. Controls
// left behind by an unfinished build never had their shapes restored, so on
// an unclean rig, or one without controls, the stored shapes are kept.
func (ShapeInfo) Snapshot(_ context.Context, r Rig) error {
	controls := Controls(r)
	if !r.IsClean() || len(controls) == 0 {
		logger(ShapeInfoIdentifier, r).Debug("keeping stored shapes", "clean", r.IsClean(), "controls", len(controls))
		return nil
	}
	records, err := ReadShapes(r.Graph(), controls)
	if err != nil {
		return err
	}
	data, err := json.Marshal(records)
	if err != nil {
		return oops.In("process").With("process", ShapeInfoIdentifier).Wrap(err)
	}
	return ensureString(r.Graph(), r.Node(), AttrShapeInfo, string(data))
}

// PostBuild replaces the curves of every stored control. Controls that no
// longer exist are skipped.
func (ShapeInfo) PostBuild(_ context.Context, r Rig) error {
	g := r.Graph()
	data := scene.String(g, r.Node(), AttrShapeInfo)
	if data == "" {
		return nil
	}
	var records []ShapeRecord
	if err := json.Unmarshal([]byte(data), &records); err != nil {
		return oops.In("process").With("process", ShapeInfoIdentifier).Code("PROCESS_FAILED").Wrap(err)
	}
	log := logger(ShapeInfoIdentifier, r)
	for _, rec := range records {
		node, ok := scene.FindByName(g, rec.Node)
		if !ok {
			log.Warn("control no longer exists, shape not restored", "node", rec.Node)
			continue
		}
		if err := ApplyShapes(g, node, rec.Curves); err != nil {
			return err
		}
	}
	return nil
}

// ReadShapes reads the curve shapes of each node.
func ReadShapes(g scene.Graph, nodes []scene.NodeID) ([]ShapeRecord, error) {
	out := make([]ShapeRecord, 0, len(nodes))
	for _, n := range nodes {
		rec := ShapeRecord{Node: g.Name(n), Curves: []scene.Curve{}}
		for _, shape := range scene.CurveShapes(g, n) {
			c, err := scene.ReadCurve(g, shape)
			if err != nil {
				return nil, err
			}
			rec.Curves = append(rec.Curves, roundCurve(c))
		}
		out = append(out, rec)
	}
	return out, nil
}

// ApplyShapes deletes the curve shapes of node and creates curves in their
// place. Applying the same curves twice yields the same shapes.
func ApplyShapes(g scene.Graph, node scene.NodeID, curves []scene.Curve) error {
	for _, shape := range scene.CurveShapes(g, node) {
		if err := g.Delete(shape); err != nil {
			return oops.In("process").With("node", g.Name(node)).Wrap(err)
		}
	}
	name := g.Name(node)
	for i, c := range curves {
		shapeName := name + "Shape"
		if i > 0 {
			shapeName = fmt.Sprintf("%sShape%d", name, i)
		}
		if _, err := scene.CreateCurve(g, shapeName, node, c); err != nil {
			return oops.In("process").With("node", name).Wrap(err)
		}
	}
	return nil
}

func roundCurve(c scene.Curve) scene.Curve {
	out := scene.Curve{
		CVs:    make([]scene.Point, len(c.CVs)),
		Degree: c.Degree,
		Knots:  make([]float64, len(c.Knots)),
		Form:   c.Form,
	}
	for i, p := range c.CVs {
		out.CVs[i] = scene.Point{round(p[0]), round(p[1]), round(p[2])}
	}
	for i, k := range c.Knots {
		out.Knots[i] = round(k)
	}
	return out
}

func round(v float64) float64 {
	scale := math.Pow10(shapePrecision)
	return math.Round(v*scale) / scale
}
