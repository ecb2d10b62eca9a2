// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package process

import (
	"context"

	"cogentcore.org/core/math32"

	"github.com/crabrig/crab/internal/meta"
	"github.com/crabrig/crab/internal/naming"
	"github.com/crabrig/crab/internal/scene"
)

// ColourIdentifier names the colour assignment process.
const ColourIdentifier = "Colour"

// AttrWireColour is the vector attribute holding a curve's wireframe colour.
const AttrWireColour = "wire_colour"

// DefaultPalette maps sides to control colours.
var DefaultPalette = map[string]math32.Vector3{
	naming.Left:   {X: 0, Y: 0.4, Z: 1},
	naming.Right:  {X: 1, Y: 0.1, Z: 0.1},
	naming.Middle: {X: 1, Y: 0.85, Z: 0},
	naming.Front:  {X: 0.2, Y: 0.9, Z: 0.2},
	naming.Back:   {X: 0.6, Y: 0.2, Z: 0.9},
	naming.Top:    {X: 0.2, Y: 0.9, Z: 0.9},
	naming.Bottom: {X: 1, Y: 0.5, Z: 0},
}

// Colour colours every control by the side in its name.
type Colour struct {
	Hooks
	// Palette overrides DefaultPalette when set.
	Palette map[string]math32.Vector3
}

// Identifier returns "Colour".
func (Colour) Identifier() string { return ColourIdentifier }

// Version returns the process version.
func (Colour) Version() string { return "1.0.0" }

// PostBuild sets the outliner colour of each control and the wireframe
// colour of its curves. Controls with an unknown side are left alone.
func (c Colour) PostBuild(_ context.Context, r Rig) error {
	palette := c.Palette
	if palette == nil {
		palette = DefaultPalette
	}
	g := r.Graph()
	for _, ctl := range Controls(r) {
		col, ok := palette[naming.Side(g.Name(ctl))]
		if !ok {
			continue
		}
		if err := meta.SetOutlinerColour(g, ctl, col); err != nil {
			return err
		}
		for _, shape := range scene.CurveShapes(g, ctl) {
			if err := scene.EnsureAttr(g, shape, scene.AttrSpec{Name: AttrWireColour, Kind: scene.KindVector}); err != nil {
				return err
			}
			if err := g.SetAttr(shape, AttrWireColour, col); err != nil {
				return err
			}
		}
	}
	return nil
}
