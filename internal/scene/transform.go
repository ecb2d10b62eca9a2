// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package scene

import (
	"cogentcore.org/core/math32"
)

// Translation returns a matrix translating by (x, y, z).
// Matrices are column-major; the translation lives in elements 12..14.
func Translation(x, y, z float32) math32.Matrix4 {
	m := Identity()
	m[12], m[13], m[14] = x, y, z
	return m
}

// LocalMatrix returns the node's local matrix, or identity if it has none.
func LocalMatrix(g Graph, id NodeID) math32.Matrix4 {
	v, err := g.GetAttr(id, AttrMatrix)
	if err != nil {
		return Identity()
	}
	if m, ok := v.(math32.Matrix4); ok {
		return m
	}
	return Identity()
}

// WorldMatrix composes local matrices from the world root down to id.
func WorldMatrix(g Graph, id NodeID) math32.Matrix4 {
	chain := []NodeID{id}
	for p := g.Parent(id); !IsNull(p); p = g.Parent(p) {
		chain = append(chain, p)
	}
	world := Identity()
	for i := len(chain) - 1; i >= 0; i-- {
		local := LocalMatrix(g, chain[i])
		world = *world.Mul(&local)
	}
	return world
}

// SetWorldMatrix writes id's local matrix so that its world matrix equals world.
func SetWorldMatrix(g Graph, id NodeID, world math32.Matrix4) error {
	local := world
	if p := g.Parent(id); !IsNull(p) {
		parentWorld := WorldMatrix(g, p)
		inv, err := parentWorld.Inverse()
		if err != nil {
			return err
		}
		local = *inv.Mul(&world)
	}
	return g.SetAttr(id, AttrMatrix, local)
}

// WorldPosition returns the translation of id's world matrix.
func WorldPosition(g Graph, id NodeID) Point {
	w := WorldMatrix(g, id)
	return Point{float64(w[12]), float64(w[13]), float64(w[14])}
}

// TransformPoint applies m to p in double precision.
func TransformPoint(m math32.Matrix4, p Point) Point {
	var out Point
	for r := 0; r < 3; r++ {
		out[r] = float64(m[r])*p[0] + float64(m[4+r])*p[1] + float64(m[8+r])*p[2] + float64(m[12+r])
	}
	return out
}
