// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

//nolint:gocritic // captLocal: L is the idiomatic name for lua.LState
package hostfunc

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/crabrig/crab/internal/meta"
	"github.com/crabrig/crab/internal/scene"
)

var attrKinds = map[string]scene.AttrKind{
	"float":   scene.KindFloat,
	"int":     scene.KindInt,
	"bool":    scene.KindBool,
	"string":  scene.KindString,
	"message": scene.KindMessage,
}

var constraintKinds = map[string]scene.ConstraintKind{
	"parent":      scene.ConstraintParent,
	"point":       scene.ConstraintPoint,
	"aim":         scene.ConstraintAim,
	"scale":       scene.ConstraintScale,
	"pole_vector": scene.ConstraintPoleVector,
}

func createNodeFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		typ := scene.NodeType(L.CheckString(1))
		name := L.CheckString(2)
		parent := optID(L, 3)
		id, err := g.CreateNode(typ, name, parent)
		if err != nil {
			return pushError(L, err.Error())
		}
		return pushSuccess(L, IDValue(id))
	}
}

// create_control(name, parent, radius) makes a transform with a circle shape.
func createControlFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		name := L.CheckString(1)
		parent := optID(L, 2)
		radius := float64(L.OptNumber(3, 1))
		id, err := g.CreateNode(scene.TypeTransform, name, parent)
		if err != nil {
			return pushError(L, err.Error())
		}
		if _, err := scene.CreateCurve(g, name+"Shape", id, scene.CircleCurve(radius)); err != nil {
			return pushError(L, err.Error())
		}
		return pushSuccess(L, IDValue(id))
	}
}

func deleteFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		return pushResult(L, g.Delete(checkID(L, 1)))
	}
}

func renameFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		return pushResult(L, g.Rename(checkID(L, 1), L.CheckString(2)))
	}
}

func setParentFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		return pushResult(L, g.SetParent(checkID(L, 1), optID(L, 2)))
	}
}

func addAttrFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		id := checkID(L, 1)
		name := L.CheckString(2)
		kindName := L.CheckString(3)
		kind, ok := attrKinds[kindName]
		if !ok {
			L.ArgError(3, "unknown attribute kind "+kindName)
			return 0
		}
		return pushResult(L, g.AddAttr(id, scene.AttrSpec{Name: name, Kind: kind, Multi: L.OptBool(4, false)}))
	}
}

func setAttrFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		id := checkID(L, 1)
		attr := L.CheckString(2)
		return pushResult(L, g.SetAttr(id, attr, ToGo(L.CheckAny(3))))
	}
}

// connect(src, dst, attr[, index]); index defaults to the next free element.
func connectFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		src := checkID(L, 1)
		dst := checkID(L, 2)
		attr := L.CheckString(3)
		index := L.OptInt(4, g.NextIndex(dst, attr))
		return pushResult(L, g.Connect(src, scene.Plug{Node: dst, Attr: attr, Index: index}))
	}
}

func setTranslationFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		id := checkID(L, 1)
		m := scene.LocalMatrix(g, id)
		m[12] = float32(L.CheckNumber(2))
		m[13] = float32(L.CheckNumber(3))
		m[14] = float32(L.CheckNumber(4))
		return pushResult(L, g.SetAttr(id, scene.AttrMatrix, m))
	}
}

func setWorldPositionFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		id := checkID(L, 1)
		w := scene.WorldMatrix(g, id)
		w[12] = float32(L.CheckNumber(2))
		w[13] = float32(L.CheckNumber(3))
		w[14] = float32(L.CheckNumber(4))
		return pushResult(L, scene.SetWorldMatrix(g, id, w))
	}
}

func tagFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		target := checkID(L, 1)
		label := L.CheckString(2)
		m := checkID(L, 3)
		return pushResult(L, meta.Tag(g, target, label, m))
	}
}

// constrain(kind, drivers, driven[, maintain_offset]); drivers is an id or a
// list of ids.
func constrainFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		kindName := L.CheckString(1)
		kind, ok := constraintKinds[kindName]
		if !ok {
			L.ArgError(1, "unknown constraint kind "+kindName)
			return 0
		}
		var drivers []scene.NodeID
		switch v := L.CheckAny(2).(type) {
		case *lua.LTable:
			for i := 1; i <= v.MaxN(); i++ {
				id, err := scene.ParseNodeID(v.RawGetInt(i).String())
				if err != nil {
					L.ArgError(2, "invalid driver id")
					return 0
				}
				drivers = append(drivers, id)
			}
		default:
			drivers = append(drivers, checkID(L, 2))
		}
		driven := checkID(L, 3)
		id, err := g.CreateConstraint(kind, drivers, driven, L.OptBool(4, true))
		if err != nil {
			return pushError(L, err.Error())
		}
		return pushSuccess(L, IDValue(id))
	}
}
