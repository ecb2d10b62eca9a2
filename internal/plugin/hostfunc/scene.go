// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

//nolint:gocritic // captLocal: L is the idiomatic name for lua.LState
package hostfunc

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/crabrig/crab/internal/meta"
	"github.com/crabrig/crab/internal/naming"
	"github.com/crabrig/crab/internal/scene"
)

func existsFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(lua.LBool(g.Exists(checkID(L, 1))))
		return 1
	}
}

func nameFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		id := checkID(L, 1)
		if !g.Exists(id) {
			return pushError(L, "node not found")
		}
		return pushSuccess(L, lua.LString(g.Name(id)))
	}
}

func typeFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		id := checkID(L, 1)
		if !g.Exists(id) {
			return pushError(L, "node not found")
		}
		return pushSuccess(L, lua.LString(string(g.Type(id))))
	}
}

func parentFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(IDValue(g.Parent(checkID(L, 1))))
		return 1
	}
}

func childrenFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(IDList(L, g.Children(checkID(L, 1))))
		return 1
	}
}

func findNodeFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		id, ok := scene.FindByName(g, L.CheckString(1))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(IDValue(id))
		return 1
	}
}

func getAttrFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		id := checkID(L, 1)
		attr := L.CheckString(2)
		v, err := g.GetAttr(id, attr)
		if err != nil {
			return pushError(L, err.Error())
		}
		switch val := v.(type) {
		case float64, int, bool, string:
			return pushSuccess(L, ToLua(L, val))
		default:
			return pushError(L, "attribute "+attr+" cannot be read from lua")
		}
	}
}

func inputsFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		L.Push(IDList(L, g.Inputs(checkID(L, 1), L.CheckString(2))))
		return 1
	}
}

func worldPositionFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		p := scene.WorldPosition(g, checkID(L, 1))
		L.Push(lua.LNumber(p[0]))
		L.Push(lua.LNumber(p[1]))
		L.Push(lua.LNumber(p[2]))
		return 3
	}
}

func makeNameFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		prefix := L.CheckString(1)
		description := L.CheckString(2)
		side := L.OptString(3, naming.Middle)
		counter := L.OptInt(4, 1)
		L.Push(lua.LString(naming.MakeName(g, prefix, description, side, counter)))
		return 1
	}
}

func findFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		label := L.CheckString(1)
		m := checkID(L, 2)
		L.Push(IDList(L, meta.Find(g, label, m)))
		return 1
	}
}

func findFirstFn(g scene.Graph) lua.LGFunction {
	return func(L *lua.LState) int {
		label := L.CheckString(1)
		m := checkID(L, 2)
		L.Push(IDValue(meta.FindFirst(g, label, m)))
		return 1
	}
}
