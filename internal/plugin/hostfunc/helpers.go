// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

//nolint:gocritic // captLocal: L is the idiomatic name for lua.LState
package hostfunc

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/crabrig/crab/internal/scene"
)

// pushError pushes nil followed by an error string and returns 2.
func pushError(L *lua.LState, errMsg string) int {
	L.Push(lua.LNil)
	L.Push(lua.LString(errMsg))
	return 2
}

// pushSuccess pushes a value followed by nil and returns 2.
func pushSuccess(L *lua.LState, value lua.LValue) int {
	L.Push(value)
	L.Push(lua.LNil)
	return 2
}

// pushResult pushes err's message, or nothing, for functions without a value.
func pushResult(L *lua.LState, err error) int {
	if err != nil {
		L.Push(lua.LString(err.Error()))
		return 1
	}
	return 0
}

// checkID reads argument n as a node id. Invalid ids raise an argument error.
func checkID(L *lua.LState, n int) scene.NodeID {
	s := L.CheckString(n)
	id, err := scene.ParseNodeID(s)
	if err != nil {
		L.ArgError(n, fmt.Sprintf("invalid node id %q", s))
	}
	return id
}

// optID reads optional argument n as a node id, Null when absent or empty.
func optID(L *lua.LState, n int) scene.NodeID {
	if L.Get(n) == lua.LNil || L.OptString(n, "") == "" {
		return scene.Null
	}
	return checkID(L, n)
}

// IDValue returns id as a Lua value; Null maps to nil.
func IDValue(id scene.NodeID) lua.LValue {
	if scene.IsNull(id) {
		return lua.LNil
	}
	return lua.LString(id.String())
}

// IDList returns ids as a Lua array of id strings.
func IDList(L *lua.LState, ids []scene.NodeID) *lua.LTable {
	t := L.CreateTable(len(ids), 0)
	for _, id := range ids {
		t.Append(lua.LString(id.String()))
	}
	return t
}
