// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

//nolint:gocritic // captLocal: L is the idiomatic name for lua.LState
package hostfunc

import (
	"sort"

	lua "github.com/yuin/gopher-lua"
)

// ToGo converts a Lua value to a Go value. Tables with array keys become
// []any, other tables map[string]any, numbers float64.
func ToGo(v lua.LValue) any {
	switch val := v.(type) {
	case lua.LString:
		return string(val)
	case lua.LNumber:
		return float64(val)
	case lua.LBool:
		return bool(val)
	case *lua.LTable:
		if val.MaxN() > 0 {
			out := make([]any, 0, val.MaxN())
			for i := 1; i <= val.MaxN(); i++ {
				out = append(out, ToGo(val.RawGetInt(i)))
			}
			return out
		}
		out := make(map[string]any)
		val.ForEach(func(k, v lua.LValue) {
			out[k.String()] = ToGo(v)
		})
		return out
	case *lua.LNilType:
		return nil
	default:
		return v.String()
	}
}

// ToMap converts a Lua table to a map. Non-table values yield an empty map.
func ToMap(v lua.LValue) map[string]any {
	out := make(map[string]any)
	t, ok := v.(*lua.LTable)
	if !ok {
		return out
	}
	t.ForEach(func(k, v lua.LValue) {
		out[k.String()] = ToGo(v)
	})
	return out
}

// ToLua converts a Go value to a Lua value. Unsupported types become nil.
func ToLua(L *lua.LState, v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case string:
		return lua.LString(val)
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float32:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case []any:
		t := L.CreateTable(len(val), 0)
		for _, e := range val {
			t.Append(ToLua(L, e))
		}
		return t
	case []string:
		t := L.CreateTable(len(val), 0)
		for _, e := range val {
			t.Append(lua.LString(e))
		}
		return t
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		t := L.CreateTable(0, len(val))
		for _, k := range keys {
			t.RawSetString(k, ToLua(L, val[k]))
		}
		return t
	default:
		return lua.LNil
	}
}
