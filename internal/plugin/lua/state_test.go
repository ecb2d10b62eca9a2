// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package lua_test

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	pluginlua "github.com/crabrig/crab/internal/plugin/lua"
)

func newSandbox(t *testing.T) *lua.LState {
	t.Helper()
	L, err := pluginlua.NewStateFactory().NewState(context.Background())
	require.NoError(t, err)
	t.Cleanup(L.Close)
	return L
}

func TestStateFactory_LoadsSafeLibraries(t *testing.T) {
	L := newSandbox(t)
	for _, lib := range []string{"table", "string", "math"} {
		assert.NotEqual(t, lua.LTNil, L.GetGlobal(lib).Type(), "library %q not loaded", lib)
	}
}

func TestStateFactory_BlocksUnsafeGlobals(t *testing.T) {
	L := newSandbox(t)
	for _, name := range []string{"os", "io", "debug", "package", "dofile", "loadfile", "loadstring", "load", "require"} {
		assert.Equal(t, lua.LTNil, L.GetGlobal(name).Type(), "%q should not be available", name)
	}
}

func TestStateFactory_RunsScripts(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{"arithmetic", `result = 1 + 1`, "2"},
		{"string library", `result = string.upper("hello")`, "HELLO"},
		{"table library", `t = {3, 1, 2}; table.sort(t); result = t[1]`, "1"},
		{"math library", `result = math.abs(-42)`, "42"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			L := newSandbox(t)
			require.NoError(t, L.DoString(tt.code))
			assert.Equal(t, tt.want, L.GetGlobal("result").String())
		})
	}
}

func TestStateFactory_StatesAreIndependent(t *testing.T) {
	L1 := newSandbox(t)
	L2 := newSandbox(t)

	require.NoError(t, L1.DoString(`shared = "one"`))
	assert.Equal(t, lua.LTNil, L2.GetGlobal("shared").Type())
}

func TestStateFactory_CancelledContextStopsScript(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	L, err := pluginlua.NewStateFactory().NewState(ctx)
	require.NoError(t, err)
	defer L.Close()

	cancel()
	require.Error(t, L.DoString(`while true do end`))
}

func TestStateFactory_PrintGoesToLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	L, err := pluginlua.NewStateFactory(pluginlua.WithPrintLogger(logger)).NewState(context.Background())
	require.NoError(t, err)
	defer L.Close()

	require.NoError(t, L.DoString(`print("joints", 3)`))
	assert.Contains(t, buf.String(), `msg="joints\t3"`)
}

func TestStateFactory_CallStackLimit(t *testing.T) {
	L, err := pluginlua.NewStateFactory(pluginlua.WithCallStackSize(16)).NewState(context.Background())
	require.NoError(t, err)
	defer L.Close()

	err = L.DoString(`
local function deep(n) return deep(n + 1) + 1 end
deep(0)`)
	require.Error(t, err)
}
