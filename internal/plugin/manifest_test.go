// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package plugin_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrig/crab/internal/plugin"
	"github.com/crabrig/crab/pkg/errutil"
)

func TestParseManifest_LuaComponent(t *testing.T) {
	yaml := `
name: Tail
version: 1.2.0
kind: component
runtime: lua
description: A chain of joints
capabilities:
  - scene.*
  - meta.write
lua-plugin:
  entry: main.lua
`
	m, err := plugin.ParseManifest([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, "Tail", m.Name)
	assert.Equal(t, "1.2.0", m.Version)
	assert.Equal(t, plugin.KindComponent, m.Kind)
	assert.Equal(t, plugin.RuntimeLua, m.Runtime)
	assert.Equal(t, "A chain of joints", m.Description)
	assert.Equal(t, []string{"scene.*", "meta.write"}, m.Capabilities)
	require.NotNil(t, m.LuaPlugin)
	assert.Equal(t, "main.lua", m.LuaPlugin.Entry)
}

func TestParseManifest_GoProcess(t *testing.T) {
	yaml := `
name: ShapeInfo
version: 1.0.0
kind: process
runtime: go
go-plugin:
  symbol: ShapeInfo
`
	m, err := plugin.ParseManifest([]byte(yaml))
	require.NoError(t, err)

	assert.Equal(t, plugin.KindProcess, m.Kind)
	require.NotNil(t, m.GoPlugin)
	assert.Equal(t, "ShapeInfo", m.GoPlugin.Symbol)
}

func TestParseManifest_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty",
			yaml:    "",
			wantErr: "empty",
		},
		{
			name:    "invalid yaml",
			yaml:    "name: [",
			wantErr: "invalid YAML",
		},
		{
			name: "missing name",
			yaml: `
version: 1.0.0
kind: component
runtime: lua
lua-plugin:
  entry: main.lua
`,
			wantErr: "name",
		},
		{
			name: "name starting with digit",
			yaml: `
name: 1arm
version: 1.0.0
kind: component
runtime: lua
lua-plugin:
  entry: main.lua
`,
			wantErr: "must start with a letter",
		},
		{
			name: "name with underscore",
			yaml: `
name: my_arm
version: 1.0.0
kind: component
runtime: lua
lua-plugin:
  entry: main.lua
`,
			wantErr: "must start with a letter",
		},
		{
			name: "missing version",
			yaml: `
name: Arm
kind: component
runtime: lua
lua-plugin:
  entry: main.lua
`,
			wantErr: "version is required",
		},
		{
			name: "version not semver",
			yaml: `
name: Arm
version: one
kind: component
runtime: lua
lua-plugin:
  entry: main.lua
`,
			wantErr: "version",
		},
		{
			name: "unknown kind",
			yaml: `
name: Arm
version: 1.0.0
kind: widget
runtime: lua
lua-plugin:
  entry: main.lua
`,
			wantErr: "kind must be",
		},
		{
			name: "unknown runtime",
			yaml: `
name: Arm
version: 1.0.0
kind: component
runtime: python
`,
			wantErr: "runtime must be",
		},
		{
			name: "lua without entry",
			yaml: `
name: Arm
version: 1.0.0
kind: component
runtime: lua
`,
			wantErr: "lua-plugin.entry is required",
		},
		{
			name: "go without symbol",
			yaml: `
name: Arm
version: 1.0.0
kind: component
runtime: go
go-plugin:
  symbol: ""
`,
			wantErr: "go-plugin.symbol is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := plugin.ParseManifest([]byte(tt.yaml))
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, "INVALID_MANIFEST")
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestManifest_NameLength(t *testing.T) {
	m := &plugin.Manifest{
		Name:      "a" + strings.Repeat("b", 63),
		Version:   "1.0.0",
		Kind:      plugin.KindBehaviour,
		Runtime:   plugin.RuntimeLua,
		LuaPlugin: &plugin.LuaConfig{Entry: "main.lua"},
	}
	require.NoError(t, m.Validate())

	m.Name += "c"
	err := m.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "64 characters or less")
	errutil.AssertErrorContext(t, err, "field", "Manifest.Name")
}

func TestManifest_AllKindsValid(t *testing.T) {
	for _, kind := range []plugin.Kind{plugin.KindComponent, plugin.KindBehaviour, plugin.KindProcess, plugin.KindTool} {
		t.Run(string(kind), func(t *testing.T) {
			m := &plugin.Manifest{
				Name:     "Thing",
				Version:  "0.1.0",
				Kind:     kind,
				Runtime:  plugin.RuntimeGo,
				GoPlugin: &plugin.GoConfig{Symbol: "Thing"},
			}
			assert.NoError(t, m.Validate())
		})
	}
}
