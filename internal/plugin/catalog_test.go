// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package plugin_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrig/crab/internal/plugin"
	"github.com/crabrig/crab/pkg/errutil"
)

func TestCatalog(t *testing.T) {
	c := plugin.NewCatalog[string]()
	c.Add("Singular", "v1")
	c.Add("Constrain", "c1")
	c.Add("Singular", "v2")

	got, ok := c.Lookup("Singular")
	require.True(t, ok)
	assert.Equal(t, "v2", got)

	_, ok = c.Lookup("Missing")
	assert.False(t, ok)
	assert.Equal(t, []string{"Constrain", "Singular"}, c.Symbols())
}

func TestCatalog_Importer(t *testing.T) {
	c := plugin.NewCatalog[string]()
	c.Add("Singular", "singular")
	importer := c.Importer()

	got, err := importer(&plugin.Manifest{Name: "Singular", Runtime: plugin.RuntimeGo, GoPlugin: &plugin.GoConfig{Symbol: "Singular"}}, "")
	require.NoError(t, err)
	assert.Equal(t, "singular", got)

	_, err = importer(&plugin.Manifest{Name: "Ghost", Runtime: plugin.RuntimeGo, GoPlugin: &plugin.GoConfig{Symbol: "Ghost"}}, "")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "PLUGIN_LOAD_FAILED")

	_, err = importer(&plugin.Manifest{Name: "Tail", Runtime: plugin.RuntimeLua, LuaPlugin: &plugin.LuaConfig{Entry: "main.lua"}}, "")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "PLUGIN_LOAD_FAILED")
}

func TestEnvPaths(t *testing.T) {
	t.Setenv(plugin.EnvPathsVar, "/a;;/b")
	paths, err := plugin.EnvPaths()
	require.NoError(t, err)
	assert.Equal(t, []string{"/a", "/b"}, paths)
}

func TestEnvPaths_Unset(t *testing.T) {
	t.Setenv(plugin.EnvPathsVar, "")
	paths, err := plugin.EnvPaths()
	require.NoError(t, err)
	assert.Empty(t, paths)
}
