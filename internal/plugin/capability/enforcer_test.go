// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package capability_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrig/crab/internal/plugin/capability"
	"github.com/crabrig/crab/pkg/errutil"
)

func TestEnforcer_Check(t *testing.T) {
	tests := []struct {
		name       string
		grants     []string
		capability string
		want       bool
	}{
		{"exact match", []string{"scene.read"}, "scene.read", true},
		{"single segment wildcard", []string{"scene.*"}, "scene.write", true},
		{"single segment does not cross dots", []string{"*"}, "scene.write", false},
		{"super wildcard", []string{"**"}, "constraint.create", true},
		{"no match", []string{"scene.read"}, "scene.write", false},
		{"empty grants", []string{}, "scene.read", false},
		{"partial match not allowed", []string{"scene"}, "scene.read", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := capability.NewEnforcer()
			require.NoError(t, e.SetGrants("arm", tt.grants))
			assert.Equal(t, tt.want, e.Check("arm", tt.capability))
		})
	}
}

func TestEnforcer_UnknownPluginDenied(t *testing.T) {
	var e capability.Enforcer
	assert.False(t, e.Check("unknown", capability.SceneRead))
	assert.Nil(t, e.Grants("unknown"))
}

func TestEnforcer_SetGrants_InvalidPatternIsAtomic(t *testing.T) {
	e := capability.NewEnforcer()
	require.NoError(t, e.SetGrants("arm", []string{capability.SceneRead}))

	err := e.SetGrants("arm", []string{capability.SceneWrite, ""})
	errutil.AssertErrorCode(t, err, "INVALID_CAPABILITY")
	errutil.AssertErrorContext(t, err, "plugin", "arm")
	assert.Equal(t, []string{capability.SceneRead}, e.Grants("arm"))

	require.Error(t, e.SetGrants("", []string{"**"}))
}

func TestEnforcer_Effective(t *testing.T) {
	e := capability.NewEnforcer()
	require.NoError(t, e.SetGrants("arm", []string{"scene.*"}))
	require.NoError(t, e.SetGrants("leg", []string{"**"}))
	require.NoError(t, e.SetGrants("typo", []string{"scene.reed"}))

	assert.Equal(t, []string{capability.SceneRead, capability.SceneWrite}, e.Effective("arm"))
	assert.Equal(t, capability.Known, e.Effective("leg"))
	assert.Empty(t, e.Effective("typo"))

	assert.Empty(t, e.Unmatched("arm"))
	assert.Equal(t, []string{"scene.reed"}, e.Unmatched("typo"))
}

func TestEnforcer_RemoveGrants(t *testing.T) {
	e := capability.NewEnforcer()
	require.NoError(t, e.SetGrants("arm", []string{"**"}))
	require.NoError(t, e.SetGrants("leg", []string{"scene.*"}))
	assert.Equal(t, []string{"arm", "leg"}, e.Plugins())

	e.RemoveGrants("arm")
	assert.False(t, e.Check("arm", capability.SceneRead))
	assert.Equal(t, []string{"leg"}, e.Plugins())
}

func TestEnforcer_Require(t *testing.T) {
	e := capability.NewEnforcer()
	require.NoError(t, e.SetGrants("arm", []string{capability.SceneRead}))

	require.NoError(t, e.Require("arm", capability.SceneRead))
	err := e.Require("arm", capability.MetaWrite)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "CAPABILITY_DENIED")
}
