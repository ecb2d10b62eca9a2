// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package naming_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrig/crab/internal/naming"
	"github.com/crabrig/crab/internal/scene"
)

func TestMakeName_StableUntilCreated(t *testing.T) {
	g := scene.NewMemory()

	first := naming.MakeName(g, naming.Control, "Arm", naming.Left, 1)
	again := naming.MakeName(g, naming.Control, "Arm", naming.Left, 1)
	assert.Equal(t, "CTL_Arm_1_LF", first)
	assert.Equal(t, first, again)

	_, err := g.CreateNode(scene.TypeTransform, first, scene.Null)
	require.NoError(t, err)

	next := naming.MakeName(g, naming.Control, "Arm", naming.Left, 1)
	assert.Equal(t, "CTL_Arm_2_LF", next)
	assert.Greater(t, naming.Counter(next), naming.Counter(first))
}

func TestMake_ExplicitCounter(t *testing.T) {
	taken := map[string]bool{"SKL_Spine_5_MD": true}
	exists := func(name string) bool { return taken[name] }

	assert.Equal(t, "SKL_Spine_6_MD", naming.Make(exists, naming.Skeleton, "Spine", naming.Middle, 5))
	assert.Equal(t, "SKL_Spine_1_MD", naming.Make(exists, naming.Skeleton, "Spine", naming.Middle, 0))
}

func TestDescription(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Head", "Head"},
		{"upper arm", "upperArm"},
		{"upper_arm", "upperArm"},
		{"__tail", "tail"},
		{"", "Unnamed"},
		{"_ _", "Unnamed"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, naming.Description(tt.in))
		})
	}
}

func TestParsers(t *testing.T) {
	tests := []struct {
		name        string
		prefix      string
		description string
		counter     int
		side        string
	}{
		{"CTL_Arm_3_LF", "CTL", "Arm", 3, "LF"},
		{"char:rig:SKL_Spine_12_MD", "SKL", "Spine", 12, "MD"},
		{"META_Head", "META", "Head", 0, ""},
		{"orphan", "orphan", "", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.prefix, naming.Prefix(tt.name))
			assert.Equal(t, tt.description, naming.DescriptionOf(tt.name))
			assert.Equal(t, tt.counter, naming.Counter(tt.name))
			assert.Equal(t, tt.side, naming.Side(tt.name))
		})
	}
}

func TestMirror(t *testing.T) {
	assert.Equal(t, "CTL_Arm_1_RT", naming.Mirror("CTL_Arm_1_LF"))
	assert.Equal(t, "CTL_Arm_1_LF", naming.Mirror("CTL_Arm_1_RT"))
	assert.Equal(t, "CTL_Head_1_MD", naming.Mirror("CTL_Head_1_MD"))
}
