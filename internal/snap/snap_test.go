// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package snap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrig/crab/internal/scene"
	"github.com/crabrig/crab/internal/snap"
	"github.com/crabrig/crab/pkg/errutil"
)

func pair(t *testing.T) (g *scene.Memory, ik, fk scene.NodeID) {
	t.Helper()
	g = scene.NewMemory()
	var err error
	ik, err = g.CreateNode(scene.TypeTransform, "CTL_ArmIk_1_LF", scene.Null)
	require.NoError(t, err)
	fk, err = g.CreateNode(scene.TypeTransform, "CTL_ArmFk_1_LF", scene.Null)
	require.NoError(t, err)
	require.NoError(t, g.SetAttr(ik, scene.AttrMatrix, scene.Translation(1, 0, 0)))
	require.NoError(t, g.SetAttr(fk, scene.AttrMatrix, scene.Translation(1, 2, 0)))
	return g, ik, fk
}

func TestCreateAndMatch(t *testing.T) {
	g, ik, fk := pair(t)

	n, err := snap.Create(g, "armIkFk", ik, fk)
	require.NoError(t, err)
	assert.Equal(t, "SNAP_armIkFk_1_LF", g.Name(n))
	assert.Equal(t, []string{"armIkFk"}, snap.Labels(g))

	// Move the source; matching carries the target along with the offset.
	require.NoError(t, g.SetAttr(ik, scene.AttrMatrix, scene.Translation(5, 0, 1)))
	moved, err := snap.Match(g, "armIkFk")
	require.NoError(t, err)
	assert.Equal(t, []scene.NodeID{fk}, moved)

	pos := scene.WorldPosition(g, fk)
	assert.InDelta(t, 5, pos[0], 1e-5)
	assert.InDelta(t, 2, pos[1], 1e-5)
	assert.InDelta(t, 1, pos[2], 1e-5)
}

func TestMatch_UnderParent(t *testing.T) {
	g, ik, fk := pair(t)
	grp, err := g.CreateNode(scene.TypeTransform, "ORG_Arm_1_LF", scene.Null)
	require.NoError(t, err)
	require.NoError(t, g.SetAttr(grp, scene.AttrMatrix, scene.Translation(0, 0, 10)))
	require.NoError(t, g.SetParent(fk, grp))

	before := scene.WorldPosition(g, fk)
	_, err = snap.Create(g, "arm", ik, fk)
	require.NoError(t, err)
	_, err = snap.Match(g, "arm")
	require.NoError(t, err)

	after := scene.WorldPosition(g, fk)
	for i := range 3 {
		assert.InDelta(t, before[i], after[i], 1e-5)
	}
}

func TestMatch_UnknownLabel(t *testing.T) {
	g, _, _ := pair(t)
	_, err := snap.Match(g, "nope")
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, snap.ErrNotFound)
}

func TestCreate_Validation(t *testing.T) {
	g, ik, _ := pair(t)

	_, err := snap.Create(g, "", ik, ik)
	require.Error(t, err)

	_, err = snap.Create(g, "arm", ik, scene.NewNodeID())
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "NODE_NOT_FOUND")
}

func TestFind_SkipsBrokenRecords(t *testing.T) {
	g, ik, fk := pair(t)
	_, err := snap.Create(g, "arm", ik, fk)
	require.NoError(t, err)
	require.Len(t, snap.Find(g, "arm"), 1)

	require.NoError(t, g.Delete(fk))
	assert.Empty(t, snap.Find(g, "arm"))
}

func TestDelete(t *testing.T) {
	g, ik, fk := pair(t)
	_, err := snap.Create(g, "arm", ik, fk)
	require.NoError(t, err)
	_, err = snap.Create(g, "arm", fk, ik)
	require.NoError(t, err)
	require.Len(t, snap.Find(g, "arm"), 2)

	require.NoError(t, snap.Delete(g, "arm"))
	assert.Empty(t, snap.All(g))
}
