// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package meta_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrig/crab/internal/meta"
	"github.com/crabrig/crab/internal/scene"
)

func newComponent(t *testing.T, g scene.Graph) (m, root scene.NodeID) {
	t.Helper()
	m, err := meta.Create(g, "Singular", "1.0.0", map[string]any{"description": "Head", "side": "MD"})
	require.NoError(t, err)
	root, err = g.CreateNode(scene.TypeJoint, "SKL_Head_1_MD", scene.Null)
	require.NoError(t, err)
	require.NoError(t, meta.MarkAsSkeletalRoot(g, root, m))
	return m, root
}

func TestCreate(t *testing.T) {
	g := scene.NewMemory()

	m, err := meta.Create(g, "Singular", "1.2.0", map[string]any{"side": "LF", "description": "Arm"})
	require.NoError(t, err)

	assert.Equal(t, "META_Singular_1_LF", g.Name(m))
	assert.Equal(t, scene.TypeNetwork, g.Type(m))
	assert.True(t, meta.IsComponentMeta(g, m))
	assert.Equal(t, "Singular", meta.Identifier(g, m))
	assert.Equal(t, "1.2.0", meta.Version(g, m))

	opts, err := meta.Options(g, m)
	require.NoError(t, err)
	assert.Equal(t, "Arm", opts["description"])

	second, err := meta.Create(g, "Singular", "1.2.0", map[string]any{"side": "LF"})
	require.NoError(t, err)
	assert.Equal(t, "META_Singular_2_LF", g.Name(second))
	assert.Equal(t, []scene.NodeID{m, second}, meta.All(g))
}

func TestCreate_EmptyIdentifier(t *testing.T) {
	_, err := meta.Create(scene.NewMemory(), "", "1.0.0", nil)
	require.Error(t, err)
}

func TestRootLinks(t *testing.T) {
	g := scene.NewMemory()
	m, root := newComponent(t, g)

	guide, err := g.CreateNode(scene.TypeTransform, "GDE_Head_1_MD", scene.Null)
	require.NoError(t, err)
	control, err := g.CreateNode(scene.TypeTransform, "CTL_Head_1_MD", scene.Null)
	require.NoError(t, err)
	require.NoError(t, meta.MarkAsGuideRoot(g, guide, m))
	require.NoError(t, meta.MarkAsControlRoot(g, control, m))

	assert.Equal(t, root, meta.SkeletonRoot(g, m))
	assert.Equal(t, guide, meta.GuideRoot(g, m))
	assert.Equal(t, control, meta.ControlRoot(g, m))
	assert.True(t, scene.Bool(g, root, meta.AttrUseOutlinerColour))

	for _, n := range []scene.NodeID{root, guide, control} {
		assert.Equal(t, m, meta.IsComponentRoot(g, n))
	}
}

func TestTagAndFind(t *testing.T) {
	g := scene.NewMemory()
	m, root := newComponent(t, g)

	a, err := g.CreateNode(scene.TypeJoint, "SKL_A_1_MD", root)
	require.NoError(t, err)
	b, err := g.CreateNode(scene.TypeJoint, "SKL_B_1_MD", a)
	require.NoError(t, err)

	require.NoError(t, meta.Tag(g, a, "Joints", m))
	require.NoError(t, meta.Tag(g, b, "Joints", m))
	require.NoError(t, meta.Tag(g, b, "Tip", m))

	assert.Equal(t, []scene.NodeID{a, b}, meta.Find(g, "Joints", m))
	assert.Equal(t, a, meta.FindFirst(g, "Joints", m))
	assert.Equal(t, scene.Null, meta.FindFirst(g, "Missing", m))
	assert.Empty(t, meta.Find(g, "Missing", m))
	assert.Equal(t, []string{"Joints", "Tip"}, meta.Labels(g, m))

	require.Error(t, meta.Tag(g, a, "", m))
}

func TestTag_KeepsOrderAfterDeletion(t *testing.T) {
	g := scene.NewMemory()
	m, root := newComponent(t, g)

	var joints []scene.NodeID
	for _, name := range []string{"SKL_A_1_MD", "SKL_B_1_MD", "SKL_C_1_MD"} {
		j, err := g.CreateNode(scene.TypeJoint, name, root)
		require.NoError(t, err)
		require.NoError(t, meta.Tag(g, j, "Chain", m))
		joints = append(joints, j)
	}
	require.NoError(t, g.Delete(joints[1]))

	d, err := g.CreateNode(scene.TypeJoint, "SKL_D_1_MD", root)
	require.NoError(t, err)
	require.NoError(t, meta.Tag(g, d, "Chain", m))

	assert.Equal(t, []scene.NodeID{joints[0], joints[2], d}, meta.Find(g, "Chain", m))
}

func TestResolveFromNode(t *testing.T) {
	g := scene.NewMemory()
	m, root := newComponent(t, g)

	child, err := g.CreateNode(scene.TypeJoint, "SKL_Jaw_1_MD", root)
	require.NoError(t, err)
	leaf, err := g.CreateNode(scene.TypeJoint, "SKL_JawTip_1_MD", child)
	require.NoError(t, err)
	loose, err := g.CreateNode(scene.TypeTransform, "ORG_Loose_1_MD", scene.Null)
	require.NoError(t, err)

	assert.Equal(t, m, meta.ResolveFromNode(g, root))
	assert.Equal(t, m, meta.ResolveFromNode(g, leaf))
	assert.Equal(t, m, meta.ResolveFromNode(g, m))
	assert.Equal(t, scene.Null, meta.ResolveFromNode(g, loose))
	assert.Equal(t, scene.Null, meta.IsComponentRoot(g, child))
}

func TestResolveFromNode_NestedComponents(t *testing.T) {
	g := scene.NewMemory()
	parentMeta, parentRoot := newComponent(t, g)

	childMeta, err := meta.Create(g, "Singular", "1.0.0", nil)
	require.NoError(t, err)
	childRoot, err := g.CreateNode(scene.TypeJoint, "SKL_Tail_1_MD", parentRoot)
	require.NoError(t, err)
	require.NoError(t, meta.MarkAsSkeletalRoot(g, childRoot, childMeta))
	tip, err := g.CreateNode(scene.TypeJoint, "SKL_TailTip_1_MD", childRoot)
	require.NoError(t, err)

	assert.Equal(t, childMeta, meta.ResolveFromNode(g, tip))
	assert.Equal(t, parentMeta, meta.ResolveFromNode(g, parentRoot))
}

func TestSetOptions(t *testing.T) {
	g := scene.NewMemory()
	m, _ := newComponent(t, g)

	require.NoError(t, meta.SetOptions(g, m, map[string]any{"count": 3}))
	opts, err := meta.Options(g, m)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, opts["count"], 0)

	require.NoError(t, meta.SetOptions(g, m, nil))
	opts, err = meta.Options(g, m)
	require.NoError(t, err)
	assert.Empty(t, opts)
}
