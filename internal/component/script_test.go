// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package component_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrig/crab/internal/component"
	"github.com/crabrig/crab/internal/plugin"
	"github.com/crabrig/crab/internal/plugin/capability"
	"github.com/crabrig/crab/internal/plugin/hostfunc"
	"github.com/crabrig/crab/internal/scene"
	"github.com/crabrig/crab/pkg/errutil"
)

const tailScript = `
function default_options()
	return { description = "Tail", joint_count = 2 }
end

function create_skeleton(parent, options)
	local prev = parent
	for i = 1, options.joint_count do
		local j, err = crab.create_node("joint", crab.component_name("SKL"), prev)
		if err then error(err) end
		if i == 1 then crab.mark_as_skeletal_root(j) end
		crab.tag_self(j, "Joints")
		prev = j
	end
	crab.set_option("created", true)
	return true
end

function create_rig(parent, options)
	local root = crab.find_first_self("Joints")
	local ctl = crab.create_control(crab.component_name("CTL"), parent, 2)
	crab.tag_self(ctl, "Controls")
	local err = crab.bind(root, ctl, false)
	if err then error(err) end
	return true
end
`

const rootsScript = `
function default_options()
	return { description = "Roots" }
end

function create_guide(parent, options)
	local target = parent
	if options.guide_parent then target = options.guide_parent end
	local root, err = crab.create_guide_root(target)
	if err then error(err) end
	crab.tag_self(root, "GuideRoots")
end

function create_rig(parent, options)
	local root, err = crab.create_control_root(parent)
	if err then error(err) end
	crab.tag_self(root, "ControlRoots")
	return true
end
`

func writeComponent(t *testing.T, caps ...string) string {
	t.Helper()
	return writeScript(t, tailScript, caps...)
}

func writeScript(t *testing.T, script string, caps ...string) string {
	t.Helper()
	dir := t.TempDir()
	m := "name: Tail\nversion: 2.0.0\nkind: component\nruntime: lua\nlua-plugin:\n  entry: main.lua\n"
	if len(caps) > 0 {
		m += "capabilities:\n"
		for _, c := range caps {
			m += "  - \"" + c + "\"\n"
		}
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, plugin.ManifestFile), []byte(m), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.lua"), []byte(script), 0o600))
	return dir
}

func loadComponent(t *testing.T, dir string) component.Descriptor {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, plugin.ManifestFile))
	require.NoError(t, err)
	m, err := plugin.ParseManifest(data)
	require.NoError(t, err)
	d, err := component.LoadScript(hostfunc.New(capability.NewEnforcer()))(m, dir)
	require.NoError(t, err)
	return d
}

func TestScriptDescriptor_Identity(t *testing.T) {
	d := loadComponent(t, writeComponent(t, "scene.*"))

	assert.Equal(t, "Tail", d.Identifier())
	assert.Equal(t, "2.0.0", d.Version())
	opts := d.DefaultOptions()
	assert.Equal(t, "Tail", opts.Description())
	assert.Equal(t, "MD", opts.Side())
	assert.Equal(t, 2.0, opts.Float("joint_count", 0))

	opts["joint_count"] = 5.0
	assert.Equal(t, 2.0, d.DefaultOptions().Float("joint_count", 0))
}

func TestScriptComponent_BuildsSkeletonAndRig(t *testing.T) {
	ctx := context.Background()
	g := scene.NewMemory()
	d := loadComponent(t, writeComponent(t, "scene.*", "meta.write", "constraint.create"))
	b := component.NewBase(g, d.Identifier(), d.Version(), d.DefaultOptions())
	c := d.New(b)

	ok, err := c.CreateSkeleton(ctx, scene.Null)
	require.NoError(t, err)
	require.True(t, ok)

	joints := b.Find("Joints")
	require.Len(t, joints, 2)
	assert.Equal(t, "SKL_Tail_1_MD", g.Name(joints[0]))
	assert.Equal(t, "SKL_Tail_2_MD", g.Name(joints[1]))
	assert.Equal(t, joints[0], b.SkeletonRoot())
	assert.Equal(t, joints[0], g.Parent(joints[1]))
	assert.Equal(t, true, b.Options()["created"])

	restored, err := component.FromMeta(g, b.Meta())
	require.NoError(t, err)
	assert.Equal(t, true, restored.Options()["created"])

	// Guide operations are not defined by the script.
	require.NoError(t, c.CreateGuide(ctx, scene.Null))
	require.NoError(t, c.LinkGuide(ctx))
	require.NoError(t, c.UnlinkGuide(ctx))

	ok, err = c.CreateRig(ctx, scene.Null)
	require.NoError(t, err)
	require.True(t, ok)
	ctl := b.FindFirst("Controls")
	require.False(t, scene.IsNull(ctl))
	assert.Equal(t, "CTL_Tail_1_MD", g.Name(ctl))
	assert.Equal(t, ctl, scene.Input(g, joints[0], component.AttrBound))
	assert.Empty(t, b.Find(component.LabelBindConstraints))
}

func TestScriptComponent_CapabilityDenied(t *testing.T) {
	g := scene.NewMemory()
	d := loadComponent(t, writeComponent(t, "scene.read"))
	b := component.NewBase(g, d.Identifier(), d.Version(), d.DefaultOptions())

	_, err := d.New(b).CreateSkeleton(context.Background(), scene.Null)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capability denied")
	errutil.AssertErrorContext(t, err, "function", component.FnCreateSkeleton)
}

func TestScriptComponent_CreatesRoots(t *testing.T) {
	ctx := context.Background()
	g := scene.NewMemory()
	guides, err := g.CreateNode(scene.TypeTransform, "guides", scene.Null)
	require.NoError(t, err)
	controls, err := g.CreateNode(scene.TypeTransform, "controls", scene.Null)
	require.NoError(t, err)

	d := loadComponent(t, writeScript(t, rootsScript, "scene.*", "meta.write"))
	b := component.NewBase(g, d.Identifier(), d.Version(), d.DefaultOptions())
	c := d.New(b)

	require.NoError(t, c.CreateGuide(ctx, guides))
	guideRoot := b.FindFirst("GuideRoots")
	require.False(t, scene.IsNull(guideRoot))
	assert.Equal(t, guideRoot, b.GuideRoot())
	assert.Equal(t, guides, g.Parent(guideRoot))

	ok, err := c.CreateRig(ctx, controls)
	require.NoError(t, err)
	require.True(t, ok)
	controlRoot := b.FindFirst("ControlRoots")
	require.False(t, scene.IsNull(controlRoot))
	assert.Equal(t, controlRoot, b.ControlRoot())
	assert.Equal(t, controls, g.Parent(controlRoot))
}

func TestScriptComponent_CreateGuideRootError(t *testing.T) {
	g := scene.NewMemory()
	d := loadComponent(t, writeScript(t, rootsScript, "scene.*", "meta.write"))
	opts := d.DefaultOptions()
	opts["guide_parent"] = scene.NewNodeID().String()
	b := component.NewBase(g, d.Identifier(), d.Version(), opts)

	err := d.New(b).CreateGuide(context.Background(), scene.Null)
	require.Error(t, err)
	errutil.AssertErrorContext(t, err, "function", component.FnCreateGuide)
	assert.Empty(t, b.Find("GuideRoots"))
}

func TestScriptComponent_CreateControlRootNeedsSceneWrite(t *testing.T) {
	g := scene.NewMemory()
	d := loadComponent(t, writeScript(t, rootsScript, "scene.read", "meta.write"))
	b := component.NewBase(g, d.Identifier(), d.Version(), d.DefaultOptions())

	_, err := d.New(b).CreateRig(context.Background(), scene.Null)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capability denied")
	assert.True(t, scene.IsNull(b.ControlRoot()))
}
