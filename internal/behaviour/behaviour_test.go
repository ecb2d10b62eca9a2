// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package behaviour_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrig/crab/internal/behaviour"
	"github.com/crabrig/crab/internal/plugin"
	"github.com/crabrig/crab/internal/plugin/capability"
	"github.com/crabrig/crab/internal/plugin/hostfunc"
	pluginlua "github.com/crabrig/crab/internal/plugin/lua"
	"github.com/crabrig/crab/internal/scene"
	"github.com/crabrig/crab/pkg/errutil"
)

type fakeRig struct {
	g       *scene.Memory
	root    scene.NodeID
	ctlOrg  scene.NodeID
	sklOrg  scene.NodeID
	gdeOrg  scene.NodeID
	tracked []scene.NodeID
}

func newFakeRig(t *testing.T) *fakeRig {
	t.Helper()
	g := scene.NewMemory()
	r := &fakeRig{g: g}
	var err error
	r.root, err = g.CreateNode(scene.TypeTransform, "Test", scene.Null)
	require.NoError(t, err)
	r.ctlOrg, err = g.CreateNode(scene.TypeTransform, "ORG_Controls_1_MD", r.root)
	require.NoError(t, err)
	r.sklOrg, err = g.CreateNode(scene.TypeTransform, "ORG_Skeleton_1_MD", r.root)
	require.NoError(t, err)
	r.gdeOrg, err = g.CreateNode(scene.TypeTransform, "ORG_Guides_1_MD", r.root)
	require.NoError(t, err)
	return r
}

func (r *fakeRig) Graph() scene.Graph        { return r.g }
func (r *fakeRig) Node() scene.NodeID        { return r.root }
func (r *fakeRig) ControlOrg() scene.NodeID  { return r.ctlOrg }
func (r *fakeRig) SkeletonOrg() scene.NodeID { return r.sklOrg }
func (r *fakeRig) GuideOrg() scene.NodeID    { return r.gdeOrg }
func (r *fakeRig) Track(n scene.NodeID) error {
	r.tracked = append(r.tracked, n)
	return nil
}

func (r *fakeRig) control(t *testing.T, name string) scene.NodeID {
	t.Helper()
	id, err := r.g.CreateNode(scene.TypeTransform, name, r.ctlOrg)
	require.NoError(t, err)
	return id
}

func TestConstrain_Apply(t *testing.T) {
	r := newFakeRig(t)
	head := r.control(t, "CTL_Head_1_MD")
	r.control(t, "CTL_Root_1_MD")

	opts := behaviour.Constrain{}.DefaultOptions()
	opts[behaviour.OptionKind] = "point"
	opts[behaviour.OptionDrivers] = []any{"CTL_Root_1_MD"}
	opts[behaviour.OptionDriven] = "CTL_Head_1_MD"

	require.NoError(t, behaviour.Constrain{}.Apply(context.Background(), r, opts))
	require.Len(t, r.tracked, 1)
	c := r.tracked[0]
	assert.Equal(t, scene.TypePointConstraint, r.g.Type(c))
	assert.Equal(t, head, r.g.Parent(c))
}

func TestConstrain_Errors(t *testing.T) {
	tests := []struct {
		name string
		opts map[string]any
		code string
	}{
		{"unknown kind", map[string]any{"kind": "twist", "driven": "CTL_Head_1_MD", "drivers": "CTL_Root_1_MD"}, "INVALID_OPTIONS"},
		{"missing driven", map[string]any{"driven": "CTL_Nope_1_MD", "drivers": "CTL_Root_1_MD"}, "NODE_NOT_FOUND"},
		{"missing driver", map[string]any{"driven": "CTL_Head_1_MD", "drivers": []any{"CTL_Nope_1_MD"}}, "NODE_NOT_FOUND"},
		{"no drivers", map[string]any{"driven": "CTL_Head_1_MD"}, "INVALID_OPTIONS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newFakeRig(t)
			r.control(t, "CTL_Head_1_MD")
			r.control(t, "CTL_Root_1_MD")

			err := behaviour.Constrain{}.Apply(context.Background(), r, tt.opts)
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, tt.code)
			assert.Empty(t, r.tracked)
		})
	}
}

func newScript(t *testing.T, code string, caps ...string) *behaviour.Script {
	t.Helper()
	m := &plugin.Manifest{
		Name:         "Follow",
		Version:      "1.1.0",
		Kind:         plugin.KindBehaviour,
		Runtime:      plugin.RuntimeLua,
		Capabilities: caps,
		LuaPlugin:    &plugin.LuaConfig{Entry: "main.lua"},
	}
	s, err := pluginlua.New(context.Background(), m, code, hostfunc.New(capability.NewEnforcer()))
	require.NoError(t, err)
	b, err := behaviour.NewScript(context.Background(), s)
	require.NoError(t, err)
	return b
}

func TestScript_Apply(t *testing.T) {
	r := newFakeRig(t)
	r.control(t, "CTL_Head_1_MD")

	b := newScript(t, `
		function default_options()
			return { target = "CTL_Head_1_MD" }
		end

		function apply(options)
			local target = crab.find_node(options.target)
			local loc, err = crab.create_node("locator", "LOC_Follow_1_MD", crab.control_org())
			if err then error(err) end
			crab.track(loc)
			return target ~= nil
		end
	`, "scene.*", "meta.write")

	assert.Equal(t, "Follow", b.Identifier())
	assert.Equal(t, "1.1.0", b.Version())
	opts := b.DefaultOptions()
	assert.Equal(t, "CTL_Head_1_MD", opts["target"])

	require.NoError(t, b.Apply(context.Background(), r, opts))
	require.Len(t, r.tracked, 1)
	assert.Equal(t, "LOC_Follow_1_MD", r.g.Name(r.tracked[0]))

	opts["target"] = "CTL_Missing_1_MD"
	err := b.Apply(context.Background(), r, opts)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "apply returned false")
}

func TestScript_TrackNeedsCapability(t *testing.T) {
	r := newFakeRig(t)
	b := newScript(t, `
		function apply(options)
			crab.track(crab.rig_node())
		end
	`, "scene.read")

	err := b.Apply(context.Background(), r, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capability denied")
	assert.Empty(t, r.tracked)
}

func TestScript_NoApply(t *testing.T) {
	b := newScript(t, `local x = 1`)
	require.NoError(t, b.Apply(context.Background(), newFakeRig(t), nil))
	assert.Empty(t, b.DefaultOptions())
}
