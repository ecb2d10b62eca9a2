// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

//nolint:gocritic // captLocal: L is the idiomatic name for lua.LState
package behaviour

import (
	"context"
	"maps"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/crabrig/crab/internal/plugin"
	"github.com/crabrig/crab/internal/plugin/capability"
	"github.com/crabrig/crab/internal/plugin/hostfunc"
	pluginlua "github.com/crabrig/crab/internal/plugin/lua"
	"github.com/crabrig/crab/internal/scene"
)

// Lua entry points of a behaviour script.
const (
	FnDefaultOptions = "default_options"
	FnApply          = "apply"
)

// Script is a behaviour implemented by a Lua script.
type Script struct {
	script   *pluginlua.Script
	defaults map[string]any
}

// LoadScript returns the LOAD_SOURCE loader for behaviour scripts.
func LoadScript(funcs *hostfunc.Functions) plugin.LoadFunc[Behaviour] {
	return func(m *plugin.Manifest, dir string) (Behaviour, error) {
		s, err := pluginlua.Load(context.Background(), m, dir, funcs)
		if err != nil {
			return nil, err
		}
		return NewScript(context.Background(), s)
	}
}

// NewScript wraps a loaded script.
func NewScript(ctx context.Context, s *pluginlua.Script) (*Script, error) {
	ret, err := s.Call(ctx, scene.NewMemory(), FnDefaultOptions, nil)
	if err != nil {
		return nil, oops.In("behaviour").Code("PLUGIN_LOAD_FAILED").With("behaviour", s.Name()).Wrap(err)
	}
	defaults, _ := ret.(map[string]any)
	if defaults == nil {
		defaults = map[string]any{}
	}
	return &Script{script: s, defaults: defaults}, nil
}

// Identifier returns the manifest name.
func (s *Script) Identifier() string { return s.script.Name() }

// Version returns the manifest version.
func (s *Script) Version() string { return s.script.Version() }

// DefaultOptions returns the result of default_options(), if defined.
func (s *Script) DefaultOptions() map[string]any {
	return maps.Clone(s.defaults)
}

// Apply calls apply(options). A Lua error or a false return fails the
// behaviour.
func (s *Script) Apply(ctx context.Context, r Rig, options map[string]any) error {
	if !s.script.Defines(FnApply) {
		return nil
	}
	ret, err := s.script.Call(ctx, r.Graph(), FnApply, rigFuncs(r), options)
	if err != nil {
		return oops.In("behaviour").With("behaviour", s.Identifier()).Wrap(err)
	}
	if b, ok := ret.(bool); ok && !b {
		return oops.In("behaviour").With("behaviour", s.Identifier()).Errorf("apply returned false")
	}
	return nil
}

func rigFuncs(r Rig) []hostfunc.Func {
	node := func(id func() scene.NodeID) lua.LGFunction {
		return func(L *lua.LState) int {
			L.Push(hostfunc.IDValue(id()))
			return 1
		}
	}
	return []hostfunc.Func{
		{Name: "rig_node", Fn: node(r.Node)},
		{Name: "control_org", Fn: node(r.ControlOrg)},
		{Name: "skeleton_org", Fn: node(r.SkeletonOrg)},
		{Name: "guide_org", Fn: node(r.GuideOrg)},
		{Name: "track", Capability: capability.MetaWrite, Fn: func(L *lua.LState) int {
			id, err := scene.ParseNodeID(L.CheckString(1))
			if err != nil {
				L.ArgError(1, "invalid node id")
				return 0
			}
			if err := r.Track(id); err != nil {
				L.Push(lua.LString(err.Error()))
				return 1
			}
			return 0
		}},
	}
}
