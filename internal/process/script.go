// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

//nolint:gocritic // captLocal: L is the idiomatic name for lua.LState
package process

import (
	"context"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"

	"github.com/crabrig/crab/internal/plugin"
	"github.com/crabrig/crab/internal/plugin/hostfunc"
	pluginlua "github.com/crabrig/crab/internal/plugin/lua"
	"github.com/crabrig/crab/internal/scene"
)

// Lua hook names of a process script. Every hook is optional.
const (
	FnSnapshot  = "snapshot"
	FnPostEdit  = "post_edit"
	FnPreBuild  = "pre_build"
	FnPostBuild = "post_build"
)

// Script is a process implemented by a Lua script.
type Script struct {
	script *pluginlua.Script
}

// LoadScript returns the LOAD_SOURCE loader for process scripts.
func LoadScript(funcs *hostfunc.Functions) plugin.LoadFunc[Process] {
	return func(m *plugin.Manifest, dir string) (Process, error) {
		s, err := pluginlua.Load(context.Background(), m, dir, funcs)
		if err != nil {
			return nil, err
		}
		return NewScript(s), nil
	}
}

// NewScript wraps a loaded script.
func NewScript(s *pluginlua.Script) *Script {
	return &Script{script: s}
}

// Identifier returns the manifest name.
func (s *Script) Identifier() string { return s.script.Name() }

// Version returns the manifest version.
func (s *Script) Version() string { return s.script.Version() }

// Snapshot calls snapshot().
func (s *Script) Snapshot(ctx context.Context, r Rig) error { return s.call(ctx, r, FnSnapshot) }

// PostEdit calls post_edit().
func (s *Script) PostEdit(ctx context.Context, r Rig) error { return s.call(ctx, r, FnPostEdit) }

// PreBuild calls pre_build().
func (s *Script) PreBuild(ctx context.Context, r Rig) error { return s.call(ctx, r, FnPreBuild) }

// PostBuild calls post_build().
func (s *Script) PostBuild(ctx context.Context, r Rig) error { return s.call(ctx, r, FnPostBuild) }

func (s *Script) call(ctx context.Context, r Rig, fn string) error {
	if _, err := s.script.Call(ctx, r.Graph(), fn, rigFuncs(r)); err != nil {
		return oops.In("process").With("process", s.Identifier()).With("hook", fn).Wrap(err)
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
		{Name: "rig_name", Fn: func(L *lua.LState) int {
			L.Push(lua.LString(r.Name()))
			return 1
		}},
		{Name: "rig_node", Fn: node(r.Node)},
		{Name: "rig_meta", Fn: node(r.Meta)},
		{Name: "control_org", Fn: node(r.ControlOrg)},
		{Name: "skeleton_org", Fn: node(r.SkeletonOrg)},
		{Name: "guide_org", Fn: node(r.GuideOrg)},
		{Name: "geometry_org", Fn: node(r.GeometryOrg)},
		{Name: "controls", Fn: func(L *lua.LState) int {
			L.Push(hostfunc.IDList(L, Controls(r)))
			return 1
		}},
		{Name: "joints", Fn: func(L *lua.LState) int {
			L.Push(hostfunc.IDList(L, Joints(r)))
			return 1
		}},
	}
}
