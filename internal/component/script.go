// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

//nolint:gocritic // captLocal: L is the idiomatic name for lua.LState
package component

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

// Lua entry points of a component script. Every one is optional.
const (
	FnDefaultOptions = "default_options"
	FnCreateSkeleton = "create_skeleton"
	FnCreateGuide    = "create_guide"
	FnLinkGuide      = "link_guide"
	FnUnlinkGuide    = "unlink_guide"
	FnCreateRig      = "create_rig"
)

// ScriptDescriptor is a component implemented by a Lua script.
type ScriptDescriptor struct {
	script   *pluginlua.Script
	defaults Options
}

// LoadScript returns the LOAD_SOURCE loader for component scripts.
func LoadScript(funcs *hostfunc.Functions) plugin.LoadFunc[Descriptor] {
	return func(m *plugin.Manifest, dir string) (Descriptor, error) {
		s, err := pluginlua.Load(context.Background(), m, dir, funcs)
		if err != nil {
			return nil, err
		}
		return NewScriptDescriptor(context.Background(), s)
	}
}

// NewScriptDescriptor wraps a loaded script. default_options(), when
// defined, supplies options on top of the description and side defaults.
func NewScriptDescriptor(ctx context.Context, s *pluginlua.Script) (*ScriptDescriptor, error) {
	d := &ScriptDescriptor{script: s, defaults: Defaults(s.Name())}
	ret, err := s.Call(ctx, scene.NewMemory(), FnDefaultOptions, nil)
	if err != nil {
		return nil, oops.In("component").Code("PLUGIN_LOAD_FAILED").With("component", s.Name()).Wrap(err)
	}
	if opts, ok := ret.(map[string]any); ok {
		maps.Copy(d.defaults, opts)
	}
	return d, nil
}

// Identifier returns the manifest name.
func (d *ScriptDescriptor) Identifier() string { return d.script.Name() }

// Version returns the manifest version.
func (d *ScriptDescriptor) Version() string { return d.script.Version() }

// DefaultOptions returns a copy of the script's defaults.
func (d *ScriptDescriptor) DefaultOptions() Options { return maps.Clone(d.defaults) }

// New binds the script to b.
func (d *ScriptDescriptor) New(b *Base) Component {
	return &scriptComponent{Base: b, script: d.script}
}

type scriptComponent struct {
	*Base
	script *pluginlua.Script
}

func (c *scriptComponent) call(ctx context.Context, fn string, args ...any) (any, error) {
	ret, err := c.script.Call(ctx, c.Graph(), fn, c.hostFuncs(), args...)
	if err != nil {
		return nil, oops.In("component").With("component", c.Identifier()).With("function", fn).Wrap(err)
	}
	// Scripts may edit options through crab.set_option.
	if err := c.SaveOptions(); err != nil {
		return nil, err
	}
	return ret, nil
}

func (c *scriptComponent) CreateSkeleton(ctx context.Context, parent scene.NodeID) (bool, error) {
	if !c.script.Defines(FnCreateSkeleton) {
		return true, nil
	}
	ret, err := c.call(ctx, FnCreateSkeleton, parent.String(), map[string]any(c.Options()))
	return pluginlua.Truthy(ret), err
}

func (c *scriptComponent) CreateGuide(ctx context.Context, parent scene.NodeID) error {
	_, err := c.call(ctx, FnCreateGuide, parent.String(), map[string]any(c.Options()))
	return err
}

func (c *scriptComponent) LinkGuide(ctx context.Context) error {
	_, err := c.call(ctx, FnLinkGuide, map[string]any(c.Options()))
	return err
}

func (c *scriptComponent) UnlinkGuide(ctx context.Context) error {
	_, err := c.call(ctx, FnUnlinkGuide, map[string]any(c.Options()))
	return err
}

func (c *scriptComponent) CreateRig(ctx context.Context, parent scene.NodeID) (bool, error) {
	if !c.script.Defines(FnCreateRig) {
		return true, nil
	}
	ret, err := c.call(ctx, FnCreateRig, parent.String(), map[string]any(c.Options()))
	return pluginlua.Truthy(ret), err
}

// hostFuncs are the Base operations exposed to the script as crab.*.
func (c *scriptComponent) hostFuncs() []hostfunc.Func {
	return []hostfunc.Func{
		{Name: "meta", Fn: func(L *lua.LState) int {
			L.Push(hostfunc.IDValue(c.Meta()))
			return 1
		}},
		{Name: "option", Fn: func(L *lua.LState) int {
			L.Push(hostfunc.ToLua(L, c.Options()[L.CheckString(1)]))
			return 1
		}},
		{Name: "set_option", Fn: func(L *lua.LState) int {
			c.Options()[L.CheckString(1)] = hostfunc.ToGo(L.CheckAny(2))
			return 0
		}},
		{Name: "component_name", Capability: capability.SceneRead, Fn: func(L *lua.LState) int {
			L.Push(lua.LString(c.Name(L.CheckString(1), L.OptString(2, ""))))
			return 1
		}},
		{Name: "mark_as_skeletal_root", Capability: capability.MetaWrite, Fn: func(L *lua.LState) int {
			return pushErr(L, c.MarkAsSkeletalRoot(checkNode(L, 1)))
		}},
		{Name: "create_guide_root", Capability: capability.SceneWrite, Fn: func(L *lua.LState) int {
			id, err := c.CreateGuideRoot(optNode(L, 1))
			return pushNode(L, id, err)
		}},
		{Name: "create_control_root", Capability: capability.SceneWrite, Fn: func(L *lua.LState) int {
			id, err := c.CreateControlRoot(optNode(L, 1))
			return pushNode(L, id, err)
		}},
		{Name: "tag_self", Capability: capability.MetaWrite, Fn: func(L *lua.LState) int {
			return pushErr(L, c.Tag(checkNode(L, 1), L.CheckString(2)))
		}},
		{Name: "find_self", Capability: capability.SceneRead, Fn: func(L *lua.LState) int {
			L.Push(hostfunc.IDList(L, c.Find(L.CheckString(1))))
			return 1
		}},
		{Name: "find_first_self", Capability: capability.SceneRead, Fn: func(L *lua.LState) int {
			L.Push(hostfunc.IDValue(c.FindFirst(L.CheckString(1))))
			return 1
		}},
		{Name: "bind", Capability: capability.ConstraintCreate, Fn: func(L *lua.LState) int {
			return pushErr(L, c.Bind(checkNode(L, 1), checkNode(L, 2), L.OptBool(3, true)))
		}},
	}
}

func checkNode(L *lua.LState, n int) scene.NodeID {
	id, err := scene.ParseNodeID(L.CheckString(n))
	if err != nil {
		L.ArgError(n, "invalid node id")
	}
	return id
}

func optNode(L *lua.LState, n int) scene.NodeID {
	if L.OptString(n, "") == "" {
		return scene.Null
	}
	return checkNode(L, n)
}

func pushErr(L *lua.LState, err error) int {
	if err != nil {
		L.Push(lua.LString(err.Error()))
		return 1
	}
	return 0
}

func pushNode(L *lua.LState, id scene.NodeID, err error) int {
	if err != nil {
		L.Push(lua.LNil)
		L.Push(lua.LString(err.Error()))
		return 2
	}
	L.Push(hostfunc.IDValue(id))
	L.Push(lua.LNil)
	return 2
}
