// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package lua runs Lua plugins in a sandbox. Scripts get the base, table,
// string and math libraries plus the crab host module; os, io, debug and
// package are never opened, so a script cannot read files or require
// other scripts.
//
//nolint:gocritic // captLocal: L is the idiomatic name for lua.LState
package lua

import (
	"context"
	"log/slog"
	"strings"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
)

var sandboxLibraries = []struct {
	name string
	open lua.LGFunction
}{
	{lua.BaseLibName, lua.OpenBase},
	{lua.TabLibName, lua.OpenTable},
	{lua.StringLibName, lua.OpenString},
	{lua.MathLibName, lua.OpenMath},
}

// Base functions that reach the filesystem or compile arbitrary chunks.
var unsafeBaseFunctions = []string{"dofile", "loadfile", "loadstring", "load", "require", "module"}

const (
	defaultCallStackSize = 256
	defaultRegistryMax   = 1024 * 80
)

// StateFactory creates sandboxed Lua states.
type StateFactory struct {
	callStackSize int
	registryMax   int
	logger        *slog.Logger
}

// StateOption configures a StateFactory.
type StateOption func(*StateFactory)

// WithCallStackSize bounds recursion depth.
func WithCallStackSize(n int) StateOption {
	return func(f *StateFactory) { f.callStackSize = n }
}

// WithRegistryMax bounds the value stack a script may grow to.
func WithRegistryMax(n int) StateOption {
	return func(f *StateFactory) { f.registryMax = n }
}

// WithPrintLogger routes print() to l at info level.
func WithPrintLogger(l *slog.Logger) StateOption {
	return func(f *StateFactory) { f.logger = l }
}

// NewStateFactory creates a state factory.
func NewStateFactory(opts ...StateOption) *StateFactory {
	f := &StateFactory{
		callStackSize: defaultCallStackSize,
		registryMax:   defaultRegistryMax,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// NewState creates a fresh sandboxed state. Cancelling ctx stops a running
// script.
func (f *StateFactory) NewState(ctx context.Context) (*lua.LState, error) {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:    true,
		CallStackSize:   f.callStackSize,
		RegistryMaxSize: f.registryMax,
	})

	for _, lib := range sandboxLibraries {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		if err := L.PCall(1, 0, nil); err != nil {
			L.Close()
			return nil, oops.In("lua").With("library", lib.name).Hint("failed to open library").Wrap(err)
		}
	}
	for _, name := range unsafeBaseFunctions {
		L.SetGlobal(name, lua.LNil)
	}
	L.SetGlobal("print", L.NewFunction(f.print))

	if ctx != nil {
		L.SetContext(ctx)
	}
	return L, nil
}

func (f *StateFactory) print(L *lua.LState) int {
	parts := make([]string, L.GetTop())
	for i := range parts {
		parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
	}
	f.logger.Info(strings.Join(parts, "\t"))
	return 0
}
