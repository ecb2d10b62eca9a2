// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package plugin_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrig/crab/internal/plugin"
	"github.com/crabrig/crab/pkg/errutil"
)

type fake struct {
	id      string
	version string
	origin  string
}

func newFactory(opts ...plugin.Option[*fake]) *plugin.Factory[*fake] {
	opts = append([]plugin.Option[*fake]{plugin.WithoutEnv[*fake]()}, opts...)
	return plugin.NewFactory(plugin.KindComponent,
		func(f *fake) string { return f.id },
		func(f *fake) string { return f.version },
		opts...)
}

func sourceLoader(m *plugin.Manifest, _ string) (*fake, error) {
	if m.Runtime != plugin.RuntimeLua {
		return nil, errors.New("not a script")
	}
	return &fake{id: m.Name, version: m.Version, origin: "source"}, nil
}

func writeManifest(t *testing.T, dir, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, plugin.ManifestFile), []byte(body), 0o600))
}

func luaManifest(name, version, kind string) string {
	return "name: " + name + "\nversion: " + version + "\nkind: " + kind +
		"\nruntime: lua\nlua-plugin:\n  entry: main.lua\n"
}

func goManifest(name, version, symbol string) string {
	return "name: " + name + "\nversion: " + version +
		"\nkind: component\nruntime: go\ngo-plugin:\n  symbol: " + symbol + "\n"
}

func TestFactory_VersionedSelection(t *testing.T) {
	f := newFactory()
	x := &fake{id: "foo", version: "1"}
	y := &fake{id: "foo", version: "3"}
	z := &fake{id: "foo", version: "2"}
	for _, p := range []*fake{x, y, z} {
		require.NoError(t, f.Register(p))
	}

	got, ok := f.Request("foo")
	require.True(t, ok)
	assert.Same(t, y, got)

	got, ok = f.RequestVersion("foo", "2")
	require.True(t, ok)
	assert.Same(t, z, got)

	got, ok = f.RequestVersion("foo", "99")
	assert.False(t, ok)
	assert.Nil(t, got)

	assert.Equal(t, []string{"1", "2", "3"}, f.Versions("foo"))
}

func TestFactory_RequestEqualsHighestVersion(t *testing.T) {
	f := newFactory()
	for _, v := range []string{"1.10.0", "1.2.0", "1.9.3"} {
		require.NoError(t, f.Register(&fake{id: "arm", version: v}))
	}

	versions := f.Versions("arm")
	assert.Equal(t, []string{"1.2.0", "1.9.3", "1.10.0"}, versions)

	latest, ok := f.Request("arm")
	require.True(t, ok)
	exact, ok := f.RequestVersion("arm", versions[len(versions)-1])
	require.True(t, ok)
	assert.Same(t, exact, latest)
}

func TestFactory_TiesGoToFirstInserted(t *testing.T) {
	f := newFactory()
	first := &fake{id: "foo", version: "2.0.0"}
	second := &fake{id: "foo", version: "2.0"}
	require.NoError(t, f.Register(first))
	require.NoError(t, f.Register(second))

	got, ok := f.Request("foo")
	require.True(t, ok)
	assert.Same(t, first, got)
	assert.Equal(t, []string{"2.0.0"}, f.Versions("foo"))
}

func TestFactory_UnknownIdentifier(t *testing.T) {
	f := newFactory()
	got, ok := f.Request("missing")
	assert.False(t, ok)
	assert.Nil(t, got)
	assert.Empty(t, f.Versions("missing"))
}

func TestFactory_RegisterRejectsInvalidIdentity(t *testing.T) {
	f := newFactory()

	err := f.Register(&fake{id: "", version: "1.0.0"})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_MANIFEST")

	err = f.Register(&fake{id: "arm", version: "latest"})
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, "INVALID_MANIFEST")
	assert.Empty(t, f.Identifiers())
}

func TestFactory_DiscoversMatchingKind(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "tail"), luaManifest("Tail", "1.0.0", "component"))
	writeManifest(t, filepath.Join(root, "nested", "deep", "neck"), luaManifest("Neck", "0.3.0", "component"))
	writeManifest(t, filepath.Join(root, "space"), luaManifest("Space", "1.0.0", "behaviour"))
	writeManifest(t, filepath.Join(root, "broken"), "name: [")

	f := newFactory(
		plugin.WithSourceLoader(sourceLoader),
		plugin.WithPaths[*fake](plugin.LoadSource, root),
	)

	assert.Equal(t, []string{"Neck", "Tail"}, f.Identifiers())
	assert.Equal(t, plugin.KindComponent, f.Kind())

	infos := f.Describe()
	require.Len(t, infos, 2)
	for _, info := range infos {
		assert.Equal(t, plugin.RuntimeLua, info.Runtime)
		assert.NotEqual(t, "registered", info.Source)
	}
}

func TestFactory_ImportMechanism(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "singular"), goManifest("Singular", "1.0.0", "Singular"))
	writeManifest(t, filepath.Join(root, "missing"), goManifest("Ghost", "1.0.0", "Ghost"))
	writeManifest(t, filepath.Join(root, "script"), luaManifest("Tail", "1.0.0", "component"))

	catalog := plugin.NewCatalog[*fake]()
	builtin := &fake{id: "Singular", version: "1.0.0", origin: "catalog"}
	catalog.Add("Singular", builtin)

	f := newFactory(
		plugin.WithImporter(catalog.Importer()),
		plugin.WithSourceLoader(sourceLoader),
		plugin.WithPaths[*fake](plugin.Import, root),
	)

	assert.Equal(t, []string{"Singular"}, f.Identifiers())
	got, ok := f.Request("Singular")
	require.True(t, ok)
	assert.Same(t, builtin, got)
}

func TestFactory_GuessFallsBackToSource(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "singular"), goManifest("Singular", "1.0.0", "Singular"))
	writeManifest(t, filepath.Join(root, "tail"), luaManifest("Tail", "1.0.0", "component"))

	catalog := plugin.NewCatalog[*fake]()
	catalog.Add("Singular", &fake{id: "Singular", version: "1.0.0", origin: "catalog"})

	f := newFactory(
		plugin.WithImporter(catalog.Importer()),
		plugin.WithSourceLoader(sourceLoader),
		plugin.WithPaths[*fake](plugin.Guess, root),
	)

	singular, ok := f.Request("Singular")
	require.True(t, ok)
	assert.Equal(t, "catalog", singular.origin)

	tail, ok := f.Request("Tail")
	require.True(t, ok)
	assert.Equal(t, "source", tail.origin)
}

func TestFactory_LoadFailuresAreSkipped(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "ghost"), goManifest("Ghost", "1.0.0", "Ghost"))

	before := testutil.ToFloat64(plugin.PluginLoads.WithLabelValues("component", "import", plugin.StatusFailed))
	f := newFactory(
		plugin.WithImporter(plugin.NewCatalog[*fake]().Importer()),
		plugin.WithPaths[*fake](plugin.Import, root),
	)
	after := testutil.ToFloat64(plugin.PluginLoads.WithLabelValues("component", "import", plugin.StatusFailed))

	assert.Empty(t, f.Identifiers())
	assert.InDelta(t, 1.0, after-before, 0)
}

func TestFactory_ReloadKeepsRegisteredPlugins(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "tail"), luaManifest("Tail", "1.0.0", "component"))

	f := newFactory(
		plugin.WithSourceLoader(sourceLoader),
		plugin.WithPaths[*fake](plugin.LoadSource, root),
	)
	require.NoError(t, f.Register(&fake{id: "Singular", version: "1.0.0"}))
	assert.Equal(t, []string{"Singular", "Tail"}, f.Identifiers())

	writeManifest(t, filepath.Join(root, "tail2"), luaManifest("Tail", "2.0.0", "component"))
	f.Reload()
	assert.Equal(t, []string{"Singular", "Tail"}, f.Identifiers())
	assert.Equal(t, []string{"1.0.0", "2.0.0"}, f.Versions("Tail"))

	require.NoError(t, os.RemoveAll(filepath.Join(root, "tail")))
	require.NoError(t, os.RemoveAll(filepath.Join(root, "tail2")))
	f.Reload()
	assert.Equal(t, []string{"Singular"}, f.Identifiers())
}

func TestFactory_RegisteredPrecedeDiscovered(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "tail"), luaManifest("Tail", "1.0.0", "component"))

	f := newFactory(
		plugin.WithRegistered(&fake{id: "Singular", version: "1.0.0"}, &fake{id: "", version: "1.0.0"}),
		plugin.WithSourceLoader(sourceLoader),
		plugin.WithPaths[*fake](plugin.LoadSource, root),
	)
	ids := func() []string {
		var out []string
		for _, p := range f.Plugins() {
			out = append(out, p.id)
		}
		return out
	}
	assert.Equal(t, []string{"Singular", "Tail"}, ids())

	f.Reload()
	assert.Equal(t, []string{"Singular", "Tail"}, ids())
}

func TestFactory_AddAndRemovePath(t *testing.T) {
	a := t.TempDir()
	b := t.TempDir()
	writeManifest(t, filepath.Join(a, "tail"), luaManifest("Tail", "1.0.0", "component"))
	writeManifest(t, filepath.Join(b, "neck"), luaManifest("Neck", "1.0.0", "component"))

	f := newFactory(plugin.WithSourceLoader(sourceLoader))
	assert.Empty(t, f.Identifiers())

	f.AddPath(a, plugin.LoadSource)
	f.AddPath(b, plugin.LoadSource)
	assert.Equal(t, []string{"Neck", "Tail"}, f.Identifiers())
	assert.Equal(t, []string{filepath.Clean(a), filepath.Clean(b)}, f.Paths())

	f.AddPath(a, plugin.LoadSource)
	assert.Len(t, f.Plugins(), 2, "re-adding a path must not duplicate plugins")

	f.RemovePath(a)
	assert.Equal(t, []string{"Neck"}, f.Identifiers())
	assert.Equal(t, []string{filepath.Clean(b)}, f.Paths())
}

func TestFactory_MissingPathIsIgnored(t *testing.T) {
	f := newFactory(
		plugin.WithSourceLoader(sourceLoader),
		plugin.WithPaths[*fake](plugin.LoadSource, filepath.Join(t.TempDir(), "nope")),
	)
	assert.Empty(t, f.Identifiers())
}

func TestFactory_EnvironmentPaths(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, filepath.Join(root, "tail"), luaManifest("Tail", "1.0.0", "component"))
	t.Setenv(plugin.EnvPathsVar, ";"+root+";")

	f := plugin.NewFactory(plugin.KindComponent,
		func(f *fake) string { return f.id },
		func(f *fake) string { return f.version },
		plugin.WithSourceLoader(sourceLoader))

	assert.Equal(t, []string{"Tail"}, f.Identifiers())
	assert.Equal(t, []string{filepath.Clean(root)}, f.Paths())
}

func TestParseMechanism(t *testing.T) {
	tests := []struct {
		in      string
		want    plugin.Mechanism
		wantErr bool
	}{
		{"import", plugin.Import, false},
		{"LOAD_SOURCE", plugin.LoadSource, false},
		{"source", plugin.LoadSource, false},
		{"guess", plugin.Guess, false},
		{"", plugin.Guess, false},
		{"magic", plugin.Guess, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := plugin.ParseMechanism(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			if tt.in != "" && tt.in != "source" {
				assert.Equal(t, tt.want.String(), strings.ToLower(tt.in))
			}
		})
	}
}
