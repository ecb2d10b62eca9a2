// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package plugin_test

import (
	"context"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/crabrig/crab/internal/plugin"
)

func TestFactory_WatchReloadsOnChange(t *testing.T) {
	defer goleak.VerifyNone(t)

	root := t.TempDir()
	f := newFactory(
		plugin.WithSourceLoader(sourceLoader),
		plugin.WithPaths[*fake](plugin.LoadSource, root),
	)
	require.Empty(t, f.Identifiers())

	reloaded := make(chan plugin.Kind, 16)
	stop, err := f.Watch(context.Background(), 20*time.Millisecond, func(k plugin.Kind) { reloaded <- k })
	require.NoError(t, err)
	defer stop()

	writeManifest(t, filepath.Join(root, "tail"), luaManifest("Tail", "1.0.0", "component"))

	require.Eventually(t, func() bool {
		return slices.Contains(f.Identifiers(), "Tail")
	}, 5*time.Second, 20*time.Millisecond)
	select {
	case k := <-reloaded:
		assert.Equal(t, plugin.KindComponent, k)
	case <-time.After(5 * time.Second):
		t.Fatal("reload was not reported")
	}
}

func TestFactory_WatchStopIsIdempotent(t *testing.T) {
	defer goleak.VerifyNone(t)

	f := newFactory(plugin.WithPaths[*fake](plugin.LoadSource, t.TempDir()))
	stop, err := f.Watch(context.Background(), 0, nil)
	require.NoError(t, err)

	stop()
	assert.NotPanics(t, stop)
}

func TestFactory_WatchEndsWithContext(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	f := newFactory(plugin.WithPaths[*fake](plugin.LoadSource, t.TempDir()))
	stop, err := f.Watch(ctx, 0, nil)
	require.NoError(t, err)

	cancel()
	stop()
}
