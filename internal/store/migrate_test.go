// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/golang-migrate/migrate/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrig/crab/pkg/errutil"
)

type fakeRunner struct {
	version    uint
	dirty      bool
	versionErr error
	upErr      error
	ups        int
	srcErr     error
	dbErr      error
}

func (f *fakeRunner) Up() error {
	f.ups++
	return f.upErr
}

func (f *fakeRunner) Version() (uint, bool, error) { return f.version, f.dirty, f.versionErr }
func (f *fakeRunner) Close() (error, error)        { return f.srcErr, f.dbErr }

func latest(t *testing.T) uint {
	t.Helper()
	v, err := LatestSchemaVersion()
	require.NoError(t, err)
	return v
}

func TestLatestSchemaVersion(t *testing.T) {
	assert.Equal(t, uint(2), latest(t))
}

func TestUpgradeFile_Fresh(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fresh.crab")
	require.NoError(t, upgradeFile(path))

	u, err := newUpgrader(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = u.close() })
	v, err := u.version()
	require.NoError(t, err)
	assert.Equal(t, latest(t), v)

	require.NoError(t, upgradeFile(path), "upgrading a current file is a no-op")
}

func TestUpgrade(t *testing.T) {
	tests := []struct {
		name    string
		runner  *fakeRunner
		code    string
		wantUps int
	}{
		{name: "fresh file", runner: &fakeRunner{versionErr: migrate.ErrNilVersion}, wantUps: 1},
		{name: "older file", runner: &fakeRunner{version: 1}, wantUps: 1},
		{name: "current file", runner: &fakeRunner{version: 2}},
		{name: "no change is fine", runner: &fakeRunner{version: 1, upErr: migrate.ErrNoChange}, wantUps: 1},
		{name: "newer file", runner: &fakeRunner{version: 99}, code: "SCENE_FILE_TOO_NEW"},
		{name: "dirty file", runner: &fakeRunner{version: 1, dirty: true}, code: "SCENE_FILE_DIRTY"},
		{name: "version error", runner: &fakeRunner{versionErr: errors.New("locked")}, code: "MIGRATION_VERSION_FAILED"},
		{name: "up error", runner: &fakeRunner{upErr: errors.New("disk full")}, code: "MIGRATION_UP_FAILED", wantUps: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := &upgrader{run: tt.runner, path: "scene.crab"}
			err := u.upgrade()
			if tt.code == "" {
				require.NoError(t, err)
			} else {
				errutil.AssertErrorCode(t, err, tt.code)
			}
			assert.Equal(t, tt.wantUps, tt.runner.ups)
		})
	}
}

func TestUpgraderClose(t *testing.T) {
	u := &upgrader{run: &fakeRunner{srcErr: errors.New("src"), dbErr: errors.New("db")}}
	err := u.close()
	errutil.AssertErrorCode(t, err, "MIGRATION_CLOSE_FAILED")
	assert.Contains(t, err.Error(), "src")
	assert.Contains(t, err.Error(), "db")

	require.NoError(t, (&upgrader{run: &fakeRunner{}}).close())
}
