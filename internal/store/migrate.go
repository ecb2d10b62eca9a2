// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package store

import (
	"embed"
	"errors"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/golang-migrate/migrate/v4"
	// Register the modernc-backed sqlite driver for golang-migrate.
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/samber/oops"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// schemaRunner is the subset of *migrate.Migrate the upgrader drives.
type schemaRunner interface {
	Up() error
	Version() (version uint, dirty bool, err error)
	Close() (source error, database error)
}

// upgrader brings a scene file's tables up to the embedded schema.
type upgrader struct {
	run  schemaRunner
	path string
}

func newUpgrader(path string) (*upgrader, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, oops.In("store").Code("MIGRATION_SOURCE_FAILED").Wrap(err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", source, "sqlite://"+path)
	if err != nil {
		_ = source.Close()
		return nil, oops.In("store").Code("MIGRATION_INIT_FAILED").With("path", path).Wrap(err)
	}
	return &upgrader{run: m, path: path}, nil
}

// version returns the file's schema version; a fresh file is at 0.
func (u *upgrader) version() (uint, error) {
	v, dirty, err := u.run.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, nil
	}
	errb := oops.In("store").With("path", u.path)
	if err != nil {
		return 0, errb.Code("MIGRATION_VERSION_FAILED").Wrap(err)
	}
	if dirty {
		return v, errb.Code("SCENE_FILE_DIRTY").With("version", v).
			Hint("a previous upgrade was interrupted; restore the file from a backup").
			Errorf("scene file schema is dirty")
	}
	return v, nil
}

// upgrade applies pending migrations. Files written by a newer schema are
// refused rather than touched.
func (u *upgrader) upgrade() error {
	current, err := u.version()
	if err != nil {
		return err
	}
	latest, err := LatestSchemaVersion()
	if err != nil {
		return err
	}
	if current > latest {
		return oops.In("store").Code("SCENE_FILE_TOO_NEW").
			With("path", u.path).With("version", current).With("supported", latest).
			Errorf("scene file was written by a newer version")
	}
	if current == latest {
		return nil
	}
	slog.Debug("upgrading scene file", "path", u.path, "from", current, "to", latest)
	if err := u.run.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return oops.In("store").Code("MIGRATION_UP_FAILED").With("path", u.path).Wrap(err)
	}
	return nil
}

func (u *upgrader) close() error {
	srcErr, dbErr := u.run.Close()
	if err := errors.Join(srcErr, dbErr); err != nil {
		return oops.In("store").Code("MIGRATION_CLOSE_FAILED").With("path", u.path).Wrap(err)
	}
	return nil
}

// upgradeFile opens the migration runner on path, upgrades and closes it.
func upgradeFile(path string) error {
	u, err := newUpgrader(path)
	if err != nil {
		return err
	}
	return errors.Join(u.upgrade(), u.close())
}

// LatestSchemaVersion returns the newest scene file schema this build knows.
func LatestSchemaVersion() (uint, error) {
	versions, err := schemaVersions()
	if err != nil || len(versions) == 0 {
		return 0, err
	}
	return versions[len(versions)-1], nil
}

// schemaVersions lists the versions of the embedded NNNNNN_name.up.sql
// files, ascending.
var schemaVersions = sync.OnceValues(func() ([]uint, error) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		return nil, oops.In("store").Code("MIGRATION_LIST_FAILED").Wrap(err)
	}
	var versions []uint
	for _, entry := range entries {
		name, ok := strings.CutSuffix(entry.Name(), ".up.sql")
		if !ok {
			continue
		}
		prefix, _, _ := strings.Cut(name, "_")
		v, err := strconv.ParseUint(prefix, 10, 0)
		if err != nil {
			slog.Warn("skipping migration with unexpected name", "file", entry.Name())
			continue
		}
		versions = append(versions, uint(v))
	}
	slices.Sort(versions)
	return slices.Compact(versions), nil
})
