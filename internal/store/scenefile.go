// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package store persists scenes to SQLite scene files.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
	// Register the "sqlite" database/sql driver.
	_ "modernc.org/sqlite"

	"github.com/crabrig/crab/internal/scene"
)

// SceneFile is an open scene file.
type SceneFile struct {
	db   *sql.DB
	path string
}

// Open opens (creating if needed) the scene file at path and brings its
// schema up to date.
func Open(ctx context.Context, path string) (*SceneFile, error) {
	if strings.TrimSpace(path) == "" {
		return nil, oops.Code("SCENE_FILE_INVALID").Errorf("scene file path is required")
	}
	clean := filepath.Clean(path)

	db, err := sql.Open("sqlite", clean+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, oops.With("operation", "open scene file").With("path", clean).Wrap(err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, oops.With("operation", "ping scene file").With("path", clean).Wrap(err)
	}

	if err := upgradeFile(clean); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SceneFile{db: db, path: clean}, nil
}

// Path returns the cleaned file path.
func (f *SceneFile) Path() string {
	return f.path
}

// Close closes the file.
func (f *SceneFile) Close() error {
	if f == nil || f.db == nil {
		return nil
	}
	return f.db.Close()
}

// Save replaces the file contents with the scene.
func (f *SceneFile) Save(ctx context.Context, m *scene.Memory) error {
	snap, err := m.Snapshot()
	if err != nil {
		return err
	}

	tx, err := f.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.With("operation", "begin save").Wrap(err)
	}
	defer func() { _ = tx.Rollback() }() //nolint:errcheck // no-op after commit

	for _, table := range []string{"skin_weights", "connections", "attrs", "nodes"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return oops.With("operation", "clear scene").With("table", table).Wrap(err)
		}
	}

	for _, n := range snap.Nodes {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO nodes (id, name, type, parent) VALUES (?, ?, ?, ?)`,
			n.ID.String(), n.Name, string(n.Type), idString(n.Parent)); err != nil {
			return oops.With("operation", "save node").With("node", n.Name).Wrap(err)
		}
	}
	for _, a := range snap.Attrs {
		enum, err := json.Marshal(a.Spec.Enum)
		if err != nil {
			return oops.With("operation", "encode enum").With("attr", a.Spec.Name).Wrap(err)
		}
		var value any
		if a.Value != nil {
			value = string(a.Value)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO attrs (node, name, kind, multi, enum, value) VALUES (?, ?, ?, ?, ?, ?)`,
			a.Node.String(), a.Spec.Name, int(a.Spec.Kind), a.Spec.Multi, string(enum), value); err != nil {
			return oops.With("operation", "save attr").With("attr", a.Spec.Name).Wrap(err)
		}
	}
	for _, c := range snap.Connections {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO connections (src, dst, attr, idx) VALUES (?, ?, ?, ?)`,
			c.Src.String(), c.Dst.Node.String(), c.Dst.Attr, c.Dst.Index); err != nil {
			return oops.With("operation", "save connection").With("attr", c.Dst.Attr).Wrap(err)
		}
	}
	for _, s := range snap.Skin {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO skin_weights (cluster, joint, weight) VALUES (?, ?, ?)`,
			s.Cluster.String(), s.Joint.String(), s.Weight); err != nil {
			return oops.With("operation", "save skin weight").Wrap(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return oops.With("operation", "commit save").Wrap(err)
	}
	return nil
}

// Load reads the file into a new scene.
func (f *SceneFile) Load(ctx context.Context) (*scene.Memory, error) {
	snap := &scene.Snapshot{}

	if err := f.each(ctx, `SELECT id, name, type, parent FROM nodes ORDER BY seq`, func(rows *sql.Rows) error {
		var id, name, typ, parent string
		if err := rows.Scan(&id, &name, &typ, &parent); err != nil {
			return err
		}
		nid, err := scene.ParseNodeID(id)
		if err != nil {
			return err
		}
		pid, err := parseOptionalID(parent)
		if err != nil {
			return err
		}
		snap.Nodes = append(snap.Nodes, scene.NodeRecord{ID: nid, Name: name, Type: scene.NodeType(typ), Parent: pid})
		return nil
	}); err != nil {
		return nil, oops.With("operation", "load nodes").Wrap(err)
	}

	if err := f.each(ctx, `SELECT node, name, kind, multi, enum, value FROM attrs ORDER BY seq`, func(rows *sql.Rows) error {
		var (
			node, name, enum string
			kind             int
			multi            bool
			value            sql.NullString
		)
		if err := rows.Scan(&node, &name, &kind, &multi, &enum, &value); err != nil {
			return err
		}
		nid, err := scene.ParseNodeID(node)
		if err != nil {
			return err
		}
		rec := scene.AttrRecord{Node: nid, Spec: scene.AttrSpec{Name: name, Kind: scene.AttrKind(kind), Multi: multi}}
		if err := json.Unmarshal([]byte(enum), &rec.Spec.Enum); err != nil {
			return err
		}
		if value.Valid {
			rec.Value = json.RawMessage(value.String)
		}
		snap.Attrs = append(snap.Attrs, rec)
		return nil
	}); err != nil {
		return nil, oops.With("operation", "load attrs").Wrap(err)
	}

	if err := f.each(ctx, `SELECT src, dst, attr, idx FROM connections ORDER BY seq`, func(rows *sql.Rows) error {
		var src, dst, attr string
		var idx int
		if err := rows.Scan(&src, &dst, &attr, &idx); err != nil {
			return err
		}
		sid, err := scene.ParseNodeID(src)
		if err != nil {
			return err
		}
		did, err := scene.ParseNodeID(dst)
		if err != nil {
			return err
		}
		snap.Connections = append(snap.Connections, scene.ConnectionRecord{Src: sid, Dst: scene.Plug{Node: did, Attr: attr, Index: idx}})
		return nil
	}); err != nil {
		return nil, oops.With("operation", "load connections").Wrap(err)
	}

	if err := f.each(ctx, `SELECT cluster, joint, weight FROM skin_weights ORDER BY cluster, joint`, func(rows *sql.Rows) error {
		var cluster, joint string
		var weight float64
		if err := rows.Scan(&cluster, &joint, &weight); err != nil {
			return err
		}
		cid, err := scene.ParseNodeID(cluster)
		if err != nil {
			return err
		}
		jid, err := scene.ParseNodeID(joint)
		if err != nil {
			return err
		}
		snap.Skin = append(snap.Skin, scene.SkinRecord{Cluster: cid, Joint: jid, Weight: weight})
		return nil
	}); err != nil {
		return nil, oops.With("operation", "load skin weights").Wrap(err)
	}

	return scene.Restore(snap)
}

func (f *SceneFile) each(ctx context.Context, query string, fn func(*sql.Rows) error) error {
	rows, err := f.db.QueryContext(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// SaveFile writes m to a scene file at path.
func SaveFile(ctx context.Context, path string, m *scene.Memory) error {
	f, err := Open(ctx, path)
	if err != nil {
		return err
	}
	defer f.Close()
	return f.Save(ctx, m)
}

// LoadFile reads the scene file at path.
func LoadFile(ctx context.Context, path string) (*scene.Memory, error) {
	f, err := Open(ctx, path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return f.Load(ctx)
}

func idString(id scene.NodeID) string {
	if scene.IsNull(id) {
		return ""
	}
	return id.String()
}

func parseOptionalID(s string) (scene.NodeID, error) {
	if s == "" {
		return scene.Null, nil
	}
	return scene.ParseNodeID(s)
}
