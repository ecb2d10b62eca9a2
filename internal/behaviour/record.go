// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package behaviour

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// ErrNotFound is the code returned when no record has the requested id.
const ErrNotFound = "BEHAVIOUR_NOT_FOUND"

// Record is one behaviour assigned to a rig.
type Record struct {
	ID      uuid.UUID      `json:"id"`
	Type    string         `json:"type"`
	Options map[string]any `json:"options"`
}

// NewRecord creates a record with a fresh id.
func NewRecord(typ string, options map[string]any) Record {
	opts := maps.Clone(options)
	if opts == nil {
		opts = map[string]any{}
	}
	return Record{ID: uuid.New(), Type: typ, Options: opts}
}

// Records is the ordered behaviour list.
type Records []Record

// Decode parses the serialized list. The empty string is an empty list.
func Decode(data string) (Records, error) {
	if data == "" {
		return Records{}, nil
	}
	var out Records
	if err := json.Unmarshal([]byte(data), &out); err != nil {
		return nil, oops.In("behaviour").Code("INVALID_BEHAVIOUR_DATA").Wrap(err)
	}
	if out == nil {
		out = Records{}
	}
	return out, nil
}

// Encode serializes the list.
func (rs Records) Encode() (string, error) {
	if rs == nil {
		rs = Records{}
	}
	data, err := json.Marshal(rs)
	if err != nil {
		return "", oops.In("behaviour").Wrap(err)
	}
	return string(data), nil
}

// IDs returns the record ids in order.
func (rs Records) IDs() []uuid.UUID {
	out := make([]uuid.UUID, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

// Index returns the position of id, or -1.
func (rs Records) Index(id uuid.UUID) int {
	return slices.IndexFunc(rs, func(r Record) bool { return r.ID == id })
}

// Insert returns a list with r at index, clamped to the list bounds. A
// negative index appends.
func (rs Records) Insert(r Record, index int) Records {
	if index < 0 || index > len(rs) {
		index = len(rs)
	}
	return slices.Insert(slices.Clone(rs), index, r)
}

// Remove returns a list without id.
func (rs Records) Remove(id uuid.UUID) (Records, error) {
	i := rs.Index(id)
	if i < 0 {
		return nil, oops.In("behaviour").Code(ErrNotFound).With("id", id.String()).Errorf("behaviour not found")
	}
	return slices.Delete(slices.Clone(rs), i, i+1), nil
}

// Shift moves id by offset positions, clamped to the list bounds.
func (rs Records) Shift(id uuid.UUID, offset int) (Records, error) {
	i := rs.Index(id)
	if i < 0 {
		return nil, oops.In("behaviour").Code(ErrNotFound).With("id", id.String()).Errorf("behaviour not found")
	}
	r := rs[i]
	out := slices.Delete(slices.Clone(rs), i, i+1)
	target := max(0, min(i+offset, len(out)))
	return slices.Insert(out, target, r), nil
}
