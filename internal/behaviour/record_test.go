// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package behaviour_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crabrig/crab/internal/behaviour"
	"github.com/crabrig/crab/pkg/errutil"
)

func threeRecords() (behaviour.Records, behaviour.Record, behaviour.Record, behaviour.Record) {
	b1 := behaviour.NewRecord("Constrain", nil)
	b2 := behaviour.NewRecord("Constrain", nil)
	b3 := behaviour.NewRecord("Constrain", nil)
	var rs behaviour.Records
	rs = rs.Insert(b1, -1)
	rs = rs.Insert(b2, -1)
	rs = rs.Insert(b3, -1)
	return rs, b1, b2, b3
}

func TestRecords_ShiftAndRemove(t *testing.T) {
	rs, b1, b2, b3 := threeRecords()

	shifted, err := rs.Shift(b1.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b2.ID, b3.ID, b1.ID}, shifted.IDs())
	assert.Equal(t, []uuid.UUID{b1.ID, b2.ID, b3.ID}, rs.IDs(), "shift must not mutate the receiver")

	removed, err := shifted.Remove(b2.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{b3.ID, b1.ID}, removed.IDs())
}

func TestRecords_ShiftClamps(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		want   func(b1, b2, b3 behaviour.Record) []uuid.UUID
	}{
		{"past end", 10, func(b1, b2, b3 behaviour.Record) []uuid.UUID { return []uuid.UUID{b1.ID, b3.ID, b2.ID} }},
		{"past start", -10, func(b1, b2, b3 behaviour.Record) []uuid.UUID { return []uuid.UUID{b2.ID, b1.ID, b3.ID} }},
		{"zero", 0, func(b1, b2, b3 behaviour.Record) []uuid.UUID { return []uuid.UUID{b1.ID, b2.ID, b3.ID} }},
		{"back one", -1, func(b1, b2, b3 behaviour.Record) []uuid.UUID { return []uuid.UUID{b2.ID, b1.ID, b3.ID} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, b1, b2, b3 := threeRecords()
			got, err := rs.Shift(b2.ID, tt.offset)
			require.NoError(t, err)
			assert.Equal(t, tt.want(b1, b2, b3), got.IDs())
		})
	}
}

func TestRecords_InsertAtIndex(t *testing.T) {
	rs, b1, b2, b3 := threeRecords()
	b4 := behaviour.NewRecord("Constrain", map[string]any{"driven": "CTL_Head_1_MD"})

	got := rs.Insert(b4, 1)
	assert.Equal(t, []uuid.UUID{b1.ID, b4.ID, b2.ID, b3.ID}, got.IDs())
	assert.Len(t, rs, 3)
}

func TestRecords_UnknownID(t *testing.T) {
	rs, _, _, _ := threeRecords()

	_, err := rs.Remove(uuid.New())
	errutil.AssertErrorCode(t, err, behaviour.ErrNotFound)

	_, err = rs.Shift(uuid.New(), 1)
	errutil.AssertErrorCode(t, err, behaviour.ErrNotFound)
}

func TestRecords_EncodeDecode(t *testing.T) {
	empty, err := behaviour.Decode("")
	require.NoError(t, err)
	assert.Empty(t, empty)

	var none behaviour.Records
	data, err := none.Encode()
	require.NoError(t, err)
	assert.Equal(t, "[]", data)

	rs, _, _, _ := threeRecords()
	rs[0].Options["driven"] = "CTL_Head_1_MD"
	data, err = rs.Encode()
	require.NoError(t, err)

	back, err := behaviour.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, rs.IDs(), back.IDs())
	assert.Equal(t, "CTL_Head_1_MD", back[0].Options["driven"])

	_, err = behaviour.Decode("{not json")
	errutil.AssertErrorCode(t, err, "INVALID_BEHAVIOUR_DATA")
}
