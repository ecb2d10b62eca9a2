// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package rig

import (
	"context"
	"maps"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/crabrig/crab/internal/behaviour"
	"github.com/crabrig/crab/internal/scene"
	"github.com/crabrig/crab/pkg/errutil"
)

// Append as an AddBehaviour index places the record last.
const Append = -1

// Behaviours returns the behaviour records of the rig in application order.
func (r *Rig) Behaviours() (behaviour.Records, error) {
	return behaviour.Decode(scene.String(r.g, r.meta, AttrBehaviourData))
}

func (r *Rig) setBehaviours(records behaviour.Records) error {
	data, err := records.Encode()
	if err != nil {
		return err
	}
	if err := r.g.SetAttr(r.meta, AttrBehaviourData, data); err != nil {
		return oops.In("rig").With("rig", r.Name()).Wrap(err)
	}
	return nil
}

// AddBehaviour stores a new record of type typ at index (Append, or any
// out-of-range index, places it last). options override the behaviour's
// defaults. The record is applied at the next Build.
func (r *Rig) AddBehaviour(typ string, index int, options map[string]any) (behaviour.Record, error) {
	b, ok := r.factories.Behaviours.Request(typ)
	if !ok {
		err := oops.In("rig").Code(ErrUnknownPlugin).With("rig", r.Name()).With("behaviour", typ).Errorf("unknown behaviour type")
		errutil.LogWarn(context.Background(), r.logger, "cannot add behaviour", err)
		return behaviour.Record{}, err
	}
	opts := b.DefaultOptions()
	if opts == nil {
		opts = map[string]any{}
	}
	maps.Copy(opts, options)

	records, err := r.Behaviours()
	if err != nil {
		return behaviour.Record{}, err
	}
	rec := behaviour.NewRecord(b.Identifier(), opts)
	if err := r.setBehaviours(records.Insert(rec, index)); err != nil {
		return behaviour.Record{}, err
	}
	return rec, nil
}

// RemoveBehaviour deletes the record with id.
func (r *Rig) RemoveBehaviour(id uuid.UUID) error {
	records, err := r.Behaviours()
	if err != nil {
		return err
	}
	records, err = records.Remove(id)
	if err != nil {
		return err
	}
	return r.setBehaviours(records)
}

// ShiftBehaviour moves the record with id by offset places, clamped to the
// ends of the list.
func (r *Rig) ShiftBehaviour(id uuid.UUID, offset int) error {
	records, err := r.Behaviours()
	if err != nil {
		return err
	}
	records, err = records.Shift(id, offset)
	if err != nil {
		return err
	}
	return r.setBehaviours(records)
}

// applyBehaviours materializes every record in order. Records of unknown
// type are skipped with a warning.
func (r *Rig) applyBehaviours(ctx context.Context) error {
	records, err := r.Behaviours()
	if err != nil {
		return err
	}
	for _, rec := range records {
		errb := oops.In("rig").With("rig", r.Name()).With("behaviour", rec.Type).With("id", rec.ID.String())
		b, ok := r.factories.Behaviours.Request(rec.Type)
		if !ok {
			errutil.LogWarn(ctx, r.logger, "skipping behaviour", errb.Code(ErrUnknownPlugin).Errorf("unknown behaviour type"))
			continue
		}
		r.signals.PerformingAction.Emit("applying " + rec.Type)
		if err := b.Apply(ctx, r, maps.Clone(rec.Options)); err != nil {
			return wrapCode(errb, ErrBehaviourFailed, err)
		}
	}
	return nil
}
