// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package main

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/crabrig/crab/internal/rig"
	"github.com/crabrig/crab/internal/scene"
)

func newBehaviourCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "behaviour",
		Aliases: []string{"behavior"},
		Short:   "Manage the ordered behaviours of a rig",
	}
	cmd.AddCommand(newBehaviourAddCmd(a))
	cmd.AddCommand(newBehaviourRemoveCmd(a))
	cmd.AddCommand(newBehaviourShiftCmd(a))
	cmd.AddCommand(newBehaviourListCmd(a))
	return cmd
}

// withRig loads the scene, runs fn on the selected rig and saves the scene
// when fn succeeds.
func (a *app) withRig(cmd *cobra.Command, name string, fn func(g *scene.Memory, r *rig.Rig) error) error {
	ctx := cmd.Context()
	g, err := a.loadScene(ctx, false)
	if err != nil {
		return err
	}
	r, err := a.findRig(g, name)
	if err != nil {
		return err
	}
	if err := fn(g, r); err != nil {
		return err
	}
	return a.saveScene(ctx, g)
}

func parseBehaviourID(s string) (uuid.UUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, oops.In("cli").Code("INVALID_ARGUMENT").With("id", s).Wrap(err)
	}
	return id, nil
}

type behaviourAddConfig struct {
	rig     string
	index   int
	options []string
}

func newBehaviourAddCmd(a *app) *cobra.Command {
	cfg := &behaviourAddConfig{}
	cmd := &cobra.Command{
		Use:   "add <type>",
		Short: "Add a behaviour to a rig",
		Long: `Add a behaviour record. It is applied, in list order, at the next build.

  crab behaviour add Constrain -o "drivers=[CTL_Head_1_MD]" -o driven=CTL_Tail_1_MD -o kind=point`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := parseAssignments(cfg.options)
			if err != nil {
				return err
			}
			return a.withRig(cmd, cfg.rig, func(_ *scene.Memory, r *rig.Rig) error {
				rec, err := r.AddBehaviour(args[0], cfg.index, options)
				if err != nil {
					return err
				}
				cmd.Printf("added behaviour %s (%s)\n", rec.ID, rec.Type)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&cfg.rig, "rig", "", "rig name (defaults to the only rig in the scene)")
	cmd.Flags().IntVarP(&cfg.index, "index", "i", rig.Append, "position in the behaviour list (-1 appends)")
	cmd.Flags().StringArrayVarP(&cfg.options, "option", "o", nil, "behaviour option as key=value (repeatable)")
	return cmd
}

func newBehaviourRemoveCmd(a *app) *cobra.Command {
	var rigName string
	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a behaviour",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBehaviourID(args[0])
			if err != nil {
				return err
			}
			return a.withRig(cmd, rigName, func(_ *scene.Memory, r *rig.Rig) error {
				if err := r.RemoveBehaviour(id); err != nil {
					return err
				}
				cmd.Printf("removed behaviour %s\n", id)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rigName, "rig", "", "rig name (defaults to the only rig in the scene)")
	return cmd
}

func newBehaviourShiftCmd(a *app) *cobra.Command {
	var rigName string
	cmd := &cobra.Command{
		Use:   "shift <id> <offset>",
		Short: "Move a behaviour up (negative) or down (positive) the list",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBehaviourID(args[0])
			if err != nil {
				return err
			}
			offset, err := strconv.Atoi(args[1])
			if err != nil {
				return oops.In("cli").Code("INVALID_ARGUMENT").With("offset", args[1]).Wrap(err)
			}
			return a.withRig(cmd, rigName, func(_ *scene.Memory, r *rig.Rig) error {
				if err := r.ShiftBehaviour(id, offset); err != nil {
					return err
				}
				cmd.Printf("shifted behaviour %s by %d\n", id, offset)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&rigName, "rig", "", "rig name (defaults to the only rig in the scene)")
	return cmd
}

func newBehaviourListCmd(a *app) *cobra.Command {
	cfg := &statusConfig{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the behaviours of a rig in application order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.loadScene(cmd.Context(), false)
			if err != nil {
				return err
			}
			r, err := a.findRig(g, cfg.rig)
			if err != nil {
				return err
			}
			records, err := r.Behaviours()
			if err != nil {
				return err
			}
			if cfg.json {
				return writeJSON(cmd.OutOrStdout(), records)
			}
			rows := make([][]string, 0, len(records))
			for i, rec := range records {
				rows = append(rows, []string{strconv.Itoa(i), rec.ID.String(), rec.Type, formatOptions(rec.Options)})
			}
			renderTable(cmd.OutOrStdout(), "no behaviours", []string{"#", "ID", "TYPE", "OPTIONS"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&cfg.rig, "rig", "", "rig name (defaults to the only rig in the scene)")
	cmd.Flags().BoolVar(&cfg.json, "json", false, "output in JSON format")
	return cmd
}
