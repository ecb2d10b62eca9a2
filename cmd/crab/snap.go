// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/crabrig/crab/internal/snap"
)

func newSnapCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snap",
		Short: "Store and apply node-to-node offsets",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "create <label> <source> <target>",
		Short: "Store the offset of target relative to source",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := a.loadScene(ctx, false)
			if err != nil {
				return err
			}
			source, err := nodeByName(g, args[1])
			if err != nil {
				return err
			}
			target, err := nodeByName(g, args[2])
			if err != nil {
				return err
			}
			if _, err := snap.Create(g, args[0], source, target); err != nil {
				return err
			}
			if err := a.saveScene(ctx, g); err != nil {
				return err
			}
			cmd.Printf("stored snap %s: %s -> %s\n", args[0], args[1], args[2])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "match <label>",
		Short: "Move every target of label back onto its stored offset",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := a.loadScene(ctx, false)
			if err != nil {
				return err
			}
			moved, err := snap.Match(g, args[0])
			if err != nil {
				return err
			}
			if err := a.saveScene(ctx, g); err != nil {
				return err
			}
			cmd.Printf("matched %d node(s)\n", len(moved))
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List stored snaps",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			g, err := a.loadScene(cmd.Context(), false)
			if err != nil {
				return err
			}
			var rows [][]string
			for _, label := range snap.Labels(g) {
				for _, rec := range snap.Find(g, label) {
					rows = append(rows, []string{rec.Label, g.Name(rec.Source), g.Name(rec.Target)})
				}
			}
			renderTable(cmd.OutOrStdout(), "no snaps", []string{"LABEL", "SOURCE", "TARGET"}, rows)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <label>",
		Short: "Delete every snap stored under label",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			g, err := a.loadScene(ctx, false)
			if err != nil {
				return err
			}
			if err := snap.Delete(g, args[0]); err != nil {
				return err
			}
			if err := a.saveScene(ctx, g); err != nil {
				return err
			}
			cmd.Printf("deleted snap %s\n", args[0])
			return nil
		},
	})
	return cmd
}
