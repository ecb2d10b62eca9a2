// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package main

import (
	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

func newToolCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tool",
		Short: "List and run tool plugins",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the installed tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tools := a.factories.Tools.Plugins()
			rows := make([][]string, 0, len(tools))
			for _, t := range tools {
				rows = append(rows, []string{t.Identifier(), t.Version(), t.Description()})
			}
			renderTable(cmd.OutOrStdout(), "no tools", []string{"IDENTIFIER", "VERSION", "DESCRIPTION"}, rows)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "run <tool> [key=value]...",
		Short: "Run a tool against the scene",
		Long: `Run a tool. Arguments are key=value pairs read as YAML values.

  crab tool run snap-match label=arm`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			t, ok := a.factories.Tools.Request(args[0])
			if !ok {
				return oops.In("cli").Code("UNKNOWN_PLUGIN").With("tool", args[0]).Errorf("unknown tool %q", args[0])
			}
			toolArgs, err := parseAssignments(args[1:])
			if err != nil {
				return err
			}
			g, err := a.loadScene(ctx, false)
			if err != nil {
				return err
			}
			res, err := t.Run(ctx, g, toolArgs)
			if err != nil {
				return err
			}
			if err := a.saveScene(ctx, g); err != nil {
				return err
			}
			if res.Message != "" {
				cmd.Println(res.Message)
			}
			for _, n := range res.Nodes {
				cmd.Printf("  %s\n", g.Name(n))
			}
			return nil
		},
	})
	return cmd
}
