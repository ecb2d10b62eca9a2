// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// renderTable formats rows under headers. An empty table prints a dimmed
// placeholder instead.
func renderTable(w io.Writer, empty string, headers []string, rows [][]string) {
	if len(rows) == 0 {
		fmt.Fprintln(w, dimStyle.Render(empty))
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.String())
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return oops.In("cli").Wrap(err)
	}
	fmt.Fprintln(w, string(data))
	return nil
}

// parseAssignments turns key=value arguments into a map. Values are read as
// YAML scalars or flow collections, so 3 is an int, true a bool and [a, b]
// a list.
func parseAssignments(args []string) (map[string]any, error) {
	out := make(map[string]any, len(args))
	for _, arg := range args {
		key, raw, ok := strings.Cut(arg, "=")
		if !ok || key == "" {
			return nil, oops.In("cli").Code("INVALID_ARGUMENT").With("argument", arg).
				Hint("use key=value").Errorf("malformed assignment %q", arg)
		}
		var value any
		if err := yaml.Unmarshal([]byte(raw), &value); err != nil {
			return nil, oops.In("cli").Code("INVALID_ARGUMENT").With("argument", arg).Wrap(err)
		}
		if value == nil && raw != "null" && raw != "~" {
			value = raw
		}
		out[key] = value
	}
	return out, nil
}

// formatOptions prints an option map as sorted key=value pairs.
func formatOptions(opts map[string]any) string {
	parts := make([]string, 0, len(opts))
	for _, k := range slices.Sorted(maps.Keys(opts)) {
		parts = append(parts, fmt.Sprintf("%s=%v", k, opts[k]))
	}
	return strings.Join(parts, " ")
}
