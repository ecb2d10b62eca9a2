// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Command gen-schema writes the plugin.yaml JSON Schema. With --check it
// fails instead when the file on disk is out of date.
package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/crabrig/crab/internal/plugin"
)

func main() {
	out := pflag.StringP("out", "o", filepath.Join("schemas", "plugin.schema.json"), "schema file to write")
	check := pflag.Bool("check", false, "verify the schema file is current instead of writing it")
	pflag.Parse()

	if err := run(*out, *check); err != nil {
		fmt.Fprintf(os.Stderr, "gen-schema: %v\n", err)
		os.Exit(1)
	}
}

func run(outPath string, check bool) error {
	schema, err := plugin.GenerateSchema()
	if err != nil {
		return oops.In("gen-schema").Wrap(err)
	}

	if check {
		current, err := os.ReadFile(outPath) //nolint:gosec // path is a flag value
		if err != nil {
			return oops.In("gen-schema").With("path", outPath).Wrap(err)
		}
		if !bytes.Equal(bytes.TrimSpace(current), bytes.TrimSpace(schema)) {
			return oops.In("gen-schema").With("path", outPath).Hint("run gen-schema").Errorf("%s is out of date", outPath)
		}
		fmt.Printf("%s is current\n", outPath)
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o750); err != nil {
		return oops.In("gen-schema").With("path", outPath).Wrap(err)
	}
	if err := os.WriteFile(outPath, schema, 0o600); err != nil {
		return oops.In("gen-schema").With("path", outPath).Wrap(err)
	}
	fmt.Printf("Generated %s\n", outPath)
	return nil
}
