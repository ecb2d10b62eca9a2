// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

//go:build tools

// Package main pins test dependencies used only by build-tagged suites.
package main

import (
	_ "github.com/onsi/ginkgo/v2"
	_ "github.com/onsi/gomega"
	_ "go.uber.org/goleak"
)
