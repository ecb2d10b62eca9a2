// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package naming produces and parses node names of the form
// PREFIX_Description_Counter_SIDE.
package naming

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/crabrig/crab/internal/scene"
)

// Node role prefixes.
const (
	Skeleton  = "SKL"
	Control   = "CTL"
	Org       = "ORG"
	Zero      = "ZRO"
	Offset    = "OFF"
	Mechanism = "MEC"
	Meta      = "META"
	Guide     = "GDE"
	Locator   = "LOC"
	Snap      = "SNAP"
	Layer     = "LYR"
)

// Location suffixes.
const (
	Left   = "LF"
	Right  = "RT"
	Middle = "MD"
	Front  = "FR"
	Back   = "BK"
	Top    = "TP"
	Bottom = "BT"
)

// Sides lists every location suffix.
var Sides = []string{Left, Right, Middle, Front, Back, Top, Bottom}

// Exists reports whether a node called name is in the scene.
type Exists func(name string) bool

// SceneExists adapts a Graph to an Exists check.
func SceneExists(g scene.Graph) Exists {
	return func(name string) bool {
		_, ok := scene.FindByName(g, name)
		return ok
	}
}

// Make returns the first free name PREFIX_Description_N_SIDE with N starting
// at counter. A counter below 1 starts at 1.
func Make(exists Exists, prefix, description, side string, counter int) string {
	if counter < 1 {
		counter = 1
	}
	description = Description(description)
	for {
		name := Compose(prefix, description, counter, side)
		if exists == nil || !exists(name) {
			return name
		}
		counter++
	}
}

// MakeName is Make against a scene.
func MakeName(g scene.Graph, prefix, description, side string, counter int) string {
	return Make(SceneExists(g), prefix, description, side, counter)
}

// Compose joins the four fields without checking uniqueness.
func Compose(prefix, description string, counter int, side string) string {
	return strings.Join([]string{prefix, description, strconv.Itoa(counter), side}, "_")
}

// Description converts free text into a camelCase description with no
// underscores. Empty input yields "Unnamed".
func Description(s string) string {
	var b strings.Builder
	upper := false
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = b.Len() > 0
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		b.WriteRune(r)
	}
	if b.Len() == 0 {
		return "Unnamed"
	}
	return b.String()
}

func fields(name string) []string {
	if i := strings.LastIndex(name, ":"); i >= 0 {
		name = name[i+1:]
	}
	return strings.Split(name, "_")
}

func field(name string, i int) string {
	f := fields(name)
	if i >= len(f) {
		return ""
	}
	return f[i]
}

// Prefix returns the prefix field of name.
func Prefix(name string) string {
	return field(name, 0)
}

// DescriptionOf returns the description field of name.
func DescriptionOf(name string) string {
	return field(name, 1)
}

// Counter returns the counter field of name, or 0 if it is not a number.
func Counter(name string) int {
	n, err := strconv.Atoi(field(name, 2))
	if err != nil {
		return 0
	}
	return n
}

// Side returns the side field of name.
func Side(name string) string {
	return field(name, 3)
}

// Mirror swaps the LF/RT side of name. Names on other sides come back unchanged.
func Mirror(name string) string {
	switch Side(name) {
	case Left:
		return strings.TrimSuffix(name, "_"+Left) + "_" + Right
	case Right:
		return strings.TrimSuffix(name, "_"+Right) + "_" + Left
	default:
		return name
	}
}
