// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package scene

// Descendants returns every DAG descendant of id in depth-first post-order
// (children before their parent). id itself is not included.
func Descendants(g Graph, id NodeID) []NodeID {
	var out []NodeID
	var walk func(NodeID)
	walk = func(n NodeID) {
		for _, c := range g.Children(n) {
			walk(c)
			out = append(out, c)
		}
	}
	walk(id)
	return out
}

// Ancestors returns the DAG parents of id, nearest first.
func Ancestors(g Graph, id NodeID) []NodeID {
	var out []NodeID
	for p := g.Parent(id); !IsNull(p); p = g.Parent(p) {
		out = append(out, p)
	}
	return out
}

// Depth returns the number of DAG ancestors of id.
func Depth(g Graph, id NodeID) int {
	return len(Ancestors(g, id))
}

// IsDescendant reports whether id sits below ancestor in the DAG.
func IsDescendant(g Graph, id, ancestor NodeID) bool {
	for p := g.Parent(id); !IsNull(p); p = g.Parent(p) {
		if p == ancestor {
			return true
		}
	}
	return false
}

// FindByName returns the first node with exactly this name.
func FindByName(g Graph, name string) (NodeID, bool) {
	ids, err := g.Ls(name)
	if err != nil {
		return Null, false
	}
	for _, id := range ids {
		if g.Name(id) == name {
			return id, true
		}
	}
	return Null, false
}

// EnsureAttr adds attr if the node does not carry it yet.
func EnsureAttr(g Graph, id NodeID, spec AttrSpec) error {
	if g.HasAttr(id, spec.Name) {
		return nil
	}
	return g.AddAttr(id, spec)
}

// String reads a string attribute, returning "" when absent.
func String(g Graph, id NodeID, attr string) string {
	v, err := g.GetAttr(id, attr)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Bool reads a bool attribute, returning false when absent.
func Bool(g Graph, id NodeID, attr string) bool {
	v, err := g.GetAttr(id, attr)
	if err != nil {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Input returns the single node connected into attr, or Null.
func Input(g Graph, id NodeID, attr string) NodeID {
	in := g.Inputs(id, attr)
	if len(in) == 0 {
		return Null
	}
	return in[0]
}
