// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package scene

import (
	"encoding/json"
	"fmt"
	"sort"

	"cogentcore.org/core/math32"
	"github.com/samber/oops"
)

// NodeRecord is the persisted form of a node.
type NodeRecord struct {
	ID     NodeID
	Name   string
	Type   NodeType
	Parent NodeID
}

// AttrRecord is the persisted form of an attribute. Value is JSON.
type AttrRecord struct {
	Node  NodeID
	Spec  AttrSpec
	Value json.RawMessage
}

// ConnectionRecord is the persisted form of a message connection.
type ConnectionRecord struct {
	Src NodeID
	Dst Plug
}

// SkinRecord is one persisted skin weight.
type SkinRecord struct {
	Cluster NodeID
	Joint   NodeID
	Weight  float64
}

// Snapshot is a complete, order-preserving copy of a Memory scene.
type Snapshot struct {
	Nodes       []NodeRecord
	Attrs       []AttrRecord
	Connections []ConnectionRecord
	Skin        []SkinRecord
}

// Snapshot copies the scene. Nodes are emitted parents-first.
func (m *Memory) Snapshot() (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := &Snapshot{}
	emitted := make(map[NodeID]bool, len(m.nodes))
	var emit func(id NodeID) error
	emit = func(id NodeID) error {
		if emitted[id] {
			return nil
		}
		n := m.nodes[id]
		if !IsNull(n.parent) {
			if err := emit(n.parent); err != nil {
				return err
			}
		}
		emitted[id] = true
		snap.Nodes = append(snap.Nodes, NodeRecord{ID: id, Name: n.name, Type: n.typ, Parent: n.parent})
		for _, name := range n.attrOrder {
			a := n.attrs[name]
			var raw json.RawMessage
			if a.spec.Kind != KindMessage {
				b, err := json.Marshal(a.value)
				if err != nil {
					return oops.In("scene").With("node", n.name).With("attr", name).Wrap(err)
				}
				raw = b
			}
			snap.Attrs = append(snap.Attrs, AttrRecord{Node: id, Spec: a.spec, Value: raw})
		}
		return nil
	}
	for _, id := range m.order {
		if err := emit(id); err != nil {
			return nil, err
		}
	}

	for _, id := range m.order {
		for _, p := range m.outputs[id] {
			snap.Connections = append(snap.Connections, ConnectionRecord{Src: id, Dst: p})
		}
	}

	clusters := make([]NodeID, 0, len(m.weights))
	for c := range m.weights {
		clusters = append(clusters, c)
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].Compare(clusters[j]) < 0 })
	for _, c := range clusters {
		joints := make([]NodeID, 0, len(m.weights[c]))
		for j := range m.weights[c] {
			joints = append(joints, j)
		}
		sort.Slice(joints, func(i, k int) bool { return joints[i].Compare(joints[k]) < 0 })
		for _, j := range joints {
			snap.Skin = append(snap.Skin, SkinRecord{Cluster: c, Joint: j, Weight: m.weights[c][j]})
		}
	}
	return snap, nil
}

// Restore builds a Memory scene from a snapshot.
func Restore(snap *Snapshot) (*Memory, error) {
	m := NewMemory()
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, n := range snap.Nodes {
		if _, err := m.createNodeLocked(n.ID, n.Type, n.Name, n.Parent); err != nil {
			return nil, err
		}
	}
	for _, a := range snap.Attrs {
		n, ok := m.nodes[a.Node]
		if !ok {
			return nil, notFound(a.Node)
		}
		var value any
		if a.Spec.Kind != KindMessage {
			v, err := decodeValue(a.Spec.Kind, a.Value)
			if err != nil {
				return nil, oops.In("scene").With("node", n.name).With("attr", a.Spec.Name).Wrap(err)
			}
			value = v
		}
		if existing, ok := n.attrs[a.Spec.Name]; ok {
			existing.value = value
			continue
		}
		n.addAttr(a.Spec, value)
	}
	for _, c := range snap.Connections {
		d, ok := m.nodes[c.Dst.Node]
		if !ok {
			return nil, notFound(c.Dst.Node)
		}
		a, ok := d.attrs[c.Dst.Attr]
		if !ok {
			return nil, attrNotFound(d, c.Dst.Attr)
		}
		a.inputs[c.Dst.Index] = c.Src
		m.outputs[c.Src] = append(m.outputs[c.Src], c.Dst)
	}
	for _, s := range snap.Skin {
		if m.weights[s.Cluster] == nil {
			m.weights[s.Cluster] = make(map[NodeID]float64)
		}
		m.weights[s.Cluster][s.Joint] = s.Weight
	}
	return m, nil
}

func decodeValue(k AttrKind, raw json.RawMessage) (any, error) {
	switch k {
	case KindFloat:
		return decode[float64](raw)
	case KindInt, KindEnum:
		return decode[int](raw)
	case KindBool:
		return decode[bool](raw)
	case KindString:
		return decode[string](raw)
	case KindMatrix:
		return decode[math32.Matrix4](raw)
	case KindVector:
		return decode[math32.Vector3](raw)
	case KindPoints:
		return decode[[]Point](raw)
	case KindFloats:
		return decode[[]float64](raw)
	default:
		return nil, fmt.Errorf("cannot decode %s attribute", k)
	}
}

func decode[T any](raw json.RawMessage) (any, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}
