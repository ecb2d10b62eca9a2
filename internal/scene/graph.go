// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

// Package scene defines the host scene-graph contract the rigging core is
// written against, plus Memory, a headless implementation of it.
//
// A scene is a set of typed nodes. DAG nodes (transforms, joints, shapes,
// constraints) have a parent; dependency nodes (network, skinCluster,
// displayLayer) do not. Nodes carry typed attributes and are related by
// message connections: src.message -> dst.attr[index].
package scene

import (
	"errors"

	"cogentcore.org/core/math32"
	"github.com/oklog/ulid/v2"
)

// NodeID identifies a node for its whole lifetime, independent of its name.
type NodeID = ulid.ULID

// Null is the zero NodeID. As a parent it denotes the world root.
var Null NodeID

// IsNull reports whether id is the zero NodeID.
func IsNull(id NodeID) bool {
	return id == Null
}

// ErrNodeNotFound is returned when an operation references a deleted or unknown node.
var ErrNodeNotFound = errors.New("node not found")

// ErrAttrNotFound is returned when an attribute does not exist on a node.
var ErrAttrNotFound = errors.New("attribute not found")

// NodeType names a host node type.
type NodeType string

// Node types used by the rigging core.
const (
	TypeTransform            NodeType = "transform"
	TypeJoint                NodeType = "joint"
	TypeCurve                NodeType = "nurbsCurve"
	TypeMesh                 NodeType = "mesh"
	TypeLocator              NodeType = "locator"
	TypeFollicle             NodeType = "follicle"
	TypeNetwork              NodeType = "network"
	TypeRemap                NodeType = "remapValue"
	TypeParentConstraint     NodeType = "parentConstraint"
	TypePointConstraint      NodeType = "pointConstraint"
	TypeAimConstraint        NodeType = "aimConstraint"
	TypeScaleConstraint      NodeType = "scaleConstraint"
	TypePoleVectorConstraint NodeType = "poleVectorConstraint"
	TypeIKHandle             NodeType = "ikHandle"
	TypeSkinCluster          NodeType = "skinCluster"
	TypeDisplayLayer         NodeType = "displayLayer"
)

// IsDAG reports whether nodes of this type live in the parent/child hierarchy.
func (t NodeType) IsDAG() bool {
	switch t {
	case TypeNetwork, TypeRemap, TypeSkinCluster, TypeDisplayLayer:
		return false
	default:
		return true
	}
}

// IsShape reports whether the type is a shape node (geometry under a transform).
func (t NodeType) IsShape() bool {
	switch t {
	case TypeCurve, TypeMesh, TypeLocator, TypeFollicle:
		return true
	default:
		return false
	}
}

// AttrKind is the value type of an attribute.
type AttrKind int

// Attribute kinds.
const (
	KindFloat AttrKind = iota
	KindInt
	KindBool
	KindString
	KindMatrix
	KindEnum
	KindMessage
	KindVector
	KindPoints
	KindFloats
)

func (k AttrKind) String() string {
	switch k {
	case KindFloat:
		return "float"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindString:
		return "string"
	case KindMatrix:
		return "matrix"
	case KindEnum:
		return "enum"
	case KindMessage:
		return "message"
	case KindVector:
		return "vector"
	case KindPoints:
		return "points"
	case KindFloats:
		return "floats"
	default:
		return "unknown"
	}
}

// Point is a double-precision position, used for curve cvs.
type Point [3]float64

// AttrSpec describes a custom attribute.
type AttrSpec struct {
	Name string
	Kind AttrKind
	// Multi marks an indexed (array) attribute. Only meaningful for messages.
	Multi bool
	// Enum lists the field names of an enum attribute.
	Enum []string
}

// Plug addresses one element of an attribute.
type Plug struct {
	Node  NodeID
	Attr  string
	Index int
}

// ConstraintKind selects the constraint created by CreateConstraint.
type ConstraintKind string

// Constraint kinds.
const (
	ConstraintParent     ConstraintKind = "parent"
	ConstraintPoint      ConstraintKind = "point"
	ConstraintAim        ConstraintKind = "aim"
	ConstraintScale      ConstraintKind = "scale"
	ConstraintPoleVector ConstraintKind = "poleVector"
)

// IKSolver selects the solver of an IK handle.
type IKSolver string

// IK solvers.
const (
	SolverSingleChain IKSolver = "ikSCsolver"
	SolverRotatePlane IKSolver = "ikRPsolver"
	SolverSpring      IKSolver = "ikSpringSolver"
	SolverSpline      IKSolver = "ikSplineSolver"
)

// Built-in attributes every DAG node carries.
const (
	AttrMatrix     = "matrix"
	AttrVisibility = "visibility"
	AttrDrawStyle  = "draw_style"
)

// Joint draw styles (AttrDrawStyle enum values).
const (
	DrawStyleBone = 0
	DrawStyleBox  = 1
	DrawStyleNone = 2
)

// Graph is the host scene-graph surface the rigging core consumes.
//
// Implementations are not required to be re-entrant; the core drives a
// Graph from a single goroutine.
type Graph interface {
	// CreateNode creates a node. parent is ignored for dependency nodes and
	// Null parents a DAG node under the world.
	CreateNode(t NodeType, name string, parent NodeID) (NodeID, error)
	// Delete removes a node, its DAG descendants and every connection touching them.
	Delete(id NodeID) error
	Exists(id NodeID) bool
	Name(id NodeID) string
	Rename(id NodeID, name string) error
	Type(id NodeID) NodeType

	Parent(id NodeID) NodeID
	SetParent(id, parent NodeID) error
	Children(id NodeID) []NodeID
	// Ls returns nodes whose name matches a glob pattern, in creation order.
	Ls(pattern string) ([]NodeID, error)

	AddAttr(id NodeID, spec AttrSpec) error
	HasAttr(id NodeID, attr string) bool
	Attrs(id NodeID) []string
	AttrKind(id NodeID, attr string) (AttrKind, bool)
	SetAttr(id NodeID, attr string, value any) error
	GetAttr(id NodeID, attr string) (any, error)

	// Connect wires src.message into dst. Connecting into an occupied
	// non-multi plug replaces the previous input.
	Connect(src NodeID, dst Plug) error
	Disconnect(src NodeID, dst Plug) error
	// Inputs returns the nodes connected into attr, ordered by index.
	Inputs(id NodeID, attr string) []NodeID
	// Outputs returns every plug fed by id.message.
	Outputs(id NodeID) []Plug
	// NextIndex returns the first free index of a multi message attribute.
	NextIndex(id NodeID, attr string) int

	Selection() []NodeID
	Select(ids ...NodeID)

	CreateConstraint(kind ConstraintKind, drivers []NodeID, driven NodeID, maintainOffset bool) (NodeID, error)
	CreateIKHandle(solver IKSolver, start, end NodeID) (NodeID, error)

	CreateSkinCluster(geometry NodeID, joints []NodeID) (NodeID, error)
	SetSkinWeight(cluster, joint NodeID, weight float64) error
	// SkinWeights returns, per skin cluster, the total weight a joint carries.
	SkinWeights(joint NodeID) map[NodeID]float64
}

// Identity returns the identity matrix.
func Identity() math32.Matrix4 {
	return *math32.Identity4()
}
