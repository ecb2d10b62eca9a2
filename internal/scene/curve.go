// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Crab Contributors

package scene

import (
	"github.com/samber/oops"
)

// CurveForm is the closure of a nurbs curve.
type CurveForm int

// Curve forms.
const (
	FormOpen CurveForm = iota
	FormClosed
	FormPeriodic
)

// Curve shape attributes.
const (
	AttrCVs    = "cvs"
	AttrDegree = "degree"
	AttrKnots  = "knots"
	AttrForm   = "form"
)

// Curve is the editable data of a nurbs curve shape, cvs in object space.
type Curve struct {
	CVs    []Point   `json:"cvs"`
	Degree int       `json:"degree"`
	Knots  []float64 `json:"knots"`
	Form   CurveForm `json:"form"`
}

// CreateCurve creates a curve shape under parent.
func CreateCurve(g Graph, name string, parent NodeID, c Curve) (NodeID, error) {
	shape, err := g.CreateNode(TypeCurve, name, parent)
	if err != nil {
		return Null, err
	}
	for _, spec := range []AttrSpec{
		{Name: AttrCVs, Kind: KindPoints},
		{Name: AttrDegree, Kind: KindInt},
		{Name: AttrKnots, Kind: KindFloats},
		{Name: AttrForm, Kind: KindEnum, Enum: []string{"open", "closed", "periodic"}},
	} {
		if err := g.AddAttr(shape, spec); err != nil {
			return Null, err
		}
	}
	if err := WriteCurve(g, shape, c); err != nil {
		return Null, err
	}
	return shape, nil
}

// WriteCurve overwrites the data of an existing curve shape.
func WriteCurve(g Graph, shape NodeID, c Curve) error {
	if err := g.SetAttr(shape, AttrCVs, c.CVs); err != nil {
		return err
	}
	if err := g.SetAttr(shape, AttrDegree, c.Degree); err != nil {
		return err
	}
	if err := g.SetAttr(shape, AttrKnots, c.Knots); err != nil {
		return err
	}
	return g.SetAttr(shape, AttrForm, int(c.Form))
}

// ReadCurve reads the data of a curve shape.
func ReadCurve(g Graph, shape NodeID) (Curve, error) {
	if g.Type(shape) != TypeCurve {
		return Curve{}, oops.In("scene").With("node", g.Name(shape)).Errorf("not a curve shape")
	}
	var c Curve
	cvs, err := g.GetAttr(shape, AttrCVs)
	if err != nil {
		return Curve{}, err
	}
	c.CVs, _ = cvs.([]Point)
	degree, err := g.GetAttr(shape, AttrDegree)
	if err != nil {
		return Curve{}, err
	}
	c.Degree, _ = degree.(int)
	knots, err := g.GetAttr(shape, AttrKnots)
	if err != nil {
		return Curve{}, err
	}
	c.Knots, _ = knots.([]float64)
	form, err := g.GetAttr(shape, AttrForm)
	if err != nil {
		return Curve{}, err
	}
	f, _ := form.(int)
	c.Form = CurveForm(f)
	return c, nil
}

// CurveShapes returns the curve shapes directly under a transform.
func CurveShapes(g Graph, transform NodeID) []NodeID {
	var out []NodeID
	for _, c := range g.Children(transform) {
		if g.Type(c) == TypeCurve {
			out = append(out, c)
		}
	}
	return out
}

// CircleCurve returns a degree-3 periodic circle of the given radius in the XZ plane.
func CircleCurve(radius float64) Curve {
	const s = 0.7836
	pts := []Point{
		{s, 0, -s}, {0, 0, -1.1081}, {-s, 0, -s}, {-1.1081, 0, 0},
		{-s, 0, s}, {0, 0, 1.1081}, {s, 0, s}, {1.1081, 0, 0},
	}
	cvs := make([]Point, 0, len(pts)+3)
	for _, p := range pts {
		cvs = append(cvs, Point{p[0] * radius, p[1] * radius, p[2] * radius})
	}
	cvs = append(cvs, cvs[0], cvs[1], cvs[2])
	knots := make([]float64, 0, len(cvs)+2)
	for i := -2; i <= len(cvs)-1; i++ {
		knots = append(knots, float64(i))
	}
	return Curve{CVs: cvs, Degree: 3, Knots: knots, Form: FormPeriodic}
}
