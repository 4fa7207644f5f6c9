// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mdl

import "github.com/cpmech/morpho/field"

// EquiElement is the grade-0 vertex-centered regularizer that penalizes
// variance in the sizes of the elements incident on a vertex (spec
// §4.4.3), nudging a mesh towards uniform element sizing. TargetGrade
// selects which incident elements are sized (1 for edge length, 2 for
// triangle area, 3 for tetrahedron volume); Weight, if set, is a per-element
// field of grade TargetGrade scaling each element's size before the
// variance is taken. Gradient is numerical.
type EquiElement struct {
	base
	TargetGrade int
	Weight      *field.Field
}

// NewEquiElement returns the element-size-variance regularizer over
// incident elements of targetGrade.
func NewEquiElement(targetGrade int) *EquiElement {
	return &EquiElement{base: base{grade: 0, sym: SymmetryNone}, TargetGrade: targetGrade}
}

func (o *EquiElement) incident(c *Context, v int) ([]int, error) {
	return c.Mesh.FindNeighbors(0, v, o.TargetGrade)
}

// elementSize returns the length/area/volume of element eid of grade
// o.TargetGrade, scaled by Weight if present.
func (o *EquiElement) elementSize(c *Context, eid int) float64 {
	v := c.Mesh.ElementVertices(o.TargetGrade, eid)
	var s float64
	switch o.TargetGrade {
	case 1:
		s = norm3(sub3(c.X(v[1]), c.X(v[0])))
	case 2:
		s = triArea(cross3(sub3(c.X(v[1]), c.X(v[0])), sub3(c.X(v[2]), c.X(v[0]))))
	case 3:
		e1, e2, e3 := sub3(c.X(v[1]), c.X(v[0])), sub3(c.X(v[2]), c.X(v[0])), sub3(c.X(v[3]), c.X(v[0]))
		s = absf(dot3(e1, cross3(e2, e3))) / 6
	}
	if o.Weight != nil {
		s *= o.Weight.GetItem(o.TargetGrade, eid, 0)[0]
	}
	return s
}

func (o *EquiElement) Integrand(c *Context, id int) (float64, error) {
	elems, err := o.incident(c, id)
	if err != nil {
		return 0, err
	}
	if len(elems) == 0 {
		return 0, nil
	}
	sizes := make([]float64, len(elems))
	mean := 0.0
	for i, e := range elems {
		sizes[i] = o.elementSize(c, e)
		mean += sizes[i]
	}
	mean /= float64(len(sizes))
	variance := 0.0
	for _, s := range sizes {
		d := s - mean
		variance += d * d
	}
	return variance / float64(len(sizes)), nil
}

// Dependencies returns every vertex sharing an incident element with id.
func (o *EquiElement) Dependencies(c *Context, id int) []int {
	elems, err := o.incident(c, id)
	if err != nil {
		return nil
	}
	seen := map[int]bool{}
	var out []int
	for _, e := range elems {
		for _, v := range c.Mesh.ElementVertices(o.TargetGrade, e) {
			if v != id && !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}
