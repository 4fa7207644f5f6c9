// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mdl

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/morpho/field"
)

// ScalarFunc is a user-supplied closure over a vertex/element position and
// zero or more co-located field values, the Go-side counterpart of the host
// scripting surface's `(x[, field_1[, ...]]) -> scalar` closures (spec
// §6.1).
type ScalarFunc func(x []float64, fields ...[]float64) float64

// TangentFunc is supplied alongside LineIntegral to provide the host's
// `tangent()` intrinsic: the unit tangent of the current element (spec
// §6.1).
type TangentFunc func(c *Context, id int) []float64

// ScalarPotential is the grade-0 vertex-centered functional that evaluates a
// user closure of position and optional co-located field values (spec
// §4.4.3). Gradient is numeric.
type ScalarPotential struct {
	base
	Fn     ScalarFunc
	Fields []*field.Field
}

// NewScalarPotential returns the vertex-centered user-closure functional.
func NewScalarPotential(fn ScalarFunc, fields ...*field.Field) *ScalarPotential {
	return &ScalarPotential{base: base{grade: 0, sym: SymmetryNone}, Fn: fn, Fields: fields}
}

func (o *ScalarPotential) Integrand(c *Context, id int) (float64, error) {
	if o.Fn == nil {
		return 0, chk.Err("mdl: ScalarPotential: no closure supplied")
	}
	args := make([][]float64, len(o.Fields))
	for i, f := range o.Fields {
		args[i] = f.GetItem(0, id, 0)
	}
	return o.Fn(c.X(id), args...), nil
}

func (o *ScalarPotential) Gradient(c *Context, id int, out [][]float64) error {
	return numericPositionGradient(c, o, id, out)
}

// LineIntegral is the grade-1 general-purpose numerical quadrature of a user
// closure along an edge, multiplied by the edge length; the closure is
// evaluated at the edge midpoint with the `tangent()` intrinsic supplied via
// Tangent (spec §4.4.3, §6.1).
type LineIntegral struct {
	base
	Fn      ScalarFunc
	Fields  []*field.Field
	Tangent TangentFunc
}

// NewLineIntegral returns the user-closure line-integral functional.
func NewLineIntegral(fn ScalarFunc, tangent TangentFunc, fields ...*field.Field) *LineIntegral {
	return &LineIntegral{base: base{grade: 1, sym: SymmetryNone}, Fn: fn, Fields: fields, Tangent: tangent}
}

func (o *LineIntegral) verts(c *Context, id int) (v []int, x0, x1 []float64, err error) {
	v = c.Mesh.ElementVertices(1, id)
	if len(v) != 2 {
		return nil, nil, nil, chk.Err("mdl: LineIntegral: element %d has %d vertices, want 2", id, len(v))
	}
	return v, c.X(v[0]), c.X(v[1]), nil
}

func (o *LineIntegral) Integrand(c *Context, id int) (float64, error) {
	if o.Fn == nil {
		return 0, chk.Err("mdl: LineIntegral: no closure supplied")
	}
	_, x0, x1, err := o.verts(c, id)
	if err != nil {
		return 0, err
	}
	mid := scale3(0.5, add3(x0, x1))
	args := make([][]float64, len(o.Fields))
	for i, f := range o.Fields {
		args[i] = midItem(f, c.Mesh.ElementVertices(1, id))
	}
	return o.Fn(mid, args...) * norm3(sub3(x1, x0)), nil
}

func (o *LineIntegral) Gradient(c *Context, id int, out [][]float64) error {
	return numericPositionGradient(c, o, id, out)
}

// AreaIntegral is the general-purpose numerical quadrature of a user closure
// over a triangle, evaluated at the centroid and multiplied by the triangle
// area (spec §4.4.3).
type AreaIntegral struct {
	base
	Fn     ScalarFunc
	Fields []*field.Field
}

// NewAreaIntegral returns the user-closure area-integral functional.
func NewAreaIntegral(fn ScalarFunc, fields ...*field.Field) *AreaIntegral {
	return &AreaIntegral{base: base{grade: 2, sym: SymmetryNone}, Fn: fn, Fields: fields}
}

func (o *AreaIntegral) verts(c *Context, id int) (v []int, x [3][]float64, err error) {
	v = c.Mesh.ElementVertices(2, id)
	if len(v) != 3 {
		return nil, x, chk.Err("mdl: AreaIntegral: element %d has %d vertices, want 3", id, len(v))
	}
	for k, w := range v {
		x[k] = c.X(w)
	}
	return v, x, nil
}

func (o *AreaIntegral) Integrand(c *Context, id int) (float64, error) {
	if o.Fn == nil {
		return 0, chk.Err("mdl: AreaIntegral: no closure supplied")
	}
	v, x, err := o.verts(c, id)
	if err != nil {
		return 0, err
	}
	centroid := scale3(1.0/3.0, add3(add3(x[0], x[1]), x[2]))
	nvec := cross3(sub3(x[1], x[0]), sub3(x[2], x[0]))
	args := make([][]float64, len(o.Fields))
	for i, f := range o.Fields {
		args[i] = midItem(f, v)
	}
	return o.Fn(centroid, args...) * triArea(nvec), nil
}

func (o *AreaIntegral) Gradient(c *Context, id int, out [][]float64) error {
	return numericPositionGradient(c, o, id, out)
}

// midItem averages a grade-0 field's items over verts, the interpolated
// field value presented to a user closure at an element's representative
// point.
func midItem(f *field.Field, verts []int) []float64 {
	sum := f.GetItem(0, verts[0], 0)
	out := append([]float64(nil), sum...)
	for _, v := range verts[1:] {
		item := f.GetItem(0, v, 0)
		for k := range out {
			out[k] += item[k]
		}
	}
	n := float64(len(verts))
	for k := range out {
		out[k] /= n
	}
	return out
}
