// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mdl

import "github.com/cpmech/gosl/chk"

// Length is the grade-1 edge-length functional: integrand = ||x1-x0|| (spec
// §4.4.1, Table). Gradient is analytic and the functional is symmetry-additive.
type Length struct{ base }

// NewLength returns the edge-length functional.
func NewLength() *Length {
	return &Length{base{grade: 1, sym: SymmetryAdd}}
}

func (o *Length) verts(c *Context, id int) (x0, x1 []float64, err error) {
	v := c.Mesh.ElementVertices(1, id)
	if len(v) != 2 {
		return nil, nil, chk.Err("mdl: Length: element %d has %d vertices, want 2", id, len(v))
	}
	return c.X(v[0]), c.X(v[1]), nil
}

// Integrand returns the length of edge id.
func (o *Length) Integrand(c *Context, id int) (float64, error) {
	x0, x1, err := o.verts(c, id)
	if err != nil {
		return 0, err
	}
	return norm3(sub3(x1, x0)), nil
}

// Gradient adds d(length)/dx0 and d(length)/dx1 into out.
func (o *Length) Gradient(c *Context, id int, out [][]float64) error {
	x0, x1, err := o.verts(c, id)
	if err != nil {
		return err
	}
	v := c.Mesh.ElementVertices(1, id)
	e := sub3(x1, x0)
	L := norm3(e)
	if L == 0 {
		return chk.Err("mdl: Length: degenerate (zero-length) edge %d", id)
	}
	u := scale3(1/L, e)
	addVec(out, v[0], scale3(-1, u))
	addVec(out, v[1], u)
	return nil
}

// AreaEnclosed is the grade-1 functional integrand = 0.5*||x0 x x1||,
// summing per-edge contributions of a closed polygon's shoelace area (spec
// §4.4.1).
type AreaEnclosed struct{ base }

// NewAreaEnclosed returns the enclosed-area functional.
func NewAreaEnclosed() *AreaEnclosed {
	return &AreaEnclosed{base{grade: 1, sym: SymmetryAdd}}
}

func (o *AreaEnclosed) verts(c *Context, id int) (x0, x1 []float64, err error) {
	v := c.Mesh.ElementVertices(1, id)
	if len(v) != 2 {
		return nil, nil, chk.Err("mdl: AreaEnclosed: element %d has %d vertices, want 2", id, len(v))
	}
	return c.X(v[0]), c.X(v[1]), nil
}

func (o *AreaEnclosed) Integrand(c *Context, id int) (float64, error) {
	x0, x1, err := o.verts(c, id)
	if err != nil {
		return 0, err
	}
	return 0.5 * norm3(cross3(x0, x1)), nil
}

func (o *AreaEnclosed) Gradient(c *Context, id int, out [][]float64) error {
	x0, x1, err := o.verts(c, id)
	if err != nil {
		return err
	}
	v := c.Mesh.ElementVertices(1, id)
	n := cross3(x0, x1)
	nn := norm3(n)
	if nn == 0 {
		return nil // degenerate: both vertices collinear with the origin, zero gradient
	}
	nhat := scale3(1/nn, n)
	addVec(out, v[0], scale3(0.5, cross3(x1, nhat)))
	addVec(out, v[1], scale3(0.5, cross3(nhat, x0)))
	return nil
}

// Area is the grade-2 triangle-area functional: integrand =
// 0.5*||(x1-x0)x(x2-x1)|| (spec §4.4.1). Equivalently 0.5*|(x1-x0)x(x2-x0)|;
// the gradient is the classical per-vertex triangle-area formula.
type Area struct{ base }

// NewArea returns the triangle-area functional.
func NewArea() *Area {
	return &Area{base{grade: 2, sym: SymmetryAdd}}
}

func (o *Area) verts(c *Context, id int) ([]int, [][]float64, error) {
	v := c.Mesh.ElementVertices(2, id)
	if len(v) != 3 {
		return nil, nil, chk.Err("mdl: Area: element %d has %d vertices, want 3", id, len(v))
	}
	return v, [][]float64{c.X(v[0]), c.X(v[1]), c.X(v[2])}, nil
}

func (o *Area) Integrand(c *Context, id int) (float64, error) {
	_, x, err := o.verts(c, id)
	if err != nil {
		return 0, err
	}
	n := cross3(sub3(x[1], x[0]), sub3(x[2], x[0]))
	return 0.5 * norm3(n), nil
}

func (o *Area) Gradient(c *Context, id int, out [][]float64) error {
	v, x, err := o.verts(c, id)
	if err != nil {
		return err
	}
	n := cross3(sub3(x[1], x[0]), sub3(x[2], x[0]))
	nn := norm3(n)
	if nn == 0 {
		return chk.Err("mdl: Area: degenerate (zero-area) triangle %d", id)
	}
	nhat := scale3(1/nn, n)
	addVec(out, v[0], scale3(0.5, cross3(nhat, sub3(x[2], x[1]))))
	addVec(out, v[1], scale3(0.5, cross3(nhat, sub3(x[0], x[2]))))
	addVec(out, v[2], scale3(0.5, cross3(nhat, sub3(x[1], x[0]))))
	return nil
}

// VolumeEnclosed is the grade-2 functional integrand = (1/6)|(x0xx1).x2|,
// summing per-triangle contributions of a closed surface's divergence-theorem
// enclosed volume (spec §4.4.1).
type VolumeEnclosed struct{ base }

// NewVolumeEnclosed returns the enclosed-volume functional.
func NewVolumeEnclosed() *VolumeEnclosed {
	return &VolumeEnclosed{base{grade: 2, sym: SymmetryAdd}}
}

func (o *VolumeEnclosed) verts(c *Context, id int) ([]int, [][]float64, error) {
	v := c.Mesh.ElementVertices(2, id)
	if len(v) != 3 {
		return nil, nil, chk.Err("mdl: VolumeEnclosed: element %d has %d vertices, want 3", id, len(v))
	}
	return v, [][]float64{c.X(v[0]), c.X(v[1]), c.X(v[2])}, nil
}

func (o *VolumeEnclosed) Integrand(c *Context, id int) (float64, error) {
	_, x, err := o.verts(c, id)
	if err != nil {
		return 0, err
	}
	f := dot3(cross3(x[0], x[1]), x[2])
	return absf(f) / 6, nil
}

func (o *VolumeEnclosed) Gradient(c *Context, id int, out [][]float64) error {
	v, x, err := o.verts(c, id)
	if err != nil {
		return err
	}
	f := dot3(cross3(x[0], x[1]), x[2])
	s := sign(f) / 6
	if s == 0 {
		return nil
	}
	addVec(out, v[0], scale3(s, cross3(x[1], x[2])))
	addVec(out, v[1], scale3(s, cross3(x[2], x[0])))
	addVec(out, v[2], scale3(s, cross3(x[0], x[1])))
	return nil
}

// Volume is the grade-3 tetrahedron-volume functional: integrand =
// (1/6)|(x1-x0).((x2-x0)x(x3-x0))| (spec §4.4.1).
type Volume struct{ base }

// NewVolume returns the tetrahedron-volume functional.
func NewVolume() *Volume {
	return &Volume{base{grade: 3, sym: SymmetryAdd}}
}

func (o *Volume) verts(c *Context, id int) ([]int, [][]float64, error) {
	v := c.Mesh.ElementVertices(3, id)
	if len(v) != 4 {
		return nil, nil, chk.Err("mdl: Volume: element %d has %d vertices, want 4", id, len(v))
	}
	return v, [][]float64{c.X(v[0]), c.X(v[1]), c.X(v[2]), c.X(v[3])}, nil
}

func (o *Volume) Integrand(c *Context, id int) (float64, error) {
	_, x, err := o.verts(c, id)
	if err != nil {
		return 0, err
	}
	e1, e2, e3 := sub3(x[1], x[0]), sub3(x[2], x[0]), sub3(x[3], x[0])
	f := dot3(e1, cross3(e2, e3))
	return absf(f) / 6, nil
}

func (o *Volume) Gradient(c *Context, id int, out [][]float64) error {
	v, x, err := o.verts(c, id)
	if err != nil {
		return err
	}
	e1, e2, e3 := sub3(x[1], x[0]), sub3(x[2], x[0]), sub3(x[3], x[0])
	f := dot3(e1, cross3(e2, e3))
	s := sign(f) / 6
	if s == 0 {
		return nil
	}
	d1 := cross3(e2, e3)
	d2 := cross3(e3, e1)
	d3 := cross3(e1, e2)
	d0 := scale3(-1, add3(add3(d1, d2), d3))
	addVec(out, v[0], scale3(s, d0))
	addVec(out, v[1], scale3(s, d1))
	addVec(out, v[2], scale3(s, d2))
	addVec(out, v[3], scale3(s, d3))
	return nil
}

// addVec adds a 3-vector into column vid of a dense Dim x N matrix.
func addVec(out [][]float64, vid int, v []float64) {
	for d := 0; d < len(out) && d < len(v); d++ {
		out[d][vid] += v[d]
	}
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}
