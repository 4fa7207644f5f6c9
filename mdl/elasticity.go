// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mdl

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"

	"github.com/cpmech/morpho/mesh"
)

// LinearElasticity is the per-element Cauchy-Green strain energy between a
// mesh's current configuration and a reference mesh of identical topology
// (spec §4.4.3): R = G_def * G_ref^-1, the ratio of deformed to reference
// Gram matrices of the simplex's edge vectors from its first vertex; C =
// 0.5*(R-I); energy = w*(mu*tr(C^2) + 0.5*lambda*tr(C)^2), w the reference
// element's size. Lame coefficients follow from a single Poisson ratio, the
// way gofem's mdl/solid package derives mu/lambda from (E,nu) pairs
// (mdl/solid/elasticity.go Calc_G_from_Enu/Calc_l_from_Enu), here with the
// reference modulus normalised to E=1.
type LinearElasticity struct {
	base
	RefMesh    *mesh.Mesh
	Nu         float64
	mu, lambda float64
}

// NewLinearElasticity returns the strain-energy functional acting on
// elements of grade, measured against refmesh (same vertex count and
// connectivity as the mesh it will be evaluated against).
func NewLinearElasticity(refmesh *mesh.Mesh, grade int, nu float64) *LinearElasticity {
	mu := 0.5 / (1 + nu)
	lambda := nu / ((1 + nu) * (1 - 2*nu))
	return &LinearElasticity{base: base{grade: grade, sym: SymmetryAdd}, RefMesh: refmesh, Nu: nu, mu: mu, lambda: lambda}
}

// sides returns the (len(verts)-1) edge vectors from verts[0] to the other
// simplex vertices, in m's configuration.
func sides(m *mesh.Mesh, verts []int) [][]float64 {
	x0 := m.Vertex(verts[0])
	out := make([][]float64, len(verts)-1)
	for i := 1; i < len(verts); i++ {
		out[i-1] = sub3(m.Vertex(verts[i]), x0)
	}
	return out
}

func gram(sides [][]float64) [][]float64 {
	n := len(sides)
	g := la.MatAlloc(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			g[i][j] = dot3(sides[i], sides[j])
		}
	}
	return g
}

func matMulSquare(a, b [][]float64) [][]float64 {
	n := len(a)
	out := la.MatAlloc(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s := 0.0
			for k := 0; k < n; k++ {
				s += a[i][k] * b[k][j]
			}
			out[i][j] = s
		}
	}
	return out
}

func trace(m [][]float64) float64 {
	t := 0.0
	for i := range m {
		t += m[i][i]
	}
	return t
}

// traceOfSquare returns tr(M*M) without materialising the product.
func traceOfSquare(m [][]float64) float64 {
	s := 0.0
	n := len(m)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			s += m[i][j] * m[j][i]
		}
	}
	return s
}

func (o *LinearElasticity) sizeOf(m *mesh.Mesh, verts []int) float64 {
	x := make([][]float64, len(verts))
	for k, v := range verts {
		x[k] = m.Vertex(v)
	}
	switch len(verts) - 1 {
	case 1:
		return norm3(sub3(x[1], x[0]))
	case 2:
		return triArea(cross3(sub3(x[1], x[0]), sub3(x[2], x[0])))
	case 3:
		e1, e2, e3 := sub3(x[1], x[0]), sub3(x[2], x[0]), sub3(x[3], x[0])
		return absf(dot3(e1, cross3(e2, e3))) / 6
	}
	return 0
}

// strain computes C = 0.5*(R-I), R = G_def * G_ref^-1, for element id.
func (o *LinearElasticity) strain(c *Context, id int) (C [][]float64, verts []int, w float64, err error) {
	verts = c.Mesh.ElementVertices(o.grade, id)
	if len(verts) != o.grade+1 {
		return nil, nil, 0, chk.Err("mdl: LinearElasticity: element %d has %d vertices, want %d", id, len(verts), o.grade+1)
	}
	n := o.grade
	Gdef := gram(sides(c.Mesh, verts))
	Gref := gram(sides(o.RefMesh, verts))
	Ginv := la.MatAlloc(n, n)
	if ierr := la.MatInvG(Ginv, Gref, 1e-14); ierr != nil {
		return nil, nil, 0, chk.Err("mdl: LinearElasticity: singular reference Gram matrix at element %d: %v", id, ierr)
	}
	R := matMulSquare(Gdef, Ginv)
	C = la.MatAlloc(n, n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			C[i][j] = 0.5 * R[i][j]
		}
		C[i][i] -= 0.5
	}
	return C, verts, o.sizeOf(o.RefMesh, verts), nil
}

func (o *LinearElasticity) Integrand(c *Context, id int) (float64, error) {
	C, _, w, err := o.strain(c, id)
	if err != nil {
		return 0, err
	}
	trC := trace(C)
	return w * (o.mu*traceOfSquare(C) + 0.5*o.lambda*trC*trC), nil
}

// Gradient is numeric: the Gram-inverse chain rule through R and C is
// impractical to hand-derive in closed form for general grade.
func (o *LinearElasticity) Gradient(c *Context, id int, out [][]float64) error {
	return numericPositionGradient(c, o, id, out)
}
