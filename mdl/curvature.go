// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mdl

import (
	"math"

	"github.com/cpmech/gosl/chk"
)

// LineCurvatureSq is the grade-0 (vertex-centered) discrete curvature-squared
// functional (spec §4.4.2): reconstructs the two edges adjacent to a vertex,
// computes the turning angle theta between their tangents, and reports
// theta^2/L (or theta/L, bare curvature, when IntegrandOnly is set), L being
// the half-sum of the two adjacent edge lengths. Gradient is numerical; the
// two neighbour vertices are reported through Dependencies.
type LineCurvatureSq struct {
	base
	IntegrandOnly bool
}

// NewLineCurvatureSq returns the vertex curvature-squared functional.
func NewLineCurvatureSq() *LineCurvatureSq {
	return &LineCurvatureSq{base: base{grade: 0, sym: SymmetryNone}}
}

// neighbors returns the (at most two) vertices adjacent to vertex v along
// grade-1 edges.
func (o *LineCurvatureSq) neighbors(c *Context, v int) ([]int, error) {
	edges, err := c.Mesh.FindNeighbors(0, v, 1)
	if err != nil {
		return nil, chk.Err("mdl: LineCurvatureSq: missing grade-1 connectivity: %v", err)
	}
	var out []int
	for _, e := range edges {
		for _, w := range c.Mesh.ElementVertices(1, e) {
			if w != v {
				out = append(out, w)
			}
		}
	}
	return out, nil
}

// Integrand computes the curvature term at vertex id, or 0 if id is not an
// interior vertex of a path (fewer than two adjacent edges).
func (o *LineCurvatureSq) Integrand(c *Context, id int) (float64, error) {
	nb, err := o.neighbors(c, id)
	if err != nil {
		return 0, err
	}
	if len(nb) != 2 {
		return 0, nil
	}
	v := c.X(id)
	n0, n1 := c.X(nb[0]), c.X(nb[1])
	t0 := unit3(sub3(v, n0))
	t1 := unit3(sub3(n1, v))
	theta := math.Atan2(norm3(cross3(t0, t1)), dot3(t0, t1))
	L := 0.5 * (norm3(sub3(v, n0)) + norm3(sub3(n1, v)))
	if L == 0 {
		return 0, nil
	}
	if o.IntegrandOnly {
		return theta / L, nil
	}
	return theta * theta / L, nil
}

// Dependencies returns the two neighbour vertices the curvature at id
// depends on (they are not incident on the grade-0 "element" id itself).
func (o *LineCurvatureSq) Dependencies(c *Context, id int) []int {
	nb, err := o.neighbors(c, id)
	if err != nil {
		return nil
	}
	return nb
}

// LineTorsionSq is the grade-1 (edge-centered) discrete torsion-squared
// functional (spec §4.4.2, §9 open question): assembles the edge's two
// neighbouring segments in path order (consulting vertex synonyms so that
// meshes with symmetry identifications still canonicalise consistently),
// computes theta via the arcsin of the scaled triple product of the three
// consecutive segment vectors, and reports theta^2/|B|, B being the edge's
// own segment vector.
type LineTorsionSq struct{ base }

// NewLineTorsionSq returns the edge torsion-squared functional.
func NewLineTorsionSq() *LineTorsionSq {
	return &LineTorsionSq{base{grade: 1, sym: SymmetryNone}}
}

// adjacentVertex returns the far endpoint of the single edge adjacent to v
// other than skip, consulting v's symmetry synonyms if v itself has none.
func adjacentVertex(c *Context, v, skip int) (int, bool) {
	candidates := append([]int{v}, c.Mesh.GetSynonyms(0, v)...)
	for _, cv := range candidates {
		edges, err := c.Mesh.FindNeighbors(0, cv, 1)
		if err != nil {
			return 0, false
		}
		for _, e := range edges {
			if e == skip {
				continue
			}
			ev := c.Mesh.ElementVertices(1, e)
			for _, w := range ev {
				if w != cv {
					return w, true
				}
			}
		}
	}
	return 0, false
}

func (o *LineTorsionSq) endpoints(c *Context, id int) (vPrev, v0, v1, vNext int, ok bool) {
	ev := c.Mesh.ElementVertices(1, id)
	if len(ev) != 2 {
		return 0, 0, 0, 0, false
	}
	v0, v1 = ev[0], ev[1]
	p, okp := adjacentVertex(c, v0, id)
	n, okn := adjacentVertex(c, v1, id)
	if !okp || !okn {
		return 0, 0, 0, 0, false
	}
	return p, v0, v1, n, true
}

// Integrand computes the torsion term on edge id, or 0 on path endpoints
// where either neighbouring segment is undefined.
func (o *LineTorsionSq) Integrand(c *Context, id int) (float64, error) {
	vp, v0, v1, vn, ok := o.endpoints(c, id)
	if !ok {
		return 0, nil
	}
	A := sub3(c.X(v0), c.X(vp))
	B := sub3(c.X(v1), c.X(v0))
	C := sub3(c.X(vn), c.X(v1))
	la, lb, lc := norm3(A), norm3(B), norm3(C)
	if la == 0 || lb == 0 || lc == 0 {
		return 0, nil
	}
	scaled := dot3(cross3(A, B), C) / (la * lb * lc)
	theta := math.Asin(clamp(scaled, -1, 1))
	return theta * theta / lb, nil
}

// Dependencies returns the previous and next path vertices the torsion at
// edge id depends on.
func (o *LineTorsionSq) Dependencies(c *Context, id int) []int {
	vp, _, _, vn, ok := o.endpoints(c, id)
	if !ok {
		return nil
	}
	return []int{vp, vn}
}

// triangleFan returns, for vertex v, the incident grade-2 triangles each
// rotated so that v is the first vertex (canonical ordering "target vertex
// first", spec §4.4.2), preserving the other two vertices' relative order.
func triangleFan(c *Context, v int) ([][]int, error) {
	tris, err := c.Mesh.FindNeighbors(0, v, 2)
	if err != nil {
		return nil, chk.Err("mdl: missing grade-2 connectivity: %v", err)
	}
	out := make([][]int, 0, len(tris))
	for _, t := range tris {
		ev := c.Mesh.ElementVertices(2, t)
		i := indexOf(ev, v)
		if i < 0 {
			continue
		}
		out = append(out, []int{ev[i], ev[(i+1)%3], ev[(i+2)%3]})
	}
	return out, nil
}

func indexOf(s []int, v int) int {
	for i, x := range s {
		if x == v {
			return i
		}
	}
	return -1
}

// MeanCurvatureSq is the grade-0 vertex-centered discrete mean-curvature-
// squared functional on a triangulated surface (spec §4.4.2): accumulates the
// cotan-like force vector over the incident-triangle fan and reports
// |f|^2/(A/3)/4, A being the incident-triangle area sum. Gradient is
// numerical.
type MeanCurvatureSq struct{ base }

// NewMeanCurvatureSq returns the mean-curvature-squared functional.
func NewMeanCurvatureSq() *MeanCurvatureSq {
	return &MeanCurvatureSq{base{grade: 0, sym: SymmetryNone}}
}

// forceAndArea accumulates, over the incident-triangle fan of v, the
// per-triangle force contribution 0.5*(s1 x (s0 x s1))/|s0 x s1| (s0=p1-p0,
// s1=p2-p1) and the fan's total area.
func (o *MeanCurvatureSq) forceAndArea(c *Context, v int) (f []float64, area float64, fan [][]int, err error) {
	fan, err = triangleFan(c, v)
	if err != nil {
		return nil, 0, nil, err
	}
	f = []float64{0, 0, 0}
	for _, t := range fan {
		p0, p1, p2 := c.X(t[0]), c.X(t[1]), c.X(t[2])
		s0 := sub3(p1, p0)
		s1 := sub3(p2, p1)
		cr := cross3(s0, s1)
		nn := norm3(cr)
		if nn == 0 {
			continue
		}
		area += 0.5 * nn
		f = add3(f, scale3(0.5/nn, cross3(s1, cross3(s0, s1))))
	}
	return f, area, fan, nil
}

// Integrand computes the mean-curvature-squared term at vertex id.
func (o *MeanCurvatureSq) Integrand(c *Context, id int) (float64, error) {
	f, area, _, err := o.forceAndArea(c, id)
	if err != nil {
		return 0, err
	}
	a3 := area / 3
	if a3 == 0 {
		return 0, nil
	}
	return dot3(f, f) / a3 / 4, nil
}

// Dependencies returns every vertex of the incident-triangle fan, the
// neighbourhood the integrand's value flows through.
func (o *MeanCurvatureSq) Dependencies(c *Context, id int) []int {
	fan, err := triangleFan(c, id)
	if err != nil {
		return nil
	}
	return fanVertices(fan, id)
}

func fanVertices(fan [][]int, exclude int) []int {
	seen := map[int]bool{}
	var out []int
	for _, t := range fan {
		for _, v := range t {
			if v != exclude && !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// GaussCurvature is the grade-0 vertex-centered discrete Gauss-curvature
// functional on a triangulated surface (spec §4.4.2): reports 2*pi minus the
// sum of incident triangle angles at the vertex, optionally (DivideByArea)
// divided by A/3. Gradient is numerical.
type GaussCurvature struct {
	base
	DivideByArea bool
}

// NewGaussCurvature returns the Gauss-curvature functional.
func NewGaussCurvature() *GaussCurvature {
	return &GaussCurvature{base: base{grade: 0, sym: SymmetryNone}}
}

// Integrand computes the angle defect at vertex id.
func (o *GaussCurvature) Integrand(c *Context, id int) (float64, error) {
	fan, err := triangleFan(c, id)
	if err != nil {
		return 0, err
	}
	sum, area := 0.0, 0.0
	for _, t := range fan {
		p0, p1, p2 := c.X(t[0]), c.X(t[1]), c.X(t[2])
		a := sub3(p1, p0)
		b := sub3(p2, p0)
		la, lb := norm3(a), norm3(b)
		if la == 0 || lb == 0 {
			continue
		}
		sum += math.Acos(clamp(dot3(a, b)/(la*lb), -1, 1))
		area += 0.5 * norm3(cross3(a, b))
	}
	defect := 2*math.Pi - sum
	if o.DivideByArea {
		a3 := area / 3
		if a3 == 0 {
			return 0, nil
		}
		return defect / a3, nil
	}
	return defect, nil
}

// Dependencies returns every vertex of the incident-triangle fan.
func (o *GaussCurvature) Dependencies(c *Context, id int) []int {
	fan, err := triangleFan(c, id)
	if err != nil {
		return nil
	}
	return fanVertices(fan, id)
}
