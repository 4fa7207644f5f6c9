// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mdl

import (
	"github.com/cpmech/gosl/chk"

	"github.com/cpmech/morpho/field"
)

// triGrad computes the gradient of a scalar linear field with nodal values
// phi over a triangle with vertex positions x, by the standard
// opposite-side-perpendicular construction: phi varies linearly, and its
// gradient is the sum of each nodal value weighted by the in-plane normal
// of the side opposite that vertex, normalised by twice the triangle area
// (spec §4.4.3).
func triGrad(x [3][]float64, phi [3]float64) (grad, nvec []float64) {
	e0 := sub3(x[2], x[1])
	e1 := sub3(x[0], x[2])
	e2 := sub3(x[1], x[0])
	nvec = cross3(sub3(x[1], x[0]), sub3(x[2], x[0]))
	nn2 := dot3(nvec, nvec)
	if nn2 == 0 {
		return []float64{0, 0, 0}, nvec
	}
	g := add3(add3(scale3(phi[0], cross3(nvec, e0)), scale3(phi[1], cross3(nvec, e1))), scale3(phi[2], cross3(nvec, e2)))
	return scale3(1/nn2, g), nvec
}

func triArea(nvec []float64) float64 { return 0.5 * norm3(nvec) }

// GradSq is the grade-2 integrand ||grad(phi)||^2 * Area over a triangle
// (spec §4.4.3). The position gradient is computed by central differences of
// the triGrad formula over the element's own three vertices; no closed-form
// derivative is used. The field gradient is likewise a central difference.
type GradSq struct{ base }

// NewGradSq returns the field-gradient-squared functional bound to phi, a
// grade-0, single-item, scalar (psize 1) field.
func NewGradSq(phi *field.Field) *GradSq {
	return &GradSq{base{grade: 2, sym: SymmetryNone, fld: phi}}
}

func (o *GradSq) verts(c *Context, id int) (v []int, x [3][]float64, phi [3]float64, err error) {
	v = c.Mesh.ElementVertices(2, id)
	if len(v) != 3 {
		return nil, x, phi, chk.Err("mdl: GradSq: element %d has %d vertices, want 3", id, len(v))
	}
	for k := 0; k < 3; k++ {
		x[k] = c.X(v[k])
		phi[k] = c.Fld.GetItem(0, v[k], 0)[0]
	}
	return v, x, phi, nil
}

func (o *GradSq) Integrand(c *Context, id int) (float64, error) {
	_, x, phi, err := o.verts(c, id)
	if err != nil {
		return 0, err
	}
	grad, nvec := triGrad(x, phi)
	return triArea(nvec) * dot3(grad, grad), nil
}

func (o *GradSq) Gradient(c *Context, id int, out [][]float64) error {
	v, x, phi, err := o.verts(c, id)
	if err != nil {
		return err
	}
	eval := func(xx [3][]float64) float64 {
		grad, nvec := triGrad(xx, phi)
		return triArea(nvec) * dot3(grad, grad)
	}
	const h = FiniteDiffStep
	for k := 0; k < 3; k++ {
		for d := 0; d < len(x[k]); d++ {
			xp, xm := x, x
			xp[k] = append([]float64(nil), x[k]...)
			xm[k] = append([]float64(nil), x[k]...)
			xp[k][d] += h
			xm[k][d] -= h
			out[d][v[k]] += (eval(xp) - eval(xm)) / (2 * h)
		}
	}
	return nil
}

func (o *GradSq) FieldGradient(c *Context, id int, out *field.Field) error {
	v, x, phi, err := o.verts(c, id)
	if err != nil {
		return err
	}
	const h = FiniteDiffStep
	for k := 0; k < 3; k++ {
		pp, pm := phi, phi
		pp[k] += h
		pm[k] -= h
		gp, nvec := triGrad(x, pp)
		gm, _ := triGrad(x, pm)
		a := triArea(nvec)
		dv := a * (dot3(gp, gp) - dot3(gm, gm)) / (2 * h)
		out.AddElement(0, v[k], 0, 0, dv)
	}
	return nil
}

// NormSq is the grade-0 vertex functional sum(||phi_i||^2) (spec §4.4.3),
// analytic in the field (no position dependence).
type NormSq struct{ base }

// NewNormSq returns the field-norm-squared functional bound to phi.
func NewNormSq(phi *field.Field) *NormSq {
	return &NormSq{base{grade: 0, sym: SymmetryNone, fld: phi}}
}

func dotN(v []float64) float64 {
	s := 0.0
	for _, x := range v {
		s += x * x
	}
	return s
}

func (o *NormSq) Integrand(c *Context, id int) (float64, error) {
	return dotN(c.Fld.GetItem(0, id, 0)), nil
}

func (o *NormSq) FieldGradient(c *Context, id int, out *field.Field) error {
	v := c.Fld.GetItem(0, id, 0)
	for j, x := range v {
		out.AddElement(0, id, 0, j, 2*x)
	}
	return nil
}

// nematicGeometry collects, for a triangle, the director gradient tensor
// (rows = director components, columns = spatial derivatives), its average
// director, divergence and curl, shared by Nematic and NematicElectric.
type nematicGeometry struct {
	verts []int
	x     [3][]float64
	nvec  []float64
	area  float64
	navg  []float64
	div   float64
	curl  []float64
}

func computeNematicGeometry(c *Context, director *field.Field, id int) (nematicGeometry, error) {
	var g nematicGeometry
	g.verts = c.Mesh.ElementVertices(2, id)
	if len(g.verts) != 3 {
		return g, chk.Err("mdl: Nematic: element %d has %d vertices, want 3", id, len(g.verts))
	}
	var n [3][3]float64 // n[vertex][component]
	for k, v := range g.verts {
		g.x[k] = c.X(v)
		nv := director.GetItem(0, v, 0)
		n[k][0], n[k][1], n[k][2] = nv[0], nv[1], nv[2]
	}
	var m [3][]float64 // m[component] = grad(n_component)
	for comp := 0; comp < 3; comp++ {
		phi := [3]float64{n[0][comp], n[1][comp], n[2][comp]}
		grad, nvec := triGrad(g.x, phi)
		m[comp] = grad
		g.nvec = nvec
	}
	g.area = triArea(g.nvec)
	g.navg = scale3(1.0/3.0, add3(add3([]float64{n[0][0], n[0][1], n[0][2]}, []float64{n[1][0], n[1][1], n[1][2]}), []float64{n[2][0], n[2][1], n[2][2]}))
	g.div = m[0][0] + m[1][1] + m[2][2]
	g.curl = []float64{m[2][1] - m[1][2], m[0][2] - m[2][0], m[1][0] - m[0][1]}
	return g, nil
}

// Nematic is the grade-2 splay/twist/bend/cholesteric elastic energy of a
// unit director field over triangles (spec §4.4.3). Gradients are numeric
// over both position and field (the quadrature and tensor assembly make the
// closed-form chain rule impractical to hand-derive).
type Nematic struct {
	base
	KSplay, KTwist, KBend, Q float64
}

// NewNematic returns the nematic elastic-energy functional bound to a
// grade-0 director field (psize 3, unit vectors).
func NewNematic(director *field.Field, ksplay, ktwist, kbend, q float64) *Nematic {
	return &Nematic{base: base{grade: 2, sym: SymmetryNone, fld: director}, KSplay: ksplay, KTwist: ktwist, KBend: kbend, Q: q}
}

func (o *Nematic) energy(g nematicGeometry) float64 {
	splay := o.KSplay * g.div * g.div
	twist := dot3(g.navg, g.curl) + o.Q
	twistE := o.KTwist * twist * twist
	bendVec := cross3(g.navg, g.curl)
	bendE := o.KBend * dot3(bendVec, bendVec)
	return g.area * (splay + twistE + bendE)
}

func (o *Nematic) Integrand(c *Context, id int) (float64, error) {
	g, err := computeNematicGeometry(c, c.Fld, id)
	if err != nil {
		return 0, err
	}
	return o.energy(g), nil
}

func (o *Nematic) Gradient(c *Context, id int, out [][]float64) error {
	return numericPositionGradient(c, o, id, out)
}

func (o *Nematic) FieldGradient(c *Context, id int, out *field.Field) error {
	return numericFieldGradient(c, o, id, out)
}

// NematicElectric is the grade-2 coupling energy integral((n.E)^2) between a
// unit director field and the gradient of a scalar potential, E = grad(phi)
// held constant per triangle and n interpolated linearly from its vertex
// values (spec §4.4.3).
type NematicElectric struct {
	base
	Potential *field.Field
}

// NewNematicElectric returns the director/potential coupling functional.
func NewNematicElectric(director, potential *field.Field) *NematicElectric {
	return &NematicElectric{base: base{grade: 2, sym: SymmetryNone, fld: director}, Potential: potential}
}

func (o *NematicElectric) verts(c *Context, id int) (v []int, x [3][]float64, n, phi [3]float64, err error) {
	v = c.Mesh.ElementVertices(2, id)
	if len(v) != 3 {
		return nil, x, n, phi, chk.Err("mdl: NematicElectric: element %d has %d vertices, want 3", id, len(v))
	}
	for k, w := range v {
		x[k] = c.X(w)
		phi[k] = o.Potential.GetItem(0, w, 0)[0]
	}
	return v, x, n, phi, nil
}

func (o *NematicElectric) Integrand(c *Context, id int) (float64, error) {
	v, x, _, phi, err := o.verts(c, id)
	if err != nil {
		return 0, err
	}
	E, nvec := triGrad(x, phi)
	// n.E is linear over the triangle, so its squared integral is
	// (Area/12) * (sum_k (n_k.E)^2 + (sum_k n_k.E)^2).
	sum, sumSq := 0.0, 0.0
	for _, w := range v {
		d := dot3(c.Fld.GetItem(0, w, 0), E)
		sum += d
		sumSq += d * d
	}
	return triArea(nvec) / 12 * (sumSq + sum*sum), nil
}

func (o *NematicElectric) Gradient(c *Context, id int, out [][]float64) error {
	return numericPositionGradient(c, o, id, out)
}

func (o *NematicElectric) FieldGradient(c *Context, id int, out *field.Field) error {
	return numericFieldGradient(c, o, id, out)
}

// numericPositionGradient is a shared helper for functionals whose analytic
// position gradient is impractical to derive by hand: it perturbs every
// coordinate of every vertex of element id and accumulates a central
// difference into out.
func numericPositionGradient(c *Context, f Functional, id int, out [][]float64) error {
	verts := c.Mesh.ElementVertices(f.Grade(), id)
	const h = FiniteDiffStep
	for _, v := range verts {
		x := c.Mesh.Vertex(v)
		for d := range x {
			orig := x[d]
			x[d] = orig + h
			c.Mesh.SetVertex(v, x)
			fp, err := f.Integrand(c, id)
			if err != nil {
				x[d] = orig
				c.Mesh.SetVertex(v, x)
				return err
			}
			x[d] = orig - h
			c.Mesh.SetVertex(v, x)
			fm, err := f.Integrand(c, id)
			if err != nil {
				x[d] = orig
				c.Mesh.SetVertex(v, x)
				return err
			}
			x[d] = orig
			c.Mesh.SetVertex(v, x)
			out[d][v] += (fp - fm) / (2 * h)
		}
	}
	return nil
}

// numericFieldGradient perturbs each component of the functional's own bound
// field at every vertex of element id and accumulates a central difference
// into out.
func numericFieldGradient(c *Context, f Functional, id int, out *field.Field) error {
	fld := f.Field()
	verts := c.Mesh.ElementVertices(f.Grade(), id)
	const h = FiniteDiffStep
	for _, v := range verts {
		val := fld.GetItem(0, v, 0)
		for j := range val {
			orig := val[j]
			val[j] = orig + h
			fld.SetItem(0, v, 0, val)
			fp, err := f.Integrand(c, id)
			if err != nil {
				val[j] = orig
				fld.SetItem(0, v, 0, val)
				return err
			}
			val[j] = orig - h
			fld.SetItem(0, v, 0, val)
			fm, err := f.Integrand(c, id)
			if err != nil {
				val[j] = orig
				fld.SetItem(0, v, 0, val)
				return err
			}
			val[j] = orig
			fld.SetItem(0, v, 0, val)
			out.AddElement(0, v, 0, j, (fp-fm)/(2*h))
		}
	}
	return nil
}
