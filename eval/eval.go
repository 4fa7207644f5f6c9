// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package eval implements the functional evaluator (spec §4.5): element
// iteration over a mesh or a selection restricted to a functional's native
// grade, Kahan-compensated summation for total, analytic-or-numerical
// gradient assembly with post-assembly symmetry-ADD combination, and the
// same for field gradients.
package eval

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"

	"github.com/cpmech/morpho/field"
	"github.com/cpmech/morpho/mdl"
	"github.com/cpmech/morpho/mesh"
)

// KahanSum accumulates a compensated running total (spec §4.5, §8 property 2).
type KahanSum struct {
	sum, c float64
}

// Add folds x into the running total.
func (k *KahanSum) Add(x float64) {
	y := x - k.c
	t := k.sum + y
	k.c = (t - k.sum) - y
	k.sum = t
}

// Value returns the current compensated total.
func (k *KahanSum) Value() float64 { return k.sum }

// elementIDs returns the ascending ids to iterate for a functional's native
// grade: the selection's id set if non-empty, otherwise every element of
// that grade; grade-0 iteration always skips image vertices (spec §4.5
// steps 2-3).
func elementIDs(c *mdl.Context, grade int) []int {
	m := c.Mesh
	var ids []int
	if c.Sel != nil && c.Sel.Count(grade) > 0 {
		ids = c.Sel.IDs(grade)
	} else {
		n := m.Count(grade)
		ids = make([]int, n)
		for i := range ids {
			ids[i] = i
		}
	}
	if grade != 0 {
		return ids
	}
	images := make(map[int]bool)
	for _, im := range m.ImageVertices() {
		images[im] = true
	}
	out := ids[:0]
	for _, id := range ids {
		if !images[id] {
			out = append(out, id)
		}
	}
	return out
}

// Total computes Sum(f.Integrand) over the functional's native grade,
// restricted to c.Sel if set, with Kahan-compensated summation.
func Total(f mdl.Functional, c *mdl.Context) (float64, error) {
	var sum KahanSum
	for _, id := range elementIDs(c, f.Grade()) {
		v, err := f.Integrand(c, id)
		if err != nil {
			return 0, err
		}
		sum.Add(v)
	}
	return sum.Value(), nil
}

// Gradient assembles the dense Dim x NumVertices position-gradient matrix of
// f over c, using f's own Gradient where f is a Gradienter and central
// differences otherwise, then applies symmetry-ADD combination if declared
// (spec §4.5 step 5).
func Gradient(f mdl.Functional, c *mdl.Context) ([][]float64, error) {
	out := la.MatAlloc(c.Mesh.Dim(), c.Mesh.NumVertices())
	ids := elementIDs(c, f.Grade())
	if g, ok := f.(mdl.Gradienter); ok {
		for _, id := range ids {
			if err := g.Gradient(c, id, out); err != nil {
				return nil, err
			}
		}
	} else {
		for _, id := range ids {
			if err := numericalGradient(f, c, id, out); err != nil {
				return nil, err
			}
		}
	}
	if f.Symmetry() == mdl.SymmetryAdd {
		applySymmetryAdd(c.Mesh, out)
	}
	return out, nil
}

// numericalGradient perturbs, in turn, every coordinate of every vertex
// incident on element id (plus any extra dependency vertices f declares)
// and accumulates a central difference into out. Each perturbation is
// mutated into the mesh and restored before the next, the scoped-guard
// pattern spec §5 requires for re-entrancy safety.
func numericalGradient(f mdl.Functional, c *mdl.Context, id int, out [][]float64) error {
	verts := append([]int(nil), c.Mesh.ElementVertices(f.Grade(), id)...)
	if dep, ok := f.(mdl.Dependent); ok {
		verts = append(verts, dep.Dependencies(c, id)...)
	}
	const h = mdl.FiniteDiffStep
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

// applySymmetryAdd replaces the gradient at each C(0,0)-identified pair with
// their sum, so both the root and its image see the combined force (spec
// §3.1, §4.5 step 5).
func applySymmetryAdd(m *mesh.Mesh, out [][]float64) {
	for _, pair := range m.SymmetryPairs() {
		root, image := pair[0], pair[1]
		for d := range out {
			s := out[d][root] + out[d][image]
			out[d][root] = s
			out[d][image] = s
		}
	}
}

// FieldGradient assembles the field gradient of f over c, which must carry a
// bound field (c.Fld), using f's own FieldGradient where f is a
// FieldGradienter and
// central differences over the field's own grade-0 entries otherwise.
func FieldGradient(f mdl.Functional, c *mdl.Context) (*field.Field, error) {
	if c.Fld == nil {
		return nil, chk.Err("eval: FieldGradient requires a bound field in the context")
	}
	out := field.New(c.Mesh, c.Fld.Shape(), c.Fld.PSize)
	ids := elementIDs(c, f.Grade())
	if fg, ok := f.(mdl.FieldGradienter); ok {
		for _, id := range ids {
			if err := fg.FieldGradient(c, id, out); err != nil {
				return nil, err
			}
		}
	} else {
		for _, id := range ids {
			if err := numericalFieldGradient(f, c, id, out); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// numericalFieldGradient perturbs each component of the bound field at every
// vertex incident on element id and accumulates a central difference into out.
func numericalFieldGradient(f mdl.Functional, c *mdl.Context, id int, out *field.Field) error {
	verts := c.Mesh.ElementVertices(f.Grade(), id)
	const h = mdl.FiniteDiffStep
	for _, v := range verts {
		val := c.Fld.GetItem(0, v, 0)
		for j := range val {
			orig := val[j]
			val[j] = orig + h
			c.Fld.SetItem(0, v, 0, val)
			fp, err := f.Integrand(c, id)
			if err != nil {
				val[j] = orig
				c.Fld.SetItem(0, v, 0, val)
				return err
			}
			val[j] = orig - h
			c.Fld.SetItem(0, v, 0, val)
			fm, err := f.Integrand(c, id)
			if err != nil {
				val[j] = orig
				c.Fld.SetItem(0, v, 0, val)
				return err
			}
			val[j] = orig
			c.Fld.SetItem(0, v, 0, val)
			out.AddElement(0, v, 0, j, (fp-fm)/(2*h))
		}
	}
	return nil
}
