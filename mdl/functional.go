// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package mdl implements the functional protocol (spec §4.4): geometric,
// curvature and field energies expressed as per-element integrands, plus
// their analytic gradients where available. Capability (does this functional
// have an analytic gradient? a field gradient? extra dependencies? a
// symmetry behaviour?) is expressed the way gofem's mdl/solid package
// expresses model capability — through small, separately satisfiable
// interfaces ("Small", "Large", "OneD" there; "Gradienter",
// "FieldGradienter", "Dependent" here) rather than one monolithic type, so
// the evaluator (package eval) consumes a capability table instead of a
// type hierarchy (spec §9 design note).
package mdl

import (
	"github.com/cpmech/morpho/field"
	"github.com/cpmech/morpho/mesh"
	"github.com/cpmech/morpho/selection"
)

// SymmetryBehavior controls how a functional's assembled gradient treats
// C(0,0) image-vertex pairs (spec §3.1, §4.4).
type SymmetryBehavior int

const (
	// SymmetryNone leaves assembled gradient rows untouched.
	SymmetryNone SymmetryBehavior = iota
	// SymmetryAdd replaces the gradient at each identified pair (i,j) with
	// their sum, so both vertices see the combined force.
	SymmetryAdd
)

// Context bundles the mesh, an optional selection restricting which elements
// a functional acts over, and an optional field, the uniform
// (mesh, selection?, field?) signature every functional operation shares
// (spec §4.4).
type Context struct {
	Mesh *mesh.Mesh
	Sel  *selection.Selection
	Fld  *field.Field
}

// X returns the coordinates of vertex v.
func (c *Context) X(v int) []float64 { return c.Mesh.Vertex(v) }

// Functional is implemented by every energy/constraint integrand. Grade
// names the functional's native element grade; Integrand evaluates its
// per-element scalar contribution. Field() returns the field this functional
// was constructed against, or nil for position-only functionals; the shared
// numerical field gradient perturbs that field. The optimizers do not consult
// Field(): they route constraints by the Fld of the problem's constraint terms.
type Functional interface {
	Grade() int
	Symmetry() SymmetryBehavior
	Field() *field.Field
	Integrand(c *Context, id int) (float64, error)
}

// Gradienter is implemented by functionals that assemble their own per-element
// vertex-position gradient, either in closed form or by central differences
// over the element's own vertices (Dependencies are not perturbed on this
// path). Gradient must ADD its contribution for element id into out (a
// dense Dim x NumVertices matrix), not overwrite it, so multiple elements'
// contributions accumulate (spec §4.5 step 4: "assembles gradient matrices").
type Gradienter interface {
	Functional
	Gradient(c *Context, id int, out [][]float64) error
}

// FieldGradienter is implemented by field-consuming functionals that assemble
// their own field gradient, either in closed form or by central differences.
// FieldGradient must ADD its contribution for
// element id into out, a field of the same shape as the bound field.
type FieldGradienter interface {
	Functional
	FieldGradient(c *Context, id int, out *field.Field) error
}

// Dependent is implemented by functionals whose integrand at element id
// depends on vertices beyond the element's own incident vertex list (spec
// §4.4: "dependencies query returning non-incident vertices whose motion
// still changes the integrand of element i"), e.g. the curvature
// functionals, whose value depends on neighbouring elements.
type Dependent interface {
	Functional
	Dependencies(c *Context, id int) []int
}

// FiniteDiffStep is the central-difference step used for numerical gradients
// (spec §4.5, §6.3): epsilon at the scale recommended for double precision
// first-derivative central differences.
const FiniteDiffStep = 1e-10
