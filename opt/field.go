// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"math"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"
	"github.com/cpmech/gosl/la"

	"github.com/cpmech/morpho/eval"
	"github.com/cpmech/morpho/field"
	"github.com/cpmech/morpho/mdl"
	"github.com/cpmech/morpho/selection"
)

// FieldOptimizer descends a Problem's energy by moving one field's values
// (spec §4.7 "FieldOptimizer"). Only the Problem's constraints and local
// constraints bound to Target (ConstraintTerm.Fld/LocalConstraintTerm.Fld ==
// Target) apply; energies are shared with every optimizer over the same
// Problem and are evaluated with Target bound in the context, mirroring
// Problem.TotalEnergy's own convention.
type FieldOptimizer struct {
	Problem *Problem
	Target  *field.Field
	Params  Params
	grade   int
	fixed   map[int]bool

	prevForce *field.Field
	prevDir   *field.Field
	history   []float64
}

// NewFieldOptimizer returns a FieldOptimizer descending target with default
// parameters.
func NewFieldOptimizer(p *Problem, target *field.Field) *FieldOptimizer {
	return &FieldOptimizer{Problem: p, Target: target, Params: DefaultParams(), grade: targetGrade(target), fixed: map[int]bool{}}
}

func targetGrade(f *field.Field) int {
	for g := 0; g < 4; g++ {
		if f.Dof[g] != 0 {
			return g
		}
	}
	return 0
}

// Fix excludes the given elements (of the target's own grade) from
// assembly and stepping (spec §4.7 "fix(selection)").
func (o *FieldOptimizer) Fix(ids []int) {
	for _, id := range ids {
		o.fixed[id] = true
	}
}

// History returns the total-energy value recorded after each completed
// descent iteration.
func (o *FieldOptimizer) History() []float64 { return o.history }

func elementVec(f *field.Field, g, el int) [][]float64 {
	out := make([][]float64, f.Dof[g])
	for item := range out {
		out[item] = append([]float64(nil), f.GetItem(g, el, item)...)
	}
	return out
}

func dotElem(a, b [][]float64) float64 {
	s := 0.0
	for item := range a {
		for k := range a[item] {
			s += a[item][k] * b[item][k]
		}
	}
	return s
}

func axpyElem(f *field.Field, g, el int, alpha float64, b [][]float64) {
	for item := range b {
		cur := f.GetItem(g, el, item)
		nv := make([]float64, len(cur))
		for k := range cur {
			nv[k] = cur[k] + alpha*b[item][k]
		}
		f.SetItem(g, el, item, nv)
	}
}

func dotField(a, b *field.Field) float64 {
	ra, rb := a.Raw(), b.Raw()
	s := 0.0
	for i := range ra {
		s += ra[i] * rb[i]
	}
	return s
}

func negField(f *field.Field) *field.Field {
	out := field.New(f.Msh, f.Dof, f.PSize)
	out.Accumulate(-1, f)
	return out
}

func scaleField(f *field.Field, s float64) *field.Field {
	out := field.New(f.Msh, f.Dof, f.PSize)
	out.Accumulate(s, f)
	return out
}

func (o *FieldOptimizer) zeroFixed(f *field.Field) {
	g := o.grade
	zero := make([]float64, f.PSize[g])
	for el := range o.fixed {
		for item := 0; item < f.Dof[g]; item++ {
			f.SetItem(g, el, item, zero)
		}
	}
}

func (o *FieldOptimizer) totalForce() (*field.Field, error) {
	out := field.New(o.Target.Msh, o.Target.Dof, o.Target.PSize)
	for _, e := range o.Problem.Energies {
		g, err := eval.FieldGradient(e.F, &mdl.Context{Mesh: o.Problem.Mesh, Sel: e.Sel, Fld: o.Target})
		if err != nil {
			return nil, err
		}
		out.Accumulate(e.Prefactor, g)
	}
	o.zeroFixed(out)
	return out, nil
}

func (o *FieldOptimizer) initLocalConstraints() ([]*selection.Selection, error) {
	actives := make([]*selection.Selection, len(o.Problem.LocalConstraints))
	for i, lc := range o.Problem.LocalConstraints {
		if lc.Fld != o.Target {
			continue
		}
		a, err := activeSelection(&mdl.Context{Mesh: o.Problem.Mesh, Sel: lc.Sel, Fld: o.Target}, lc.F, lc.Sel, lc.Target, lc.OneSided, o.Params.Ctol)
		if err != nil {
			return nil, err
		}
		actives[i] = a
	}
	return actives, nil
}

func (o *FieldOptimizer) subtractLocalFrom(mat *field.Field, actives []*selection.Selection) error {
	g := o.grade
	for i, lc := range o.Problem.LocalConstraints {
		if lc.Fld != o.Target || actives[i] == nil {
			continue
		}
		gr, err := eval.FieldGradient(lc.F, &mdl.Context{Mesh: o.Problem.Mesh, Sel: actives[i], Fld: o.Target})
		if err != nil {
			return err
		}
		o.zeroFixed(gr)
		for el := 0; el < o.Problem.Mesh.Count(g); el++ {
			gv := elementVec(gr, g, el)
			denom := dotElem(gv, gv)
			if denom < o.Params.Ctol {
				continue
			}
			mv := elementVec(mat, g, el)
			lambda := dotElem(mv, gv) / denom
			axpyElem(mat, g, el, -lambda, gv)
		}
	}
	return nil
}

func (o *FieldOptimizer) subtractConstraints(mat *field.Field, actives []*selection.Selection) error {
	for _, gc := range o.Problem.Constraints {
		if gc.Fld != o.Target {
			continue
		}
		g, err := eval.FieldGradient(gc.F, &mdl.Context{Mesh: o.Problem.Mesh, Sel: gc.Sel, Fld: o.Target})
		if err != nil {
			return err
		}
		o.zeroFixed(g)
		if err := o.subtractLocalFrom(g, actives); err != nil {
			return err
		}
		denom := dotField(g, g)
		if denom < o.Params.Ctol {
			continue
		}
		lambda := dotField(mat, g) / denom
		mat.Accumulate(-lambda, g)
	}
	return nil
}

func (o *FieldOptimizer) totalForceWithConstraints() (*field.Field, error) {
	f, err := o.totalForce()
	if err != nil {
		return nil, err
	}
	actives, err := o.initLocalConstraints()
	if err != nil {
		return nil, err
	}
	if err := o.subtractLocalFrom(f, actives); err != nil {
		return nil, err
	}
	if err := o.subtractConstraints(f, actives); err != nil {
		return nil, err
	}
	return f, nil
}

func (o *FieldOptimizer) reprojectLocalConstraints() error {
	g := o.grade
	if len(o.Problem.LocalConstraints) == 0 {
		return nil
	}
	for iter := 0; iter < o.Params.MaxConstraintSteps; iter++ {
		actives, err := o.initLocalConstraints()
		if err != nil {
			return err
		}
		maxResid := 0.0
		for i, lc := range o.Problem.LocalConstraints {
			if lc.Fld != o.Target || actives[i] == nil || actives[i].Count(lc.F.Grade()) == 0 {
				continue
			}
			c := &mdl.Context{Mesh: o.Problem.Mesh, Sel: actives[i], Fld: o.Target}
			tot, err := eval.Total(lc.F, c)
			if err != nil {
				return err
			}
			n := float64(actives[i].Count(lc.F.Grade()))
			residual := tot/n - lc.Target
			if math.Abs(residual) > maxResid {
				maxResid = math.Abs(residual)
			}
			if math.Abs(residual) < o.Params.Ctol {
				continue
			}
			gr, err := eval.FieldGradient(lc.F, c)
			if err != nil {
				return err
			}
			denom := dotField(gr, gr)
			if denom < o.Params.Ctol {
				continue
			}
			lambda := residual / denom
			for _, el := range actives[i].IDs(lc.F.Grade()) {
				if o.fixed[el] {
					continue
				}
				axpyElem(o.Target, g, el, -lambda, elementVec(gr, g, el))
			}
		}
		if maxResid < o.Params.Ctol {
			return nil
		}
	}
	if !o.Params.Quiet {
		io.Pf("opt: warning: reprojectLocalConstraints did not converge within %d iterations\n", o.Params.MaxConstraintSteps)
	}
	return nil
}

func (o *FieldOptimizer) reprojectConstraints() error {
	n := 0
	for _, gc := range o.Problem.Constraints {
		if gc.Fld == o.Target {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	for iter := 0; iter < o.Params.MaxConstraintSteps; iter++ {
		actives, err := o.initLocalConstraints()
		if err != nil {
			return err
		}
		d := make([]float64, 0, n)
		grads := make([]*field.Field, 0, n)
		normD := 0.0
		for _, gc := range o.Problem.Constraints {
			if gc.Fld != o.Target {
				continue
			}
			c := &mdl.Context{Mesh: o.Problem.Mesh, Sel: gc.Sel, Fld: o.Target}
			tot, err := eval.Total(gc.F, c)
			if err != nil {
				return err
			}
			r := gc.Target - tot
			normD += r * r
			d = append(d, r)
			g, err := eval.FieldGradient(gc.F, c)
			if err != nil {
				return err
			}
			o.zeroFixed(g)
			if err := o.subtractLocalFrom(g, actives); err != nil {
				return err
			}
			grads = append(grads, g)
		}
		if math.Sqrt(normD) < o.Params.Ctol {
			return nil
		}
		M := la.MatAlloc(n, n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				M[i][j] = dotField(grads[i], grads[j])
			}
		}
		Minv := la.MatAlloc(n, n)
		if err := la.MatInvG(Minv, M, 1e-14); err != nil {
			return chk.Err("opt: reprojectConstraints: singular Gram matrix: %v", err)
		}
		lambda := make([]float64, n)
		la.MatVecMul(lambda, 1, Minv, d)
		for i := 0; i < n; i++ {
			o.Target.Accumulate(lambda[i], grads[i])
		}
	}
	if !o.Params.Quiet {
		io.Pf("opt: warning: reprojectConstraints did not converge within %d iterations\n", o.Params.MaxConstraintSteps)
	}
	return nil
}

func (o *FieldOptimizer) advance(f *field.Field, h float64) error {
	o.Target.Accumulate(-h, f)
	if err := o.reprojectLocalConstraints(); err != nil {
		return err
	}
	return o.reprojectConstraints()
}

// Step performs a single constrained gradient-descent step of size h.
func (o *FieldOptimizer) Step(h float64) error {
	f, err := o.totalForceWithConstraints()
	if err != nil {
		return err
	}
	return o.advance(f, h)
}

func (o *FieldOptimizer) converged(e0, e1 float64) bool {
	return math.Abs(e1) < o.Params.Etol || math.Abs(e1-e0) < o.Params.Etol*math.Max(1, math.Abs(e1))
}

// Relax runs up to n fixed-step descent iterations (spec §4.7.3).
func (o *FieldOptimizer) Relax(n int) error {
	e0, err := o.Problem.TotalEnergy(o.Target)
	if err != nil {
		return err
	}
	for iter := 0; iter < n; iter++ {
		if err := o.Step(o.Params.StepSize); err != nil {
			return err
		}
		e1, err := o.Problem.TotalEnergy(o.Target)
		if err != nil {
			return err
		}
		o.history = append(o.history, e1)
		reportProgress(o.Params.Quiet, iter, e1, e1-e0, o.Params.StepSize)
		if o.converged(e0, e1) {
			return nil
		}
		e0 = e1
	}
	return nil
}

// LineSearch runs up to n descent iterations, each bracketing and
// Brent-minimizing the energy along the (pre-projection) force direction
// (spec §4.7.3). A bracketing failure is non-fatal (spec §7).
func (o *FieldOptimizer) LineSearch(n int) error {
	e0, err := o.Problem.TotalEnergy(o.Target)
	if err != nil {
		return err
	}
	for iter := 0; iter < n; iter++ {
		f, err := o.totalForceWithConstraints()
		if err != nil {
			return err
		}
		x0 := o.Target.Clone()
		var evalErr error
		energyAt := func(h float64) float64 {
			o.Target.Zero()
			o.Target.Accumulate(1, x0)
			o.Target.Accumulate(-h, f)
			e, err := o.Problem.TotalEnergy(o.Target)
			if err != nil {
				evalErr = err
			}
			return e
		}
		a, xm, b, ok := bracket(energyAt, 0, o.Params.StepSize, 2*o.Params.StepSize)
		o.Target.Zero()
		o.Target.Accumulate(1, x0)
		if evalErr != nil {
			return evalErr
		}
		if !ok {
			return nil
		}
		h, _ := brent(energyAt, a, xm, b, o.Params.LinMinTol, o.Params.LinMinMax)
		o.Target.Zero()
		o.Target.Accumulate(1, x0)
		if evalErr != nil {
			return evalErr
		}
		if o.Params.StepLimit > 0 && h > o.Params.StepLimit {
			h = o.Params.StepLimit
		}
		if err := o.advance(f, h); err != nil {
			return err
		}
		e1, err := o.Problem.TotalEnergy(o.Target)
		if err != nil {
			return err
		}
		o.history = append(o.history, e1)
		reportProgress(o.Params.Quiet, iter, e1, e1-e0, h)
		if o.converged(e0, e1) {
			return nil
		}
		e0 = e1
	}
	return nil
}

// ConjugateGradient runs up to n descent iterations along Hager-Zhang
// conjugate directions, mirroring ShapeOptimizer.ConjugateGradient (spec
// §4.7.3).
func (o *FieldOptimizer) ConjugateGradient(n int) error {
	e0, err := o.Problem.TotalEnergy(o.Target)
	if err != nil {
		return err
	}
	for iter := 0; iter < n; iter++ {
		f, err := o.totalForceWithConstraints()
		if err != nil {
			return err
		}
		var d *field.Field
		if o.prevForce == nil {
			d = negField(f)
		} else {
			y := o.prevForce.Sub(f)
			dy := dotField(o.prevDir, y)
			if math.Abs(dy) < zeps {
				d = negField(f)
			} else {
				yy := dotField(y, y)
				tmp := y.Sub(scaleField(o.prevDir, 2*yy/dy))
				beta := dotField(tmp, f) / dy
				d = negField(f).Add(scaleField(o.prevDir, beta))
			}
		}

		x0 := o.Target.Clone()
		var evalErr error
		energyAt := func(h float64) float64 {
			o.Target.Zero()
			o.Target.Accumulate(1, x0)
			o.Target.Accumulate(h, d)
			e, err := o.Problem.TotalEnergy(o.Target)
			if err != nil {
				evalErr = err
			}
			return e
		}
		a, xm, b, ok := bracket(energyAt, 0, o.Params.StepSize, 2*o.Params.StepSize)
		o.Target.Zero()
		o.Target.Accumulate(1, x0)
		if evalErr != nil {
			return evalErr
		}
		if !ok {
			return nil
		}
		h, _ := brent(energyAt, a, xm, b, o.Params.LinMinTol, o.Params.LinMinMax)
		if o.Params.StepLimit > 0 && h > o.Params.StepLimit {
			h = o.Params.StepLimit
		}
		o.Target.Zero()
		o.Target.Accumulate(1, x0)
		o.Target.Accumulate(h, d)
		if evalErr != nil {
			return evalErr
		}
		if err := o.reprojectLocalConstraints(); err != nil {
			return err
		}
		if err := o.reprojectConstraints(); err != nil {
			return err
		}
		o.prevForce, o.prevDir = f, d

		e1, err := o.Problem.TotalEnergy(o.Target)
		if err != nil {
			return err
		}
		o.history = append(o.history, e1)
		reportProgress(o.Params.Quiet, iter, e1, e1-e0, h)
		if o.converged(e0, e1) {
			return nil
		}
		e0 = e1
	}
	return nil
}
