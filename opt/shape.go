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
	"github.com/cpmech/morpho/mdl"
	"github.com/cpmech/morpho/selection"
)

// ShapeOptimizer descends a Problem's energy by moving vertex positions
// (spec §4.7, "ShapeOptimizer"). Every energy term contributes its position
// gradient; constraints and local constraints whose term carries a non-nil
// Fld are skipped, since those belong to that field's FieldOptimizer instead.
type ShapeOptimizer struct {
	Problem *Problem
	Params  Params
	fixed   map[int]bool

	prevForce [][]float64 // f_{k-1}, for ConjugateGradient's Hager-Zhang update
	prevDir   [][]float64 // d_{k-1}
	history   []float64
}

// NewShapeOptimizer returns a ShapeOptimizer over p with default parameters.
func NewShapeOptimizer(p *Problem) *ShapeOptimizer {
	return &ShapeOptimizer{Problem: p, Params: DefaultParams(), fixed: map[int]bool{}}
}

// Fix excludes the given vertex ids from all force assembly and stepping
// (spec §4.7 "fix(ids)").
func (o *ShapeOptimizer) Fix(ids []int) {
	for _, id := range ids {
		o.fixed[id] = true
	}
}

// History returns the total-energy value recorded after each completed
// descent iteration.
func (o *ShapeOptimizer) History() []float64 { return o.history }

func (o *ShapeOptimizer) ctx(sel *selection.Selection) *mdl.Context {
	return &mdl.Context{Mesh: o.Problem.Mesh, Sel: sel}
}

// totalForce assembles the raw, unconstrained gradient of the total energy
// with respect to vertex positions (spec §4.7.1 "totalforce"), zeroing rows
// at fixed vertices.
func (o *ShapeOptimizer) totalForce() ([][]float64, error) {
	out := la.MatAlloc(o.Problem.Mesh.Dim(), o.Problem.Mesh.NumVertices())
	for _, e := range o.Problem.Energies {
		g, err := eval.Gradient(e.F, o.ctx(e.Sel))
		if err != nil {
			return nil, err
		}
		axpyMat(out, e.Prefactor, g)
	}
	o.zeroFixed(out)
	return out, nil
}

func (o *ShapeOptimizer) zeroFixed(mat [][]float64) {
	for v := range o.fixed {
		for d := range mat {
			mat[d][v] = 0
		}
	}
}

// activeSelection resolves a local constraint's active selection (spec
// §4.7.1 "initlocalconstraints"): the constraint's own selection when it is
// not one-sided, or restricted to the elements currently violating the
// one-sided inequality (integrand < target, treated as a ctol-tolerant 0)
// when it is.
func activeSelection(c *mdl.Context, f mdl.Functional, sel *selection.Selection, target float64, onesided bool, ctol float64) (*selection.Selection, error) {
	if !onesided {
		return sel, nil
	}
	grade := f.Grade()
	var ids []int
	if sel != nil && sel.Count(grade) > 0 {
		ids = sel.IDs(grade)
	} else {
		n := c.Mesh.Count(grade)
		ids = make([]int, n)
		for i := range ids {
			ids[i] = i
		}
	}
	out := selection.New(c.Mesh)
	for _, id := range ids {
		v, err := f.Integrand(c, id)
		if err != nil {
			return nil, err
		}
		if v < target-ctol {
			out.Add(grade, id)
		}
	}
	return out, nil
}

func (o *ShapeOptimizer) initLocalConstraints() ([]*selection.Selection, error) {
	actives := make([]*selection.Selection, len(o.Problem.LocalConstraints))
	for i, lc := range o.Problem.LocalConstraints {
		if lc.Fld != nil {
			continue // belongs to a FieldOptimizer
		}
		a, err := activeSelection(o.ctx(lc.Sel), lc.F, lc.Sel, lc.Target, lc.OneSided, o.Params.Ctol)
		if err != nil {
			return nil, err
		}
		actives[i] = a
	}
	return actives, nil
}

func incidentVertices(c *mdl.Context, grade int, sel *selection.Selection) []int {
	seen := map[int]bool{}
	var out []int
	if sel == nil {
		return out
	}
	for _, id := range sel.IDs(grade) {
		for _, v := range c.Mesh.ElementVertices(grade, id) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

// subtractLocalFrom removes, in place, each local constraint's component
// from mat via per-vertex Gram-Schmidt projection (spec §4.7.1
// "subtractlocalconstraints"): lambda = f(v).g(v) / g(v).g(v), skipped where
// |g(v)|^2 < ctol.
func (o *ShapeOptimizer) subtractLocalFrom(mat [][]float64, actives []*selection.Selection) error {
	for i, lc := range o.Problem.LocalConstraints {
		if lc.Fld != nil || actives[i] == nil {
			continue
		}
		g, err := eval.Gradient(lc.F, &mdl.Context{Mesh: o.Problem.Mesh, Sel: actives[i]})
		if err != nil {
			return err
		}
		for v := 0; v < o.Problem.Mesh.NumVertices(); v++ {
			denom := 0.0
			for d := range g {
				denom += g[d][v] * g[d][v]
			}
			if denom < o.Params.Ctol {
				continue
			}
			dotfg := 0.0
			for d := range mat {
				dotfg += mat[d][v] * g[d][v]
			}
			lambda := dotfg / denom
			for d := range mat {
				mat[d][v] -= lambda * g[d][v]
			}
		}
	}
	return nil
}

// subtractConstraints removes, in place, mat's component along each shared
// constraint's gradient (already local-projected), one constraint at a time
// (spec §4.7.1 "subtractconstraints"): lambda = <f,g>/<g,g>.
func (o *ShapeOptimizer) subtractConstraints(mat [][]float64, actives []*selection.Selection) error {
	for _, gc := range o.Problem.Constraints {
		if gc.Fld != nil {
			continue
		}
		g, err := eval.Gradient(gc.F, o.ctx(gc.Sel))
		if err != nil {
			return err
		}
		if err := o.subtractLocalFrom(g, actives); err != nil {
			return err
		}
		denom := dotMat(g, g)
		if denom < o.Params.Ctol {
			continue
		}
		lambda := dotMat(mat, g) / denom
		axpyMat(mat, -lambda, g)
	}
	return nil
}

// totalForceWithConstraints is totalforce with the local- and
// shared-constraint components projected out (spec §4.7.1).
func (o *ShapeOptimizer) totalForceWithConstraints() ([][]float64, error) {
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

// reprojectLocalConstraints nudges vertex positions incident on each local
// constraint's active selection back toward its target, Gauss-Seidel style
// over the constraints, until every residual is within Ctol or
// MaxConstraintSteps iterations elapse (non-fatal timeout, spec §4.7.2, §7
// "constraint satisfaction timeout").
func (o *ShapeOptimizer) reprojectLocalConstraints() error {
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
			if lc.Fld != nil || actives[i] == nil || actives[i].Count(lc.F.Grade()) == 0 {
				continue
			}
			c := &mdl.Context{Mesh: o.Problem.Mesh, Sel: actives[i]}
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
			g, err := eval.Gradient(lc.F, c)
			if err != nil {
				return err
			}
			denom := dotMat(g, g)
			if denom < o.Params.Ctol {
				continue
			}
			lambda := residual / denom
			x := o.Problem.Mesh.VertexMatrix()
			for _, v := range incidentVertices(c, lc.F.Grade(), actives[i]) {
				if o.fixed[v] {
					continue
				}
				for d := range x {
					x[d][v] -= lambda * g[d][v]
				}
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

// reprojectConstraints solves the joint Gram system M.lambda = d (M_ij =
// <g_i,g_j>, d_i = target_i - total_i) and applies x += sum(lambda_i*g_i),
// iterating until ||d|| < Ctol or MaxConstraintSteps elapse (spec §4.7.2,
// non-fatal timeout per §7).
func (o *ShapeOptimizer) reprojectConstraints() error {
	n := 0
	for _, gc := range o.Problem.Constraints {
		if gc.Fld == nil {
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
		grads := make([][][]float64, 0, n)
		normD := 0.0
		for _, gc := range o.Problem.Constraints {
			if gc.Fld != nil {
				continue
			}
			c := &mdl.Context{Mesh: o.Problem.Mesh, Sel: gc.Sel}
			tot, err := eval.Total(gc.F, c)
			if err != nil {
				return err
			}
			r := gc.Target - tot
			normD += r * r
			d = append(d, r)
			g, err := eval.Gradient(gc.F, c)
			if err != nil {
				return err
			}
			o.zeroFixed(g) // a constraint gradient may touch a fixed vertex; keep it from moving there
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
				M[i][j] = dotMat(grads[i], grads[j])
			}
		}
		Minv := la.MatAlloc(n, n)
		if err := la.MatInvG(Minv, M, 1e-14); err != nil {
			return chk.Err("opt: reprojectConstraints: singular Gram matrix: %v", err)
		}
		lambda := make([]float64, n)
		la.MatVecMul(lambda, 1, Minv, d)
		x := o.Problem.Mesh.VertexMatrix()
		for i := 0; i < n; i++ {
			axpyMat(x, lambda[i], grads[i])
		}
	}
	if !o.Params.Quiet {
		io.Pf("opt: warning: reprojectConstraints did not converge within %d iterations\n", o.Params.MaxConstraintSteps)
	}
	return nil
}

// advance moves the vertex matrix by x -= h*f and reprojects onto the
// constraint manifold (spec §4.7.2 "step(h)").
func (o *ShapeOptimizer) advance(f [][]float64, h float64) error {
	x := o.Problem.Mesh.VertexMatrix()
	axpyMat(x, -h, f)
	if err := o.reprojectLocalConstraints(); err != nil {
		return err
	}
	return o.reprojectConstraints()
}

// Step performs a single constrained gradient-descent step of size h (spec
// §4.7.2).
func (o *ShapeOptimizer) Step(h float64) error {
	f, err := o.totalForceWithConstraints()
	if err != nil {
		return err
	}
	return o.advance(f, h)
}

func (o *ShapeOptimizer) converged(e0, e1 float64) bool {
	return math.Abs(e1) < o.Params.Etol || math.Abs(e1-e0) < o.Params.Etol*math.Max(1, math.Abs(e1))
}

// Relax runs up to n fixed-step descent iterations, stopping early on energy
// convergence (spec §4.7.3 "relax").
func (o *ShapeOptimizer) Relax(n int) error {
	e0, err := o.Problem.TotalEnergy(nil)
	if err != nil {
		return err
	}
	for iter := 0; iter < n; iter++ {
		if err := o.Step(o.Params.StepSize); err != nil {
			return err
		}
		e1, err := o.Problem.TotalEnergy(nil)
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

// LineSearch runs up to n descent iterations, each choosing its step size by
// bracketing and Brent-minimizing the energy along the (pre-projection)
// force direction (spec §4.7.3 "linesearch"). A bracketing failure is
// non-fatal (spec §7): the iteration stops, leaving the mesh at its last
// accepted state.
func (o *ShapeOptimizer) LineSearch(n int) error {
	e0, err := o.Problem.TotalEnergy(nil)
	if err != nil {
		return err
	}
	for iter := 0; iter < n; iter++ {
		f, err := o.totalForceWithConstraints()
		if err != nil {
			return err
		}
		x0 := cloneMat(o.Problem.Mesh.VertexMatrix())
		x := o.Problem.Mesh.VertexMatrix()
		var evalErr error
		energyAt := func(h float64) float64 {
			restoreMat(x, x0)
			axpyMat(x, -h, f)
			e, err := o.Problem.TotalEnergy(nil)
			if err != nil {
				evalErr = err
			}
			return e
		}
		a, xm, b, ok := bracket(energyAt, 0, o.Params.StepSize, 2*o.Params.StepSize)
		restoreMat(x, x0)
		if evalErr != nil {
			return evalErr
		}
		if !ok {
			return nil
		}
		h, _ := brent(energyAt, a, xm, b, o.Params.LinMinTol, o.Params.LinMinMax)
		restoreMat(x, x0)
		if evalErr != nil {
			return evalErr
		}
		if o.Params.StepLimit > 0 && h > o.Params.StepLimit {
			h = o.Params.StepLimit
		}
		if err := o.advance(f, h); err != nil {
			return err
		}
		e1, err := o.Problem.TotalEnergy(nil)
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
// conjugate directions (spec §4.7.3 "conjugategradient"): the first
// iteration is plain steepest descent; thereafter
// beta = <y - 2*d*<y,y>/<d,y>, f> / <d,y>, y = f_{k-1} - f_k,
// d = -f + beta*d_{k-1}, with the step chosen by the same bracket+Brent line
// minimization as LineSearch but along d rather than -f.
func (o *ShapeOptimizer) ConjugateGradient(n int) error {
	e0, err := o.Problem.TotalEnergy(nil)
	if err != nil {
		return err
	}
	for iter := 0; iter < n; iter++ {
		f, err := o.totalForceWithConstraints()
		if err != nil {
			return err
		}
		var d [][]float64
		if o.prevForce == nil {
			d = negMat(f)
		} else {
			y := subMat(o.prevForce, f)
			dy := dotMat(o.prevDir, y)
			if math.Abs(dy) < zeps {
				d = negMat(f)
			} else {
				yy := dotMat(y, y)
				tmp := subMat(y, scaleMat(o.prevDir, 2*yy/dy))
				beta := dotMat(tmp, f) / dy
				d = addMat(negMat(f), scaleMat(o.prevDir, beta))
			}
		}

		x0 := cloneMat(o.Problem.Mesh.VertexMatrix())
		x := o.Problem.Mesh.VertexMatrix()
		var evalErr error
		energyAt := func(h float64) float64 {
			restoreMat(x, x0)
			axpyMat(x, h, d)
			e, err := o.Problem.TotalEnergy(nil)
			if err != nil {
				evalErr = err
			}
			return e
		}
		a, xm, b, ok := bracket(energyAt, 0, o.Params.StepSize, 2*o.Params.StepSize)
		restoreMat(x, x0)
		if evalErr != nil {
			return evalErr
		}
		if !ok {
			return nil
		}
		h, _ := brent(energyAt, a, xm, b, o.Params.LinMinTol, o.Params.LinMinMax)
		restoreMat(x, x0)
		if evalErr != nil {
			return evalErr
		}
		if o.Params.StepLimit > 0 && h > o.Params.StepLimit {
			h = o.Params.StepLimit
		}
		axpyMat(x, h, d)
		if err := o.reprojectLocalConstraints(); err != nil {
			return err
		}
		if err := o.reprojectConstraints(); err != nil {
			return err
		}
		o.prevForce, o.prevDir = f, d

		e1, err := o.Problem.TotalEnergy(nil)
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

func addMat(a, b [][]float64) [][]float64 {
	out := cloneMat(a)
	for d := range out {
		for v := range out[d] {
			out[d][v] += b[d][v]
		}
	}
	return out
}
