// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mdl

import (
	"math"
	"testing"
)

func TestScalarPotentialEvaluatesClosureAtVertex(t *testing.T) {
	m := unitRightTriangle()
	fn := func(x []float64, fields ...[]float64) float64 { return x[0]*x[0] + x[1]*x[1] }
	f := NewScalarPotential(fn)
	c := &Context{Mesh: m}
	// vertex 1 is at (1,0,0)
	v, err := f.Integrand(c, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(v-1) > 1e-12 {
		t.Fatalf("ScalarPotential at (1,0,0) = %v, want 1", v)
	}

	out := [][]float64{make([]float64, m.NumVertices()), make([]float64, m.NumVertices()), make([]float64, m.NumVertices())}
	if err := f.Gradient(c, 1, out); err != nil {
		t.Fatal(err)
	}
	// d/dx(x^2+y^2) at (1,0,0) = 2
	if math.Abs(out[0][1]-2) > 1e-4 {
		t.Fatalf("ScalarPotential gradient d/dx = %v, want ~2", out[0][1])
	}
}

func TestLineIntegralOfConstantOneIsLength(t *testing.T) {
	m := unitRightTriangle()
	one := func(x []float64, fields ...[]float64) float64 { return 1 }
	f := NewLineIntegral(one, nil)
	c := &Context{Mesh: m}
	for e := 0; e < m.Count(1); e++ {
		vs := m.ElementVertices(1, e)
		want := norm3(sub3(c.X(vs[1]), c.X(vs[0])))
		got, err := f.Integrand(c, e)
		if err != nil {
			t.Fatal(err)
		}
		if math.Abs(got-want) > 1e-12 {
			t.Fatalf("LineIntegral of 1 over edge %d = %v, want length %v", e, got, want)
		}
	}
}

func TestAreaIntegralOfConstantOneIsArea(t *testing.T) {
	m := unitRightTriangle()
	one := func(x []float64, fields ...[]float64) float64 { return 1 }
	f := NewAreaIntegral(one)
	c := &Context{Mesh: m}
	got, err := f.Integrand(c, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(got-0.5) > 1e-12 {
		t.Fatalf("AreaIntegral of 1 over unit right triangle = %v, want 0.5", got)
	}
}

func TestScalarPotentialErrorsWithoutClosure(t *testing.T) {
	f := &ScalarPotential{base: base{grade: 0}}
	_, err := f.Integrand(&Context{Mesh: unitRightTriangle()}, 0)
	if err == nil {
		t.Fatal("expected an error when no closure is supplied")
	}
}
