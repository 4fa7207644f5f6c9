// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mdl

import (
	"math"
	"testing"

	"github.com/cpmech/morpho/mesh"
)

func TestLinearElasticityZeroAtReferenceConfiguration(t *testing.T) {
	ref := unitRightTriangle()
	f := NewLinearElasticity(ref, 2, 0.3)
	v, err := f.Integrand(&Context{Mesh: ref}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(v) > 1e-12 {
		t.Fatalf("strain energy at the reference configuration = %v, want 0", v)
	}
}

func TestLinearElasticityPositiveWhenStretched(t *testing.T) {
	ref := unitRightTriangle()
	stretched := mesh.New([][]float64{
		{0, 2, 0},
		{0, 0, 1},
		{0, 0, 0},
	})
	if err := stretched.AddGrade(2, [][]int{{0, 1, 2}}); err != nil {
		t.Fatal(err)
	}
	f := NewLinearElasticity(ref, 2, 0.3)
	v, err := f.Integrand(&Context{Mesh: stretched}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v <= 0 {
		t.Fatalf("strain energy under stretch = %v, want > 0", v)
	}
}

func TestLinearElasticityGradientMatchesNumericDerivative(t *testing.T) {
	ref := unitRightTriangle()
	cur := mesh.New([][]float64{
		{0, 1.3, 0.1},
		{0.1, 0, 1.2},
		{0, 0, 0},
	})
	if err := cur.AddGrade(2, [][]int{{0, 1, 2}}); err != nil {
		t.Fatal(err)
	}
	f := NewLinearElasticity(ref, 2, 0.3)
	c := &Context{Mesh: cur}

	out := [][]float64{make([]float64, cur.NumVertices()), make([]float64, cur.NumVertices()), make([]float64, cur.NumVertices())}
	if err := f.Gradient(c, 0, out); err != nil {
		t.Fatal(err)
	}

	const h = 1e-6
	x := cur.VertexMatrix()
	for v := 0; v < cur.NumVertices(); v++ {
		for d := 0; d < cur.Dim(); d++ {
			orig := x[d][v]
			x[d][v] = orig + h
			fp, err := f.Integrand(c, 0)
			if err != nil {
				t.Fatal(err)
			}
			x[d][v] = orig - h
			fm, err := f.Integrand(c, 0)
			if err != nil {
				t.Fatal(err)
			}
			x[d][v] = orig
			numeric := (fp - fm) / (2 * h)
			if math.Abs(numeric-out[d][v]) > 1e-4 {
				t.Fatalf("gradient[%d][%d] = %v, numeric = %v", d, v, out[d][v], numeric)
			}
		}
	}
}
