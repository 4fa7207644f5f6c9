// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package eval

import (
	"math"
	"testing"

	"github.com/cpmech/morpho/mdl"
	"github.com/cpmech/morpho/mesh"
)

func rightTriangle() *mesh.Mesh {
	x := [][]float64{
		{0, 1, 0},
		{0, 0, 1},
		{0, 0, 0},
	}
	m := mesh.New(x)
	if err := m.AddGrade(2, [][]int{{0, 1, 2}}); err != nil {
		panic(err)
	}
	if err := m.AddGrade(1, nil); err != nil {
		panic(err)
	}
	return m
}

func TestKahanSum(t *testing.T) {
	var k KahanSum
	for i := 0; i < 1000; i++ {
		k.Add(0.1)
	}
	if math.Abs(k.Value()-100) > 1e-9 {
		t.Fatalf("Kahan sum of 1000x0.1 = %v, want ~100", k.Value())
	}
}

func TestTotalArea(t *testing.T) {
	m := rightTriangle()
	total, err := Total(mdl.NewArea(), &mdl.Context{Mesh: m})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(total-0.5) > 1e-12 {
		t.Fatalf("Area.total = %v, want 0.5", total)
	}
}

func TestGradientMatchesNumericDerivative(t *testing.T) {
	m := rightTriangle()
	f := mdl.NewLength()
	g, err := Gradient(f, &mdl.Context{Mesh: m})
	if err != nil {
		t.Fatal(err)
	}
	const h = 1e-6
	x := m.VertexMatrix()
	for v := 0; v < m.NumVertices(); v++ {
		for d := 0; d < m.Dim(); d++ {
			orig := x[d][v]
			x[d][v] = orig + h
			fp, err := Total(f, &mdl.Context{Mesh: m})
			if err != nil {
				t.Fatal(err)
			}
			x[d][v] = orig - h
			fm, err := Total(f, &mdl.Context{Mesh: m})
			if err != nil {
				t.Fatal(err)
			}
			x[d][v] = orig
			numeric := (fp - fm) / (2 * h)
			if math.Abs(numeric-g[d][v]) > 1e-6 {
				t.Fatalf("Length analytic gradient[%d][%d]=%v, numeric=%v", d, v, g[d][v], numeric)
			}
		}
	}
}

func TestSymmetryAddCombinesImagePair(t *testing.T) {
	m := rightTriangle()
	m.SetSymmetry([][2]int{{0, 1}})
	f := mdl.NewLength()
	g, err := Gradient(f, &mdl.Context{Mesh: m})
	if err != nil {
		t.Fatal(err)
	}
	for d := 0; d < m.Dim(); d++ {
		if g[d][0] != g[d][1] {
			t.Fatalf("symmetric pair (0,1) gradient rows differ at dim %d: %v vs %v", d, g[d][0], g[d][1])
		}
	}
}

func TestElementIDsSkipsImageVertices(t *testing.T) {
	m := rightTriangle()
	m.SetSymmetry([][2]int{{0, 1}})
	ids := elementIDs(&mdl.Context{Mesh: m}, 0)
	for _, id := range ids {
		if id == 1 {
			t.Fatal("elementIDs(grade 0) included image vertex 1")
		}
	}
}
