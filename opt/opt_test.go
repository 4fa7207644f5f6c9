// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import (
	"math"
	"testing"

	"github.com/cpmech/morpho/eval"
	"github.com/cpmech/morpho/mdl"
	"github.com/cpmech/morpho/mesh"
	"github.com/cpmech/morpho/selection"
)

// pyramid returns a 4-triangle fan around an elevated apex (vertex 0) over a
// square boundary ring (vertices 1-4), matching cmd/morpho's demo patch.
func pyramid() *mesh.Mesh {
	x := [][]float64{
		{0, 1, 1, -1, -1},
		{0, 1, -1, -1, 1},
		{0.6, 0, 0, 0, 0},
	}
	m := mesh.New(x)
	faces := [][]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}, {0, 4, 1}}
	if err := m.AddGrade(2, faces); err != nil {
		panic(err)
	}
	if err := m.AddGrade(1, nil); err != nil {
		panic(err)
	}
	return m
}

func boundaryVertexIDs(t *testing.T, m *mesh.Mesh) []int {
	b, err := selection.Boundary(m, 2)
	if err != nil {
		t.Fatal(err)
	}
	seen := map[int]bool{}
	var out []int
	for _, e := range b.IDs(1) {
		for _, v := range m.ElementVertices(1, e) {
			if !seen[v] {
				seen[v] = true
				out = append(out, v)
			}
		}
	}
	return out
}

func TestProblemAddConstraintCapturesCurrentTotal(t *testing.T) {
	m := pyramid()
	p := NewProblem(m)
	if err := p.AddConstraint(mdl.NewVolumeEnclosed(), nil, nil, nil); err != nil {
		t.Fatal(err)
	}
	if len(p.Constraints) != 1 {
		t.Fatalf("got %d constraints, want 1", len(p.Constraints))
	}
	// captured target should equal a fresh eval, i.e. self-consistent
	want, err := eval.Total(mdl.NewVolumeEnclosed(), &mdl.Context{Mesh: m})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(p.Constraints[0].Target-want) > 1e-12 {
		t.Fatalf("captured constraint target = %v, want fresh total %v", p.Constraints[0].Target, want)
	}
	if p.Constraints[0].Target == 0 {
		t.Fatal("captured constraint target is zero for a non-degenerate pyramid")
	}
}

func TestShapeOptimizerRelaxDecreasesAreaWithFixedBoundary(t *testing.T) {
	m := pyramid()
	p := NewProblem(m)
	p.AddEnergy(mdl.NewArea(), nil, 1)

	e0, err := p.TotalEnergy(nil)
	if err != nil {
		t.Fatal(err)
	}

	o := NewShapeOptimizer(p)
	o.Params.Quiet = true
	o.Fix(boundaryVertexIDs(t, m))
	if err := o.Relax(50); err != nil {
		t.Fatal(err)
	}

	e1, err := p.TotalEnergy(nil)
	if err != nil {
		t.Fatal(err)
	}
	if e1 > e0 {
		t.Fatalf("area increased under descent: %v -> %v", e0, e1)
	}

	// boundary vertices must not have moved
	x := m.VertexMatrix()
	want := [][]float64{{1, 1, -1, -1}, {1, -1, -1, 1}, {0, 0, 0, 0}}
	for d := 0; d < 3; d++ {
		for i, v := range []int{1, 2, 3, 4} {
			if math.Abs(x[d][v]-want[d][i]) > 1e-12 {
				t.Fatalf("fixed boundary vertex %d moved: dim %d = %v, want %v", v, d, x[d][v], want[d][i])
			}
		}
	}
}

func TestBrentFindsParabolaMinimum(t *testing.T) {
	fn := func(x float64) float64 { return (x-2)*(x-2) + 1 }
	xmin, fmin := brent(fn, -5, 0, 5, 1e-8, 100)
	if math.Abs(xmin-2) > 1e-4 {
		t.Fatalf("brent xmin = %v, want ~2", xmin)
	}
	if math.Abs(fmin-1) > 1e-6 {
		t.Fatalf("brent fmin = %v, want ~1", fmin)
	}
}

func TestBracketExpandsToDescendingTriple(t *testing.T) {
	fn := func(x float64) float64 { return (x-3)*(x-3) + 1 }
	a, x, b, ok := bracket(fn, 0, 0.1, 0.2)
	if !ok {
		t.Fatal("bracket failed to find a descending triple")
	}
	if !(fn(x) < fn(a) && fn(x) < fn(b)) {
		t.Fatalf("bracket (%v,%v,%v) is not a valid descending triple", a, x, b)
	}
}
