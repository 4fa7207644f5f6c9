// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package selection

import (
	"testing"

	"github.com/cpmech/morpho/mesh"
)

// square built from two triangles sharing edge (0,2):
//
//	3---2
//	|  /|
//	| / |
//	|/  |
//	0---1
func squareMesh(t *testing.T) *mesh.Mesh {
	x := [][]float64{
		{0, 1, 1, 0},
		{0, 0, 1, 1},
		{0, 0, 0, 0},
	}
	m := mesh.New(x)
	if err := m.AddGrade(2, [][]int{{0, 1, 2}, {0, 2, 3}}); err != nil {
		t.Fatal(err)
	}
	if err := m.AddGrade(1, nil); err != nil {
		t.Fatal(err)
	}
	return m
}

func TestSetAlgebra(t *testing.T) {
	m := squareMesh(t)
	a := New(m)
	a.Add(2, 0)
	b := New(m)
	b.Add(2, 1)

	u := a.Union(b)
	if u.Count(2) != 2 {
		t.Fatalf("Union count = %d, want 2", u.Count(2))
	}
	i := a.Intersection(b)
	if i.Count(2) != 0 {
		t.Fatalf("Intersection count = %d, want 0 (disjoint)", i.Count(2))
	}
	d := u.Difference(a)
	if d.Count(2) != 1 || !d.Has(2, 1) {
		t.Fatalf("Difference = %v, want {1}", d.IDs(2))
	}
	c := a.Complement()
	if c.Count(2) != 1 || !c.Has(2, 1) {
		t.Fatalf("Complement of {0} over 2 faces = %v, want {1}", c.IDs(2))
	}
}

func TestBoundaryOfSquare(t *testing.T) {
	m := squareMesh(t)
	b, err := Boundary(m, 2)
	if err != nil {
		t.Fatal(err)
	}
	// the diagonal (0,2) is shared by both triangles and so is not boundary;
	// the 4 outer edges are boundary.
	if b.Count(1) != 4 {
		t.Fatalf("boundary edge count = %d, want 4", b.Count(1))
	}
}

func TestAddGradePartials(t *testing.T) {
	m := squareMesh(t)
	verts := New(m)
	verts.Add(0, 0)
	verts.Add(0, 1)

	// face 0 = {0,1,2}: only vertices 0,1 selected, not all incident -> excluded without Partials
	all := verts.clone()
	if err := all.AddGrade(0, 2, AddGradeOptions{}); err != nil {
		t.Fatal(err)
	}
	if all.Count(2) != 0 {
		t.Fatalf("AddGrade without Partials selected %d faces, want 0", all.Count(2))
	}

	partial := verts.clone()
	if err := partial.AddGrade(0, 2, AddGradeOptions{Partials: true}); err != nil {
		t.Fatal(err)
	}
	// face 0 = {0,1,2} and face 1 = {0,2,3} each have at least one of {0,1} selected
	if partial.Count(2) != 2 {
		t.Fatalf("AddGrade with Partials selected %v, want {0,1}", partial.IDs(2))
	}
}
