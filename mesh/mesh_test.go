// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mesh

import "testing"

func unitTriangle() *Mesh {
	x := [][]float64{
		{0, 1, 0},
		{0, 0, 1},
		{0, 0, 0},
	}
	m := New(x)
	if err := m.AddGrade(2, [][]int{{0, 1, 2}}); err != nil {
		panic(err)
	}
	if err := m.AddGrade(1, nil); err != nil {
		panic(err)
	}
	return m
}

func TestAddGradeDerivesEdges(t *testing.T) {
	m := unitTriangle()
	if m.Count(1) != 3 {
		t.Fatalf("got %d derived edges, want 3", m.Count(1))
	}
	if m.Count(2) != 1 {
		t.Fatalf("got %d faces, want 1", m.Count(2))
	}
}

func TestElementVerticesPreservesWinding(t *testing.T) {
	m := unitTriangle()
	v := m.ElementVertices(2, 0)
	want := []int{0, 1, 2}
	for i := range want {
		if v[i] != want[i] {
			t.Fatalf("face vertices %v, want %v (order must be preserved)", v, want)
		}
	}
}

func TestSymmetryPairsRoundTrip(t *testing.T) {
	m := unitTriangle()
	m.SetSymmetry([][2]int{{0, 2}})
	if !m.IsImage(2) {
		t.Fatal("vertex 2 should be an image after SetSymmetry({0,2})")
	}
	images := m.ImageVertices()
	if len(images) != 1 || images[0] != 2 {
		t.Fatalf("ImageVertices() = %v, want [2]", images)
	}
	pairs := m.SymmetryPairs()
	if len(pairs) != 1 || pairs[0] != [2]int{0, 2} {
		t.Fatalf("SymmetryPairs() = %v, want [[0 2]]", pairs)
	}
}

func TestConnectivitySharedEdge(t *testing.T) {
	// two triangles sharing edge (1,2)
	x := [][]float64{
		{0, 1, 0, 1},
		{0, 0, 1, 1},
		{0, 0, 0, 0},
	}
	m := New(x)
	if err := m.AddGrade(2, [][]int{{0, 1, 2}, {1, 3, 2}}); err != nil {
		t.Fatal(err)
	}
	if err := m.AddGrade(1, nil); err != nil {
		t.Fatal(err)
	}
	if m.Count(1) != 5 {
		t.Fatalf("got %d edges for two triangles sharing one edge, want 5", m.Count(1))
	}
	c, err := m.Connectivity(2, 1)
	if err != nil {
		t.Fatal(err)
	}
	// the shared edge (1,2) must be incident on both faces
	found := false
	for e := 0; e < m.Count(1); e++ {
		v := m.ElementVertices(1, e)
		if (v[0] == 1 && v[1] == 2) || (v[0] == 2 && v[1] == 1) {
			if len(c.RowsForCol(e)) != 2 {
				t.Fatalf("shared edge %d incident on %d faces, want 2", e, len(c.RowsForCol(e)))
			}
			found = true
		}
	}
	if !found {
		t.Fatal("shared edge (1,2) not found in derived edge list")
	}
}
