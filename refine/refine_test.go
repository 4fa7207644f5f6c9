// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package refine

import (
	"math"
	"testing"

	"github.com/cpmech/morpho/field"
	"github.com/cpmech/morpho/mdl"
	"github.com/cpmech/morpho/mesh"
	"github.com/cpmech/morpho/selection"
)

func rightTriangle() *mesh.Mesh {
	x := [][]float64{
		{0, 2, 0},
		{0, 0, 2},
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

func TestUniformRefineQuadruplesFaces(t *testing.T) {
	old := rightTriangle()
	newMesh, rm, err := Refine(old, nil)
	if err != nil {
		t.Fatal(err)
	}
	if newMesh.Count(2) != 4 {
		t.Fatalf("got %d faces after uniform refine, want 4", newMesh.Count(2))
	}
	// 1 original triangle, 3 edges all refined -> 3 new midpoint vertices
	if newMesh.NumVertices() != 6 {
		t.Fatalf("got %d vertices after uniform refine, want 6 (3 original + 3 midpoints)", newMesh.NumVertices())
	}
	if len(rm.FaceParents) != 4 {
		t.Fatalf("got %d face-parent entries, want 4", len(rm.FaceParents))
	}
	for _, p := range rm.FaceParents {
		if len(p) != 1 || p[0] != 0 {
			t.Fatalf("every refined sub-triangle should map to parent 0, got %v", p)
		}
	}
}

func TestRefinePreservesArea(t *testing.T) {
	old := rightTriangle()
	newMesh, _, err := Refine(old, nil)
	if err != nil {
		t.Fatal(err)
	}
	oldArea, err := totalArea(old)
	if err != nil {
		t.Fatal(err)
	}
	newArea, err := totalArea(newMesh)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(oldArea-newArea) > 1e-10 {
		t.Fatalf("area not preserved by refinement: %v -> %v", oldArea, newArea)
	}
}

func totalArea(m *mesh.Mesh) (float64, error) {
	f := mdl.NewArea()
	sum := 0.0
	for id := 0; id < m.Count(2); id++ {
		v, err := f.Integrand(&mdl.Context{Mesh: m}, id)
		if err != nil {
			return 0, err
		}
		sum += v
	}
	return sum, nil
}

func TestFieldRefinementAveragesAtMidpoint(t *testing.T) {
	old := rightTriangle()
	fld := field.New(old, [4]int{1, 0, 0, 0}, [4]int{1, 0, 0, 0})
	fld.SetItem(0, 0, 0, []float64{0})
	fld.SetItem(0, 1, 0, []float64{10})
	fld.SetItem(0, 2, 0, []float64{0})

	newMesh, rm, err := Refine(old, nil)
	if err != nil {
		t.Fatal(err)
	}
	newFld := Field(rm, fld, newMesh)

	// vertex 0 and 1 are original and preserved; the midpoint of edge(0,1)
	// must carry their mean.
	for v := 0; v < newMesh.NumVertices(); v++ {
		parents := rm.VertexParents[v]
		if len(parents) == 2 && parents[0] == 0 && parents[1] == 1 {
			got := newFld.GetItem(0, v, 0)[0]
			if math.Abs(got-5) > 1e-12 {
				t.Fatalf("midpoint(0,1) field value = %v, want 5 (mean of 0 and 10)", got)
			}
			return
		}
	}
	t.Fatal("did not find the midpoint vertex between parents 0 and 1")
}

func TestSelectionRefinementRequiresAllParents(t *testing.T) {
	old := rightTriangle()
	sel := selection.New(old)
	sel.Add(0, 0)
	sel.Add(0, 1)
	// vertex 2 not selected

	newMesh, rm, err := Refine(old, nil)
	if err != nil {
		t.Fatal(err)
	}
	newSel := Selection(rm, sel, newMesh)

	for v := 0; v < newMesh.NumVertices(); v++ {
		parents := rm.VertexParents[v]
		allSelected := true
		for _, p := range parents {
			if !sel.Has(0, p) {
				allSelected = false
			}
		}
		if newSel.Has(0, v) != allSelected {
			t.Fatalf("vertex %d (parents %v): selected=%v, want %v", v, parents, newSel.Has(0, v), allSelected)
		}
	}
}
