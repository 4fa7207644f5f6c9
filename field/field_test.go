// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package field

import (
	"testing"

	"github.com/cpmech/morpho/mesh"
)

func twoVertexMesh() *mesh.Mesh {
	return mesh.New([][]float64{{0, 1}, {0, 0}, {0, 0}})
}

func TestGetSetItemRoundTrip(t *testing.T) {
	m := twoVertexMesh()
	f := New(m, [4]int{1, 0, 0, 0}, [4]int{3, 0, 0, 0})
	f.SetItem(0, 1, 0, []float64{1, 2, 3})
	got := f.GetItem(0, 1, 0)
	want := []float64{1, 2, 3}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("GetItem(0,1,0) = %v, want %v", got, want)
		}
	}
	// untouched vertex stays zero
	if v := f.GetItem(0, 0, 0); v[0] != 0 || v[1] != 0 || v[2] != 0 {
		t.Fatalf("GetItem(0,0,0) = %v, want zero", v)
	}
}

func TestAccumulateAndSub(t *testing.T) {
	m := twoVertexMesh()
	a := New(m, [4]int{1, 0, 0, 0}, [4]int{1, 0, 0, 0})
	b := New(m, [4]int{1, 0, 0, 0}, [4]int{1, 0, 0, 0})
	a.SetItem(0, 0, 0, []float64{2})
	b.SetItem(0, 0, 0, []float64{3})
	a.Accumulate(2, b)
	if got := a.GetItem(0, 0, 0)[0]; got != 8 {
		t.Fatalf("Accumulate: got %g, want 8 (2 + 2*3)", got)
	}
	d := a.Sub(b)
	if got := d.GetItem(0, 0, 0)[0]; got != 5 {
		t.Fatalf("Sub: got %g, want 5 (8 - 3)", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := twoVertexMesh()
	a := New(m, [4]int{1, 0, 0, 0}, [4]int{1, 0, 0, 0})
	a.SetItem(0, 0, 0, []float64{1})
	b := a.Clone()
	b.SetItem(0, 0, 0, []float64{99})
	if got := a.GetItem(0, 0, 0)[0]; got != 1 {
		t.Fatalf("mutating clone affected original: got %g, want 1", got)
	}
}
