// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mdl

import (
	"math"
	"testing"

	"github.com/cpmech/morpho/mesh"
)

func TestEquiElementZeroWhenUniform(t *testing.T) {
	m := flatFan()
	f := NewEquiElement(2)
	v, err := f.Integrand(&Context{Mesh: m}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(v) > 1e-12 {
		t.Fatalf("EquiElement variance over 4 equal-area triangles = %v, want 0", v)
	}
}

func TestEquiElementPositiveWhenNonUniform(t *testing.T) {
	x := [][]float64{
		{0, 1, 0, -3, 0},
		{0, 0, 1, 0, -3},
		{0, 0, 0, 0, 0},
	}
	m := mesh.New(x)
	if err := m.AddGrade(2, [][]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}, {0, 4, 1}}); err != nil {
		t.Fatal(err)
	}
	f := NewEquiElement(2)
	v, err := f.Integrand(&Context{Mesh: m}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v <= 0 {
		t.Fatalf("EquiElement variance over unequal-area triangles = %v, want > 0", v)
	}
}

func TestEquiElementDependenciesExcludesSelf(t *testing.T) {
	m := flatFan()
	f := NewEquiElement(2)
	deps := f.Dependencies(&Context{Mesh: m}, 0)
	for _, d := range deps {
		if d == 0 {
			t.Fatal("Dependencies included the vertex itself")
		}
	}
	if len(deps) != 4 {
		t.Fatalf("got %d dependencies, want 4 (ring vertices)", len(deps))
	}
}
