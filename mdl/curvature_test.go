// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mdl

import (
	"math"
	"testing"

	"github.com/cpmech/morpho/mesh"
)

func straightPath() *mesh.Mesh {
	x := [][]float64{
		{0, 1, 2},
		{0, 0, 0},
		{0, 0, 0},
	}
	m := mesh.New(x)
	if err := m.AddGrade(1, [][]int{{0, 1}, {1, 2}}); err != nil {
		panic(err)
	}
	return m
}

func bentPath() *mesh.Mesh {
	x := [][]float64{
		{0, 1, 1},
		{0, 0, 1},
		{0, 0, 0},
	}
	m := mesh.New(x)
	if err := m.AddGrade(1, [][]int{{0, 1}, {1, 2}}); err != nil {
		panic(err)
	}
	return m
}

func TestLineCurvatureSqZeroOnStraightPath(t *testing.T) {
	m := straightPath()
	f := NewLineCurvatureSq()
	v, err := f.Integrand(&Context{Mesh: m}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(v) > 1e-12 {
		t.Fatalf("curvature^2 on a straight path = %v, want 0", v)
	}
	deps := f.Dependencies(&Context{Mesh: m}, 1)
	if len(deps) != 2 {
		t.Fatalf("got %d dependencies, want 2 (neighbouring vertices)", len(deps))
	}
}

func TestLineCurvatureSqPositiveOnBentPath(t *testing.T) {
	m := bentPath()
	f := NewLineCurvatureSq()
	v, err := f.Integrand(&Context{Mesh: m}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if v <= 0 {
		t.Fatalf("curvature^2 at a 90-degree bend = %v, want > 0", v)
	}
}

func TestLineCurvatureSqZeroAtPathEndpoint(t *testing.T) {
	m := straightPath()
	f := NewLineCurvatureSq()
	v, err := f.Integrand(&Context{Mesh: m}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if v != 0 {
		t.Fatalf("curvature at an endpoint (only one neighbour) = %v, want 0", v)
	}
}

// flatFan is a center vertex surrounded by 4 right triangles in the z=0
// plane, so the angle sum around the center is exactly 2*pi.
func flatFan() *mesh.Mesh {
	x := [][]float64{
		{0, 1, 0, -1, 0},
		{0, 0, 1, 0, -1},
		{0, 0, 0, 0, 0},
	}
	m := mesh.New(x)
	if err := m.AddGrade(2, [][]int{{0, 1, 2}, {0, 2, 3}, {0, 3, 4}, {0, 4, 1}}); err != nil {
		panic(err)
	}
	if err := m.AddGrade(1, nil); err != nil {
		panic(err)
	}
	return m
}

func TestGaussCurvatureZeroOnFlatFan(t *testing.T) {
	m := flatFan()
	f := NewGaussCurvature()
	v, err := f.Integrand(&Context{Mesh: m}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(v) > 1e-9 {
		t.Fatalf("Gauss curvature of a flat fan = %v, want 0", v)
	}
}

func TestMeanCurvatureSqZeroOnFlatFan(t *testing.T) {
	m := flatFan()
	f := NewMeanCurvatureSq()
	v, err := f.Integrand(&Context{Mesh: m}, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(v) > 1e-9 {
		t.Fatalf("mean curvature^2 of a flat fan = %v, want 0", v)
	}
	deps := f.Dependencies(&Context{Mesh: m}, 0)
	if len(deps) != 4 {
		t.Fatalf("got %d dependencies, want 4 (ring vertices)", len(deps))
	}
}
