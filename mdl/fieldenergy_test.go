// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mdl

import (
	"math"
	"testing"

	"github.com/cpmech/morpho/field"
	"github.com/cpmech/morpho/mesh"
)

func TestGradSqOnLinearField(t *testing.T) {
	m := unitRightTriangle()
	phi := field.New(m, [4]int{1, 0, 0, 0}, [4]int{1, 0, 0, 0})
	phi.SetItem(0, 0, 0, []float64{0})
	phi.SetItem(0, 1, 0, []float64{1})
	phi.SetItem(0, 2, 0, []float64{0})

	f := NewGradSq(phi)
	c := &Context{Mesh: m, Fld: phi}
	v, err := f.Integrand(c, 0)
	if err != nil {
		t.Fatal(err)
	}
	// phi = x over this triangle, so grad(phi)=(1,0,0), area=0.5:
	// integrand = ||grad||^2 * area = 0.5
	if math.Abs(v-0.5) > 1e-9 {
		t.Fatalf("GradSq integrand = %v, want 0.5", v)
	}
}

func TestNormSqIntegrandAndFieldGradient(t *testing.T) {
	m := mesh.New([][]float64{{0}, {0}, {0}})
	phi := field.New(m, [4]int{1, 0, 0, 0}, [4]int{3, 0, 0, 0})
	phi.SetItem(0, 0, 0, []float64{1, 2, 2})

	f := NewNormSq(phi)
	c := &Context{Mesh: m, Fld: phi}
	v, err := f.Integrand(c, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(v-9) > 1e-12 {
		t.Fatalf("NormSq integrand = %v, want 9", v)
	}

	out := field.New(m, [4]int{1, 0, 0, 0}, [4]int{3, 0, 0, 0})
	if err := f.FieldGradient(c, 0, out); err != nil {
		t.Fatal(err)
	}
	got := out.GetItem(0, 0, 0)
	want := []float64{2, 4, 4}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-12 {
			t.Fatalf("NormSq field gradient = %v, want %v", got, want)
		}
	}
}

func TestNematicFieldGradientMatchesNumericDerivative(t *testing.T) {
	m := unitRightTriangle()
	director := field.New(m, [4]int{1, 0, 0, 0}, [4]int{3, 0, 0, 0})
	director.SetItem(0, 0, 0, []float64{1, 0, 0})
	director.SetItem(0, 1, 0, []float64{0, 1, 0})
	director.SetItem(0, 2, 0, []float64{0, 0, 1})

	f := NewNematic(director, 1, 1, 1, 0)
	c := &Context{Mesh: m, Fld: director}

	out := field.New(m, [4]int{1, 0, 0, 0}, [4]int{3, 0, 0, 0})
	if err := f.FieldGradient(c, 0, out); err != nil {
		t.Fatal(err)
	}

	const h = 1e-6
	for _, v := range []int{0, 1, 2} {
		for j := 0; j < 3; j++ {
			val := director.GetItem(0, v, 0)
			orig := val[j]
			val[j] = orig + h
			director.SetItem(0, v, 0, val)
			fp, err := f.Integrand(c, 0)
			if err != nil {
				t.Fatal(err)
			}
			val[j] = orig - h
			director.SetItem(0, v, 0, val)
			fm, err := f.Integrand(c, 0)
			if err != nil {
				t.Fatal(err)
			}
			val[j] = orig
			director.SetItem(0, v, 0, val)
			numeric := (fp - fm) / (2 * h)
			got := out.GetItem(0, v, 0)[j]
			if math.Abs(numeric-got) > 1e-4 {
				t.Fatalf("Nematic field gradient[%d][%d] = %v, numeric = %v", v, j, got, numeric)
			}
		}
	}
}
