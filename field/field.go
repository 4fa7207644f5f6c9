// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package field implements per-element numerical data keyed by (grade,
// element, item, component) (spec §3.2, §4.3): a single dense vector
// addressed through a per-grade offset table, with elementwise arithmetic,
// cloning, and mapping over one or more co-indexed fields.
package field

import (
	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"

	"github.com/cpmech/morpho/mesh"
)

// Field is a dense per-element data buffer over a Mesh. For each grade g, Dof
// items are stored per element of that grade, and each item has PSize
// components (1 for a scalar prototype, >1 for a fixed-shape vector/matrix
// prototype, e.g. psize=3 for a 3-vector director per triangle).
type Field struct {
	Msh    *mesh.Mesh
	Dof    [4]int // items per element, per grade; 0 means the field has no data on that grade
	PSize  [4]int // components per item, per grade
	offset [4]int // starting index into data for grade g
	data   []float64
}

// New allocates a zeroed field over msh with the given per-grade item counts
// (dof) and per-grade item component sizes (psize, defaulting to 1 where dof
// is nonzero and psize is left at 0).
func New(m *mesh.Mesh, dof, psize [4]int) *Field {
	o := &Field{Msh: m, Dof: dof, PSize: psize}
	for g := 0; g < 4; g++ {
		if o.Dof[g] > 0 && o.PSize[g] == 0 {
			o.PSize[g] = 1
		}
	}
	total := 0
	for g := 0; g < 4; g++ {
		o.offset[g] = total
		total += m.Count(g) * o.Dof[g] * o.PSize[g]
	}
	o.data = make([]float64, total)
	return o
}

// Shape returns the per-grade item counts (dof).
func (o *Field) Shape() [4]int { return o.Dof }

// index computes the flat data offset for (grade,element,item,component).
func (o *Field) index(g, el, item, comp int) int {
	if o.Dof[g] == 0 {
		chk.Panic("field: grade %d has no data in this field", g)
	}
	if item < 0 || item >= o.Dof[g] || comp < 0 || comp >= o.PSize[g] {
		chk.Panic("field: item/component (%d,%d) out of range for grade %d (dof=%d, psize=%d)", item, comp, g, o.Dof[g], o.PSize[g])
	}
	stride := o.Dof[g] * o.PSize[g]
	return o.offset[g] + el*stride + item*o.PSize[g] + comp
}

// GetElement returns a single component value at (grade,element,item,component).
func (o *Field) GetElement(g, el, item, comp int) float64 {
	return o.data[o.index(g, el, item, comp)]
}

// SetElement overwrites a single component value.
func (o *Field) SetElement(g, el, item, comp int, v float64) {
	o.data[o.index(g, el, item, comp)] = v
}

// AddElement accumulates onto a single component value.
func (o *Field) AddElement(g, el, item, comp int, v float64) {
	o.data[o.index(g, el, item, comp)] += v
}

// GetItem returns a copy of the full PSize[g]-component item at
// (grade,element,item).
func (o *Field) GetItem(g, el, item int) []float64 {
	stride := o.PSize[g]
	base := o.offset[g] + el*o.Dof[g]*stride + item*stride
	return append([]float64(nil), o.data[base:base+stride]...)
}

// SetItem overwrites the full item at (grade,element,item).
func (o *Field) SetItem(g, el, item int, v []float64) {
	if len(v) != o.PSize[g] {
		chk.Panic("field: SetItem: value has %d components, want %d", len(v), o.PSize[g])
	}
	stride := o.PSize[g]
	base := o.offset[g] + el*o.Dof[g]*stride + item*stride
	copy(o.data[base:base+stride], v)
}

// sameShape reports whether two fields share identical per-grade dof/psize,
// the precondition for any elementwise binary operation (spec §7: "a field's
// per-grade DOF do not match" is a shape/dimension-mismatch error).
func sameShape(a, b *Field) bool {
	return a.Dof == b.Dof && a.PSize == b.PSize
}

// Clone returns a deep, independent copy.
func (o *Field) Clone() *Field {
	n := &Field{Msh: o.Msh, Dof: o.Dof, PSize: o.PSize, offset: o.offset}
	n.data = la.VecClone(o.data)
	return n
}

// Zero sets every component to 0.
func (o *Field) Zero() {
	la.VecFill(o.data, 0)
}

// Add returns a new field equal to the elementwise sum a+b.
func (o *Field) Add(b *Field) *Field {
	if !sameShape(o, b) {
		chk.Panic("field: Add: shape mismatch")
	}
	n := o.Clone()
	for i := range n.data {
		n.data[i] += b.data[i]
	}
	return n
}

// Sub returns a new field equal to the elementwise difference a-b.
func (o *Field) Sub(b *Field) *Field {
	if !sameShape(o, b) {
		chk.Panic("field: Sub: shape mismatch")
	}
	n := o.Clone()
	for i := range n.data {
		n.data[i] -= b.data[i]
	}
	return n
}

// Accumulate performs the in-place update a <- a + lambda*b (spec §3.2).
func (o *Field) Accumulate(lambda float64, b *Field) {
	if !sameShape(o, b) {
		chk.Panic("field: Accumulate: shape mismatch")
	}
	la.VecAdd(o.data, lambda, b.data)
}

// Norm returns the Frobenius/Euclidean norm of the underlying data vector.
func (o *Field) Norm() float64 {
	return la.VecNorm(o.data)
}

// Raw exposes the underlying dense storage (read-only use expected outside
// package; exported for the optimizer's direct vector manipulation during
// descent and for numerical-gradient mutate-and-restore).
func (o *Field) Raw() []float64 { return o.data }

// Op applies fn to the corresponding item (a PSize[g]-component slice) of the
// receiver and of each field in others, for every element of every grade
// present in the receiver's shape, writing the result into a new field of the
// receiver's shape. All fields must share the receiver's shape (spec §4.3).
func (o *Field) Op(fn func(items ...[]float64) []float64, others ...*Field) *Field {
	for _, b := range others {
		if !sameShape(o, b) {
			chk.Panic("field: Op: co-indexed field has mismatched per-grade dof")
		}
	}
	out := New(o.Msh, o.Dof, o.PSize)
	args := make([][]float64, 1+len(others))
	for g := 0; g < 4; g++ {
		if o.Dof[g] == 0 {
			continue
		}
		n := o.Msh.Count(g)
		for el := 0; el < n; el++ {
			for item := 0; item < o.Dof[g]; item++ {
				args[0] = o.GetItem(g, el, item)
				for k, b := range others {
					args[1+k] = b.GetItem(g, el, item)
				}
				out.SetItem(g, el, item, fn(args...))
			}
		}
	}
	return out
}
