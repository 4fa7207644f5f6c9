// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package sparse implements the DOK/CCS sparse-matrix contract (spec §4.2): a
// dictionary-of-keys editable form and a column-compressed, row-sorted derived
// form, with deterministic DOK->CCS conversion and non-aliasing add/multiply.
// Dense fallbacks (ToDense, and Solve's dense inverse) go through
// github.com/cpmech/gosl/la, the same dense
// numerics provider gofem's own element and solver code builds on.
package sparse

import (
	"sort"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/la"
)

// DOK is the editable dictionary-of-keys sparse matrix. Set on an existing
// (row,col) pair accumulates, matching the assembly semantics gofem relies on
// when scattering element contributions into a global matrix.
type DOK struct {
	nrow, ncol int
	keys       []dokKey       // insertion-ordered (row,col) pairs, first-seen
	pos        map[dokKey]int // (row,col) -> index into keys/vals
	vals       []float64
	ccs        *CCS // cached compressed form; nil after any mutation
}

type dokKey struct{ row, col int }

// NewDOK allocates an empty nrow x ncol DOK matrix with room for nnzGuess entries.
func NewDOK(nrow, ncol, nnzGuess int) *DOK {
	return &DOK{
		nrow: nrow, ncol: ncol,
		pos: make(map[dokKey]int, nnzGuess),
	}
}

// Dims returns the matrix shape.
func (o *DOK) Dims() (nrow, ncol int) { return o.nrow, o.ncol }

// NNZ returns the number of distinct stored (row,col) entries.
func (o *DOK) NNZ() int { return len(o.keys) }

// Set records (accumulates onto) value at (row,col) and invalidates the CCS cache.
func (o *DOK) Set(row, col int, value float64) {
	if row < 0 || row >= o.nrow || col < 0 || col >= o.ncol {
		chk.Panic("sparse: index (%d,%d) out of range for %dx%d matrix", row, col, o.nrow, o.ncol)
	}
	k := dokKey{row, col}
	if i, ok := o.pos[k]; ok {
		o.vals[i] += value
	} else {
		o.pos[k] = len(o.keys)
		o.keys = append(o.keys, k)
		o.vals = append(o.vals, value)
	}
	o.ccs = nil
}

// Get returns the value at (row,col), or 0 if absent.
func (o *DOK) Get(row, col int) float64 {
	if i, ok := o.pos[dokKey{row, col}]; ok {
		return o.vals[i]
	}
	return 0
}

// CCS returns the column-compressed sorted form, computing and caching it if the
// DOK has changed since the last call. Within each column, row indices are
// ascending, and conversion is deterministic regardless of Set order (spec §4.2).
func (o *DOK) CCS() *CCS {
	if o.ccs == nil {
		o.ccs = ccsFromDOK(o)
	}
	return o.ccs
}

func ccsFromDOK(o *DOK) *CCS {
	type rv struct {
		row int
		val float64
	}
	cols := make([][]rv, o.ncol)
	for i, k := range o.keys {
		cols[k.col] = append(cols[k.col], rv{k.row, o.vals[i]})
	}
	c := &CCS{nrow: o.nrow, ncol: o.ncol, Ap: make([]int, o.ncol+1)}
	for j := 0; j < o.ncol; j++ {
		sort.Slice(cols[j], func(a, b int) bool { return cols[j][a].row < cols[j][b].row })
		c.Ap[j+1] = c.Ap[j] + len(cols[j])
	}
	c.Ai = make([]int, c.Ap[o.ncol])
	c.Ax = make([]float64, c.Ap[o.ncol])
	for j := 0; j < o.ncol; j++ {
		for k, e := range cols[j] {
			c.Ai[c.Ap[j]+k] = e.row
			c.Ax[c.Ap[j]+k] = e.val
		}
	}
	return c
}

// CCS is the column-compressed sorted sparse representation: Ap (column
// pointers, length ncol+1), Ai (row indices, ascending within each column), Ax
// (values, aligned with Ai).
type CCS struct {
	nrow, ncol int
	Ap         []int
	Ai         []int
	Ax         []float64
}

// Dims returns the matrix shape.
func (o *CCS) Dims() (nrow, ncol int) { return o.nrow, o.ncol }

// Get returns the value at (row,col), or 0 if absent. O(log nnz_col).
func (o *CCS) Get(row, col int) float64 {
	lo, hi := o.Ap[col], o.Ap[col+1]
	for lo < hi {
		mid := (lo + hi) / 2
		r := o.Ai[mid]
		switch {
		case r == row:
			return o.Ax[mid]
		case r < row:
			lo = mid + 1
		default:
			hi = mid
		}
	}
	return 0
}

// RowsForCol returns the sorted row indices with a nonzero in the given column.
func (o *CCS) RowsForCol(col int) []int {
	return append([]int(nil), o.Ai[o.Ap[col]:o.Ap[col+1]]...)
}

// ColsForRow returns the columns that carry a nonzero in the given row, sorted
// ascending. CCS is column-major, so this is a linear scan over all columns.
func (o *CCS) ColsForRow(row int) []int {
	var out []int
	for j := 0; j < o.ncol; j++ {
		for k := o.Ap[j]; k < o.Ap[j+1]; k++ {
			if o.Ai[k] == row {
				out = append(out, j)
				break
			}
			if o.Ai[k] > row {
				break
			}
		}
	}
	return out
}

// Transpose returns a new CCS without aliasing the receiver's storage.
func (o *CCS) Transpose() *CCS {
	dok := NewDOK(o.ncol, o.nrow, len(o.Ax))
	for j := 0; j < o.ncol; j++ {
		for k := o.Ap[j]; k < o.Ap[j+1]; k++ {
			dok.Set(j, o.Ai[k], o.Ax[k])
		}
	}
	return dok.CCS()
}

// Add returns a new CCS equal to alpha*A + beta*B; operands must share shape.
func Add(alpha float64, a *CCS, beta float64, b *CCS) *CCS {
	if a.nrow != b.nrow || a.ncol != b.ncol {
		chk.Panic("sparse: Add shape mismatch %dx%d vs %dx%d", a.nrow, a.ncol, b.nrow, b.ncol)
	}
	dok := NewDOK(a.nrow, a.ncol, len(a.Ax)+len(b.Ax))
	for j := 0; j < a.ncol; j++ {
		for k := a.Ap[j]; k < a.Ap[j+1]; k++ {
			dok.Set(a.Ai[k], j, alpha*a.Ax[k])
		}
	}
	for j := 0; j < b.ncol; j++ {
		for k := b.Ap[j]; k < b.Ap[j+1]; k++ {
			dok.Set(b.Ai[k], j, beta*b.Ax[k])
		}
	}
	return dok.CCS()
}

// MulVec returns the dense product A*x for a column vector x.
func (o *CCS) MulVec(x []float64) []float64 {
	if len(x) != o.ncol {
		chk.Panic("sparse: MulVec dimension mismatch, A is %dx%d, x has %d entries", o.nrow, o.ncol, len(x))
	}
	y := make([]float64, o.nrow)
	for j := 0; j < o.ncol; j++ {
		xj := x[j]
		if xj == 0 {
			continue
		}
		for k := o.Ap[j]; k < o.Ap[j+1]; k++ {
			y[o.Ai[k]] += o.Ax[k] * xj
		}
	}
	return y
}

// MatMul returns the sparse-times-sparse product A*B as a new CCS.
func MatMul(a, b *CCS) *CCS {
	if a.ncol != b.nrow {
		chk.Panic("sparse: MatMul inner dimension mismatch %d != %d", a.ncol, b.nrow)
	}
	dok := NewDOK(a.nrow, b.ncol, 0)
	for j := 0; j < b.ncol; j++ {
		for kb := b.Ap[j]; kb < b.Ap[j+1]; kb++ {
			k := b.Ai[kb]
			bkj := b.Ax[kb]
			for ka := a.Ap[k]; ka < a.Ap[k+1]; ka++ {
				dok.Set(a.Ai[ka], j, a.Ax[ka]*bkj)
			}
		}
	}
	return dok.CCS()
}

// ToDense materializes the matrix as a dense [][]float64 via la.MatAlloc, the
// gofem convention for dense buffers.
func (o *CCS) ToDense() [][]float64 {
	m := la.MatAlloc(o.nrow, o.ncol)
	for j := 0; j < o.ncol; j++ {
		for k := o.Ap[j]; k < o.Ap[j+1]; k++ {
			m[o.Ai[k]][j] = o.Ax[k]
		}
	}
	return m
}

// Solve solves the square system A*X = B for dense right-hand-side columns B,
// via a dense inverse (la.MatInvG, gosl's generic Gauss-Jordan inverse with
// pivot tolerance). A dense path suits the small systems this module works
// with; the optimizers solve their per-constraint Gram systems (spec §4.7.2)
// with la.MatInvG directly rather than through Solve. gofem reserves
// its factorized la.LinSol path for whole-mesh stiffness solves,
// which Morpho has no analog of.
func (o *CCS) Solve(b [][]float64) (x [][]float64, err error) {
	n := o.nrow
	if o.ncol != n {
		return nil, chk.Err("sparse: Solve requires a square matrix, got %dx%d", o.nrow, o.ncol)
	}
	a := o.ToDense()
	ainv := la.MatAlloc(n, n)
	if ierr := la.MatInvG(ainv, a, 1e-14); ierr != nil {
		return nil, chk.Err("sparse: Solve detected a singular system: %v", ierr)
	}
	x = make([][]float64, len(b))
	for c, bc := range b {
		if len(bc) != n {
			return nil, chk.Err("sparse: Solve rhs column %d has length %d, want %d", c, len(bc), n)
		}
		xc := make([]float64, n)
		la.MatVecMul(xc, 1, ainv, bc)
		x[c] = xc
	}
	return x, nil
}
