// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package opt

import "github.com/cpmech/gosl/la"

// Small dense Dim x NumVertices matrix helpers shared by ShapeOptimizer's
// force assembly and reprojection. These operate directly on [][]float64
// (gofem's own dense-buffer convention) rather than through field.Field,
// since a vertex-position matrix has no per-grade structure to track.

func cloneMat(a [][]float64) [][]float64 {
	out := la.MatAlloc(len(a), len(a[0]))
	for d := range a {
		copy(out[d], a[d])
	}
	return out
}

func restoreMat(dst, src [][]float64) {
	for d := range dst {
		copy(dst[d], src[d])
	}
}

func dotMat(a, b [][]float64) float64 {
	s := 0.0
	for d := range a {
		for v := range a[d] {
			s += a[d][v] * b[d][v]
		}
	}
	return s
}

// axpyMat performs dst += alpha*src in place.
func axpyMat(dst [][]float64, alpha float64, src [][]float64) {
	for d := range dst {
		for v := range dst[d] {
			dst[d][v] += alpha * src[d][v]
		}
	}
}

func negMat(a [][]float64) [][]float64 {
	out := cloneMat(a)
	for d := range out {
		for v := range out[d] {
			out[d][v] = -out[d][v]
		}
	}
	return out
}

func subMat(a, b [][]float64) [][]float64 {
	out := cloneMat(a)
	for d := range out {
		for v := range out[d] {
			out[d][v] -= b[d][v]
		}
	}
	return out
}

func scaleMat(a [][]float64, s float64) [][]float64 {
	out := cloneMat(a)
	for d := range out {
		for v := range out[d] {
			out[d][v] *= s
		}
	}
	return out
}
