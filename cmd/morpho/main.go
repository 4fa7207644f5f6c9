// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command morpho builds a small triangulated patch, declares an area energy
// with a fixed-boundary selection, and descends it with a ShapeOptimizer,
// reporting energy history as it goes. It exists to exercise the
// mesh/field/selection/mdl/eval/opt pipeline end to end (spec §2, data flow).
package main

import (
	"flag"

	"github.com/cpmech/gosl/chk"
	"github.com/cpmech/gosl/io"

	"github.com/cpmech/morpho/mdl"
	"github.com/cpmech/morpho/mesh"
	"github.com/cpmech/morpho/opt"
	"github.com/cpmech/morpho/selection"
)

func main() {
	niter := flag.Int("n", 30, "number of descent iterations")
	mode := flag.String("mode", "linesearch", "relax | linesearch | cg")
	flag.Parse()

	defer func() {
		if err := recover(); err != nil {
			chk.Verbose = true
			io.PfRed("ERROR: %v\n", err)
		}
	}()

	io.PfWhite("\nMorpho -- shape and field optimization on simplicial meshes\n\n")

	m := pyramidPatch()

	problem := opt.NewProblem(m)
	problem.AddEnergy(mdl.NewArea(), nil, 1)

	boundaryEdges, err := selection.Boundary(m, 2)
	if err != nil {
		chk.Panic("%v", err)
	}
	fixed := map[int]bool{}
	for _, e := range boundaryEdges.IDs(1) {
		for _, v := range m.ElementVertices(1, e) {
			fixed[v] = true
		}
	}
	var fixedIDs []int
	for v := range fixed {
		fixedIDs = append(fixedIDs, v)
	}

	optimizer := opt.NewShapeOptimizer(problem)
	optimizer.Fix(fixedIDs)

	switch *mode {
	case "relax":
		err = optimizer.Relax(*niter)
	case "cg":
		err = optimizer.ConjugateGradient(*niter)
	default:
		err = optimizer.LineSearch(*niter)
	}
	if err != nil {
		chk.Panic("%v", err)
	}

	io.Pf("\nfinal energy: %g (over %d iterations)\n", lastOrZero(optimizer.History()), len(optimizer.History()))
}

// pyramidPatch returns a 5-vertex, 4-triangle fan around an elevated apex, a
// minimal patch with an interior vertex and a closed boundary loop -- enough
// to exercise fixed-boundary area-minimization (which should flatten the
// apex toward the boundary plane).
func pyramidPatch() *mesh.Mesh {
	x := [][]float64{
		{0, 1, 1, -1, -1},
		{0, 1, -1, -1, 1},
		{0.6, 0, 0, 0, 0},
	}
	m := mesh.New(x)
	faces := [][]int{
		{0, 1, 2},
		{0, 2, 3},
		{0, 3, 4},
		{0, 4, 1},
	}
	if err := m.AddGrade(2, faces); err != nil {
		chk.Panic("%v", err)
	}
	if err := m.AddGrade(1, nil); err != nil {
		chk.Panic("%v", err)
	}
	return m
}

func lastOrZero(h []float64) float64 {
	if len(h) == 0 {
		return 0
	}
	return h[len(h)-1]
}
