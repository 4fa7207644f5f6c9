// Copyright 2026 The Morpho Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package opt implements OptimizationProblem and the Shape/Field optimizers
// (spec §4.6-4.8): constrained descent via per-vertex Gram-Schmidt
// projection against local constraints and a global Gram-matrix solve
// against shared constraints, with relax/linesearch/conjugategradient
// descent modes and a Brent line minimizer.
package opt

import "github.com/cpmech/gosl/io"

// Params holds the descent parameters shared by ShapeOptimizer and
// FieldOptimizer (spec §4.7).
type Params struct {
	StepSize           float64 // initial step size
	StepLimit          float64 // clamp applied after line search; 0 means unclamped
	Etol               float64 // relative energy convergence tolerance
	Ctol               float64 // constraint residual tolerance
	LinMinTol          float64 // Brent tolerance during line search
	LinMinMax          int     // max Brent iterations during line search
	MaxConstraintSteps int     // max reprojection iterations
	Quiet              bool    // suppress progress reporting
}

// DefaultParams returns the optimizer defaults used throughout the test
// scenarios (spec §8 S5).
func DefaultParams() Params {
	return Params{
		StepSize:           0.1,
		StepLimit:          0,
		Etol:               1e-8,
		Ctol:               1e-8,
		LinMinTol:          1e-6,
		LinMinMax:          50,
		MaxConstraintSteps: 20,
	}
}

// reportProgress writes a textual progress line when quiet is false (spec
// §6.4): iteration number, total energy, energy delta, and current step.
func reportProgress(quiet bool, iter int, energy, denergy, step float64) {
	if quiet {
		return
	}
	io.Pf("iter=%d energy=%g denergy=%g step=%g\n", iter, energy, denergy, step)
}
