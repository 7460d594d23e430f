// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lgmres

import "math"

// Default parameters of Solve. The restart size and the iteration limit
// are additionally capped at the problem dimension.
const (
	DefaultRestart       = 10
	DefaultAugment       = 3
	DefaultMaxIterations = 10
)

// Solve solves the system of n linear equations
//  A*x = b
// by the LGMRES method with a PD-controlled restart size. The n×n matrix A
// is represented by the matrix-vector operation in a and the dimension of
// the problem is determined by the length of b.
//
// m is the base restart size; if it is 0 it will be set to
// min(n, DefaultRestart), and it must not exceed n. k is the number of
// retained correction vectors; DefaultAugment is the recommended value.
// Zero fields of settings default to a tolerance of 1e-6 and an iteration
// limit of min(n, DefaultMaxIterations) cycles.
//
// Two configurations degenerate to a classical method and are dispatched
// directly to GMRES: m == n, where a single unrestarted sweep spans the
// whole space, and k == 0, which is plain restarted GMRES(m). The result
// contract is the same on every path: Result.History holds the relative
// residual per cycle starting at exactly 1, Result.Restarts the restart
// size used in each cycle, and Result.Converged the outcome. Running out
// of cycles is not an error.
func Solve(a MatrixOps, b []float64, m, k int, settings Settings) (Result, error) {
	dim := len(b)
	if dim == 0 {
		panic("lgmres: zero dimension")
	}
	if m == 0 {
		m = min(dim, DefaultRestart)
	}
	if m < 0 || dim < m {
		panic("lgmres: invalid restart size")
	}
	if k < 0 {
		panic("lgmres: invalid number of correction vectors")
	}
	if settings.MaxIterations == 0 {
		settings.MaxIterations = min(dim, DefaultMaxIterations)
	}
	if settings.Tolerance == 0 {
		settings.Tolerance = 1e-6
	}

	if m == dim || k == 0 {
		// The adaptive method degenerates to classical GMRES, bypass
		// the augmentation and controller machinery entirely.
		return LinearSolve(a, b, &GMRES{Restart: m}, settings)
	}

	method := &LGMRES{
		Restart: m,
		Augment: k,
	}
	if 0 < settings.Tolerance && settings.Tolerance < 1 {
		// Ask the controller for the residual reduction rate that
		// meets the tolerance within the cycle budget.
		method.TargetRate = math.Log10(1/settings.Tolerance) / float64(settings.MaxIterations)
	}
	return LinearSolve(a, b, method, settings)
}
