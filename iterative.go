// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lgmres

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
)

// MatrixOps describes the matrix of the linear system in terms of the
// matrix-vector product.
type MatrixOps struct {
	// MatVec computes A*x and stores the result into dst.
	// It must be non-nil.
	MatVec func(dst, x []float64)
}

// Settings holds various settings for solving a linear system.
type Settings struct {
	// X0 is an initial guess.
	// If it is nil, the zero vector will be used.
	// If it is not nil, the length of X0 must be equal to the dimension
	// of the system.
	X0 []float64

	// Tolerance specifies the stopping criterion
	//  |r_i| / |r_0| < Tolerance,
	// where r_0 is the initial residual b - A*x_0. If it is zero, it
	// will be set to 1e-6. Values outside [eps, 1-eps) are clamped into
	// that interval and reported in Result.Warnings.
	Tolerance float64

	// MaxIterations is the limit on the number of iterations. For the
	// restarted methods one iteration is one restart cycle. If it is
	// zero, it will be set to twice the dimension of the system.
	MaxIterations int
}

func defaultSettings(s *Settings, dim int) {
	if s.Tolerance == 0 {
		s.Tolerance = 1e-6
	}
	if s.MaxIterations == 0 {
		s.MaxIterations = 2 * dim
	}
}

// Operation specifies the type of operation commanded by Method.Iterate.
type Operation uint64

const (
	NoOperation Operation = 0

	// Multiply A*x where x is stored in Context.Src and the result must
	// be stored in Context.Dst.
	MatVec Operation = 1 << (iota - 1)

	// Compute b - A*x where x is stored in Context.X and store the
	// result into Context.Residual.
	ComputeResidual

	// Check convergence using the current approximation in Context.X
	// and the residual norm in Context.ResidualNorm. The result must be
	// stored into Context.Converged before calling Method.Iterate again.
	CheckResidualNorm

	// EndIteration indicates that Method has finished what it considers
	// to be one iteration. If Context.Converged is true, the iterative
	// process must be terminated, and Method.Init must be called before
	// calling Method.Iterate again.
	EndIteration
)

// Method is an iterative method that produces a sequence of vectors
// converging to the vector x satisfying a system of linear equations
//  A x = b,
// where A is a non-singular dim×dim matrix, and x and b are vectors of
// dimension dim.
//
// Method uses a reverse-communication interface between the iterative
// algorithm and the caller. Method acts as a client that commands the
// caller to perform needed operations via the Operation returned from
// Iterate. This provides independence of Method on the representation of
// the matrix A, and enables automation of common operations like checking
// for convergence and maintaining statistics.
type Method interface {
	// Init initializes the method for solving a dim×dim linear system.
	Init(dim int)

	// Iterate retrieves data from Context, updates it, and returns the
	// next operation. The caller must perform the Operation using data
	// in Context, and depending on the state call Iterate again.
	Iterate(*Context) (Operation, error)
}

// restartTracer is implemented by methods that choose a restart size at
// every cycle. The driver collects the trace into Result.Restarts.
type restartTracer interface {
	restartSizes() []int
}

// Context mediates the communication between a Method and the caller. It
// must not be modified or accessed apart from the commanded Operations.
type Context struct {
	// X is the current approximate solution. On the first call to
	// Method.Iterate, X must contain the initial estimate. Method must
	// update X with the current estimate when it commands
	// ComputeResidual and EndIteration.
	X []float64
	// Residual is the current residual b - A*x. On the first call to
	// Method.Iterate, Residual must contain the initial residual.
	Residual []float64
	// ResidualNorm is (an estimate of) the norm of the current
	// residual. Method must update it when it commands
	// CheckResidualNorm. It does not have to be equal to the norm of
	// Residual, some methods (e.g., GMRES) can estimate the residual
	// norm without forming the residual itself.
	ResidualNorm float64
	// Converged indicates to Method that ResidualNorm satisfies the
	// stopping criterion as a result of the CheckResidualNorm
	// operation. If a Method commands EndIteration with Converged true,
	// the caller must not call Method.Iterate again without calling
	// Method.Init first.
	Converged bool

	// Src and Dst are the source and destination vectors for various
	// Operations.
	Src, Dst []float64
}

// Stats holds statistics about an iterative solve.
type Stats struct {
	// Iterations is the number of iterations done by Method.
	Iterations int
	// MatVec is the number of MatVec operations commanded by Method.
	MatVec int
	// ResidualNorm is the final norm of the residual.
	ResidualNorm float64
	// StartTime is an approximate time when the solve was started.
	StartTime time.Time
	// Runtime is an approximate duration of the solve.
	Runtime time.Duration
}

// Result holds the result of an iterative solve.
type Result struct {
	// X is the approximate solution.
	X []float64
	// Converged indicates whether the relative residual dropped below
	// the tolerance within the iteration budget. Exhausting the budget
	// is not an error, it is reported here with the complete History
	// still available for diagnosing stagnation.
	Converged bool
	// History is the relative residual norm after each iteration.
	// History[0] is always exactly 1, the relative residual of the
	// initial guess by definition, so its length is Stats.Iterations+1.
	History []float64
	// Restarts is the sequence of restart sizes used by the method, one
	// entry per iteration. It is nil for methods that do not restart.
	// It is diagnostic output for inspection and tuning.
	Restarts []int
	// Warnings reports recoverable parameter adjustments, such as an
	// out-of-range tolerance that was clamped.
	Warnings []string
	// Stats holds the statistics of the solve.
	Stats Stats
}

// LinearSolve solves the system of n linear equations
//  A*x = b,
// where the n×n matrix A is represented by the matrix-vector operation in
// a. The dimension of the problem n is determined by the length of b.
//
// method is an iterative method used for finding an approximate solution
// of the linear system. It must not be nil.
//
// settings provide means for adjusting the iterative process. Zero values
// of the fields mean default values.
//
// LinearSolve panics if the shapes of the inputs are structurally invalid.
// A returned error indicates a numerical breakdown inside the method; the
// iteration budget running out is reported through Result.Converged.
func LinearSolve(a MatrixOps, b []float64, method Method, settings Settings) (Result, error) {
	stats := Stats{StartTime: time.Now()}

	dim := len(b)
	switch {
	case dim == 0:
		panic("lgmres: zero dimension")
	case a.MatVec == nil:
		panic("lgmres: nil matrix-vector multiplication")
	case settings.X0 != nil && len(settings.X0) != dim:
		panic("lgmres: mismatched length of initial guess")
	}

	defaultSettings(&settings, dim)
	var warnings []string
	if settings.Tolerance < dlamchE || 1-dlamchE <= settings.Tolerance {
		tol := math.Min(math.Max(settings.Tolerance, dlamchE), 1-2*dlamchE)
		warnings = append(warnings,
			fmt.Sprintf("lgmres: tolerance %v outside [eps, 1-eps), clamped to %v", settings.Tolerance, tol))
		settings.Tolerance = tol
	}

	ctx := &Context{
		X:        make([]float64, dim),
		Residual: make([]float64, dim),
	}
	if settings.X0 != nil {
		copy(ctx.X, settings.X0)
		a.MatVec(ctx.Residual, ctx.X)
		stats.MatVec++
		floats.AddScaledTo(ctx.Residual, b, -1, ctx.Residual) // r = b - Ax
	} else {
		copy(ctx.Residual, b) // r = b
	}

	ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
	rnorm0 := ctx.ResidualNorm

	history := make([]float64, 1, settings.MaxIterations+1)
	history[0] = 1

	var (
		converged bool
		err       error
	)
	if rnorm0 == 0 {
		// The initial guess solves the system exactly.
		converged = true
	} else {
		converged, err = iterate(a, b, ctx, settings, method, &stats, rnorm0, &history)
	}

	stats.Runtime = time.Since(stats.StartTime)
	r := Result{
		X:         ctx.X,
		Converged: converged,
		History:   history,
		Warnings:  warnings,
		Stats:     stats,
	}
	if tr, ok := method.(restartTracer); ok {
		r.Restarts = tr.restartSizes()
	}
	return r, err
}

func iterate(a MatrixOps, b []float64, ctx *Context, settings Settings, method Method, stats *Stats, rnorm0 float64, history *[]float64) (bool, error) {
	method.Init(len(ctx.X))

	for {
		op, err := method.Iterate(ctx)
		if err != nil {
			return false, err
		}

		switch op {
		case NoOperation:

		case ComputeResidual:
			a.MatVec(ctx.Residual, ctx.X)
			stats.MatVec++
			floats.AddScaledTo(ctx.Residual, b, -1, ctx.Residual) // r = b - Ax

		case MatVec:
			a.MatVec(ctx.Dst, ctx.Src)
			stats.MatVec++

		case CheckResidualNorm:
			ctx.Converged = ctx.ResidualNorm/rnorm0 < settings.Tolerance

		case EndIteration:
			stats.Iterations++
			stats.ResidualNorm = ctx.ResidualNorm
			*history = append(*history, ctx.ResidualNorm/rnorm0)
			if ctx.Converged {
				return true, nil
			}
			if stats.Iterations == settings.MaxIterations {
				return false, nil
			}

		default:
			panic("lgmres: invalid operation")
		}
	}
}

func reuse(v []float64, n int) []float64 {
	if cap(v) < n {
		return make([]float64, n)
	}
	return v[:n]
}

const dlamchE = 1.0 / (1 << 53)
