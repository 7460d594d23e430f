// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lgmres

import (
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
)

// GMRES implements the classical restarted generalized minimal residual
// iterative method for solving the system of linear equations
//  A x = b,
// where A is a non-symmetric matrix. It is the fallback that the adaptive
// LGMRES configuration degenerates to when the restart size equals the
// problem dimension or no correction vectors are requested. One
// EndIteration corresponds to one restart cycle.
//
// GMRES needs only the MatVec matrix operation.
type GMRES struct {
	// Restart is the restart parameter.
	// It must hold 0 <= Restart <= dim.
	// If it is 0, it will be set to dim (the unrestarted method).
	Restart int

	resume    int
	dim       int
	i         int // Counter for inner iterations.
	scur      int // Columns completed in the current cycle.
	breakdown bool

	s    []float64
	y    []float64
	av   []float64
	v    []float64
	ldv  int
	h    []float64
	ldh  int
	givs []givens

	trace []int
}

// Init implements the Method interface.
func (g *GMRES) Init(dim int) {
	if dim <= 0 {
		panic("lgmres: invalid dim")
	}
	if g.Restart == 0 {
		g.Restart = dim
	}
	if g.Restart < 0 || dim < g.Restart {
		panic("lgmres: invalid GMRES.Restart")
	}

	k := g.Restart
	g.dim = dim
	g.s = reuse(g.s, k+1)
	g.y = reuse(g.y, k+1)
	g.av = reuse(g.av, dim)
	g.ldv = dim
	g.v = reuse(g.v, g.ldv*(k+1))
	g.ldh = k + 1
	g.h = reuse(g.h, g.ldh*k)
	if cap(g.givs) < k {
		g.givs = make([]givens, k)
	} else {
		g.givs = g.givs[:k]
	}
	g.trace = g.trace[:0]

	g.resume = 1
}

// Iterate implements the Method interface.
func (g *GMRES) Iterate(ctx *Context) (Operation, error) {
	n := g.dim
	ldv := g.ldv
	switch g.resume {
	case 1:
		// Begin a new cycle: normalize the residual into V[:,0] and
		// initialize s to the elementary vector e_1 scaled by |r|.
		rnorm := floats.Norm(ctx.Residual, 2)
		v0 := g.v[:n]
		copy(v0, ctx.Residual)
		floats.Scale(1/rnorm, v0)
		for i := range g.s {
			g.s[i] = 0
		}
		g.s[0] = rnorm
		g.trace = append(g.trace, g.Restart)
		g.i = 0
		g.scur = 0
		g.breakdown = false
		fallthrough
	case 2:
		if g.i == g.Restart {
			g.resume = 5
			return NoOperation, nil
		}
		ctx.Src = g.v[g.i*ldv : g.i*ldv+n]
		ctx.Dst = g.av
		g.resume = 3
		// Compute A V[:,i].
		return MatVec, nil
	case 3:
		// Construct the i-th column of the upper Hessenberg matrix
		// using the Gram-Schmidt process on V and A V[:,i] so that it
		// is orthonormal to the previous i columns.
		i := g.i
		w := g.av
		wnorm0 := floats.Norm(w, 2)
		hi := g.h[i*g.ldh : i*g.ldh+i+2]
		for k := 0; k <= i; k++ {
			vk := g.v[k*ldv : k*ldv+n]
			hki := floats.Dot(vk, w)
			hi[k] = hki
			floats.AddScaled(w, -hki, vk)
		}
		wnorm := floats.Norm(w, 2)
		hi[i+1] = wnorm
		if wnorm <= breakdownTol(i+1, wnorm0) {
			// Lucky breakdown, the cycle cannot extend the
			// subspace any further.
			g.breakdown = true
		} else {
			vip1 := g.v[(i+1)*ldv : (i+1)*ldv+n]
			copy(vip1, w)
			floats.Scale(1/wnorm, vip1)
		}

		// Apply the previous Givens rotations to the i-th column of H.
		for j := 0; j < i; j++ {
			hi[j], hi[j+1] = rotvec(hi[j], hi[j+1], g.givs[j])
		}
		// Compute and apply the rotation that zeroes H[i+1,i].
		g.givs[i] = drotg(hi[i], hi[i+1])
		hi[i], hi[i+1] = rotvec(hi[i], hi[i+1], g.givs[i])
		// Apply the rotation to (s[i], s[i+1]).
		g.s[i], g.s[i+1] = rotvec(g.s[i], g.s[i+1], g.givs[i])
		g.scur = i + 1

		// |s[i+1]| estimates the residual norm without forming the
		// residual itself.
		ctx.ResidualNorm = math.Abs(g.s[i+1])
		ctx.Converged = false
		g.resume = 4
		return CheckResidualNorm, nil
	case 4:
		if ctx.Converged || g.breakdown {
			g.resume = 5
			return NoOperation, nil
		}
		g.i++
		g.resume = 2
		return NoOperation, nil
	case 5:
		// Finish the cycle: back-solve the triangularized system and
		// update the approximate solution.
		s := g.scur
		y := g.y[:s]
		copy(y, g.s[:s])
		// H is upper triangular but stored in column-major order
		// while Dtrsv expects row-major.
		bi := blas64.Implementation()
		bi.Dtrsv(blas.Lower, blas.Trans, blas.NonUnit, s, g.h, g.ldh, y, 1)
		for j := 0; j < s; j++ {
			vj := g.v[j*ldv : j*ldv+n]
			floats.AddScaled(ctx.X, y[j], vj)
		}
		g.resume = 6
		// Compute the true residual.
		return ComputeResidual, nil
	case 6:
		ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
		ctx.Converged = false
		g.resume = 7
		return CheckResidualNorm, nil
	case 7:
		if ctx.Converged {
			g.resume = 0 // Calling Iterate again without Init will panic.
		} else {
			g.resume = 1
		}
		return EndIteration, nil

	default:
		panic("lgmres: GMRES.Init not called")
	}
}

func (g *GMRES) restartSizes() []int {
	return g.trace
}
