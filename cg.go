// Copyright ©2016 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lgmres

import "gonum.org/v1/gonum/floats"

// CG implements the conjugate gradient iterative method for solving the
// system of linear equations
//  A x = b,
// where A is a symmetric positive definite matrix. For non-symmetric
// systems use LGMRES, GMRES or BiCGSTAB.
//
// CG needs only the MatVec matrix operation.
type CG struct {
	first        bool
	resume       int
	rho, rhoPrev float64

	p  []float64
	ap []float64
}

// Init implements the Method interface.
func (cg *CG) Init(dim int) {
	if dim <= 0 {
		panic("lgmres: invalid dim")
	}

	cg.p = reuse(cg.p, dim)
	cg.ap = reuse(cg.ap, dim)
	cg.first = true
	cg.resume = 1
}

// Iterate implements the Method interface.
func (cg *CG) Iterate(ctx *Context) (Operation, error) {
	r := ctx.Residual
	switch cg.resume {
	case 1:
		cg.rho = floats.Dot(r, r) // ρ_i = r_{i-1} · r_{i-1}
		if cg.first {
			copy(cg.p, r) // p_1 = r_0
		} else {
			beta := cg.rho / cg.rhoPrev // β = ρ_i / ρ_{i-1}
			floats.Scale(beta, cg.p)
			floats.Add(cg.p, r) // p_i = r_{i-1} + β p_{i-1}
		}
		ctx.Src = cg.p
		ctx.Dst = cg.ap
		cg.resume = 2
		// Compute Ap_i.
		return MatVec, nil
	case 2:
		alpha := cg.rho / floats.Dot(cg.p, cg.ap) // α = ρ_i / (p_i · Ap_i)
		floats.AddScaled(ctx.X, alpha, cg.p)      // x_i = x_{i-1} + α p_i
		floats.AddScaled(r, -alpha, cg.ap)        // r_i = r_{i-1} - α Ap_i
		ctx.ResidualNorm = floats.Norm(r, 2)
		ctx.Converged = false
		cg.resume = 3
		return CheckResidualNorm, nil
	case 3:
		if ctx.Converged {
			cg.resume = 0 // Calling Iterate again without Init will panic.
			return EndIteration, nil
		}
		cg.rhoPrev = cg.rho
		cg.first = false
		cg.resume = 1
		return EndIteration, nil

	default:
		panic("lgmres: CG.Init not called")
	}
}
