// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lgmres

import (
	"gonum.org/v1/gonum/floats"
)

// LGMRES implements the "loose" GMRES iterative method for solving the
// system of linear equations
//  A x = b,
// where A is a non-symmetric matrix.
//
// Each restart cycle builds a subspace from m Arnoldi directions augmented
// with up to Augment correction vectors retained from previous cycles, and
// the restart size m itself is re-chosen at every cycle by a
// proportional-derivative control law over the residual history. One
// EndIteration corresponds to one restart cycle.
//
// LGMRES needs only the MatVec matrix operation.
type LGMRES struct {
	// Restart is the base restart size m.
	// It must hold 0 <= Restart <= dim.
	// If it is 0, it will be set to min(dim, DefaultRestart).
	Restart int
	// Augment is the capacity k of the correction-vector bank and the
	// largest number of bank directions injected into a cycle.
	// If it is 0, it will be set to DefaultAugment. For the classical
	// restarted method without augmentation use GMRES.
	Augment int

	// MinRestart and MaxRestart bound the restart size chosen by the
	// controller. If they are 0, they will be set to 1 and dim-1.
	MinRestart int
	MaxRestart int
	// RestartStep limits how fast the restart size walks toward a bound
	// when the control law overshoots it. If it is 0, it will be set
	// to 3.
	RestartStep int
	// AlphaP and AlphaD are the proportional and derivative gains of
	// the control law. If they are 0, they will be set to 3 and 1.
	// The controller is a calibrated subsystem, the defaults are
	// starting points for tuning, not canonical values.
	AlphaP float64
	AlphaD float64
	// TargetRate is the log10 residual reduction per cycle that the
	// controller treats as "on schedule". If it is 0, it will be set
	// to 0.6. Solve derives it from the tolerance and the cycle budget.
	TargetRate float64

	resume int
	dim    int
	cycle  int
	i      int // Inner step within the current cycle.
	stotal int // Subspace dimension of the current cycle.
	nbasis int // Orthonormal vectors built in the current cycle.
	m      int // Restart size of the current cycle.
	beta   float64
	rnorm0 float64

	v    []float64
	ldv  int
	h    []float64
	ldh  int
	gvec []float64
	y    []float64
	av   []float64
	dx   []float64
	givs []givens

	bank  *correctionBank
	ctrl  restartController
	hist  []float64
	trace []int
}

// Init implements the Method interface.
func (l *LGMRES) Init(dim int) {
	if dim <= 0 {
		panic("lgmres: invalid dim")
	}
	if l.Restart == 0 {
		l.Restart = min(dim, DefaultRestart)
	}
	if l.Restart < 0 || dim < l.Restart {
		panic("lgmres: invalid LGMRES.Restart")
	}
	if l.Augment == 0 {
		l.Augment = DefaultAugment
	}
	if l.Augment < 0 {
		panic("lgmres: invalid LGMRES.Augment")
	}

	mmax := l.MaxRestart
	if mmax == 0 {
		mmax = dim - 1
	}
	mmax = max(1, min(mmax, dim-1))
	mmin := l.MinRestart
	if mmin == 0 {
		mmin = 1
	}
	if mmin < 0 || mmax < mmin {
		panic("lgmres: invalid restart bounds")
	}
	step := l.RestartStep
	if step == 0 {
		step = 3
	}
	if step < 0 {
		panic("lgmres: invalid LGMRES.RestartStep")
	}
	alphaP := l.AlphaP
	if alphaP == 0 {
		alphaP = 3
	}
	alphaD := l.AlphaD
	if alphaD == 0 {
		alphaD = 1
	}
	target := l.TargetRate
	if target == 0 {
		target = 0.6
	}
	l.ctrl = restartController{
		minit:  max(mmin, min(l.Restart, mmax)),
		mmin:   mmin,
		mmax:   mmax,
		step:   step,
		alphaP: alphaP,
		alphaD: alphaD,
		target: -target,
	}

	l.dim = dim
	smax := min(max(l.Restart, mmax)+l.Augment, subspaceCap(dim))
	l.ldv = dim
	l.v = reuse(l.v, l.ldv*(smax+1))
	l.ldh = smax + 1
	l.h = reuse(l.h, l.ldh*smax)
	l.gvec = reuse(l.gvec, smax+1)
	l.y = reuse(l.y, smax+1)
	l.av = reuse(l.av, dim)
	l.dx = reuse(l.dx, dim)
	if cap(l.givs) < smax {
		l.givs = make([]givens, smax)
	} else {
		l.givs = l.givs[:smax]
	}

	l.bank = newCorrectionBank(l.Augment)
	l.hist = append(l.hist[:0], 1)
	l.trace = l.trace[:0]
	l.cycle = 0
	l.resume = 1
}

// subspaceCap bounds the dimension of any restart cycle's subspace. It
// stays strictly below the problem dimension, the full-dimension sweep
// belongs to the unrestarted GMRES.
func subspaceCap(dim int) int {
	return max(1, dim-1)
}

// startCycle fixes the restart size and the subspace dimension for the
// cycle about to begin.
func (l *LGMRES) startCycle() {
	scap := subspaceCap(l.dim)
	switch {
	case l.cycle == 0:
		// Seeding cycle: one sweep of dimension m+k from the initial
		// guess.
		l.stotal = min(l.Restart+l.Augment, scap)
		l.m = l.stotal
		l.trace = append(l.trace, l.Restart)
	case l.cycle == 1:
		// Pure Arnoldi of the base dimension, no bank injection yet.
		l.m = l.ctrl.next(l.hist)
		l.stotal = min(l.m, scap)
		l.trace = append(l.trace, l.m)
	default:
		l.m = l.ctrl.next(l.hist)
		d := min(l.bank.size(), l.Augment)
		l.stotal = min(l.m+d, scap)
		l.trace = append(l.trace, l.m)
	}
}

// direction returns the vector z_i that the operator is applied to at step
// i of the current cycle: the i-th orthonormal basis vector for the
// Arnoldi steps, a retained correction vector (most recent first) for the
// augmented steps. The cycle's update and new bank entry are formed from
// the same set, which is what makes the augmented relation A Z = V H hold.
func (l *LGMRES) direction(i int) []float64 {
	if i < l.m {
		return l.v[i*l.ldv : i*l.ldv+l.dim]
	}
	return l.bank.recent(i - l.m)
}

// Iterate implements the Method interface.
func (l *LGMRES) Iterate(ctx *Context) (Operation, error) {
	n := l.dim
	ldv := l.ldv
	switch l.resume {
	case 1:
		// Begin a new cycle from the current residual.
		if l.cycle == 0 {
			l.rnorm0 = ctx.ResidualNorm
		}
		l.beta = floats.Norm(ctx.Residual, 2)
		l.startCycle()
		v0 := l.v[:n]
		copy(v0, ctx.Residual)
		floats.Scale(1/l.beta, v0)
		l.nbasis = 1
		l.i = 0
		fallthrough
	case 2:
		if l.i == l.stotal {
			l.resume = 4
			return NoOperation, nil
		}
		ctx.Src = l.direction(l.i)
		ctx.Dst = l.av
		l.resume = 3
		// Compute A z_i.
		return MatVec, nil
	case 3:
		// Construct the i-th column of the Hessenberg matrix using
		// modified Gram-Schmidt on the basis and A z_i.
		i := l.i
		w := l.av
		wnorm0 := floats.Norm(w, 2)
		hi := l.h[i*l.ldh : i*l.ldh+i+2]
		for k := 0; k <= i; k++ {
			vk := l.v[k*ldv : k*ldv+n]
			hki := floats.Dot(vk, w)
			hi[k] = hki
			floats.AddScaled(w, -hki, vk)
		}
		wnorm := floats.Norm(w, 2)
		hi[i+1] = wnorm
		if wnorm <= breakdownTol(i+1, wnorm0) {
			// Lucky breakdown: the candidate already lies in the
			// span of the basis, so the subspace contains the
			// minimizer. Truncate and solve with what was built.
			l.stotal = i + 1
			l.resume = 4
			return NoOperation, nil
		}
		vnext := l.v[(i+1)*ldv : (i+1)*ldv+n]
		copy(vnext, w)
		floats.Scale(1/wnorm, vnext)
		l.nbasis++
		l.i++
		l.resume = 2
		return NoOperation, nil
	case 4:
		// Projected least-squares solve and solution update. The solve
		// may truncate to fewer columns than stotal when augmented
		// directions render the Hessenberg matrix rank deficient.
		y := solveHessenberg(l.h, l.ldh, l.stotal, l.beta, l.givs, l.gvec, l.y)
		for i := range l.dx {
			l.dx[i] = 0
		}
		for j, yj := range y {
			floats.AddScaled(l.dx, yj, l.direction(j))
		}
		floats.Add(ctx.X, l.dx)
		l.resume = 5
		// Compute the true residual of the updated solution.
		return ComputeResidual, nil
	case 5:
		ctx.ResidualNorm = floats.Norm(ctx.Residual, 2)
		ctx.Converged = false
		l.resume = 6
		return CheckResidualNorm, nil
	case 6:
		l.hist = append(l.hist, ctx.ResidualNorm/l.rnorm0)
		l.bank.add(l.dx)
		l.cycle++
		if ctx.Converged {
			l.resume = 0 // Calling Iterate again without Init will panic.
		} else {
			l.resume = 1
		}
		return EndIteration, nil

	default:
		panic("lgmres: LGMRES.Init not called")
	}
}

func (l *LGMRES) restartSizes() []int {
	return l.trace
}
