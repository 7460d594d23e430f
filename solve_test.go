// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lgmres

import (
	"math"
	"math/rand"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/GerardoOrtizCantero/PD-LGMRES/internal/triplet"
)

// denseOps wraps an n×n row-major dense matrix in MatrixOps.
func denseOps(a []float64, n int) MatrixOps {
	bi := blas64.Implementation()
	return MatrixOps{
		MatVec: func(dst, x []float64) {
			bi.Dgemv(blas.NoTrans, n, n, 1, a, n, x, 1, 0, dst, 1)
		},
	}
}

// randomDD returns a random diagonally dominant n×n row-major matrix.
func randomDD(n int, rnd *rand.Rand) []float64 {
	a := make([]float64, n*n)
	for i := range a {
		a[i] = 2*rnd.Float64() - 1
	}
	for i := 0; i < n; i++ {
		a[i*n+i] += float64(n)
	}
	return a
}

func identityOps() MatrixOps {
	return MatrixOps{
		MatVec: func(dst, x []float64) {
			copy(dst, x)
		},
	}
}

func TestSolveIdentity(t *testing.T) {
	for _, n := range []int{2, 5, 20, 50} {
		for _, mk := range [][2]int{{1, 1}, {2, 3}, {min(n, 5), 10}} {
			m, k := mk[0], mk[1]
			b := make([]float64, n)
			for i := range b {
				b[i] = float64(i + 1)
			}
			r, err := Solve(identityOps(), b, m, k, Settings{})
			if err != nil {
				t.Fatalf("n=%v m=%v k=%v: unexpected error %v", n, m, k, err)
			}
			if !r.Converged {
				t.Errorf("n=%v m=%v k=%v: not converged", n, m, k)
			}
			// The seeding cycle must already contain the solution.
			if r.Stats.Iterations != 1 {
				t.Errorf("n=%v m=%v k=%v: converged in %v cycles, want 1", n, m, k, r.Stats.Iterations)
			}
			if dist := floats.Distance(r.X, b, math.Inf(1)); dist > 1e-10 {
				t.Errorf("n=%v m=%v k=%v: unexpected solution, |want-got|=%v", n, m, k, dist)
			}
		}
	}
}

func TestSolveNearBreakdown(t *testing.T) {
	// On the identity the Gram-Schmidt remainder of the very first
	// Arnoldi step is pure round-off, a few ulps above zero. It must be
	// recognized as a breakdown rather than normalized into a second,
	// nearly dependent basis vector whose vanishing diagonal would
	// reach the triangular solve.
	b := []float64{1, 2}
	r, err := Solve(identityOps(), b, 1, 1, Settings{})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !r.Converged {
		t.Fatalf("not converged, history %v", r.History)
	}
	if r.Stats.Iterations != 1 {
		t.Errorf("converged in %v cycles, want 1", r.Stats.Iterations)
	}
	for i, v := range r.X {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite X[%d] in %v", i, r.X)
		}
	}
	for i, v := range r.History {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("non-finite History[%d] in %v", i, r.History)
		}
	}
	if dist := floats.Distance(r.X, b, math.Inf(1)); dist > 1e-12 {
		t.Errorf("unexpected solution, |want-got|=%v", dist)
	}
}

func TestSolveDiagonal(t *testing.T) {
	a := []float64{
		1, 0, 0, 0,
		0, 2, 0, 0,
		0, 0, 3, 0,
		0, 0, 0, 4,
	}
	b := []float64{1, 1, 1, 1}
	r, err := Solve(denseOps(a, 4), b, 2, 1, Settings{
		Tolerance:     1e-8,
		MaxIterations: 10,
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !r.Converged {
		t.Errorf("not converged, history %v", r.History)
	}
	want := []float64{1, 0.5, 1.0 / 3, 0.25}
	if dist := floats.Distance(r.X, want, math.Inf(1)); dist > 1e-6 {
		t.Errorf("unexpected solution, |want-got|=%v", dist)
	}
	if r.History[0] != 1 {
		t.Errorf("history does not start at 1: %v", r.History[0])
	}
}

func TestSolveRandom(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for _, n := range []int{2, 3, 5, 10, 20, 50, 100, 200} {
		a := randomDD(n, rnd)
		want := make([]float64, n)
		for i := range want {
			want[i] = 1
		}
		b := make([]float64, n)
		A := denseOps(a, n)
		A.MatVec(b, want)

		m := max(1, n/4)
		r, err := Solve(A, b, m, 3, Settings{
			Tolerance:     1e-12,
			MaxIterations: 50,
		})
		if err != nil {
			t.Fatalf("n=%v: unexpected error %v", n, err)
		}
		if !r.Converged {
			t.Errorf("n=%v: not converged, history %v", n, r.History)
			continue
		}
		if dist := floats.Distance(r.X, want, math.Inf(1)); dist > 1e-8 {
			t.Errorf("n=%v: unexpected solution, |want-got|=%v", n, dist)
		}
		if len(r.History) != r.Stats.Iterations+1 {
			t.Errorf("n=%v: history length %v, want %v", n, len(r.History), r.Stats.Iterations+1)
		}
	}
}

func TestSolveConvectionDiffusion(t *testing.T) {
	const n = 50
	tr := triplet.ConvectionDiffusion1D(n, 20)
	a := MatrixOps{MatVec: tr.MulVec}
	b := make([]float64, n)
	for i := range b {
		b[i] = 1
	}
	r, err := Solve(a, b, 10, 3, Settings{
		Tolerance:     1e-8,
		MaxIterations: 200,
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !r.Converged {
		t.Fatalf("not converged, history %v", r.History)
	}
	// The restart trace is one entry per cycle, bounded by [1, n-1].
	if len(r.Restarts) != r.Stats.Iterations {
		t.Errorf("restart trace length %v, want %v", len(r.Restarts), r.Stats.Iterations)
	}
	for i, m := range r.Restarts {
		if m < 1 || n-1 < m {
			t.Errorf("cycle %v: restart size %v outside [1, %v]", i, m, n-1)
		}
	}
	// Verify the solution against the residual directly.
	res := make([]float64, n)
	tr.MulVec(res, r.X)
	floats.AddScaledTo(res, b, -1, res)
	if rel := floats.Norm(res, 2) / floats.Norm(b, 2); rel > 1e-7 {
		t.Errorf("residual too large: %v", rel)
	}
}

func TestSolveFallbackFull(t *testing.T) {
	// With m equal to the problem dimension the method degenerates to a
	// single unrestarted GMRES sweep, which must agree with a direct
	// solve.
	rnd := rand.New(rand.NewSource(2))
	const n = 30
	a := randomDD(n, rnd)
	b := make([]float64, n)
	for i := range b {
		b[i] = rnd.NormFloat64()
	}
	r, err := Solve(denseOps(a, n), b, n, 3, Settings{Tolerance: 1e-12})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !r.Converged {
		t.Fatalf("not converged, history %v", r.History)
	}
	for i, m := range r.Restarts {
		if m != n {
			t.Errorf("cycle %v: restart size %v, want %v", i, m, n)
		}
	}

	var lu mat.LU
	lu.Factorize(mat.NewDense(n, n, a))
	var want mat.VecDense
	if err := lu.SolveVecTo(&want, false, mat.NewVecDense(n, b)); err != nil {
		t.Fatalf("direct solve failed: %v", err)
	}
	if dist := floats.Distance(r.X, want.RawVector().Data, math.Inf(1)); dist > 1e-8 {
		t.Errorf("disagrees with direct solve, |want-got|=%v", dist)
	}
}

func TestSolveFallbackRestarted(t *testing.T) {
	// k=0 must be exactly classical restarted GMRES(m).
	rnd := rand.New(rand.NewSource(3))
	const (
		n = 40
		m = 7
	)
	a := randomDD(n, rnd)
	b := make([]float64, n)
	for i := range b {
		b[i] = rnd.NormFloat64()
	}
	settings := Settings{Tolerance: 1e-10, MaxIterations: 30}

	got, err := Solve(denseOps(a, n), b, m, 0, settings)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	want, err := LinearSolve(denseOps(a, n), b, &GMRES{Restart: m}, settings)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !reflect.DeepEqual(got.X, want.X) {
		t.Errorf("solution differs from GMRES(%v)", m)
	}
	if !reflect.DeepEqual(got.History, want.History) {
		t.Errorf("history differs from GMRES(%v)", m)
	}
	if got.Converged != want.Converged {
		t.Errorf("flag differs from GMRES(%v)", m)
	}
}

func TestSolveDeterministic(t *testing.T) {
	rnd := rand.New(rand.NewSource(4))
	const n = 50
	a := randomDD(n, rnd)
	b := make([]float64, n)
	for i := range b {
		b[i] = rnd.NormFloat64()
	}
	x0 := make([]float64, n)
	for i := range x0 {
		x0[i] = rnd.NormFloat64()
	}
	settings := Settings{Tolerance: 1e-12, MaxIterations: 40, X0: x0}

	first, err := Solve(denseOps(a, n), b, 8, 3, settings)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	second, err := Solve(denseOps(a, n), b, 8, 3, settings)
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !reflect.DeepEqual(first.X, second.X) {
		t.Errorf("solutions not bit-identical")
	}
	if !reflect.DeepEqual(first.History, second.History) {
		t.Errorf("histories not bit-identical")
	}
	if !reflect.DeepEqual(first.Restarts, second.Restarts) {
		t.Errorf("restart traces not bit-identical")
	}
	if first.Converged != second.Converged {
		t.Errorf("flags differ")
	}
}

func TestSolveSingularBudget(t *testing.T) {
	// A singular system cannot converge; a budget of one cycle must
	// report failure with the single-cycle history intact.
	a := []float64{
		2, 0, 0, 0,
		0, 3, 0, 0,
		0, 0, 4, 0,
		0, 0, 0, 0,
	}
	b := []float64{1, 1, 1, 1}
	r, err := Solve(denseOps(a, 4), b, 2, 1, Settings{
		Tolerance:     1e-8,
		MaxIterations: 1,
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if r.Converged {
		t.Errorf("converged on a singular system")
	}
	if r.Stats.Iterations != 1 {
		t.Errorf("iterations %v, want 1", r.Stats.Iterations)
	}
	if len(r.History) != 2 || r.History[0] != 1 {
		t.Errorf("unexpected history %v", r.History)
	}
}

func TestSolveToleranceClamped(t *testing.T) {
	b := []float64{1, 2, 3, 4, 5}
	for _, tol := range []float64{1e-320, 2} {
		r, err := Solve(identityOps(), b, 2, 1, Settings{Tolerance: tol})
		if err != nil {
			t.Fatalf("tol=%v: unexpected error %v", tol, err)
		}
		if len(r.Warnings) != 1 {
			t.Errorf("tol=%v: warnings %v, want exactly one", tol, r.Warnings)
		}
	}
}

func TestSolveNonzeroInitialGuess(t *testing.T) {
	rnd := rand.New(rand.NewSource(5))
	const n = 25
	a := randomDD(n, rnd)
	want := make([]float64, n)
	for i := range want {
		want[i] = rnd.NormFloat64()
	}
	b := make([]float64, n)
	A := denseOps(a, n)
	A.MatVec(b, want)

	x0 := make([]float64, n)
	copy(x0, want)
	for i := range x0 {
		x0[i] += 0.1 * rnd.NormFloat64()
	}
	r, err := Solve(A, b, 5, 2, Settings{
		Tolerance:     1e-12,
		MaxIterations: 30,
		X0:            x0,
	})
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if !r.Converged {
		t.Fatalf("not converged, history %v", r.History)
	}
	if r.History[0] != 1 {
		t.Errorf("history does not start at 1: %v", r.History[0])
	}
	if dist := floats.Distance(r.X, want, math.Inf(1)); dist > 1e-8 {
		t.Errorf("unexpected solution, |want-got|=%v", dist)
	}
}
