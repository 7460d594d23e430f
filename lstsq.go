// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lgmres

import (
	"math"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas64"
)

// givens is a plane rotation
//  [ c -s ]
//  [ s  c ]
// that zeroes the second component of the vector it was generated from.
type givens struct {
	c, s float64
}

// drotg generates a Givens rotation zeroing b, in the manner of the BLAS
// routine of the same name.
func drotg(a, b float64) givens {
	if b == 0 {
		return givens{c: 1, s: 0}
	}
	if math.Abs(b) > math.Abs(a) {
		tmp := -a / b
		s := 1 / math.Sqrt(1+tmp*tmp)
		return givens{c: tmp * s, s: s}
	}
	tmp := -b / a
	c := 1 / math.Sqrt(1+tmp*tmp)
	return givens{c: c, s: tmp * c}
}

// rotvec applies the rotation g to the vector [x, y].
func rotvec(x, y float64, g givens) (rx, ry float64) {
	rx = g.c*x - g.s*y
	ry = g.s*x + g.c*y
	return
}

// breakdownTol returns the threshold below which the remainder of a
// Gram-Schmidt step with s projections is indistinguishable from the
// accumulated rounding error of the step, which is of order
// s*eps*|A z|. A remainder this small must not be normalized into a
// basis vector.
func breakdownTol(s int, wnorm0 float64) float64 {
	return 32 * float64(s+1) * dlamchE * wnorm0
}

// solveHessenberg computes the vector y of length s that minimizes
//  |beta*e_1 - H*y|
// for an (s+1)×s upper Hessenberg matrix H stored column-major in h with
// stride ldh.
//
// The s subdiagonal entries are eliminated by plane rotations applied in
// sequence to both H and the right-hand side, each touching only the two
// affected rows, and the resulting triangular system is solved by
// back-substitution. h is overwritten by its triangularization. givs must
// have length at least s, and g and y length at least s+1.
//
// When a diagonal entry of the triangular factor vanishes relative to
// the largest one, the corresponding column is numerically dependent on
// the previous ones and the system is solved over the leading columns
// only. The returned vector has the length of the solved block, and
// g[len(y)] holds the norm of the unprojected residual.
func solveHessenberg(h []float64, ldh, s int, beta float64, givs []givens, g, y []float64) []float64 {
	g[0] = beta
	for i := 1; i <= s; i++ {
		g[i] = 0
	}
	var dmax float64
	for j := 0; j < s; j++ {
		hj := h[j*ldh : j*ldh+s+1]
		// Apply the rotations from the previous columns.
		for i := 0; i < j; i++ {
			hj[i], hj[i+1] = rotvec(hj[i], hj[i+1], givs[i])
		}
		// Generate and apply the rotation zeroing H[j+1,j].
		givs[j] = drotg(hj[j], hj[j+1])
		hj[j], hj[j+1] = rotvec(hj[j], hj[j+1], givs[j])
		d := math.Abs(hj[j])
		if d > dmax {
			dmax = d
		}
		if d <= 32*float64(s)*dlamchE*dmax {
			s = j
			break
		}
		g[j], g[j+1] = rotvec(g[j], g[j+1], givs[j])
	}
	y = y[:s]
	copy(y, g[:s])
	// The leading s×s block of H is upper triangular but stored in
	// column-major order while Dtrsv expects row-major.
	bi := blas64.Implementation()
	bi.Dtrsv(blas.Lower, blas.Trans, blas.NonUnit, s, h, ldh, y, 1)
	return y
}
