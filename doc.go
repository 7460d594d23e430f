// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package lgmres provides iterative Krylov-subspace methods for solving
// systems of linear equations
//  A x = b,
// centred on LGMRES with an adaptive, PD-controlled restart size.
//
// LGMRES augments each restart cycle of GMRES with a bounded bank of
// correction vectors retained from earlier cycles, recovering much of the
// convergence information that a plain restart discards. See
//
//  A. H. Baker, E. R. Jessup, T. Manteuffel, A technique for accelerating
//  the convergence of restarted GMRES, SIAM J. Matrix Anal. Appl. 26 (2005).
//
// On top of that, the restart dimension itself is adjusted at every cycle
// by a proportional-derivative control law driven by the observed residual
// history, in the spirit of
//
//  J. C. Cabral, C. E. Schaerer, A. Bhaya, PD-GMRES: an adaptive restart
//  strategy for the GMRES(m) method, Proc. Series Brazilian Soc. Comput.
//  Appl. Math. (2018).
//
// Solve is the primary entry point. The individual methods (LGMRES, GMRES,
// CG, BiCGSTAB) use a reverse-communication interface and can be driven
// directly through LinearSolve, which keeps them independent of the matrix
// representation: the matrix enters only through the matrix-vector products
// in MatrixOps.
package lgmres
