// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package triplet provides a coordinate-format sparse matrix for building
// test and demo operators.
package triplet

type triplet struct {
	i, j int
	v    float64
}

// Matrix is a sparse matrix in coordinate format, a list of (row, column,
// value) entries. Duplicate entries are summed by MulVec.
type Matrix struct {
	r, c int
	data []triplet
}

func New(r, c int) *Matrix {
	return &Matrix{
		r: r,
		c: c,
	}
}

func (m *Matrix) Dims() (r, c int) {
	return m.r, m.c
}

func (m *Matrix) Append(i, j int, v float64) {
	if i < 0 || m.r <= i {
		panic("triplet: row index out of range")
	}
	if j < 0 || m.c <= j {
		panic("triplet: column index out of range")
	}
	m.data = append(m.data, triplet{i, j, v})
}

// MulVec computes A*x and stores the result into dst.
func (m *Matrix) MulVec(dst, x []float64) {
	if m.c != len(x) {
		panic("triplet: dimension mismatch")
	}
	if m.r != len(dst) {
		panic("triplet: dimension mismatch")
	}
	for i := range dst {
		dst[i] = 0
	}
	for _, aij := range m.data {
		dst[aij.i] += aij.v * x[aij.j]
	}
}

// ConvectionDiffusion1D builds the n×n tridiagonal operator of the
// one-dimensional convection-diffusion equation
//  -u'' + peclet*u' = f
// discretized by central differences on a uniform grid with step 1/(n+1).
func ConvectionDiffusion1D(n int, peclet float64) *Matrix {
	h := 1 / float64(n+1)
	m := New(n, n)
	for i := 0; i < n; i++ {
		m.Append(i, i, 2)
		if i > 0 {
			m.Append(i, i-1, -1-peclet*h/2)
		}
		if i < n-1 {
			m.Append(i, i+1, -1+peclet*h/2)
		}
	}
	return m
}
