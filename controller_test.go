// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lgmres

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestController(minit, mmin, mmax, step int) *restartController {
	return &restartController{
		minit:  minit,
		mmin:   mmin,
		mmax:   mmax,
		step:   step,
		alphaP: 3,
		alphaD: 1,
		target: -0.5,
	}
}

func TestControllerFirstCall(t *testing.T) {
	c := newTestController(10, 1, 99, 3)
	require.Equal(t, 10, c.next([]float64{1, 0.5}))
}

func TestControllerGrowsOnStagnation(t *testing.T) {
	c := newTestController(10, 1, 99, 3)
	c.next([]float64{1, 0.9})
	// Residual barely moving: well behind the required rate.
	m := c.next([]float64{1, 0.9, 0.89})
	require.Greater(t, m, 10)
}

func TestControllerShrinksWhenAhead(t *testing.T) {
	c := newTestController(10, 1, 99, 3)
	c.next([]float64{1, 1e-2})
	// Two orders of magnitude per cycle, far ahead of requirement.
	m := c.next([]float64{1, 1e-2, 1e-4})
	require.Less(t, m, 10)
	require.GreaterOrEqual(t, m, 1)
}

func TestControllerStepsTowardBound(t *testing.T) {
	c := newTestController(5, 1, 20, 2)
	c.next([]float64{1, 10})
	// The raw PD value overshoots the upper bound by a long way; the
	// controller must walk by its step instead of jumping to the bound.
	m := c.next([]float64{1, 10, 1e6})
	require.Equal(t, 7, m)

	// And the walk continues on repeated overshoot.
	m = c.next([]float64{1, 10, 1e6, 1e12})
	require.Equal(t, 9, m)
}

func TestControllerStaysInBounds(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	const (
		mmin = 1
		mmax = 30
	)
	c := newTestController(10, mmin, mmax, 3)
	hist := []float64{1}
	for i := 0; i < 200; i++ {
		hist = append(hist, math.Pow(10, -6*rnd.Float64()))
		m := c.next(hist)
		require.GreaterOrEqual(t, m, mmin)
		require.LessOrEqual(t, m, mmax)
	}
}

func TestControllerDeterministic(t *testing.T) {
	hist := []float64{1, 0.5, 0.3, 0.2, 0.18, 0.1}
	var got [2][]int
	for run := 0; run < 2; run++ {
		c := newTestController(10, 1, 99, 3)
		for i := 2; i <= len(hist); i++ {
			got[run] = append(got[run], c.next(hist[:i]))
		}
	}
	require.Equal(t, got[0], got[1])
}
