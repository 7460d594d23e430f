// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package lgmres

import "math"

// restartController chooses the restart size for the next cycle by a
// proportional-derivative feedback law over the observed residual history.
//
// The error signal for cycle j is
//  e_j = log10(h_j/h_{j-1}) - target,
// where h is the relative residual history and target is the (negative)
// per-cycle log-residual reduction required to reach the tolerance within
// the cycle budget. A positive e_j means convergence is behind
// requirement, so the restart size grows; comfortably negative e_j shrinks
// it, trading work per cycle against the number of cycles.
type restartController struct {
	minit  int // Base restart size, updated after every adjustment.
	mmin   int
	mmax   int
	step   int
	alphaP float64
	alphaD float64
	target float64

	m     int
	calls int
	prevE float64
}

// next returns the restart size for the upcoming cycle. hist must hold the
// relative residual after every completed cycle, starting with 1. On the
// first call the base restart size is returned unchanged; from the second
// call on the PD law applies.
func (c *restartController) next(hist []float64) int {
	c.calls++
	if c.calls == 1 {
		c.m = c.minit
		return c.m
	}

	n := len(hist)
	e := math.Log10(hist[n-1]/hist[n-2]) - c.target
	adj := c.alphaP * e
	if c.calls > 2 {
		adj += c.alphaD * (e - c.prevE)
	}
	c.prevE = e

	raw := c.minit
	if !math.IsInf(adj, 0) && !math.IsNaN(adj) {
		raw += int(math.Round(adj))
	}
	switch {
	case raw > c.mmax:
		// Walk toward the bound instead of jumping to the extreme,
		// to avoid restart-size thrashing.
		c.m = min(c.m+c.step, c.mmax)
	case raw < c.mmin:
		c.m = max(c.m-c.step, c.mmin)
	default:
		c.m = raw
	}
	c.minit = c.m
	return c.m
}
