// Copyright ©2017 The gonum Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// lgmres-demo solves a one-dimensional convection-diffusion system with
// PD-LGMRES and with classical restarted GMRES(m) and plots both relative
// residual histories on a log scale.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	lgmres "github.com/GerardoOrtizCantero/PD-LGMRES"
	"github.com/GerardoOrtizCantero/PD-LGMRES/internal/triplet"
)

func main() {
	var (
		n      = flag.Int("n", 400, "problem dimension")
		peclet = flag.Float64("peclet", 50, "Peclet number of the convection-diffusion operator")
		m      = flag.Int("m", 10, "base restart size")
		k      = flag.Int("k", lgmres.DefaultAugment, "number of retained correction vectors")
		tol    = flag.Float64("tol", 1e-8, "relative residual tolerance")
		maxit  = flag.Int("maxit", 60, "maximum number of restart cycles")
		out    = flag.String("o", "residuals.png", "output plot file")
	)
	flag.Parse()

	t := triplet.ConvectionDiffusion1D(*n, *peclet)
	a := lgmres.MatrixOps{MatVec: t.MulVec}
	b := make([]float64, *n)
	for i := range b {
		b[i] = 1
	}
	settings := lgmres.Settings{Tolerance: *tol, MaxIterations: *maxit}

	adaptive, err := lgmres.Solve(a, b, *m, *k, settings)
	if err != nil {
		log.Fatalf("lgmres-demo: PD-LGMRES failed: %v", err)
	}
	report("PD-LGMRES", adaptive)

	classical, err := lgmres.LinearSolve(a, b, &lgmres.GMRES{Restart: *m}, settings)
	if err != nil {
		log.Fatalf("lgmres-demo: GMRES(%d) failed: %v", *m, err)
	}
	report(fmt.Sprintf("GMRES(%d)", *m), classical)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Convection-diffusion, n=%d, Pe=%g", *n, *peclet)
	p.X.Label.Text = "cycle"
	p.Y.Label.Text = "relative residual"
	p.Y.Scale = plot.LogScale{}
	p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	p.Legend.Top = true

	for _, c := range []struct {
		name string
		hist []float64
	}{
		{"PD-LGMRES", adaptive.History},
		{fmt.Sprintf("GMRES(%d)", *m), classical.History},
	} {
		line, err := plotter.NewLine(historyXYs(c.hist))
		if err != nil {
			log.Fatalf("lgmres-demo: %v", err)
		}
		p.Add(line)
		p.Legend.Add(c.name, line)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, *out); err != nil {
		log.Fatalf("lgmres-demo: %v", err)
	}
	fmt.Printf("wrote %s\n", *out)
}

func report(name string, r lgmres.Result) {
	fmt.Printf("%s: converged=%t cycles=%d matvecs=%d relres=%.3e runtime=%v\n",
		name, r.Converged, r.Stats.Iterations, r.Stats.MatVec,
		r.History[len(r.History)-1], r.Stats.Runtime)
	if r.Restarts != nil {
		fmt.Printf("%s: restart sizes %v\n", name, r.Restarts)
	}
}

func historyXYs(hist []float64) plotter.XYs {
	xys := make(plotter.XYs, len(hist))
	for i, h := range hist {
		// The log scale cannot represent an exactly zero residual.
		xys[i] = plotter.XY{X: float64(i), Y: math.Max(h, 1e-20)}
	}
	return xys
}
