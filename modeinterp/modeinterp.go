// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package modeinterp interpolates phonon mode frequencies across the
// computed volume grid in ln(V)-ln(omega) space, and returns both the
// interpolated frequency and its first two logarithmic derivatives:
// the mode-Gruneisen parameter gamma = -dln(omega)/dln(V) and
// V*dgamma/dV = -d^2ln(omega)/dln(V)^2. Grounded on core/mode_gamma.py.
package modeinterp

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"

	"github.com/MineralsCloud/cij/llsq"
	"github.com/MineralsCloud/cij/serr"
	"github.com/MineralsCloud/cij/tradio"
)

// Backend names the interpolation method used in ln(V)-ln(omega) space.
type Backend string

const (
	Spline   Backend = "spline"
	Lagrange Backend = "lagrange"
	Krogh    Backend = "krogh"
	PCHIP    Backend = "pchip"
	Akima    Backend = "akima"
	Hermite  Backend = "hermite"
	LSQPoly  Backend = "lsq_poly"
)

// defaultOrder mirrors the per-backend defaults in mode_gamma.py.
func defaultOrder(b Backend) int {
	switch b {
	case Spline:
		return 5
	case Lagrange, Krogh, PCHIP, Akima, Hermite:
		return 6
	case LSQPoly:
		return 2
	default:
		return 2
	}
}

// sortedPoints returns (lnV, lnOmega) sorted ascending by volume, the
// orientation scipy's flip(..., axis=0) normalizes to in the original.
func sortedPoints(volumes, freqs []float64) ([]float64, []float64, error) {
	n := len(volumes)
	if n != len(freqs) || n < 2 {
		return nil, nil, serr.New(serr.InputMalformed, "modeinterp: need at least 2 matching (volume, frequency) points, got %d/%d", n, len(freqs))
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return volumes[idx[a]] < volumes[idx[b]] })
	lnV := make([]float64, n)
	lnW := make([]float64, n)
	for k, i := range idx {
		if volumes[i] <= 0 || freqs[i] <= 0 {
			return nil, nil, serr.New(serr.InputMalformed, "modeinterp: volume and frequency must be positive, got V=%v omega=%v", volumes[i], freqs[i])
		}
		lnV[k] = math.Log(volumes[i])
		lnW[k] = math.Log(freqs[i])
	}
	return lnV, lnW, nil
}

// subsample picks at most order+1 roughly-evenly-spaced nodes, the stability
// safeguard mode_gamma.py applies before exact-interpolation backends.
func subsample(lnV, lnW []float64, order int) ([]float64, []float64) {
	if order <= 0 {
		order = 1
	}
	n := len(lnV)
	interval := (n + order - 1) / order // ceil(n/order)
	if interval < 1 {
		interval = 1
	}
	var xs, ys []float64
	for i := 0; i < n; i += interval {
		xs = append(xs, lnV[i])
		ys = append(ys, lnW[i])
	}
	return xs, ys
}

// centeredSlopes estimates dY/dX at each node via centered (Catmull-Rom
// style) finite differences, used to seed the backends that need explicit
// derivatives but whose source data does not carry any.
func centeredSlopes(xs, ys []float64) []float64 {
	n := len(xs)
	d := make([]float64, n)
	d[0] = (ys[1] - ys[0]) / (xs[1] - xs[0])
	d[n-1] = (ys[n-1] - ys[n-2]) / (xs[n-1] - xs[n-2])
	for i := 1; i < n-1; i++ {
		d[i] = (ys[i+1] - ys[i-1]) / (xs[i+1] - xs[i-1])
	}
	return d
}

// secondDerivCentral estimates d(pred')/dx at x via central differencing of
// the interpolator's own analytic first derivative.
func secondDerivCentral(pred interp.DerivativePredictor, x, lo, hi float64) float64 {
	span := hi - lo
	if span <= 0 {
		span = 1
	}
	h := span * 1e-4
	if h <= 0 {
		h = 1e-6
	}
	return (pred.PredictDerivative(x+h) - pred.PredictDerivative(x-h)) / (2 * h)
}

// Result holds the interpolated mode at the target volume grid.
type Result struct {
	Freq  []float64 // omega(V)
	Gamma []float64 // -dln(omega)/dln(V)
	VdrDv []float64 // -d^2ln(omega)/dln(V)^2
}

// Interpolate fits one phonon branch's frequencies across the input volume
// grid and evaluates it (and its log-derivatives) at vArray.
func Interpolate(volumes, freqs, vArray []float64, backend Backend, order int) (*Result, error) {
	if order <= 0 {
		order = defaultOrder(backend)
	}
	lnV, lnW, err := sortedPoints(volumes, freqs)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Freq:  make([]float64, len(vArray)),
		Gamma: make([]float64, len(vArray)),
		VdrDv: make([]float64, len(vArray)),
	}

	lo, hi := lnV[0], lnV[len(lnV)-1]

	switch backend {
	case Lagrange, Krogh:
		xs, ys := subsample(lnV, lnW, order)
		a := mat.NewDense(len(xs), len(xs), nil)
		for i, x := range xs {
			copy(a.RawRowView(i), llsq.VanderRow(x, len(xs)-1))
		}
		b := mat.NewDense(len(xs), 1, ys)
		sol, err := llsq.Solve(a, b, 0)
		if err != nil {
			return nil, serr.Wrap(serr.NumericFailure, "modeinterp: "+string(backend), err)
		}
		coeffs := mat.Col(nil, 0, sol.X)
		d1 := llsq.PolyDeriv(coeffs)
		d2 := llsq.PolyDeriv(d1)
		for i, v := range vArray {
			x := math.Log(v)
			res.Freq[i] = math.Exp(llsq.PolyEval(coeffs, x))
			res.Gamma[i] = -llsq.PolyEval(d1, x)
			res.VdrDv[i] = -llsq.PolyEval(d2, x)
		}

	case LSQPoly:
		n := len(lnV)
		a := mat.NewDense(n, order+1, nil)
		for i, x := range lnV {
			copy(a.RawRowView(i), llsq.VanderRow(x, order))
		}
		b := mat.NewDense(n, 1, lnW)
		sol, err := llsq.Solve(a, b, 0)
		if err != nil {
			return nil, serr.Wrap(serr.NumericFailure, "modeinterp: lsq_poly", err)
		}
		coeffs := mat.Col(nil, 0, sol.X)
		d1 := llsq.PolyDeriv(coeffs)
		d2 := llsq.PolyDeriv(d1)
		for i, v := range vArray {
			x := math.Log(v)
			res.Freq[i] = math.Exp(llsq.PolyEval(coeffs, x))
			res.Gamma[i] = -llsq.PolyEval(d1, x)
			res.VdrDv[i] = -llsq.PolyEval(d2, x)
		}

	case Spline:
		// a real smoothing spline (scipy's UnivariateSpline) degenerates, in
		// the absence of a smoothing-factor search, to a least-squares
		// polynomial fit of the given degree over the full node set — unlike
		// the ppoly backends below, scipy never subsamples the input here.
		n := len(lnV)
		deg := order
		if deg >= n {
			deg = n - 1
		}
		a := mat.NewDense(n, deg+1, nil)
		for i, x := range lnV {
			copy(a.RawRowView(i), llsq.VanderRow(x, deg))
		}
		b := mat.NewDense(n, 1, lnW)
		sol, err := llsq.Solve(a, b, 0)
		if err != nil {
			return nil, serr.Wrap(serr.NumericFailure, "modeinterp: spline", err)
		}
		coeffs := mat.Col(nil, 0, sol.X)
		d1 := llsq.PolyDeriv(coeffs)
		d2 := llsq.PolyDeriv(d1)
		for i, v := range vArray {
			x := math.Log(v)
			res.Freq[i] = math.Exp(llsq.PolyEval(coeffs, x))
			res.Gamma[i] = -llsq.PolyEval(d1, x)
			res.VdrDv[i] = -llsq.PolyEval(d2, x)
		}

	case PCHIP:
		xs, ys := subsample(lnV, lnW, order)
		var fb interp.FritschButland
		if err := fb.Fit(xs, ys); err != nil {
			return nil, serr.Wrap(serr.NumericFailure, "modeinterp: pchip", err)
		}
		for i, v := range vArray {
			x := math.Log(v)
			res.Freq[i] = math.Exp(fb.Predict(x))
			res.Gamma[i] = -fb.PredictDerivative(x)
			res.VdrDv[i] = -secondDerivCentral(&fb, x, lo, hi)
		}

	case Akima:
		xs, ys := subsample(lnV, lnW, order)
		var as interp.AkimaSpline
		if err := as.Fit(xs, ys); err != nil {
			return nil, serr.Wrap(serr.NumericFailure, "modeinterp: akima", err)
		}
		for i, v := range vArray {
			x := math.Log(v)
			res.Freq[i] = math.Exp(as.Predict(x))
			res.Gamma[i] = -as.PredictDerivative(x)
			res.VdrDv[i] = -secondDerivCentral(&as, x, lo, hi)
		}

	case Hermite:
		xs, ys := subsample(lnV, lnW, order)
		slopes := centeredSlopes(xs, ys)
		var pc interp.PiecewiseCubic
		pc.FitWithDerivatives(xs, ys, slopes)
		for i, v := range vArray {
			x := math.Log(v)
			res.Freq[i] = math.Exp(pc.Predict(x))
			res.Gamma[i] = -pc.PredictDerivative(x)
			res.VdrDv[i] = -secondDerivCentral(&pc, x, lo, hi)
		}

	default:
		return nil, serr.New(serr.ConfigInvalid, "modeinterp: unknown backend %q", backend)
	}

	return res, nil
}

// AllModes holds the interpolated frequency and log-derivatives for every
// (q-point, branch) at every target volume, shaped [ntv][nq][np].
type AllModes struct {
	Freq  [][][]float64
	Gamma [][][]float64
	VdrDv [][][]float64
}

// InterpolateAll interpolates every phonon branch in input across vArray,
// skipping the three acoustic branches at the Gamma point (j==0, k<3) which
// carry no restoring force and are left at zero.
func InterpolateAll(input *tradio.PhononInput, vArray []float64, backend Backend, order int) (*AllModes, error) {
	ntv := len(vArray)
	nq, np := input.NQ, input.NP

	out := &AllModes{
		Freq:  alloc3(ntv, nq, np),
		Gamma: alloc3(ntv, nq, np),
		VdrDv: alloc3(ntv, nq, np),
	}

	modeVolumes := make([]float64, len(input.Volumes))
	for i, vol := range input.Volumes {
		modeVolumes[i] = vol.Volume
	}

	for j := 0; j < nq; j++ {
		for k := 0; k < np; k++ {
			if j == 0 && k < 3 {
				continue
			}
			freqs := make([]float64, len(input.Volumes))
			for i, vol := range input.Volumes {
				freqs[i] = vol.QPoints[j].Modes[k]
			}
			res, err := Interpolate(modeVolumes, freqs, vArray, backend, order)
			if err != nil {
				return nil, serr.Wrap(serr.NumericFailure, "modeinterp: q-point/branch interpolation", err)
			}
			for i := 0; i < ntv; i++ {
				out.Freq[i][j][k] = res.Freq[i]
				out.Gamma[i][j][k] = res.Gamma[i]
				out.VdrDv[i][j][k] = res.VdrDv[i]
			}
		}
	}

	return out, nil
}

func alloc3(a, b, c int) [][][]float64 {
	out := make([][][]float64, a)
	for i := range out {
		out[i] = make([][]float64, b)
		for j := range out[i] {
			out[i][j] = make([]float64, c)
		}
	}
	return out
}
