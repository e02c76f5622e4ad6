// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package modeinterp

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/MineralsCloud/cij/tradio"
)

// power-law mode: omega = omega0 * (V/V0)^(-gamma0), so ln(omega) is exactly
// linear in ln(V) with slope -gamma0 -- every backend should reproduce it
// near-exactly and report a constant gamma and zero curvature.
func powerLawMode(v0, omega0, gamma0 float64, volumes []float64) []float64 {
	freqs := make([]float64, len(volumes))
	for i, v := range volumes {
		freqs[i] = omega0 * math.Pow(v/v0, -gamma0)
	}
	return freqs
}

func Test_modeinterp01(tst *testing.T) {

	chk.PrintTitle("modeinterp01: power-law mode recovered by lsq_poly")

	volumes := []float64{80, 85, 90, 95, 100, 105, 110}
	freqs := powerLawMode(100, 500.0, 1.3, volumes)

	res, err := Interpolate(volumes, freqs, []float64{90, 100}, LSQPoly, 3)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	expect90 := powerLawMode(100, 500.0, 1.3, []float64{90})[0]
	if math.Abs(res.Freq[0]-expect90) > 1e-3*expect90 {
		tst.Errorf("expected freq~%v at V=90, got %v", expect90, res.Freq[0])
	}
	if math.Abs(res.Gamma[0]-1.3) > 1e-6 {
		tst.Errorf("expected gamma=1.3, got %v", res.Gamma[0])
	}
	if math.Abs(res.VdrDv[0]) > 1e-6 {
		tst.Errorf("expected zero curvature for power law, got %v", res.VdrDv[0])
	}
}

func Test_modeinterp02(tst *testing.T) {

	chk.PrintTitle("modeinterp02: all backends run without error on a smooth mode")

	volumes := []float64{80, 85, 90, 95, 100, 105, 110, 115}
	freqs := powerLawMode(100, 500.0, 1.1, volumes)
	target := []float64{82, 97, 112}

	backends := []Backend{Spline, Lagrange, Krogh, PCHIP, Akima, Hermite, LSQPoly}
	for _, b := range backends {
		res, err := Interpolate(volumes, freqs, target, b, 0)
		if err != nil {
			tst.Fatalf("backend %s: unexpected error: %v", b, err)
		}
		for i, v := range target {
			if res.Freq[i] <= 0 {
				tst.Errorf("backend %s: non-positive frequency at V=%v: %v", b, v, res.Freq[i])
			}
		}
	}
}

func Test_modeinterp03(tst *testing.T) {

	chk.PrintTitle("modeinterp03: gamma-point acoustic branches are skipped")

	input := &tradio.PhononInput{NV: 3, NQ: 2, NP: 4}
	vols := []float64{90, 100, 110}
	for _, v := range vols {
		qp0 := tradio.QPoint{Modes: powerLawMode(100, 1.0, 0, []float64{v})}
		qp0.Modes = make([]float64, 4)
		for b := 0; b < 4; b++ {
			qp0.Modes[b] = 100.0 * math.Pow(v/100.0, -1.2)
		}
		qp1 := tradio.QPoint{Modes: make([]float64, 4)}
		for b := 0; b < 4; b++ {
			qp1.Modes[b] = 150.0 * math.Pow(v/100.0, -0.9)
		}
		input.Volumes = append(input.Volumes, tradio.VolumeBlock{
			Volume:  v,
			QPoints: []tradio.QPoint{qp0, qp1},
		})
	}

	out, err := InterpolateAll(input, []float64{100}, LSQPoly, 2)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	for k := 0; k < 3; k++ {
		if out.Freq[0][0][k] != 0 {
			tst.Errorf("expected Gamma-acoustic branch %d to be skipped, got %v", k, out.Freq[0][0][k])
		}
	}
	if out.Freq[0][0][3] <= 0 {
		tst.Errorf("expected Gamma-optic branch to be interpolated, got %v", out.Freq[0][0][3])
	}
	if out.Freq[0][1][0] <= 0 {
		tst.Errorf("expected non-Gamma q-point branch to be interpolated, got %v", out.Freq[0][1][0])
	}
}

// twoTermMode sums two power laws, giving ln(omega) real curvature in
// ln(V) -- unlike powerLawMode, this distinguishes a genuine degree-5
// polynomial spline fit from a piecewise-cubic Hermite fit.
func twoTermMode(v0 float64, volumes []float64) []float64 {
	freqs := make([]float64, len(volumes))
	for i, v := range volumes {
		freqs[i] = 300.0*math.Pow(v/v0, -1.0) + 50.0*math.Pow(v/v0, -3.0)
	}
	return freqs
}

func Test_modeinterp04(tst *testing.T) {

	chk.PrintTitle("modeinterp04: spline and hermite disagree on a curved mode")

	volumes := []float64{70, 80, 90, 100, 110, 120, 130}
	freqs := twoTermMode(100, volumes)

	spline, err := Interpolate(volumes, freqs, []float64{85}, Spline, 0)
	if err != nil {
		tst.Fatalf("spline: unexpected error: %v", err)
	}
	hermite, err := Interpolate(volumes, freqs, []float64{85}, Hermite, 0)
	if err != nil {
		tst.Fatalf("hermite: unexpected error: %v", err)
	}

	if math.Abs(spline.Freq[0]-hermite.Freq[0]) < 1e-6*hermite.Freq[0] {
		tst.Errorf("expected spline and hermite to disagree on a curved mode, both gave %v", hermite.Freq[0])
	}
	if math.Abs(spline.VdrDv[0]-hermite.VdrDv[0]) < 1e-6 {
		tst.Errorf("expected spline and hermite curvature estimates to differ, both gave %v", hermite.VdrDv[0])
	}
}
