// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package llsq

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/cpmech/gosl/chk"
)

func Test_llsq01(tst *testing.T) {

	chk.PrintTitle("llsq01: overdetermined full-rank system")

	// x=2, y=3 with one noisy equation
	a := mat.NewDense(3, 2, []float64{
		1, 0,
		0, 1,
		1, 1,
	})
	b := mat.NewDense(3, 1, []float64{2, 3, 5.1})

	res, err := Solve(a, b, 0)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if res.Rank != 2 {
		tst.Errorf("expected rank 2, got %d", res.Rank)
	}
	x := res.X.At(0, 0)
	y := res.X.At(1, 0)
	if math.Abs(x-2) > 0.2 || math.Abs(y-3) > 0.2 {
		tst.Errorf("solution far from expected: x=%v y=%v", x, y)
	}
	if res.Residuals[0] < 0 {
		tst.Errorf("residual should be non-negative, got %v", res.Residuals[0])
	}
}

func Test_llsq02(tst *testing.T) {

	chk.PrintTitle("llsq02: rank-deficient system detected")

	a := mat.NewDense(2, 2, []float64{
		1, 1,
		2, 2,
	})
	b := mat.NewDense(2, 1, []float64{1, 2})

	res, err := Solve(a, b, 0)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if res.Rank != 1 {
		tst.Errorf("expected rank 1, got %d", res.Rank)
	}
}

func Test_llsq03(tst *testing.T) {

	chk.PrintTitle("llsq03: polynomial helpers")

	row := VanderRow(2.0, 3)
	if len(row) != 4 || row[0] != 1 || row[1] != 2 || row[2] != 4 || row[3] != 8 {
		tst.Errorf("bad vandermonde row: %v", row)
	}

	coeffs := []float64{1, 2, 3} // 1 + 2x + 3x^2
	if v := PolyEval(coeffs, 2.0); v != 17 {
		tst.Errorf("expected 17, got %v", v)
	}

	d := PolyDeriv(coeffs) // 2 + 6x
	if len(d) != 2 || d[0] != 2 || d[1] != 6 {
		tst.Errorf("bad derivative: %v", d)
	}

	if !IsNearZero(1e-12, 1e-8) {
		tst.Errorf("expected near-zero")
	}
	if IsNearZero(1e-3, 1e-8) {
		tst.Errorf("expected not near-zero")
	}
}
