// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phonon

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/MineralsCloud/cij/voigt"
)

func c44Key(tst *testing.T) voigt.ModulusIndex {
	key, err := voigt.NewModulusIndexFromVoigt(4, 4)
	if err != nil {
		tst.Fatalf("unexpected error building c44: %v", err)
	}
	return key
}

func Test_shear01(tst *testing.T) {

	chk.PrintTitle("shear01: fictitious strain for c44 is a pure shear pattern")

	key := c44Key(tst)
	fs, err := BuildFictitiousStrain(key)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if fs.F.At(1, 2) != 1 || fs.F.At(2, 1) != 1 {
		tst.Errorf("expected F[2,3]=F[3,2]=1, got\n%v", fs.F)
	}
	if fs.F.At(0, 0) != 0 || fs.F.At(1, 1) != 0 || fs.F.At(2, 2) != 0 {
		tst.Errorf("expected zero diagonal, got\n%v", fs.F)
	}

	// eigenvalues of [[0,1],[1,0]] (embedded in 3x3) are -1, 0, 1.
	found := map[int]bool{-1: false, 0: false, 1: false}
	for _, l := range fs.Lambda {
		switch {
		case l < -0.5:
			found[-1] = true
		case l > 0.5:
			found[1] = true
		default:
			found[0] = true
		}
	}
	for k, ok := range found {
		if !ok {
			tst.Errorf("expected an eigenvalue near %d, got %v", k, fs.Lambda)
		}
	}
}

func Test_shear02(tst *testing.T) {

	chk.PrintTitle("shear02: rejects i != j shear keys")

	key, err := voigt.NewModulusIndexFromVoigt(4, 5)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	_, err = BuildFictitiousStrain(key)
	if err == nil {
		tst.Fatalf("expected ShearNotImplemented error")
	}
}

func Test_shear03(tst *testing.T) {

	chk.PrintTitle("shear03: original-frame dependencies for a pure shear are trivial")

	key := c44Key(tst)
	original, rotated, err := Dependencies(key)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	// the only nonzero original-frame combinations collapse onto the
	// target itself, so they are excluded: nothing left to resolve.
	if len(original) != 0 {
		tst.Errorf("expected no original-frame dependencies, got %v", original)
	}
	// the rotated frame has two nonzero principal strains (+1, -1), giving
	// the longitudinal dependencies c11 and c33 and the off-diagonal
	// dependency c13 (counted twice by the cartesian product).
	if len(rotated) == 0 {
		tst.Errorf("expected rotated-frame dependencies, got none")
	}
}

func Test_shear04(tst *testing.T) {

	chk.PrintTitle("shear04: solves c44 from isotropic longitudinal/off-diagonal inputs")

	key := c44Key(tst)

	// a resolver standing in for an isotropic material: c_ii = 300, c_ij = 100
	// (GPa-like units, arbitrary for this algebraic check), independent of
	// the strain passed in.
	resolve := func(k voigt.ModulusIndex, strain [][3]float64) ([][]float64, error) {
		val := 100.0
		if k.IsLongitudinal() {
			val = 300.0
		}
		out := make([][]float64, 1)
		out[0] = make([]float64, len(strain))
		for v := range strain {
			out[0][v] = val
		}
		return out, nil
	}

	strain := [][3]float64{{1.0 / 3, 1.0 / 3, 1.0 / 3}}
	out, err := Solve(key, strain, resolve)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	// isotropic relation: c44 = (c11-c12)/2 = (300-100)/2 = 100
	expect := (300.0 - 100.0) / 2
	if out[0][0] < expect-1e-6 || out[0][0] > expect+1e-6 {
		tst.Errorf("expected c44~%v, got %v", expect, out[0][0])
	}
}
