// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package calc

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/MineralsCloud/cij/voigt"
)

// writeFixture writes content to dir/name and returns the full path.
func writeFixture(tst *testing.T, dir, name, content string) string {
	fname := filepath.Join(dir, name)
	if err := os.WriteFile(fname, []byte(content), 0644); err != nil {
		tst.Fatalf("cannot write fixture %q: %v", name, err)
	}
	return fname
}

// newFixtureCalculator builds a tiny, synthetic three-volume, cubic-symmetry
// test case and runs the whole pipeline, matching the shape of the example
// inputs spec.md §6 documents.
func newFixtureCalculator(tst *testing.T) *Calculator {
	dir := tst.TempDir()

	writeFixture(tst, dir, "phonon.dat", `
3 2 3 1 1
P= 0.0 V= 900.0 E= -10.050
0.0 0.0 0.0
100.0
100.0
100.0
0.5 0.0 0.0
210.0
205.0
200.0
P= 0.0 V= 950.0 E= -10.080
0.0 0.0 0.0
95.0
95.0
95.0
0.5 0.0 0.0
200.0
195.0
190.0
P= 0.0 V= 1000.0 E= -10.070
0.0 0.0 0.0
90.0
90.0
90.0
0.5 0.0 0.0
190.0
185.0
180.0
weight
0.0 0.0 0.0 1.0
0.5 0.0 0.0 1.0
`)

	writeFixture(tst, dir, "elast.dat", `test crystal
1000.0 3 40.0
V C11 C12 C44
900.0 310.0 110.0 160.0
950.0 300.0 105.0 150.0
1000.0 290.0 100.0 140.0
`)

	writeFixture(tst, dir, "settings.yaml", `
qha:
  input: phonon.dat
  settings:
    n_tv: 5
    n_t: 4
    t_max: 1000
    n_p: 4
    p_min_gpa: 0
    p_max_gpa: 10
elast:
  input: elast.dat
  settings:
    symmetry:
      system: cubic
output:
  volume_base:
    - modulus_adiabatic
    - bulk_modulus_voigt_reuss_hill
    - shear_modulus_voigt_reuss_hill
    - primary_velocities
    - secondary_velocities
  pressure_base:
    - modulus_adiabatic
    - bulk_modulus_voigt_reuss_hill
`)

	calculator, err := New(filepath.Join(dir, "settings.yaml"))
	if err != nil {
		tst.Fatalf("unexpected error building calculator: %v", err)
	}
	return calculator
}

func Test_calc01(tst *testing.T) {

	chk.PrintTitle("calc01: end-to-end pipeline resolves every cubic modulus key")

	calculator := newFixtureCalculator(tst)

	keys := calculator.ModulusKeys()
	if len(keys) == 0 {
		tst.Fatalf("expected at least one modulus key")
	}

	c11, err := calculator.GetModulus(VolumeBase, Adiabatic, mustKey(tst, 1, 1))
	if err != nil {
		tst.Fatalf("unexpected error getting c11: %v", err)
	}
	if len(c11) == 0 || len(c11[0]) != 5 {
		tst.Fatalf("expected c11(T,V) shaped [N_T][5], got %v", dims(c11))
	}
	for t := range c11 {
		for v := range c11[t] {
			if c11[t][v] <= 0 {
				tst.Errorf("expected positive c11 at (%d,%d), got %f", t, v, c11[t][v])
			}
		}
	}
}

func Test_calc02(tst *testing.T) {

	chk.PrintTitle("calc02: pressure-base view regrids without error")

	calculator := newFixtureCalculator(tst)

	k, err := calculator.GetModulus(PressureBase, Adiabatic, mustKey(tst, 1, 1))
	if err != nil {
		tst.Fatalf("unexpected error getting pressure-base c11: %v", err)
	}
	if len(k) == 0 || len(k[0]) != 4 {
		tst.Fatalf("expected c11(T,P) shaped [N_T][4], got %v", dims(k))
	}
}

func Test_calc03(tst *testing.T) {

	chk.PrintTitle("calc03: write_output produces the requested table files")

	dir := tst.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		tst.Fatalf("cannot get working dir: %v", err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(dir); err != nil {
		tst.Fatalf("cannot chdir: %v", err)
	}

	writeFixture(tst, dir, "phonon.dat", `
3 2 3 1 1
P= 0.0 V= 900.0 E= -10.050
0.0 0.0 0.0
100.0
100.0
100.0
0.5 0.0 0.0
210.0
205.0
200.0
P= 0.0 V= 950.0 E= -10.080
0.0 0.0 0.0
95.0
95.0
95.0
0.5 0.0 0.0
200.0
195.0
190.0
P= 0.0 V= 1000.0 E= -10.070
0.0 0.0 0.0
90.0
90.0
90.0
0.5 0.0 0.0
190.0
185.0
180.0
weight
0.0 0.0 0.0 1.0
0.5 0.0 0.0 1.0
`)
	writeFixture(tst, dir, "elast.dat", `test crystal
1000.0 3 40.0
V C11 C12 C44
900.0 310.0 110.0 160.0
950.0 300.0 105.0 150.0
1000.0 290.0 100.0 140.0
`)
	writeFixture(tst, dir, "settings.yaml", `
qha:
  input: phonon.dat
  settings:
    n_tv: 5
    n_t: 4
elast:
  input: elast.dat
  settings:
    symmetry:
      system: cubic
output:
  volume_base:
    - bulk_modulus_voigt_reuss_hill
`)

	calculator, err := New(filepath.Join(dir, "settings.yaml"))
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if err := calculator.WriteOutput(); err != nil {
		tst.Fatalf("unexpected error writing output: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "k_vrh_tv.dat")); err != nil {
		tst.Errorf("expected k_vrh_tv.dat to be written: %v", err)
	}
}

func mustKey(tst *testing.T, v1, v2 int) voigt.ModulusIndex {
	key, err := voigt.NewModulusIndexFromVoigt(v1, v2)
	if err != nil {
		tst.Fatalf("unexpected error building key: %v", err)
	}
	return key
}

func dims(m [][]float64) [2]int {
	if len(m) == 0 {
		return [2]int{0, 0}
	}
	return [2]int{len(m), len(m[0])}
}
