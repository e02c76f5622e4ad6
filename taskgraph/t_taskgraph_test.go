// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package taskgraph

import (
	"math"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/MineralsCloud/cij/phonon"
	"github.com/MineralsCloud/cij/voigt"
)

func flatModes(tst *testing.T, nv, nq, np int, gamma, vdrdv, freq float64) phonon.ModeFields {
	mf := phonon.ModeFields{
		Freq:  make([][][]float64, nv),
		Gamma: make([][][]float64, nv),
		VdrDv: make([][][]float64, nv),
	}
	for v := 0; v < nv; v++ {
		mf.Freq[v] = make([][]float64, nq)
		mf.Gamma[v] = make([][]float64, nq)
		mf.VdrDv[v] = make([][]float64, nq)
		for q := 0; q < nq; q++ {
			mf.Freq[v][q] = make([]float64, np)
			mf.Gamma[v][q] = make([]float64, np)
			mf.VdrDv[v][q] = make([]float64, np)
			for p := 0; p < np; p++ {
				if q == 0 && p < 3 {
					continue
				}
				mf.Freq[v][q][p] = freq
				mf.Gamma[v][q][p] = gamma
				mf.VdrDv[v][q][p] = vdrdv
			}
		}
	}
	return mf
}

func Test_taskgraph01(tst *testing.T) {

	chk.PrintTitle("taskgraph01: resolves a single longitudinal key with no dependencies")

	in := phonon.Inputs{
		VArray:         []float64{100},
		TArray:         []float64{0, 300},
		QWeights:       []float64{1},
		Modes:          flatModes(tst, 1, 1, 4, 1.1, 0.03, 250),
		Na:             4,
		HeatCapacityTV: [][]float64{{1e-4}, {1e-4}},
	}
	g := New(in)

	c11, err := voigt.NewModulusIndexFromVoigt(1, 1)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	strain := [][3]float64{{1.0 / 3, 1.0 / 3, 1.0 / 3}}
	if err := g.Resolve(strain, []voigt.ModulusIndex{c11}); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if err := g.Calculate(); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	iso, adi, err := g.Results(strain, []voigt.ModulusIndex{c11})
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if iso[c11] == nil || adi[c11] == nil {
		tst.Fatalf("expected results for c11")
	}
	if iso[c11][0][0] == 0 {
		tst.Errorf("expected nonzero c11 zero-point contribution")
	}
}

func Test_taskgraph02(tst *testing.T) {

	chk.PrintTitle("taskgraph02: resolves a self-shear key through its dependencies")

	in := phonon.Inputs{
		VArray:         []float64{100},
		TArray:         []float64{0},
		QWeights:       []float64{1},
		Modes:          flatModes(tst, 1, 1, 4, 1.0, 0.02, 200),
		Na:             4,
		StaticPressure: []float64{0.001},
		PressureTV:     [][]float64{{0.001}},
		HeatCapacityTV: [][]float64{{1e-4}},
	}
	g := New(in)

	c44, err := voigt.NewModulusIndexFromVoigt(4, 4)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	strain := [][3]float64{{1.0 / 3, 1.0 / 3, 1.0 / 3}}
	if err := g.Resolve(strain, []voigt.ModulusIndex{c44}); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if len(g.nodes) < 2 {
		tst.Errorf("expected shear task to pull in at least one dependency, got %d nodes", len(g.nodes))
	}
	if err := g.Calculate(); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	iso, adi, err := g.Results(strain, []voigt.ModulusIndex{c44})
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if math.IsNaN(iso[c44][0][0]) {
		tst.Errorf("expected a finite c44 value, got NaN")
	}
	if iso[c44][0][0] != adi[c44][0][0] {
		tst.Errorf("expected shear isothermal == adiabatic, got %v vs %v", iso[c44][0][0], adi[c44][0][0])
	}
}

func Test_taskgraph03(tst *testing.T) {

	chk.PrintTitle("taskgraph03: identical strain fractions across keys share one task")

	in := phonon.Inputs{
		VArray:         []float64{100},
		TArray:         []float64{0},
		QWeights:       []float64{1},
		Modes:          flatModes(tst, 1, 1, 4, 1.0, 0.02, 200),
		Na:             4,
		HeatCapacityTV: [][]float64{{1e-4}},
	}
	g := New(in)

	c22, err := voigt.NewModulusIndexFromVoigt(2, 2)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	c33, err := voigt.NewModulusIndexFromVoigt(3, 3)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	// cubic-like strain: e2 == e3, so c22 and c33 share identical (ai,aj).
	strain := [][3]float64{{1.0 / 3, 1.0 / 3, 1.0 / 3}}
	if err := g.Resolve(strain, []voigt.ModulusIndex{c22, c33}); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if len(g.nodes) != 1 {
		tst.Errorf("expected c22 and c33 to memoize onto a single task, got %d nodes", len(g.nodes))
	}
}
