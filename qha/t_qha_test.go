// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package qha

import (
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/MineralsCloud/cij/tradio"
)

// fixtureInput builds a tiny three-volume, two-q-point, three-branch phonon
// input directly (bypassing tradio's file parser), with frequencies that
// soften monotonically as the volume grows, as a real crystal's would.
func fixtureInput() *tradio.PhononInput {
	mk := func(gamma, nonGamma float64) tradio.VolumeBlock {
		return tradio.VolumeBlock{
			QPoints: []tradio.QPoint{
				{Coord: [3]float64{0, 0, 0}, Modes: []float64{gamma, gamma, gamma}},
				{Coord: [3]float64{0.5, 0, 0}, Modes: []float64{nonGamma + 10, nonGamma + 5, nonGamma}},
			},
		}
	}
	v1 := mk(100, 200)
	v1.Volume, v1.Energy = 900, -10.050
	v2 := mk(95, 190)
	v2.Volume, v2.Energy = 950, -10.080
	v3 := mk(90, 180)
	v3.Volume, v3.Energy = 1000, -10.070

	return &tradio.PhononInput{
		NV: 3, NQ: 2, NP: 3, NM: 1, NA: 1,
		Volumes: []tradio.VolumeBlock{v1, v2, v3},
		Weights: []tradio.QWeight{
			{Coord: [3]float64{0, 0, 0}, Weight: 1},
			{Coord: [3]float64{0.5, 0, 0}, Weight: 1},
		},
	}
}

func Test_qha01(tst *testing.T) {

	chk.PrintTitle("qha01: New rejects fewer than two input volumes")

	input := fixtureInput()
	input.Volumes = input.Volumes[:1]
	input.NV = 1
	if _, err := New(input, Settings{}); err == nil {
		tst.Fatalf("expected an error for a single-volume input")
	}
}

func Test_qha02(tst *testing.T) {

	chk.PrintTitle("qha02: defaults fill in an unset Settings")

	s := Settings{}.withDefaults()
	if s.NTV <= 0 || s.NT <= 0 || s.NP <= 0 {
		tst.Fatalf("expected positive default grid sizes, got %+v", s)
	}
	if s.TMax <= s.TMin {
		tst.Fatalf("expected TMax > TMin by default, got %+v", s)
	}
}

func Test_qha03(tst *testing.T) {

	chk.PrintTitle("qha03: engine builds refined grids and a T=0 row")

	engine, err := New(fixtureInput(), Settings{NTV: 9, NT: 5, TMax: 800, NP: 6, PMinGPa: 0, PMaxGPa: 10})
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if len(engine.VArray()) != 9 {
		tst.Errorf("expected 9 volume points, got %d", len(engine.VArray()))
	}
	if len(engine.TArray()) != 5 {
		tst.Errorf("expected 5 temperature points, got %d", len(engine.TArray()))
	}
	if engine.TArray()[0] != 0 {
		tst.Errorf("expected the first temperature row to be exactly T=0, got %f", engine.TArray()[0])
	}
	if len(engine.PArray()) != 6 {
		tst.Errorf("expected 6 pressure points, got %d", len(engine.PArray()))
	}
}

func Test_qha04(tst *testing.T) {

	chk.PrintTitle("qha04: pressure decreases with volume at fixed temperature")

	engine, err := New(fixtureInput(), Settings{NTV: 11, NT: 3, TMax: 500})
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	pTV := engine.PressuresTV()
	row := pTV[0]
	for i := 1; i < len(row); i++ {
		if row[i] > row[i-1] {
			tst.Errorf("expected pressure to be non-increasing with volume, got p[%d]=%f > p[%d]=%f", i, row[i], i-1, row[i-1])
		}
	}
}

func Test_qha05(tst *testing.T) {

	chk.PrintTitle("qha05: heat capacity vanishes at T=0 and is positive above it")

	engine, err := New(fixtureInput(), Settings{NTV: 9, NT: 4, TMax: 600})
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	cv := engine.HeatCapacityTV()
	for _, v := range cv[0] {
		if v != 0 {
			tst.Errorf("expected C_V(T=0) to be exactly zero, got %f", v)
		}
	}
	for _, v := range cv[len(cv)-1] {
		if v <= 0 {
			tst.Errorf("expected C_V to be positive at the highest temperature row, got %f", v)
		}
	}
}

func Test_qha06(tst *testing.T) {

	chk.PrintTitle("qha06: pressure-base regrid matches the (T,V) volumes in range")

	engine, err := New(fixtureInput(), Settings{NTV: 9, NT: 4, TMax: 600, NP: 5, PMinGPa: 0, PMaxGPa: 5})
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	vTP := engine.VolumesTP()
	if len(vTP) != len(engine.TArray()) {
		tst.Fatalf("expected one volume row per temperature, got %d", len(vTP))
	}
	lo, hi := engine.VArray()[0], engine.VArray()[len(engine.VArray())-1]
	for _, row := range vTP {
		for _, v := range row {
			if v < lo-1e-6 || v > hi+1e-6 {
				tst.Errorf("expected regridded volume within [%f, %f], got %f", lo, hi, v)
			}
		}
	}
}

func Test_qha07(tst *testing.T) {

	chk.PrintTitle("qha07: Engine satisfies the qhaadapter.Engine interface end-to-end")

	engine, err := New(fixtureInput(), Settings{NTV: 7, NT: 3, TMax: 400, NP: 4, PMinGPa: 0, PMaxGPa: 5})
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	// exercising every accessor once is enough to catch a shape mismatch
	// against the refined grids.
	nt, ntv, np := len(engine.TArray()), len(engine.VArray()), len(engine.PArray())
	fields := [][][]float64{
		engine.PressuresTV(), engine.HeatCapacityTV(), engine.BulkModulusTV(),
		engine.BulkModulusIsothermalTV(), engine.ThermalExpansivityTV(),
		engine.HelmholtzTV(), engine.GibbsTV(), engine.EnthalpyTV(),
	}
	for i, f := range fields {
		if len(f) != nt || len(f[0]) != ntv {
			tst.Errorf("TV field %d: expected shape [%d][%d], got [%d][%d]", i, nt, ntv, len(f), len(f[0]))
		}
	}
	tpFields := [][][]float64{
		engine.VolumesTP(), engine.BulkModulusTP(), engine.BulkModulusIsothermalTP(),
		engine.ThermalExpansivityTP(), engine.HelmholtzTP(), engine.GibbsTP(),
		engine.EnthalpyTP(), engine.HeatCapacityTP(),
	}
	for i, f := range tpFields {
		if len(f) != nt || len(f[0]) != np {
			tst.Errorf("TP field %d: expected shape [%d][%d], got [%d][%d]", i, nt, np, len(f), len(f[0]))
		}
	}
}
