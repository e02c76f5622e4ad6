// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package output

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/MineralsCloud/cij/voigt"
)

// fakeSource is a minimal Source fixture for a single-key, 2x3 grid.
type fakeSource struct {
	base    string
	tArray  []float64
	xArray  []float64
	pressur [][]float64
	c11     map[voigt.ModulusIndex][][]float64
}

func (f *fakeSource) BaseName() string  { return f.base }
func (f *fakeSource) TArray() []float64 { return f.tArray }
func (f *fakeSource) XArray() []float64 { return f.xArray }
func (f *fakeSource) Field(prop string) ([][]float64, bool) {
	if prop == "Pressures" {
		return f.pressur, true
	}
	return nil, false
}
func (f *fakeSource) IJField(prop string) (map[voigt.ModulusIndex][][]float64, bool) {
	if prop == "ModulusAdiabatic" {
		return f.c11, true
	}
	return nil, false
}

func newFakeSource(tst *testing.T) *fakeSource {
	key, err := voigt.NewModulusIndexFromVoigt(1, 1)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	return &fakeSource{
		base:    "tv",
		tArray:  []float64{0, 1000},
		xArray:  []float64{900, 950, 1000},
		pressur: [][]float64{{0.01, 0.005, 0}, {0.012, 0.006, 0.001}},
		c11:     map[voigt.ModulusIndex][][]float64{key: {{0.02, 0.019, 0.018}, {0.021, 0.020, 0.019}}},
	}
}

func Test_output01(tst *testing.T) {

	chk.PrintTitle("output01: unknown keyword is ConfigInvalid")

	src := newFakeSource(tst)
	err := Write(src, []Entry{{Keyword: "not_a_real_keyword"}})
	if err == nil {
		tst.Fatalf("expected an error for an unknown keyword")
	}
}

func Test_output02(tst *testing.T) {

	chk.PrintTitle("output02: writes a ValueVar table with one header column per x value")

	dir := tst.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		tst.Fatalf("cannot get cwd: %v", err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(dir); err != nil {
		tst.Fatalf("cannot chdir: %v", err)
	}

	src := newFakeSource(tst)
	if err := Write(src, []Entry{{Keyword: "pressures"}}); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}

	fname := filepath.Join(dir, "p_tv.dat")
	f, err := os.Open(fname)
	if err != nil {
		tst.Fatalf("expected output file to exist: %v", err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	if !sc.Scan() {
		tst.Fatalf("expected a header line")
	}
	header := strings.Fields(sc.Text())
	if len(header) != 4 { // "#" plus 3 volume columns
		tst.Fatalf("expected 4 header fields, got %d: %v", len(header), header)
	}
}

func Test_output03(tst *testing.T) {

	chk.PrintTitle("output03: writes one file per ModulusIndex component of an IJValueVar entry")

	dir := tst.TempDir()
	cwd, err := os.Getwd()
	if err != nil {
		tst.Fatalf("cannot get cwd: %v", err)
	}
	defer os.Chdir(cwd)
	if err := os.Chdir(dir); err != nil {
		tst.Fatalf("cannot chdir: %v", err)
	}

	src := newFakeSource(tst)
	if err := Write(src, []Entry{{Keyword: "modulus_adiabatic"}}); err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "c11_tv.dat")); err != nil {
		tst.Errorf("expected c11_tv.dat to be written: %v", err)
	}
}

func Test_output04(tst *testing.T) {

	chk.PrintTitle("output04: conversionFactor rejects an unknown unit pair")

	if _, err := conversionFactor("ry_per_bohr3", "furlongs"); err == nil {
		tst.Fatalf("expected an error for an unsupported unit conversion")
	}
	factor, err := conversionFactor("gpa", "gpa")
	if err != nil || factor != 1 {
		tst.Fatalf("expected identity conversion to return 1, got %v, %v", factor, err)
	}
}
