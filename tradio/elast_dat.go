// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package tradio

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/MineralsCloud/cij/serr"
)

// ElastVolume holds the static elastic-constant columns for one volume.
type ElastVolume struct {
	Volume float64
	Static map[string]float64 // lower-cased column name -> c_ij in GPa
}

// LatticeParams holds the (a,b,c) cell parameters for one volume.
type LatticeParams [3]float64

// ElastInput is the parsed content of input file 2 (elastic constants).
type ElastInput struct {
	Title    string
	VRef     float64
	NV       int
	CellMass float64
	Volumes  []ElastVolume
	Lattice  []LatticeParams // optional, length 0 or NV
}

// ReadElastInput parses input file 2 per spec.md §6.
func ReadElastInput(fname string) (*ElastInput, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, serr.New(serr.InputMalformed, "cannot open %q: %v", fname, err)
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	lineNo := 0
	nextLine := func() (string, bool) {
		if !sc.Scan() {
			return "", false
		}
		lineNo++
		return sc.Text(), true
	}

	title, ok := nextLine()
	if !ok {
		return nil, serr.New(serr.InputMalformed, "%s: missing title line", fname)
	}

	headerLine, ok := nextLine()
	if !ok {
		return nil, serr.New(serr.InputMalformed, "%s: missing V_ref N_V cell_mass line", fname)
	}
	fields := strings.Fields(headerLine)
	if len(fields) < 3 {
		return nil, serr.New(serr.InputMalformed, "line %d: expected 'V_ref N_V cell_mass', got %q", lineNo, headerLine)
	}
	vref, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return nil, serr.New(serr.InputMalformed, "line %d: bad V_ref: %v", lineNo, err)
	}
	nv, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, serr.New(serr.InputMalformed, "line %d: bad N_V: %v", lineNo, err)
	}
	cellMass, err := strconv.ParseFloat(fields[2], 64)
	if err != nil {
		return nil, serr.New(serr.InputMalformed, "line %d: bad cell_mass: %v", lineNo, err)
	}

	columnLine, ok := nextLine()
	if !ok {
		return nil, serr.New(serr.InputMalformed, "%s: missing column header line", fname)
	}
	keys := strings.Fields(columnLine)
	if len(keys) < 2 || strings.ToLower(keys[0]) != "v" {
		return nil, serr.New(serr.InputMalformed, "line %d: expected header starting with V, got %q", lineNo, columnLine)
	}

	input := &ElastInput{Title: title, VRef: vref, NV: nv, CellMass: cellMass}

	for i := 0; i < nv; i++ {
		dataLine, ok := nextLine()
		if !ok {
			return nil, serr.New(serr.InputMalformed, "line %d: expected data row %d/%d", lineNo, i+1, nv)
		}
		dfields := strings.Fields(dataLine)
		if len(dfields) != len(keys) {
			return nil, serr.New(serr.InputMalformed, "line %d: expected %d columns, got %d", lineNo, len(keys), len(dfields))
		}
		vol := ElastVolume{Static: make(map[string]float64)}
		v, err := strconv.ParseFloat(dfields[0], 64)
		if err != nil {
			return nil, serr.New(serr.InputMalformed, "line %d: bad volume value: %v", lineNo, err)
		}
		vol.Volume = v
		for k := 1; k < len(keys); k++ {
			cv, err := strconv.ParseFloat(dfields[k], 64)
			if err != nil {
				return nil, serr.New(serr.InputMalformed, "line %d: bad value for column %s: %v", lineNo, keys[k], err)
			}
			vol.Static[strings.ToLower(keys[k])] = cv
		}
		input.Volumes = append(input.Volumes, vol)
	}

	// optional blank line followed by lattice parameters
	for {
		line, ok := nextLine()
		if !ok {
			return input, nil
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		lfields := strings.Fields(line)
		if len(lfields) != 3 {
			return nil, serr.New(serr.InputMalformed, "line %d: expected 3 lattice parameters, got %d", lineNo, len(lfields))
		}
		var lp LatticeParams
		for k := 0; k < 3; k++ {
			v, err := strconv.ParseFloat(lfields[k], 64)
			if err != nil {
				return nil, serr.New(serr.InputMalformed, "line %d: bad lattice parameter: %v", lineNo, err)
			}
			lp[k] = v
		}
		input.Lattice = append(input.Lattice, lp)
		if len(input.Lattice) == nv {
			break
		}
	}

	return input, nil
}
