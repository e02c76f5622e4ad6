// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package tradio reads the traditional whitespace-delimited phonon/energy
// and elastic-constant input files (external interfaces, spec.md §6).
package tradio

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/MineralsCloud/cij/serr"
)

// QPoint holds the fractional q-point coordinates and the per-branch mode
// frequencies (cm^-1) at one volume.
type QPoint struct {
	Coord [3]float64
	Modes []float64 // length N_p
}

// VolumeBlock holds the static energy/pressure/volume and all q-points for
// one input volume.
type VolumeBlock struct {
	Pressure float64 // Ry/bohr^3, as given in the header "P="
	Volume   float64 // bohr^3
	Energy   float64 // Ry
	QPoints  []QPoint
}

// QWeight is the multiplicity (weight) of one q-point.
type QWeight struct {
	Coord  [3]float64
	Weight float64
}

// PhononInput is the parsed content of input file 1.
type PhononInput struct {
	NV, NQ, NP, NM, NA int
	Volumes            []VolumeBlock
	Weights            []QWeight
}

var (
	reInfoStart = regexp.MustCompile(`^(\d+)\s+(\d+)\s+(\d+)\s+(\d+)\s+(\d+)$`)
	reQWeight   = regexp.MustCompile(`^(-?\d+\.?\d*(?:[eEdD][+-]?\d+)?)\s+(-?\d+\.?\d*(?:[eEdD][+-]?\d+)?)\s+(-?\d+\.?\d*(?:[eEdD][+-]?\d+)?)\s+(-?\d+\.?\d*(?:[eEdD][+-]?\d+)?)$`)
	rePVE       = regexp.MustCompile(`P=\s*(-?\d*\.?\d*(?:[eEdD][+-]?\d+)?)\s+V=\s*(-?\d*\.?\d*(?:[eEdD][+-]?\d+)?)\s+E=\s*(-?\d*\.?\d*(?:[eEdD][+-]?\d+)?)`)
)

type lineScanner struct {
	sc   *bufio.Scanner
	line int
}

func newLineScanner(r io.Reader) *lineScanner {
	return &lineScanner{sc: bufio.NewScanner(r)}
}

func (s *lineScanner) next() (string, bool) {
	if !s.sc.Scan() {
		return "", false
	}
	s.line++
	return s.sc.Text(), true
}

func parseFloat(s string, lineNo int) (float64, error) {
	s = strings.ReplaceAll(s, "D", "E")
	s = strings.ReplaceAll(s, "d", "e")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, serr.New(serr.InputMalformed, "line %d: cannot parse float %q: %v", lineNo, s, err)
	}
	return v, nil
}

// ReadPhononInput parses input file 1 (phonon/energy) per spec.md §6.
func ReadPhononInput(fname string) (*PhononInput, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, serr.New(serr.InputMalformed, "cannot open %q: %v", fname, err)
	}
	defer f.Close()

	ls := newLineScanner(f)

	var nv, nq, np, nm, na int
	found := false
	for {
		line, ok := ls.next()
		if !ok {
			break
		}
		if m := reInfoStart.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			nv, _ = strconv.Atoi(m[1])
			nq, _ = strconv.Atoi(m[2])
			np, _ = strconv.Atoi(m[3])
			nm, _ = strconv.Atoi(m[4])
			na, _ = strconv.Atoi(m[5])
			found = true
			break
		}
	}
	if !found {
		return nil, serr.New(serr.InputMalformed, "%s: header line N_V N_q N_p N_m N_a not found", fname)
	}

	input := &PhononInput{NV: nv, NQ: nq, NP: np, NM: nm, NA: na}

	for i := 0; i < nv; i++ {
		block, err := readVolumeBlock(ls, nq, np)
		if err != nil {
			return nil, err
		}
		input.Volumes = append(input.Volumes, *block)
	}

	// skip to the "weight"/"weights" marker
	for {
		line, ok := ls.next()
		if !ok {
			return nil, serr.New(serr.InputMalformed, "%s: weight section marker not found", fname)
		}
		t := strings.ToLower(strings.TrimSpace(line))
		if t == "weight" || t == "weights" {
			break
		}
	}

	for i := 0; i < nq; i++ {
		line, ok := ls.next()
		if !ok {
			return nil, serr.New(serr.InputMalformed, "%s: line %d: expected q-weight line", fname, ls.line)
		}
		m := reQWeight.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			return nil, serr.New(serr.InputMalformed, "%s: line %d: malformed q-weight line %q", fname, ls.line, line)
		}
		var qw QWeight
		for k := 0; k < 3; k++ {
			v, err := parseFloat(m[k+1], ls.line)
			if err != nil {
				return nil, err
			}
			qw.Coord[k] = v
		}
		w, err := parseFloat(m[4], ls.line)
		if err != nil {
			return nil, err
		}
		qw.Weight = w
		input.Weights = append(input.Weights, qw)
	}

	return input, nil
}

func readVolumeBlock(ls *lineScanner, nq, np int) (*VolumeBlock, error) {
	var line string
	var ok bool
	for {
		line, ok = ls.next()
		if !ok {
			return nil, serr.New(serr.InputMalformed, "line %d: expected a P=/V=/E= header line", ls.line)
		}
		if rePVE.MatchString(line) {
			break
		}
	}
	m := rePVE.FindStringSubmatch(line)
	p, err := parseFloat(m[1], ls.line)
	if err != nil {
		return nil, err
	}
	v, err := parseFloat(m[2], ls.line)
	if err != nil {
		return nil, err
	}
	e, err := parseFloat(m[3], ls.line)
	if err != nil {
		return nil, err
	}

	block := &VolumeBlock{Pressure: p, Volume: v, Energy: e}

	for q := 0; q < nq; q++ {
		coordLine, ok := ls.next()
		if !ok {
			return nil, serr.New(serr.InputMalformed, "line %d: expected q-point coordinate line", ls.line)
		}
		fields := strings.Fields(coordLine)
		if len(fields) < 3 {
			return nil, serr.New(serr.InputMalformed, "line %d: q-point coordinate line needs 3 fields, got %d", ls.line, len(fields))
		}
		var qp QPoint
		for k := 0; k < 3; k++ {
			cv, err := parseFloat(fields[k], ls.line)
			if err != nil {
				return nil, err
			}
			qp.Coord[k] = cv
		}
		qp.Modes = make([]float64, np)
		for b := 0; b < np; b++ {
			freqLine, ok := ls.next()
			if !ok {
				return nil, serr.New(serr.InputMalformed, "line %d: expected frequency line", ls.line)
			}
			fv, err := parseFloat(strings.TrimSpace(freqLine), ls.line)
			if err != nil {
				return nil, err
			}
			qp.Modes[b] = fv
		}
		block.QPoints = append(block.QPoints, qp)
	}

	return block, nil
}
