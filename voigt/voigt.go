// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package voigt implements Voigt-notation index algebra for symmetric
// second-rank strain/stress pairs and the fourth-rank elastic modulus
// pairs built from them.
package voigt

import (
	"fmt"

	"github.com/cpmech/gosl/chk"
)

// voigtToStandard maps a Voigt number 1..6 to its (i,j) standard pair.
var voigtToStandard = map[int][2]int{
	1: {1, 1},
	2: {2, 2},
	3: {3, 3},
	4: {2, 3},
	5: {1, 3},
	6: {1, 2},
}

// standardToVoigt is the inverse of voigtToStandard.
var standardToVoigt = func() map[[2]int]int {
	m := make(map[[2]int]int, len(voigtToStandard))
	for v, ij := range voigtToStandard {
		m[ij] = v
	}
	return m
}()

// StrainIndex is an ordered pair (I,J), 1<=I<=J<=3, isomorphic to a Voigt
// number 1..6 via the standard mapping.
type StrainIndex struct {
	I, J int
}

// NewStrainIndexFromStandard builds a StrainIndex from a pair of 1-based
// crystal-axis indices, canonicalizing their order.
func NewStrainIndexFromStandard(i, j int) (StrainIndex, error) {
	if i > j {
		i, j = j, i
	}
	if _, ok := standardToVoigt[[2]int{i, j}]; !ok {
		return StrainIndex{}, chk.Err("invalid standard strain index (%d,%d)", i, j)
	}
	return StrainIndex{I: i, J: j}, nil
}

// NewStrainIndexFromVoigt builds a StrainIndex from a Voigt number 1..6.
func NewStrainIndexFromVoigt(v int) (StrainIndex, error) {
	ij, ok := voigtToStandard[v]
	if !ok {
		return StrainIndex{}, chk.Err("invalid voigt index %d", v)
	}
	return StrainIndex{I: ij[0], J: ij[1]}, nil
}

// Voigt returns the Voigt number 1..6 for this strain index.
func (s StrainIndex) Voigt() int {
	return standardToVoigt[[2]int{s.I, s.J}]
}

// Standard returns the (i,j) standard pair.
func (s StrainIndex) Standard() (int, int) {
	return s.I, s.J
}

// String renders e.g. "1(11)" for the diagonal strain and "4(23)" for shear.
func (s StrainIndex) String() string {
	return fmt.Sprintf("%d(%d%d)", s.Voigt(), s.I, s.J)
}

// ModulusIndex is an unordered pair of StrainIndex, canonically ordered by
// ascending Voigt value, identifying an elastic-modulus component c_{E1,E2}.
type ModulusIndex struct {
	E1, E2 StrainIndex
}

// NewModulusIndexFromVoigt builds a ModulusIndex from two Voigt numbers.
func NewModulusIndexFromVoigt(v1, v2 int) (ModulusIndex, error) {
	e1, err := NewStrainIndexFromVoigt(v1)
	if err != nil {
		return ModulusIndex{}, err
	}
	e2, err := NewStrainIndexFromVoigt(v2)
	if err != nil {
		return ModulusIndex{}, err
	}
	return canonicalModulusIndex(e1, e2), nil
}

// NewModulusIndexFromStandard builds a ModulusIndex from the four crystal-axis
// indices (i,j,k,l) of c_{ijkl}.
func NewModulusIndexFromStandard(i, j, k, l int) (ModulusIndex, error) {
	e1, err := NewStrainIndexFromStandard(i, j)
	if err != nil {
		return ModulusIndex{}, err
	}
	e2, err := NewStrainIndexFromStandard(k, l)
	if err != nil {
		return ModulusIndex{}, err
	}
	return canonicalModulusIndex(e1, e2), nil
}

func canonicalModulusIndex(e1, e2 StrainIndex) ModulusIndex {
	if e1.Voigt() > e2.Voigt() {
		e1, e2 = e2, e1
	}
	return ModulusIndex{E1: e1, E2: e2}
}

// ParseModulusIndex parses a digit string: two digits select Voigt indices
// (e.g. "12" -> c12), four digits select standard indices (e.g. "1123" ->
// c_{11,23}). Column names such as "c11" or "C11" should have their "c"/"C"
// prefix stripped by the caller before calling this.
func ParseModulusIndex(digits string) (ModulusIndex, error) {
	ints := make([]int, 0, len(digits))
	for _, r := range digits {
		if r < '0' || r > '9' {
			return ModulusIndex{}, chk.Err("invalid modulus index digits %q", digits)
		}
		ints = append(ints, int(r-'0'))
	}
	switch len(ints) {
	case 2:
		return NewModulusIndexFromVoigt(ints[0], ints[1])
	case 4:
		return NewModulusIndexFromStandard(ints[0], ints[1], ints[2], ints[3])
	default:
		return ModulusIndex{}, chk.Err("invalid modulus index digits %q: expected 2 or 4 digits", digits)
	}
}

// Voigt returns the pair of Voigt numbers (v1,v2), v1<=v2.
func (m ModulusIndex) Voigt() (int, int) {
	return m.E1.Voigt(), m.E2.Voigt()
}

// Standard returns the four crystal-axis indices (i,j,k,l).
func (m ModulusIndex) Standard() (int, int, int, int) {
	return m.E1.I, m.E1.J, m.E2.I, m.E2.J
}

// IsShear reports whether either side of the pair is a shear strain (Voigt
// 4, 5, or 6).
func (m ModulusIndex) IsShear() bool {
	v1, v2 := m.Voigt()
	return (v1 >= 4 && v1 <= 6) || (v2 >= 4 && v2 <= 6)
}

// IsLongitudinal reports whether the pair is a diagonal longitudinal
// component c_ii (E1 == E2 and not shear).
func (m ModulusIndex) IsLongitudinal() bool {
	return m.E1 == m.E2 && !m.IsShear()
}

// IsOffDiagonal reports whether the pair is a non-shear, non-longitudinal
// component c_ij, i != j.
func (m ModulusIndex) IsOffDiagonal() bool {
	return !m.IsShear() && !m.IsLongitudinal()
}

// Multiplicity is the number of equivalent standard-index quadruples this
// Voigt pair represents: 1 * 2^[E1!=E2] * 2^[i1!=j1] * 2^[i2!=j2].
func (m ModulusIndex) Multiplicity() int {
	mult := 1
	if m.E1 != m.E2 {
		mult *= 2
	}
	if m.E1.I != m.E1.J {
		mult *= 2
	}
	if m.E2.I != m.E2.J {
		mult *= 2
	}
	return mult
}

// CalcType classifies the calculation task kind this modulus component
// requires: Longitudinal, OffDiagonal, or Shear.
type CalcType int

const (
	Longitudinal CalcType = iota
	OffDiagonal
	Shear
)

func (t CalcType) String() string {
	switch t {
	case Longitudinal:
		return "longitudinal"
	case OffDiagonal:
		return "off_diagonal"
	case Shear:
		return "shear"
	default:
		return "unknown"
	}
}

// CalcType returns the calculation-task kind for this modulus index.
func (m ModulusIndex) CalcType() CalcType {
	switch {
	case m.IsLongitudinal():
		return Longitudinal
	case m.IsOffDiagonal():
		return OffDiagonal
	default:
		return Shear
	}
}

// String renders e.g. "11(1111)" for c11 and "44(2323)" for c44.
func (m ModulusIndex) String() string {
	v1, v2 := m.Voigt()
	i, j, k, l := m.Standard()
	return fmt.Sprintf("%d%d(%d%d%d%d)", v1, v2, i, j, k, l)
}
