// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package aggregate computes Voigt-Reuss-Hill bulk/shear moduli, acoustic
// velocities, and the (T,V)->(T,P) regridding of any per-(T,V) field, all
// grounded on core/calculator.py's CijVolumeBaseInterface/
// CijPressureBaseInterface and the external qha.v2p regridder it composes
// with its own elastic-modulus fields.
package aggregate

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/interp"

	"github.com/MineralsCloud/cij/serr"
	"github.com/MineralsCloud/cij/units"
	"github.com/MineralsCloud/cij/voigt"
)

// avogadro is the Avogadro constant, mol^-1.
const avogadro = 6.02214076e23

// Moduli bundles the nine independent stiffness components a VRH average
// and acoustic velocities need, each shaped [N_T][N_V] in Ry/bohr^3.
type Moduli struct {
	C11, C22, C33 [][]float64
	C12, C13, C23 [][]float64
	C44, C55, C66 [][]float64
}

func dims(m Moduli) (int, int) {
	for _, f := range [][][]float64{m.C11, m.C22, m.C33, m.C12, m.C13, m.C23, m.C44, m.C55, m.C66} {
		if f != nil {
			return len(f), len(f[0])
		}
	}
	return 0, 0
}

// BulkVoigt is the Voigt average of the bulk modulus K_V.
func BulkVoigt(m Moduli) [][]float64 {
	nt, nv := dims(m)
	out := make([][]float64, nt)
	for t := 0; t < nt; t++ {
		out[t] = make([]float64, nv)
		for v := 0; v < nv; v++ {
			out[t][v] = (m.C11[t][v] + m.C22[t][v] + m.C33[t][v] +
				2*(m.C12[t][v]+m.C23[t][v]+m.C13[t][v])) / 9
		}
	}
	return out
}

// BulkReuss is the Reuss average of the bulk modulus K_R, computed from the
// corresponding compliance components.
func BulkReuss(s Moduli) [][]float64 {
	nt, nv := dims(s)
	out := make([][]float64, nt)
	for t := 0; t < nt; t++ {
		out[t] = make([]float64, nv)
		for v := 0; v < nv; v++ {
			out[t][v] = 1 / (s.C11[t][v] + s.C22[t][v] + s.C33[t][v] +
				2*(s.C12[t][v]+s.C23[t][v]+s.C13[t][v]))
		}
	}
	return out
}

// ShearVoigt is the Voigt average of the shear modulus G_V.
func ShearVoigt(m Moduli) [][]float64 {
	nt, nv := dims(m)
	out := make([][]float64, nt)
	for t := 0; t < nt; t++ {
		out[t] = make([]float64, nv)
		for v := 0; v < nv; v++ {
			out[t][v] = ((m.C11[t][v]+m.C22[t][v]+m.C33[t][v])-
				(m.C12[t][v]+m.C23[t][v]+m.C13[t][v])+
				3*(m.C44[t][v]+m.C55[t][v]+m.C66[t][v])) / 15
		}
	}
	return out
}

// ShearReuss is the Reuss average of the shear modulus G_R, computed from
// the corresponding compliance components.
func ShearReuss(s Moduli) [][]float64 {
	nt, nv := dims(s)
	out := make([][]float64, nt)
	for t := 0; t < nt; t++ {
		out[t] = make([]float64, nv)
		for v := 0; v < nv; v++ {
			out[t][v] = 15 / (4*(s.C11[t][v]+s.C22[t][v]+s.C33[t][v]) -
				4*(s.C12[t][v]+s.C23[t][v]+s.C13[t][v]) +
				3*(s.C44[t][v]+s.C55[t][v]+s.C66[t][v]))
		}
	}
	return out
}

// VoigtReussHill averages the Voigt and Reuss estimates of a modulus.
func VoigtReussHill(voigtVal, reussVal [][]float64) [][]float64 {
	out := make([][]float64, len(voigtVal))
	for t := range voigtVal {
		out[t] = make([]float64, len(voigtVal[t]))
		for v := range voigtVal[t] {
			out[t][v] = (voigtVal[t][v] + reussVal[t][v]) / 2
		}
	}
	return out
}

// CellMass returns the per-cell mass in kilograms from the cell mass in
// grams/mol (mass = cellmass * 1e-3 / N_A).
func CellMass(cellMassGramsPerMol float64) float64 {
	return cellMassGramsPerMol * 1e-3 / avogadro
}

// PrimaryVelocity computes v_p(T, V) = sqrt((K_VRH + 4/3 G_VRH) * V / mass)
// in km/s, with bulkVRH/shearVRH in Ry/bohr^3, vArray in bohr^3, and mass
// in kg.
func PrimaryVelocity(bulkVRH, shearVRH [][]float64, vArray []float64, mass float64) [][]float64 {
	return velocity(func(t, v int) float64 {
		return bulkVRH[t][v] + 4.0/3.0*shearVRH[t][v]
	}, vArray, mass, len(bulkVRH), len(vArray))
}

// SecondaryVelocity computes v_s(T, V) = sqrt(G_VRH * V / mass) in km/s.
func SecondaryVelocity(shearVRH [][]float64, vArray []float64, mass float64) [][]float64 {
	return velocity(func(t, v int) float64 {
		return shearVRH[t][v]
	}, vArray, mass, len(shearVRH), len(vArray))
}

func velocity(modulus func(t, v int) float64, vArray []float64, mass float64, nt, nv int) [][]float64 {
	out := make([][]float64, nt)
	for t := 0; t < nt; t++ {
		out[t] = make([]float64, nv)
		for v := 0; v < nv; v++ {
			energy := modulus(t, v) * vArray[v] * units.RyToKgKm2PerS2
			out[t][v] = math.Sqrt(energy / mass)
		}
	}
	return out
}

// Regrid converts a per-(T,V) field into a per-(T,P) field by, for each
// temperature row, interpolating the field against the engine-reported
// pressure at each volume and evaluating it at the target pressure grid.
// Grounded on the v2p regridding the teacher's underlying QHA engine
// performs; here it is reimplemented for elastic-modulus fields the engine
// never sees.
func Regrid(valueTV, pressureTV [][]float64, pArray []float64) ([][]float64, error) {
	nt := len(valueTV)
	out := make([][]float64, nt)
	for t := 0; t < nt; t++ {
		xs, ys := sortedByPressure(pressureTV[t], valueTV[t])
		var pl interp.PiecewiseLinear
		if err := pl.Fit(xs, ys); err != nil {
			return nil, serr.Wrap(serr.NumericFailure, "aggregate: regridding to (T,P)", err)
		}
		out[t] = make([]float64, len(pArray))
		for i, p := range pArray {
			out[t][i] = pl.Predict(p)
		}
	}
	return out, nil
}

func sortedByPressure(pressures, values []float64) ([]float64, []float64) {
	idx := make([]int, len(pressures))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return pressures[idx[a]] < pressures[idx[b]] })
	xs := make([]float64, len(idx))
	ys := make([]float64, len(idx))
	for i, j := range idx {
		xs[i] = pressures[j]
		ys[i] = values[j]
	}
	return xs, ys
}

// ModuliFromMap extracts the nine independent cubic/general components a
// VRH average needs from a ModulusIndex-keyed result map, leaving any
// missing component as nil (symmetry-forbidden components stay zero).
func ModuliFromMap(results map[voigt.ModulusIndex][][]float64) Moduli {
	get := func(v1, v2 int) [][]float64 {
		key, err := voigt.NewModulusIndexFromVoigt(v1, v2)
		if err != nil {
			return nil
		}
		return results[key]
	}
	return Moduli{
		C11: get(1, 1), C22: get(2, 2), C33: get(3, 3),
		C12: get(1, 2), C13: get(1, 3), C23: get(2, 3),
		C44: get(4, 4), C55: get(5, 5), C66: get(6, 6),
	}
}
