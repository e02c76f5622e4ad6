// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package modulus assembles the full thermal elastic modulus c_ij(T,V): a
// polynomial least-squares fit of the static elastic constants against
// Eulerian strain, plus the phonon contribution taskgraph computes, and the
// static-energy-curve pressure the phonon off-diagonal kernel needs.
// Grounded on core/full_modulus.py and core/calculator.py's
// _calculate_pressure_static.
package modulus

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/MineralsCloud/cij/llsq"
	"github.com/MineralsCloud/cij/serr"
	"github.com/MineralsCloud/cij/voigt"
)

// staticFitOrder is the polynomial order used to fit static elastic moduli
// against Eulerian strain (fit_modulus's default in full_modulus.py).
const staticFitOrder = 2

// staticEnergyFitOrder is the order used to fit the static energy curve
// that yields the static pressure (_calculate_pressure_static's default).
const staticEnergyFitOrder = 3

// EulerianStrain returns the Eulerian finite strain f(V) = ((V0/V)^(2/3)-1)/2
// referenced to v0, for every volume in v.
func EulerianStrain(v0 float64, v []float64) []float64 {
	out := make([]float64, len(v))
	for i, vi := range v {
		out[i] = 0.5 * (math.Pow(v0/vi, 2.0/3.0) - 1)
	}
	return out
}

// eulerianStrainDeriv returns df/dV at volume v, referenced to v0.
func eulerianStrainDeriv(v0, v float64) float64 {
	return -(1.0 / 3.0) * math.Pow(v0, 2.0/3.0) * math.Pow(v, -5.0/3.0)
}

// fitPolynomial solves the least-squares polynomial of the given order
// through (x, y) and returns its coefficients, lowest degree first.
func fitPolynomial(x, y []float64, order int) ([]float64, error) {
	n := len(x)
	if n != len(y) {
		return nil, serr.New(serr.ConfigInvalid, "modulus: x and y have different lengths (%d vs %d)", n, len(y))
	}
	a := mat.NewDense(n, order+1, nil)
	for i, xi := range x {
		a.SetRow(i, llsq.VanderRow(xi, order))
	}
	b := mat.NewDense(n, 1, y)
	res, err := llsq.Solve(a, b, -1)
	if err != nil {
		return nil, serr.Wrap(serr.NumericFailure, "modulus: fitting polynomial", err)
	}
	coeffs := make([]float64, order+1)
	for i := range coeffs {
		coeffs[i] = res.X.At(i, 0)
	}
	return coeffs, nil
}

// FitStaticModulus interpolates a static elastic modulus c^st_ij(V), known
// at the original elast-data volumes, onto the refined volume grid vArray,
// via a polynomial least-squares fit against Eulerian strain.
func FitStaticModulus(volumes, values, vArray []float64) ([]float64, error) {
	if len(volumes) == 0 {
		return nil, serr.New(serr.ConfigInvalid, "modulus: no static volumes given")
	}
	strains := EulerianStrain(volumes[0], volumes)
	coeffs, err := fitPolynomial(strains, values, staticFitOrder)
	if err != nil {
		return nil, err
	}
	strainArray := EulerianStrain(volumes[0], vArray)
	out := make([]float64, len(strainArray))
	for i, f := range strainArray {
		out[i] = llsq.PolyEval(coeffs, f)
	}
	return out, nil
}

// StaticPressure fits the static energy curve E(V) (known at the
// phonon-input volumes) against Eulerian strain and returns the analytic
// pressure p(V) = -dE/dV on the refined volume grid vArray. This replaces
// the finite-difference numpy.gradient the original took over the fitted
// energy array with the exact derivative of the same fitted polynomial.
func StaticPressure(volumes, energies, vArray []float64) ([]float64, error) {
	if len(volumes) == 0 {
		return nil, serr.New(serr.ConfigInvalid, "modulus: no static volumes given")
	}
	v0 := volumes[0]
	strains := EulerianStrain(v0, volumes)
	coeffs, err := fitPolynomial(strains, energies, staticEnergyFitOrder)
	if err != nil {
		return nil, err
	}
	deriv := llsq.PolyDeriv(coeffs)
	out := make([]float64, len(vArray))
	for i, v := range vArray {
		f := EulerianStrain(v0, []float64{v})[0]
		dEdf := llsq.PolyEval(deriv, f)
		dfdV := eulerianStrainDeriv(v0, v)
		out[i] = -dEdf * dfdV
	}
	return out, nil
}

// Assemble combines a fitted static modulus (broadcast over every
// temperature row) with the taskgraph's phonon contribution, producing
// c_ij(T, V) = c^st_ij(V) + c^ph_ij(T, V).
func Assemble(static []float64, phononContribution [][]float64) [][]float64 {
	out := make([][]float64, len(phononContribution))
	for t := range phononContribution {
		out[t] = make([]float64, len(static))
		for v := range static {
			out[t][v] = static[v] + phononContribution[t][v]
		}
	}
	return out
}

// Compliances inverts the assembled 6x6 stiffness tensor c_ij(T,V) at every
// (T, V) point into the compliance tensor s_ij(T,V), matching
// calculator._calculate_compliances's per-grid-point matrix inverse. Only
// components that are non-zero somewhere on the grid are reported, matching
// the original's numpy.allclose(..., 0) pruning.
func Compliances(moduli map[voigt.ModulusIndex][][]float64) (map[voigt.ModulusIndex][][]float64, error) {
	var nt, nv int
	for _, m := range moduli {
		nt, nv = len(m), len(m[0])
		break
	}

	grid := make([][6][6]float64, nt*nv)
	for t := 0; t < nt; t++ {
		for v := 0; v < nv; v++ {
			c := mat.NewDense(6, 6, nil)
			for key, m := range moduli {
				v1, v2 := key.Voigt()
				c.Set(v1-1, v2-1, m[t][v])
				c.Set(v2-1, v1-1, m[t][v])
			}
			var s mat.Dense
			if err := s.Inverse(c); err != nil {
				return nil, serr.Wrap(serr.NumericFailure, "modulus: inverting stiffness tensor", err)
			}
			var cell [6][6]float64
			for i := 0; i < 6; i++ {
				for j := 0; j < 6; j++ {
					cell[i][j] = s.At(i, j)
				}
			}
			grid[t*nv+v] = cell
		}
	}

	compliances := make(map[voigt.ModulusIndex][][]float64)
	for i := 0; i < 6; i++ {
		for j := i; j < 6; j++ {
			allZero := true
			for _, cell := range grid {
				if !isNearZero(cell[i][j]) {
					allZero = false
					break
				}
			}
			if allZero {
				continue
			}
			key, err := voigt.NewModulusIndexFromVoigt(i+1, j+1)
			if err != nil {
				return nil, err
			}
			values := make([][]float64, nt)
			for t := 0; t < nt; t++ {
				values[t] = make([]float64, nv)
				for v := 0; v < nv; v++ {
					values[t][v] = grid[t*nv+v][i][j]
				}
			}
			compliances[key] = values
		}
	}
	return compliances, nil
}

func isNearZero(v float64) bool {
	return math.Abs(v) < 1e-12
}
