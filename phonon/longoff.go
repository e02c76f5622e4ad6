// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package phonon computes the phonon contribution to the thermal elastic
// moduli: the longitudinal/off-diagonal kernel (zero-point + thermal +
// isothermal-to-adiabatic correction) and the shear solver built on top of
// it. Grounded on core/phonon_contribution/{nonshear,shear}.py.
package phonon

import (
	"math"

	"github.com/MineralsCloud/cij/serr"
	"github.com/MineralsCloud/cij/units"
	"github.com/MineralsCloud/cij/voigt"
)

// ModeFields bundles the per-(volume, q-point, branch) fields modeinterp
// produces on the refined volume grid, shaped [N_TV][N_q][N_p].
type ModeFields struct {
	Freq  [][][]float64
	Gamma [][][]float64
	VdrDv [][][]float64
}

// Inputs bundles everything the longitudinal/off-diagonal kernel needs
// beyond the axial strain fractions themselves.
type Inputs struct {
	VArray   []float64 // [N_TV], bohr^3
	TArray   []float64 // [N_T], K
	QWeights []float64 // [N_q]
	Modes    ModeFields
	Na       float64 // formula units per cell

	// Off-diagonal only.
	StaticPressure []float64   // [N_TV], Ry/bohr^3
	PressureTV     [][]float64 // [N_T][N_TV], Ry/bohr^3

	// Isothermal-to-adiabatic correction.
	HeatCapacityTV [][]float64 // [N_T][N_TV]
}

// prefactors returns (p0, p1a, p1b, p2) for the given calc type and axial
// strain fractions ai, aj (each [N_TV]).
func prefactors(calcType voigt.CalcType, ai, aj []float64) (p0, p1a, p1b, p2 []float64) {
	n := len(ai)
	p0 = make([]float64, n)
	p1a = make([]float64, n)
	p1b = make([]float64, n)
	p2 = make([]float64, n)
	scale := 5.0
	if calcType == voigt.OffDiagonal {
		scale = 15.0
	}
	for i := 0; i < n; i++ {
		p0[i] = 1.0 / (scale * ai[i] * aj[i])
		p2[i] = p0[i]
		p1a[i] = 1.0 / (3.0 * ai[i])
		p1b[i] = 1.0 / (3.0 * aj[i])
	}
	return
}

// clearGammaAcoustic zeros the three acoustic branches at the first
// q-point (q==0, branch<3) of a [N_TV][N_q][N_p]-shaped array, in place on
// a private copy, matching clear_gamma_point in nonshear.py.
func clearGammaAcoustic(x [][][]float64) [][][]float64 {
	out := make([][][]float64, len(x))
	for v := range x {
		out[v] = make([][]float64, len(x[v]))
		for q := range x[v] {
			out[v][q] = append([]float64(nil), x[v][q]...)
			if q == 0 {
				for b := 0; b < 3 && b < len(out[v][q]); b++ {
					out[v][q][b] = 0
				}
			}
		}
	}
	return out
}

// averageOverModesV averages a [N_TV][N_q][N_p] array down to [N_TV]:
// arithmetic mean over branches, then q-weighted mean over q-points.
func averageOverModesV(x [][][]float64, qWeights []float64) []float64 {
	cleared := clearGammaAcoustic(x)
	out := make([]float64, len(cleared))
	wsum := sumFloat(qWeights)
	for v, perQ := range cleared {
		acc := 0.0
		for q, branches := range perQ {
			acc += qWeights[q] * meanFloat(branches)
		}
		out[v] = acc / wsum
	}
	return out
}

// averageOverModesTV averages a function of (T, V, q, p) down to [N_T][N_TV].
func averageOverModesTV(nt, nv, np int, qWeights []float64, f func(t, v, q, p int) float64) [][]float64 {
	nq := len(qWeights)
	wsum := sumFloat(qWeights)
	out := make([][]float64, nt)
	for t := 0; t < nt; t++ {
		out[t] = make([]float64, nv)
		for v := 0; v < nv; v++ {
			acc := 0.0
			for q := 0; q < nq; q++ {
				sum := 0.0
				for p := 0; p < np; p++ {
					val := f(t, v, q, p)
					if q == 0 && p < 3 {
						val = 0
					}
					sum += val
				}
				if np > 0 {
					acc += qWeights[q] * (sum / float64(np))
				}
			}
			out[t][v] = acc / wsum
		}
	}
	return out
}

func sumFloat(xs []float64) float64 {
	s := 0.0
	for _, x := range xs {
		s += x
	}
	return s
}

func meanFloat(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return sumFloat(xs) / float64(len(xs))
}

// qFactor returns Q = h_div_k * omega[v,q,p] / T[t] for one (t,v,q,p), or 0
// when T[t] is 0.
func qFactor(t, v, q, p int, freq [][][]float64, tArray []float64) float64 {
	if tArray[t] == 0 {
		return 0
	}
	return units.HOverKInCmK * freq[v][q][p] / tArray[t]
}

// LongitudinalOffDiagonal evaluates the 4.E kernel for either calc type,
// returning [N_T][N_TV] isothermal and adiabatic values.
func LongitudinalOffDiagonal(calcType voigt.CalcType, ai, aj []float64, in Inputs) (isothermal, adiabatic [][]float64, err error) {
	if calcType != voigt.Longitudinal && calcType != voigt.OffDiagonal {
		return nil, nil, serr.New(serr.ConfigInvalid, "phonon: LongitudinalOffDiagonal called with calc type %v", calcType)
	}
	nv := len(in.VArray)
	nt := len(in.TArray)
	nq := len(in.QWeights)
	np := 0
	if nv > 0 && nq > 0 {
		np = len(in.Modes.Freq[0][0])
	}

	p0, p1a, p1b, p2 := prefactors(calcType, ai, aj)

	// G0, G1a, G1b, G2, shaped [N_TV][N_q][N_p].
	g0 := scaleBy(in.Modes.VdrDv, p0)
	g1a := scaleBy(in.Modes.Gamma, p1a)
	g1b := scaleBy(in.Modes.Gamma, p1b)
	g2 := scaleSquaredBy(in.Modes.Gamma, p2)

	// zero-point contribution, [N_TV]
	zpmArg := make([][][]float64, nv)
	for v := 0; v < nv; v++ {
		zpmArg[v] = make([][]float64, nq)
		for q := 0; q < nq; q++ {
			zpmArg[v][q] = make([]float64, np)
			for p := 0; p < np; p++ {
				w := in.Modes.Freq[v][q][p]
				val := g2[v][q][p]*w - g0[v][q][p]*w
				if calcType == voigt.Longitudinal {
					val += g1a[v][q][p] * w
				}
				zpmArg[v][q][p] = val
			}
		}
	}
	zpmAvg := averageOverModesV(zpmArg, in.QWeights)
	zpm := make([]float64, nv)
	for v := 0; v < nv; v++ {
		zpm[v] = units.HBarCInRyCm / (2 * in.VArray[v]) * 3 * in.Na * zpmAvg[v]
	}

	// thermal contribution, [N_T][N_TV]
	thermalArg := func(t, v, q, p int) float64 {
		qq := qFactor(t, v, q, p, in.Modes.Freq, in.TArray)
		var q1, q2 float64
		if qq != 0 {
			expQ := math.Exp(qq)
			q1 = qq / (expQ - 1)
			q2 = qq * qq * expQ / ((expQ - 1) * (expQ - 1))
		}
		inner := -q2*g2[v][q][p] + q1*(g2[v][q][p]-g0[v][q][p])
		if calcType == voigt.Longitudinal {
			inner += q1 * g1a[v][q][p]
		}
		return inner
	}
	thermalAvg := averageOverModesTV(nt, nv, np, in.QWeights, thermalArg)
	thermal := make([][]float64, nt)
	for t := 0; t < nt; t++ {
		thermal[t] = make([]float64, nv)
		if in.TArray[t] == 0 {
			continue
		}
		for v := 0; v < nv; v++ {
			thermal[t][v] = units.KBInRyPerK * in.TArray[t] / in.VArray[v] * 3 * in.Na * thermalAvg[t][v]
		}
	}

	isothermal = make([][]float64, nt)
	for t := 0; t < nt; t++ {
		isothermal[t] = make([]float64, nv)
		for v := 0; v < nv; v++ {
			val := zpm[v] + thermal[t][v]
			if calcType == voigt.OffDiagonal {
				val += in.PressureTV[t][v] - in.StaticPressure[v]
			}
			isothermal[t][v] = val
		}
	}

	// isothermal -> adiabatic correction
	q2g1a := averageOverModesTV(nt, nv, np, in.QWeights, func(t, v, q, p int) float64 {
		qq := qFactor(t, v, q, p, in.Modes.Freq, in.TArray)
		if qq == 0 {
			return 0
		}
		expQ := math.Exp(qq)
		q2 := qq * qq * expQ / ((expQ - 1) * (expQ - 1))
		return q2 * g1a[v][q][p]
	})
	q2g1b := averageOverModesTV(nt, nv, np, in.QWeights, func(t, v, q, p int) float64 {
		qq := qFactor(t, v, q, p, in.Modes.Freq, in.TArray)
		if qq == 0 {
			return 0
		}
		expQ := math.Exp(qq)
		q2 := qq * qq * expQ / ((expQ - 1) * (expQ - 1))
		return q2 * g1b[v][q][p]
	})

	prefactor := 3 * units.KBInRyPerK * in.Na
	adiabatic = make([][]float64, nt)
	for t := 0; t < nt; t++ {
		adiabatic[t] = make([]float64, nv)
		copy(adiabatic[t], isothermal[t])
		if in.TArray[t] == 0 {
			continue
		}
		for v := 0; v < nv; v++ {
			if in.HeatCapacityTV[t][v] == 0 {
				continue
			}
			delta := in.TArray[t] / (in.VArray[v] * in.HeatCapacityTV[t][v]) *
				q2g1a[t][v] * q2g1b[t][v] * prefactor * prefactor
			adiabatic[t][v] += delta
		}
	}

	return isothermal, adiabatic, nil
}

func scaleBy(x [][][]float64, p []float64) [][][]float64 {
	out := make([][][]float64, len(x))
	for v := range x {
		out[v] = make([][]float64, len(x[v]))
		for q := range x[v] {
			out[v][q] = make([]float64, len(x[v][q]))
			for b := range x[v][q] {
				out[v][q][b] = p[v] * x[v][q][b]
			}
		}
	}
	return out
}

func scaleSquaredBy(x [][][]float64, p []float64) [][][]float64 {
	out := make([][][]float64, len(x))
	for v := range x {
		out[v] = make([][]float64, len(x[v]))
		for q := range x[v] {
			out[v][q] = make([]float64, len(x[v][q]))
			for b := range x[v][q] {
				out[v][q][b] = p[v] * x[v][q][b] * x[v][q][b]
			}
		}
	}
	return out
}
