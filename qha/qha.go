// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package qha is a minimal, self-contained stand-in for the quasi-harmonic
// free-energy engine spec.md §1 names as an out-of-scope external
// collaborator (the Python project this was distilled from depends on the
// separate `qha` PyPI package for this). It exists only so that calc.New
// has something concrete to drive end-to-end: it computes the Helmholtz
// free energy F(T,V) from the same static-energy-plus-phonon-sum model the
// phonon kernel already uses (zero-point + thermal, Bose-Einstein
// occupation), with the static energy taken from a polynomial fit and the
// mode frequencies linearly interpolated in volume, evaluates it on a
// refined volume grid, derives pressure, bulk modulus, and thermal
// expansivity from finite differences over that grid, and sums heat
// capacity from the closed-form per-mode expression. It is deliberately simple; the hard-core numerics this repo actually
// implements are the five items in spec.md §1, not this adapter.
package qha

import (
	"math"
	"sort"

	"github.com/MineralsCloud/cij/qhaadapter"
	"github.com/MineralsCloud/cij/serr"
	"github.com/MineralsCloud/cij/tradio"
	"github.com/MineralsCloud/cij/units"
)

// Settings controls the refined (T,V) and (T,P) grids this engine builds.
type Settings struct {
	NTV          int     // size of the refined volume grid
	VolumeRatio  float64 // expansion factor around the input volume range, e.g. 0.02
	NT           int     // size of the temperature grid, including T=0
	TMin, TMax   float64 // K
	NP           int     // size of the desired pressure grid
	PMinGPa      float64
	PMaxGPa      float64
}

func (s Settings) withDefaults() Settings {
	if s.NTV <= 0 {
		s.NTV = 21
	}
	if s.VolumeRatio <= 0 {
		s.VolumeRatio = 0.02
	}
	if s.NT <= 0 {
		s.NT = 11
	}
	if s.TMax <= s.TMin {
		s.TMax = 1000
	}
	if s.NP <= 0 {
		s.NP = 11
	}
	return s
}

// Engine implements qhaadapter.Engine over the closed-form model described
// in the package comment.
type Engine struct {
	settings Settings

	vArray []float64 // bohr^3
	tArray []float64 // K
	pArray []float64 // Ry/bohr^3

	fTV [][]float64 // Helmholtz free energy, Ry
	pTV [][]float64 // Ry/bohr^3

	volumesInput []float64
	energyInput  []float64
	modesFreq    [][][]float64 // [volume][q][branch], cm^-1, at input volumes
	qWeights     []float64
	na           float64
}

// New builds an Engine from the parsed phonon/energy input file.
func New(input *tradio.PhononInput, settings Settings) (*Engine, error) {
	if input.NV < 2 {
		return nil, serr.New(serr.InputMalformed, "qha: need at least 2 input volumes, got %d", input.NV)
	}
	settings = settings.withDefaults()

	e := &Engine{settings: settings, na: float64(input.NM)}
	for _, vol := range input.Volumes {
		e.volumesInput = append(e.volumesInput, vol.Volume)
		e.energyInput = append(e.energyInput, vol.Energy)
		var branches [][]float64
		for _, qp := range vol.QPoints {
			branches = append(branches, qp.Modes)
		}
		e.modesFreq = append(e.modesFreq, branches)
	}
	for _, w := range input.Weights {
		e.qWeights = append(e.qWeights, w.Weight)
	}

	e.buildVArray()
	e.buildTArray()
	e.buildPArray()
	e.computeFreeEnergy()
	e.computePressure()

	return e, nil
}

func (e *Engine) buildVArray() {
	vmin, vmax := minMax(e.volumesInput)
	span := vmax - vmin
	lo := vmin - span*e.settings.VolumeRatio
	hi := vmax + span*e.settings.VolumeRatio
	e.vArray = linspace(lo, hi, e.settings.NTV)
}

func (e *Engine) buildTArray() {
	e.tArray = linspace(e.settings.TMin, e.settings.TMax, e.settings.NT)
	e.tArray[0] = 0 // the T=0 row is treated specially throughout the solver
}

func (e *Engine) buildPArray() {
	lo := e.settings.PMinGPa * units.GPaToRyPerBohr3
	hi := e.settings.PMaxGPa * units.GPaToRyPerBohr3
	if hi <= lo {
		hi = lo + 1*units.GPaToRyPerBohr3
	}
	e.pArray = linspace(lo, hi, e.settings.NP)
}

// staticEnergy returns the polynomial-fitted static energy E(V) on vArray.
func (e *Engine) staticEnergy() []float64 {
	coeffs := polyfit(e.volumesInput, e.energyInput, 3)
	out := make([]float64, len(e.vArray))
	for i, v := range e.vArray {
		out[i] = polyeval(coeffs, v)
	}
	return out
}

// modeAt linearly interpolates the (q,branch) frequency at volume v from
// the input-volume samples (extrapolating linearly outside them); callers
// skip the Gamma-acoustic branches.
func (e *Engine) modeAt(v float64, q, branch int) float64 {
	xs := e.volumesInput
	n := len(xs)
	idx := sort.SearchFloat64s(sortedCopy(xs), v)
	if idx <= 0 {
		idx = 1
	}
	if idx >= n {
		idx = n - 1
	}
	order := argsort(xs)
	i0, i1 := order[idx-1], order[idx]
	y0 := e.modesFreq[i0][q][branch]
	y1 := e.modesFreq[i1][q][branch]
	x0, x1 := xs[i0], xs[i1]
	if x1 == x0 {
		return y0
	}
	t := (v - x0) / (x1 - x0)
	return y0 + t*(y1-y0)
}

// vibrationalFreeEnergy returns 3*Na*avg(F_mode(T,V)) for one (T,V) point.
func (e *Engine) vibrationalFreeEnergy(t, v float64) float64 {
	nq := len(e.modesFreq[0])
	wsum := 0.0
	acc := 0.0
	for q := 0; q < nq; q++ {
		np := len(e.modesFreq[0][q])
		sum := 0.0
		count := 0
		for b := 0; b < np; b++ {
			if q == 0 && b < 3 {
				continue
			}
			w := e.modeAt(v, q, b)
			sum += modeFreeEnergy(w, t)
			count++
		}
		if count == 0 {
			continue
		}
		wq := 1.0
		if q < len(e.qWeights) {
			wq = e.qWeights[q]
		}
		acc += wq * sum / float64(count)
		wsum += wq
	}
	if wsum == 0 {
		return 0
	}
	return 3 * e.na * acc / wsum
}

// modeFreeEnergy returns the harmonic-oscillator free energy of one mode at
// temperature t (K), given its frequency in cm^-1.
func modeFreeEnergy(omegaCm float64, t float64) float64 {
	ezp := 0.5 * units.HBarCInRyCm * omegaCm
	if t <= 0 {
		return ezp
	}
	x := units.HOverKInCmK * omegaCm / t
	return ezp + units.KBInRyPerK*t*math.Log(1-math.Exp(-x))
}

// modeHeatCapacity returns k_B*x^2*e^x/(e^x-1)^2 for one mode, the
// per-mode contribution to C_V.
func modeHeatCapacity(omegaCm float64, t float64) float64 {
	if t <= 0 || omegaCm <= 0 {
		return 0
	}
	x := units.HOverKInCmK * omegaCm / t
	ex := math.Exp(x)
	return units.KBInRyPerK * x * x * ex / ((ex - 1) * (ex - 1))
}

func (e *Engine) computeFreeEnergy() {
	eStatic := e.staticEnergy()
	e.fTV = make([][]float64, len(e.tArray))
	for ti, t := range e.tArray {
		e.fTV[ti] = make([]float64, len(e.vArray))
		for vi, v := range e.vArray {
			e.fTV[ti][vi] = eStatic[vi] + e.vibrationalFreeEnergy(t, v)
		}
	}
}

func (e *Engine) computePressure() {
	e.pTV = make([][]float64, len(e.tArray))
	for ti := range e.tArray {
		e.pTV[ti] = negGradient(e.fTV[ti], e.vArray)
	}
}

func (e *Engine) heatCapacity() [][]float64 {
	out := make([][]float64, len(e.tArray))
	for ti, t := range e.tArray {
		out[ti] = make([]float64, len(e.vArray))
		if t == 0 {
			continue
		}
		for vi, v := range e.vArray {
			nq := len(e.modesFreq[0])
			wsum, acc := 0.0, 0.0
			for q := 0; q < nq; q++ {
				np := len(e.modesFreq[0][q])
				sum := 0.0
				count := 0
				for b := 0; b < np; b++ {
					if q == 0 && b < 3 {
						continue
					}
					sum += modeHeatCapacity(e.modeAt(v, q, b), t)
					count++
				}
				if count == 0 {
					continue
				}
				wq := 1.0
				if q < len(e.qWeights) {
					wq = e.qWeights[q]
				}
				acc += wq * sum / float64(count)
				wsum += wq
			}
			if wsum > 0 {
				out[ti][vi] = 3 * e.na * acc / wsum
			}
		}
	}
	return out
}

// bulkModulus returns B_T(T,V) = -V * dp/dV, used for both the isothermal
// and (as an approximation) the adiabatic bulk modulus fields this minimal
// engine exposes.
func (e *Engine) bulkModulus() [][]float64 {
	out := make([][]float64, len(e.tArray))
	for ti := range e.tArray {
		dpdV := gradient(e.pTV[ti], e.vArray)
		out[ti] = make([]float64, len(e.vArray))
		for vi, v := range e.vArray {
			out[ti][vi] = -v * dpdV[vi]
		}
	}
	return out
}

// thermalExpansivity returns alpha(T,V) = -(1/V)*(dp/dT)/(dp/dV), the
// standard thermodynamic identity relating the two partials of p(T,V).
func (e *Engine) thermalExpansivity() [][]float64 {
	nt, nv := len(e.tArray), len(e.vArray)
	out := make([][]float64, nt)
	dpdVRows := make([][]float64, nt)
	for ti := range e.tArray {
		dpdVRows[ti] = gradient(e.pTV[ti], e.vArray)
	}
	for ti := range e.tArray {
		out[ti] = make([]float64, nv)
		for vi := 0; vi < nv; vi++ {
			var dpdT float64
			switch {
			case ti == 0:
				dpdT = (e.pTV[ti+1][vi] - e.pTV[ti][vi]) / (e.tArray[ti+1] - e.tArray[ti])
			case ti == nt-1:
				dpdT = (e.pTV[ti][vi] - e.pTV[ti-1][vi]) / (e.tArray[ti] - e.tArray[ti-1])
			default:
				dpdT = (e.pTV[ti+1][vi] - e.pTV[ti-1][vi]) / (e.tArray[ti+1] - e.tArray[ti-1])
			}
			if dpdVRows[ti][vi] == 0 {
				continue
			}
			out[ti][vi] = -dpdT / (e.vArray[vi] * dpdVRows[ti][vi])
		}
	}
	return out
}

func (e *Engine) entropy() [][]float64 {
	nt := len(e.tArray)
	out := make([][]float64, nt)
	for ti := range e.tArray {
		out[ti] = make([]float64, len(e.vArray))
		switch {
		case ti == 0:
			for vi := range e.vArray {
				out[ti][vi] = -(e.fTV[ti+1][vi] - e.fTV[ti][vi]) / (e.tArray[ti+1] - e.tArray[ti])
			}
		case ti == nt-1:
			for vi := range e.vArray {
				out[ti][vi] = -(e.fTV[ti][vi] - e.fTV[ti-1][vi]) / (e.tArray[ti] - e.tArray[ti-1])
			}
		default:
			for vi := range e.vArray {
				out[ti][vi] = -(e.fTV[ti+1][vi] - e.fTV[ti-1][vi]) / (e.tArray[ti+1] - e.tArray[ti-1])
			}
		}
	}
	return out
}

func (e *Engine) enthalpy() [][]float64 {
	nt, nv := len(e.tArray), len(e.vArray)
	s := e.entropy()
	out := make([][]float64, nt)
	for ti, t := range e.tArray {
		out[ti] = make([]float64, nv)
		for vi, v := range e.vArray {
			out[ti][vi] = e.fTV[ti][vi] + t*s[ti][vi] + e.pTV[ti][vi]*v
		}
	}
	return out
}

func (e *Engine) gibbs() [][]float64 {
	nt, nv := len(e.tArray), len(e.vArray)
	out := make([][]float64, nt)
	for ti := range e.tArray {
		out[ti] = make([]float64, nv)
		for vi, v := range e.vArray {
			out[ti][vi] = e.fTV[ti][vi] + e.pTV[ti][vi]*v
		}
	}
	return out
}

// --- qhaadapter.Engine implementation ---

func (e *Engine) VArray() []float64 { return e.vArray }
func (e *Engine) TArray() []float64 { return e.tArray }
func (e *Engine) PArray() []float64 { return e.pArray }

func (e *Engine) PressuresTV() [][]float64             { return e.pTV }
func (e *Engine) HeatCapacityTV() [][]float64           { return e.heatCapacity() }
func (e *Engine) BulkModulusTV() [][]float64            { return e.bulkModulus() }
func (e *Engine) BulkModulusIsothermalTV() [][]float64  { return e.bulkModulus() }
func (e *Engine) ThermalExpansivityTV() [][]float64     { return e.thermalExpansivity() }
func (e *Engine) HelmholtzTV() [][]float64               { return e.fTV }
func (e *Engine) GibbsTV() [][]float64                   { return e.gibbs() }
func (e *Engine) EnthalpyTV() [][]float64                { return e.enthalpy() }

func (e *Engine) regridTV(field [][]float64) [][]float64 {
	out := make([][]float64, len(e.tArray))
	for ti := range e.tArray {
		out[ti] = interp1D(e.pTV[ti], field[ti], e.pArray)
	}
	return out
}

func (e *Engine) VolumesTP() [][]float64 {
	out := make([][]float64, len(e.tArray))
	for ti := range e.tArray {
		out[ti] = interp1D(e.pTV[ti], e.vArray, e.pArray)
	}
	return out
}
func (e *Engine) BulkModulusTP() [][]float64            { return e.regridTV(e.bulkModulus()) }
func (e *Engine) BulkModulusIsothermalTP() [][]float64  { return e.regridTV(e.bulkModulus()) }
func (e *Engine) ThermalExpansivityTP() [][]float64     { return e.regridTV(e.thermalExpansivity()) }
func (e *Engine) HelmholtzTP() [][]float64               { return e.regridTV(e.fTV) }
func (e *Engine) GibbsTP() [][]float64                   { return e.regridTV(e.gibbs()) }
func (e *Engine) EnthalpyTP() [][]float64                { return e.regridTV(e.enthalpy()) }
func (e *Engine) HeatCapacityTP() [][]float64             { return e.regridTV(e.heatCapacity()) }

var _ qhaadapter.Engine = (*Engine)(nil)

// --- small numeric helpers local to this package ---

func minMax(xs []float64) (lo, hi float64) {
	lo, hi = xs[0], xs[0]
	for _, x := range xs {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	return
}

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = lo
		return out
	}
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	return out
}

func sortedCopy(xs []float64) []float64 {
	out := append([]float64(nil), xs...)
	sort.Float64s(out)
	return out
}

func argsort(xs []float64) []int {
	idx := make([]int, len(xs))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return xs[idx[a]] < xs[idx[b]] })
	return idx
}

func gradient(y, x []float64) []float64 {
	n := len(y)
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case n == 1:
			out[i] = 0
		case i == 0:
			out[i] = (y[1] - y[0]) / (x[1] - x[0])
		case i == n-1:
			out[i] = (y[n-1] - y[n-2]) / (x[n-1] - x[n-2])
		default:
			out[i] = (y[i+1] - y[i-1]) / (x[i+1] - x[i-1])
		}
	}
	return out
}

func negGradient(y, x []float64) []float64 {
	g := gradient(y, x)
	out := make([]float64, len(g))
	for i, v := range g {
		out[i] = -v
	}
	return out
}

// interp1D linearly interpolates (xs,ys) — resorted ascending by xs — at
// each point in targets, clamping to the end values outside the domain.
func interp1D(xs, ys, targets []float64) []float64 {
	order := argsort(xs)
	sx := make([]float64, len(xs))
	sy := make([]float64, len(xs))
	for i, j := range order {
		sx[i] = xs[j]
		sy[i] = ys[j]
	}
	out := make([]float64, len(targets))
	for i, t := range targets {
		if t <= sx[0] {
			out[i] = sy[0]
			continue
		}
		if t >= sx[len(sx)-1] {
			out[i] = sy[len(sy)-1]
			continue
		}
		idx := sort.SearchFloat64s(sx, t)
		x0, x1 := sx[idx-1], sx[idx]
		y0, y1 := sy[idx-1], sy[idx]
		frac := (t - x0) / (x1 - x0)
		out[i] = y0 + frac*(y1-y0)
	}
	return out
}

// polyfit/polyeval mirror llsq's Vandermonde LLS fit without importing the
// llsq package here, to keep this stand-in engine free of a dependency on
// the solver's own numerics.
func polyfit(x, y []float64, order int) []float64 {
	n := len(x)
	if order >= n {
		order = n - 1
	}
	// normal equations A^T A c = A^T y, small enough (order<=3) to solve
	// directly without pulling in gonum here.
	cols := order + 1
	ata := make([][]float64, cols)
	aty := make([]float64, cols)
	for i := range ata {
		ata[i] = make([]float64, cols)
	}
	rows := make([][]float64, n)
	for i, xi := range x {
		row := make([]float64, cols)
		p := 1.0
		for c := 0; c < cols; c++ {
			row[c] = p
			p *= xi
		}
		rows[i] = row
	}
	for i := 0; i < cols; i++ {
		for j := 0; j < cols; j++ {
			s := 0.0
			for k := 0; k < n; k++ {
				s += rows[k][i] * rows[k][j]
			}
			ata[i][j] = s
		}
		s := 0.0
		for k := 0; k < n; k++ {
			s += rows[k][i] * y[k]
		}
		aty[i] = s
	}
	return gaussSolve(ata, aty)
}

func gaussSolve(a [][]float64, b []float64) []float64 {
	n := len(b)
	m := make([][]float64, n)
	for i := range m {
		m[i] = append([]float64(nil), a[i]...)
	}
	rhs := append([]float64(nil), b...)
	for col := 0; col < n; col++ {
		piv := col
		for r := col + 1; r < n; r++ {
			if math.Abs(m[r][col]) > math.Abs(m[piv][col]) {
				piv = r
			}
		}
		m[col], m[piv] = m[piv], m[col]
		rhs[col], rhs[piv] = rhs[piv], rhs[col]
		if m[col][col] == 0 {
			continue
		}
		for r := col + 1; r < n; r++ {
			f := m[r][col] / m[col][col]
			for c := col; c < n; c++ {
				m[r][c] -= f * m[col][c]
			}
			rhs[r] -= f * rhs[col]
		}
	}
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		s := rhs[i]
		for j := i + 1; j < n; j++ {
			s -= m[i][j] * x[j]
		}
		if m[i][i] != 0 {
			x[i] = s / m[i][i]
		}
	}
	return x
}

func polyeval(coeffs []float64, x float64) float64 {
	v, p := 0.0, 1.0
	for _, c := range coeffs {
		v += c * p
		p *= x
	}
	return v
}
