// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package qhaadapter is a thin facade over an external quasi-harmonic
// free-energy engine: the engine owns the refined volume grid, the
// temperature grid, and the volume-base/pressure-base thermodynamic fields
// (pressures, heat capacity, bulk modulus, thermal expansivity); this
// package only validates its reported pressure range against what the user
// asked for and exposes typed accessors. Grounded on core/qha_adapter.py;
// the engine itself (qha.calculator in the original) is an out-of-scope
// external collaborator per spec.md §1.
package qhaadapter

import (
	"github.com/cpmech/gosl/io"

	"github.com/MineralsCloud/cij/serr"
	"github.com/MineralsCloud/cij/tradio"
	"github.com/MineralsCloud/cij/units"
)

// Engine is implemented by whatever quasi-harmonic free-energy calculator
// backs the solver. All V-by-T matrices are laid out [N_T][N_TV] (volume
// base) or [N_T][N_P] (pressure base), matching the convention the phonon
// and modulus packages expect.
type Engine interface {
	VArray() []float64 // refined volume grid, bohr^3
	TArray() []float64 // temperature grid, K
	PArray() []float64 // desired pressure grid, Ry/bohr^3

	PressuresTV() [][]float64
	HeatCapacityTV() [][]float64
	BulkModulusTV() [][]float64
	BulkModulusIsothermalTV() [][]float64
	ThermalExpansivityTV() [][]float64
	HelmholtzTV() [][]float64
	GibbsTV() [][]float64
	EnthalpyTV() [][]float64

	VolumesTP() [][]float64
	BulkModulusTP() [][]float64
	BulkModulusIsothermalTP() [][]float64
	ThermalExpansivityTP() [][]float64
	HelmholtzTP() [][]float64
	GibbsTP() [][]float64
	EnthalpyTP() [][]float64
	HeatCapacityTP() [][]float64
}

// Adapter validates and exposes an Engine's results.
type Adapter struct {
	engine Engine
}

// New wraps an Engine. Call Validate before relying on pressure-base results.
func New(engine Engine) *Adapter {
	return &Adapter{engine: engine}
}

// VArray returns the refined volume grid (bohr^3).
func (a *Adapter) VArray() []float64 { return a.engine.VArray() }

// TArray returns the temperature grid (K).
func (a *Adapter) TArray() []float64 { return a.engine.TArray() }

// PArray returns the desired pressure grid (Ry/bohr^3).
func (a *Adapter) PArray() []float64 { return a.engine.PArray() }

// NTV is the size of the refined volume grid.
func (a *Adapter) NTV() int { return len(a.engine.VArray()) }

// VolumeBase exposes the [N_T][N_TV] thermodynamic fields.
type VolumeBase struct {
	Pressures             [][]float64
	HeatCapacity          [][]float64
	BulkModulus           [][]float64
	BulkModulusIsothermal [][]float64
	ThermalExpansivity    [][]float64
	HelmholtzFreeEnergies [][]float64
	GibbsFreeEnergies     [][]float64
	Enthalpies            [][]float64
}

// VolumeBase returns the volume-base thermodynamic fields.
func (a *Adapter) VolumeBase() VolumeBase {
	return VolumeBase{
		Pressures:             a.engine.PressuresTV(),
		HeatCapacity:          a.engine.HeatCapacityTV(),
		BulkModulus:           a.engine.BulkModulusTV(),
		BulkModulusIsothermal: a.engine.BulkModulusIsothermalTV(),
		ThermalExpansivity:    a.engine.ThermalExpansivityTV(),
		HelmholtzFreeEnergies: a.engine.HelmholtzTV(),
		GibbsFreeEnergies:     a.engine.GibbsTV(),
		Enthalpies:            a.engine.EnthalpyTV(),
	}
}

// PressureBase exposes the [N_T][N_P] thermodynamic fields.
type PressureBase struct {
	Volumes               [][]float64
	HeatCapacity          [][]float64
	BulkModulus           [][]float64
	BulkModulusIsothermal [][]float64
	ThermalExpansivity    [][]float64
	HelmholtzFreeEnergies [][]float64
	GibbsFreeEnergies     [][]float64
	Enthalpies            [][]float64
}

// PressureBase returns the pressure-base thermodynamic fields.
func (a *Adapter) PressureBase() PressureBase {
	return PressureBase{
		Volumes:               a.engine.VolumesTP(),
		HeatCapacity:          a.engine.HeatCapacityTP(),
		BulkModulus:           a.engine.BulkModulusTP(),
		BulkModulusIsothermal: a.engine.BulkModulusIsothermalTP(),
		ThermalExpansivity:    a.engine.ThermalExpansivityTP(),
		HelmholtzFreeEnergies: a.engine.HelmholtzTP(),
		GibbsFreeEnergies:     a.engine.GibbsTP(),
		Enthalpies:            a.engine.EnthalpyTP(),
	}
}

// Validate checks the engine's reported p(T,V) range against the desired
// pressure grid. If the top of the desired range exceeds what the engine
// can resolve at the smallest computed volume, it fails with
// PressureRangeTooHigh and reports the largest N_P that would be safe,
// using deltaP (the configured pressure step) the way desired_pressure_status
// in qha_adapter.py does.
func (a *Adapter) Validate(deltaP float64) error {
	pTV := a.engine.PressuresTV()
	desired := a.engine.PArray()
	if len(pTV) == 0 || len(pTV[0]) == 0 || len(desired) == 0 {
		return serr.New(serr.ConfigInvalid, "qhaadapter: empty pressure grid")
	}

	// min over T of p(T, V_min) and max over T of p(T, V_max), the
	// p_tv_gpa[:, -1].min() / [:, 0].max() bounds of the original, whose
	// columns run by decreasing volume; VArray here runs by increasing
	// volume, so V_min is the first column and V_max the last.
	lastColMin := pTV[0][0]
	firstColMax := pTV[0][len(pTV[0])-1]
	for _, row := range pTV {
		if v := row[0]; v < lastColMin {
			lastColMin = v
		}
		if v := row[len(row)-1]; v > firstColMax {
			firstColMax = v
		}
	}

	lastColMinGPa := lastColMin * units.RyPerBohr3ToGPa
	firstColMaxGPa := firstColMax * units.RyPerBohr3ToGPa

	desiredMax, desiredMin := desired[0], desired[0]
	for _, p := range desired {
		if p > desiredMax {
			desiredMax = p
		}
		if p < desiredMin {
			desiredMin = p
		}
	}
	desiredMaxGPa := desiredMax * units.RyPerBohr3ToGPa
	desiredMinGPa := desiredMin * units.RyPerBohr3ToGPa

	io.Pf("the pressure range the engine can resolve: [%6.2f to %6.2f] GPa\n", firstColMaxGPa, lastColMinGPa)

	if lastColMinGPa < desiredMaxGPa {
		ntvMax := 0
		if deltaP > 0 {
			ntvMax = int((lastColMinGPa - desiredMinGPa) / deltaP)
		}
		io.Pfred("desired pressure is too high (N_P is too large); try N_P < %d\n", ntvMax)
		return serr.New(serr.PressureRangeTooHigh,
			"desired pressure %.3f GPa exceeds the engine's resolvable range (max safe N_P ~ %d)", desiredMaxGPa, ntvMax)
	}

	return nil
}

// ScanNegativeFrequencies clamps every negative phonon mode frequency in
// input to zero in place, and returns a human-readable note for each
// location clamped, matching the "clamped to 0 and noted" warning in
// qha_adapter.py's read_input step.
func ScanNegativeFrequencies(input *tradio.PhononInput) []string {
	var warnings []string
	for vi := range input.Volumes {
		for qi := range input.Volumes[vi].QPoints {
			modes := input.Volumes[vi].QPoints[qi].Modes
			for bi, w := range modes {
				if w < 0 {
					modes[bi] = 0
					warnings = append(warnings, io.Sf(
						"negative frequency found in volume %d, q-point %d, branch %d; clamped to 0",
						vi+1, qi+1, bi+1))
				}
			}
		}
	}
	return warnings
}
