// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package units holds the exact scalar multipliers between the internal
// computation units (Rydberg, bohr, Kelvin, seconds, kilograms) and the
// externally facing ones (GPa, Angstrom, eV, cm^-1, km/s, g/cm^3). This
// replaces a runtime unit-object registry (`pint`-style unit objects) with
// exact multiply/divide constants, following the same "no runtime unit objects in
// the core" convention gosl itself uses for its physical constants.
package units

const (
	// RyToJoule is 1 Rydberg in Joules (CODATA).
	RyToJoule = 2.1798723611035e-18

	// RyPerBohr3ToGPa is 1 Ry/bohr^3 in GPa.
	RyPerBohr3ToGPa = 14710.513242194795

	// GPaToRyPerBohr3 is 1 GPa in Ry/bohr^3.
	GPaToRyPerBohr3 = 1.0 / RyPerBohr3ToGPa

	// Bohr3ToAngstrom3 is 1 bohr^3 in Angstrom^3 (bohr radius 0.52917721067 A).
	Bohr3ToAngstrom3 = 0.148184712061967

	// Angstrom3ToBohr3 is 1 Angstrom^3 in bohr^3.
	Angstrom3ToBohr3 = 1.0 / Bohr3ToAngstrom3

	// HBarCInRyCm is h*c expressed in Rydberg*cm, the factor that converts a
	// mode frequency given as a wavenumber (cm^-1) into an energy in Rydberg:
	// E[Ry] = HBarCInRyCm * omega[cm^-1].
	HBarCInRyCm = 9.112670505e-6

	// HOverKInCmK is h*c/k_B in cm*K (the "second radiation constant"), used
	// to form the dimensionless Q_qm(T,V) = HOverKInCmK * omega[cm^-1] / T[K].
	HOverKInCmK = 1.4387768775

	// KBInRyPerK is the Boltzmann constant in Ry/K.
	KBInRyPerK = 6.333630e-6

	// AvogadroNumber is Avogadro's constant, mol^-1.
	AvogadroNumber = 6.02214076e23

	// RyToKgKm2PerS2 converts an energy in Rydberg to kg*km^2/s^2, the unit
	// needed for velocity = sqrt(energy / mass) to come out in km/s.
	RyToKgKm2PerS2 = RyToJoule * 1e-6
)

// GramPerMolToKg converts a cell mass given in g/mol into kilograms per
// formula cell, dividing by Avogadro's number and converting g to kg.
func GramPerMolToKg(gramPerMol float64) float64 {
	return gramPerMol * 1e-3 / AvogadroNumber
}
