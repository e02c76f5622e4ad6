// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package output serializes the solver's derived fields into whitespace
// tables, keyed by a rules table of supported keywords (component J).
// Grounded on io/output/results_writer.py: the original loads its rules
// from a bundled writer_rules.yml data file not present in the retrieved
// reference material, so the table below is hand-authored from the
// properties CijVolumeBaseInterface/CijPressureBaseInterface expose in
// core/calculator.py.
package output

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/cpmech/gosl/io"

	"github.com/MineralsCloud/cij/serr"
	"github.com/MineralsCloud/cij/units"
	"github.com/MineralsCloud/cij/voigt"
)

// VarType distinguishes a single [N_T][N_V]-shaped field from a family of
// such fields keyed by ModulusIndex (c_ij / s_ij style output).
type VarType int

const (
	ValueVar VarType = iota
	IJValueVar
)

// Rule is one entry of the writer-rules table: which keyword(s) select it,
// how its default filename is built, which unit it is stored in
// internally, and which unit it is written out in.
type Rule struct {
	Keywords     []string
	FnamePattern string // may reference {base} and, for IJValueVar, {ij}
	Prop         string // Source.Field/IJField key
	UnitInternal string
	Unit         string
	VarType      VarType
}

// writerRules is the hand-authored equivalent of writer_rules.yml.
var writerRules = []Rule{
	{Keywords: []string{"modulus_adiabatic", "cij", "cij_s"}, FnamePattern: "c{ij}_{base}.dat", Prop: "ModulusAdiabatic", UnitInternal: "ry_per_bohr3", Unit: "gpa", VarType: IJValueVar},
	{Keywords: []string{"modulus_isothermal", "cij_t"}, FnamePattern: "c{ij}_{base}_isothermal.dat", Prop: "ModulusIsothermal", UnitInternal: "ry_per_bohr3", Unit: "gpa", VarType: IJValueVar},
	{Keywords: []string{"compliances", "sij"}, FnamePattern: "s{ij}_{base}.dat", Prop: "Compliances", UnitInternal: "bohr3_per_ry", Unit: "inverse_gpa", VarType: IJValueVar},

	{Keywords: []string{"bulk_modulus_voigt"}, FnamePattern: "k_voigt_{base}.dat", Prop: "BulkModulusVoigt", UnitInternal: "ry_per_bohr3", Unit: "gpa", VarType: ValueVar},
	{Keywords: []string{"bulk_modulus_reuss"}, FnamePattern: "k_reuss_{base}.dat", Prop: "BulkModulusReuss", UnitInternal: "ry_per_bohr3", Unit: "gpa", VarType: ValueVar},
	{Keywords: []string{"bulk_modulus_voigt_reuss_hill", "bulk_modulus"}, FnamePattern: "k_vrh_{base}.dat", Prop: "BulkModulusVRH", UnitInternal: "ry_per_bohr3", Unit: "gpa", VarType: ValueVar},

	{Keywords: []string{"shear_modulus_voigt"}, FnamePattern: "g_voigt_{base}.dat", Prop: "ShearModulusVoigt", UnitInternal: "ry_per_bohr3", Unit: "gpa", VarType: ValueVar},
	{Keywords: []string{"shear_modulus_reuss"}, FnamePattern: "g_reuss_{base}.dat", Prop: "ShearModulusReuss", UnitInternal: "ry_per_bohr3", Unit: "gpa", VarType: ValueVar},
	{Keywords: []string{"shear_modulus_voigt_reuss_hill", "shear_modulus"}, FnamePattern: "g_vrh_{base}.dat", Prop: "ShearModulusVRH", UnitInternal: "ry_per_bohr3", Unit: "gpa", VarType: ValueVar},

	{Keywords: []string{"primary_velocities", "vp"}, FnamePattern: "vp_{base}.dat", Prop: "PrimaryVelocities", UnitInternal: "km_per_s", Unit: "km_per_s", VarType: ValueVar},
	{Keywords: []string{"secondary_velocities", "vs"}, FnamePattern: "vs_{base}.dat", Prop: "SecondaryVelocities", UnitInternal: "km_per_s", Unit: "km_per_s", VarType: ValueVar},

	{Keywords: []string{"pressures"}, FnamePattern: "p_{base}.dat", Prop: "Pressures", UnitInternal: "ry_per_bohr3", Unit: "gpa", VarType: ValueVar},
	{Keywords: []string{"volumes"}, FnamePattern: "v_{base}.dat", Prop: "Volumes", UnitInternal: "bohr3", Unit: "angstrom3", VarType: ValueVar},
}

var ruleRegistry = func() map[string]Rule {
	m := make(map[string]Rule)
	for _, r := range writerRules {
		for _, kw := range r.Keywords {
			m[kw] = r
		}
	}
	return m
}()

// Lookup returns the writer rule registered for keyword.
func Lookup(keyword string) (Rule, bool) {
	r, ok := ruleRegistry[keyword]
	return r, ok
}

// Source is whatever result aggregate (volume-base or pressure-base) a
// rule's Prop resolves against: either a plain [N_T][N_axis] field or a
// ModulusIndex-keyed family of them, plus the axes to print as the table's
// row/column headers.
type Source interface {
	BaseName() string                                       // "tv" or "tp"
	TArray() []float64                                       // row headers
	XArray() []float64                                       // column headers (v_array or p_array)
	Field(prop string) ([][]float64, bool)                   // ValueVar lookup
	IJField(prop string) (map[voigt.ModulusIndex][][]float64, bool) // IJValueVar lookup
}

// Entry names one requested output, mirroring config.OutputEntry.
type Entry struct {
	Keyword string
	Fname   string
	Unit    string
}

// Write dispatches every requested entry against src, writing one table
// file per ValueVar entry and one per ModulusIndex component of an
// IJValueVar entry.
func Write(src Source, entries []Entry) error {
	for _, e := range entries {
		rule, ok := Lookup(e.Keyword)
		if !ok {
			return serr.New(serr.ConfigInvalid, "output: unknown keyword %q", e.Keyword)
		}
		unit := rule.Unit
		if e.Unit != "" {
			unit = e.Unit
		}
		factor, err := conversionFactor(rule.UnitInternal, unit)
		if err != nil {
			return err
		}

		switch rule.VarType {
		case ValueVar:
			field, ok := src.Field(rule.Prop)
			if !ok {
				return serr.New(serr.ConfigInvalid, "output: %q has no field for base %q", e.Keyword, src.BaseName())
			}
			fname := e.Fname
			if fname == "" {
				fname = strings.ReplaceAll(rule.FnamePattern, "{base}", src.BaseName())
			}
			io.Pf("writing output <%s>\n", fname)
			if err := writeTable(fname, src.TArray(), src.XArray(), field, factor); err != nil {
				return err
			}

		case IJValueVar:
			family, ok := src.IJField(rule.Prop)
			if !ok {
				return serr.New(serr.ConfigInvalid, "output: %q has no field for base %q", e.Keyword, src.BaseName())
			}
			for key, field := range family {
				v1, v2 := key.Voigt()
				fname := e.Fname
				if fname == "" {
					fname = strings.NewReplacer(
						"{base}", src.BaseName(),
						"{ij}", fmt.Sprintf("%d%d", v1, v2),
					).Replace(rule.FnamePattern)
				}
				io.Pf("writing output <%s>\n", fname)
				if err := writeTable(fname, src.TArray(), src.XArray(), field, factor); err != nil {
					return err
				}
			}

		default:
			return serr.New(serr.ConfigInvalid, "output: unknown var_type for %q", e.Keyword)
		}
	}
	return nil
}

// writeTable writes a whitespace-delimited table: the header row holds the
// x-axis (column) values, and each subsequent row starts with its y-axis
// (row) value, matching spec.md §6's "column header is the x-axis values;
// first column is the y-axis".
func writeTable(fname string, rows, cols []float64, values [][]float64, factor float64) error {
	f, err := os.Create(fname)
	if err != nil {
		return serr.New(serr.ConfigInvalid, "output: cannot create %q: %v", fname, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	fmt.Fprint(w, "#")
	for _, c := range cols {
		fmt.Fprintf(w, "\t%g", c)
	}
	fmt.Fprintln(w)

	for i, r := range rows {
		fmt.Fprintf(w, "%g", r)
		for j := range cols {
			fmt.Fprintf(w, "\t%g", values[i][j]*factor)
		}
		fmt.Fprintln(w)
	}
	return nil
}

// conversionFactor gives the scalar multiplier from unitInternal to unit.
// This replaces the original's pint-backed convert_unit with the plain
// scalar constants units.go defines; no runtime unit objects are involved.
func conversionFactor(unitInternal, unit string) (float64, error) {
	if unitInternal == unit {
		return 1, nil
	}
	switch unitInternal + "->" + unit {
	case "ry_per_bohr3->gpa":
		return units.RyPerBohr3ToGPa, nil
	case "gpa->ry_per_bohr3":
		return units.GPaToRyPerBohr3, nil
	case "bohr3_per_ry->inverse_gpa":
		return units.GPaToRyPerBohr3, nil
	case "bohr3->angstrom3":
		return units.Bohr3ToAngstrom3, nil
	case "angstrom3->bohr3":
		return units.Angstrom3ToBohr3, nil
	default:
		return 0, serr.New(serr.ConfigInvalid, "output: no known conversion from %q to %q", unitInternal, unit)
	}
}
