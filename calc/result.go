// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package calc

import (
	"github.com/MineralsCloud/cij/aggregate"
	"github.com/MineralsCloud/cij/qhaadapter"
	"github.com/MineralsCloud/cij/units"
	"github.com/MineralsCloud/cij/voigt"
)

// volumeBaseResult is the (T,V) view of a solved calculator, grounded on
// core/calculator.py's CijVolumeBaseInterface.
type volumeBaseResult struct {
	vArray, tArray []float64

	modulusAdiabatic, modulusIsothermal, compliances map[voigt.ModulusIndex][][]float64

	bulkVoigt, bulkReuss, bulkVRH    [][]float64
	shearVoigt, shearReuss, shearVRH [][]float64
	primaryVel, secondaryVel         [][]float64
	pressures                        [][]float64
}

func (r *volumeBaseResult) BaseName() string  { return "tv" }
func (r *volumeBaseResult) TArray() []float64 { return r.tArray }

// XArray reports the volume axis in angstrom^3, matching the _to_ang3
// conversion the original applies right before writing a (T,V) table (the
// internal bohr^3 grid never appears in output files).
func (r *volumeBaseResult) XArray() []float64 {
	out := make([]float64, len(r.vArray))
	for i, v := range r.vArray {
		out[i] = v * units.Bohr3ToAngstrom3
	}
	return out
}

func (r *volumeBaseResult) Field(prop string) ([][]float64, bool) {
	switch prop {
	case "BulkModulusVoigt":
		return r.bulkVoigt, true
	case "BulkModulusReuss":
		return r.bulkReuss, true
	case "BulkModulusVRH":
		return r.bulkVRH, true
	case "ShearModulusVoigt":
		return r.shearVoigt, true
	case "ShearModulusReuss":
		return r.shearReuss, true
	case "ShearModulusVRH":
		return r.shearVRH, true
	case "PrimaryVelocities":
		return r.primaryVel, true
	case "SecondaryVelocities":
		return r.secondaryVel, true
	case "Pressures":
		return r.pressures, true
	default:
		return nil, false
	}
}

func (r *volumeBaseResult) IJField(prop string) (map[voigt.ModulusIndex][][]float64, bool) {
	switch prop {
	case "ModulusAdiabatic":
		return r.modulusAdiabatic, true
	case "ModulusIsothermal":
		return r.modulusIsothermal, true
	case "Compliances":
		return r.compliances, true
	default:
		return nil, false
	}
}

// pressureBaseResult is the (T,P) view of a solved calculator, built by
// regridding every volume-base field against its own (T,V) pressure,
// matching how CijPressureBaseInterface.v2p regrids whatever the
// volume-base interface exposes rather than recomputing it from scratch.
type pressureBaseResult struct {
	pArray, tArray []float64
	volumes        [][]float64

	modulusAdiabatic, modulusIsothermal, compliances map[voigt.ModulusIndex][][]float64

	bulkVoigt, bulkReuss, bulkVRH    [][]float64
	shearVoigt, shearReuss, shearVRH [][]float64
	primaryVel, secondaryVel         [][]float64
}

func (r *pressureBaseResult) BaseName() string  { return "tp" }
func (r *pressureBaseResult) TArray() []float64 { return r.tArray }

// XArray reports the pressure axis in GPa, mirroring the volume-base
// XArray's _to_gpa conversion right before writing a (T,P) table.
func (r *pressureBaseResult) XArray() []float64 {
	out := make([]float64, len(r.pArray))
	for i, p := range r.pArray {
		out[i] = p * units.RyPerBohr3ToGPa
	}
	return out
}

func (r *pressureBaseResult) Field(prop string) ([][]float64, bool) {
	switch prop {
	case "BulkModulusVoigt":
		return r.bulkVoigt, true
	case "BulkModulusReuss":
		return r.bulkReuss, true
	case "BulkModulusVRH":
		return r.bulkVRH, true
	case "ShearModulusVoigt":
		return r.shearVoigt, true
	case "ShearModulusReuss":
		return r.shearReuss, true
	case "ShearModulusVRH":
		return r.shearVRH, true
	case "PrimaryVelocities":
		return r.primaryVel, true
	case "SecondaryVelocities":
		return r.secondaryVel, true
	case "Volumes":
		return r.volumes, true
	default:
		return nil, false
	}
}

func (r *pressureBaseResult) IJField(prop string) (map[voigt.ModulusIndex][][]float64, bool) {
	switch prop {
	case "ModulusAdiabatic":
		return r.modulusAdiabatic, true
	case "ModulusIsothermal":
		return r.modulusIsothermal, true
	case "Compliances":
		return r.compliances, true
	default:
		return nil, false
	}
}

// buildPressureBase regrids every field of vbr onto the engine's desired
// pressure grid.
func buildPressureBase(adapter *qhaadapter.Adapter, vbr *volumeBaseResult) (*pressureBaseResult, error) {
	pb := adapter.PressureBase()

	regridIJ := func(m map[voigt.ModulusIndex][][]float64) (map[voigt.ModulusIndex][][]float64, error) {
		out := make(map[voigt.ModulusIndex][][]float64, len(m))
		for key, field := range m {
			regridded, err := aggregate.Regrid(field, vbr.pressures, adapter.PArray())
			if err != nil {
				return nil, err
			}
			out[key] = regridded
		}
		return out, nil
	}

	modulusAdiabatic, err := regridIJ(vbr.modulusAdiabatic)
	if err != nil {
		return nil, err
	}
	modulusIsothermal, err := regridIJ(vbr.modulusIsothermal)
	if err != nil {
		return nil, err
	}
	compliances, err := regridIJ(vbr.compliances)
	if err != nil {
		return nil, err
	}

	regrid := func(field [][]float64) ([][]float64, error) {
		return aggregate.Regrid(field, vbr.pressures, adapter.PArray())
	}

	var result pressureBaseResult
	result.pArray = adapter.PArray()
	result.tArray = adapter.TArray()
	result.volumes = pb.Volumes
	result.modulusAdiabatic = modulusAdiabatic
	result.modulusIsothermal = modulusIsothermal
	result.compliances = compliances

	fields := []struct {
		src  [][]float64
		dest *[][]float64
	}{
		{vbr.bulkVoigt, &result.bulkVoigt},
		{vbr.bulkReuss, &result.bulkReuss},
		{vbr.bulkVRH, &result.bulkVRH},
		{vbr.shearVoigt, &result.shearVoigt},
		{vbr.shearReuss, &result.shearReuss},
		{vbr.shearVRH, &result.shearVRH},
		{vbr.primaryVel, &result.primaryVel},
		{vbr.secondaryVel, &result.secondaryVel},
	}
	for _, f := range fields {
		regridded, err := regrid(f.src)
		if err != nil {
			return nil, err
		}
		*f.dest = regridded
	}

	return &result, nil
}
