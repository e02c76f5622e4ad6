// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package calc wires every other package into the single Calculator
// aggregate spec.md §3 describes: read the config and the two input files,
// fill the static elastic tensor under a crystal symmetry, interpolate
// phonon modes, run the phonon-contribution task graph, assemble the full
// thermal elastic modulus and its compliances, average them into VRH
// bulk/shear moduli and acoustic velocities, and expose both the (T,V) and
// (T,P) views of every field. Grounded on core/calculator.py's Calculator,
// CijVolumeBaseInterface, and CijPressureBaseInterface.
package calc

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/cpmech/gosl/io"

	"github.com/MineralsCloud/cij/aggregate"
	"github.com/MineralsCloud/cij/config"
	"github.com/MineralsCloud/cij/modeinterp"
	"github.com/MineralsCloud/cij/modulus"
	"github.com/MineralsCloud/cij/output"
	"github.com/MineralsCloud/cij/phonon"
	"github.com/MineralsCloud/cij/qha"
	"github.com/MineralsCloud/cij/qhaadapter"
	"github.com/MineralsCloud/cij/serr"
	"github.com/MineralsCloud/cij/symfill"
	"github.com/MineralsCloud/cij/taskgraph"
	"github.com/MineralsCloud/cij/tradio"
	"github.com/MineralsCloud/cij/units"
	"github.com/MineralsCloud/cij/voigt"
)

// Base selects which grid a query is evaluated on.
type Base int

const (
	VolumeBase Base = iota
	PressureBase
)

// Kind selects adiabatic or isothermal elastic moduli.
type Kind int

const (
	Adiabatic Kind = iota
	Isothermal
)

// Calculator is the fully-computed, immutable result of one config file:
// every interior cache (interpolated modes, static fits, task results) is
// computed eagerly at construction, matching spec.md §3's ownership note.
type Calculator struct {
	cfg         *config.Config
	modulusKeys []voigt.ModulusIndex

	volumeBase   *volumeBaseResult
	pressureBase *pressureBaseResult
}

// New builds a Calculator from a configuration file, running the entire
// pipeline to completion.
func New(configPath string) (*Calculator, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	workDir := filepath.Dir(configPath)

	phononInput, err := tradio.ReadPhononInput(filepath.Join(workDir, cfg.QHA.Input))
	if err != nil {
		return nil, err
	}
	for _, w := range qhaadapter.ScanNegativeFrequencies(phononInput) {
		io.Pfred("warning: %s\n", w)
	}

	elastInput, err := tradio.ReadElastInput(filepath.Join(workDir, cfg.Elast.Input))
	if err != nil {
		return nil, err
	}

	system := cfg.Elast.Settings.Symmetry.System
	staticTable, err := fillStaticTable(elastInput, system)
	if err != nil {
		return nil, err
	}

	modulusKeys, err := modulusKeysFromTable(staticTable)
	if err != nil {
		return nil, err
	}

	engine, err := qha.New(phononInput, settingsFromConfig(cfg.QHA.Settings))
	if err != nil {
		return nil, err
	}
	adapter := qhaadapter.New(engine)
	if err := adapter.Validate(deltaP(adapter.PArray())); err != nil {
		return nil, err
	}

	order := cfg.Elast.Settings.ModeGamma.Order
	backend := modeinterp.Backend(strings.ToLower(cfg.Elast.Settings.ModeGamma.Interpolator))
	modes, err := modeinterp.InterpolateAll(phononInput, adapter.VArray(), backend, order)
	if err != nil {
		return nil, err
	}

	volumes := make([]float64, len(phononInput.Volumes))
	energies := make([]float64, len(phononInput.Volumes))
	for i, v := range phononInput.Volumes {
		volumes[i] = v.Volume
		energies[i] = v.Energy
	}
	staticPressure, err := modulus.StaticPressure(volumes, energies, adapter.VArray())
	if err != nil {
		return nil, err
	}

	volBase := adapter.VolumeBase()
	qWeights := make([]float64, len(phononInput.Weights))
	for i, w := range phononInput.Weights {
		qWeights[i] = w.Weight
	}

	phononInputs := phonon.Inputs{
		VArray:         adapter.VArray(),
		TArray:         adapter.TArray(),
		QWeights:       qWeights,
		Modes:          phonon.ModeFields{Freq: modes.Freq, Gamma: modes.Gamma, VdrDv: modes.VdrDv},
		Na:             float64(phononInput.NM),
		StaticPressure: staticPressure,
		PressureTV:     volBase.Pressures,
		HeatCapacityTV: volBase.HeatCapacity,
	}

	strain := broadcastStrain(*cfg.Elast.Settings.InitStrain, len(adapter.VArray()))

	graph := taskgraph.New(phononInputs)
	if err := graph.Resolve(strain, modulusKeys); err != nil {
		return nil, err
	}
	if err := graph.Calculate(); err != nil {
		return nil, err
	}
	isothermalContribution, adiabaticContribution, err := graph.Results(strain, modulusKeys)
	if err != nil {
		return nil, err
	}

	staticElastVolumes := make([]float64, len(elastInput.Volumes))
	for i, v := range elastInput.Volumes {
		staticElastVolumes[i] = v.Volume
	}

	modulusAdiabatic := make(map[voigt.ModulusIndex][][]float64, len(modulusKeys))
	modulusIsothermal := make(map[voigt.ModulusIndex][][]float64, len(modulusKeys))
	for _, key := range modulusKeys {
		col := columnNameForKey(staticTable, key)
		rawGPa := staticTable[col]
		internal := make([]float64, len(rawGPa))
		for i, v := range rawGPa {
			internal[i] = v * units.GPaToRyPerBohr3
		}
		staticFit, err := modulus.FitStaticModulus(staticElastVolumes, internal, adapter.VArray())
		if err != nil {
			return nil, err
		}
		modulusAdiabatic[key] = modulus.Assemble(staticFit, adiabaticContribution[key])
		modulusIsothermal[key] = modulus.Assemble(staticFit, isothermalContribution[key])
	}

	compliances, err := modulus.Compliances(modulusAdiabatic)
	if err != nil {
		return nil, err
	}

	stiffness := aggregate.ModuliFromMap(modulusAdiabatic)
	compliance := aggregate.ModuliFromMap(compliances)

	bulkVoigt := aggregate.BulkVoigt(stiffness)
	bulkReuss := aggregate.BulkReuss(compliance)
	bulkVRH := aggregate.VoigtReussHill(bulkVoigt, bulkReuss)
	shearVoigt := aggregate.ShearVoigt(stiffness)
	shearReuss := aggregate.ShearReuss(compliance)
	shearVRH := aggregate.VoigtReussHill(shearVoigt, shearReuss)

	massKg := aggregate.CellMass(elastInput.CellMass)
	primaryVel := aggregate.PrimaryVelocity(bulkVRH, shearVRH, adapter.VArray(), massKg)
	secondaryVel := aggregate.SecondaryVelocity(shearVRH, adapter.VArray(), massKg)

	vbr := &volumeBaseResult{
		vArray:            adapter.VArray(),
		tArray:            adapter.TArray(),
		modulusAdiabatic:  modulusAdiabatic,
		modulusIsothermal: modulusIsothermal,
		compliances:       compliances,
		bulkVoigt:         bulkVoigt,
		bulkReuss:         bulkReuss,
		bulkVRH:           bulkVRH,
		shearVoigt:        shearVoigt,
		shearReuss:        shearReuss,
		shearVRH:          shearVRH,
		primaryVel:        primaryVel,
		secondaryVel:      secondaryVel,
		pressures:         volBase.Pressures,
	}

	pbr, err := buildPressureBase(adapter, vbr)
	if err != nil {
		return nil, err
	}

	return &Calculator{cfg: cfg, modulusKeys: modulusKeys, volumeBase: vbr, pressureBase: pbr}, nil
}

// ModulusKeys returns the elastic-modulus components this calculator
// resolved, in ascending Voigt order.
func (c *Calculator) ModulusKeys() []voigt.ModulusIndex { return c.modulusKeys }

// GetModulus returns c_ij(T, V) or c_ij(T, P) for the requested base and
// kind, the Go equivalent of the original's dynamic attribute dispatch
// (e.g. `calculator.volume_base.c11`).
func (c *Calculator) GetModulus(base Base, kind Kind, key voigt.ModulusIndex) ([][]float64, error) {
	var table map[voigt.ModulusIndex][][]float64
	switch {
	case base == VolumeBase && kind == Adiabatic:
		table = c.volumeBase.modulusAdiabatic
	case base == VolumeBase && kind == Isothermal:
		table = c.volumeBase.modulusIsothermal
	case base == PressureBase && kind == Adiabatic:
		table = c.pressureBase.modulusAdiabatic
	case base == PressureBase && kind == Isothermal:
		table = c.pressureBase.modulusIsothermal
	}
	val, ok := table[key]
	if !ok {
		return nil, serr.New(serr.ConfigInvalid, "calc: modulus %s was not resolved", key)
	}
	return val, nil
}

// GetCompliance returns s_ij(T, V) or s_ij(T, P) for the requested base.
func (c *Calculator) GetCompliance(base Base, key voigt.ModulusIndex) ([][]float64, error) {
	table := c.volumeBase.compliances
	if base == PressureBase {
		table = c.pressureBase.compliances
	}
	val, ok := table[key]
	if !ok {
		return nil, serr.New(serr.ConfigInvalid, "calc: compliance %s was not resolved (symmetry-forbidden or absent)", key)
	}
	return val, nil
}

// WriteOutput writes every field named in the config's output section,
// matching Calculator.write_output in the original.
func (c *Calculator) WriteOutput() error {
	if len(c.cfg.Output.VolumeBase) > 0 {
		if err := output.Write(c.volumeBase, toOutputEntries(c.cfg.Output.VolumeBase)); err != nil {
			return err
		}
	}
	if len(c.cfg.Output.PressureBase) > 0 {
		if err := output.Write(c.pressureBase, toOutputEntries(c.cfg.Output.PressureBase)); err != nil {
			return err
		}
	}
	return nil
}

func toOutputEntries(entries []config.OutputEntry) []output.Entry {
	out := make([]output.Entry, len(entries))
	for i, e := range entries {
		out[i] = output.Entry{Keyword: e.Keyword, Fname: e.Fname, Unit: e.Unit}
	}
	return out
}

// fillStaticTable extracts the per-column static elastic constants (GPa)
// across every elast-data volume and completes them under the configured
// crystal symmetry, warning (rather than failing) on an unspecified or
// triclinic system the way _apply_elastic_constants_symmetry does.
func fillStaticTable(elastInput *tradio.ElastInput, system string) (map[string][]float64, error) {
	table := make(map[string][]float64)
	for _, vol := range elastInput.Volumes {
		for col, v := range vol.Static {
			table[col] = append(table[col], v)
		}
	}
	if system == "" || strings.EqualFold(system, "triclinic") {
		io.Pf("symmetry constraints check not performed; make sure every non-zero term is filled in for correct VRH averages\n")
		return table, nil
	}
	return symfill.Fill(table, elastInput.NV, system, symfill.Options{})
}

// modulusKeysFromTable parses every "cXY"/"cXYZW"-shaped column name in a
// filled static table into its ModulusIndex, sorted ascending by Voigt
// pair, matching elast_data.volumes[0].static_elastic_modulus.keys().
func modulusKeysFromTable(table map[string][]float64) ([]voigt.ModulusIndex, error) {
	var keys []voigt.ModulusIndex
	for col := range table {
		lower := strings.ToLower(col)
		if !strings.HasPrefix(lower, "c") {
			continue
		}
		key, err := voigt.ParseModulusIndex(strings.TrimPrefix(lower, "c"))
		if err != nil {
			return nil, serr.New(serr.ConfigInvalid, "calc: column %q is not a valid modulus symbol: %v", col, err)
		}
		keys = append(keys, key)
	}
	sort.Slice(keys, func(a, b int) bool {
		v1a, v2a := keys[a].Voigt()
		v1b, v2b := keys[b].Voigt()
		if v1a != v1b {
			return v1a < v1b
		}
		return v2a < v2b
	})
	return keys, nil
}

// columnNameForKey finds the original-cased column name in table whose
// parsed ModulusIndex matches key.
func columnNameForKey(table map[string][]float64, key voigt.ModulusIndex) string {
	for col := range table {
		lower := strings.ToLower(col)
		if !strings.HasPrefix(lower, "c") {
			continue
		}
		parsed, err := voigt.ParseModulusIndex(strings.TrimPrefix(lower, "c"))
		if err == nil && parsed == key {
			return col
		}
	}
	return ""
}

// broadcastStrain replicates the configured (e1/delta, e2/delta, e3/delta)
// triple across every refined volume, matching how the original passes the
// same bare (1/3,1/3,1/3) tuple to every task regardless of volume.
func broadcastStrain(triple [3]float64, n int) [][3]float64 {
	out := make([][3]float64, n)
	for i := range out {
		out[i] = triple
	}
	return out
}

// settingsFromConfig reads the handful of numeric overrides qha.settings
// may carry; any key it does not recognize is silently ignored, since the
// rest of that map is delegated to the (external, out-of-scope) QHA
// engine's own option set.
func settingsFromConfig(raw map[string]interface{}) qha.Settings {
	var s qha.Settings
	s.NTV = intSetting(raw, "n_tv")
	s.VolumeRatio = floatSetting(raw, "volume_ratio")
	s.NT = intSetting(raw, "n_t")
	s.TMin = floatSetting(raw, "t_min")
	s.TMax = floatSetting(raw, "t_max")
	s.NP = intSetting(raw, "n_p")
	s.PMinGPa = floatSetting(raw, "p_min_gpa")
	s.PMaxGPa = floatSetting(raw, "p_max_gpa")
	return s
}

func floatSetting(raw map[string]interface{}, key string) float64 {
	if raw == nil {
		return 0
	}
	switch v := raw[key].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	default:
		return 0
	}
}

func intSetting(raw map[string]interface{}, key string) int {
	return int(floatSetting(raw, key))
}

// deltaP estimates the configured desired-pressure step, used by
// qhaadapter.Validate to size its "try a smaller N_P" suggestion.
func deltaP(pArray []float64) float64 {
	if len(pArray) < 2 {
		return 0
	}
	lo, hi := pArray[0], pArray[0]
	for _, p := range pArray {
		if p < lo {
			lo = p
		}
		if p > hi {
			hi = p
		}
	}
	return (hi - lo) * units.RyPerBohr3ToGPa / float64(len(pArray)-1)
}
