// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config reads and validates the solver's configuration file
// (spec.md §6): YAML or JSON, selected by file extension, with the same
// default-filling behavior `cij/io/__init__.py`'s `apply_default_config`
// applies to the original. There is no bundled JSON schema in this repo
// (the original validates against `schema/config.schema.json`, not present
// in the retrieved reference material), so validation here is a direct,
// hand-written check of the keys spec.md §6 actually requires.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MineralsCloud/cij/modeinterp"
	"github.com/MineralsCloud/cij/serr"
)

// OutputEntry names one field to write out, with optional overrides of the
// writer-rules table's defaults.
type OutputEntry struct {
	Keyword string
	Fname   string
	Unit    string
}

// UnmarshalYAML accepts either a bare keyword string or a mapping with
// keyword/fname/unit keys, matching spec.md §6's "each either a keyword
// string or {keyword, fname?, unit?}".
func (e *OutputEntry) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		return node.Decode(&e.Keyword)
	}
	var m struct {
		Keyword string `yaml:"keyword"`
		Fname   string `yaml:"fname"`
		Unit    string `yaml:"unit"`
	}
	if err := node.Decode(&m); err != nil {
		return err
	}
	e.Keyword, e.Fname, e.Unit = m.Keyword, m.Fname, m.Unit
	return nil
}

// UnmarshalJSON mirrors UnmarshalYAML's either-shape acceptance for JSON
// configs, matching the teacher's inp/mat.go convention of a plain
// encoding/json.Unmarshal for this file format.
func (e *OutputEntry) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		e.Keyword = s
		return nil
	}
	var m struct {
		Keyword string `json:"keyword"`
		Fname   string `json:"fname"`
		Unit    string `json:"unit"`
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	e.Keyword, e.Fname, e.Unit = m.Keyword, m.Fname, m.Unit
	return nil
}

// ModeGammaSettings controls the mode interpolator (component C).
type ModeGammaSettings struct {
	Interpolator string `yaml:"interpolator" json:"interpolator"`
	Order        int    `yaml:"order" json:"order"`
}

// SymmetrySettings names the crystal system symfill completes against.
type SymmetrySettings struct {
	System string `yaml:"system" json:"system"`
}

// ElastSettings bundles every option that shapes how the static elastic
// tensor is filled and coupled to the phonon contribution.
type ElastSettings struct {
	Symmetry   SymmetrySettings  `yaml:"symmetry" json:"symmetry"`
	ModeGamma  ModeGammaSettings `yaml:"mode_gamma" json:"mode_gamma"`
	InitStrain *[3]float64       `yaml:"init_strain" json:"init_strain"`
}

// QHASection names the phonon/energy input file; qha.settings is delegated
// to the QHA engine and kept as a raw map so this repo's config schema
// never has to track that external engine's own option set.
type QHASection struct {
	Input    string                 `yaml:"input" json:"input"`
	Settings map[string]interface{} `yaml:"settings" json:"settings"`
}

// ElastSection names the elastic-constant input file and its settings.
type ElastSection struct {
	Input    string        `yaml:"input" json:"input"`
	Settings ElastSettings `yaml:"settings" json:"settings"`
}

// OutputSection lists what to write for each of the two output bases.
type OutputSection struct {
	VolumeBase   []OutputEntry `yaml:"volume_base" json:"volume_base"`
	PressureBase []OutputEntry `yaml:"pressure_base" json:"pressure_base"`
}

// Config is the root configuration object, spec.md §6.
type Config struct {
	QHA    QHASection    `yaml:"qha" json:"qha"`
	Elast  ElastSection  `yaml:"elast" json:"elast"`
	Output OutputSection `yaml:"output" json:"output"`
}

// defaultInitStrain is the (1/3,1/3,1/3) fallback spec.md §6 names.
var defaultInitStrain = [3]float64{1.0 / 3.0, 1.0 / 3.0, 1.0 / 3.0}

// applyDefaults fills the optional keys spec.md §6 allows to be omitted,
// mirroring cij/io/__init__.py's apply_default_config.
func (c *Config) applyDefaults() {
	if c.Elast.Settings.Symmetry.System == "" {
		c.Elast.Settings.Symmetry.System = "triclinic"
	}
	if c.Elast.Settings.ModeGamma.Interpolator == "" {
		c.Elast.Settings.ModeGamma.Interpolator = string(modeinterp.PCHIP)
	}
	if c.Elast.Settings.ModeGamma.Order <= 0 {
		c.Elast.Settings.ModeGamma.Order = 0 // 0 means "use the backend's own default"
	}
	if c.Elast.Settings.InitStrain == nil {
		strain := defaultInitStrain
		c.Elast.Settings.InitStrain = &strain
	}
}

// validate checks the keys spec.md §6 requires to be present, raising
// ConfigInvalid the way a failed jsonschema.validate() would in the
// original.
func (c *Config) validate() error {
	if c.QHA.Input == "" {
		return serr.New(serr.ConfigInvalid, "config: qha.input is required")
	}
	if c.Elast.Input == "" {
		return serr.New(serr.ConfigInvalid, "config: elast.input is required")
	}
	switch strings.ToLower(c.Elast.Settings.ModeGamma.Interpolator) {
	case string(modeinterp.Spline), string(modeinterp.Lagrange), string(modeinterp.Krogh),
		string(modeinterp.PCHIP), string(modeinterp.Akima), string(modeinterp.Hermite), string(modeinterp.LSQPoly):
	default:
		return serr.New(serr.ConfigInvalid, "config: elast.settings.mode_gamma.interpolator %q is not a supported backend",
			c.Elast.Settings.ModeGamma.Interpolator)
	}
	if len(c.Output.VolumeBase) == 0 && len(c.Output.PressureBase) == 0 {
		return serr.New(serr.ConfigInvalid, "config: output.volume_base and output.pressure_base are both empty")
	}
	return nil
}

// Load reads and validates a configuration file, dispatching on its
// extension: .yaml/.yml use gopkg.in/yaml.v3 (grounded on cij/io/config/
// config.py's yaml.load and on the several pack manifests that carry this
// dependency); any other extension (notably .json) falls back to
// encoding/json, matching the teacher's own inp/mat.go convention.
func Load(fname string) (*Config, error) {
	data, err := os.ReadFile(fname)
	if err != nil {
		return nil, serr.New(serr.ConfigInvalid, "config: cannot read %q: %v", fname, err)
	}

	var cfg Config
	ext := strings.ToLower(filepath.Ext(fname))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, serr.New(serr.ConfigInvalid, "config: cannot parse %q as YAML: %v", fname, err)
		}
	default:
		if err := json.Unmarshal(data, &cfg); err != nil {
			return nil, serr.New(serr.ConfigInvalid, "config: cannot parse %q as JSON: %v", fname, err)
		}
	}

	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
