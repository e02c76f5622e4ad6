// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cpmech/gosl/chk"

	"github.com/MineralsCloud/cij/serr"
)

func writeTemp(tst *testing.T, name, content string) string {
	dir := tst.TempDir()
	fname := filepath.Join(dir, name)
	if err := os.WriteFile(fname, []byte(content), 0644); err != nil {
		tst.Fatalf("cannot write fixture: %v", err)
	}
	return fname
}

func Test_config01(tst *testing.T) {

	chk.PrintTitle("config01: loads a minimal YAML config and fills defaults")

	fname := writeTemp(tst, "settings.yaml", `
qha:
  input: phonon.dat
elast:
  input: elast.dat
output:
  volume_base:
    - modulus_adiabatic
    - keyword: primary_velocities
      fname: vp.dat
`)
	cfg, err := Load(fname)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if cfg.Elast.Settings.Symmetry.System != "triclinic" {
		tst.Errorf("expected default symmetry system triclinic, got %q", cfg.Elast.Settings.Symmetry.System)
	}
	if cfg.Elast.Settings.InitStrain == nil || (*cfg.Elast.Settings.InitStrain)[0] != 1.0/3.0 {
		tst.Errorf("expected default init_strain (1/3,1/3,1/3), got %v", cfg.Elast.Settings.InitStrain)
	}
	if len(cfg.Output.VolumeBase) != 2 {
		tst.Fatalf("expected 2 volume_base entries, got %d", len(cfg.Output.VolumeBase))
	}
	if cfg.Output.VolumeBase[0].Keyword != "modulus_adiabatic" {
		tst.Errorf("expected bare-string entry to parse as keyword, got %+v", cfg.Output.VolumeBase[0])
	}
	if cfg.Output.VolumeBase[1].Fname != "vp.dat" {
		tst.Errorf("expected mapping entry to carry fname override, got %+v", cfg.Output.VolumeBase[1])
	}
}

func Test_config02(tst *testing.T) {

	chk.PrintTitle("config02: missing qha.input is ConfigInvalid")

	fname := writeTemp(tst, "settings.yaml", `
elast:
  input: elast.dat
output:
  volume_base: [modulus_adiabatic]
`)
	_, err := Load(fname)
	if !serr.Is(err, serr.ConfigInvalid) {
		tst.Fatalf("expected ConfigInvalid, got %v", err)
	}
}

func Test_config03(tst *testing.T) {

	chk.PrintTitle("config03: JSON extension dispatches to encoding/json")

	fname := writeTemp(tst, "settings.json", `{
		"qha": {"input": "phonon.dat"},
		"elast": {"input": "elast.dat", "settings": {"symmetry": {"system": "cubic"}}},
		"output": {"volume_base": ["modulus_adiabatic"]}
	}`)
	cfg, err := Load(fname)
	if err != nil {
		tst.Fatalf("unexpected error: %v", err)
	}
	if cfg.Elast.Settings.Symmetry.System != "cubic" {
		tst.Errorf("expected symmetry system cubic, got %q", cfg.Elast.Settings.Symmetry.System)
	}
}
