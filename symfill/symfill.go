// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package symfill completes a partially-specified 6x6 Voigt elastic tensor
// by enforcing the linear equality constraints a given crystal system places
// on its 21 upper-triangle components, via a least-squares solve over the
// known columns plus the constraint equations. Grounded on util/fill.py of
// the original implementation.
package symfill

import (
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/MineralsCloud/cij/llsq"
	"github.com/MineralsCloud/cij/serr"
)

// symbols is the canonical, sorted order of the 21 independent Voigt indices
// c11..c66 (i<=j), matching the OrderedDict construction in fill.py.
var symbols = func() []string {
	var s []string
	for i := 1; i <= 6; i++ {
		for j := i; j <= 6; j++ {
			s = append(s, voigtSymbol(i, j))
		}
	}
	return s
}()

func voigtSymbol(i, j int) string {
	return "c" + itoa(i) + itoa(j)
}

func itoa(n int) string {
	return string(rune('0' + n))
}

func symbolIndex(sym string) int {
	for i, s := range symbols {
		if s == sym {
			return i
		}
	}
	return -1
}

// equation is one linear constraint sum(coef[sym]*c_sym) = 0.
type equation map[string]float64

// eq builds an equation from alternating symbol/coefficient pairs, e.g.
// eq("c22", 1, "c11", -1) encodes c22 - c11 = 0.
func eq(pairs ...interface{}) equation {
	e := make(equation)
	for i := 0; i < len(pairs); i += 2 {
		e[pairs[i].(string)] += pairs[i+1].(float64)
	}
	return e
}

// constraintTables holds the equality constraints each supported crystal
// system places on c11..c66, following standard elasticity-theory reductions
// of the full 21-component triclinic tensor. "triclinic" has none: all 21
// components are independent.
var constraintTables = map[string][]equation{
	"triclinic": {},

	// 13 independent: c11,c12,c13,c15,c22,c23,c25,c33,c35,c44,c46,c55,c66.
	// All couplings forbidden by the single mirror plane (b-axis unique) are
	// zeroed; no equalities among the independent terms.
	"monoclinic": {
		eq("c14", 1.0), eq("c16", 1.0),
		eq("c24", 1.0), eq("c26", 1.0),
		eq("c34", 1.0), eq("c36", 1.0),
		eq("c45", 1.0), eq("c56", 1.0),
	},

	// 9 independent: c11,c12,c13,c22,c23,c33,c44,c55,c66.
	"orthorhombic": {
		eq("c14", 1.0), eq("c15", 1.0), eq("c16", 1.0),
		eq("c24", 1.0), eq("c25", 1.0), eq("c26", 1.0),
		eq("c34", 1.0), eq("c35", 1.0), eq("c36", 1.0),
		eq("c45", 1.0), eq("c46", 1.0), eq("c56", 1.0),
	},

	// 6 independent: c11,c12,c13,c33,c44,c66, class 4/mmm,422,4mm,-42m.
	"tetragonal6": {
		eq("c22", 1.0, "c11", -1.0),
		eq("c23", 1.0, "c13", -1.0),
		eq("c55", 1.0, "c44", -1.0),
		eq("c14", 1.0), eq("c15", 1.0), eq("c16", 1.0),
		eq("c24", 1.0), eq("c25", 1.0), eq("c26", 1.0),
		eq("c34", 1.0), eq("c35", 1.0), eq("c36", 1.0),
		eq("c45", 1.0), eq("c46", 1.0), eq("c56", 1.0),
	},

	// 7 independent: adds c16 = -c26, class 4,-4,4/m.
	"tetragonal7": {
		eq("c22", 1.0, "c11", -1.0),
		eq("c23", 1.0, "c13", -1.0),
		eq("c55", 1.0, "c44", -1.0),
		eq("c26", 1.0, "c16", 1.0),
		eq("c14", 1.0), eq("c15", 1.0),
		eq("c24", 1.0), eq("c25", 1.0),
		eq("c34", 1.0), eq("c35", 1.0), eq("c36", 1.0),
		eq("c45", 1.0), eq("c46", 1.0), eq("c56", 1.0),
	},

	// 5 independent: c11,c12,c13,c33,c44, c66=(c11-c12)/2.
	"hexagonal": {
		eq("c22", 1.0, "c11", -1.0),
		eq("c23", 1.0, "c13", -1.0),
		eq("c55", 1.0, "c44", -1.0),
		eq("c66", 1.0, "c11", -0.5, "c12", 0.5),
		eq("c14", 1.0), eq("c15", 1.0), eq("c16", 1.0),
		eq("c24", 1.0), eq("c25", 1.0), eq("c26", 1.0),
		eq("c34", 1.0), eq("c35", 1.0), eq("c36", 1.0),
		eq("c45", 1.0), eq("c46", 1.0), eq("c56", 1.0),
	},

	// 6 independent: c11,c12,c13,c14,c33,c44, classes 32,3m,-3m.
	"trigonal6": {
		eq("c22", 1.0, "c11", -1.0),
		eq("c23", 1.0, "c13", -1.0),
		eq("c24", 1.0, "c14", 1.0),
		eq("c56", 1.0, "c14", -1.0),
		eq("c55", 1.0, "c44", -1.0),
		eq("c66", 1.0, "c11", -0.5, "c12", 0.5),
		eq("c15", 1.0), eq("c16", 1.0),
		eq("c25", 1.0), eq("c26", 1.0),
		eq("c34", 1.0), eq("c35", 1.0), eq("c36", 1.0),
		eq("c45", 1.0), eq("c46", 1.0),
	},

	// 7 independent: adds c15, classes 3,-3.
	"trigonal7": {
		eq("c22", 1.0, "c11", -1.0),
		eq("c23", 1.0, "c13", -1.0),
		eq("c24", 1.0, "c14", 1.0),
		eq("c25", 1.0, "c15", 1.0),
		eq("c46", 1.0, "c15", -1.0),
		eq("c56", 1.0, "c14", -1.0),
		eq("c55", 1.0, "c44", -1.0),
		eq("c66", 1.0, "c11", -0.5, "c12", 0.5),
		eq("c16", 1.0), eq("c26", 1.0),
		eq("c34", 1.0), eq("c35", 1.0), eq("c36", 1.0),
		eq("c45", 1.0),
	},

	// 3 independent: c11,c12,c44.
	"cubic": {
		eq("c22", 1.0, "c11", -1.0),
		eq("c33", 1.0, "c11", -1.0),
		eq("c13", 1.0, "c12", -1.0),
		eq("c23", 1.0, "c12", -1.0),
		eq("c55", 1.0, "c44", -1.0),
		eq("c66", 1.0, "c44", -1.0),
		eq("c14", 1.0), eq("c15", 1.0), eq("c16", 1.0),
		eq("c24", 1.0), eq("c25", 1.0), eq("c26", 1.0),
		eq("c34", 1.0), eq("c35", 1.0), eq("c36", 1.0),
		eq("c45", 1.0), eq("c46", 1.0), eq("c56", 1.0),
	},
}

// Systems lists the crystal systems supported by Fill.
func Systems() []string {
	names := make([]string, 0, len(constraintTables))
	for name := range constraintTables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Options controls Fill's tolerances.
type Options struct {
	IgnoreRank      bool
	IgnoreResiduals bool
	DropAtol        float64 // default 1e-8
	ResidualAtol    float64 // default 0.1
}

func (o Options) withDefaults() Options {
	if o.DropAtol <= 0 {
		o.DropAtol = 1e-8
	}
	if o.ResidualAtol <= 0 {
		o.ResidualAtol = 0.1
	}
	return o
}

// Fill completes the table of known Voigt elastic-constant columns (keyed by
// case-insensitive "cXY" names, one value per volume row) using the equality
// constraints of the named crystal system, and returns the completed table
// with near-zero columns dropped. An empty or "triclinic" system returns the
// input table unchanged.
func Fill(table map[string][]float64, nv int, system string, opts Options) (map[string][]float64, error) {
	if system == "" || strings.EqualFold(system, "triclinic") {
		return table, nil
	}
	opts = opts.withDefaults()

	constraints, ok := constraintTables[strings.ToLower(system)]
	if !ok {
		return nil, serr.New(serr.ConfigInvalid, "symfill: unknown crystal system %q", system)
	}
	if len(constraints) == 0 {
		return table, nil
	}

	nsym := len(symbols)

	// original column names, keyed by lower-case symbol, so the write-back
	// preserves whatever case the caller used (fill.py's "user may use upper
	// case Cij" note).
	origKey := make(map[string]string)
	var knownRows [][]float64
	var knownVals [][]float64
	for col, vals := range table {
		lower := strings.ToLower(col)
		idx := symbolIndex(lower)
		if idx < 0 {
			continue
		}
		if len(vals) != nv {
			return nil, serr.New(serr.InputMalformed, "symfill: column %q has %d rows, expected %d", col, len(vals), nv)
		}
		origKey[lower] = col
		row := make([]float64, nsym)
		row[idx] = 1
		knownRows = append(knownRows, row)
		knownVals = append(knownVals, vals)
	}

	neq := len(constraints)
	totalRows := len(knownRows) + neq
	aData := make([]float64, totalRows*nsym)
	bData := make([]float64, totalRows*nv)

	for r, row := range knownRows {
		copy(aData[r*nsym:(r+1)*nsym], row)
		copy(bData[r*nv:(r+1)*nv], knownVals[r])
	}
	for k, eqn := range constraints {
		r := len(knownRows) + k
		for sym, coef := range eqn {
			idx := symbolIndex(sym)
			if idx < 0 {
				return nil, serr.New(serr.ConfigInvalid, "symfill: constraint references unknown symbol %q", sym)
			}
			aData[r*nsym+idx] = coef
		}
		// b row is all zero already
	}

	a := mat.NewDense(totalRows, nsym, aData)
	b := mat.NewDense(totalRows, nv, bData)

	res, err := llsq.Solve(a, b, 0)
	if err != nil {
		return nil, err
	}

	if res.Rank < nsym && !opts.IgnoreRank {
		return nil, serr.New(serr.RankDeficient, "symfill: rank %d is smaller than %d unknowns for system %q", res.Rank, nsym, system)
	}
	if !opts.IgnoreResiduals {
		for _, r := range res.Residuals {
			if r > opts.ResidualAtol {
				return nil, serr.New(serr.ResidualTooLarge, "symfill: residual %.6f exceeds tolerance %.6f for system %q", r, opts.ResidualAtol, system)
			}
		}
	}

	out := make(map[string][]float64, nsym)
	for i, sym := range symbols {
		vals := make([]float64, nv)
		for j := 0; j < nv; j++ {
			vals[j] = res.X.At(i, j)
		}
		allZero := true
		for _, v := range vals {
			if !llsq.IsNearZero(v, opts.DropAtol) {
				allZero = false
				break
			}
		}
		if allZero {
			continue
		}
		key := sym
		if orig, ok := origKey[sym]; ok {
			key = orig
		}
		out[key] = vals
	}

	return out, nil
}
