// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package taskgraph builds and executes the phonon-contribution task DAG:
// every requested elastic-modulus key becomes a task, shear tasks enqueue
// their longitudinal/off-diagonal dependencies (in both the original and
// rotated frames), and the whole set runs in topological order with each
// distinct (calc type, numerically-close parameters) task computed once.
// Grounded on core/tasks.py.
package taskgraph

import (
	"fmt"
	"strconv"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"

	"github.com/MineralsCloud/cij/phonon"
	"github.com/MineralsCloud/cij/serr"
	"github.com/MineralsCloud/cij/voigt"
)

// quantizeDigits matches numpy.allclose's default relative precision well
// enough to dedupe strain fractions that are mathematically equal but
// carry floating-point noise.
const quantizeDigits = 9

// node is one unit of phonon-contribution work: either a longitudinal/
// off-diagonal evaluation (identified by its ai/aj strain fractions) or a
// self-shear evaluation (identified by its key and full strain triples).
type node struct {
	calcType voigt.CalcType
	key      voigt.ModulusIndex
	ai, aj   []float64
	strain   [][3]float64

	depsOriginal []int // node indices, original-frame shear dependencies
	depsRotated  []int // node indices, rotated-frame shear dependencies

	isothermal [][]float64
	adiabatic  [][]float64
}

// Graph is a resolved, not-yet-executed (or already-executed) task DAG for
// one set of requested moduli.
type Graph struct {
	inputs phonon.Inputs
	nodes  []*node
	order  []int // topologically sorted node indices
	index  map[string]int
}

// New builds an empty graph bound to the phonon-contribution inputs shared
// by every longitudinal/off-diagonal evaluation.
func New(inputs phonon.Inputs) *Graph {
	return &Graph{inputs: inputs, index: make(map[string]int)}
}

func quantize(x float64) string {
	return strconv.FormatFloat(x, 'e', quantizeDigits, 64)
}

func longOffIdentity(calcType voigt.CalcType, ai, aj []float64) string {
	s := fmt.Sprintf("L%d|", calcType)
	for _, v := range ai {
		s += quantize(v) + ","
	}
	s += "|"
	for _, v := range aj {
		s += quantize(v) + ","
	}
	return s
}

func shearIdentity(key voigt.ModulusIndex, strain [][3]float64) string {
	s := fmt.Sprintf("S%s|", key)
	for _, row := range strain {
		s += quantize(row[0]) + "," + quantize(row[1]) + "," + quantize(row[2]) + ";"
	}
	return s
}

// strainFraction computes strain[:,idx-1] / sum(strain[:,:], axis=1).
func strainFraction(strain [][3]float64, idx int) []float64 {
	out := make([]float64, len(strain))
	for v, row := range strain {
		sum := row[0] + row[1] + row[2]
		out[v] = row[idx-1] / sum
	}
	return out
}

// paramsForKey mirrors PhononContributionTaskParams._make_param_by_strain_key:
// shear tasks carry the full strain, longitudinal/off-diagonal tasks carry
// the normalized axial-strain fractions for the two coupled axes.
func paramsForKey(strain [][3]float64, key voigt.ModulusIndex) (calcType voigt.CalcType, ai, aj []float64) {
	calcType = key.CalcType()
	if calcType == voigt.Shear {
		return calcType, nil, nil
	}
	i, _, k, _ := key.Standard()
	return calcType, strainFraction(strain, i), strainFraction(strain, k)
}

// getOrCreate finds an existing node matching (strain, key)'s identity, or
// appends a new one, returning its index.
func (g *Graph) getOrCreate(strain [][3]float64, key voigt.ModulusIndex) (int, error) {
	calcType, ai, aj := paramsForKey(strain, key)

	var id string
	if calcType == voigt.Shear {
		id = shearIdentity(key, strain)
	} else {
		id = longOffIdentity(calcType, ai, aj)
	}
	if idx, ok := g.index[id]; ok {
		return idx, nil
	}

	n := &node{calcType: calcType, key: key, ai: ai, aj: aj}
	if calcType == voigt.Shear {
		n.strain = strain
		original, rotated, err := phonon.Dependencies(key)
		if err != nil {
			return 0, err
		}
		for _, depKey := range original {
			depIdx, err := g.getOrCreate(strain, depKey)
			if err != nil {
				return 0, err
			}
			n.depsOriginal = append(n.depsOriginal, depIdx)
		}
		var strainRotated [][3]float64
		fs, err := phonon.BuildFictitiousStrain(key)
		if err != nil {
			return 0, err
		}
		strainRotated = make([][3]float64, len(strain))
		for v, row := range strain {
			strainRotated[v] = phonon.RotateAxialStrain(row, fs)
		}
		for _, depKey := range rotated {
			depIdx, err := g.getOrCreate(strainRotated, depKey)
			if err != nil {
				return 0, err
			}
			n.depsRotated = append(n.depsRotated, depIdx)
		}
	}

	g.nodes = append(g.nodes, n)
	idx := len(g.nodes) - 1
	g.index[id] = idx
	return idx, nil
}

// Resolve builds the task DAG for the requested keys under strain (the
// axial strain fractions e1/delta, e2/delta, e3/delta per volume) and
// topologically sorts it so each task runs after its dependencies.
func (g *Graph) Resolve(strain [][3]float64, keys []voigt.ModulusIndex) error {
	for _, key := range keys {
		if _, err := g.getOrCreate(strain, key); err != nil {
			return err
		}
	}

	dg := simple.NewDirectedGraph()
	for i := range g.nodes {
		dg.AddNode(simple.Node(int64(i)))
	}
	for i, n := range g.nodes {
		for _, d := range n.depsOriginal {
			dg.SetEdge(dg.NewEdge(simple.Node(int64(d)), simple.Node(int64(i))))
		}
		for _, d := range n.depsRotated {
			dg.SetEdge(dg.NewEdge(simple.Node(int64(d)), simple.Node(int64(i))))
		}
	}

	sorted, err := topo.Sort(dg)
	if err != nil {
		return serr.Wrap(serr.NumericFailure, "taskgraph: cyclic task dependency", err)
	}
	g.order = make([]int, len(sorted))
	for i, n := range sorted {
		g.order[i] = int(n.ID())
	}
	return nil
}

// Calculate executes every task in topological order, memoizing each
// distinct task's isothermal and adiabatic results.
func (g *Graph) Calculate() error {
	for _, idx := range g.order {
		n := g.nodes[idx]
		if n.calcType != voigt.Shear {
			iso, adi, err := phonon.LongitudinalOffDiagonal(n.calcType, n.ai, n.aj, g.inputs)
			if err != nil {
				return err
			}
			n.isothermal, n.adiabatic = iso, adi
			continue
		}

		deps := make([]int, 0, len(n.depsOriginal)+len(n.depsRotated))
		deps = append(deps, n.depsOriginal...)
		deps = append(deps, n.depsRotated...)
		resolve := g.resolverFor(deps)

		result, err := phonon.Solve(n.key, n.strain, resolve)
		if err != nil {
			return err
		}
		n.isothermal = result
		n.adiabatic = result
	}
	return nil
}

// resolverFor builds a Resolver over a shear task's dependency node indices,
// looking up each requested key's cached isothermal result by the same
// (calc type, strain fractions) identity getOrCreate used, so a key that was
// deduplicated onto another key's task still resolves.
func (g *Graph) resolverFor(deps []int) phonon.Resolver {
	return func(key voigt.ModulusIndex, strain [][3]float64) ([][]float64, error) {
		calcType, ai, aj := paramsForKey(strain, key)
		if idx, ok := g.index[longOffIdentity(calcType, ai, aj)]; ok {
			for _, d := range deps {
				if d == idx {
					return g.nodes[d].isothermal, nil
				}
			}
		}
		return nil, serr.New(serr.NumericFailure, "taskgraph: missing dependency result for %s", key)
	}
}

// Results looks up the computed isothermal and adiabatic values for the
// requested keys under strain, keyed by the same identity Resolve used.
func (g *Graph) Results(strain [][3]float64, keys []voigt.ModulusIndex) (isothermal, adiabatic map[voigt.ModulusIndex][][]float64, err error) {
	isothermal = make(map[voigt.ModulusIndex][][]float64, len(keys))
	adiabatic = make(map[voigt.ModulusIndex][][]float64, len(keys))
	for _, key := range keys {
		calcType, ai, aj := paramsForKey(strain, key)
		var id string
		if calcType == voigt.Shear {
			id = shearIdentity(key, strain)
		} else {
			id = longOffIdentity(calcType, ai, aj)
		}
		idx, ok := g.index[id]
		if !ok {
			return nil, nil, serr.New(serr.NumericFailure, "taskgraph: no task resolved for %s", key)
		}
		isothermal[key] = g.nodes[idx].isothermal
		adiabatic[key] = g.nodes[idx].adiabatic
	}
	return isothermal, adiabatic, nil
}
