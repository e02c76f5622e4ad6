// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package phonon

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/MineralsCloud/cij/serr"
	"github.com/MineralsCloud/cij/voigt"
)

// nearZeroTol matches numpy.isclose's default atol for picking out the
// nonzero entries of a fictitious strain matrix.
const nearZeroTol = 1e-8

// FictitiousStrain is the 3x3 strain pattern a shear key induces, and its
// eigen-decomposition into principal axes.
type FictitiousStrain struct {
	F      *mat.Dense // 3x3, symmetric, 0/1 pattern
	Lambda [3]float64 // eigenvalues
	R      *mat.Dense // 3x3 eigenvector matrix (columns are eigenvectors)
}

// BuildFictitiousStrain constructs the fictitious strain for a self-shear
// key (E1 == E2) per 4.F: 1 at the symmetrized off-diagonal positions the
// key's standard indices imply.
func BuildFictitiousStrain(key voigt.ModulusIndex) (*FictitiousStrain, error) {
	if !key.IsShear() {
		return nil, serr.New(serr.ConfigInvalid, "phonon: %s is not a shear modulus", key)
	}
	if key.E1 != key.E2 {
		return nil, serr.New(serr.ShearNotImplemented, "phonon: shear with i != j (%s) is not implemented", key)
	}

	i, j, k, l := key.Standard()
	f := mat.NewDense(3, 3, nil)
	f.Set(i-1, j-1, 1)
	f.Set(j-1, i-1, 1)
	f.Set(k-1, l-1, 1)
	f.Set(l-1, k-1, 1)

	var eig mat.EigenSym
	sym := mat.NewSymDense(3, nil)
	for a := 0; a < 3; a++ {
		for b := a; b < 3; b++ {
			sym.SetSym(a, b, f.At(a, b))
		}
	}
	if ok := eig.Factorize(sym, true); !ok {
		return nil, serr.New(serr.NumericFailure, "phonon: eigendecomposition of fictitious strain failed")
	}
	var vectors mat.Dense
	vectors.EigenvectorsSym(&eig)
	values := eig.Values(nil)

	var lambda [3]float64
	copy(lambda[:], values)

	return &FictitiousStrain{F: f, Lambda: lambda, R: &vectors}, nil
}

// RotateAxialStrain rotates one volume's real axial strain triple into fs's
// principal frame, the transform taskgraph applies when it needs to look up
// a shear task's rotated-frame dependencies under the matching strain.
func RotateAxialStrain(strain [3]float64, fs *FictitiousStrain) [3]float64 {
	return rotateStrain(strain, fs.R)
}

// rotateStrain computes diag(R^T * diag(strain) * R) for one volume's axial
// strain triple.
func rotateStrain(strain [3]float64, r *mat.Dense) [3]float64 {
	d := mat.NewDense(3, 3, nil)
	d.Set(0, 0, strain[0])
	d.Set(1, 1, strain[1])
	d.Set(2, 2, strain[2])

	var tmp, rotated mat.Dense
	tmp.Mul(r.T(), d)
	rotated.Mul(&tmp, r)

	var out [3]float64
	out[0] = rotated.At(0, 0)
	out[1] = rotated.At(1, 1)
	out[2] = rotated.At(2, 2)
	return out
}

// nonzeroPairs returns the ModulusIndex for every (i,j),(k,l) combination of
// m's nonzero entries, skipping any pair equal to exclude.
func nonzeroPairs(m *mat.Dense, exclude *voigt.ModulusIndex) ([]voigt.ModulusIndex, error) {
	type pos struct{ i, j int }
	var nz []pos
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if math.Abs(m.At(i, j)) > nearZeroTol {
				nz = append(nz, pos{i, j})
			}
		}
	}
	var keys []voigt.ModulusIndex
	for _, a := range nz {
		for _, b := range nz {
			key, err := voigt.NewModulusIndexFromStandard(a.i+1, a.j+1, b.i+1, b.j+1)
			if err != nil {
				return nil, serr.Wrap(serr.NumericFailure, "phonon: building dependency key", err)
			}
			if exclude != nil && key == *exclude {
				continue
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// diagMatrix returns a 3x3 diagonal matrix with the given entries.
func diagMatrix(v [3]float64) *mat.Dense {
	d := mat.NewDense(3, 3, nil)
	d.Set(0, 0, v[0])
	d.Set(1, 1, v[1])
	d.Set(2, 2, v[2])
	return d
}

// Resolver evaluates a longitudinal/off-diagonal dependency of a shear task,
// given the per-volume axial strain triples to use for that evaluation, and
// returns the isothermal modulus as [N_T][N_TV].
type Resolver func(key voigt.ModulusIndex, strain [][3]float64) ([][]float64, error)

// Dependencies returns the longitudinal/off-diagonal keys a shear task for
// key depends on, in the original frame and in the rotated frame, per 4.F
// / 4.G ("shear tasks depend on ... kernels needed in both original and
// rotated frames").
func Dependencies(key voigt.ModulusIndex) (original, rotated []voigt.ModulusIndex, err error) {
	fs, err := BuildFictitiousStrain(key)
	if err != nil {
		return nil, nil, err
	}
	original, err = nonzeroPairs(fs.F, &key)
	if err != nil {
		return nil, nil, err
	}
	rotated, err = nonzeroPairs(diagMatrix(fs.Lambda), nil)
	if err != nil {
		return nil, nil, err
	}
	return original, rotated, nil
}

// strainEnergy sums 0.5 * c_ijkl * F_ij * F_kl over the nonzero entries of m
// (excluding the target key when given), evaluating c_ijkl via resolve for
// the provided strain triples.
func strainEnergy(m *mat.Dense, strain [][3]float64, exclude *voigt.ModulusIndex, resolve Resolver) ([][]float64, error) {
	pairs, err := nonzeroPairsWithCoeffs(m, exclude)
	if err != nil {
		return nil, err
	}
	if len(pairs) == 0 {
		return nil, nil
	}
	var energy [][]float64
	for _, pr := range pairs {
		val, err := resolve(pr.key, strain)
		if err != nil {
			return nil, err
		}
		if energy == nil {
			energy = make([][]float64, len(val))
			for t := range energy {
				energy[t] = make([]float64, len(val[t]))
			}
		}
		for t := range val {
			for v := range val[t] {
				energy[t][v] += 0.5 * val[t][v] * pr.coeff
			}
		}
	}
	return energy, nil
}

type pairWithCoeff struct {
	key   voigt.ModulusIndex
	coeff float64
}

func nonzeroPairsWithCoeffs(m *mat.Dense, exclude *voigt.ModulusIndex) ([]pairWithCoeff, error) {
	type pos struct {
		i, j int
		val  float64
	}
	var nz []pos
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if v := m.At(i, j); math.Abs(v) > nearZeroTol {
				nz = append(nz, pos{i, j, v})
			}
		}
	}
	var pairs []pairWithCoeff
	for _, a := range nz {
		for _, b := range nz {
			key, err := voigt.NewModulusIndexFromStandard(a.i+1, a.j+1, b.i+1, b.j+1)
			if err != nil {
				return nil, serr.Wrap(serr.NumericFailure, "phonon: building dependency key", err)
			}
			if exclude != nil && key == *exclude {
				continue
			}
			pairs = append(pairs, pairWithCoeff{key: key, coeff: a.val * b.val})
		}
	}
	return pairs, nil
}

// Solve evaluates the shear kernel (4.F) for a self-shear key, given the
// real per-volume axial strain triples (the same physical quantity the
// longitudinal/off-diagonal kernel normalizes into ai/aj), and a resolver
// that supplies dependency moduli. The result is identical for isothermal
// and adiabatic values (a documented limitation of this model).
func Solve(key voigt.ModulusIndex, strain [][3]float64, resolve Resolver) ([][]float64, error) {
	fs, err := BuildFictitiousStrain(key)
	if err != nil {
		return nil, err
	}

	uOrig, err := strainEnergy(fs.F, strain, &key, resolve)
	if err != nil {
		return nil, err
	}

	strainRotated := make([][3]float64, len(strain))
	for v, s := range strain {
		strainRotated[v] = rotateStrain(s, fs.R)
	}
	uRot, err := strainEnergy(diagMatrix(fs.Lambda), strainRotated, nil, resolve)
	if err != nil {
		return nil, err
	}

	i, j, k, l := key.Standard()
	fij := fs.F.At(i-1, j-1)
	fkl := fs.F.At(k-1, l-1)
	mult := float64(key.Multiplicity())
	denom := fij * fkl * mult
	if denom == 0 {
		return nil, serr.New(serr.NumericFailure, "phonon: degenerate shear denominator for %s", key)
	}

	nt := len(uRot)
	if nt == 0 {
		nt = len(uOrig)
	}
	out := make([][]float64, nt)
	for t := 0; t < nt; t++ {
		nv := 0
		if t < len(uRot) {
			nv = len(uRot[t])
		} else if t < len(uOrig) {
			nv = len(uOrig[t])
		}
		out[t] = make([]float64, nv)
		for v := 0; v < nv; v++ {
			var rot, orig float64
			if t < len(uRot) && v < len(uRot[t]) {
				rot = uRot[t][v]
			}
			if t < len(uOrig) && v < len(uOrig[t]) {
				orig = uOrig[t][v]
			}
			out[t][v] = 2 * (rot - orig) / denom
		}
	}
	return out, nil
}
