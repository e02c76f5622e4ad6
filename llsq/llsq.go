// Copyright 2016 The Gofem Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package llsq solves rectangular linear least-squares systems A*x = b via
// the SVD-based minimum-norm solution, the same algorithm numpy.linalg.lstsq
// uses with rcond=None. gosl's la package exposes dense solvers for square
// systems only, so this reaches into gonum/mat (as used throughout the
// example pack for numerical linear algebra) for the SVD primitive neither
// gosl nor the standard library provides.
package llsq

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/MineralsCloud/cij/serr"
)

// Result holds the outcome of one least-squares solve.
type Result struct {
	X         *mat.Dense // n x k solution (n = number of unknowns, k = RHS columns)
	Rank      int        // numerical rank of A
	Residuals []float64  // per-RHS-column sum-of-squared-residuals, ||A*x-b||^2
}

// Solve computes the minimum-norm least-squares solution of A*x = b for a
// dense m x n matrix A and an m x k matrix b, using the singular value
// decomposition. Singular values below rcond*sigma_max are treated as zero,
// matching numpy's default rcond behaviour. Pass rcond <= 0 to use the
// standard machine-epsilon-based default.
func Solve(a, b *mat.Dense, rcond float64) (*Result, error) {
	m, n := a.Dims()
	mb, k := b.Dims()
	if mb != m {
		return nil, serr.New(serr.NumericFailure, "llsq: A is %dx%d but b has %d rows", m, n, mb)
	}

	var svd mat.SVD
	if ok := svd.Factorize(a, mat.SVDThin); !ok {
		return nil, serr.New(serr.NumericFailure, "llsq: SVD factorization failed")
	}
	sigma := svd.Values(nil)

	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	if rcond <= 0 {
		rcond = float64(maxInt(m, n)) * 2.220446049250313e-16
	}
	sigmaMax := 0.0
	for _, s := range sigma {
		if s > sigmaMax {
			sigmaMax = s
		}
	}
	tol := rcond * sigmaMax

	rank := 0
	inv := make([]float64, len(sigma))
	for i, s := range sigma {
		if s > tol {
			inv[i] = 1.0 / s
			rank++
		}
	}

	// x = V * diag(inv) * U^T * b
	var ut mat.Dense
	ut.CloneFrom(u.T())
	utb := mat.NewDense(len(sigma), k, nil)
	utb.Mul(&ut, b)
	for i := 0; i < len(sigma); i++ {
		for j := 0; j < k; j++ {
			utb.Set(i, j, utb.At(i, j)*inv[i])
		}
	}
	x := mat.NewDense(n, k, nil)
	x.Mul(&v, utb)

	residuals := make([]float64, k)
	if m > n {
		var ax mat.Dense
		ax.Mul(a, x)
		for j := 0; j < k; j++ {
			sum := 0.0
			for i := 0; i < m; i++ {
				d := ax.At(i, j) - b.At(i, j)
				sum += d * d
			}
			residuals[j] = sum
		}
	}

	return &Result{X: x, Rank: rank, Residuals: residuals}, nil
}

// VanderRow returns the row [1, x, x^2, ..., x^degree] of a Vandermonde
// matrix, ordered lowest power first.
func VanderRow(x float64, degree int) []float64 {
	row := make([]float64, degree+1)
	p := 1.0
	for i := 0; i <= degree; i++ {
		row[i] = p
		p *= x
	}
	return row
}

// PolyEval evaluates a polynomial given its coefficients lowest-power first.
func PolyEval(coeffs []float64, x float64) float64 {
	v := 0.0
	p := 1.0
	for _, c := range coeffs {
		v += c * p
		p *= x
	}
	return v
}

// PolyDeriv returns the coefficients (lowest-power first) of the derivative
// of a polynomial given by coeffs (also lowest-power first).
func PolyDeriv(coeffs []float64) []float64 {
	if len(coeffs) <= 1 {
		return []float64{0}
	}
	d := make([]float64, len(coeffs)-1)
	for i := 1; i < len(coeffs); i++ {
		d[i-1] = coeffs[i] * float64(i)
	}
	return d
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// IsNearZero reports whether v is within atol of zero, used to decide
// whether a solved-for column should be dropped from a completed table.
func IsNearZero(v, atol float64) bool {
	return math.Abs(v) <= atol
}
