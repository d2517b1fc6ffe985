package core

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// conditionLimit bounds the normal equations path; worse conditioned systems go through SVD.
const conditionLimit = 1e12

var errDegenerateDesign = errors.New("degenerate design matrix")

// leastSquares solves X b ≈ y. It uses the normal equations when X'X is well
// conditioned and falls back to a minimum-norm SVD solution otherwise.
func leastSquares(X *mat.Dense, y []float64) ([]float64, error) {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return nil, errDegenerateDesign
	}
	if !allFinite(X.RawMatrix().Data) || !allFinite(y) {
		return nil, fmt.Errorf("%w: non-finite input", errDegenerateDesign)
	}
	Y := mat.NewDense(rows, 1, y)
	var B mat.Dense

	// lapack panics on overflowed norms, so an overflowing X'X stops here
	var xtx mat.Dense
	xtx.Mul(X.T(), X)
	if !allFinite(xtx.RawMatrix().Data) {
		return nil, fmt.Errorf("%w: X'X overflows", errDegenerateDesign)
	}
	var xtxInv mat.Dense
	err := xtxInv.Inverse(&xtx)
	if err == nil && mat.Cond(&xtx, 2) < conditionLimit {
		var xty mat.Dense
		xty.Mul(X.T(), Y)
		B.Mul(&xtxInv, &xty)
	} else {
		var svd mat.SVD
		if ok := svd.Factorize(X, mat.SVDThin); !ok {
			return nil, fmt.Errorf("%w: SVD factorization failed", errDegenerateDesign)
		}
		rank := svd.Rank(1e-12)
		if rank == 0 {
			return make([]float64, cols), nil
		}
		svd.SolveTo(&B, Y, rank)
	}

	coef := make([]float64, cols)
	for i := range coef {
		coef[i] = B.At(i, 0)
		if math.IsNaN(coef[i]) || math.IsInf(coef[i], 0) {
			return nil, fmt.Errorf("%w: non-finite coefficient", errDegenerateDesign)
		}
	}
	return coef, nil
}

// ridge solves (X'X + diag(penalty)) b = X'y.
func ridge(X *mat.Dense, y []float64, penalty []float64) ([]float64, error) {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 || len(penalty) != cols {
		return nil, errDegenerateDesign
	}
	if !allFinite(X.RawMatrix().Data) || !allFinite(y) {
		return nil, fmt.Errorf("%w: non-finite input", errDegenerateDesign)
	}
	a := mat.NewSymDense(cols, nil)
	a.SymOuterK(1, X.T())
	for i, p := range penalty {
		a.SetSym(i, i, a.At(i, i)+p)
	}
	var xty mat.VecDense
	xty.MulVec(X.T(), mat.NewVecDense(rows, y))
	if !allFinite(a.RawSymmetric().Data) || !allFinite(xty.RawVector().Data) {
		return nil, fmt.Errorf("%w: normal equations overflow", errDegenerateDesign)
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(a); !ok {
		return leastSquares(X, y)
	}
	var b mat.VecDense
	if err := chol.SolveVecTo(&b, &xty); err != nil {
		return leastSquares(X, y)
	}
	coef := make([]float64, cols)
	for i := range coef {
		coef[i] = b.AtVec(i)
		if math.IsNaN(coef[i]) || math.IsInf(coef[i], 0) {
			return nil, fmt.Errorf("%w: non-finite coefficient", errDegenerateDesign)
		}
	}
	return coef, nil
}

// designMatrix builds a dense matrix from rows, optionally prefixed with an intercept column.
func designMatrix(rows [][]float64, intercept bool) *mat.Dense {
	n := len(rows)
	if n == 0 {
		return nil
	}
	width := len(rows[0])
	if intercept {
		width++
	}
	data := make([]float64, 0, n*width)
	for _, r := range rows {
		if intercept {
			data = append(data, 1)
		}
		data = append(data, r...)
	}
	return mat.NewDense(n, width, data)
}

func allFinite(x []float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
