// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package svar

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// K returns the number of variables.
func (rf *ReducedFormVAR) K() int {
	if rf == nil || len(rf.A) == 0 {
		return 0
	}
	K, _ := rf.A[0].Dims()
	return K
}

func (rf *ReducedFormVAR) estimated() error {
	if rf == nil || len(rf.A) == 0 {
		return ErrNotEstimated
	}
	if rf.Model.Lags <= 0 {
		return fmt.Errorf("lags must be > 0")
	}
	return nil
}

// designMatrix builds the regressors for rows t = p..T-1:
// [const, trend, y_{t-1}', ..., y_{t-p}']. The trend uses the 1-based time index t+1.
// If skip >= 0, lags of variable skip are left out (restricted Granger model).
func designMatrix(Y mat.Matrix, p int, det Deterministic, skip int) *mat.Dense {
	T, K := Y.Dims()
	Treg := T - p

	kept := K
	if skip >= 0 {
		kept--
	}
	m := det.columns() + p*kept
	X := mat.NewDense(Treg, m, nil)

	for t := 0; t < Treg; t++ {
		col := 0
		if det.hasConst() {
			X.Set(t, col, 1.0)
			col++
		}
		if det.hasTrend() {
			X.Set(t, col, float64(t+p+1))
			col++
		}
		// Lagged Y's: [ y_{t+p-1}, y_{t+p-2}, ..., y_{t+p-p}]
		for j := 1; j <= p; j++ {
			srcRow := t + p - j
			for k := 0; k < K; k++ {
				if k == skip {
					continue
				}
				X.Set(t, col, Y.At(srcRow, k))
				col++
			}
		}
	}
	return X
}

// leastSquares solves X B ≈ Y. Normal equations first, SVD minimum-norm
// solution when X'X is singular or badly conditioned.
func leastSquares(X, Y mat.Matrix) (*mat.Dense, error) {
	_, m := X.Dims()
	_, k := Y.Dims()

	var xtx mat.Dense
	xtx.Mul(X.T(), X)

	var xtxInv mat.Dense
	xtxError := xtxInv.Inverse(&xtx)
	if xtxError == nil {
		var xty, B mat.Dense
		xty.Mul(X.T(), Y)
		B.Mul(&xtxInv, &xty)
		return &B, nil
	}

	var svd mat.SVD
	if ok := svd.Factorize(X, mat.SVDFullU|mat.SVDFullV); !ok {
		return nil, fmt.Errorf("OLS failed: X'X singular and SVD factorization failed: %v", xtxError)
	}

	// If rank == 0, the matrix X is (numerically) all-zero and B = 0.
	rank := svd.Rank(1e-12)
	if rank == 0 {
		return mat.NewDense(m, k, nil), nil
	}
	var B mat.Dense
	svd.SolveTo(&B, Y, rank)
	return &B, nil
}

// Estimate computes the VAR model parameters using OLS
// ts: TimeSeries struct containing the data
// spec: ModelSpec struct containing the model specification
// Returns: ReducedFormVAR struct containing the estimated model
func (e *OLSEstimator) Estimate(ts *TimeSeries, spec ModelSpec) (*ReducedFormVAR, error) {
	if ts == nil || ts.Y == nil {
		return nil, ErrNoData
	}

	T, K := ts.Y.Dims()
	p := spec.Lags

	if p <= 0 {
		return nil, fmt.Errorf("lags must be > 0")
	}
	if T <= p {
		return nil, fmt.Errorf("need at least p+1 observations: p = %d, T = %d", p, T)
	}

	Treg := T - p
	detCols := spec.Deterministic.columns()
	m := detCols + p*K

	// Response matrix Yreg: rows are y_p, y_{p+1}, ..., y_{T-1}
	Yreg := mat.DenseCopyOf(ts.Y.Slice(p, T, 0, K))
	X := designMatrix(ts.Y, p, spec.Deterministic, -1)

	B, err := leastSquares(X, Yreg)
	if err != nil {
		return nil, err
	}

	// Split B into C (deterministic) and A_j's
	var C *mat.Dense
	if detCols > 0 {
		C = mat.NewDense(K, detCols, nil)
		for k := 0; k < K; k++ {
			for d := 0; d < detCols; d++ {
				C.Set(k, d, B.At(d, k))
			}
		}
	}

	A := make([]*mat.Dense, p)
	for j := 0; j < p; j++ {
		Aj := mat.NewDense(K, K, nil)
		rowOffset := detCols + j*K // start row of this lag block in B
		for eq := 0; eq < K; eq++ {
			for colVar := 0; colVar < K; colVar++ {
				Aj.Set(eq, colVar, B.At(rowOffset+colVar, eq))
			}
		}
		A[j] = Aj
	}

	// Residual covariance SigmaU
	var Yhat mat.Dense
	Yhat.Mul(X, B)

	U := mat.NewDense(Treg, K, nil)
	U.Sub(Yreg, &Yhat)

	var utu mat.Dense
	utu.Mul(U.T(), U)

	df := float64(Treg - m)
	if df <= 0 {
		df = float64(Treg) // fallback
	}

	SigmaU := mat.NewSymDense(K, nil)
	for i := 0; i < K; i++ {
		for j := i; j < K; j++ {
			// average the two triangles so SigmaU is exactly symmetric
			SigmaU.SetSym(i, j, 0.5*(utu.At(i, j)+utu.At(j, i))/df)
		}
	}

	names := make([]string, K)
	copy(names, ts.VarNames)

	return &ReducedFormVAR{
		Model:    spec,
		A:        A,
		C:        C,
		SigmaU:   SigmaU,
		U:        U,
		VarNames: names,
	}, nil
}

// fitted returns the deterministic + lag part of equation eq at row t of Y.
func (rf *ReducedFormVAR) fitted(Y mat.Matrix, t, eq int) float64 {
	p := rf.Model.Lags
	K := rf.K()
	val := 0.0

	if rf.C != nil {
		detIdx := 0
		if rf.Model.Deterministic.hasConst() {
			val += rf.C.At(eq, detIdx)
			detIdx++
		}
		if rf.Model.Deterministic.hasTrend() {
			val += rf.C.At(eq, detIdx) * float64(t+1)
		}
	}

	// lag terms: sum_{j=1}^p A_j(eq, :) y_{t-j}
	for j := 1; j <= p; j++ {
		Aj := rf.A[j-1]
		for k := 0; k < K; k++ {
			val += Aj.At(eq, k) * Y.At(t-j, k)
		}
	}
	return val
}

// computeResiduals recomputes residuals U (T-p x K) from a fitted VAR and data ts.
func (rf *ReducedFormVAR) computeResiduals(ts *TimeSeries) (*mat.Dense, error) {
	if ts == nil || ts.Y == nil {
		return nil, ErrNoData
	}
	if err := rf.estimated(); err != nil {
		return nil, err
	}

	T, K := ts.Y.Dims()
	p := rf.Model.Lags
	if T <= p {
		return nil, fmt.Errorf("need at least p+1 observations: p = %d, T = %d", p, T)
	}
	if K != rf.K() {
		return nil, fmt.Errorf("data has %d variables, model has %d", K, rf.K())
	}

	U := mat.NewDense(T-p, K, nil)
	for t := p; t < T; t++ {
		for eq := 0; eq < K; eq++ {
			U.Set(t-p, eq, ts.Y.At(t, eq)-rf.fitted(ts.Y, t, eq))
		}
	}
	return U, nil
}
