// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package svar

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// structuralShocks recovers e_t from u_t = B0 e_t for every residual row.
// Falls back to the minimum-norm solution when B0 is singular.
func (sv *StructuralVAR) structuralShocks(U *mat.Dense) (*mat.Dense, error) {
	K := sv.K()

	var Ut mat.Dense
	Ut.CloneFrom(U.T())

	_, n := Ut.Dims()
	Et := mat.NewDense(K, n, nil)
	var inv mat.Dense
	if err := inv.Inverse(sv.B0); err == nil {
		Et.Mul(&inv, &Ut)
	} else {
		var svd mat.SVD
		if ok := svd.Factorize(sv.B0, mat.SVDFullU|mat.SVDFullV); !ok {
			return nil, fmt.Errorf("impact matrix singular and SVD factorization failed: %v", err)
		}
		// rank 0 leaves all shocks at zero
		if rank := svd.Rank(1e-12); rank > 0 {
			Et.Reset()
			svd.SolveTo(Et, &Ut, rank)
		}
	}

	var E mat.Dense
	E.CloneFrom(Et.T())
	return &E, nil
}

// HistoricalDecomposition splits each observation from t = p on into a
// baseline (initial conditions plus deterministic terms, no shocks) and the
// accumulated contribution of each structural shock:
//
//	y_t = baseline_t + sum_j sum_{s=0}^{t-p} Theta_s(:, j) e_{t-s, j}
func (sv *StructuralVAR) HistoricalDecomposition(ts *TimeSeries) (*HistDecomp, error) {
	if ts == nil || ts.Y == nil {
		return nil, ErrNoData
	}
	if sv == nil || sv.B0 == nil {
		return nil, ErrNotEstimated
	}

	U, err := sv.computeResiduals(ts)
	if err != nil {
		return nil, err
	}
	E, err := sv.structuralShocks(U)
	if err != nil {
		return nil, fmt.Errorf("historical decomposition: %w", err)
	}

	T, K := ts.Y.Dims()
	p := sv.Model.Lags
	n := T - p

	Theta := sv.structuralMA(n)

	contrib := make([]*mat.Dense, K)
	for j := 0; j < K; j++ {
		Cj := mat.NewDense(n, K, nil)
		for r := 0; r < n; r++ {
			for i := 0; i < K; i++ {
				v := 0.0
				for s := 0; s <= r; s++ {
					v += Theta[s].At(i, j) * E.At(r-s, j)
				}
				Cj.Set(r, i, v)
			}
		}
		contrib[j] = Cj
	}

	// zero-shock path from the first p observations
	path := mat.NewDense(T, K, nil)
	path.Slice(0, p, 0, K).(*mat.Dense).Copy(ts.Y.Slice(0, p, 0, K))
	for t := p; t < T; t++ {
		for eq := 0; eq < K; eq++ {
			path.Set(t, eq, sv.fitted(path, t, eq))
		}
	}

	names := make([]string, K)
	copy(names, sv.VarNames)

	return &HistDecomp{
		VarNames:     names,
		Start:        p,
		Contribution: contrib,
		Baseline:     mat.DenseCopyOf(path.Slice(p, T, 0, K)),
		Shocks:       E,
		Observed:     mat.DenseCopyOf(ts.Y.Slice(p, T, 0, K)),
	}, nil
}

// Reconstruct returns baseline plus all shock contributions. For an
// invertible impact matrix it reproduces Observed up to rounding.
func (hd *HistDecomp) Reconstruct() *mat.Dense {
	var out mat.Dense
	out.CloneFrom(hd.Baseline)
	for _, c := range hd.Contribution {
		out.Add(&out, c)
	}
	return &out
}
