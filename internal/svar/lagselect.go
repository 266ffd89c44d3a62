// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package svar

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// SelectLagOrder fits VAR(1)..VAR(maxLags) on a common sample (the first
// maxLags rows are presample for every candidate) and reports AIC, BIC and HQ
// computed from the maximum likelihood residual covariance.
// A criterion that is not finite for any candidate (singular residual
// covariance) leaves its Best field at 0.
func SelectLagOrder(ts *TimeSeries, maxLags int, det Deterministic) (*LagSelection, error) {
	if ts == nil || ts.Y == nil {
		return nil, ErrNoData
	}
	if maxLags <= 0 {
		return nil, fmt.Errorf("maxLags must be > 0")
	}

	T, K := ts.Y.Dims()
	Teff := T - maxLags
	if Teff <= det.columns()+maxLags*K {
		return nil, fmt.Errorf("not enough observations for %d lags: T = %d, K = %d", maxLags, T, K)
	}

	sel := &LagSelection{NObs: Teff}
	best := [3]float64{math.Inf(1), math.Inf(1), math.Inf(1)}

	est := &OLSEstimator{}
	for p := 1; p <= maxLags; p++ {
		start := maxLags - p
		sub := &TimeSeries{
			Y:        mat.DenseCopyOf(ts.Y.Slice(start, T, 0, K)),
			VarNames: ts.VarNames,
		}
		rf, err := est.Estimate(sub, ModelSpec{Lags: p, Deterministic: det})
		if err != nil {
			return nil, fmt.Errorf("lag %d: %w", p, err)
		}

		var utu mat.Dense
		utu.Mul(rf.U.T(), rf.U)
		sigma := mat.NewSymDense(K, nil)
		for i := 0; i < K; i++ {
			for j := i; j < K; j++ {
				sigma.SetSym(i, j, 0.5*(utu.At(i, j)+utu.At(j, i))/float64(Teff))
			}
		}

		logDet, sign := mat.LogDet(sigma)
		if sign <= 0 {
			logDet = math.Inf(-1)
		}

		n := float64(K * (K*p + det.columns()))
		te := float64(Teff)
		row := LagCriteria{
			Lags: p,
			AIC:  logDet + 2*n/te,
			BIC:  logDet + math.Log(te)*n/te,
			HQ:   logDet + 2*math.Log(math.Log(te))*n/te,
		}
		sel.Rows = append(sel.Rows, row)

		for c, v := range [3]float64{row.AIC, row.BIC, row.HQ} {
			if math.IsInf(v, 0) || math.IsNaN(v) || v >= best[c] {
				continue
			}
			best[c] = v
			switch c {
			case 0:
				sel.BestAIC = p
			case 1:
				sel.BestBIC = p
			case 2:
				sel.BestHQ = p
			}
		}
	}
	return sel, nil
}
