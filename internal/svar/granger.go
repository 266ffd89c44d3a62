// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package svar

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// GrangerCausality tests whether the lags of causeIdx help predict effectIdx.
// The unrestricted fit reuses the estimated equation; the restricted fit drops
// all p lags of causeIdx. Returns the F-statistic and p-value.
func (rf *ReducedFormVAR) GrangerCausality(ts *TimeSeries, causeIdx, effectIdx int) (*GrangerCausalityResult, error) {
	if ts == nil || ts.Y == nil {
		return nil, ErrNoData
	}
	if err := rf.estimated(); err != nil {
		return nil, err
	}

	T, K := ts.Y.Dims()
	p := rf.Model.Lags

	if causeIdx < 0 || causeIdx >= K {
		return nil, fmt.Errorf("causeIdx out of range: %d", causeIdx)
	}
	if effectIdx < 0 || effectIdx >= K {
		return nil, fmt.Errorf("effectIdx out of range: %d", effectIdx)
	}
	if causeIdx == effectIdx {
		return nil, fmt.Errorf("causeIdx and effectIdx cannot be the same")
	}

	Treg := T - p
	if Treg <= 0 {
		return nil, fmt.Errorf("not enough observations for lags p = %d, T = %d", p, T)
	}

	// Unrestricted RSS from the fitted equation
	U, err := rf.computeResiduals(ts)
	if err != nil {
		return nil, err
	}
	uEffect := mat.Col(nil, effectIdx, U)
	rssUnrestricted := 0.0
	for _, u := range uEffect {
		rssUnrestricted += u * u
	}

	// Restricted: same deterministics, lags of the cause variable left out
	yEffect := mat.NewDense(Treg, 1, mat.Col(nil, effectIdx, ts.Y.Slice(p, T, 0, K)))
	XRestricted := designMatrix(ts.Y, p, rf.Model.Deterministic, causeIdx)
	betaRestricted, err := leastSquares(XRestricted, yEffect)
	if err != nil {
		return nil, fmt.Errorf("restricted %w", err)
	}

	var yHat, resid mat.Dense
	yHat.Mul(XRestricted, betaRestricted)
	resid.Sub(yEffect, &yHat)
	rssRestricted := mat.Norm(&resid, 2)
	rssRestricted *= rssRestricted

	q := float64(p)
	k := float64(rf.Model.Deterministic.columns() + p*K)
	dof := float64(Treg) - k
	if dof <= 0 {
		return nil, fmt.Errorf("insufficient degrees of freedom: %f", dof)
	}

	// rssRestricted >= rssUnrestricted up to rounding
	num := math.Max(rssRestricted-rssUnrestricted, 0)
	den := rssUnrestricted / dof

	fStatistic, pValue := 0.0, 1.0
	if den > 0 && num > 0 {
		fStatistic = (num / q) / den
		if fStatistic <= 0 || math.IsNaN(fStatistic) || math.IsInf(fStatistic, 0) {
			fStatistic = 0
		} else {
			fDist := distuv.F{D1: q, D2: dof}
			pValue = 1.0 - fDist.CDF(fStatistic)
		}
	}
	pValue = math.Min(math.Max(pValue, 0), 1)

	return &GrangerCausalityResult{
		CauseVar:    varName(ts.VarNames, causeIdx),
		EffectVar:   varName(ts.VarNames, effectIdx),
		FStatistic:  fStatistic,
		PValue:      pValue,
		Lags:        p,
		Significant: pValue < 0.05,
	}, nil
}

// GrangerCausalityMatrix performs pairwise Granger causality tests for all variables.
// Returns: K x K matrix where result[i][j] tests i -> j; the diagonal is nil.
func (rf *ReducedFormVAR) GrangerCausalityMatrix(ts *TimeSeries) ([][]*GrangerCausalityResult, error) {
	if ts == nil || ts.Y == nil {
		return nil, ErrNoData
	}

	_, K := ts.Y.Dims()

	results := make([][]*GrangerCausalityResult, K)
	for i := range results {
		results[i] = make([]*GrangerCausalityResult, K)
	}

	for i := 0; i < K; i++ {
		for j := 0; j < K; j++ {
			if i == j {
				continue
			}
			result, err := rf.GrangerCausality(ts, i, j)
			if err != nil {
				return nil, fmt.Errorf("error testing %s -> %s: %w", varName(ts.VarNames, i), varName(ts.VarNames, j), err)
			}
			results[i][j] = result
		}
	}

	return results, nil
}

func varName(names []string, i int) string {
	if i < len(names) && names[i] != "" {
		return names[i]
	}
	return fmt.Sprintf("y%d", i+1)
}
