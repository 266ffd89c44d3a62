// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package svar

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Forecast produces multi-step ahead forecasts given the historical data of yHist.
// yHist: T x K (rows: time, cols: variables). Only last p rows are used as lags.
// The trend term continues the 1-based index of yHist, so yHist should be the
// estimation sample when the model has a trend.
// Returns: steps x K matrix of forecasts
func (rf *ReducedFormVAR) Forecast(yHist *mat.Dense, steps int) (*mat.Dense, error) {
	if err := rf.estimated(); err != nil {
		return nil, err
	}
	if yHist == nil {
		return nil, ErrNoData
	}
	if steps <= 0 {
		return nil, fmt.Errorf("steps must be > 0")
	}

	p := rf.Model.Lags
	T, K := yHist.Dims()
	if T < p {
		return nil, fmt.Errorf("need at least %d rows in yHist, got %d", p, T)
	}
	if K != rf.K() {
		return nil, fmt.Errorf("yHist has %d variables, model has %d", K, rf.K())
	}

	// out holds the last p observed rows followed by the forecasts, so fitted()
	// can read lags from a single matrix. Row r of out is period T-p+r.
	totalRows := p + steps
	out := mat.NewDense(totalRows, K, nil)
	out.Slice(0, p, 0, K).(*mat.Dense).Copy(yHist.Slice(T-p, T, 0, K))

	shift := T - p
	for step := 0; step < steps; step++ {
		row := p + step
		for eq := 0; eq < K; eq++ {
			out.Set(row, eq, rf.fittedAt(out, row, eq, row+shift))
		}
	}

	// Returns only the forecasted rows
	return mat.DenseCopyOf(out.Slice(p, totalRows, 0, K)), nil
}

// fittedAt is fitted with the trend evaluated at period index tIdx instead of row t.
func (rf *ReducedFormVAR) fittedAt(Y mat.Matrix, t, eq, tIdx int) float64 {
	val := rf.fitted(Y, t, eq)
	if rf.C != nil && rf.Model.Deterministic.hasTrend() {
		trendCol := 0
		if rf.Model.Deterministic.hasConst() {
			trendCol = 1
		}
		val += rf.C.At(eq, trendCol) * float64(tIdx-t)
	}
	return val
}
