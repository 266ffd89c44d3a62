// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package series

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// DetrendMethod picks how the output cycle is extracted.
type DetrendMethod string

const (
	// DetrendLinear removes an OLS linear time trend.
	DetrendLinear DetrendMethod = "linear"
	// DetrendSmoothingFilter removes a two-sided Hodrick-Prescott trend.
	DetrendSmoothingFilter DetrendMethod = "smoothing-filter"
)

// DefaultHPLambda is the conventional smoothing parameter for quarterly data.
const DefaultHPLambda = 1600.0

func ParseDetrendMethod(s string) (DetrendMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "linear":
		return DetrendLinear, nil
	case "smoothing-filter", "hp", "hpfilter":
		return DetrendSmoothingFilter, nil
	default:
		return "", fmt.Errorf("unknown detrend method %q (want linear or smoothing-filter)", s)
	}
}

// Detrend splits s into trend and cycle with s == trend + cycle.
// lambda is only used by the smoothing filter; <= 0 means DefaultHPLambda.
func Detrend(s Series, method DetrendMethod, lambda float64) (trend, cycle Series, err error) {
	if s.Len() == 0 {
		return Series{}, Series{}, ErrEmptySeries
	}
	y := s.Values()

	var tau []float64
	switch method {
	case DetrendLinear:
		tau = linearTrend(y)
	case DetrendSmoothingFilter:
		if lambda <= 0 {
			lambda = DefaultHPLambda
		}
		tau, err = hpTrend(y, lambda)
		if err != nil {
			return Series{}, Series{}, fmt.Errorf("detrend %s: %w", s.ID, err)
		}
	default:
		return Series{}, Series{}, fmt.Errorf("detrend %s: unknown method %q", s.ID, method)
	}

	trend = Series{ID: s.ID + "_trend", Obs: make([]Observation, len(y))}
	cycle = Series{ID: s.ID + "_cycle", Obs: make([]Observation, len(y))}
	for i, o := range s.Obs {
		trend.Obs[i] = Observation{Date: o.Date, Value: tau[i]}
		cycle.Obs[i] = Observation{Date: o.Date, Value: y[i] - tau[i]}
	}
	return trend, cycle, nil
}

// linearTrend fits y = a + b*t by OLS and returns the fitted values.
func linearTrend(y []float64) []float64 {
	n := len(y)
	if n == 1 {
		return []float64{y[0]}
	}
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}
	a, b := stat.LinearRegression(x, y, nil, false)

	out := make([]float64, n)
	for i := range out {
		out[i] = a + b*x[i]
	}
	return out
}

// hpTrend solves (I + lambda*D'D) tau = y, where D is the (n-2) x n second
// difference operator. The system is symmetric positive definite with
// bandwidth 2, so a band Cholesky does it in O(n).
func hpTrend(y []float64, lambda float64) ([]float64, error) {
	n := len(y)
	if n < 3 {
		out := make([]float64, n)
		copy(out, y)
		return out, nil
	}

	const bw = 2
	// upper band of I + lambda*D'D, band[i][d] = A[i][i+d]
	band := make([][bw + 1]float64, n)
	for i := range band {
		band[i][0] = 1
	}
	coef := [3]float64{1, -2, 1}
	for r := 0; r < n-2; r++ {
		for a := 0; a < 3; a++ {
			for b := a; b < 3; b++ {
				band[r+a][b-a] += lambda * coef[a] * coef[b]
			}
		}
	}

	A := mat.NewSymBandDense(n, bw, nil)
	for i := 0; i < n; i++ {
		for d := 0; d <= bw && i+d < n; d++ {
			A.SetSymBand(i, i+d, band[i][d])
		}
	}

	var chol mat.BandCholesky
	if ok := chol.Factorize(A); !ok {
		return nil, fmt.Errorf("hp filter: system not positive definite (lambda=%g)", lambda)
	}

	var tau mat.VecDense
	if err := chol.SolveVecTo(&tau, mat.NewVecDense(n, append([]float64(nil), y...))); err != nil {
		return nil, fmt.Errorf("hp filter: solve: %w", err)
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = tau.AtVec(i)
	}
	return out, nil
}
