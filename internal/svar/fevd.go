// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package svar

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// FEVD returns the forecast error variance decomposition, one horizon x K
// matrix per variable. Row h of result[i] holds the shares of the (h+1)-step
// forecast error variance of variable i due to each structural shock and sums
// to one. A variable with zero forecast error variance gets all-zero shares.
func (sv *StructuralVAR) FEVD(horizon int) ([]*mat.Dense, error) {
	if sv == nil || sv.B0 == nil {
		return nil, ErrNotEstimated
	}
	if err := sv.estimated(); err != nil {
		return nil, err
	}
	if horizon <= 0 {
		return nil, fmt.Errorf("horizon must be > 0")
	}

	K := sv.K()
	Theta := sv.structuralMA(horizon)

	out := make([]*mat.Dense, K)
	for i := range out {
		out[i] = mat.NewDense(horizon, K, nil)
	}

	// cum[i][j] = sum_{s<=h} Theta_s(i,j)^2
	cum := make([][]float64, K)
	for i := range cum {
		cum[i] = make([]float64, K)
	}
	for h := 0; h < horizon; h++ {
		for i := 0; i < K; i++ {
			total := 0.0
			for j := 0; j < K; j++ {
				v := Theta[h].At(i, j)
				cum[i][j] += v * v
				total += cum[i][j]
			}
			if total == 0 {
				continue
			}
			for j := 0; j < K; j++ {
				out[i].Set(h, j, cum[i][j]/total)
			}
		}
	}
	return out, nil
}
