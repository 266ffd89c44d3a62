// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package svar

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// maCoefficients returns the moving-average matrices Psi_0..Psi_{horizon-1}
// of the reduced form, Psi_0 = I and Psi_h = sum_j A_j Psi_{h-j}.
func (rf *ReducedFormVAR) maCoefficients(horizon int) []*mat.Dense {
	K := rf.K()
	p := rf.Model.Lags

	Psi := make([]*mat.Dense, horizon)

	Idata := make([]float64, K*K)
	for i := 0; i < K; i++ {
		Idata[i*K+i] = 1.0
	}
	Psi[0] = mat.NewDense(K, K, Idata)

	for h := 1; h < horizon; h++ {
		M := mat.NewDense(K, K, nil)
		maxLag := p
		if h < p {
			maxLag = h
		}
		for j := 1; j <= maxLag; j++ {
			var tmp mat.Dense
			tmp.Mul(rf.A[j-1], Psi[h-j]) // A_j * Psi_{h-j}
			M.Add(M, &tmp)
		}
		Psi[h] = M
	}
	return Psi
}

// structuralMA returns Theta_h = Psi_h * B0 for h = 0..horizon-1.
// Theta_h(i, j) is the response of variable i to shock j after h periods.
func (sv *StructuralVAR) structuralMA(horizon int) []*mat.Dense {
	Psi := sv.maCoefficients(horizon)
	Theta := make([]*mat.Dense, horizon)
	for h := range Psi {
		var th mat.Dense
		th.Mul(Psi[h], sv.B0)
		Theta[h] = &th
	}
	return Theta
}

// IRF computes impulse responses to a one standard deviation structural shock.
// Horizon: number of periods to compute (h=0, ..., horizon-1)
// shockIndex: index of the structural shock, (0-based)
// Returns: horizon x K matrix. where row h is response of all K vars at horizon h
func (sv *StructuralVAR) IRF(horizon int, shockIndex int) (*mat.Dense, error) {
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
	if shockIndex < 0 || shockIndex >= K {
		return nil, fmt.Errorf("shockIndex must be between 0 and %d", K-1)
	}

	Psi := sv.maCoefficients(horizon)
	shockVec := mat.NewVecDense(K, mat.Col(nil, shockIndex, sv.B0))

	irf := mat.NewDense(horizon, K, nil)
	for h := 0; h < horizon; h++ {
		var resp mat.VecDense
		resp.MulVec(Psi[h], shockVec)
		irf.SetRow(h, resp.RawVector().Data)
	}
	return irf, nil
}

// IRFs computes the responses to every structural shock, indexed by shock.
func (sv *StructuralVAR) IRFs(horizon int) ([]*mat.Dense, error) {
	out := make([]*mat.Dense, sv.K())
	for j := range out {
		irf, err := sv.IRF(horizon, j)
		if err != nil {
			return nil, err
		}
		out[j] = irf
	}
	return out, nil
}
