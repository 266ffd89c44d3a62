// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package svar

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Identify attaches an impact matrix to a reduced form.
// Only recursive (Cholesky) identification is supported: the column order of
// the data is the causal ordering.
func (rf *ReducedFormVAR) Identify(scheme Identification) (*StructuralVAR, error) {
	if err := rf.estimated(); err != nil {
		return nil, err
	}
	if rf.SigmaU == nil {
		return nil, fmt.Errorf("identify: residual covariance missing")
	}

	switch scheme {
	case IdentCholesky, "":
		B0, err := lowerCholesky(rf.SigmaU)
		if err != nil {
			return nil, fmt.Errorf("identify: %w", err)
		}
		return &StructuralVAR{ReducedFormVAR: rf, Scheme: IdentCholesky, B0: B0}, nil
	default:
		return nil, fmt.Errorf("identify: unsupported scheme %q", scheme)
	}
}

// lowerCholesky returns L with S = L L'. When S is only positive semi-definite
// (a residual that is identically zero, say) the matching column of L is set
// to zero. Entries above the diagonal are exactly zero in both paths.
func lowerCholesky(S *mat.SymDense) (*mat.Dense, error) {
	K := S.SymmetricDim()

	var chol mat.Cholesky
	if chol.Factorize(S) {
		var L mat.TriDense
		chol.LTo(&L)
		out := mat.NewDense(K, K, nil)
		for i := 0; i < K; i++ {
			for j := 0; j <= i; j++ {
				out.Set(i, j, L.At(i, j))
			}
		}
		return out, nil
	}

	maxDiag := 0.0
	for i := 0; i < K; i++ {
		if d := S.At(i, i); d > maxDiag {
			maxDiag = d
		}
	}
	tol := 1e-12 * maxDiag

	L := mat.NewDense(K, K, nil)
	for j := 0; j < K; j++ {
		d := S.At(j, j)
		for k := 0; k < j; k++ {
			d -= L.At(j, k) * L.At(j, k)
		}
		if d < -math.Max(tol, 1e-14) {
			return nil, fmt.Errorf("covariance matrix is not positive semi-definite")
		}
		if d <= tol {
			// degenerate direction, column j stays zero
			continue
		}
		ljj := math.Sqrt(d)
		L.Set(j, j, ljj)
		for i := j + 1; i < K; i++ {
			v := S.At(i, j)
			for k := 0; k < j; k++ {
				v -= L.At(i, k) * L.At(j, k)
			}
			L.Set(i, j, v/ljj)
		}
	}
	return L, nil
}
