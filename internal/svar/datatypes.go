// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package svar

import (
	"errors"
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrNotEstimated = errors.New("svar: VAR model not estimated")
	ErrNoData       = errors.New("svar: time series data not provided")
)

// Simple struct for time series data
type TimeSeries struct {
	// Matrix for data, rows are periods, columns are variables
	Y *mat.Dense
	// Time stamp of each row (decimal years for dated panels)
	Time []float64
	// List of variable Names, in column order
	VarNames []string
}

// What kind of constant to include in the model
type Deterministic int

// Deterministic Constants for VAR
const (
	DetNone Deterministic = iota
	DetConst
	DetTrend
	DetConstTrend
)

func (d Deterministic) String() string {
	switch d {
	case DetNone:
		return "none"
	case DetConst:
		return "const"
	case DetTrend:
		return "trend"
	case DetConstTrend:
		return "const_trend"
	default:
		return fmt.Sprintf("Deterministic(%d)", int(d))
	}
}

// ParseDeterministic maps a config value onto a Deterministic flag.
func ParseDeterministic(s string) (Deterministic, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "":
		return DetNone, nil
	case "const", "constant":
		return DetConst, nil
	case "trend":
		return DetTrend, nil
	case "const_trend", "constant_trend":
		return DetConstTrend, nil
	default:
		return DetNone, fmt.Errorf("unknown deterministic component %q", s)
	}
}

// hasConst / hasTrend report which deterministic columns enter the regression.
func (d Deterministic) hasConst() bool { return d == DetConst || d == DetConstTrend }
func (d Deterministic) hasTrend() bool { return d == DetTrend || d == DetConstTrend }

func (d Deterministic) columns() int {
	n := 0
	if d.hasConst() {
		n++
	}
	if d.hasTrend() {
		n++
	}
	return n
}

// What kind of model to fit
type ModelSpec struct {
	// How many lags?
	Lags int
	// What kind of constant to include
	Deterministic Deterministic
}

// ReducedFormVAR represents the reduced form of a VAR model.
type ReducedFormVAR struct {
	Model ModelSpec

	// Coefficient matrices for each lag A_1, A_2, etc (each KxK matrix)
	A []*mat.Dense

	// Deterministic Terms: constant (Kx1) and/or trend (Kx1) if included
	C *mat.Dense

	// Covariance of residuals (KxK), degrees-of-freedom adjusted
	SigmaU *mat.SymDense

	// Residuals (T-p x K), row t-p holds u_t
	U *mat.Dense

	// Variable names copied from the estimation sample
	VarNames []string
}

// Estimator is the interface for a VAR model estimator.
type Estimator interface {
	// Turns the data we have into a reduced form VAR
	Estimate(ts *TimeSeries, spec ModelSpec) (*ReducedFormVAR, error)
}

// OLSEstimator implements the OLS estimator for VAR models.
type OLSEstimator struct{}

// Identification names a structural identification scheme.
type Identification string

const (
	// IdentCholesky is recursive short-run identification: B0 is the lower
	// Cholesky factor of SigmaU, so variable i does not respond on impact to
	// shocks ordered after it.
	IdentCholesky Identification = "cholesky"
)

func ParseIdentification(s string) (Identification, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cholesky", "ch", "recursive", "":
		return IdentCholesky, nil
	default:
		return "", fmt.Errorf("unsupported identification scheme %q", s)
	}
}

// StructuralVAR is a reduced form plus the impact matrix B0 (u_t = B0 e_t).
type StructuralVAR struct {
	*ReducedFormVAR

	Scheme Identification

	// Impact matrix (KxK). Lower triangular for IdentCholesky.
	B0 *mat.Dense
}

// Options for bootstrap bands
type BootstrapOptions struct {
	// Number of bootstrap replications (e.g., 500–2000)
	NReplications int

	// Horizon (number of periods h = 0,...,H-1)
	Horizon int

	// Confidence level alpha (e.g., 0.05 for 95% CI)
	Alpha float64

	// RNG seed (if 0, time-based seed is used)
	Seed int64

	// Worker goroutines; <= 0 means runtime.NumCPU()
	Workers int
}

// IRFBootstrapResult stores point estimates and CI bands for one shock.
type IRFBootstrapResult struct {
	ShockIndex int     // which structural shock
	Horizon    int     // number of IRF periods
	Alpha      float64 // significance level (e.g. 0.05)

	// Point estimate IRF (horizon x K)
	Point *mat.Dense

	// Median, Lower and Upper bootstrap bands (same dimensions as Point)
	Median *mat.Dense
	Lower  *mat.Dense
	Upper  *mat.Dense
}

// FEVDBootstrapResult stores the variance decomposition of one variable.
// Row h, column j is the share of the (h+1)-step forecast error variance of
// Variable explained by shock j.
type FEVDBootstrapResult struct {
	Variable int
	Horizon  int
	Alpha    float64

	Point  *mat.Dense
	Median *mat.Dense
	Lower  *mat.Dense
	Upper  *mat.Dense
}

// HistDecomp attributes each observation from t = p on to the structural shocks.
type HistDecomp struct {
	VarNames []string

	// First observation index covered (equals the lag order)
	Start int

	// Contribution[j] is (T-p) x K: effect of shock j on every variable
	Contribution []*mat.Dense

	// Baseline is the path with all shocks switched off: initial conditions
	// plus deterministic terms, (T-p) x K
	Baseline *mat.Dense

	// Shocks are the structural shocks e_t, (T-p) x K
	Shocks *mat.Dense

	// Observed data for the same rows
	Observed *mat.Dense
}

// GrangerCausalityResult holds the result of a Granger causality test
type GrangerCausalityResult struct {
	CauseVar    string  // Variable being tested as the cause
	EffectVar   string  // Variable being tested as the effect
	FStatistic  float64 // F-statistic value
	PValue      float64 // P-value
	Lags        int     // Number of lags used
	Significant bool    // True if p-value < 0.05
}

// LagCriteria holds information criteria for one lag order.
type LagCriteria struct {
	Lags int
	AIC  float64
	BIC  float64
	HQ   float64
}

// LagSelection is the outcome of SelectLagOrder.
type LagSelection struct {
	Rows    []LagCriteria
	BestAIC int
	BestBIC int
	BestHQ  int
	// Effective sample size shared by all candidate models
	NObs int
}
