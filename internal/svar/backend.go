// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package svar

import (
	"fmt"
	"sync"
)

// Backend is the estimation surface the pipeline drives. The pipeline only
// hands it a column-ordered TimeSeries and reads results back.
type Backend interface {
	// Estimate fits the reduced form VAR.
	Estimate(ts *TimeSeries, spec ModelSpec) (*ReducedFormVAR, error)
	// Identify attaches the structural impact matrix.
	Identify(rf *ReducedFormVAR, scheme Identification) (*StructuralVAR, error)
	// ImpulseResponse returns bootstrap IRFs indexed by shock.
	ImpulseResponse(sv *StructuralVAR, ts *TimeSeries, opts BootstrapOptions) ([]*IRFBootstrapResult, error)
	// HistoricalDecomposition attributes observed movements to shocks.
	HistoricalDecomposition(sv *StructuralVAR, ts *TimeSeries) (*HistDecomp, error)
	// VarianceDecomposition returns bootstrap FEVDs indexed by variable.
	VarianceDecomposition(sv *StructuralVAR, ts *TimeSeries, opts BootstrapOptions) ([]*FEVDBootstrapResult, error)
}

// GonumBackend implements Backend with the OLS estimator in this package.
// ImpulseResponse and VarianceDecomposition share one bootstrap pass: the
// last result is kept and reused for the same model, sample and options.
type GonumBackend struct {
	Estimator Estimator

	mu   sync.Mutex
	last *bootstrapRun
}

type bootstrapKey struct {
	sv   *StructuralVAR
	ts   *TimeSeries
	opts BootstrapOptions
}

type bootstrapRun struct {
	key  bootstrapKey
	irf  []*IRFBootstrapResult
	fevd []*FEVDBootstrapResult
}

var _ Backend = (*GonumBackend)(nil)

// NewGonumBackend returns a backend using OLSEstimator.
func NewGonumBackend() *GonumBackend {
	return &GonumBackend{Estimator: &OLSEstimator{}}
}

func (b *GonumBackend) Estimate(ts *TimeSeries, spec ModelSpec) (*ReducedFormVAR, error) {
	est := b.Estimator
	if est == nil {
		est = &OLSEstimator{}
	}
	rf, err := est.Estimate(ts, spec)
	if err != nil {
		return nil, fmt.Errorf("estimate: %w", err)
	}
	return rf, nil
}

func (b *GonumBackend) Identify(rf *ReducedFormVAR, scheme Identification) (*StructuralVAR, error) {
	return rf.Identify(scheme)
}

// responses returns the bootstrap for key, running it only when the cached
// one belongs to another model, sample or set of options.
func (b *GonumBackend) responses(sv *StructuralVAR, ts *TimeSeries, opts BootstrapOptions) (*bootstrapRun, error) {
	key := bootstrapKey{sv: sv, ts: ts, opts: opts}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last != nil && b.last.key == key {
		return b.last, nil
	}
	irf, fevd, err := sv.BootstrapResponses(ts, opts)
	if err != nil {
		return nil, err
	}
	b.last = &bootstrapRun{key: key, irf: irf, fevd: fevd}
	return b.last, nil
}

func (b *GonumBackend) ImpulseResponse(sv *StructuralVAR, ts *TimeSeries, opts BootstrapOptions) ([]*IRFBootstrapResult, error) {
	run, err := b.responses(sv, ts, opts)
	if err != nil {
		return nil, fmt.Errorf("impulse response: %w", err)
	}
	return run.irf, nil
}

func (b *GonumBackend) HistoricalDecomposition(sv *StructuralVAR, ts *TimeSeries) (*HistDecomp, error) {
	return sv.HistoricalDecomposition(ts)
}

func (b *GonumBackend) VarianceDecomposition(sv *StructuralVAR, ts *TimeSeries, opts BootstrapOptions) ([]*FEVDBootstrapResult, error) {
	run, err := b.responses(sv, ts, opts)
	if err != nil {
		return nil, fmt.Errorf("variance decomposition: %w", err)
	}
	return run.fevd, nil
}
