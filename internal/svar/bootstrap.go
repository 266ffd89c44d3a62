// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package svar

import (
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"
)

// Defaults applied by withDefaults.
const (
	DefaultReplications = 500
	DefaultHorizon      = 40
	DefaultAlpha        = 0.05
)

func (o BootstrapOptions) withDefaults() BootstrapOptions {
	if o.NReplications <= 0 {
		o.NReplications = DefaultReplications
	}
	if o.Horizon <= 0 {
		o.Horizon = DefaultHorizon
	}
	if o.Alpha <= 0 || o.Alpha >= 1 {
		o.Alpha = DefaultAlpha
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU()
	}
	if o.Workers > o.NReplications {
		o.Workers = o.NReplications
	}
	return o
}

// simulateBootstrapSeries generates a bootstrap sample Y* of the same length as ts,
// using the fitted VAR coefficients and residuals resU (T-p x K), where each row
// is a residual vector. We resample rows of resU with replacement.
func (rf *ReducedFormVAR) simulateBootstrapSeries(
	ts *TimeSeries,
	resU *mat.Dense,
	rng *rand.Rand,
) (*TimeSeries, error) {

	if ts == nil || ts.Y == nil {
		return nil, ErrNoData
	}
	if err := rf.estimated(); err != nil {
		return nil, err
	}

	T, K := ts.Y.Dims()
	p := rf.Model.Lags
	if T <= p {
		return nil, fmt.Errorf("need at least p+1 observations: p = %d, T = %d", p, T)
	}

	Treg, kRes := resU.Dims()
	if Treg != T-p || kRes != K {
		return nil, fmt.Errorf("residual matrix has wrong shape: got %dx%d, expected %dx%d",
			Treg, kRes, T-p, K)
	}

	Ystar := mat.NewDense(T, K, nil)

	// Copy the first p observations from original data
	Ystar.Slice(0, p, 0, K).(*mat.Dense).Copy(ts.Y.Slice(0, p, 0, K))

	// Simulate t = p,...,T-1 with a resampled residual row
	for t := p; t < T; t++ {
		idx := rng.Intn(Treg)
		for eq := 0; eq < K; eq++ {
			Ystar.Set(t, eq, rf.fitted(Ystar, t, eq)+resU.At(idx, eq))
		}
	}

	times := make([]float64, T)
	if len(ts.Time) == T {
		copy(times, ts.Time)
	} else {
		for i := 0; i < T; i++ {
			times[i] = float64(i)
		}
	}

	return &TimeSeries{
		Y:        Ystar,
		Time:     times,
		VarNames: ts.VarNames,
	}, nil
}

// bootstrapQuantile returns the empirical q-quantile of samples (0 <= q <= 1)
// using linear interpolation between order statistics.
func bootstrapQuantile(samples []float64, q float64) float64 {
	n := len(samples)
	if n == 0 {
		return math.NaN()
	}

	tmp := make([]float64, n)
	copy(tmp, samples)
	sort.Float64s(tmp)

	if q <= 0 {
		return tmp[0]
	}
	if q >= 1 {
		return tmp[n-1]
	}

	pos := q * float64(n-1)
	idxBelow := int(math.Floor(pos))
	idxAbove := int(math.Ceil(pos))

	if idxAbove == idxBelow {
		return tmp[idxBelow]
	}

	weight := pos - float64(idxBelow)
	return tmp[idxBelow]*(1.0-weight) + tmp[idxAbove]*weight
}

// replicationStat maps a structural model fitted on a bootstrap sample to a
// fixed number of equally sized matrices.
type replicationStat func(sv *StructuralVAR) ([]*mat.Dense, error)

// replication is the outcome of one bootstrap draw.
type replication struct {
	index int
	mats  []*mat.Dense
	err   error
}

// bootstrap runs opts.NReplications residual bootstrap draws in a worker pool:
// simulate Y*, re-estimate, re-identify, evaluate stat. Each draw owns its RNG,
// seeded from a master RNG, so results do not depend on scheduling.
// Returns draws[b][i], the i-th matrix of draw b.
func (sv *StructuralVAR) bootstrap(ts *TimeSeries, opts BootstrapOptions, stat replicationStat) ([][]*mat.Dense, error) {
	resU, err := sv.computeResiduals(ts)
	if err != nil {
		return nil, fmt.Errorf("failed to compute residuals: %w", err)
	}

	masterRng := rand.New(rand.NewSource(opts.Seed))
	seeds := make([]int64, opts.NReplications)
	for i := range seeds {
		seeds[i] = masterRng.Int63()
	}

	jobs := make(chan int)
	resultsCh := make(chan replication, opts.NReplications)

	var wg sync.WaitGroup
	wg.Add(opts.Workers)

	worker := func() {
		defer wg.Done()
		for b := range jobs {
			rng := rand.New(rand.NewSource(seeds[b]))
			rep := replication{index: b}

			tsStar, errSim := sv.simulateBootstrapSeries(ts, resU, rng)
			if errSim != nil {
				rep.err = fmt.Errorf("bootstrap %d: simulate failed: %w", b, errSim)
				resultsCh <- rep
				continue
			}
			bootRF, errEst := (&OLSEstimator{}).Estimate(tsStar, sv.Model)
			if errEst != nil {
				rep.err = fmt.Errorf("bootstrap %d: VAR estimation failed: %w", b, errEst)
				resultsCh <- rep
				continue
			}
			bootSV, errID := bootRF.Identify(sv.Scheme)
			if errID != nil {
				rep.err = fmt.Errorf("bootstrap %d: %w", b, errID)
				resultsCh <- rep
				continue
			}
			rep.mats, rep.err = stat(bootSV)
			if rep.err != nil {
				rep.err = fmt.Errorf("bootstrap %d: %w", b, rep.err)
			}
			resultsCh <- rep
		}
	}

	for w := 0; w < opts.Workers; w++ {
		go worker()
	}

	go func() {
		for b := 0; b < opts.NReplications; b++ {
			jobs <- b
		}
		close(jobs)
	}()

	draws := make([][]*mat.Dense, opts.NReplications)
	var firstErr error
	for i := 0; i < opts.NReplications; i++ {
		rep := <-resultsCh
		if rep.err != nil {
			if firstErr == nil {
				firstErr = rep.err
			}
			continue
		}
		draws[rep.index] = rep.mats
	}

	wg.Wait()
	close(resultsCh)

	if firstErr != nil {
		return nil, firstErr
	}
	return draws, nil
}

// bands summarizes draws[b][i] into element-wise median, lower and upper
// quantiles for matrix i.
func bands(draws [][]*mat.Dense, i int, alpha float64) (median, lower, upper *mat.Dense) {
	r, c := draws[0][i].Dims()
	median = mat.NewDense(r, c, nil)
	lower = mat.NewDense(r, c, nil)
	upper = mat.NewDense(r, c, nil)

	lowerQ := alpha / 2.0
	upperQ := 1.0 - alpha/2.0

	samples := make([]float64, len(draws))
	for h := 0; h < r; h++ {
		for j := 0; j < c; j++ {
			for b := range draws {
				samples[b] = draws[b][i].At(h, j)
			}
			median.Set(h, j, bootstrapQuantile(samples, 0.5))
			lower.Set(h, j, bootstrapQuantile(samples, lowerQ))
			upper.Set(h, j, bootstrapQuantile(samples, upperQ))
		}
	}
	return median, lower, upper
}

// BootstrapResponses runs one residual bootstrap and summarizes both the
// IRFs (one result per shock) and the FEVDs (one result per variable) of
// every draw. Each result holds the point estimate, the bootstrap median and
// the (alpha/2, 1-alpha/2) bands.
func (sv *StructuralVAR) BootstrapResponses(ts *TimeSeries, opts BootstrapOptions) ([]*IRFBootstrapResult, []*FEVDBootstrapResult, error) {
	if ts == nil || ts.Y == nil {
		return nil, nil, ErrNoData
	}
	if sv == nil || sv.B0 == nil {
		return nil, nil, ErrNotEstimated
	}
	opts = opts.withDefaults()
	H := opts.Horizon

	pointIRF, err := sv.IRFs(H)
	if err != nil {
		return nil, nil, fmt.Errorf("IRF failed on original model: %w", err)
	}
	pointFEVD, err := sv.FEVD(H)
	if err != nil {
		return nil, nil, err
	}
	K := len(pointIRF)

	// draws[b] holds the K IRFs followed by the K FEVDs of draw b
	draws, err := sv.bootstrap(ts, opts, func(b *StructuralVAR) ([]*mat.Dense, error) {
		irfs, err := b.IRFs(H)
		if err != nil {
			return nil, err
		}
		fevd, err := b.FEVD(H)
		if err != nil {
			return nil, err
		}
		return append(irfs, fevd...), nil
	})
	if err != nil {
		return nil, nil, err
	}

	irf := make([]*IRFBootstrapResult, K)
	for shockIdx := range irf {
		med, lo, hi := bands(draws, shockIdx, opts.Alpha)
		irf[shockIdx] = &IRFBootstrapResult{
			ShockIndex: shockIdx,
			Horizon:    H,
			Alpha:      opts.Alpha,
			Point:      pointIRF[shockIdx],
			Median:     med,
			Lower:      lo,
			Upper:      hi,
		}
	}
	fevd := make([]*FEVDBootstrapResult, K)
	for v := range fevd {
		med, lo, hi := bands(draws, K+v, opts.Alpha)
		fevd[v] = &FEVDBootstrapResult{
			Variable: v,
			Horizon:  H,
			Alpha:    opts.Alpha,
			Point:    pointFEVD[v],
			Median:   med,
			Lower:    lo,
			Upper:    hi,
		}
	}
	return irf, fevd, nil
}
