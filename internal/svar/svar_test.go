// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package svar

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"gonum.org/v1/gonum/mat"
)

// ============================================================================
// HELPER FUNCTIONS
// ============================================================================

// almostEqual compares floats with tolerance
func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// ReadDirectory reads all files in a directory
func ReadDirectory(directory string) []os.DirEntry {
	files, err := os.ReadDir(directory)
	if err != nil {
		panic(fmt.Sprintf("Error reading directory %s: %v", directory, err))
	}
	return files
}

// skipComments reads lines from scanner, skipping comment lines starting with #
func skipComments(scanner *bufio.Scanner) string {
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			return line
		}
	}
	return ""
}

// readFloats returns every non-comment line of file parsed as a float.
func readFloats(file string) []float64 {
	f, err := os.Open(file)
	if err != nil {
		panic(err)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	var results []float64
	for {
		line := skipComments(scanner)
		if line == "" {
			break
		}
		val, err := strconv.ParseFloat(line, 64)
		if err != nil {
			panic(fmt.Sprintf("Error parsing %q in %s: %v", line, file, err))
		}
		results = append(results, val)
	}
	return results
}

// simulateVAR draws T observations from y_t = c + sum_j A_j y_{t-j} + sd*eps_t
// with a fixed seed.
func simulateVAR(A []*mat.Dense, c []float64, T int, sd float64, seed int64) *TimeSeries {
	K, _ := A[0].Dims()
	p := len(A)
	rng := rand.New(rand.NewSource(seed))

	Y := mat.NewDense(T, K, nil)
	for t := 0; t < T; t++ {
		for i := 0; i < K; i++ {
			v := sd * rng.NormFloat64()
			if c != nil {
				v += c[i]
			}
			for j := 1; j <= p && t-j >= 0; j++ {
				for k := 0; k < K; k++ {
					v += A[j-1].At(i, k) * Y.At(t-j, k)
				}
			}
			Y.Set(t, i, v)
		}
	}

	names := make([]string, K)
	times := make([]float64, T)
	for i := range names {
		names[i] = fmt.Sprintf("v%d", i)
	}
	for t := range times {
		times[t] = 1960 + float64(t)/4
	}
	return &TimeSeries{Y: Y, Time: times, VarNames: names}
}

func testA1() *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0.5, 0.1, 0.0,
		0.2, 0.4, 0.0,
		0.1, 0.1, 0.3,
	})
}

func fittedSVAR(t *testing.T, T int, seed int64) (*StructuralVAR, *TimeSeries) {
	t.Helper()
	ts := simulateVAR([]*mat.Dense{testA1()}, []float64{0.1, 0.2, 0.0}, T, 1.0, seed)
	rf, err := (&OLSEstimator{}).Estimate(ts, ModelSpec{Lags: 1, Deterministic: DetConst})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	sv, err := rf.Identify(IdentCholesky)
	if err != nil {
		t.Fatalf("Identify: %v", err)
	}
	return sv, ts
}

// ============================================================================
// BOOTSTRAP QUANTILE TESTS
// ============================================================================

type BootstrapQuantileTest struct {
	Samples []float64
	Q       float64
	Result  float64
}

func ReadBootstrapQuantileTests(directory string) []BootstrapQuantileTest {
	inputFiles := ReadDirectory(directory + "input")
	outputFiles := ReadDirectory(directory + "output")

	if len(inputFiles) != len(outputFiles) {
		panic("Error: number of input and output files do not match!")
	}

	tests := make([]BootstrapQuantileTest, len(inputFiles))
	for i, inputFile := range inputFiles {
		vals := readFloats(directory + "input/" + inputFile.Name())
		// N, N samples, q
		n := int(vals[0])
		tests[i].Samples = vals[1 : 1+n]
		tests[i].Q = vals[1+n]
	}

	for i, outputFile := range outputFiles {
		tests[i].Result = readFloats(directory + "output/" + outputFile.Name())[0]
	}

	return tests
}

func TestBootstrapQuantile(t *testing.T) {
	tests := ReadBootstrapQuantileTests("testdata/BootstrapQuantile/")
	for i, test := range tests {
		got := bootstrapQuantile(test.Samples, test.Q)
		if !almostEqual(got, test.Result, 1e-6) {
			t.Errorf("Test %d: bootstrapQuantile(%v, %v) = %v; want %v",
				i+1, test.Samples, test.Q, got, test.Result)
		}
	}
	if !math.IsNaN(bootstrapQuantile(nil, 0.5)) {
		t.Errorf("bootstrapQuantile(nil) should be NaN")
	}
}

// ============================================================================
// FORECAST TESTS
// ============================================================================

type ForecastTest struct {
	K       int
	Lags    int
	DetType Deterministic
	Steps   int
	A       []*mat.Dense
	C       *mat.Dense
	YHist   *mat.Dense
	Result  []float64
}

func ReadForecastTests(directory string) []ForecastTest {
	inputFiles := ReadDirectory(directory + "input")
	outputFiles := ReadDirectory(directory + "output")

	if len(inputFiles) != len(outputFiles) {
		panic("Error: number of input and output files do not match!")
	}

	tests := make([]ForecastTest, len(inputFiles))
	for i, inputFile := range inputFiles {
		tests[i] = ReadForecastInput(directory + "input/" + inputFile.Name())
	}

	for i, outputFile := range outputFiles {
		tests[i].Result = readFloats(directory + "output/" + outputFile.Name())
	}

	return tests
}

func ReadForecastInput(file string) ForecastTest {
	vals := readFloats(file)
	next := func() float64 {
		v := vals[0]
		vals = vals[1:]
		return v
	}

	K := int(next())
	lags := int(next())
	detType := Deterministic(int(next()))
	steps := int(next())

	A := make([]*mat.Dense, lags)
	for lag := 0; lag < lags; lag++ {
		data := make([]float64, K*K)
		for i := range data {
			data[i] = next()
		}
		A[lag] = mat.NewDense(K, K, data)
	}

	var C *mat.Dense
	if detCols := detType.columns(); detCols > 0 {
		cData := make([]float64, K*detCols)
		for i := range cData {
			cData[i] = next()
		}
		C = mat.NewDense(K, detCols, cData)
	}

	T := int(next())
	histData := make([]float64, T*K)
	for i := range histData {
		histData[i] = next()
	}

	return ForecastTest{
		K:       K,
		Lags:    lags,
		DetType: detType,
		Steps:   steps,
		A:       A,
		C:       C,
		YHist:   mat.NewDense(T, K, histData),
	}
}

func TestForecast(t *testing.T) {
	tests := ReadForecastTests("testdata/Forecast/")
	for i, test := range tests {
		rf := &ReducedFormVAR{
			Model: ModelSpec{Lags: test.Lags, Deterministic: test.DetType},
			A:     test.A,
			C:     test.C,
		}

		fcst, err := rf.Forecast(test.YHist, test.Steps)
		if err != nil {
			t.Errorf("Test %d: Forecast returned error: %v", i+1, err)
			continue
		}

		for j := 0; j < len(test.Result); j++ {
			got := fcst.At(j, 0)
			if !almostEqual(got, test.Result[j], 1e-4) {
				t.Errorf("Test %d: Forecast[%d] = %v, want %v", i+1, j, got, test.Result[j])
			}
		}
	}
}

func TestForecastNotEstimated(t *testing.T) {
	var rf *ReducedFormVAR
	if _, err := rf.Forecast(mat.NewDense(2, 2, nil), 1); !errors.Is(err, ErrNotEstimated) {
		t.Errorf("Forecast on nil model: got %v, want ErrNotEstimated", err)
	}
}

// ============================================================================
// ESTIMATION TESTS
// ============================================================================

func TestEstimateRecoversCoefficients(t *testing.T) {
	sv, _ := fittedSVAR(t, 5000, 1)
	want := testA1()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !almostEqual(sv.A[0].At(i, j), want.At(i, j), 0.06) {
				t.Errorf("A_1(%d,%d) = %v, want about %v", i, j, sv.A[0].At(i, j), want.At(i, j))
			}
		}
	}
	for i := 0; i < 3; i++ {
		if !almostEqual(sv.SigmaU.At(i, i), 1.0, 0.1) {
			t.Errorf("SigmaU(%d,%d) = %v, want about 1", i, i, sv.SigmaU.At(i, i))
		}
	}
	if got := sv.VarNames; len(got) != 3 || got[0] != "v0" || got[2] != "v2" {
		t.Errorf("VarNames = %v", got)
	}
}

func TestEstimateResidualsMatchComputeResiduals(t *testing.T) {
	ts := simulateVAR([]*mat.Dense{testA1()}, nil, 200, 1.0, 7)
	for _, det := range []Deterministic{DetNone, DetConst, DetTrend, DetConstTrend} {
		rf, err := (&OLSEstimator{}).Estimate(ts, ModelSpec{Lags: 2, Deterministic: det})
		if err != nil {
			t.Fatalf("%v: Estimate: %v", det, err)
		}
		U, err := rf.computeResiduals(ts)
		if err != nil {
			t.Fatalf("%v: computeResiduals: %v", det, err)
		}
		r, c := U.Dims()
		if r != 198 || c != 3 {
			t.Fatalf("%v: residuals are %dx%d, want 198x3", det, r, c)
		}
		for i := 0; i < r; i++ {
			for j := 0; j < c; j++ {
				if !almostEqual(U.At(i, j), rf.U.At(i, j), 1e-8) {
					t.Fatalf("%v: U(%d,%d) = %v, stored %v", det, i, j, U.At(i, j), rf.U.At(i, j))
				}
			}
		}
	}
}

func TestEstimateErrors(t *testing.T) {
	est := &OLSEstimator{}
	if _, err := est.Estimate(nil, ModelSpec{Lags: 1}); !errors.Is(err, ErrNoData) {
		t.Errorf("nil data: got %v", err)
	}
	ts := &TimeSeries{Y: mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})}
	if _, err := est.Estimate(ts, ModelSpec{Lags: 0}); err == nil {
		t.Errorf("zero lags should fail")
	}
	if _, err := est.Estimate(ts, ModelSpec{Lags: 3}); err == nil {
		t.Errorf("T <= p should fail")
	}
}

func TestEstimateSingularDesignUsesSVD(t *testing.T) {
	// a constant column makes X'X singular when a constant is also included
	T := 40
	Y := mat.NewDense(T, 2, nil)
	rng := rand.New(rand.NewSource(3))
	for i := 0; i < T; i++ {
		Y.Set(i, 0, rng.NormFloat64())
		Y.Set(i, 1, 2.0)
	}
	ts := &TimeSeries{Y: Y, VarNames: []string{"x", "c"}}
	rf, err := (&OLSEstimator{}).Estimate(ts, ModelSpec{Lags: 1, Deterministic: DetConst})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	for i := 0; i < rf.U.RawMatrix().Rows; i++ {
		if !almostEqual(rf.U.At(i, 1), 0, 1e-9) {
			t.Fatalf("residual of constant variable = %v, want 0", rf.U.At(i, 1))
		}
	}
}

// ============================================================================
// IDENTIFICATION AND IRF TESTS
// ============================================================================

func TestIdentifyCholesky(t *testing.T) {
	sv, _ := fittedSVAR(t, 300, 2)
	K := sv.K()

	var prod mat.Dense
	prod.Mul(sv.B0, sv.B0.T())
	for i := 0; i < K; i++ {
		for j := 0; j < K; j++ {
			if !almostEqual(prod.At(i, j), sv.SigmaU.At(i, j), 1e-10) {
				t.Errorf("B0 B0'(%d,%d) = %v, SigmaU = %v", i, j, prod.At(i, j), sv.SigmaU.At(i, j))
			}
			if j > i && sv.B0.At(i, j) != 0 {
				t.Errorf("B0(%d,%d) = %v, want exactly 0", i, j, sv.B0.At(i, j))
			}
		}
	}
}

func TestLowerCholeskySemiDefinite(t *testing.T) {
	S := mat.NewSymDense(3, []float64{
		1, 1, 0,
		1, 1, 0,
		0, 0, 0,
	})
	L, err := lowerCholesky(S)
	if err != nil {
		t.Fatalf("lowerCholesky: %v", err)
	}
	var prod mat.Dense
	prod.Mul(L, L.T())
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			if !almostEqual(prod.At(i, j), S.At(i, j), 1e-12) {
				t.Errorf("LL'(%d,%d) = %v, want %v", i, j, prod.At(i, j), S.At(i, j))
			}
			if j > i && L.At(i, j) != 0 {
				t.Errorf("L(%d,%d) = %v, want exactly 0", i, j, L.At(i, j))
			}
		}
	}
}

func TestParseIdentification(t *testing.T) {
	for _, in := range []string{"cholesky", "Recursive", ""} {
		if got, err := ParseIdentification(in); err != nil || got != IdentCholesky {
			t.Errorf("ParseIdentification(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseIdentification("sign"); err == nil {
		t.Errorf("sign restrictions should be rejected")
	}
}

func TestMACoefficientsVAR1(t *testing.T) {
	A := testA1()
	rf := &ReducedFormVAR{Model: ModelSpec{Lags: 1}, A: []*mat.Dense{A}}
	Psi := rf.maCoefficients(4)

	want := mat.NewDense(3, 3, nil)
	want.Copy(A)
	for h := 1; h < 4; h++ {
		if !mat.EqualApprox(Psi[h], want, 1e-12) {
			t.Errorf("Psi_%d != A^%d", h, h)
		}
		want.Mul(want, A)
	}
}

func TestIRFImpactAndZeroRestrictions(t *testing.T) {
	sv, _ := fittedSVAR(t, 300, 4)
	K := sv.K()
	for shock := 0; shock < K; shock++ {
		irf, err := sv.IRF(10, shock)
		if err != nil {
			t.Fatalf("IRF: %v", err)
		}
		for i := 0; i < K; i++ {
			if !almostEqual(irf.At(0, i), sv.B0.At(i, shock), 1e-14) {
				t.Errorf("impact response of %d to %d = %v, want B0 entry %v", i, shock, irf.At(0, i), sv.B0.At(i, shock))
			}
			if i < shock && irf.At(0, i) != 0 {
				t.Errorf("variable %d responds on impact to later shock %d: %v", i, shock, irf.At(0, i))
			}
		}
	}
	if _, err := sv.IRF(10, K); err == nil {
		t.Errorf("out of range shock should fail")
	}
}

// ============================================================================
// BOOTSTRAP TESTS
// ============================================================================

func TestSimulateBootstrapSeriesKeepsPresample(t *testing.T) {
	sv, ts := fittedSVAR(t, 50, 6)
	U := mat.NewDense(49, 3, nil) // zero residuals reproduce the fitted recursion
	star, err := sv.simulateBootstrapSeries(ts, U, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("simulateBootstrapSeries: %v", err)
	}
	for k := 0; k < 3; k++ {
		if star.Y.At(0, k) != ts.Y.At(0, k) {
			t.Errorf("presample row differs in column %d", k)
		}
	}
	for tt := 1; tt < 50; tt++ {
		for k := 0; k < 3; k++ {
			if !almostEqual(star.Y.At(tt, k), sv.fitted(star.Y, tt, k), 1e-12) {
				t.Fatalf("row %d col %d off the fitted path", tt, k)
			}
		}
	}
	if _, err := sv.simulateBootstrapSeries(ts, mat.NewDense(3, 3, nil), rand.New(rand.NewSource(1))); err == nil {
		t.Errorf("wrong residual shape should fail")
	}
}

func TestBootstrapResponsesIRF(t *testing.T) {
	sv, ts := fittedSVAR(t, 120, 8)
	opts := BootstrapOptions{NReplications: 60, Horizon: 12, Alpha: 0.1, Seed: 42, Workers: 4}

	res, _, err := sv.BootstrapResponses(ts, opts)
	if err != nil {
		t.Fatalf("BootstrapResponses: %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("got %d shocks, want 3", len(res))
	}

	for shock, r := range res {
		if r.ShockIndex != shock || r.Horizon != 12 {
			t.Errorf("result %d: ShockIndex %d Horizon %d", shock, r.ShockIndex, r.Horizon)
		}
		H, K := r.Point.Dims()
		if H != 12 || K != 3 {
			t.Fatalf("point IRF is %dx%d", H, K)
		}
		for h := 0; h < H; h++ {
			for i := 0; i < K; i++ {
				lo, med, hi := r.Lower.At(h, i), r.Median.At(h, i), r.Upper.At(h, i)
				if lo > med || med > hi {
					t.Errorf("shock %d h %d var %d: bands out of order %v %v %v", shock, h, i, lo, med, hi)
				}
			}
		}
		// recursive ordering holds in every draw, so the bands are exactly zero
		for i := 0; i < shock; i++ {
			if r.Point.At(0, i) != 0 || r.Median.At(0, i) != 0 || r.Lower.At(0, i) != 0 || r.Upper.At(0, i) != 0 {
				t.Errorf("shock %d: impact response of %d not exactly zero", shock, i)
			}
		}
	}

	// same seed, different worker count: identical bands
	opts.Workers = 1
	again, _, err := sv.BootstrapResponses(ts, opts)
	if err != nil {
		t.Fatalf("BootstrapResponses: %v", err)
	}
	for shock := range res {
		if !mat.Equal(res[shock].Lower, again[shock].Lower) || !mat.Equal(res[shock].Upper, again[shock].Upper) {
			t.Errorf("shock %d: bands depend on worker count", shock)
		}
	}
}

func TestBootstrapResponsesErrors(t *testing.T) {
	sv, _ := fittedSVAR(t, 60, 9)
	if _, _, err := sv.BootstrapResponses(nil, BootstrapOptions{}); !errors.Is(err, ErrNoData) {
		t.Errorf("nil data: got %v", err)
	}
	var empty *StructuralVAR
	if _, _, err := empty.BootstrapResponses(&TimeSeries{Y: mat.NewDense(2, 2, nil)}, BootstrapOptions{}); !errors.Is(err, ErrNotEstimated) {
		t.Errorf("nil model: got %v", err)
	}
}

func TestBootstrapOptionsDefaults(t *testing.T) {
	o := BootstrapOptions{NReplications: 2, Workers: 16}.withDefaults()
	if o.Horizon != DefaultHorizon || o.Alpha != DefaultAlpha || o.Seed == 0 {
		t.Errorf("defaults not applied: %+v", o)
	}
	if o.Workers != 2 {
		t.Errorf("Workers = %d, want capped at 2", o.Workers)
	}
}

// ============================================================================
// FEVD AND HISTORICAL DECOMPOSITION TESTS
// ============================================================================

func TestFEVD(t *testing.T) {
	sv, _ := fittedSVAR(t, 300, 10)
	fevd, err := sv.FEVD(20)
	if err != nil {
		t.Fatalf("FEVD: %v", err)
	}
	for i, m := range fevd {
		for h := 0; h < 20; h++ {
			sum := 0.0
			for j := 0; j < 3; j++ {
				v := m.At(h, j)
				if v < 0 || v > 1 {
					t.Errorf("var %d h %d shock %d share %v out of [0,1]", i, h, j, v)
				}
				sum += v
			}
			if !almostEqual(sum, 1, 1e-12) {
				t.Errorf("var %d h %d shares sum to %v", i, h, sum)
			}
		}
	}
	// first variable is only moved by its own shock on impact
	if fevd[0].At(0, 0) != 1 {
		t.Errorf("one-step FEVD of first variable = %v, want 1", fevd[0].At(0, 0))
	}
}

func TestBootstrapResponsesFEVD(t *testing.T) {
	sv, ts := fittedSVAR(t, 100, 11)
	_, res, err := sv.BootstrapResponses(ts, BootstrapOptions{NReplications: 30, Horizon: 8, Seed: 3, Workers: 2})
	if err != nil {
		t.Fatalf("BootstrapResponses: %v", err)
	}
	if len(res) != 3 {
		t.Fatalf("got %d variables", len(res))
	}
	for _, r := range res {
		H, K := r.Median.Dims()
		if H != 8 || K != 3 {
			t.Errorf("median is %dx%d", H, K)
		}
	}
}

func TestGonumBackendSharesBootstrap(t *testing.T) {
	sv, ts := fittedSVAR(t, 100, 15)
	b := NewGonumBackend()
	opts := BootstrapOptions{NReplications: 20, Horizon: 5, Seed: 4, Workers: 2}

	irf, err := b.ImpulseResponse(sv, ts, opts)
	if err != nil {
		t.Fatalf("ImpulseResponse: %v", err)
	}
	first := b.last
	fevd, err := b.VarianceDecomposition(sv, ts, opts)
	if err != nil {
		t.Fatalf("VarianceDecomposition: %v", err)
	}
	if b.last != first {
		t.Errorf("variance decomposition ran a second bootstrap")
	}
	if len(irf) != 3 || len(fevd) != 3 {
		t.Fatalf("got %d irfs and %d fevds", len(irf), len(fevd))
	}

	opts.Seed = 5
	if _, err := b.VarianceDecomposition(sv, ts, opts); err != nil {
		t.Fatal(err)
	}
	if b.last == first {
		t.Errorf("new options reused the previous bootstrap")
	}
}

func TestHistoricalDecompositionReconstructs(t *testing.T) {
	sv, ts := fittedSVAR(t, 80, 12)
	hd, err := sv.HistoricalDecomposition(ts)
	if err != nil {
		t.Fatalf("HistoricalDecomposition: %v", err)
	}
	if hd.Start != 1 || len(hd.Contribution) != 3 {
		t.Fatalf("Start %d, %d contributions", hd.Start, len(hd.Contribution))
	}
	if !mat.EqualApprox(hd.Reconstruct(), hd.Observed, 1e-8) {
		t.Errorf("baseline + contributions does not reproduce the data")
	}
}

// ============================================================================
// GRANGER AND LAG SELECTION TESTS
// ============================================================================

func TestGrangerCausality(t *testing.T) {
	A := mat.NewDense(2, 2, []float64{
		0.3, 0.0,
		0.8, 0.2,
	})
	ts := simulateVAR([]*mat.Dense{A}, nil, 400, 1.0, 13)
	rf, err := (&OLSEstimator{}).Estimate(ts, ModelSpec{Lags: 1, Deterministic: DetConst})
	if err != nil {
		t.Fatalf("Estimate: %v", err)
	}
	res, err := rf.GrangerCausality(ts, 0, 1)
	if err != nil {
		t.Fatalf("GrangerCausality: %v", err)
	}
	if !res.Significant || res.CauseVar != "v0" || res.EffectVar != "v1" {
		t.Errorf("v0 -> v1 not detected: %+v", res)
	}

	gc, err := rf.GrangerCausalityMatrix(ts)
	if err != nil {
		t.Fatalf("GrangerCausalityMatrix: %v", err)
	}
	if gc[0][0] != nil || gc[1][1] != nil || gc[1][0] == nil {
		t.Errorf("unexpected matrix layout")
	}
	if _, err := rf.GrangerCausality(ts, 1, 1); err == nil {
		t.Errorf("self causality should fail")
	}
}

func TestSelectLagOrder(t *testing.T) {
	A1 := mat.NewDense(2, 2, []float64{0.3, 0.0, 0.1, 0.3})
	A2 := mat.NewDense(2, 2, []float64{0.4, 0.0, 0.0, 0.4})
	ts := simulateVAR([]*mat.Dense{A1, A2}, nil, 2000, 1.0, 14)

	sel, err := SelectLagOrder(ts, 6, DetConst)
	if err != nil {
		t.Fatalf("SelectLagOrder: %v", err)
	}
	if len(sel.Rows) != 6 || sel.NObs != 1994 {
		t.Errorf("rows %d, NObs %d", len(sel.Rows), sel.NObs)
	}
	if sel.BestBIC != 2 {
		t.Errorf("BIC picked %d lags, want 2", sel.BestBIC)
	}
	if sel.BestAIC < 2 || sel.BestHQ < 2 {
		t.Errorf("AIC %d / HQ %d underfit", sel.BestAIC, sel.BestHQ)
	}
}

// ============================================================================
// OUTPUT TESTS
// ============================================================================

func TestWriteIRFCSV(t *testing.T) {
	sv, ts := fittedSVAR(t, 60, 15)
	res, _, err := sv.BootstrapResponses(ts, BootstrapOptions{NReplications: 10, Horizon: 5, Seed: 1, Workers: 2})
	if err != nil {
		t.Fatalf("BootstrapResponses: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteIRFCSV(&buf, res, ts.VarNames); err != nil {
		t.Fatalf("WriteIRFCSV: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 1+3*3*5 {
		t.Errorf("got %d records, want %d", len(records), 1+3*3*5)
	}
	if records[0][0] != "ShockVar" || records[1][0] != "v0" {
		t.Errorf("unexpected leading rows %v %v", records[0], records[1])
	}
}

func TestWriteCSVFileRemovesFailedOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "irf.csv")
	err := WriteCSVFile(path, func(w *csv.Writer) error {
		w.Write([]string{"Shock", "Response"})
		return errors.New("no results")
	})
	if err == nil {
		t.Fatal("expected the fill error")
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("failed output left on disk: %v", err)
	}

	if err := WriteCSVFile(path, func(w *csv.Writer) error {
		return w.Write([]string{"a", "b"})
	}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "a,b\n" {
		t.Errorf("file = %q", data)
	}
}

func TestWriteForecastCSV(t *testing.T) {
	fc := mat.NewDense(2, 2, []float64{1, 2, 3, 4})
	var buf bytes.Buffer
	if err := WriteForecastCSV(&buf, fc, []string{"a", "b"}, []float64{2020, 2020.25}); err != nil {
		t.Fatalf("WriteForecastCSV: %v", err)
	}
	want := "Period,a,b\n2020.00,1.000000,2.000000\n2020.25,3.000000,4.000000\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	if err := WriteForecastCSV(&buf, fc, nil, nil); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "Period,y1,y2\n1,") {
		t.Errorf("unlabelled output = %q", buf.String())
	}
}

func TestWriteHistDecompCSV(t *testing.T) {
	sv, ts := fittedSVAR(t, 30, 16)
	hd, err := sv.HistoricalDecomposition(ts)
	if err != nil {
		t.Fatalf("HistoricalDecomposition: %v", err)
	}
	var buf bytes.Buffer
	if err := WriteHistDecompCSV(&buf, hd, ts.Time); err != nil {
		t.Fatalf("WriteHistDecompCSV: %v", err)
	}
	records, _ := csv.NewReader(&buf).ReadAll()
	if len(records) != 1+29*3 {
		t.Errorf("got %d records", len(records))
	}
	if len(records[0]) != 7 || records[0][4] != "Shock_v0" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][0] != "1960.25" {
		t.Errorf("first row time = %q", records[1][0])
	}
}

func TestSummary(t *testing.T) {
	sv, ts := fittedSVAR(t, 40, 17)
	var buf bytes.Buffer
	sv.Summary(&buf, ts)
	out := buf.String()
	for _, want := range []string{"Lag order (p):           1", "Identification: cholesky", "Impact matrix B0"} {
		if !strings.Contains(out, want) {
			t.Errorf("summary missing %q", want)
		}
	}
}
