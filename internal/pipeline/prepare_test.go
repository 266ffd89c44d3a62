// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package pipeline

import (
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"Monetary_SVAR_Project/internal/series"
)

var (
	sampleStart = time.Date(2008, 1, 1, 0, 0, 0, 0, time.UTC)
	popBase     = time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
)

const (
	nQuarters = 36
	nMonths   = 3 * nQuarters
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func mustNew(t testing.TB, id string, dates []time.Time, values []float64) series.Series {
	t.Helper()
	s, err := series.New(id, dates, values)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// syntheticInputs builds quarterly GDP and deflator plus monthly CPI,
// population and funds rate with a little seeded noise.
func syntheticInputs(t testing.TB) Inputs {
	t.Helper()
	rng := rand.New(rand.NewSource(11))

	months := make([]time.Time, nMonths)
	cpi := make([]float64, nMonths)
	pop := make([]float64, nMonths)
	ff := make([]float64, nMonths)
	level := 0.0
	for m := range months {
		months[m] = sampleStart.AddDate(0, m, 0)
		level += 0.002 + 0.003*rng.Float64()
		cpi[m] = 200 * math.Exp(level)
		pop[m] = 230000 + 150*float64(m)
		ff[m] = 2 + math.Sin(float64(m)/7) + 0.2*rng.NormFloat64()
	}

	quarters := make([]time.Time, nQuarters)
	gdp := make([]float64, nQuarters)
	defl := make([]float64, nQuarters)
	growth := 0.0
	for q := range quarters {
		quarters[q] = sampleStart.AddDate(0, 3*q, 0)
		growth += 0.005 + 0.01*rng.NormFloat64()
		defl[q] = 95 * math.Exp(0.005*float64(q))
		gdp[q] = 14000 * math.Exp(growth) * defl[q] / 100
	}

	return Inputs{
		GDP:        mustNew(t, "GDP", quarters, gdp),
		Deflator:   mustNew(t, "GDPDEF", quarters, defl),
		CPI:        mustNew(t, "CPIAUCSL", months, cpi),
		Population: mustNew(t, "CNP16OV", months, pop),
		FedFunds:   mustNew(t, "FEDFUNDS", months, ff),
	}
}

func TestCheckColumnOrder(t *testing.T) {
	tests := []struct {
		names []string
		ok    bool
	}{
		{[]string{"Inflation", "Output", "FedFunds"}, true},
		{[]string{"Output", "Inflation", "FedFunds"}, false},
		{[]string{"Inflation", "Output"}, false},
		{[]string{"Inflation", "Output", "FedFunds", "M2"}, false},
	}
	for _, tt := range tests {
		err := CheckColumnOrder(tt.names)
		if tt.ok && err != nil {
			t.Errorf("%v: unexpected error %v", tt.names, err)
		}
		if !tt.ok && !errors.Is(err, ErrColumnOrder) {
			t.Errorf("%v: got %v, want ErrColumnOrder", tt.names, err)
		}
	}
}

func TestPrepare(t *testing.T) {
	in := syntheticInputs(t)
	prep, err := Prepare(in, PrepareOptions{Method: series.DetrendLinear, PopulationBase: popBase}, nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	ts := prep.Model

	if err := CheckColumnOrder(ts.VarNames); err != nil {
		t.Fatal(err)
	}
	T, K := ts.Y.Dims()
	if T != nQuarters-YoYLag || K != 3 {
		t.Fatalf("model input is %dx%d, want %dx3", T, K, nQuarters-YoYLag)
	}
	dates := prep.Panel.Dates()
	if !dates[0].Equal(sampleStart.AddDate(1, 0, 0)) {
		t.Errorf("sample starts %s, want one year after the data", dates[0])
	}
	if len(ts.Time) != T || ts.Time[0] != 2009 || ts.Time[1] != 2009.25 {
		t.Errorf("time stamps = %v", ts.Time[:2])
	}
	for id, n := range prep.Dropped {
		if n != 0 {
			t.Errorf("%s dropped %d dates", id, n)
		}
	}

	cpi := in.CPI.Values()
	for row := 0; row < T; row++ {
		// row r is quarter r+4, i.e. month 3(r+4)
		m := 3 * (row + YoYLag)
		want := 100 * (cpi[m] - cpi[m-12]) / cpi[m-12]
		if !almostEqual(ts.Y.At(row, 0), want, 1e-9) {
			t.Fatalf("inflation[%d] = %v, want %v", row, ts.Y.At(row, 0), want)
		}
		if ts.Y.At(row, 2) != in.FedFunds.Values()[m] {
			t.Fatalf("fed funds[%d] = %v, want %v", row, ts.Y.At(row, 2), in.FedFunds.Values()[m])
		}
	}

	// linear detrending with an intercept leaves a zero-mean cycle
	sum := 0.0
	for row := 0; row < T; row++ {
		sum += ts.Y.At(row, 1)
		if !almostEqual(prep.Levels.Obs[row].Value, prep.Trend.Obs[row].Value+ts.Y.At(row, 1), 1e-9) {
			t.Fatalf("level != trend + cycle at %d", row)
		}
	}
	if !almostEqual(sum/float64(T), 0, 1e-9) {
		t.Errorf("cycle mean = %v", sum/float64(T))
	}
}

func TestPrepareOutputIsPerCapitaReal(t *testing.T) {
	in := syntheticInputs(t)
	prep, err := Prepare(in, PrepareOptions{Method: series.DetrendSmoothingFilter, PopulationBase: popBase}, nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	popBaseValue, _ := in.Population.At(popBase)
	for row, o := range prep.Levels.Obs {
		gdp, _ := in.GDP.At(o.Date)
		defl, _ := in.Deflator.At(o.Date)
		pop, _ := in.Population.At(o.Date)
		want := 100 * math.Log(gdp/defl/(pop/popBaseValue))
		if !almostEqual(o.Value, want, 1e-9) {
			t.Fatalf("log output[%d] = %v, want %v", row, o.Value, want)
		}
	}
}

func TestPrepareDropsMissingMonths(t *testing.T) {
	in := syntheticInputs(t)
	// remove the CPI reading of a quarter start
	gap := sampleStart.AddDate(0, 3*20, 0)
	var dates []time.Time
	var values []float64
	for _, o := range in.CPI.Obs {
		if o.Date.Equal(gap) {
			continue
		}
		dates = append(dates, o.Date)
		values = append(values, o.Value)
	}
	in.CPI = mustNew(t, "CPIAUCSL", dates, values)

	prep, err := Prepare(in, PrepareOptions{Method: series.DetrendLinear, PopulationBase: popBase}, nil)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if prep.Dropped["CPIAUCSL"] != 1 {
		t.Errorf("dropped = %v, want one CPI date", prep.Dropped)
	}
	for _, d := range prep.Panel.Dates() {
		if d.Equal(gap) {
			t.Fatalf("gap date %s still in the panel", gap)
		}
	}

	// the quarter a year after the gap has no base; the three before it
	// still compare against the same month a year earlier
	if prep.Dropped[ColInflation] != 1 {
		t.Errorf("inflation dropped %d dates, want 1", prep.Dropped[ColInflation])
	}
	inflation, ok := prep.Panel.Get(ColInflation)
	if !ok {
		t.Fatal("no inflation column")
	}
	if _, ok := inflation.At(gap.AddDate(1, 0, 0)); ok {
		t.Errorf("inflation reported for %s without a base", gap.AddDate(1, 0, 0))
	}
	cpi := in.CPI
	for q := 21; q <= 23; q++ {
		d := sampleStart.AddDate(0, 3*q, 0)
		got, ok := inflation.At(d)
		if !ok {
			t.Fatalf("inflation missing at %s", d)
		}
		now, _ := cpi.At(d)
		before, _ := cpi.At(d.AddDate(-1, 0, 0))
		if want := 100 * (now - before) / before; !almostEqual(got, want, 1e-9) {
			t.Errorf("inflation at %s = %v, want %v", d, got, want)
		}
	}
}

func TestPrepareErrors(t *testing.T) {
	in := syntheticInputs(t)
	_, err := Prepare(in, PrepareOptions{Method: series.DetrendLinear, PopulationBase: time.Date(1990, 1, 1, 0, 0, 0, 0, time.UTC)}, nil)
	if !errors.Is(err, series.ErrBaseDateMissing) {
		t.Errorf("got %v, want ErrBaseDateMissing", err)
	}

	short := syntheticInputs(t)
	short.CPI = short.CPI.Between(sampleStart, sampleStart.AddDate(0, 10, 0))
	if _, err := Prepare(short, PrepareOptions{Method: series.DetrendLinear, PopulationBase: popBase}, nil); !errors.Is(err, series.ErrEmptySeries) {
		t.Errorf("got %v, want ErrEmptySeries", err)
	}

	if _, err := Prepare(in, PrepareOptions{Method: "bandpass", PopulationBase: popBase}, nil); err == nil {
		t.Errorf("expected error for unknown detrend method")
	}
}

func TestInputsFrom(t *testing.T) {
	in := syntheticInputs(t)
	got := map[string]series.Series{
		"GDP": in.GDP, "GDPDEF": in.Deflator, "CPIAUCSL": in.CPI, "CNP16OV": in.Population,
	}
	if _, err := InputsFrom(got, "GDP", "GDPDEF", "CPIAUCSL", "CNP16OV", "FEDFUNDS"); !errors.Is(err, series.ErrEmptySeries) {
		t.Errorf("got %v, want ErrEmptySeries for a missing series", err)
	}
	got["FEDFUNDS"] = in.FedFunds
	picked, err := InputsFrom(got, "GDP", "GDPDEF", "CPIAUCSL", "CNP16OV", "FEDFUNDS")
	if err != nil {
		t.Fatal(err)
	}
	if picked.FedFunds.ID != "FEDFUNDS" || picked.GDP.Len() != nQuarters {
		t.Errorf("picked = %+v", picked)
	}
}
