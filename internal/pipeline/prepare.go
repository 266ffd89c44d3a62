// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

// Package pipeline turns the raw FRED series into the model input and drives
// the estimation backend through one batch run.
package pipeline

import (
	"errors"
	"fmt"
	"time"

	"Monetary_SVAR_Project/internal/logger"
	"Monetary_SVAR_Project/internal/series"
	"Monetary_SVAR_Project/internal/svar"
)

// Model column names. The recursive identification depends on this order.
const (
	ColInflation = "Inflation"
	ColOutput    = "Output"
	ColFedFunds  = "FedFunds"
)

// ModelColumns is the causal ordering of the model input.
var ModelColumns = []string{ColInflation, ColOutput, ColFedFunds}

var ErrColumnOrder = errors.New("pipeline: model columns out of order")

// YoYLag is the number of quarters in a year-over-year change.
const YoYLag = 4

// CheckColumnOrder fails unless names is exactly ModelColumns.
func CheckColumnOrder(names []string) error {
	if len(names) != len(ModelColumns) {
		return fmt.Errorf("%w: got %v, want %v", ErrColumnOrder, names, ModelColumns)
	}
	for i := range names {
		if names[i] != ModelColumns[i] {
			return fmt.Errorf("%w: got %v, want %v", ErrColumnOrder, names, ModelColumns)
		}
	}
	return nil
}

// Inputs are the five raw series. GDP and Deflator are quarterly, the rest
// monthly.
type Inputs struct {
	GDP        series.Series
	Deflator   series.Series
	CPI        series.Series
	Population series.Series
	FedFunds   series.Series
}

// InputsFrom picks the series out of an acquisition result by id.
func InputsFrom(got map[string]series.Series, gdp, deflator, cpi, population, fedFunds string) (Inputs, error) {
	pick := func(id string) (series.Series, error) {
		s, ok := got[id]
		if !ok {
			return series.Series{}, fmt.Errorf("%w: series %s not acquired", series.ErrEmptySeries, id)
		}
		return s, nil
	}
	var in Inputs
	var err error
	if in.GDP, err = pick(gdp); err != nil {
		return Inputs{}, err
	}
	if in.Deflator, err = pick(deflator); err != nil {
		return Inputs{}, err
	}
	if in.CPI, err = pick(cpi); err != nil {
		return Inputs{}, err
	}
	if in.Population, err = pick(population); err != nil {
		return Inputs{}, err
	}
	if in.FedFunds, err = pick(fedFunds); err != nil {
		return Inputs{}, err
	}
	return in, nil
}

type PrepareOptions struct {
	Method series.DetrendMethod
	// Lambda for the smoothing filter; <= 0 means series.DefaultHPLambda
	Lambda float64
	// PopulationBase is the date population is normalized to 1 at
	PopulationBase time.Time
}

// Prepared is the model input and the intermediate series behind it.
type Prepared struct {
	Panel  *series.Panel
	Model  *svar.TimeSeries
	Trend  series.Series
	Levels series.Series
	// Dropped counts reference dates missing from each aligned series, and
	// under Inflation the dates without a price one year earlier
	Dropped map[string]int
}

// yearOverYear is YoY over YoYLag quarters, checked against the calendar:
// when a gap in p shifts the positional base, the value is recomputed from
// the observation one year earlier, or dropped when there is none.
func yearOverYear(p series.Series) (series.Series, int, error) {
	yoy, err := series.YoY(ColInflation, p, YoYLag)
	if err != nil {
		return series.Series{}, 0, err
	}
	out := series.Series{ID: yoy.ID, Obs: make([]series.Observation, 0, yoy.Len())}
	skipped := 0
	for i, o := range yoy.Obs {
		want := o.Date.AddDate(-1, 0, 0)
		if p.Obs[i].Date.Equal(want) {
			out.Obs = append(out.Obs, o)
			continue
		}
		prev, ok := p.At(want)
		if !ok || prev == 0 {
			skipped++
			continue
		}
		cur := p.Obs[i+YoYLag].Value
		out.Obs = append(out.Obs, series.Observation{Date: o.Date, Value: 100 * (cur - prev) / prev})
	}
	if out.Len() == 0 {
		return series.Series{}, skipped, fmt.Errorf("%w: no %s date has a price one year earlier", series.ErrEmptySeries, p.ID)
	}
	return out, skipped, nil
}

// Prepare aligns the monthly inputs to the GDP dates, builds year-over-year
// CPI inflation and detrended log real per-capita output, and stacks them
// with the federal funds rate in ModelColumns order.
func Prepare(in Inputs, opts PrepareOptions, log *logger.Logger) (*Prepared, error) {
	if log == nil {
		log = logger.Nop()
	}
	if in.GDP.Len() == 0 {
		return nil, fmt.Errorf("%w: %s", series.ErrEmptySeries, in.GDP.ID)
	}
	ref := in.GDP.Dates()
	dropped := make(map[string]int, 4)

	align := func(s series.Series) series.Series {
		out, n := series.AlignCount(ref, s)
		dropped[s.ID] = n
		if n > 0 {
			log.Warn("reference dates missing from series",
				logger.String("series", s.ID), logger.Int("dropped", n), logger.Int("kept", out.Len()))
		}
		return out
	}

	// population is normalized before alignment so a monthly base date works
	popIndex, err := series.NormalizeAt(in.Population.ID, in.Population, opts.PopulationBase)
	if err != nil {
		return nil, fmt.Errorf("normalize population: %w", err)
	}

	deflator := align(in.Deflator)
	cpi := align(in.CPI)
	pop := align(popIndex)
	fedFunds := align(in.FedFunds).Rename(ColFedFunds)

	inflation, skipped, err := yearOverYear(cpi)
	if err != nil {
		return nil, fmt.Errorf("inflation: %w", err)
	}
	dropped[ColInflation] = skipped
	if skipped > 0 {
		log.Warn("inflation dates without a price one year earlier",
			logger.Int("dropped", skipped), logger.Int("kept", inflation.Len()))
	}

	realGDP, err := series.Ratio("RealGDP", in.GDP, deflator)
	if err != nil {
		return nil, fmt.Errorf("real output: %w", err)
	}
	perCapita, err := series.Ratio("RealGDPPerCapita", realGDP, pop)
	if err != nil {
		return nil, fmt.Errorf("real per-capita output: %w", err)
	}

	// the sample starts where inflation does
	common := series.Intersect(inflation.Dates(), perCapita, fedFunds)
	if len(common) == 0 {
		return nil, fmt.Errorf("%w: no dates shared by inflation, output and the funds rate", series.ErrEmptySeries)
	}
	inflation = series.Align(common, inflation)
	fedFunds = series.Align(common, fedFunds)
	perCapita = series.Align(common, perCapita)

	levels, err := series.Log100(ColOutput, perCapita)
	if err != nil {
		return nil, fmt.Errorf("log output: %w", err)
	}
	trend, cycle, err := series.Detrend(levels, opts.Method, opts.Lambda)
	if err != nil {
		return nil, err
	}
	output := cycle.Rename(ColOutput)

	panel, err := series.NewPanel(inflation, output, fedFunds)
	if err != nil {
		return nil, err
	}
	Y, err := panel.Matrix(ModelColumns...)
	if err != nil {
		return nil, err
	}
	dates := panel.Dates()
	times := make([]float64, len(dates))
	for i, d := range dates {
		times[i] = series.DecimalYear(d)
	}
	ts := &svar.TimeSeries{Y: Y, Time: times, VarNames: append([]string(nil), ModelColumns...)}
	if err := CheckColumnOrder(ts.VarNames); err != nil {
		return nil, err
	}

	log.Info("model input prepared",
		logger.Int("observations", len(dates)),
		logger.Date("first", dates[0]),
		logger.Date("last", dates[len(dates)-1]),
		logger.String("detrend", string(opts.Method)),
	)
	return &Prepared{Panel: panel, Model: ts, Trend: trend, Levels: levels, Dropped: dropped}, nil
}
