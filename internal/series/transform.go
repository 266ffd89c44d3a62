// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package series

import (
	"fmt"
	"math"
	"time"
)

// YoY computes percent change over lag periods: out[t] = 100*(P[t]-P[t-lag])/P[t-lag].
// The result is dated at t and loses the first lag observations.
func YoY(id string, p Series, lag int) (Series, error) {
	if lag <= 0 {
		return Series{}, fmt.Errorf("yoy lag must be > 0, got %d", lag)
	}
	if p.Len() <= lag {
		return Series{}, fmt.Errorf("%w: %s has %d observations, need more than %d", ErrEmptySeries, p.ID, p.Len(), lag)
	}

	out := Series{ID: id, Obs: make([]Observation, 0, p.Len()-lag)}
	for t := lag; t < p.Len(); t++ {
		prev := p.Obs[t-lag].Value
		if prev == 0 {
			return Series{}, fmt.Errorf("yoy %s: zero base value at %s", p.ID, p.Obs[t-lag].Date.Format("2006-01-02"))
		}
		out.Obs = append(out.Obs, Observation{
			Date:  p.Obs[t].Date,
			Value: 100 * (p.Obs[t].Value - prev) / prev,
		})
	}
	return out, nil
}

// Ratio divides a by b on the dates they share, in a's order.
func Ratio(id string, a, b Series) (Series, error) {
	denom := Align(a.Dates(), b)
	num := Align(denom.Dates(), a)
	if num.Len() == 0 {
		return Series{}, fmt.Errorf("%w: %s and %s share no dates", ErrEmptySeries, a.ID, b.ID)
	}

	out := Series{ID: id, Obs: make([]Observation, num.Len())}
	for i := range num.Obs {
		d := denom.Obs[i].Value
		if d == 0 {
			return Series{}, fmt.Errorf("ratio %s/%s: zero denominator at %s", a.ID, b.ID, denom.Obs[i].Date.Format("2006-01-02"))
		}
		out.Obs[i] = Observation{Date: num.Obs[i].Date, Value: num.Obs[i].Value / d}
	}
	return out, nil
}

// NormalizeAt rescales s so that its value at base is exactly 1.
func NormalizeAt(id string, s Series, base time.Time) (Series, error) {
	v, ok := s.At(base)
	if !ok {
		return Series{}, fmt.Errorf("%w: %s has no observation on %s", ErrBaseDateMissing, s.ID, base.Format("2006-01-02"))
	}
	if v == 0 {
		return Series{}, fmt.Errorf("normalize %s: zero value on base date %s", s.ID, base.Format("2006-01-02"))
	}
	out := s.Map(id, func(x float64) float64 { return x / v })
	// value on the base date is exactly 1
	for i := range out.Obs {
		if out.Obs[i].Date.Equal(base) {
			out.Obs[i].Value = 1
		}
	}
	return out, nil
}

// Log100 returns 100*ln(x), so first differences read as approximate percent changes.
func Log100(id string, s Series) (Series, error) {
	for _, o := range s.Obs {
		if o.Value <= 0 {
			return Series{}, fmt.Errorf("log %s: non-positive value %g at %s", s.ID, o.Value, o.Date.Format("2006-01-02"))
		}
	}
	return s.Map(id, func(x float64) float64 { return 100 * math.Log(x) }), nil
}
