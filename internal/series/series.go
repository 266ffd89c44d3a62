// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

// Package series holds dated observation series and the transforms the
// pipeline applies to them before estimation.
package series

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"
)

var (
	ErrEmptySeries     = errors.New("series: empty series")
	ErrBaseDateMissing = errors.New("series: base date not in series")
	ErrUnordered       = errors.New("series: dates not strictly increasing")
	ErrPanelMismatch   = errors.New("series: panel members have different dates")
)

// Observation is one (date, value) pair.
type Observation struct {
	Date  time.Time
	Value float64
}

// Series is an ordered sequence of observations, one per period.
type Series struct {
	ID  string
	Obs []Observation
}

// New zips dates and values into a validated Series.
func New(id string, dates []time.Time, values []float64) (Series, error) {
	if len(dates) != len(values) {
		return Series{}, fmt.Errorf("series %s: %d dates but %d values", id, len(dates), len(values))
	}
	obs := make([]Observation, len(dates))
	for i := range dates {
		obs[i] = Observation{Date: dates[i], Value: values[i]}
	}
	s := Series{ID: id, Obs: obs}
	if err := s.Validate(); err != nil {
		return Series{}, err
	}
	return s, nil
}

func (s Series) Len() int { return len(s.Obs) }

// Validate checks that dates are strictly increasing (no duplicates).
func (s Series) Validate() error {
	for i := 1; i < len(s.Obs); i++ {
		if !s.Obs[i].Date.After(s.Obs[i-1].Date) {
			return fmt.Errorf("%w: %s at index %d (%s after %s)", ErrUnordered, s.ID, i,
				s.Obs[i].Date.Format("2006-01-02"), s.Obs[i-1].Date.Format("2006-01-02"))
		}
	}
	return nil
}

func (s Series) Dates() []time.Time {
	out := make([]time.Time, len(s.Obs))
	for i, o := range s.Obs {
		out[i] = o.Date
	}
	return out
}

func (s Series) Values() []float64 {
	out := make([]float64, len(s.Obs))
	for i, o := range s.Obs {
		out[i] = o.Value
	}
	return out
}

// At returns the value observed on date, if any.
func (s Series) At(date time.Time) (float64, bool) {
	for _, o := range s.Obs {
		if o.Date.Equal(date) {
			return o.Value, true
		}
	}
	return 0, false
}

// First and Last return the boundary dates; zero time for an empty series.
func (s Series) First() time.Time {
	if len(s.Obs) == 0 {
		return time.Time{}
	}
	return s.Obs[0].Date
}

func (s Series) Last() time.Time {
	if len(s.Obs) == 0 {
		return time.Time{}
	}
	return s.Obs[len(s.Obs)-1].Date
}

// Between keeps observations with start <= date <= end.
func (s Series) Between(start, end time.Time) Series {
	out := Series{ID: s.ID}
	for _, o := range s.Obs {
		if o.Date.Before(start) || o.Date.After(end) {
			continue
		}
		out.Obs = append(out.Obs, o)
	}
	return out
}

// Map applies fn to every value and renames the result.
func (s Series) Map(id string, fn func(float64) float64) Series {
	out := Series{ID: id, Obs: make([]Observation, len(s.Obs))}
	for i, o := range s.Obs {
		out.Obs[i] = Observation{Date: o.Date, Value: fn(o.Value)}
	}
	return out
}

// Rename returns a copy carrying a new ID.
func (s Series) Rename(id string) Series {
	out := Series{ID: id, Obs: make([]Observation, len(s.Obs))}
	copy(out.Obs, s.Obs)
	return out
}

// Panel is a set of named series sharing one ordered set of dates.
type Panel struct {
	names  []string
	series map[string]Series
	dates  []time.Time
}

// NewPanel builds a panel; every member must carry exactly the same dates.
// Member names are the series IDs, in argument order.
func NewPanel(members ...Series) (*Panel, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("%w: panel has no members", ErrEmptySeries)
	}
	ref := members[0].Dates()
	p := &Panel{series: make(map[string]Series, len(members)), dates: ref}
	for _, s := range members {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := p.series[s.ID]; dup {
			return nil, fmt.Errorf("series: duplicate panel member %s", s.ID)
		}
		if !sameDates(ref, s.Dates()) {
			return nil, fmt.Errorf("%w: %s has %d observations, %s has %d",
				ErrPanelMismatch, members[0].ID, len(ref), s.ID, s.Len())
		}
		p.names = append(p.names, s.ID)
		p.series[s.ID] = s
	}
	return p, nil
}

func (p *Panel) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

func (p *Panel) Dates() []time.Time {
	out := make([]time.Time, len(p.dates))
	copy(out, p.dates)
	return out
}

func (p *Panel) Len() int { return len(p.dates) }

func (p *Panel) Get(name string) (Series, bool) {
	s, ok := p.series[name]
	return s, ok
}

// Matrix stacks the named members as columns, in the order given.
func (p *Panel) Matrix(names ...string) (*mat.Dense, error) {
	T := len(p.dates)
	if T == 0 {
		return nil, ErrEmptySeries
	}
	Y := mat.NewDense(T, len(names), nil)
	for j, name := range names {
		s, ok := p.series[name]
		if !ok {
			return nil, fmt.Errorf("series: panel has no member %q", name)
		}
		for t, o := range s.Obs {
			Y.Set(t, j, o.Value)
		}
	}
	return Y, nil
}

func sameDates(a, b []time.Time) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// DecimalYear maps a date to year + fraction of year elapsed, e.g. 1960-04-01 -> 1960.25
// for quarter starts.
func DecimalYear(d time.Time) float64 {
	return float64(d.Year()) + float64(d.Month()-1)/12.0
}
