// Date: Oct 18th 2026
// Project: A Recursive SVAR Analysis of US Monetary Policy Shocks

package series

import "time"

// dateKey collapses a date to a comparable key; observation dates are calendar days.
func dateKey(d time.Time) int64 {
	return d.UTC().Truncate(24 * time.Hour).Unix()
}

// Align restricts s to exactly the reference dates. Matching is exact: a
// reference date absent from s is dropped, nothing is interpolated.
func Align(ref []time.Time, s Series) Series {
	out, _ := AlignCount(ref, s)
	return out
}

// AlignCount is Align that also reports how many reference dates were missing from s.
func AlignCount(ref []time.Time, s Series) (Series, int) {
	byDate := make(map[int64]float64, len(s.Obs))
	for _, o := range s.Obs {
		byDate[dateKey(o.Date)] = o.Value
	}

	out := Series{ID: s.ID, Obs: make([]Observation, 0, len(ref))}
	dropped := 0
	for _, d := range ref {
		v, ok := byDate[dateKey(d)]
		if !ok {
			dropped++
			continue
		}
		out.Obs = append(out.Obs, Observation{Date: d, Value: v})
	}
	return out, dropped
}

// Intersect returns the reference dates present in every series, in reference order.
func Intersect(ref []time.Time, members ...Series) []time.Time {
	sets := make([]map[int64]struct{}, len(members))
	for i, s := range members {
		sets[i] = make(map[int64]struct{}, len(s.Obs))
		for _, o := range s.Obs {
			sets[i][dateKey(o.Date)] = struct{}{}
		}
	}

	var out []time.Time
	for _, d := range ref {
		k := dateKey(d)
		inAll := true
		for _, set := range sets {
			if _, ok := set[k]; !ok {
				inAll = false
				break
			}
		}
		if inAll {
			out = append(out, d)
		}
	}
	return out
}

// AlignPanel aligns every member to the dates common to ref and all members,
// so the resulting panel is rectangular.
func AlignPanel(ref []time.Time, members ...Series) (*Panel, error) {
	common := Intersect(ref, members...)
	aligned := make([]Series, len(members))
	for i, s := range members {
		aligned[i] = Align(common, s)
	}
	return NewPanel(aligned...)
}
