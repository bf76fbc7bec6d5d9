package planner

import "sort"

// ApplyTimeWindows reorders the reorderable interior of the tour so that
// stops with earlier time windows are visited first. Stops without a window
// keep their optimized relative order and sort ahead of windowed stops, since
// they are feasible at any time. This is a best-effort approximation, not a
// feasibility-guaranteeing scheduler.
func ApplyTimeWindows(stops []Stop, t Tour, c Constraints) Tour {
	lo, hi := interiorBounds(len(t), c.RoundTrip)
	if hi-lo < 1 {
		return t
	}

	windowed := false
	for pos := lo; pos <= hi; pos++ {
		if stops[t[pos]].TimeWindow != nil {
			windowed = true
			break
		}
	}
	if !windowed {
		return t
	}

	out := t.clone()
	interior := out[lo : hi+1]
	sort.SliceStable(interior, func(a, b int) bool {
		return windowStart(stops[interior[a]]) < windowStart(stops[interior[b]])
	})
	return out
}

// windowStart is the earliest feasible arrival in minutes of day; stops
// without a window are feasible immediately.
func windowStart(s Stop) int {
	if s.TimeWindow == nil {
		return 0
	}
	return s.TimeWindow.EarliestMin
}

// TotalDemand sums the capacity demand over all stops.
func TotalDemand(stops []Stop) float64 {
	total := 0.0
	for _, s := range stops {
		total += s.Demand
	}
	return total
}
