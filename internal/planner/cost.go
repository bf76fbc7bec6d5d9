package planner

import "github.com/wayplan/wayplan/internal/matrix"

// tourCost returns the total travel time in seconds over consecutive edges,
// plus the closing edge back to the origin for round trips.
func tourCost(m *matrix.Matrix, t Tour, roundTrip bool) float64 {
	total := 0.0
	for i := 0; i < len(t)-1; i++ {
		total += m.Duration(t[i], t[i+1])
	}
	if roundTrip && len(t) > 1 {
		total += m.Duration(t[len(t)-1], t[0])
	}
	return total
}

// tourDistance returns the total travel distance in meters over consecutive
// edges, plus the closing edge for round trips.
func tourDistance(m *matrix.Matrix, t Tour, roundTrip bool) float64 {
	total := 0.0
	for i := 0; i < len(t)-1; i++ {
		total += m.Distance(t[i], t[i+1])
	}
	if roundTrip && len(t) > 1 {
		total += m.Distance(t[len(t)-1], t[0])
	}
	return total
}

// interiorBounds returns the inclusive position range [lo, hi] of a tour that
// is free to reorder. The origin at position 0 is always fixed; for one-way
// routes the final position holds the fixed destination.
func interiorBounds(n int, roundTrip bool) (lo, hi int) {
	lo = 1
	if roundTrip {
		return lo, n - 1
	}
	return lo, n - 2
}

// insertionDelta is the marginal cost of inserting stop idx between tour
// positions pos-1 and pos. For round trips, inserting past the end splices
// the closing edge back to the origin.
func insertionDelta(m *matrix.Matrix, t Tour, idx, pos int, roundTrip bool) float64 {
	before := t[pos-1]
	var after int
	switch {
	case pos < len(t):
		after = t[pos]
	case roundTrip:
		after = t[0]
	default:
		// Appending past the fixed destination is never a legal position
		// for one-way tours; callers do not generate it.
		return 0
	}
	return m.Duration(before, idx) + m.Duration(idx, after) - m.Duration(before, after)
}

// insertAt returns a new tour with idx inserted at position pos.
func insertAt(t Tour, idx, pos int) Tour {
	out := make(Tour, 0, len(t)+1)
	out = append(out, t[:pos]...)
	out = append(out, idx)
	out = append(out, t[pos:]...)
	return out
}
