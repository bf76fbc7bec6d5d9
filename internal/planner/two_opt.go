package planner

import "github.com/wayplan/wayplan/internal/matrix"

// TwoOpt improves a tour to a local optimum by first-improvement segment
// reversal. Only interior positions are reversed; the fixed endpoints never
// move, so the permutation invariant is preserved by construction. The
// returned cost is never higher than the input tour's cost.
func TwoOpt(m *matrix.Matrix, c Constraints, t Tour) Tour {
	lo, hi := interiorBounds(len(t), c.RoundTrip)
	if hi-lo < 1 {
		return t
	}

	best := t.clone()
	bestCost := tourCost(m, best, c.RoundTrip)

	improved := true
	for improved {
		improved = false
		for i := lo; i < hi && !improved; i++ {
			for j := i + 1; j <= hi; j++ {
				cand := reverseSegment(best, i, j)
				if cost := tourCost(m, cand, c.RoundTrip); cost < bestCost {
					best = cand
					bestCost = cost
					improved = true
					break
				}
			}
		}
	}
	return best
}

// reverseSegment returns a new tour with positions [i, j] reversed.
func reverseSegment(t Tour, i, j int) Tour {
	out := t.clone()
	for a, b := i, j; a < b; a, b = a+1, b-1 {
		out[a], out[b] = out[b], out[a]
	}
	return out
}

// swapPair returns a new tour with positions i and j exchanged.
func swapPair(t Tour, i, j int) Tour {
	out := t.clone()
	out[i], out[j] = out[j], out[i]
	return out
}
