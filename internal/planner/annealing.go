package planner

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/wayplan/wayplan/internal/matrix"
)

// Simulated annealing schedule.
const (
	annealInitialTemp = 1000.0
	annealFinalTemp   = 1.0
	annealCoolingRate = 0.995
)

// Anneal runs simulated annealing from the given seed tour. Neighbors are
// generated by randomized interior segment reversal or, less often, a random
// pairwise swap; worse neighbors are accepted with the Metropolis criterion.
// The best-ever tour is tracked separately and always returned, even when the
// context is cancelled or the wall-clock budget expires mid-search.
func Anneal(ctx context.Context, m *matrix.Matrix, c Constraints, seed Tour, opts Options, rng *rand.Rand) (Tour, bool) {
	lo, hi := interiorBounds(len(seed), c.RoundTrip)
	if hi-lo < 1 {
		return seed, false
	}

	cur := seed.clone()
	curCost := tourCost(m, cur, c.RoundTrip)
	best := cur
	bestCost := curCost

	itersPerStage := 5 * m.Size()
	if itersPerStage < 100 {
		itersPerStage = 100
	}

	deadline := time.Now().Add(opts.TimeBudget)
	iterations := 0
	timedOut := false

	for temp := annealInitialTemp; temp > annealFinalTemp; temp *= annealCoolingRate {
		// A caller abandoning the request must not leave unbounded work
		// running; check once per temperature stage.
		if ctx.Err() != nil || time.Now().After(deadline) {
			timedOut = true
			break
		}

		for k := 0; k < itersPerStage; k++ {
			iterations++
			if opts.MaxIterations > 0 && iterations > opts.MaxIterations {
				return best, true
			}

			neighbor := neighborTour(cur, lo, hi, opts.ReversalProbability, rng)
			cost := tourCost(m, neighbor, c.RoundTrip)
			delta := cost - curCost

			if delta < 0 || rng.Float64() < math.Exp(-delta/temp) {
				cur = neighbor
				curCost = cost
				if curCost < bestCost {
					best = cur
					bestCost = curCost
				}
			}
		}
	}

	return best, timedOut
}

// neighborTour generates a random neighbor restricted to the reorderable
// interior positions [lo, hi].
func neighborTour(t Tour, lo, hi int, reversalProb float64, rng *rand.Rand) Tour {
	span := hi - lo + 1
	i := lo + rng.Intn(span)
	j := lo + rng.Intn(span)
	for j == i {
		j = lo + rng.Intn(span)
	}
	if i > j {
		i, j = j, i
	}
	if rng.Float64() < reversalProb {
		return reverseSegment(t, i, j)
	}
	return swapPair(t, i, j)
}
