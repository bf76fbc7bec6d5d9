package planner

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/wayplan/wayplan/internal/matrix"
)

// Solve computes the cheapest visiting order for the stops covered by the
// matrix. The strategy is chosen from opts.Algorithm; AlgorithmAuto selects
// the constructive+2-opt hybrid for small instances and simulated annealing
// for larger ones. The returned tour is always a permutation of the input
// index set.
func Solve(ctx context.Context, m *matrix.Matrix, c Constraints, opts Options) (Solution, error) {
	opts = opts.withDefaults()
	n := m.Size()
	if n < MinStops {
		return Solution{}, ErrTooFewStops
	}

	rng := rand.New(rand.NewSource(opts.Seed))

	algo := opts.Algorithm
	if algo == AlgorithmAuto {
		if n > smallInstanceThreshold {
			algo = AlgorithmAnnealing
		} else {
			algo = AlgorithmHybrid
		}
	}

	var (
		tour     Tour
		timedOut bool
	)
	switch algo {
	case AlgorithmNearestNeighbor:
		tour = NearestNeighbor(m, c)
	case AlgorithmRandomInsertion:
		tour = RandomInsertion(m, c, rng)
	case AlgorithmFarthestInsertion:
		tour = FarthestInsertion(m, c)
	case AlgorithmTwoOpt:
		tour = TwoOpt(m, c, NearestNeighbor(m, c))
	case AlgorithmAnnealing:
		seed := NearestNeighbor(m, c)
		tour, timedOut = Anneal(ctx, m, c, seed, opts, rng)
	case AlgorithmHybrid:
		tour = hybrid(m, c, rng)
	default:
		return Solution{}, fmt.Errorf("unknown algorithm %q", algo)
	}

	if err := ValidateTour(tour, n); err != nil {
		return Solution{}, fmt.Errorf("%s produced invalid tour: %w", algo, err)
	}

	return Solution{
		Tour:      tour,
		Cost:      tourCost(m, tour, c.RoundTrip),
		Algorithm: algo,
		TimedOut:  timedOut,
	}, nil
}

// hybrid runs every constructive heuristic once, keeps the cheapest result as
// the seed, and improves it with 2-opt.
func hybrid(m *matrix.Matrix, c Constraints, rng *rand.Rand) Tour {
	candidates := []Tour{
		NearestNeighbor(m, c),
		RandomInsertion(m, c, rng),
		FarthestInsertion(m, c),
	}
	best := candidates[0]
	bestCost := tourCost(m, best, c.RoundTrip)
	for _, cand := range candidates[1:] {
		if cost := tourCost(m, cand, c.RoundTrip); cost < bestCost {
			best = cand
			bestCost = cost
		}
	}
	return TwoOpt(m, c, best)
}
