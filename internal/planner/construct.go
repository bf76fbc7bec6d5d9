package planner

import (
	"math"
	"math/rand"

	"github.com/wayplan/wayplan/internal/matrix"
)

// NearestNeighbor builds a tour by repeatedly moving to the cheapest
// not-yet-visited reorderable stop, starting from the fixed origin. Ties
// break toward the lowest index. For one-way routes the fixed destination is
// appended last.
func NearestNeighbor(m *matrix.Matrix, c Constraints) Tour {
	n := m.Size()
	tour := make(Tour, 0, n)
	tour = append(tour, 0)

	visited := make([]bool, n)
	visited[0] = true
	last := n // candidates in [1, last)
	if !c.RoundTrip {
		last = n - 1
	}

	cur := 0
	for len(tour) < lastFreeLen(n, c.RoundTrip) {
		next := -1
		best := math.MaxFloat64
		for j := 1; j < last; j++ {
			if visited[j] {
				continue
			}
			if d := m.Duration(cur, j); d < best {
				best = d
				next = j
			}
		}
		tour = append(tour, next)
		visited[next] = true
		cur = next
	}
	if !c.RoundTrip {
		tour = append(tour, n-1)
	}
	return tour
}

// lastFreeLen is the tour length once all reorderable stops are placed.
func lastFreeLen(n int, roundTrip bool) int {
	if roundTrip {
		return n
	}
	return n - 1
}

// RandomInsertion builds a tour by inserting uniformly random unvisited stops
// at their cheapest position in the partial route.
func RandomInsertion(m *matrix.Matrix, c Constraints, rng *rand.Rand) Tour {
	tour, remaining := insertionSeed(m.Size(), c)
	for len(remaining) > 0 {
		k := rng.Intn(len(remaining))
		idx := remaining[k]
		remaining = append(remaining[:k], remaining[k+1:]...)
		tour = insertAt(tour, idx, bestInsertionPos(m, tour, idx, c))
	}
	return tour
}

// FarthestInsertion builds a tour by repeatedly selecting the most isolated
// remaining stop (the one whose cheapest connection to the partial route is
// most expensive) and inserting it at its best position.
func FarthestInsertion(m *matrix.Matrix, c Constraints) Tour {
	tour, remaining := insertionSeed(m.Size(), c)
	for len(remaining) > 0 {
		pick := 0
		pickScore := -1.0
		for k, idx := range remaining {
			nearest := math.MaxFloat64
			for _, in := range tour {
				if d := m.Duration(in, idx); d < nearest {
					nearest = d
				}
			}
			if nearest > pickScore {
				pickScore = nearest
				pick = k
			}
		}
		idx := remaining[pick]
		remaining = append(remaining[:pick], remaining[pick+1:]...)
		tour = insertAt(tour, idx, bestInsertionPos(m, tour, idx, c))
	}
	return tour
}

// insertionSeed returns the fixed skeleton of the tour (origin only for
// round trips, origin plus destination for one-way) and the reorderable
// stops still to place.
func insertionSeed(n int, c Constraints) (Tour, []int) {
	var tour Tour
	last := n
	if c.RoundTrip {
		tour = Tour{0}
	} else {
		tour = Tour{0, n - 1}
		last = n - 1
	}
	remaining := make([]int, 0, last-1)
	for j := 1; j < last; j++ {
		remaining = append(remaining, j)
	}
	return tour, remaining
}

// bestInsertionPos finds the position with the smallest marginal cost.
// One-way tours never insert past the fixed destination.
func bestInsertionPos(m *matrix.Matrix, t Tour, idx int, c Constraints) int {
	maxPos := len(t)
	if !c.RoundTrip {
		maxPos = len(t) - 1
	}
	bestPos := 1
	bestDelta := math.MaxFloat64
	for pos := 1; pos <= maxPos; pos++ {
		if d := insertionDelta(m, t, idx, pos, c.RoundTrip); d < bestDelta {
			bestDelta = d
			bestPos = pos
		}
	}
	return bestPos
}
