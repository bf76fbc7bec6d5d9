package planner

import (
	"math/rand"
	"testing"
)

func TestNearestNeighbor_LineIsVisitedInOrder(t *testing.T) {
	m := matrixFromPoints(t, linePoints(6))

	tour := NearestNeighbor(m, Constraints{RoundTrip: true})

	assertValidTour(t, tour, 6)
	for i, idx := range tour {
		if idx != i {
			t.Fatalf("tour = %v, want stops on a line visited in order", tour)
		}
	}
}

func TestNearestNeighbor_OneWayFixesDestination(t *testing.T) {
	m := matrixFromPoints(t, [][2]float64{{0, 0}, {5, 0}, {1, 0}, {2, 0}})

	tour := NearestNeighbor(m, Constraints{})

	assertValidTour(t, tour, 4)
	if tour[0] != 0 {
		t.Errorf("tour starts at %d, want origin 0", tour[0])
	}
	if tour[len(tour)-1] != 3 {
		t.Errorf("tour ends at %d, want destination 3", tour[len(tour)-1])
	}
}

func TestRandomInsertion_ProducesValidTours(t *testing.T) {
	m := unitSquare(t)
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 20; i++ {
		for _, roundTrip := range []bool{true, false} {
			tour := RandomInsertion(m, Constraints{RoundTrip: roundTrip}, rng)
			assertValidTour(t, tour, 4)
			if !roundTrip && tour[len(tour)-1] != 3 {
				t.Errorf("one-way tour %v does not end at the last stop", tour)
			}
		}
	}
}

func TestRandomInsertion_SeededRunsAreDeterministic(t *testing.T) {
	m := matrixFromPoints(t, linePoints(7))

	a := RandomInsertion(m, Constraints{RoundTrip: true}, rand.New(rand.NewSource(99)))
	b := RandomInsertion(m, Constraints{RoundTrip: true}, rand.New(rand.NewSource(99)))

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed produced different tours: %v vs %v", a, b)
		}
	}
}

func TestFarthestInsertion_UnitSquareRoundTrip(t *testing.T) {
	m := unitSquare(t)

	tour := FarthestInsertion(m, Constraints{RoundTrip: true})

	assertValidTour(t, tour, 4)
	if cost := tourCost(m, tour, true); cost != 4 {
		t.Errorf("farthest insertion cost = %v, want perimeter 4 (tour %v)", cost, tour)
	}
}

func TestFarthestInsertion_TwoStops(t *testing.T) {
	m := matrixFromPoints(t, [][2]float64{{0, 0}, {3, 4}})

	for _, roundTrip := range []bool{true, false} {
		tour := FarthestInsertion(m, Constraints{RoundTrip: roundTrip})
		assertValidTour(t, tour, 2)
		if tour[0] != 0 || tour[1] != 1 {
			t.Errorf("two-stop tour = %v, want [0 1]", tour)
		}
	}
}
