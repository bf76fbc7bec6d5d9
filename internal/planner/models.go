// Package planner computes the visiting order for a small set of stops so
// that total travel cost is minimized under optional constraints.
package planner

import (
	"errors"
	"time"

	"github.com/wayplan/wayplan/internal/matrix"
)

// Stop count bounds for a single planning request.
const (
	MinStops = 2
	MaxStops = 10
)

// smallInstanceThreshold is the largest stop count solved by the
// constructive+2-opt hybrid; larger instances use simulated annealing.
const smallInstanceThreshold = 8

// Sentinel errors for planning operations.
var (
	// ErrTooFewStops indicates fewer than MinStops stops were submitted.
	ErrTooFewStops = errors.New("at least two stops are required")
	// ErrTooManyStops indicates more than MaxStops stops were submitted.
	ErrTooManyStops = errors.New("too many stops for a single plan")
	// ErrUnresolvedStops indicates fewer than two stops have a resolved location.
	ErrUnresolvedStops = errors.New("at least two stops with resolved locations are required")
	// ErrInvalidTour indicates an internal search step produced a non-permutation.
	ErrInvalidTour = errors.New("candidate route is not a permutation of the stop set")
)

// Location represents a resolved geographic point.
type Location struct {
	Lat float64
	Lon float64
}

// TimeWindow is the acceptable arrival interval for a stop, in minutes of day.
type TimeWindow struct {
	EarliestMin int
	LatestMin   int
}

// Stop is a single geographic point the route must visit.
type Stop struct {
	ID             string
	Name           string
	Address        string
	// Location is nil until the stop has been resolved by the geocoder.
	// Unresolved stops are excluded from the solve.
	Location       *Location
	ServiceMinutes int
	TimeWindow     *TimeWindow
	// Priority is ordinal; higher means more important.
	Priority int
	// Demand is the load picked up or delivered at this stop, in abstract
	// capacity units. Advisory only; see Constraints.VehicleCapacity.
	Demand float64
}

// Constraints are the solve-time constraints for a planning request.
type Constraints struct {
	// RoundTrip adds a closing edge back to the first stop and frees the
	// last stop for reordering.
	RoundTrip bool
	// VehicleCapacity is the capacity ceiling in the same units as
	// Stop.Demand. Exceeding it produces a warning, not a rejection.
	VehicleCapacity float64
	// MaxTravelTime caps total travel time. Exceeding it produces a warning.
	MaxTravelTime time.Duration
	// AvoidTolls and AvoidHighways are passed through to the matrix
	// provider and are not interpreted by the solver.
	AvoidTolls    bool
	AvoidHighways bool
}

// Algorithm selects the solve strategy.
type Algorithm string

const (
	// AlgorithmAuto picks hybrid or annealing based on instance size.
	AlgorithmAuto Algorithm = "auto"
	// AlgorithmNearestNeighbor runs the nearest-neighbor construction only.
	AlgorithmNearestNeighbor Algorithm = "nearest-neighbor"
	// AlgorithmRandomInsertion runs the random-insertion construction only.
	AlgorithmRandomInsertion Algorithm = "random-insertion"
	// AlgorithmFarthestInsertion runs the farthest-insertion construction only.
	AlgorithmFarthestInsertion Algorithm = "farthest-insertion"
	// AlgorithmTwoOpt improves a nearest-neighbor seed with 2-opt.
	AlgorithmTwoOpt Algorithm = "two-opt"
	// AlgorithmAnnealing runs simulated annealing seeded by nearest neighbor.
	AlgorithmAnnealing Algorithm = "annealing"
	// AlgorithmHybrid runs all constructions and improves the best with 2-opt.
	AlgorithmHybrid Algorithm = "hybrid"
)

// Options tune the solve.
type Options struct {
	// Algorithm defaults to AlgorithmAuto.
	Algorithm Algorithm
	// TimeBudget is the wall-clock budget for the metaheuristic
	// (default: 30 seconds).
	TimeBudget time.Duration
	// MaxIterations caps total annealing iterations; 0 means unlimited.
	MaxIterations int
	// ReversalProbability is the chance an annealing neighbor is generated
	// by segment reversal rather than a pairwise swap (default: 0.8).
	ReversalProbability float64
	// Seed makes runs reproducible; 0 means derive from the clock.
	Seed int64
	// Mode is the travel mode used for matrix acquisition and fallback
	// speed assumptions (default: driving).
	Mode matrix.Mode
	// DepartureTime anchors arrival estimates; zero means the next top of
	// the hour.
	DepartureTime time.Time
}

// withDefaults fills unset options.
func (o Options) withDefaults() Options {
	if o.Algorithm == "" {
		o.Algorithm = AlgorithmAuto
	}
	if o.TimeBudget == 0 {
		o.TimeBudget = 30 * time.Second
	}
	if o.ReversalProbability == 0 {
		o.ReversalProbability = 0.8
	}
	if o.Mode == "" {
		o.Mode = matrix.ModeDriving
	}
	if o.Seed == 0 {
		o.Seed = time.Now().UnixNano()
	}
	return o
}

// Tour is an ordering of stop indices. A valid tour is a permutation of
// [0, n) with the origin fixed at position 0. Tours are treated as immutable;
// transforms return new slices.
type Tour []int

// clone returns a copy of the tour.
func (t Tour) clone() Tour {
	out := make(Tour, len(t))
	copy(out, t)
	return out
}

// Solution is a candidate tour with its total cost.
type Solution struct {
	Tour Tour
	// Cost is the total travel time in seconds, including the closing edge
	// for round trips.
	Cost float64
	// Algorithm that produced the tour.
	Algorithm Algorithm
	// TimedOut is true when the search budget expired before convergence.
	TimedOut bool
}

// FieldError describes a validation failure on a specific input field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned when a planning request fails validation.
// It is fatal to the solve attempt; nothing is computed.
type ValidationError struct {
	Errors []FieldError
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return "validation failed: " + e.Err.Error()
	}
	return "validation failed"
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidateTour checks the core permutation invariant: a tour must contain
// every index in [0, n) exactly once and start at the origin. An empty tour
// is never a valid candidate.
func ValidateTour(t Tour, n int) error {
	if n < 1 || len(t) != n {
		return ErrInvalidTour
	}
	if t[0] != 0 {
		return ErrInvalidTour
	}
	seen := make([]bool, n)
	for _, idx := range t {
		if idx < 0 || idx >= n || seen[idx] {
			return ErrInvalidTour
		}
		seen[idx] = true
	}
	return nil
}
