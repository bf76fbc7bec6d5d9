package planner

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/wayplan/wayplan/internal/matrix"
)

// MatrixProvider supplies travel cost matrices for a set of locations.
type MatrixProvider interface {
	Matrix(ctx context.Context, req matrix.Request) (*matrix.Matrix, error)
	ProviderName() string
}

// ServiceConfig holds configuration for the planner service.
type ServiceConfig struct {
	// Matrices supplies travel costs between stops.
	Matrices MatrixProvider

	// Logger for service operations.
	Logger zerolog.Logger
}

// Service turns a set of stops into an ordered plan.
type Service struct {
	matrices MatrixProvider
	logger   zerolog.Logger
}

// NewService creates a new planner service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		matrices: cfg.Matrices,
		logger:   cfg.Logger,
	}
}

// PlanRequest is the input to Compute.
type PlanRequest struct {
	Stops       []Stop
	Constraints Constraints
	Options     Options
}

// Compute validates the request, fetches a travel matrix, searches for a
// low-cost visiting order and assembles the final plan.
//
// Stops without a resolved location are skipped with a warning. Validation
// failures return a *ValidationError; matrix provider failures degrade to
// great-circle estimates and never fail the plan.
func (s *Service) Compute(ctx context.Context, req PlanRequest) (*Plan, error) {
	start := time.Now()
	opts := req.Options.withDefaults()

	if err := s.validateRequest(req); err != nil {
		return nil, err
	}

	stops, skipped := resolvedStops(req.Stops)
	if len(stops) < MinStops {
		return nil, &ValidationError{
			Errors: []FieldError{{
				Field:   "stops",
				Message: fmt.Sprintf("only %d of %d stops have a resolved location, need at least %d", len(stops), len(req.Stops), MinStops),
			}},
			Err: ErrUnresolvedStops,
		}
	}

	locations := make([]matrix.Coordinate, len(stops))
	for i, st := range stops {
		locations[i] = matrix.Coordinate{Lat: st.Location.Lat, Lon: st.Location.Lon}
	}

	m, err := s.matrices.Matrix(ctx, matrix.Request{
		Locations:     locations,
		Mode:          opts.Mode,
		AvoidTolls:    req.Constraints.AvoidTolls,
		AvoidHighways: req.Constraints.AvoidHighways,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching travel matrix: %w", err)
	}

	sol, err := Solve(ctx, m, req.Constraints, opts)
	if err != nil {
		return nil, err
	}

	// Best-effort time window pass. Keep the reordered tour only if it is
	// still a valid permutation; cost may go up, that is the trade-off.
	adjusted := ApplyTimeWindows(stops, sol.Tour, req.Constraints)
	if ValidateTour(adjusted, m.Size()) == nil {
		sol.Tour = adjusted
		sol.Cost = tourCost(m, adjusted, req.Constraints.RoundTrip)
	}

	plan := Assemble(stops, m, sol, req.Constraints, opts)
	plan.Degraded = m.Degraded
	plan.Warnings = s.collectWarnings(stops, skipped, m, plan, req.Constraints)

	s.logger.Info().
		Str("plan_id", plan.ID).
		Int("stops", len(stops)).
		Str("algorithm", string(plan.Algorithm)).
		Bool("degraded", plan.Degraded).
		Bool("timed_out", plan.TimedOut).
		Dur("elapsed", time.Since(start)).
		Msg("plan computed")

	return plan, nil
}

func (s *Service) validateRequest(req PlanRequest) error {
	var fieldErrors []FieldError

	switch {
	case len(req.Stops) < MinStops:
		return &ValidationError{
			Errors: []FieldError{{Field: "stops", Message: fmt.Sprintf("at least %d stops are required", MinStops)}},
			Err:    ErrTooFewStops,
		}
	case len(req.Stops) > MaxStops:
		return &ValidationError{
			Errors: []FieldError{{Field: "stops", Message: fmt.Sprintf("at most %d stops are supported", MaxStops)}},
			Err:    ErrTooManyStops,
		}
	}

	for i, st := range req.Stops {
		if st.Location == nil {
			continue
		}
		if err := matrix.ValidateCoordinate(matrix.Coordinate{Lat: st.Location.Lat, Lon: st.Location.Lon}); err != nil {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   fmt.Sprintf("stops[%d].location", i),
				Message: err.Error(),
			})
		}
		if st.ServiceMinutes < 0 {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   fmt.Sprintf("stops[%d].service_minutes", i),
				Message: "must not be negative",
			})
		}
		if tw := st.TimeWindow; tw != nil && tw.LatestMin < tw.EarliestMin {
			fieldErrors = append(fieldErrors, FieldError{
				Field:   fmt.Sprintf("stops[%d].time_window", i),
				Message: "latest must not be before earliest",
			})
		}
	}

	if p := req.Options.ReversalProbability; p < 0 || p > 1 {
		fieldErrors = append(fieldErrors, FieldError{
			Field:   "options.reversal_probability",
			Message: "must be between 0 and 1",
		})
	}

	if len(fieldErrors) > 0 {
		return &ValidationError{Errors: fieldErrors}
	}
	return nil
}

// resolvedStops filters out stops without a geocoded location, preserving
// order. The first resolved stop becomes the route origin.
func resolvedStops(stops []Stop) (resolved []Stop, skipped []Stop) {
	for _, st := range stops {
		if st.Location == nil {
			skipped = append(skipped, st)
			continue
		}
		resolved = append(resolved, st)
	}
	return resolved, skipped
}

func (s *Service) collectWarnings(stops, skipped []Stop, m *matrix.Matrix, plan *Plan, c Constraints) []string {
	var warnings []string

	for _, st := range skipped {
		warnings = append(warnings, fmt.Sprintf("stop %q has no resolved location and was excluded from the route", stopLabel(st)))
	}
	if m.Degraded {
		warnings = append(warnings, fmt.Sprintf("travel costs are partially estimated from straight-line distance (provider: %s)", m.Provider))
	}
	if plan.TimedOut {
		warnings = append(warnings, "optimization stopped at the time budget; returning the best route found so far")
	}
	if c.VehicleCapacity > 0 {
		if demand := TotalDemand(stops); demand > c.VehicleCapacity {
			warnings = append(warnings, fmt.Sprintf("total demand %.1f exceeds vehicle capacity %.1f", demand, c.VehicleCapacity))
		}
	}
	if c.MaxTravelTime > 0 && plan.TotalTravelTime > c.MaxTravelTime {
		warnings = append(warnings, fmt.Sprintf("estimated travel time %s exceeds the requested maximum %s", plan.TotalTravelTime.Round(time.Minute), c.MaxTravelTime))
	}

	return warnings
}

func stopLabel(st Stop) string {
	if st.Name != "" {
		return st.Name
	}
	if st.ID != "" {
		return st.ID
	}
	return st.Address
}
