package planner

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/wayplan/wayplan/internal/matrix"
)

// mockMatrices serves matrices built from great-circle estimates, so any set
// of coordinates yields a complete, consistent matrix.
type mockMatrices struct {
	callCount atomic.Int32
	err       error
	degraded  bool
}

func (m *mockMatrices) Matrix(ctx context.Context, req matrix.Request) (*matrix.Matrix, error) {
	m.callCount.Add(1)
	if m.err != nil {
		return nil, m.err
	}
	est := matrix.NewFallbackEstimator()
	result, err := est.Matrix(ctx, req)
	if err != nil {
		return nil, err
	}
	result.Degraded = m.degraded
	return result, nil
}

func (m *mockMatrices) ProviderName() string {
	return "mock"
}

func testStops(n int) []Stop {
	stops := make([]Stop, n)
	for i := range stops {
		stops[i] = Stop{
			ID:       string(rune('a' + i)),
			Location: &Location{Lat: 52.0 + float64(i)*0.01, Lon: 4.0 + float64(i)*0.01},
		}
	}
	return stops
}

func newTestService(matrices MatrixProvider) *Service {
	return NewService(ServiceConfig{
		Matrices: matrices,
		Logger:   zerolog.Nop(),
	})
}

func TestService_Compute(t *testing.T) {
	matrices := &mockMatrices{}
	service := newTestService(matrices)

	plan, err := service.Compute(context.Background(), PlanRequest{
		Stops:       testStops(5),
		Constraints: Constraints{RoundTrip: true},
		Options:     Options{Seed: 3, TimeBudget: 5 * time.Second},
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if len(plan.Stops) != 5 {
		t.Errorf("planned stops = %d, want 5", len(plan.Stops))
	}
	if plan.Stops[0].Stop.ID != "a" {
		t.Errorf("first stop = %q, want the origin %q", plan.Stops[0].Stop.ID, "a")
	}
	if plan.TotalTravelTime <= 0 {
		t.Error("expected positive travel time")
	}
	if matrices.callCount.Load() != 1 {
		t.Errorf("matrix provider called %d times, want 1", matrices.callCount.Load())
	}
}

func TestService_Compute_TooManyStopsRejectedBeforeFetch(t *testing.T) {
	matrices := &mockMatrices{}
	service := newTestService(matrices)

	_, err := service.Compute(context.Background(), PlanRequest{Stops: testStops(12)})

	if !errors.Is(err, ErrTooManyStops) {
		t.Fatalf("Compute error = %v, want ErrTooManyStops", err)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Compute error = %T, want *ValidationError", err)
	}
	if matrices.callCount.Load() != 0 {
		t.Errorf("matrix provider called %d times before validation, want 0", matrices.callCount.Load())
	}
}

func TestService_Compute_TooFewStops(t *testing.T) {
	service := newTestService(&mockMatrices{})

	_, err := service.Compute(context.Background(), PlanRequest{Stops: testStops(1)})
	if !errors.Is(err, ErrTooFewStops) {
		t.Errorf("Compute error = %v, want ErrTooFewStops", err)
	}
}

func TestService_Compute_SkipsUnresolvedStops(t *testing.T) {
	stops := testStops(4)
	stops[2].Name = "Nowhere"
	stops[2].Location = nil
	service := newTestService(&mockMatrices{})

	plan, err := service.Compute(context.Background(), PlanRequest{
		Stops:   stops,
		Options: Options{Seed: 1},
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if len(plan.Stops) != 3 {
		t.Errorf("planned stops = %d, want 3 after skipping the unresolved stop", len(plan.Stops))
	}
	if !hasWarningContaining(plan.Warnings, "Nowhere") {
		t.Errorf("warnings = %v, want one naming the skipped stop", plan.Warnings)
	}
}

func TestService_Compute_AllStopsUnresolved(t *testing.T) {
	stops := testStops(3)
	for i := range stops {
		stops[i].Location = nil
	}
	service := newTestService(&mockMatrices{})

	_, err := service.Compute(context.Background(), PlanRequest{Stops: stops})
	if !errors.Is(err, ErrUnresolvedStops) {
		t.Errorf("Compute error = %v, want ErrUnresolvedStops", err)
	}
}

func TestService_Compute_InvalidCoordinates(t *testing.T) {
	stops := testStops(3)
	stops[1].Location = &Location{Lat: 95, Lon: 4}
	service := newTestService(&mockMatrices{})

	_, err := service.Compute(context.Background(), PlanRequest{Stops: stops})

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Compute error = %T (%v), want *ValidationError", err, err)
	}
	if len(verr.Errors) != 1 || verr.Errors[0].Field != "stops[1].location" {
		t.Errorf("field errors = %+v, want one on stops[1].location", verr.Errors)
	}
}

func TestService_Compute_DegradedMatrixWarns(t *testing.T) {
	service := newTestService(&mockMatrices{degraded: true})

	plan, err := service.Compute(context.Background(), PlanRequest{
		Stops:   testStops(3),
		Options: Options{Seed: 1},
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if !plan.Degraded {
		t.Error("plan should be marked degraded")
	}
	if !hasWarningContaining(plan.Warnings, "estimated") {
		t.Errorf("warnings = %v, want a degraded-matrix warning", plan.Warnings)
	}
}

func TestService_Compute_CapacityWarning(t *testing.T) {
	stops := testStops(3)
	stops[1].Demand = 8
	stops[2].Demand = 5
	service := newTestService(&mockMatrices{})

	plan, err := service.Compute(context.Background(), PlanRequest{
		Stops:       stops,
		Constraints: Constraints{VehicleCapacity: 10},
		Options:     Options{Seed: 1},
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	if !hasWarningContaining(plan.Warnings, "capacity") {
		t.Errorf("warnings = %v, want a capacity warning", plan.Warnings)
	}
}

func TestService_Compute_MatrixErrorSurfaces(t *testing.T) {
	wantErr := errors.New("boom")
	service := newTestService(&mockMatrices{err: wantErr})

	_, err := service.Compute(context.Background(), PlanRequest{Stops: testStops(3)})
	if !errors.Is(err, wantErr) {
		t.Errorf("Compute error = %v, want wrapped %v", err, wantErr)
	}
}

func TestService_Compute_TimeWindowsReorderInterior(t *testing.T) {
	stops := testStops(4)
	stops[1].TimeWindow = &TimeWindow{EarliestMin: 15 * 60, LatestMin: 17 * 60}
	stops[2].TimeWindow = &TimeWindow{EarliestMin: 8 * 60, LatestMin: 10 * 60}
	service := newTestService(&mockMatrices{})

	plan, err := service.Compute(context.Background(), PlanRequest{
		Stops:       stops,
		Constraints: Constraints{RoundTrip: true},
		Options:     Options{Seed: 1},
	})
	if err != nil {
		t.Fatalf("Compute: %v", err)
	}

	posEarly, posLate := -1, -1
	for i, ps := range plan.Stops {
		switch ps.Stop.ID {
		case stops[2].ID:
			posEarly = i
		case stops[1].ID:
			posLate = i
		}
	}
	if posEarly < 0 || posLate < 0 || posEarly > posLate {
		t.Errorf("stop order %v does not respect time windows", plan.Stops)
	}
}

func hasWarningContaining(warnings []string, substr string) bool {
	for _, w := range warnings {
		if strings.Contains(w, substr) {
			return true
		}
	}
	return false
}
