package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayplan/wayplan/internal/api/handler"
	"github.com/wayplan/wayplan/internal/api/models"
	"github.com/wayplan/wayplan/internal/matrix"
	"github.com/wayplan/wayplan/internal/planner"
	"github.com/wayplan/wayplan/internal/trip"
)

// brokenUpdateRepo delegates to an in-memory repository but fails every
// Update, simulating a database outage after the plan has been computed.
type brokenUpdateRepo struct {
	*trip.InMemoryRepository
}

func (r *brokenUpdateRepo) Update(context.Context, *trip.Trip) error {
	return errors.New("connection refused")
}

func newPlanHandler(repo trip.Repository) (*handler.PlanHandler, *trip.Service) {
	logger := zerolog.New(io.Discard)
	matrices := matrix.NewService(matrix.ServiceConfig{Logger: logger})
	plans := planner.NewService(planner.ServiceConfig{Matrices: matrices, Logger: logger})
	trips := trip.NewService(repo)
	return handler.NewPlanHandler(plans, trips, logger), trips
}

func TestComputeTripPlan_PersistenceFailureBecomesWarning(t *testing.T) {
	repo := &brokenUpdateRepo{InMemoryRepository: trip.NewInMemoryRepository()}
	h, trips := newPlanHandler(repo)

	created, err := trips.Create(context.Background(), &models.TripCreateRequest{
		Name: "rounds",
		Stops: []models.StopInput{
			{Name: "a", Location: &models.Point{Lat: 52.35, Lon: 4.85}},
			{Name: "b", Location: &models.Point{Lat: 52.36, Lon: 4.86}},
			{Name: "c", Location: &models.Point{Lat: 52.37, Lon: 4.87}},
		},
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Post("/v1/trips/{tripId}/plans:compute", h.ComputeTripPlan)

	req := httptest.NewRequest(http.MethodPost, "/v1/trips/"+created.ID+"/plans:compute", http.NoBody)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	// The plan is still returned; the persistence failure is a warning.
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var plan models.Plan
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &plan))
	assert.Len(t, plan.Stops, 3)

	found := false
	for _, warning := range plan.Warnings {
		if strings.Contains(warning, "could not be saved") {
			found = true
		}
	}
	assert.True(t, found, "expected a persistence warning, got %v", plan.Warnings)
}

func TestComputePlan_InvalidBody(t *testing.T) {
	h, _ := newPlanHandler(trip.NewInMemoryRepository())

	req := httptest.NewRequest(http.MethodPost, "/v1/plans:compute", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	h.ComputePlan(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
