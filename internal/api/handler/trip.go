package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/wayplan/wayplan/internal/api/models"
	"github.com/wayplan/wayplan/internal/api/response"
	"github.com/wayplan/wayplan/internal/trip"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// TripHandler handles saved trip endpoints.
type TripHandler struct {
	trips *trip.Service
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(trips *trip.Service) *TripHandler {
	return &TripHandler{trips: trips}
}

// ListTrips handles GET /v1/trips - list saved trips, newest first.
func (h *TripHandler) ListTrips(w http.ResponseWriter, r *http.Request) {
	limit := defaultPageLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > maxPageLimit {
			response.BadRequest(w, r, "invalid limit parameter", []models.FieldError{
				{Field: "limit", Message: fmt.Sprintf("must be an integer between 1 and %d", maxPageLimit)},
			})
			return
		}
		limit = parsed
	}
	cursor := r.URL.Query().Get("cursor")

	page, err := h.trips.List(r.Context(), limit, cursor)
	if err != nil {
		response.InternalError(w, r, "failed to list trips")
		return
	}
	response.JSON(w, r, http.StatusOK, page)
}

// CreateTrip handles POST /v1/trips - create a saved trip.
func (h *TripHandler) CreateTrip(w http.ResponseWriter, r *http.Request) {
	var input models.TripCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	created, err := h.trips.Create(r.Context(), &input)
	if err != nil {
		var verr *trip.ValidationError
		if errors.As(err, &verr) {
			response.BadRequest(w, r, "trip validation failed", verr.Errors)
			return
		}
		response.InternalError(w, r, "failed to create trip")
		return
	}

	location := fmt.Sprintf("/v1/trips/%s", created.ID)
	response.Created(w, r, location, created)
}

// GetTrip handles GET /v1/trips/{tripId} - get a saved trip.
func (h *TripHandler) GetTrip(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")
	if tripID == "" {
		response.BadRequest(w, r, "tripId is required", nil)
		return
	}

	found, err := h.trips.Get(r.Context(), tripID)
	if err != nil {
		if errors.Is(err, trip.ErrTripNotFound) {
			response.NotFound(w, r, "trip not found")
			return
		}
		response.InternalError(w, r, "failed to get trip")
		return
	}
	response.JSON(w, r, http.StatusOK, found)
}

// UpdateTrip handles PUT /v1/trips/{tripId} - update a saved trip.
func (h *TripHandler) UpdateTrip(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")
	if tripID == "" {
		response.BadRequest(w, r, "tripId is required", nil)
		return
	}

	var input models.TripUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	updated, err := h.trips.Update(r.Context(), tripID, &input)
	if err != nil {
		var verr *trip.ValidationError
		switch {
		case errors.Is(err, trip.ErrTripNotFound):
			response.NotFound(w, r, "trip not found")
		case errors.As(err, &verr):
			response.BadRequest(w, r, "trip validation failed", verr.Errors)
		default:
			response.InternalError(w, r, "failed to update trip")
		}
		return
	}
	response.JSON(w, r, http.StatusOK, updated)
}

// DeleteTrip handles DELETE /v1/trips/{tripId} - delete a saved trip.
func (h *TripHandler) DeleteTrip(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")
	if tripID == "" {
		response.BadRequest(w, r, "tripId is required", nil)
		return
	}

	if err := h.trips.Delete(r.Context(), tripID); err != nil {
		if errors.Is(err, trip.ErrTripNotFound) {
			response.NotFound(w, r, "trip not found")
			return
		}
		response.InternalError(w, r, "failed to delete trip")
		return
	}
	response.NoContent(w, r)
}
