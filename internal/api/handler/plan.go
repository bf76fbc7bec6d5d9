package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/wayplan/wayplan/internal/api/models"
	"github.com/wayplan/wayplan/internal/api/response"
	"github.com/wayplan/wayplan/internal/planner"
	"github.com/wayplan/wayplan/internal/trip"
)

// PlanHandler handles plan computation endpoints.
type PlanHandler struct {
	plans  *planner.Service
	trips  *trip.Service
	logger zerolog.Logger
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(plans *planner.Service, trips *trip.Service, logger zerolog.Logger) *PlanHandler {
	return &PlanHandler{
		plans:  plans,
		trips:  trips,
		logger: logger,
	}
}

// ComputePlan handles POST /v1/plans:compute - compute a stop order for an
// ad-hoc set of stops.
func (h *PlanHandler) ComputePlan(w http.ResponseWriter, r *http.Request) {
	var input models.PlanComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if fieldErrors := validatePlanOptions(input.Options); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "plan validation failed", fieldErrors)
		return
	}

	req := planner.PlanRequest{
		Stops:       trip.StopsFromInputs(input.Stops),
		Constraints: trip.ConstraintsFromInput(input.Constraints),
		Options:     optionsFromInput(input.Options),
	}

	plan, err := h.plans.Compute(r.Context(), req)
	if err != nil {
		h.writeComputeError(w, r, err)
		return
	}

	response.JSON(w, r, http.StatusOK, toAPIPlan(plan))
}

// ComputeTripPlan handles POST /v1/trips/{tripId}/plans:compute - compute a
// plan for a saved trip's stops and constraints. The request body may carry
// plan options; an empty body uses the defaults.
func (h *PlanHandler) ComputeTripPlan(w http.ResponseWriter, r *http.Request) {
	tripID := chi.URLParam(r, "tripId")
	if tripID == "" {
		response.BadRequest(w, r, "tripId is required", nil)
		return
	}

	var input models.PlanOptionsInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil && !errors.Is(err, io.EOF) {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if fieldErrors := validatePlanOptions(&input); len(fieldErrors) > 0 {
		response.BadRequest(w, r, "plan validation failed", fieldErrors)
		return
	}

	t, err := h.trips.GetDomain(r.Context(), tripID)
	if err != nil {
		if errors.Is(err, trip.ErrTripNotFound) {
			response.NotFound(w, r, "trip not found")
			return
		}
		response.InternalError(w, r, "failed to load trip")
		return
	}

	opts := optionsFromInput(&input)
	if opts.Mode == "" {
		opts.Mode = t.Mode
	}

	plan, err := h.plans.Compute(r.Context(), planner.PlanRequest{
		Stops:       t.Stops,
		Constraints: t.Constraints,
		Options:     opts,
	})
	if err != nil {
		h.writeComputeError(w, r, err)
		return
	}

	// The plan is already computed; a persistence failure here downgrades to
	// a warning rather than failing the request.
	if err := h.trips.RecordPlan(r.Context(), tripID, plan.ID); err != nil {
		h.logger.Warn().Err(err).
			Str("trip_id", tripID).
			Str("plan_id", plan.ID).
			Msg("failed to record computed plan on trip")
		plan.Warnings = append(plan.Warnings, "the plan could not be saved to the trip")
	}

	response.JSON(w, r, http.StatusOK, toAPIPlan(plan))
}

func (h *PlanHandler) writeComputeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *planner.ValidationError
	if errors.As(err, &verr) {
		response.BadRequest(w, r, "plan validation failed", fieldErrorsToAPI(verr.Errors))
		return
	}
	h.logger.Error().Err(err).Msg("plan computation failed")
	response.InternalError(w, r, "failed to compute plan")
}

// knownAlgorithms are the algorithm names accepted by the API.
var knownAlgorithms = map[planner.Algorithm]bool{
	planner.AlgorithmAuto:              true,
	planner.AlgorithmNearestNeighbor:   true,
	planner.AlgorithmRandomInsertion:   true,
	planner.AlgorithmFarthestInsertion: true,
	planner.AlgorithmTwoOpt:            true,
	planner.AlgorithmAnnealing:         true,
	planner.AlgorithmHybrid:            true,
}

func validatePlanOptions(in *models.PlanOptionsInput) []models.FieldError {
	if in == nil {
		return nil
	}

	var errs []models.FieldError
	if in.Algorithm != "" && !knownAlgorithms[planner.Algorithm(in.Algorithm)] {
		errs = append(errs, models.FieldError{
			Field:   "options.algorithm",
			Message: "must be one of auto, nearest-neighbor, random-insertion, farthest-insertion, two-opt, annealing, hybrid",
		})
	}
	switch in.Mode {
	case "", models.TravelModeDriving, models.TravelModeCycling, models.TravelModeWalking:
	default:
		errs = append(errs, models.FieldError{
			Field:   "options.mode",
			Message: "must be one of DRIVING, CYCLING, WALKING",
		})
	}
	if in.TimeBudgetSeconds < 0 || in.TimeBudgetSeconds > 120 {
		errs = append(errs, models.FieldError{
			Field:   "options.timeBudgetSeconds",
			Message: "must be between 1 and 120",
		})
	}
	if p := in.ReversalProbability; p != nil && (*p < 0 || *p > 1) {
		errs = append(errs, models.FieldError{
			Field:   "options.reversalProbability",
			Message: "must be between 0 and 1",
		})
	}
	return errs
}

func optionsFromInput(in *models.PlanOptionsInput) planner.Options {
	if in == nil {
		return planner.Options{}
	}

	opts := planner.Options{
		Algorithm: planner.Algorithm(in.Algorithm),
		Seed:      in.Seed,
	}
	if in.Mode != "" {
		opts.Mode = trip.ModeFromAPI(in.Mode)
	}
	if in.TimeBudgetSeconds > 0 {
		opts.TimeBudget = time.Duration(in.TimeBudgetSeconds) * time.Second
	}
	if in.ReversalProbability != nil {
		opts.ReversalProbability = *in.ReversalProbability
	}
	if in.DepartureTime != nil {
		opts.DepartureTime = in.DepartureTime.Time()
	}
	return opts
}

func fieldErrorsToAPI(errs []planner.FieldError) []models.FieldError {
	out := make([]models.FieldError, 0, len(errs))
	for _, fe := range errs {
		out = append(out, models.FieldError{Field: fe.Field, Message: fe.Message})
	}
	return out
}

// toAPIPlan converts a computed plan to the API model.
func toAPIPlan(p *planner.Plan) models.Plan {
	stops := make([]models.PlannedStop, 0, len(p.Stops))
	for _, ps := range p.Stops {
		stops = append(stops, models.PlannedStop{
			VisitIndex:           ps.VisitIndex,
			Stop:                 trip.StopToInput(ps.Stop),
			Arrival:              models.Timestamp(ps.Arrival),
			DistanceToNext:       ps.DistanceToNext,
			DistanceToNextMeters: ps.DistanceToNextMeters,
			TravelToNextSeconds:  int(ps.TravelToNext / time.Second),
		})
	}

	geometry := make([]models.Point, 0, len(p.Geometry))
	for _, loc := range p.Geometry {
		geometry = append(geometry, models.Point{Lat: loc.Lat, Lon: loc.Lon})
	}

	return models.Plan{
		ID:                  p.ID,
		Mode:                trip.ModeToAPI(p.Mode),
		Algorithm:           string(p.Algorithm),
		Seed:                p.Seed,
		Stops:               stops,
		TotalDistance:       p.TotalDistance,
		TotalDistanceMeters: p.TotalDistanceMeters,
		TotalTravelSeconds:  int(p.TotalTravelTime / time.Second),
		TotalSeconds:        int(p.TotalTime / time.Second),
		FuelCostEur:         p.FuelCostEUR,
		Co2Kg:               p.CO2Kg,
		Geometry:            geometry,
		GeometryPolyline:    p.GeometryPolyline,
		Warnings:            p.Warnings,
		Degraded:            p.Degraded,
		TimedOut:            p.TimedOut,
		DepartureTime:       models.Timestamp(p.DepartureTime),
		ComputedAt:          models.Timestamp(p.ComputedAt),
	}
}
