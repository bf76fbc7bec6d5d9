package trip

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/wayplan/wayplan/internal/api/models"
	"github.com/wayplan/wayplan/internal/matrix"
	"github.com/wayplan/wayplan/internal/planner"
)

// timeHHMMRegex validates HH:mm format.
var timeHHMMRegex = regexp.MustCompile(`^([01]?\d|2[0-3]):[0-5]\d$`)

// Service provides trip operations.
type Service struct {
	repo Repository
}

// NewService creates a new trip service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List retrieves a page of trips, newest first.
func (s *Service) List(ctx context.Context, limit int, cursor string) (*models.PagedTrips, error) {
	result, err := s.repo.List(ctx, ListOptions{Limit: limit, Cursor: cursor})
	if err != nil {
		return nil, err
	}

	items := make([]models.Trip, 0, len(result.Items))
	for _, t := range result.Items {
		items = append(items, s.toAPITrip(t))
	}

	var nextCursor *string
	if result.NextCursor != "" {
		nextCursor = &result.NextCursor
	}

	return &models.PagedTrips{
		Items: items,
		Meta: models.PagedResponseMeta{
			Limit:      limit,
			NextCursor: nextCursor,
		},
	}, nil
}

// Get retrieves a trip by ID.
func (s *Service) Get(ctx context.Context, tripID string) (*models.Trip, error) {
	t, err := s.repo.Get(ctx, tripID)
	if err != nil {
		if errors.Is(err, ErrTripNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	result := s.toAPITrip(t)
	return &result, nil
}

// GetDomain retrieves a trip by ID as the domain model, for plan computation.
func (s *Service) GetDomain(ctx context.Context, tripID string) (*Trip, error) {
	return s.repo.Get(ctx, tripID)
}

// Create creates a new trip.
func (s *Service) Create(ctx context.Context, input *models.TripCreateRequest) (*models.Trip, error) {
	if fieldErrors := s.validateCreateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	now := time.Now()
	t := &Trip{
		ID:          "trp_" + uuid.New().String()[:22],
		Name:        input.Name,
		Notes:       input.Notes,
		Mode:        ModeFromAPI(input.Mode),
		Stops:       StopsFromInputs(input.Stops),
		Constraints: ConstraintsFromInput(input.Constraints),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}

	result := s.toAPITrip(t)
	return &result, nil
}

// Update updates an existing trip.
func (s *Service) Update(ctx context.Context, tripID string, input *models.TripUpdateRequest) (*models.Trip, error) {
	t, err := s.repo.Get(ctx, tripID)
	if err != nil {
		if errors.Is(err, ErrTripNotFound) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	if fieldErrors := s.validateUpdateInput(input); len(fieldErrors) > 0 {
		return nil, &ValidationError{Errors: fieldErrors}
	}

	if input.Name != nil {
		t.Name = *input.Name
	}
	if input.Notes != nil {
		t.Notes = input.Notes
	}
	if input.Mode != nil {
		t.Mode = ModeFromAPI(*input.Mode)
	}
	if input.Stops != nil {
		t.Stops = StopsFromInputs(input.Stops)
	}
	if input.Constraints != nil {
		t.Constraints = ConstraintsFromInput(input.Constraints)
	}
	t.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, t); err != nil {
		return nil, err
	}

	result := s.toAPITrip(t)
	return &result, nil
}

// Delete deletes a trip.
func (s *Service) Delete(ctx context.Context, tripID string) error {
	_, err := s.repo.Get(ctx, tripID)
	if err != nil {
		if errors.Is(err, ErrTripNotFound) {
			return ErrTripNotFound
		}
		return err
	}

	return s.repo.Delete(ctx, tripID)
}

// RecordPlan stores the identifier of the latest computed plan on the trip.
func (s *Service) RecordPlan(ctx context.Context, tripID, planID string) error {
	t, err := s.repo.Get(ctx, tripID)
	if err != nil {
		return err
	}

	now := time.Now()
	t.LastPlanID = &planID
	t.LastComputedAt = &now
	t.UpdatedAt = now

	return s.repo.Update(ctx, t)
}

// validateCreateInput validates the create trip input.
func (s *Service) validateCreateInput(input *models.TripCreateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name == "" {
		errs = append(errs, models.FieldError{Field: "name", Message: "is required"})
	} else if len(input.Name) > MaxNameLength {
		errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 120 characters"})
	}

	if input.Notes != nil && len(*input.Notes) > MaxNotesLength {
		errs = append(errs, models.FieldError{Field: "notes", Message: "must be at most 500 characters"})
	}

	if input.Mode != "" && !validMode(input.Mode) {
		errs = append(errs, models.FieldError{Field: "mode", Message: "must be one of DRIVING, CYCLING, WALKING"})
	}

	errs = append(errs, validateStops(input.Stops)...)
	errs = append(errs, validateConstraints(input.Constraints)...)

	return errs
}

// validateUpdateInput validates the update trip input.
func (s *Service) validateUpdateInput(input *models.TripUpdateRequest) []models.FieldError {
	var errs []models.FieldError

	if input.Name != nil {
		if *input.Name == "" {
			errs = append(errs, models.FieldError{Field: "name", Message: "must not be empty"})
		} else if len(*input.Name) > MaxNameLength {
			errs = append(errs, models.FieldError{Field: "name", Message: "must be at most 120 characters"})
		}
	}

	if input.Notes != nil && len(*input.Notes) > MaxNotesLength {
		errs = append(errs, models.FieldError{Field: "notes", Message: "must be at most 500 characters"})
	}

	if input.Mode != nil && !validMode(*input.Mode) {
		errs = append(errs, models.FieldError{Field: "mode", Message: "must be one of DRIVING, CYCLING, WALKING"})
	}

	if input.Stops != nil {
		errs = append(errs, validateStops(input.Stops)...)
	}
	errs = append(errs, validateConstraints(input.Constraints)...)

	return errs
}

// validateStops validates the stop list. A trip may hold fewer stops than a
// plan needs; the minimum is enforced at plan time.
func validateStops(stops []models.StopInput) []models.FieldError {
	var errs []models.FieldError

	if len(stops) > planner.MaxStops {
		errs = append(errs, models.FieldError{
			Field:   "stops",
			Message: fmt.Sprintf("must contain at most %d stops", planner.MaxStops),
		})
	}

	for i, st := range stops {
		field := func(name string) string { return fmt.Sprintf("stops[%d].%s", i, name) }

		if st.Name == "" {
			errs = append(errs, models.FieldError{Field: field("name"), Message: "is required"})
		} else if len(st.Name) > MaxNameLength {
			errs = append(errs, models.FieldError{Field: field("name"), Message: "must be at most 120 characters"})
		}

		if st.Location != nil {
			if st.Location.Lat < -90 || st.Location.Lat > 90 {
				errs = append(errs, models.FieldError{Field: field("location.lat"), Message: "must be between -90 and 90"})
			}
			if st.Location.Lon < -180 || st.Location.Lon > 180 {
				errs = append(errs, models.FieldError{Field: field("location.lon"), Message: "must be between -180 and 180"})
			}
		}

		if st.ServiceMinutes < 0 {
			errs = append(errs, models.FieldError{Field: field("serviceMinutes"), Message: "must not be negative"})
		}
		if st.Demand < 0 {
			errs = append(errs, models.FieldError{Field: field("demand"), Message: "must not be negative"})
		}

		if tw := st.TimeWindow; tw != nil {
			if !timeHHMMRegex.MatchString(tw.Earliest) {
				errs = append(errs, models.FieldError{Field: field("timeWindow.earliest"), Message: "must be in HH:mm format"})
			}
			if !timeHHMMRegex.MatchString(tw.Latest) {
				errs = append(errs, models.FieldError{Field: field("timeWindow.latest"), Message: "must be in HH:mm format"})
			}
			if timeHHMMRegex.MatchString(tw.Earliest) && timeHHMMRegex.MatchString(tw.Latest) {
				if hhmmToMinutes(tw.Latest) < hhmmToMinutes(tw.Earliest) {
					errs = append(errs, models.FieldError{Field: field("timeWindow"), Message: "latest must not be before earliest"})
				}
			}
		}
	}

	return errs
}

func validateConstraints(c *models.ConstraintsInput) []models.FieldError {
	if c == nil {
		return nil
	}

	var errs []models.FieldError
	if c.VehicleCapacity < 0 {
		errs = append(errs, models.FieldError{Field: "constraints.vehicleCapacity", Message: "must not be negative"})
	}
	if c.MaxTravelTimeMinutes < 0 {
		errs = append(errs, models.FieldError{Field: "constraints.maxTravelTimeMinutes", Message: "must not be negative"})
	}
	return errs
}

// toAPITrip converts a domain trip to the API model.
func (s *Service) toAPITrip(t *Trip) models.Trip {
	result := models.Trip{
		ID:          t.ID,
		Name:        t.Name,
		Notes:       t.Notes,
		Mode:        ModeToAPI(t.Mode),
		Stops:       StopsToInputs(t.Stops),
		Constraints: ConstraintsToInput(t.Constraints),
		LastPlanID:  t.LastPlanID,
		CreatedAt:   models.Timestamp(t.CreatedAt),
		UpdatedAt:   models.Timestamp(t.UpdatedAt),
	}
	if t.LastComputedAt != nil {
		ts := models.Timestamp(*t.LastComputedAt)
		result.LastComputedAt = &ts
	}
	return result
}

func validMode(m models.TravelMode) bool {
	switch m {
	case models.TravelModeDriving, models.TravelModeCycling, models.TravelModeWalking:
		return true
	}
	return false
}

// ModeFromAPI maps the API travel mode to the routing profile. Unset or
// unknown modes default to driving.
func ModeFromAPI(m models.TravelMode) matrix.Mode {
	switch m {
	case models.TravelModeCycling:
		return matrix.ModeCycling
	case models.TravelModeWalking:
		return matrix.ModeWalking
	default:
		return matrix.ModeDriving
	}
}

// ModeToAPI maps a routing profile to the API travel mode.
func ModeToAPI(m matrix.Mode) models.TravelMode {
	switch m {
	case matrix.ModeCycling:
		return models.TravelModeCycling
	case matrix.ModeWalking:
		return models.TravelModeWalking
	default:
		return models.TravelModeDriving
	}
}

// StopFromInput converts an API stop to the planner model, assigning an ID
// when the client did not supply one.
func StopFromInput(in models.StopInput) planner.Stop {
	st := planner.Stop{
		ID:             in.ID,
		Name:           in.Name,
		Address:        in.Address,
		ServiceMinutes: in.ServiceMinutes,
		Priority:       in.Priority,
		Demand:         in.Demand,
	}
	if st.ID == "" {
		st.ID = "stp_" + uuid.New().String()[:22]
	}
	if in.Location != nil {
		st.Location = &planner.Location{Lat: in.Location.Lat, Lon: in.Location.Lon}
	}
	if in.TimeWindow != nil {
		st.TimeWindow = &planner.TimeWindow{
			EarliestMin: hhmmToMinutes(in.TimeWindow.Earliest),
			LatestMin:   hhmmToMinutes(in.TimeWindow.Latest),
		}
	}
	return st
}

// StopToInput converts a planner stop back to the API model.
func StopToInput(st planner.Stop) models.StopInput {
	in := models.StopInput{
		ID:             st.ID,
		Name:           st.Name,
		Address:        st.Address,
		ServiceMinutes: st.ServiceMinutes,
		Priority:       st.Priority,
		Demand:         st.Demand,
	}
	if st.Location != nil {
		in.Location = &models.Point{Lat: st.Location.Lat, Lon: st.Location.Lon}
	}
	if st.TimeWindow != nil {
		in.TimeWindow = &models.TimeWindowInput{
			Earliest: minutesToHHMM(st.TimeWindow.EarliestMin),
			Latest:   minutesToHHMM(st.TimeWindow.LatestMin),
		}
	}
	return in
}

// StopsFromInputs converts a list of API stops to planner stops.
func StopsFromInputs(inputs []models.StopInput) []planner.Stop {
	stops := make([]planner.Stop, 0, len(inputs))
	for _, in := range inputs {
		stops = append(stops, StopFromInput(in))
	}
	return stops
}

// StopsToInputs converts a list of planner stops to API stops.
func StopsToInputs(stops []planner.Stop) []models.StopInput {
	inputs := make([]models.StopInput, 0, len(stops))
	for _, st := range stops {
		inputs = append(inputs, StopToInput(st))
	}
	return inputs
}

// ConstraintsFromInput converts API constraints to the planner model. A nil
// input yields the zero constraints.
func ConstraintsFromInput(c *models.ConstraintsInput) planner.Constraints {
	if c == nil {
		return planner.Constraints{}
	}
	return planner.Constraints{
		RoundTrip:       c.RoundTrip,
		VehicleCapacity: c.VehicleCapacity,
		MaxTravelTime:   time.Duration(c.MaxTravelTimeMinutes) * time.Minute,
		AvoidTolls:      c.AvoidTolls,
		AvoidHighways:   c.AvoidHighways,
	}
}

// ConstraintsToInput converts planner constraints back to the API model.
func ConstraintsToInput(c planner.Constraints) models.ConstraintsInput {
	return models.ConstraintsInput{
		RoundTrip:            c.RoundTrip,
		VehicleCapacity:      c.VehicleCapacity,
		MaxTravelTimeMinutes: int(c.MaxTravelTime / time.Minute),
		AvoidTolls:           c.AvoidTolls,
		AvoidHighways:        c.AvoidHighways,
	}
}

// hhmmToMinutes converts an HH:mm string to minutes since midnight.
// The input must already be validated against timeHHMMRegex.
func hhmmToMinutes(s string) int {
	var h, m int
	if i := len(s) - 3; i > 0 {
		h, _ = strconv.Atoi(s[:i])
		m, _ = strconv.Atoi(s[i+1:])
	}
	return h*60 + m
}

func minutesToHHMM(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// ValidationError represents a validation failure with field-level details.
type ValidationError struct {
	Errors []models.FieldError
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return "validation failed"
}
