package models

// Trip represents a saved trip: a named set of stops and constraints that can
// be planned repeatedly.
type Trip struct {
	ID             string           `json:"id"`
	Name           string           `json:"name"`
	Notes          *string          `json:"notes,omitempty"`
	Mode           TravelMode       `json:"mode"`
	Stops          []StopInput      `json:"stops"`
	Constraints    ConstraintsInput `json:"constraints"`
	LastPlanID     *string          `json:"lastPlanId,omitempty"`
	LastComputedAt *Timestamp       `json:"lastComputedAt,omitempty"`
	CreatedAt      Timestamp        `json:"createdAt"`
	UpdatedAt      Timestamp        `json:"updatedAt"`
}

// TripCreateRequest is the request body for creating a trip.
type TripCreateRequest struct {
	Name        string            `json:"name" validate:"required,min=1,max=120"`
	Notes       *string           `json:"notes,omitempty" validate:"omitempty,max=500"`
	Mode        TravelMode        `json:"mode,omitempty"`
	Stops       []StopInput       `json:"stops" validate:"required,max=10"`
	Constraints *ConstraintsInput `json:"constraints,omitempty"`
}

// TripUpdateRequest is the request body for updating a trip.
type TripUpdateRequest struct {
	Name        *string           `json:"name,omitempty" validate:"omitempty,min=1,max=120"`
	Notes       *string           `json:"notes,omitempty" validate:"omitempty,max=500"`
	Mode        *TravelMode       `json:"mode,omitempty"`
	Stops       []StopInput       `json:"stops,omitempty" validate:"omitempty,max=10"`
	Constraints *ConstraintsInput `json:"constraints,omitempty"`
}

// PagedTrips represents a paginated list of trips.
type PagedTrips struct {
	Items []Trip            `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}
