package models

// StopInput describes one stop submitted for planning.
type StopInput struct {
	ID             string           `json:"id,omitempty"`
	Name           string           `json:"name" validate:"required,min=1,max=120"`
	Address        string           `json:"address,omitempty"`
	Location       *Point           `json:"location,omitempty"`
	ServiceMinutes int              `json:"serviceMinutes,omitempty" validate:"omitempty,gte=0"`
	TimeWindow     *TimeWindowInput `json:"timeWindow,omitempty"`
	Priority       int              `json:"priority,omitempty"`
	Demand         float64          `json:"demand,omitempty" validate:"omitempty,gte=0"`
}

// TimeWindowInput is a preferred visiting window in local HH:mm times.
type TimeWindowInput struct {
	Earliest string `json:"earliest" validate:"required,time_hhmm"`
	Latest   string `json:"latest" validate:"required,time_hhmm"`
}

// ConstraintsInput carries routing constraints for plan computation.
type ConstraintsInput struct {
	RoundTrip            bool    `json:"roundTrip,omitempty"`
	VehicleCapacity      float64 `json:"vehicleCapacity,omitempty" validate:"omitempty,gte=0"`
	MaxTravelTimeMinutes int     `json:"maxTravelTimeMinutes,omitempty" validate:"omitempty,gte=0"`
	AvoidTolls           bool    `json:"avoidTolls,omitempty"`
	AvoidHighways        bool    `json:"avoidHighways,omitempty"`
}

// PlanOptionsInput tunes the optimization run.
type PlanOptionsInput struct {
	Algorithm           string     `json:"algorithm,omitempty"`
	Mode                TravelMode `json:"mode,omitempty"`
	TimeBudgetSeconds   int        `json:"timeBudgetSeconds,omitempty" validate:"omitempty,gte=1,lte=120"`
	ReversalProbability *float64   `json:"reversalProbability,omitempty" validate:"omitempty,gte=0,lte=1"`
	Seed                int64      `json:"seed,omitempty"`
	DepartureTime       *Timestamp `json:"departureTime,omitempty"`
}

// PlanComputeRequest is the request body for computing a plan.
type PlanComputeRequest struct {
	Stops       []StopInput       `json:"stops" validate:"required,min=2,max=10"`
	Constraints *ConstraintsInput `json:"constraints,omitempty"`
	Options     *PlanOptionsInput `json:"options,omitempty"`
}

// PlannedStop is a stop in its final visiting position.
type PlannedStop struct {
	VisitIndex           int       `json:"visitIndex"`
	Stop                 StopInput `json:"stop"`
	Arrival              Timestamp `json:"arrival"`
	DistanceToNext       string    `json:"distanceToNext,omitempty"`
	DistanceToNextMeters float64   `json:"distanceToNextMeters,omitempty"`
	TravelToNextSeconds  int       `json:"travelToNextSeconds,omitempty"`
}

// Plan is the response body for a computed plan.
type Plan struct {
	ID                  string        `json:"id"`
	Mode                TravelMode    `json:"mode"`
	Algorithm           string        `json:"algorithm"`
	Seed                int64         `json:"seed"`
	Stops               []PlannedStop `json:"stops"`
	TotalDistance       string        `json:"totalDistance"`
	TotalDistanceMeters float64       `json:"totalDistanceMeters"`
	TotalTravelSeconds  int           `json:"totalTravelSeconds"`
	TotalSeconds        int           `json:"totalSeconds"`
	FuelCostEur         float64       `json:"fuelCostEur,omitempty"`
	Co2Kg               float64       `json:"co2Kg,omitempty"`
	Geometry            []Point       `json:"geometry"`
	GeometryPolyline    string        `json:"geometryPolyline"`
	Warnings            []string      `json:"warnings,omitempty"`
	Degraded            bool          `json:"degraded"`
	TimedOut            bool          `json:"timedOut"`
	DepartureTime       Timestamp     `json:"departureTime"`
	ComputedAt          Timestamp     `json:"computedAt"`
}
