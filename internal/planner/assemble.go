package planner

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wayplan/wayplan/internal/matrix"
	"github.com/wayplan/wayplan/pkg/polyline"
)

// Estimation constants for derived plan metrics.
const (
	fuelKmPerLiter = 12.0  // average consumption assumed for driving
	fuelPricePerL  = 1.75  // EUR per liter
	co2GramsPerKm  = 170.0 // driving emission factor
)

// PlannedStop is a stop in its final visiting position with derived metrics.
type PlannedStop struct {
	// VisitIndex is 1-based.
	VisitIndex int
	Stop       Stop
	// Arrival is the estimated arrival time, accumulated from prior travel
	// and service durations.
	Arrival time.Time
	// DistanceToNextMeters is zero for the final stop of a one-way route.
	DistanceToNextMeters float64
	// DistanceToNext is the formatted distance, e.g. "1.2 km" or "850 m".
	DistanceToNext string
	TravelToNext   time.Duration
}

// Plan is the presentation-ready result of a solve. It outlives the solve and
// echoes the constraints and options that produced it.
type Plan struct {
	ID    string
	Mode  matrix.Mode
	Stops []PlannedStop

	TotalDistanceMeters float64
	TotalDistance       string
	// TotalTravelTime is time spent moving.
	TotalTravelTime time.Duration
	// TotalTime includes service time at each stop.
	TotalTime   time.Duration
	FuelCostEUR float64
	CO2Kg       float64

	// Geometry is the ordered coordinate sequence for rendering, including
	// the return leg for round trips.
	Geometry         []Location
	GeometryPolyline string

	Constraints   Constraints
	Algorithm     Algorithm
	Seed          int64
	DepartureTime time.Time
	ComputedAt    time.Time

	Warnings []string
	// Degraded is true when some travel costs were great-circle estimates.
	Degraded bool
	// TimedOut is true when the search budget expired; the plan is the best
	// tour found, not necessarily a converged one.
	TimedOut bool
}

// Assemble turns the winning tour into a reportable plan.
func Assemble(stops []Stop, m *matrix.Matrix, sol Solution, c Constraints, opts Options) *Plan {
	departure := opts.DepartureTime
	if departure.IsZero() {
		departure = time.Now().Truncate(time.Hour).Add(time.Hour)
	}

	planned := make([]PlannedStop, 0, len(sol.Tour))
	arrival := departure
	var serviceTotal time.Duration

	for pos, idx := range sol.Tour {
		ps := PlannedStop{
			VisitIndex: pos + 1,
			Stop:       stops[idx],
			Arrival:    arrival,
		}

		service := time.Duration(stops[idx].ServiceMinutes) * time.Minute
		serviceTotal += service

		next := -1
		if pos < len(sol.Tour)-1 {
			next = sol.Tour[pos+1]
		} else if c.RoundTrip {
			next = sol.Tour[0]
		}
		if next >= 0 {
			ps.DistanceToNextMeters = m.Distance(idx, next)
			ps.DistanceToNext = FormatDistance(ps.DistanceToNextMeters)
			ps.TravelToNext = secondsToDuration(m.Duration(idx, next))
			arrival = arrival.Add(service + ps.TravelToNext)
		}
		planned = append(planned, ps)
	}

	geometry := make([]Location, 0, len(sol.Tour)+1)
	coords := make([]polyline.Coordinate, 0, len(sol.Tour)+1)
	for _, idx := range sol.Tour {
		loc := *stops[idx].Location
		geometry = append(geometry, loc)
		coords = append(coords, polyline.Coordinate{Lat: loc.Lat, Lon: loc.Lon})
	}
	if c.RoundTrip {
		loc := *stops[sol.Tour[0]].Location
		geometry = append(geometry, loc)
		coords = append(coords, polyline.Coordinate{Lat: loc.Lat, Lon: loc.Lon})
	}

	totalMeters := tourDistance(m, sol.Tour, c.RoundTrip)
	totalKm := totalMeters / 1000

	plan := &Plan{
		ID:                  "pln_" + uuid.New().String()[:22],
		Mode:                opts.Mode,
		Stops:               planned,
		TotalDistanceMeters: totalMeters,
		TotalDistance:       FormatDistance(totalMeters),
		TotalTravelTime:     secondsToDuration(sol.Cost),
		TotalTime:           secondsToDuration(sol.Cost) + serviceTotal,
		Geometry:            geometry,
		GeometryPolyline:    polyline.Encode(coords),
		Constraints:         c,
		Algorithm:           sol.Algorithm,
		Seed:                opts.Seed,
		DepartureTime:       departure,
		ComputedAt:          time.Now(),
		TimedOut:            sol.TimedOut,
	}

	if opts.Mode == matrix.ModeDriving {
		plan.FuelCostEUR = totalKm / fuelKmPerLiter * fuelPricePerL
		plan.CO2Kg = totalKm * co2GramsPerKm / 1000
	}

	return plan
}

// FormatDistance renders meters as "850 m" below one kilometer and "1.2 km"
// above.
func FormatDistance(meters float64) string {
	if meters < 1000 {
		return fmt.Sprintf("%.0f m", meters)
	}
	return fmt.Sprintf("%.1f km", meters/1000)
}

func secondsToDuration(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
