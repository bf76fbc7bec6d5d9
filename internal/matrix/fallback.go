package matrix

import (
	"context"
	"math"
	"time"
)

// FallbackProviderName identifies the great-circle estimator.
const FallbackProviderName = "haversine-estimate"

const earthRadiusMeters = 6371000.0

// FallbackEstimator estimates travel costs from great-circle distances and a
// fixed average speed per travel mode. It is used when the external matrix
// provider is unavailable or returns partial results, so downstream components
// always receive a complete matrix.
type FallbackEstimator struct{}

// NewFallbackEstimator creates a new great-circle estimator.
func NewFallbackEstimator() *FallbackEstimator {
	return &FallbackEstimator{}
}

// Name returns the provider name.
func (e *FallbackEstimator) Name() string {
	return FallbackProviderName
}

// Matrix builds a complete estimated matrix for the given locations.
// Every off-diagonal cell is marked Estimated.
func (e *FallbackEstimator) Matrix(_ context.Context, req Request) (*Matrix, error) {
	if len(req.Locations) < 2 {
		return nil, ErrTooFewLocations
	}
	for _, loc := range req.Locations {
		if err := ValidateCoordinate(loc); err != nil {
			return nil, err
		}
	}

	m := New(len(req.Locations), req.Mode)
	m.Provider = FallbackProviderName
	m.FetchedAt = time.Now()
	m.Degraded = true
	for i := range req.Locations {
		for j := range req.Locations {
			if i == j {
				continue
			}
			m.Cells[i][j] = e.EstimateCell(req.Locations[i], req.Locations[j], req.Mode)
		}
	}
	return m, nil
}

// EstimateCell estimates a single cell from the great-circle distance between
// two points and the mode's average speed.
func (e *FallbackEstimator) EstimateCell(from, to Coordinate, mode Mode) Cell {
	dist := HaversineMeters(from, to)
	speedMps := mode.FallbackSpeedKph() / 3.6
	return Cell{
		DistanceMeters:  dist,
		DurationSeconds: dist / speedMps,
		Valid:           true,
		Estimated:       true,
	}
}

// Backfill substitutes every invalid cell of m with a great-circle estimate.
// Returns the number of cells that were backfilled.
func (e *FallbackEstimator) Backfill(m *Matrix, locations []Coordinate) int {
	filled := 0
	for i := range m.Cells {
		for j := range m.Cells[i] {
			if m.Cells[i][j].Valid {
				continue
			}
			m.Cells[i][j] = e.EstimateCell(locations[i], locations[j], m.Mode)
			filled++
		}
	}
	if filled > 0 {
		m.Degraded = true
	}
	return filled
}

// HaversineMeters returns the great-circle distance between two points.
func HaversineMeters(a, b Coordinate) float64 {
	dLat := (b.Lat - a.Lat) * math.Pi / 180
	dLon := (b.Lon - a.Lon) * math.Pi / 180
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*math.Pi/180)*math.Cos(b.Lat*math.Pi/180)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusMeters * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}
