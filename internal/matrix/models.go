// Package matrix provides travel cost matrix acquisition for route planning.
package matrix

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for matrix operations.
var (
	// ErrProviderUnavailable indicates the matrix provider is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("matrix provider unavailable")
	// ErrRateLimitExceeded indicates the API quota has been exceeded.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")
	// ErrInvalidCoordinates indicates the provided coordinates are invalid or out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrTooFewLocations indicates fewer than two locations were requested.
	ErrTooFewLocations = errors.New("at least two locations are required")
)

// Provider defines the interface for distance/duration matrix providers.
type Provider interface {
	// Matrix retrieves the pairwise travel cost matrix for the given locations.
	// Cells the provider could not resolve are returned with Valid set to false;
	// a non-nil error means the whole call failed.
	Matrix(ctx context.Context, req Request) (*Matrix, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
}

// Mode represents a travel mode.
type Mode string

const (
	// ModeDriving is the driving-car profile.
	ModeDriving Mode = "driving-car"
	// ModeCycling is the cycling-regular profile.
	ModeCycling Mode = "cycling-regular"
	// ModeWalking is the foot-walking profile.
	ModeWalking Mode = "foot-walking"
)

// FallbackSpeedKph returns the average speed assumed for this mode when travel
// durations must be estimated from great-circle distances.
func (m Mode) FallbackSpeedKph() float64 {
	switch m {
	case ModeWalking:
		return 5
	case ModeCycling:
		return 15
	default:
		return 45
	}
}

// Coordinate represents a geographic point.
type Coordinate struct {
	Lat float64
	Lon float64
}

// Request is the request for a pairwise cost matrix.
type Request struct {
	Locations     []Coordinate
	Mode          Mode
	AvoidTolls    bool
	AvoidHighways bool
}

// Cell holds the travel cost for a single origin/destination pair.
type Cell struct {
	DistanceMeters  float64
	DurationSeconds float64
	// Valid is false when the provider could not resolve this pair.
	Valid bool
	// Estimated is true when the cell was backfilled from a great-circle estimate.
	Estimated bool
}

// Matrix is a square table of travel costs indexed by location position.
// The diagonal is always zero.
type Matrix struct {
	Cells     [][]Cell
	Mode      Mode
	Provider  string
	FetchedAt time.Time
	// Degraded is true when one or more cells were estimated rather than
	// resolved by the provider.
	Degraded bool
}

// New creates a zeroed n×n matrix with a valid zero diagonal.
func New(n int, mode Mode) *Matrix {
	cells := make([][]Cell, n)
	for i := range cells {
		cells[i] = make([]Cell, n)
		cells[i][i].Valid = true
	}
	return &Matrix{Cells: cells, Mode: mode}
}

// Size returns the number of locations covered by the matrix.
func (m *Matrix) Size() int {
	return len(m.Cells)
}

// Distance returns the travel distance in meters from location i to location j.
func (m *Matrix) Distance(i, j int) float64 {
	return m.Cells[i][j].DistanceMeters
}

// Duration returns the travel time in seconds from location i to location j.
func (m *Matrix) Duration(i, j int) float64 {
	return m.Cells[i][j].DurationSeconds
}

// MissingCells returns the coordinates of cells the provider failed to resolve.
func (m *Matrix) MissingCells() [][2]int {
	var missing [][2]int
	for i := range m.Cells {
		for j := range m.Cells[i] {
			if !m.Cells[i][j].Valid {
				missing = append(missing, [2]int{i, j})
			}
		}
	}
	return missing
}

// Error provides detailed error information from the matrix provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and the request can be retried.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrRateLimitExceeded)
}

// ValidateCoordinate checks that a coordinate is within valid ranges.
func ValidateCoordinate(c Coordinate) error {
	if c.Lat < -90 || c.Lat > 90 {
		return ErrInvalidCoordinates
	}
	if c.Lon < -180 || c.Lon > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}
