// Package trip provides saved trip management services.
package trip

import (
	"errors"
	"time"

	"github.com/wayplan/wayplan/internal/matrix"
	"github.com/wayplan/wayplan/internal/planner"
)

// Repository errors.
var (
	ErrTripNotFound = errors.New("trip not found")
)

// Validation constants.
const (
	MaxNameLength  = 120
	MaxNotesLength = 500
)

// Trip represents a saved trip: a named set of stops and constraints that can
// be planned repeatedly.
type Trip struct {
	ID          string
	Name        string
	Notes       *string
	Mode        matrix.Mode
	Stops       []planner.Stop
	Constraints planner.Constraints

	// LastPlanID and LastComputedAt record the most recent successful plan
	// computation for this trip.
	LastPlanID     *string
	LastComputedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}
