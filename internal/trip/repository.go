package trip

import "context"

// ListOptions contains options for listing trips.
type ListOptions struct {
	Limit  int
	Cursor string
}

// ListResult contains the results of listing trips.
type ListResult struct {
	Items      []*Trip
	NextCursor string
}

// Repository defines the interface for trip data persistence.
type Repository interface {
	// Get retrieves a trip by ID.
	// Returns ErrTripNotFound if the trip doesn't exist.
	Get(ctx context.Context, id string) (*Trip, error)

	// List retrieves all trips with pagination.
	List(ctx context.Context, opts ListOptions) (*ListResult, error)

	// Create creates a new trip.
	Create(ctx context.Context, trip *Trip) error

	// Update updates an existing trip.
	Update(ctx context.Context, trip *Trip) error

	// Delete deletes a trip by ID.
	Delete(ctx context.Context, id string) error
}
