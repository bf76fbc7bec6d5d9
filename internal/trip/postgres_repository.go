package trip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
// Stops and constraints are stored as JSONB; scalar trip attributes get their
// own columns.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL trip repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Get retrieves a trip by ID.
func (r *PostgresRepository) Get(ctx context.Context, id string) (*Trip, error) {
	query := `
		SELECT
			id, name, notes, mode, stops, constraints,
			last_plan_id, last_computed_at,
			created_at, updated_at
		FROM trips
		WHERE id = $1
	`

	var (
		trip            Trip
		stopsJSON       []byte
		constraintsJSON []byte
	)

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&trip.ID,
		&trip.Name,
		&trip.Notes,
		&trip.Mode,
		&stopsJSON,
		&constraintsJSON,
		&trip.LastPlanID,
		&trip.LastComputedAt,
		&trip.CreatedAt,
		&trip.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTripNotFound
		}
		return nil, err
	}

	if err := unmarshalTripPayload(&trip, stopsJSON, constraintsJSON); err != nil {
		return nil, err
	}
	return &trip, nil
}

// List retrieves all trips with pagination.
func (r *PostgresRepository) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	// Fetch one extra to determine if there are more results
	fetchLimit := limit + 1

	query := `
		SELECT
			id, name, notes, mode, stops, constraints,
			last_plan_id, last_computed_at,
			created_at, updated_at
		FROM trips
	`
	args := []any{fetchLimit}
	if opts.Cursor != "" {
		// Keyset pagination: the cursor is the last ID of the previous page.
		query += ` WHERE (created_at, id) < (SELECT created_at, id FROM trips WHERE id = $2)`
		args = append(args, opts.Cursor)
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT $1`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*Trip
	for rows.Next() {
		var (
			trip            Trip
			stopsJSON       []byte
			constraintsJSON []byte
		)
		err := rows.Scan(
			&trip.ID,
			&trip.Name,
			&trip.Notes,
			&trip.Mode,
			&stopsJSON,
			&constraintsJSON,
			&trip.LastPlanID,
			&trip.LastComputedAt,
			&trip.CreatedAt,
			&trip.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := unmarshalTripPayload(&trip, stopsJSON, constraintsJSON); err != nil {
			return nil, err
		}
		trips = append(trips, &trip)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{
		Items: trips,
	}

	// If we got more results than the limit, there are more pages
	if len(trips) > limit {
		result.Items = trips[:limit]
		result.NextCursor = trips[limit-1].ID
	}

	return result, nil
}

// Create creates a new trip.
func (r *PostgresRepository) Create(ctx context.Context, trip *Trip) error {
	stopsJSON, constraintsJSON, err := marshalTripPayload(trip)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO trips (
			id, name, notes, mode, stops, constraints,
			last_plan_id, last_computed_at,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err = r.pool.Exec(ctx, query,
		trip.ID,
		trip.Name,
		trip.Notes,
		trip.Mode,
		stopsJSON,
		constraintsJSON,
		trip.LastPlanID,
		trip.LastComputedAt,
		trip.CreatedAt,
		trip.UpdatedAt,
	)
	return err
}

// Update updates an existing trip.
func (r *PostgresRepository) Update(ctx context.Context, trip *Trip) error {
	stopsJSON, constraintsJSON, err := marshalTripPayload(trip)
	if err != nil {
		return err
	}

	query := `
		UPDATE trips SET
			name = $2,
			notes = $3,
			mode = $4,
			stops = $5,
			constraints = $6,
			last_plan_id = $7,
			last_computed_at = $8,
			updated_at = $9
		WHERE id = $1
	`

	result, err := r.pool.Exec(ctx, query,
		trip.ID,
		trip.Name,
		trip.Notes,
		trip.Mode,
		stopsJSON,
		constraintsJSON,
		trip.LastPlanID,
		trip.LastComputedAt,
		trip.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrTripNotFound
	}

	return nil
}

// Delete deletes a trip by ID.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM trips WHERE id = $1`
	_, err := r.pool.Exec(ctx, query, id)
	return err
}

func marshalTripPayload(trip *Trip) (stops, constraints []byte, err error) {
	stops, err = json.Marshal(trip.Stops)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling stops: %w", err)
	}
	constraints, err = json.Marshal(trip.Constraints)
	if err != nil {
		return nil, nil, fmt.Errorf("marshaling constraints: %w", err)
	}
	return stops, constraints, nil
}

func unmarshalTripPayload(trip *Trip, stops, constraints []byte) error {
	if len(stops) > 0 {
		if err := json.Unmarshal(stops, &trip.Stops); err != nil {
			return fmt.Errorf("unmarshaling stops: %w", err)
		}
	}
	if len(constraints) > 0 {
		if err := json.Unmarshal(constraints, &trip.Constraints); err != nil {
			return fmt.Errorf("unmarshaling constraints: %w", err)
		}
	}
	return nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
