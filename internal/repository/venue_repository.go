package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
)

const venueSelect = `SELECT v.id, v.name, v.type, v.capacity, v.building_id, bd.name AS building_name, v.allow_conflict, v.created_at
FROM venues v
LEFT JOIN buildings bd ON bd.id = v.building_id`

// VenueRepository persists venues.
type VenueRepository struct {
	db *sqlx.DB
}

// NewVenueRepository constructs the repository.
func NewVenueRepository(db *sqlx.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

// List returns venues ordered by name.
func (r *VenueRepository) List(ctx context.Context) ([]models.Venue, error) {
	var venues []models.Venue
	if err := r.db.SelectContext(ctx, &venues, venueSelect+" ORDER BY v.name ASC"); err != nil {
		return nil, fmt.Errorf("list venues: %w", err)
	}
	return venues, nil
}

// FindByID returns a venue. A missing row returns sql.ErrNoRows.
func (r *VenueRepository) FindByID(ctx context.Context, id int64) (*models.Venue, error) {
	var venue models.Venue
	if err := r.db.GetContext(ctx, &venue, venueSelect+" WHERE v.id = $1", id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find venue: %w", err)
	}
	return &venue, nil
}

// Create inserts a venue and fills its generated columns.
func (r *VenueRepository) Create(ctx context.Context, venue *models.Venue) error {
	const query = `INSERT INTO venues (name, type, capacity, building_id, allow_conflict)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at`
	row := r.db.QueryRowxContext(ctx, query, venue.Name, venue.Type, venue.Capacity, venue.BuildingID, venue.AllowConflict)
	if err := row.Scan(&venue.ID, &venue.CreatedAt); err != nil {
		return fmt.Errorf("create venue: %w", err)
	}
	return nil
}

// Update replaces a venue's attributes. A missing row returns sql.ErrNoRows.
func (r *VenueRepository) Update(ctx context.Context, venue *models.Venue) error {
	const query = `UPDATE venues SET name = $1, type = $2, capacity = $3, building_id = $4, allow_conflict = $5 WHERE id = $6`
	result, err := r.db.ExecContext(ctx, query, venue.Name, venue.Type, venue.Capacity, venue.BuildingID, venue.AllowConflict, venue.ID)
	if err != nil {
		return fmt.Errorf("update venue: %w", err)
	}
	return requireAffected(result, "update venue")
}

// Delete removes a venue inside the caller's transaction. A missing row returns sql.ErrNoRows.
func (r *VenueRepository) Delete(ctx context.Context, exec sqlx.ExtContext, id int64) error {
	if exec == nil {
		exec = r.db
	}
	result, err := exec.ExecContext(ctx, `DELETE FROM venues WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete venue: %w", err)
	}
	return requireAffected(result, "delete venue")
}

func requireAffected(result sql.Result, op string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
