package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
)

// BuildingRepository persists buildings.
type BuildingRepository struct {
	db *sqlx.DB
}

// NewBuildingRepository constructs the repository.
func NewBuildingRepository(db *sqlx.DB) *BuildingRepository {
	return &BuildingRepository{db: db}
}

func (r *BuildingRepository) List(ctx context.Context) ([]models.Building, error) {
	var buildings []models.Building
	if err := r.db.SelectContext(ctx, &buildings, `SELECT id, name, created_at FROM buildings ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list buildings: %w", err)
	}
	return buildings, nil
}

func (r *BuildingRepository) Create(ctx context.Context, building *models.Building) error {
	row := r.db.QueryRowxContext(ctx, `INSERT INTO buildings (name) VALUES ($1) RETURNING id, created_at`, building.Name)
	if err := row.Scan(&building.ID, &building.CreatedAt); err != nil {
		return fmt.Errorf("create building: %w", err)
	}
	return nil
}

func (r *BuildingRepository) Update(ctx context.Context, building *models.Building) error {
	result, err := r.db.ExecContext(ctx, `UPDATE buildings SET name = $1 WHERE id = $2`, building.Name, building.ID)
	if err != nil {
		return fmt.Errorf("update building: %w", err)
	}
	return requireAffected(result, "update building")
}

// Delete removes a building; its venues are detached.
func (r *BuildingRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM buildings WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete building: %w", err)
	}
	return requireAffected(result, "delete building")
}
