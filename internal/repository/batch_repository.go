package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
)

// BatchRepository persists student cohorts.
type BatchRepository struct {
	db *sqlx.DB
}

// NewBatchRepository constructs the repository.
func NewBatchRepository(db *sqlx.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

// List returns batches ordered by label.
func (r *BatchRepository) List(ctx context.Context) ([]models.Batch, error) {
	var batches []models.Batch
	if err := r.db.SelectContext(ctx, &batches, `SELECT id, label, created_at FROM batches ORDER BY label ASC`); err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}
	return batches, nil
}

// FindByID returns a batch. A missing row returns sql.ErrNoRows.
func (r *BatchRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Batch, error) {
	if exec == nil {
		exec = r.db
	}
	var batch models.Batch
	if err := sqlx.GetContext(ctx, exec, &batch, `SELECT id, label, created_at FROM batches WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find batch: %w", err)
	}
	return &batch, nil
}

// Create inserts a batch.
func (r *BatchRepository) Create(ctx context.Context, batch *models.Batch) error {
	row := r.db.QueryRowxContext(ctx, `INSERT INTO batches (label) VALUES ($1) RETURNING id, created_at`, batch.Label)
	if err := row.Scan(&batch.ID, &batch.CreatedAt); err != nil {
		return fmt.Errorf("create batch: %w", err)
	}
	return nil
}

// Update renames a batch. A missing row returns sql.ErrNoRows.
func (r *BatchRepository) Update(ctx context.Context, batch *models.Batch) error {
	result, err := r.db.ExecContext(ctx, `UPDATE batches SET label = $1 WHERE id = $2`, batch.Label, batch.ID)
	if err != nil {
		return fmt.Errorf("update batch: %w", err)
	}
	return requireAffected(result, "update batch")
}

// Delete removes a batch. Bookings and students referencing it keep a NULL batch.
func (r *BatchRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM batches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete batch: %w", err)
	}
	return requireAffected(result, "delete batch")
}
