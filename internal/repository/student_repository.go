package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
)

// StudentRepository reads the student roster.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs the repository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// ListByBatch returns the batch's students ordered by id.
func (r *StudentRepository) ListByBatch(ctx context.Context, batchID int64) ([]models.Student, error) {
	var students []models.Student
	const query = `SELECT id, full_name, batch_id FROM students WHERE batch_id = $1 ORDER BY id ASC`
	if err := r.db.SelectContext(ctx, &students, query, batchID); err != nil {
		return nil, fmt.Errorf("list students by batch: %w", err)
	}
	return students, nil
}

// Count returns the number of students in the batch, or all students when batchID is nil.
func (r *StudentRepository) Count(ctx context.Context, batchID *int64) (int, error) {
	query := `SELECT COUNT(*) FROM students`
	var args []interface{}
	if batchID != nil {
		query += ` WHERE batch_id = $1`
		args = append(args, *batchID)
	}
	var count int
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count students: %w", err)
	}
	return count, nil
}
