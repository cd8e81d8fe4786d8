package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
)

// SeatRepository stores exam seat allocations.
type SeatRepository struct {
	db *sqlx.DB
}

// NewSeatRepository constructs the repository.
func NewSeatRepository(db *sqlx.DB) *SeatRepository {
	return &SeatRepository{db: db}
}

// Replace swaps the allocation of an exam atomically.
func (r *SeatRepository) Replace(ctx context.Context, examID int64, seats []models.ExamSeat) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seat tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM exam_seats WHERE exam_id = $1`, examID); err != nil {
		return fmt.Errorf("clear exam seats: %w", err)
	}
	if len(seats) > 0 {
		const insert = `INSERT INTO exam_seats (exam_id, student_id, seat_no) VALUES (:exam_id, :student_id, :seat_no)`
		if _, err = tx.NamedExecContext(ctx, insert, seats); err != nil {
			return fmt.Errorf("insert exam seats: %w", err)
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit seat tx: %w", err)
	}
	return nil
}

// ListByExam returns seats ordered by seat number.
func (r *SeatRepository) ListByExam(ctx context.Context, examID int64) ([]models.ExamSeat, error) {
	var seats []models.ExamSeat
	const query = `SELECT exam_id, student_id, seat_no FROM exam_seats WHERE exam_id = $1 ORDER BY seat_no ASC`
	if err := r.db.SelectContext(ctx, &seats, query, examID); err != nil {
		return nil, fmt.Errorf("list exam seats: %w", err)
	}
	return seats, nil
}
