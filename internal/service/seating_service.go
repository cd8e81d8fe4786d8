package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/uni-scheduler-api/pkg/errors"
)

type seatingStudentSource interface {
	ListByBatch(ctx context.Context, batchID int64) ([]models.Student, error)
}

type examLookup interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, kind models.BookingKind, id int64) (*models.BookingDetail, error)
}

type seatStore interface {
	Replace(ctx context.Context, examID int64, seats []models.ExamSeat) error
	ListByExam(ctx context.Context, examID int64) ([]models.ExamSeat, error)
}

// SeatingService allocates exam seats to the students of the exam's batch.
type SeatingService struct {
	students seatingStudentSource
	seats    seatStore
	exams    examLookup
	logger   *zap.Logger
}

// NewSeatingService constructs the service.
func NewSeatingService(students seatingStudentSource, seats seatStore, exams examLookup, logger *zap.Logger) *SeatingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeatingService{students: students, seats: seats, exams: exams, logger: logger}
}

// Assign seats students in id order until the venue capacity is exhausted.
// Unknown capacity seats nobody.
func (s *SeatingService) Assign(ctx context.Context, examID int64, batchID *int64, venueName string, capacity *int) (*models.SeatingResult, error) {
	result := &models.SeatingResult{VenueName: venueName}
	if batchID == nil {
		return result, nil
	}

	students, err := s.students.ListByBatch(ctx, *batchID)
	if err != nil {
		return nil, fmt.Errorf("load students for exam %d: %w", examID, err)
	}

	limit := 0
	if capacity != nil && *capacity > 0 {
		limit = *capacity
	}
	assigned := len(students)
	if assigned > limit {
		assigned = limit
	}

	seats := make([]models.ExamSeat, 0, assigned)
	for i := 0; i < assigned; i++ {
		seats = append(seats, models.ExamSeat{ExamID: examID, StudentID: students[i].ID, SeatNo: seatNumber(i)})
	}
	if err := s.seats.Replace(ctx, examID, seats); err != nil {
		return nil, fmt.Errorf("store seats for exam %d: %w", examID, err)
	}

	result.TotalStudents = len(students)
	result.Assigned = assigned
	result.Unassigned = len(students) - assigned
	s.logger.Debug("exam seats assigned", zap.Int64("exam_id", examID), zap.Int("assigned", assigned), zap.Int("unassigned", result.Unassigned))
	return result, nil
}

// Seats returns the stored seat plan of an exam ordered by seat number. Unknown exams are NOT_FOUND.
func (s *SeatingService) Seats(ctx context.Context, examID int64) ([]models.ExamSeat, error) {
	if _, err := s.exams.FindByID(ctx, nil, models.BookingKindExam, examID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		s.logger.Error("failed to load exam", zap.Int64("exam_id", examID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load seat plan")
	}
	seats, err := s.seats.ListByExam(ctx, examID)
	if err != nil {
		s.logger.Error("failed to load seat plan", zap.Int64("exam_id", examID), zap.Error(err))
		return nil, appErrors.Internal(err, "failed to load seat plan")
	}
	if seats == nil {
		seats = []models.ExamSeat{}
	}
	return seats, nil
}

func seatNumber(i int) string {
	return fmt.Sprintf("A%03d", i+1)
}
