package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/uni-scheduler-api/pkg/errors"
)

type mockStudentSource struct {
	students []models.Student
	err      error
}

func (m *mockStudentSource) ListByBatch(context.Context, int64) ([]models.Student, error) {
	return m.students, m.err
}

type mockSeatStore struct {
	examID int64
	seats  []models.ExamSeat
	calls  int
	err    error
}

func (m *mockSeatStore) Replace(_ context.Context, examID int64, seats []models.ExamSeat) error {
	m.calls++
	m.examID = examID
	m.seats = seats
	return m.err
}

func (m *mockSeatStore) ListByExam(_ context.Context, examID int64) ([]models.ExamSeat, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []models.ExamSeat
	for _, seat := range m.seats {
		if seat.ExamID == examID {
			out = append(out, seat)
		}
	}
	return out, nil
}

func roster(n int) []models.Student {
	out := make([]models.Student, n)
	for i := range out {
		out[i] = models.Student{ID: int64(100 + i), FullName: "Student"}
	}
	return out
}

func TestSeatingAssignsUpToCapacity(t *testing.T) {
	seats := &mockSeatStore{}
	svc := NewSeatingService(&mockStudentSource{students: roster(5)}, seats, nil, zap.NewNop())
	capacity := 3

	result, err := svc.Assign(context.Background(), 7, int64Ptr(1), "F403", &capacity)
	require.NoError(t, err)
	assert.Equal(t, models.SeatingResult{TotalStudents: 5, Assigned: 3, Unassigned: 2, VenueName: "F403"}, *result)

	require.Len(t, seats.seats, 3)
	assert.Equal(t, int64(7), seats.examID)
	assert.Equal(t, "A001", seats.seats[0].SeatNo)
	assert.Equal(t, "A003", seats.seats[2].SeatNo)
	assert.Equal(t, int64(100), seats.seats[0].StudentID)
}

func TestSeatingWithoutBatchSeatsNobody(t *testing.T) {
	seats := &mockSeatStore{}
	svc := NewSeatingService(&mockStudentSource{students: roster(5)}, seats, nil, nil)

	result, err := svc.Assign(context.Background(), 7, nil, "Hall A", nil)
	require.NoError(t, err)
	assert.Zero(t, result.Assigned)
	assert.Zero(t, seats.calls)
}

func TestSeatingUnknownCapacityClearsSeats(t *testing.T) {
	seats := &mockSeatStore{}
	svc := NewSeatingService(&mockStudentSource{students: roster(2)}, seats, nil, nil)

	result, err := svc.Assign(context.Background(), 7, int64Ptr(1), "Hall A", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Unassigned)
	assert.Equal(t, 1, seats.calls)
	assert.Empty(t, seats.seats)
}

func TestSeatingPropagatesErrors(t *testing.T) {
	capacity := 10
	svc := NewSeatingService(&mockStudentSource{err: errors.New("boom")}, &mockSeatStore{}, nil, nil)
	_, err := svc.Assign(context.Background(), 7, int64Ptr(1), "Hall A", &capacity)
	require.Error(t, err)

	svc = NewSeatingService(&mockStudentSource{students: roster(1)}, &mockSeatStore{err: errors.New("write failed")}, nil, nil)
	_, err = svc.Assign(context.Background(), 7, int64Ptr(1), "Hall A", &capacity)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write failed")
}

type knownExams map[int64]bool

func (k knownExams) FindByID(_ context.Context, _ sqlx.ExtContext, kind models.BookingKind, id int64) (*models.BookingDetail, error) {
	if kind != models.BookingKindExam || !k[id] {
		return nil, sql.ErrNoRows
	}
	return &models.BookingDetail{Booking: models.Booking{ID: id, Kind: kind}}, nil
}

func TestSeatPlanReadsBackAssignment(t *testing.T) {
	seats := &mockSeatStore{}
	exams := knownExams{9: true, 10: true}
	svc := NewSeatingService(&mockStudentSource{students: roster(2)}, seats, exams, nil)
	capacity := 10
	_, err := svc.Assign(context.Background(), 9, int64Ptr(1), "Hall A", &capacity)
	require.NoError(t, err)

	plan, err := svc.Seats(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, plan, 2)
	assert.Equal(t, "A002", plan[1].SeatNo)

	plan, err = svc.Seats(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, plan)
	assert.Empty(t, plan)

	_, err = svc.Seats(context.Background(), 11)
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	svc = NewSeatingService(nil, &mockSeatStore{err: errors.New("db down")}, exams, nil)
	_, err = svc.Seats(context.Background(), 9)
	assert.True(t, appErrors.IsCode(err, appErrors.ErrInternal.Code))
}

func TestSeatNumber(t *testing.T) {
	assert.Equal(t, "A001", seatNumber(0))
	assert.Equal(t, "A042", seatNumber(41))
	assert.Equal(t, "A1000", seatNumber(999))
}
