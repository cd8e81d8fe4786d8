package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
)

func TestStudentRepositoryListByBatchOrdersByID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "full_name", "batch_id"}).
		AddRow(int64(1), "Ana", int64(11)).
		AddRow(int64(2), "Budi", int64(11))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, full_name, batch_id FROM students WHERE batch_id = $1 ORDER BY id ASC")).
		WithArgs(int64(11)).
		WillReturnRows(rows)

	students, err := repo.ListByBatch(context.Background(), 11)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "Budi", students[1].FullName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM students WHERE batch_id = $1")).
		WithArgs(int64(11)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(30))
	mock.ExpectQuery(`^SELECT COUNT\(\*\) FROM students$`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(420))

	batchID := int64(11)
	inBatch, err := repo.Count(context.Background(), &batchID)
	require.NoError(t, err)
	assert.Equal(t, 30, inBatch)

	all, err := repo.Count(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 420, all)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVenueRepositoryCreateReturnsGeneratedColumns(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVenueRepository(db)

	now := time.Now()
	capacity := 40
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO venues (name, type, capacity, building_id, allow_conflict)")).
		WithArgs("F403", nil, &capacity, nil, false).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(4), now))

	venue := &models.Venue{Name: "F403", Capacity: &capacity}
	require.NoError(t, repo.Create(context.Background(), venue))
	assert.Equal(t, int64(4), venue.ID)
	assert.Equal(t, now, venue.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVenueRepositoryDeleteMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewVenueRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM venues WHERE id = $1")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), nil, 9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBatchRepositoryFindByIDWrapsFailures(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBatchRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, label, created_at FROM batches WHERE id = $1")).
		WithArgs(int64(10)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "label", "created_at"}).AddRow(int64(10), "Campus", time.Now()))
	mock.ExpectQuery(regexp.QuoteMeta("FROM batches WHERE id = $1")).
		WithArgs(int64(11)).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery(regexp.QuoteMeta("FROM batches WHERE id = $1")).
		WithArgs(int64(12)).
		WillReturnError(errors.New("conn reset"))

	batch, err := repo.FindByID(context.Background(), nil, 10)
	require.NoError(t, err)
	assert.True(t, batch.IsCampus())

	_, err = repo.FindByID(context.Background(), nil, 11)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	_, err = repo.FindByID(context.Background(), nil, 12)
	require.Error(t, err)
	assert.NotErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatRepositoryReplaceRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSeatRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exam_seats WHERE exam_id = $1")).
		WithArgs(int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO exam_seats")).
		WillReturnError(errors.New("duplicate seat"))
	mock.ExpectRollback()

	err := repo.Replace(context.Background(), 5, []models.ExamSeat{
		{ExamID: 5, StudentID: 1, SeatNo: "A001"},
		{ExamID: 5, StudentID: 2, SeatNo: "A002"},
	})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeatRepositoryListByExamOrdersBySeat(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewSeatRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM exam_seats WHERE exam_id = $1 ORDER BY seat_no ASC")).
		WithArgs(int64(5)).
		WillReturnRows(sqlmock.NewRows([]string{"exam_id", "student_id", "seat_no"}).
			AddRow(5, 1, "A001").
			AddRow(5, 2, "A002"))

	seats, err := repo.ListByExam(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, seats, 2)
	assert.Equal(t, "A002", seats[1].SeatNo)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditRepositoryListRecentClampsLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewAuditRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM audit_logs ORDER BY created_at DESC LIMIT $1")).
		WithArgs(100).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "type", "actor", "ref_id", "ref_type", "created_at"}).
			AddRow("a1", "Created venue", "create", "Registrar", nil, "venue", time.Now()))

	logs, err := repo.ListRecent(context.Background(), 10000)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, models.AuditTypeCreate, logs[0].Type)
	assert.NoError(t, mock.ExpectationsWereMet())
}
