package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
	"github.com/noah-isme/uni-scheduler-api/pkg/timeutil"
)

var conflictColumns = []string{"kind", "id", "title", "venue_id", "department_id", "batch_id", "start_utc", "end_utc"}

func testWindow() timeutil.Window {
	return timeutil.Window{
		Start: time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2025, 3, 10, 11, 0, 0, 0, time.UTC),
	}
}

func TestFindVenueOverlapsUsesHalfOpenPredicateAndExclusion(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	w := testWindow()

	rows := sqlmock.NewRows(conflictColumns).
		AddRow("event", int64(1), "Orientation", int64(4), nil, int64(2), w.Start, w.End)
	mock.ExpectQuery(regexp.QuoteMeta("UNION ALL SELECT 'exam' AS kind")+".*"+
		regexp.QuoteMeta("WHERE b.venue_id = $1 AND b.start_utc < $2 AND b.end_utc > $3 AND NOT (b.kind = $4 AND b.id = $5) ORDER BY b.start_utc ASC, b.kind ASC, b.id ASC")).
		WithArgs(int64(4), w.End, w.Start, "exam", int64(9)).
		WillReturnRows(rows)

	conflicts, err := repo.FindVenueOverlaps(context.Background(), nil, 4, w, &models.BookingRef{Kind: models.BookingKindExam, ID: 9})
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, models.BookingKindEvent, conflicts[0].Kind)
	assert.Equal(t, models.BookingRef{Kind: models.BookingKindEvent, ID: 1}, conflicts[0].Ref())
	assert.Nil(t, conflicts[0].DepartmentID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindBatchOverlapsIsolatedSkipsUnscopedBookings(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	w := testWindow()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE (b.batch_id = $1 OR LOWER(TRIM(bt.label)) = $2 OR LOWER(TRIM(d.name)) = $2) AND b.start_utc < $3 AND b.end_utc > $4")).
		WithArgs(int64(2), "campus", w.End, w.Start).
		WillReturnRows(sqlmock.NewRows(conflictColumns))

	conflicts, err := repo.FindBatchOverlaps(context.Background(), nil, 2, w, false, nil)
	require.NoError(t, err)
	assert.Empty(t, conflicts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindBatchOverlapsUniversalMatchesUnscopedBookings(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	w := testWindow()

	rows := sqlmock.NewRows(conflictColumns).
		AddRow("exam", int64(3), "Unscoped seminar", int64(5), nil, nil, w.Start, w.End)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN batches bt ON bt.id = b.batch_id LEFT JOIN departments d ON d.id = b.department_id")+".*"+
		regexp.QuoteMeta("OR LOWER(TRIM(d.name)) = $2 OR b.batch_id IS NULL) AND b.start_utc < $3")).
		WithArgs(int64(2), "campus", w.End, w.Start).
		WillReturnRows(rows)

	conflicts, err := repo.FindBatchOverlaps(context.Background(), nil, 2, w, true, nil)
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Nil(t, conflicts[0].BatchID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindCampusOverlapsMatchesOnlyCampusScope(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	w := testWindow()

	rows := sqlmock.NewRows(conflictColumns).
		AddRow("event", int64(7), "Convocation", int64(1), nil, int64(9), w.Start, w.End)
	mock.ExpectQuery(regexp.QuoteMeta("LEFT JOIN departments d ON d.id = b.department_id WHERE (LOWER(TRIM(bt.label)) = $1 OR LOWER(TRIM(d.name)) = $1) AND b.start_utc < $2 AND b.end_utc > $3 AND NOT (b.kind = $4 AND b.id = $5)")).
		WithArgs("campus", w.End, w.Start, "event", int64(2)).
		WillReturnRows(rows)

	conflicts, err := repo.FindCampusOverlaps(context.Background(), nil, w, &models.BookingRef{Kind: models.BookingKindEvent, ID: 2})
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, "Convocation", conflicts[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindAllInWindow(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	w := testWindow()

	rows := sqlmock.NewRows(conflictColumns).
		AddRow("event", int64(1), "A", int64(1), nil, int64(2), w.Start, w.End).
		AddRow("exam", int64(1), "B", int64(2), nil, nil, w.Start, w.End)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.start_utc < $1 AND b.end_utc > $2 ORDER BY")).
		WithArgs(w.End, w.Start).
		WillReturnRows(rows)

	conflicts, err := repo.FindAllInWindow(context.Background(), nil, w, nil)
	require.NoError(t, err)
	assert.Len(t, conflicts, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockVenueMissing(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, capacity, allow_conflict FROM venues WHERE id = $1 FOR UPDATE")).
		WithArgs(int64(99)).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.LockVenue(context.Background(), nil, 99)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertBookingReturnsID(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	w := testWindow()
	batch := int64(2)
	actor := int64(7)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO exams (title, venue_id, department_id, batch_id, start_utc, end_utc, created_by, updated_by, created_at, updated_at)")).
		WithArgs("Algorithms", int64(4), nil, int64(2), w.Start, w.End, int64(7), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(12)))

	id, err := repo.Insert(context.Background(), nil, models.BookingKindExam, models.BookingFields{
		Title: "Algorithms", VenueID: 4, BatchID: &batch, StartUTC: w.Start, EndUTC: w.End,
	}, &actor)
	require.NoError(t, err)
	assert.Equal(t, int64(12), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertRejectsUnknownKind(t *testing.T) {
	db, _, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	_, err := repo.Insert(context.Background(), nil, models.BookingKind("lecture; DROP TABLE events"), models.BookingFields{}, nil)
	assert.Error(t, err)
}

func TestUpdateBookingNotFound(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	w := testWindow()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE events SET title = $1")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), nil, models.BookingKindEvent, 9999, models.BookingFields{
		Title: "Gone", VenueID: 1, StartUTC: w.Start, EndUTC: w.End,
	}, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteBookingReportsExistence(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM events WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM exams WHERE id = $1")).
		WithArgs(int64(9999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	found, err := repo.Delete(context.Background(), nil, models.BookingKindEvent, 1)
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.Delete(context.Background(), nil, models.BookingKindExam, 9999)
	require.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListBookingsAppliesFilters(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)
	w := testWindow()
	kind := models.BookingKindEvent
	venue := int64(4)

	columns := append(append([]string{}, conflictColumns...),
		"created_by", "updated_by", "created_at", "updated_at", "venue_name", "venue_capacity", "batch_name", "department_name")
	rows := sqlmock.NewRows(columns).
		AddRow("event", int64(1), "Orientation", int64(4), nil, nil, w.Start, w.End, nil, nil, w.Start, w.Start, "F403", 40, nil, nil)

	mock.ExpectQuery(regexp.QuoteMeta("FROM events t")+".*"+
		regexp.QuoteMeta("WHERE b.venue_id = $1 AND b.start_utc < $2 AND b.end_utc > $3 ORDER BY b.start_utc ASC, b.kind ASC, b.id ASC LIMIT $4")).
		WithArgs(int64(4), w.End, w.Start, 50).
		WillReturnRows(rows)

	items, err := repo.List(context.Background(), models.BookingFilter{Kind: &kind, VenueID: &venue, From: &w.Start, To: &w.End, Limit: 50})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "F403", items[0].VenueName)
	require.NotNil(t, items[0].VenueCapacity)
	assert.Equal(t, 40, *items[0].VenueCapacity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManagerRollsBackOnError(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	txm := NewTxManager(db)
	boom := errors.New("rejected")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := txm.WithinTx(context.Background(), sql.LevelSerializable, func(_ *sqlx.Tx) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTxManagerCommits(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	txm := NewTxManager(db)

	mock.ExpectBegin()
	mock.ExpectCommit()

	err := txm.WithinTx(context.Background(), sql.LevelSerializable, func(_ *sqlx.Tx) error { return nil })
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
