package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
	"github.com/noah-isme/uni-scheduler-api/pkg/timeutil"
)

const overlapColumns = "b.kind, b.id, b.title, b.venue_id, b.department_id, b.batch_id, b.start_utc, b.end_utc"

const detailColumns = `b.kind, b.id, b.title, b.venue_id, b.department_id, b.batch_id, b.start_utc, b.end_utc,
	b.created_by, b.updated_by, b.created_at, b.updated_at,
	b.venue_name, b.venue_capacity, b.batch_name, b.department_name`

const overlapOrder = " ORDER BY b.start_utc ASC, b.kind ASC, b.id ASC"

// BookingRepository persists events and exams. Every method accepts an optional executor so it can
// run inside a caller owned transaction; nil falls back to the pool.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs the repository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

func (r *BookingRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

func tableFor(kind models.BookingKind) (string, error) {
	table := kind.Table()
	if table == "" {
		return "", fmt.Errorf("unsupported booking kind %q", kind)
	}
	return table, nil
}

// unionSource spans both booking tables with a kind discriminator.
func unionSource() string {
	parts := make([]string, 0, 2)
	for _, kind := range models.BookingKinds() {
		parts = append(parts, fmt.Sprintf(
			"SELECT '%s' AS kind, id, title, venue_id, department_id, batch_id, start_utc, end_utc FROM %s",
			kind, kind.Table()))
	}
	return "(" + strings.Join(parts, " UNION ALL ") + ") b"
}

// detailSource selects a single kind joined with its reference names.
func detailSource(kind models.BookingKind) string {
	return fmt.Sprintf(`SELECT '%s' AS kind, t.id, t.title, t.venue_id, t.department_id, t.batch_id, t.start_utc, t.end_utc,
	t.created_by, t.updated_by, t.created_at, t.updated_at,
	v.name AS venue_name, v.capacity AS venue_capacity, bt.label AS batch_name, d.name AS department_name
FROM %s t
JOIN venues v ON v.id = t.venue_id
LEFT JOIN batches bt ON bt.id = t.batch_id
LEFT JOIN departments d ON d.id = t.department_id`, kind, kind.Table())
}

// windowConditions appends the half-open overlap predicate and the optional exclusion.
func windowConditions(conditions []string, args []interface{}, window timeutil.Window, exclude *models.BookingRef) ([]string, []interface{}) {
	conditions = append(conditions, fmt.Sprintf("b.start_utc < $%d", len(args)+1))
	args = append(args, window.End)
	conditions = append(conditions, fmt.Sprintf("b.end_utc > $%d", len(args)+1))
	args = append(args, window.Start)
	if exclude != nil {
		conditions = append(conditions, fmt.Sprintf("NOT (b.kind = $%d AND b.id = $%d)", len(args)+1, len(args)+2))
		args = append(args, string(exclude.Kind), exclude.ID)
	}
	return conditions, args
}

func (r *BookingRepository) selectOverlaps(ctx context.Context, exec sqlx.ExtContext, joins string, conditions []string, args []interface{}) ([]models.BookingConflict, error) {
	query := "SELECT " + overlapColumns + " FROM " + unionSource() + joins +
		" WHERE " + strings.Join(conditions, " AND ") + overlapOrder
	var conflicts []models.BookingConflict
	if err := sqlx.SelectContext(ctx, r.exec(exec), &conflicts, query, args...); err != nil {
		return nil, err
	}
	return conflicts, nil
}

const scopeJoins = " LEFT JOIN batches bt ON bt.id = b.batch_id LEFT JOIN departments d ON d.id = b.department_id"

// FindVenueOverlaps returns bookings of any kind in the venue whose window intersects window.
func (r *BookingRepository) FindVenueOverlaps(ctx context.Context, exec sqlx.ExtContext, venueID int64, window timeutil.Window, exclude *models.BookingRef) ([]models.BookingConflict, error) {
	conditions := []string{"b.venue_id = $1"}
	args := []interface{}{venueID}
	conditions, args = windowConditions(conditions, args, window, exclude)

	conflicts, err := r.selectOverlaps(ctx, exec, "", conditions, args)
	if err != nil {
		return nil, fmt.Errorf("find venue overlaps: %w", err)
	}
	return conflicts, nil
}

// FindBatchOverlaps returns intersecting bookings that share the batch or are Campus scoped through
// their batch or department. includeUnscoped also matches bookings without a batch.
func (r *BookingRepository) FindBatchOverlaps(ctx context.Context, exec sqlx.ExtContext, batchID int64, window timeutil.Window, includeUnscoped bool, exclude *models.BookingRef) ([]models.BookingConflict, error) {
	scope := []string{
		"b.batch_id = $1",
		"LOWER(TRIM(bt.label)) = $2",
		"LOWER(TRIM(d.name)) = $2",
	}
	if includeUnscoped {
		scope = append(scope, "b.batch_id IS NULL")
	}
	conditions := []string{"(" + strings.Join(scope, " OR ") + ")"}
	args := []interface{}{batchID, models.CampusLabel}
	conditions, args = windowConditions(conditions, args, window, exclude)

	conflicts, err := r.selectOverlaps(ctx, exec, scopeJoins, conditions, args)
	if err != nil {
		return nil, fmt.Errorf("find batch overlaps: %w", err)
	}
	return conflicts, nil
}

// FindCampusOverlaps returns intersecting bookings that are Campus scoped through their batch or department.
func (r *BookingRepository) FindCampusOverlaps(ctx context.Context, exec sqlx.ExtContext, window timeutil.Window, exclude *models.BookingRef) ([]models.BookingConflict, error) {
	conditions := []string{"(LOWER(TRIM(bt.label)) = $1 OR LOWER(TRIM(d.name)) = $1)"}
	args := []interface{}{models.CampusLabel}
	conditions, args = windowConditions(conditions, args, window, exclude)

	conflicts, err := r.selectOverlaps(ctx, exec, scopeJoins, conditions, args)
	if err != nil {
		return nil, fmt.Errorf("find campus overlaps: %w", err)
	}
	return conflicts, nil
}

// FindAllInWindow returns every booking intersecting window regardless of venue or batch.
func (r *BookingRepository) FindAllInWindow(ctx context.Context, exec sqlx.ExtContext, window timeutil.Window, exclude *models.BookingRef) ([]models.BookingConflict, error) {
	conditions, args := windowConditions(nil, nil, window, exclude)
	conflicts, err := r.selectOverlaps(ctx, exec, "", conditions, args)
	if err != nil {
		return nil, fmt.Errorf("find bookings in window: %w", err)
	}
	return conflicts, nil
}

// LockVenue reads the venue row and holds a row lock until the transaction ends.
// A missing venue returns sql.ErrNoRows.
func (r *BookingRepository) LockVenue(ctx context.Context, exec sqlx.ExtContext, venueID int64) (*models.VenueLock, error) {
	const query = `SELECT id, name, capacity, allow_conflict FROM venues WHERE id = $1 FOR UPDATE`
	var venue models.VenueLock
	if err := sqlx.GetContext(ctx, r.exec(exec), &venue, query, venueID); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("lock venue: %w", err)
	}
	return &venue, nil
}

// Insert writes a new booking and returns its id.
func (r *BookingRepository) Insert(ctx context.Context, exec sqlx.ExtContext, kind models.BookingKind, fields models.BookingFields, actorID *int64) (int64, error) {
	table, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	query := fmt.Sprintf(`INSERT INTO %s (title, venue_id, department_id, batch_id, start_utc, end_utc, created_by, updated_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $7, $8, $8)
RETURNING id`, table)

	now := time.Now().UTC()
	var id int64
	if err := sqlx.GetContext(ctx, r.exec(exec), &id, query,
		fields.Title, fields.VenueID, fields.DepartmentID, fields.BatchID, fields.StartUTC, fields.EndUTC, actorID, now); err != nil {
		return 0, fmt.Errorf("insert %s: %w", kind, err)
	}
	return id, nil
}

// Update replaces every writable field of a booking. A missing row returns sql.ErrNoRows.
func (r *BookingRepository) Update(ctx context.Context, exec sqlx.ExtContext, kind models.BookingKind, id int64, fields models.BookingFields, actorID *int64) error {
	table, err := tableFor(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET title = $1, venue_id = $2, department_id = $3, batch_id = $4,
	start_utc = $5, end_utc = $6, updated_by = $7, updated_at = $8
WHERE id = $9`, table)

	result, err := r.exec(exec).ExecContext(ctx, query,
		fields.Title, fields.VenueID, fields.DepartmentID, fields.BatchID, fields.StartUTC, fields.EndUTC, actorID, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update %s: %w", kind, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update %s rows affected: %w", kind, err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a booking and reports whether it existed.
func (r *BookingRepository) Delete(ctx context.Context, exec sqlx.ExtContext, kind models.BookingKind, id int64) (bool, error) {
	table, err := tableFor(kind)
	if err != nil {
		return false, err
	}
	result, err := r.exec(exec).ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = $1", table), id)
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", kind, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete %s rows affected: %w", kind, err)
	}
	return affected > 0, nil
}

// FindByID returns a booking with its reference names. A missing row returns sql.ErrNoRows.
func (r *BookingRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, kind models.BookingKind, id int64) (*models.BookingDetail, error) {
	if _, err := tableFor(kind); err != nil {
		return nil, err
	}
	query := "SELECT " + detailColumns + " FROM (" + detailSource(kind) + ") b WHERE b.id = $1"
	var detail models.BookingDetail
	if err := sqlx.GetContext(ctx, r.exec(exec), &detail, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, sql.ErrNoRows
		}
		return nil, fmt.Errorf("get %s: %w", kind, err)
	}
	return &detail, nil
}

// List returns bookings ordered by start. A nil filter kind spans both kinds.
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, error) {
	kinds := models.BookingKinds()
	if filter.Kind != nil {
		if _, err := tableFor(*filter.Kind); err != nil {
			return nil, err
		}
		kinds = []models.BookingKind{*filter.Kind}
	}
	sources := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		sources = append(sources, detailSource(kind))
	}

	var conditions []string
	var args []interface{}
	if filter.VenueID != nil {
		conditions = append(conditions, fmt.Sprintf("b.venue_id = $%d", len(args)+1))
		args = append(args, *filter.VenueID)
	}
	if filter.BatchID != nil {
		conditions = append(conditions, fmt.Sprintf("b.batch_id = $%d", len(args)+1))
		args = append(args, *filter.BatchID)
	}
	if filter.DepartmentID != nil {
		conditions = append(conditions, fmt.Sprintf("b.department_id = $%d", len(args)+1))
		args = append(args, *filter.DepartmentID)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("b.start_utc < $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("b.end_utc > $%d", len(args)+1))
		args = append(args, *filter.From)
	}

	query := "SELECT " + detailColumns + " FROM (" + strings.Join(sources, " UNION ALL ") + ") b"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += overlapOrder
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", len(args)+1)
		args = append(args, filter.Limit)
	}

	var items []models.BookingDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return items, nil
}

// CountByVenue reports how many bookings of either kind reference the venue.
func (r *BookingRepository) CountByVenue(ctx context.Context, exec sqlx.ExtContext, venueID int64) (int, error) {
	const query = `SELECT (SELECT COUNT(*) FROM events WHERE venue_id = $1) + (SELECT COUNT(*) FROM exams WHERE venue_id = $1)`
	var count int
	if err := sqlx.GetContext(ctx, r.exec(exec), &count, query, venueID); err != nil {
		return 0, fmt.Errorf("count venue bookings: %w", err)
	}
	return count, nil
}
