package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-scheduler-api/internal/dto"
	"github.com/noah-isme/uni-scheduler-api/internal/models"
	"github.com/noah-isme/uni-scheduler-api/pkg/database"
	appErrors "github.com/noah-isme/uni-scheduler-api/pkg/errors"
	"github.com/noah-isme/uni-scheduler-api/pkg/timeutil"
)

type bookingStore interface {
	overlapFinder
	LockVenue(ctx context.Context, exec sqlx.ExtContext, venueID int64) (*models.VenueLock, error)
	Insert(ctx context.Context, exec sqlx.ExtContext, kind models.BookingKind, fields models.BookingFields, actorID *int64) (int64, error)
	Update(ctx context.Context, exec sqlx.ExtContext, kind models.BookingKind, id int64, fields models.BookingFields, actorID *int64) error
	Delete(ctx context.Context, exec sqlx.ExtContext, kind models.BookingKind, id int64) (bool, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, kind models.BookingKind, id int64) (*models.BookingDetail, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, error)
}

type txRunner interface {
	WithinTx(ctx context.Context, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error
}

type auditRecorder interface {
	Record(ctx context.Context, entry models.AuditLog)
}

type bookingEventSink interface {
	Publish(ctx context.Context, evt BookingEvent)
}

type seatAssigner interface {
	Assign(ctx context.Context, examID int64, batchID *int64, venueName string, capacity *int) (*models.SeatingResult, error)
}

type studentCounter interface {
	Count(ctx context.Context, batchID *int64) (int, error)
}

// BookingServiceOptions carries the optional collaborators of BookingService.
type BookingServiceOptions struct {
	Audit           auditRecorder
	Cache           *CacheService
	Events          bookingEventSink
	Metrics         *MetricsService
	Seating         seatAssigner
	Students        studentCounter
	AssignExamSeats bool
}

// BookingService is the single entry point for scheduling events and exams.
type BookingService struct {
	store     bookingStore
	tx        txRunner
	resolver  *ConflictResolver
	validator *validator.Validate
	logger    *zap.Logger
	opts      BookingServiceOptions
}

// NewBookingService instantiates BookingService.
func NewBookingService(store bookingStore, tx txRunner, resolver *ConflictResolver, validate *validator.Validate, logger *zap.Logger, opts BookingServiceOptions) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BookingService{store: store, tx: tx, resolver: resolver, validator: validate, logger: logger, opts: opts}
}

// Create checks the request for conflicts and stores it when admissible.
// Conflict check and insert share one serializable transaction holding the venue row lock.
func (s *BookingService) Create(ctx context.Context, kind models.BookingKind, req dto.BookingRequest, actor models.Actor) (*models.BookingResult, error) {
	fields, err := s.prepare(kind, req)
	if err != nil {
		s.recordOutcome(kind, "create", err)
		return nil, err
	}

	var (
		report *models.ConflictReport
		detail *models.BookingDetail
	)
	err = s.tx.WithinTx(ctx, sql.LevelSerializable, func(tx *sqlx.Tx) error {
		var err error
		report, err = s.evaluate(ctx, tx, fields, nil)
		if err != nil {
			return err
		}
		if report.Blocking() {
			return conflictError(report)
		}
		id, err := s.store.Insert(ctx, tx, kind, fields, actor.ID)
		if err != nil {
			return err
		}
		detail, err = s.store.FindByID(ctx, tx, kind, id)
		return err
	})
	if err != nil {
		err = s.mapWriteError(kind, "create", err)
		s.recordOutcome(kind, "create", err)
		return nil, err
	}
	s.recordOutcome(kind, "create", nil)

	auditType, verb := models.AuditTypeCreate, "Created"
	if kind == models.BookingKindExam {
		auditType, verb = models.AuditTypeSchedule, "Scheduled"
	}
	s.afterWrite(ctx, BookingCreatedEvent, kind, detail.ID, detail, actor,
		newAuditEntry(fmt.Sprintf("%s %s %q", verb, kind, detail.Title), auditType, actor, detail.ID, string(kind)))

	result := &models.BookingResult{Booking: *detail, Conflicts: report.Conflicts.Normalize()}
	switch kind {
	case models.BookingKindExam:
		result.Seating = s.assignSeats(ctx, detail)
	case models.BookingKindEvent:
		result.AffectedStudents = s.affectedStudents(ctx, detail, report.CampusScoped)
	}
	return result, nil
}

// Update re-checks the booking with its own (kind, id) excluded from the overlap scan.
func (s *BookingService) Update(ctx context.Context, kind models.BookingKind, id int64, req dto.BookingRequest, actor models.Actor) (*models.BookingResult, error) {
	fields, err := s.prepare(kind, req)
	if err != nil {
		s.recordOutcome(kind, "update", err)
		return nil, err
	}

	self := &models.BookingRef{Kind: kind, ID: id}
	var (
		report   *models.ConflictReport
		previous *models.BookingDetail
		detail   *models.BookingDetail
	)
	err = s.tx.WithinTx(ctx, sql.LevelSerializable, func(tx *sqlx.Tx) error {
		var err error
		if previous, err = s.store.FindByID(ctx, tx, kind, id); err != nil {
			return err
		}
		report, err = s.evaluate(ctx, tx, fields, self)
		if err != nil {
			return err
		}
		if report.Blocking() {
			return conflictError(report)
		}
		if err := s.store.Update(ctx, tx, kind, id, fields, actor.ID); err != nil {
			return err
		}
		detail, err = s.store.FindByID(ctx, tx, kind, id)
		return err
	})
	if err != nil {
		err = s.mapWriteError(kind, "update", err)
		s.recordOutcome(kind, "update", err)
		return nil, err
	}
	s.recordOutcome(kind, "update", nil)

	s.afterWrite(ctx, BookingUpdatedEvent, kind, id, detail, actor,
		newAuditEntry(fmt.Sprintf("Updated %s %q", kind, detail.Title), models.AuditTypeUpdate, actor, id, string(kind)))

	result := &models.BookingResult{Booking: *detail, Conflicts: report.Conflicts.Normalize()}
	if kind == models.BookingKindExam && seatingChanged(previous, detail) {
		result.Seating = s.assignSeats(ctx, detail)
	}
	return result, nil
}

// seatingChanged reports whether the venue or batch of an exam moved, which invalidates its seat plan.
func seatingChanged(before, after *models.BookingDetail) bool {
	if before.VenueID != after.VenueID {
		return true
	}
	if (before.BatchID == nil) != (after.BatchID == nil) {
		return true
	}
	return before.BatchID != nil && *before.BatchID != *after.BatchID
}

// Delete removes a booking without any conflict check.
func (s *BookingService) Delete(ctx context.Context, kind models.BookingKind, id int64, actor models.Actor) error {
	if !kind.Valid() {
		return appErrors.Clone(appErrors.ErrValidation, "unknown booking kind")
	}
	found, err := s.store.Delete(ctx, nil, kind, id)
	if err != nil {
		err = s.mapWriteError(kind, "delete", err)
		s.recordOutcome(kind, "delete", err)
		return err
	}
	if !found {
		err = appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", kind))
		s.recordOutcome(kind, "delete", err)
		return err
	}
	s.recordOutcome(kind, "delete", nil)

	s.afterWrite(ctx, BookingDeletedEvent, kind, id, nil, actor,
		newAuditEntry(fmt.Sprintf("Deleted %s ID %d", kind, id), models.AuditTypeDelete, actor, id, string(kind)))
	return nil
}

// Get returns one booking with its reference names.
func (s *BookingService) Get(ctx context.Context, kind models.BookingKind, id int64) (*models.BookingDetail, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown booking kind")
	}
	detail, err := s.store.FindByID(ctx, nil, kind, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", kind))
		}
		return nil, appErrors.Internal(err, fmt.Sprintf("failed to load %s", kind))
	}
	return detail, nil
}

// List returns bookings of one kind ordered by start. The bool reports a cache hit.
func (s *BookingService) List(ctx context.Context, kind models.BookingKind, filter models.BookingFilter) ([]models.BookingDetail, bool, error) {
	if !kind.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "unknown booking kind")
	}
	filter.Kind = &kind
	return s.list(ctx, filter)
}

// ListAll returns events and exams together ordered by start.
func (s *BookingService) ListAll(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, bool, error) {
	if filter.Kind != nil && !filter.Kind.Valid() {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "unknown booking kind")
	}
	return s.list(ctx, filter)
}

func (s *BookingService) list(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, bool, error) {
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, false, appErrors.Clone(appErrors.ErrValidation, "from must be before to")
	}
	var items []models.BookingDetail
	hit, err := s.opts.Cache.Remember(ctx, cachePrefixBookings+"list:"+filter.CacheKey(), &items, func() (interface{}, error) {
		defer s.opts.Metrics.ObserveDBQuery("booking_list", time.Now())
		loaded, err := s.store.List(ctx, filter)
		if loaded == nil {
			loaded = []models.BookingDetail{}
		}
		return loaded, err
	})
	if err != nil {
		return nil, false, appErrors.Internal(err, "failed to list bookings")
	}
	return items, hit, nil
}

// CheckConflicts evaluates a prospective booking without writing it. exclude may name a booking
// being edited so it does not conflict with itself.
func (s *BookingService) CheckConflicts(ctx context.Context, req dto.BookingRequest, exclude *models.BookingRef) (*models.ConflictReport, error) {
	fields, err := s.prepare(models.BookingKindEvent, req)
	if err != nil {
		return nil, err
	}
	if exclude != nil && !exclude.Kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown booking kind")
	}
	var report *models.ConflictReport
	err = s.tx.WithinTx(ctx, sql.LevelRepeatableRead, func(tx *sqlx.Tx) error {
		var err error
		report, err = s.evaluate(ctx, tx, fields, exclude)
		return err
	})
	if err != nil {
		return nil, s.mapWriteError(models.BookingKindEvent, "check", err)
	}
	s.opts.Metrics.RecordBooking("any", "check", OutcomeChecked)
	return report, nil
}

// prepare validates the payload and normalises the window.
func (s *BookingService) prepare(kind models.BookingKind, req dto.BookingRequest) (models.BookingFields, error) {
	if !kind.Valid() {
		return models.BookingFields{}, appErrors.Clone(appErrors.ErrValidation, "unknown booking kind")
	}
	req.Title = strings.TrimSpace(req.Title)
	if err := s.validator.Struct(req); err != nil {
		return models.BookingFields{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid %s payload", kind))
	}
	window, err := timeutil.NewWindow(req.Start, req.End)
	if err != nil {
		if errors.Is(err, timeutil.ErrInvalidTimestamp) {
			return models.BookingFields{}, appErrors.Wrap(err, appErrors.ErrInvalidTimestamp.Code, appErrors.ErrInvalidTimestamp.Status, "start and end must be ISO-8601 timestamps")
		}
		return models.BookingFields{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "start must be before end")
	}
	return models.BookingFields{
		Title:        req.Title,
		VenueID:      req.VenueID,
		DepartmentID: req.DepartmentID,
		BatchID:      req.BatchID,
		StartUTC:     window.Start,
		EndUTC:       window.End,
	}, nil
}

// evaluate locks the venue row and runs the resolver. A missing venue is NOT_FOUND.
func (s *BookingService) evaluate(ctx context.Context, tx *sqlx.Tx, fields models.BookingFields, exclude *models.BookingRef) (*models.ConflictReport, error) {
	venue, err := s.store.LockVenue(ctx, tx, fields.VenueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "venue not found")
		}
		return nil, err
	}
	defer s.opts.Metrics.ObserveDBQuery("conflict_resolve", time.Now())
	return s.resolver.Resolve(ctx, tx, ConflictCandidate{
		VenueID:      fields.VenueID,
		BatchID:      fields.BatchID,
		DepartmentID: fields.DepartmentID,
		Window:       timeutil.Window{Start: fields.StartUTC, End: fields.EndUTC},
		Venue:        venue,
	}, exclude)
}

func conflictError(report *models.ConflictReport) error {
	base := appErrors.ErrBatchConflict
	if report.Verdict == models.VerdictVenueConflict {
		base = appErrors.ErrVenueConflict
	}
	domainErr := &models.BookingConflictError{Type: report.Verdict, Conflicts: report.Conflicts.Normalize()}
	return appErrors.Wrap(domainErr, base.Code, base.Status, conflictMessage(report))
}

// mapWriteError converts storage failures into the public error taxonomy.
func (s *BookingService) mapWriteError(kind models.BookingKind, op string, err error) error {
	var appErr *appErrors.Error
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s not found", kind))
	case database.IsRetryable(err):
		return appErrors.Wrap(err, appErrors.ErrConcurrentModification.Code, appErrors.ErrConcurrentModification.Status, appErrors.ErrConcurrentModification.Message)
	case database.IsForeignKeyViolation(err):
		return appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "referenced batch or department not found")
	}
	s.logger.Error("booking write failed", zap.String("kind", string(kind)), zap.String("operation", op), zap.Error(err))
	return appErrors.Internal(err, fmt.Sprintf("failed to %s %s", op, kind))
}

func (s *BookingService) recordOutcome(kind models.BookingKind, op string, err error) {
	outcome := OutcomeError
	switch {
	case err == nil:
		outcome = map[string]string{"create": OutcomeCreated, "update": OutcomeUpdated, "delete": OutcomeDeleted}[op]
	case appErrors.IsCode(err, appErrors.ErrVenueConflict.Code):
		outcome = OutcomeVenueConflict
	case appErrors.IsCode(err, appErrors.ErrBatchConflict.Code):
		outcome = OutcomeBatchConflict
	case appErrors.IsCode(err, appErrors.ErrNotFound.Code):
		outcome = OutcomeNotFound
	case appErrors.IsCode(err, appErrors.ErrConcurrentModification.Code):
		outcome = OutcomeRetry
	case appErrors.IsCode(err, appErrors.ErrValidation.Code), appErrors.IsCode(err, appErrors.ErrInvalidTimestamp.Code):
		outcome = OutcomeInvalid
	}
	s.opts.Metrics.RecordBooking(string(kind), op, outcome)
}

// afterWrite runs the post-commit side effects. None of them can fail the operation.
func (s *BookingService) afterWrite(ctx context.Context, eventType string, kind models.BookingKind, id int64, detail *models.BookingDetail, actor models.Actor, entry models.AuditLog) {
	if s.opts.Audit != nil {
		s.opts.Audit.Record(ctx, entry)
	} else {
		s.logger.Warn("audit recorder not configured", zap.String("title", entry.Title))
	}
	_ = s.opts.Cache.Invalidate(ctx, cachePrefixBookings+"*")
	if s.opts.Events != nil {
		s.opts.Events.Publish(ctx, newBookingEvent(eventType, kind, id, detail, actor))
	}
}

func (s *BookingService) assignSeats(ctx context.Context, exam *models.BookingDetail) *models.SeatingResult {
	if !s.opts.AssignExamSeats || s.opts.Seating == nil {
		return nil
	}
	result, err := s.opts.Seating.Assign(ctx, exam.ID, exam.BatchID, exam.VenueName, exam.VenueCapacity)
	if err != nil {
		s.logger.Warn("exam seat assignment failed", zap.Int64("exam_id", exam.ID), zap.Error(err))
		return nil
	}
	return result
}

// affectedStudents counts the students an event concerns: everyone for Campus scope, else the batch.
func (s *BookingService) affectedStudents(ctx context.Context, event *models.BookingDetail, campus bool) *int {
	if s.opts.Students == nil {
		return nil
	}
	count := 0
	var err error
	switch {
	case campus:
		count, err = s.opts.Students.Count(ctx, nil)
	case event.BatchID != nil:
		count, err = s.opts.Students.Count(ctx, event.BatchID)
	}
	if err != nil {
		s.logger.Warn("affected student count failed", zap.Int64("event_id", event.ID), zap.Error(err))
		return nil
	}
	return &count
}
