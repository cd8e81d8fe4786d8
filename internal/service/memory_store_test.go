package service

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
	"github.com/noah-isme/uni-scheduler-api/pkg/timeutil"
)

// memoryStore mimics the booking repository over in-memory tables.
type memoryStore struct {
	mu          sync.Mutex
	venues      map[int64]models.VenueLock
	batches     map[int64]models.Batch
	departments map[int64]models.Department
	bookings    []models.Booking
	nextID      map[models.BookingKind]int64

	insertErr error
	lockCalls int
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		venues:      map[int64]models.VenueLock{},
		batches:     map[int64]models.Batch{},
		departments: map[int64]models.Department{},
		nextID:      map[models.BookingKind]int64{},
	}
}

func (m *memoryStore) addVenue(id int64, name string, allowConflict bool) {
	capacity := 2
	m.venues[id] = models.VenueLock{ID: id, Name: name, Capacity: &capacity, AllowConflict: allowConflict}
}

func (m *memoryStore) addBatch(id int64, label string) {
	m.batches[id] = models.Batch{ID: id, Label: label}
}

func (m *memoryStore) addDepartment(id int64, name string) {
	m.departments[id] = models.Department{ID: id, Name: name}
}

func (m *memoryStore) isCampus(b models.Booking) bool {
	if b.BatchID != nil && m.batches[*b.BatchID].IsCampus() {
		return true
	}
	return b.DepartmentID != nil && m.departments[*b.DepartmentID].IsCampus()
}

func (m *memoryStore) scan(window timeutil.Window, exclude *models.BookingRef, match func(models.Booking) bool) []models.BookingConflict {
	var out []models.BookingConflict
	for _, b := range m.bookings {
		if exclude != nil && b.Ref() == *exclude {
			continue
		}
		if !window.Overlaps(timeutil.Window{Start: b.StartUTC, End: b.EndUTC}) || !match(b) {
			continue
		}
		out = append(out, models.BookingConflict{
			Kind: b.Kind, ID: b.ID, Title: b.Title, VenueID: b.VenueID,
			DepartmentID: b.DepartmentID, BatchID: b.BatchID, StartUTC: b.StartUTC, EndUTC: b.EndUTC,
		})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartUTC.Before(out[j].StartUTC) })
	return out
}

func (m *memoryStore) FindVenueOverlaps(_ context.Context, _ sqlx.ExtContext, venueID int64, window timeutil.Window, exclude *models.BookingRef) ([]models.BookingConflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scan(window, exclude, func(b models.Booking) bool { return b.VenueID == venueID }), nil
}

func (m *memoryStore) FindBatchOverlaps(_ context.Context, _ sqlx.ExtContext, batchID int64, window timeutil.Window, includeUnscoped bool, exclude *models.BookingRef) ([]models.BookingConflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scan(window, exclude, func(b models.Booking) bool {
		switch {
		case b.BatchID != nil && *b.BatchID == batchID:
			return true
		case m.isCampus(b):
			return true
		default:
			return includeUnscoped && b.BatchID == nil
		}
	}), nil
}

func (m *memoryStore) FindCampusOverlaps(_ context.Context, _ sqlx.ExtContext, window timeutil.Window, exclude *models.BookingRef) ([]models.BookingConflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scan(window, exclude, m.isCampus), nil
}

func (m *memoryStore) FindAllInWindow(_ context.Context, _ sqlx.ExtContext, window timeutil.Window, exclude *models.BookingRef) ([]models.BookingConflict, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scan(window, exclude, func(models.Booking) bool { return true }), nil
}

func (m *memoryStore) LockVenue(_ context.Context, _ sqlx.ExtContext, venueID int64) (*models.VenueLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lockCalls++
	venue, ok := m.venues[venueID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &venue, nil
}

func (m *memoryStore) Insert(_ context.Context, _ sqlx.ExtContext, kind models.BookingKind, fields models.BookingFields, actorID *int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.nextID[kind]++
	id := m.nextID[kind]
	now := time.Now().UTC()
	m.bookings = append(m.bookings, models.Booking{
		ID: id, Kind: kind, Title: fields.Title, VenueID: fields.VenueID,
		DepartmentID: fields.DepartmentID, BatchID: fields.BatchID,
		StartUTC: fields.StartUTC, EndUTC: fields.EndUTC,
		CreatedBy: actorID, UpdatedBy: actorID, CreatedAt: now, UpdatedAt: now,
	})
	return id, nil
}

func (m *memoryStore) Update(_ context.Context, _ sqlx.ExtContext, kind models.BookingKind, id int64, fields models.BookingFields, actorID *int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.bookings {
		if b.Kind == kind && b.ID == id {
			b.Title, b.VenueID, b.DepartmentID, b.BatchID = fields.Title, fields.VenueID, fields.DepartmentID, fields.BatchID
			b.StartUTC, b.EndUTC, b.UpdatedBy = fields.StartUTC, fields.EndUTC, actorID
			m.bookings[i] = b
			return nil
		}
	}
	return sql.ErrNoRows
}

func (m *memoryStore) Delete(_ context.Context, _ sqlx.ExtContext, kind models.BookingKind, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, b := range m.bookings {
		if b.Kind == kind && b.ID == id {
			m.bookings = append(m.bookings[:i], m.bookings[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryStore) FindByID(_ context.Context, _ sqlx.ExtContext, kind models.BookingKind, id int64) (*models.BookingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.Kind == kind && b.ID == id {
			detail := m.detail(b)
			return &detail, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *memoryStore) detail(b models.Booking) models.BookingDetail {
	venue := m.venues[b.VenueID]
	detail := models.BookingDetail{Booking: b, VenueName: venue.Name, VenueCapacity: venue.Capacity}
	if b.BatchID != nil {
		label := m.batches[*b.BatchID].Label
		detail.BatchName = &label
	}
	if b.DepartmentID != nil {
		name := m.departments[*b.DepartmentID].Name
		detail.DepartmentName = &name
	}
	return detail
}

func (m *memoryStore) List(_ context.Context, filter models.BookingFilter) ([]models.BookingDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.BookingDetail
	for _, b := range m.bookings {
		if filter.Kind != nil && b.Kind != *filter.Kind {
			continue
		}
		if filter.VenueID != nil && b.VenueID != *filter.VenueID {
			continue
		}
		if filter.BatchID != nil && (b.BatchID == nil || *b.BatchID != *filter.BatchID) {
			continue
		}
		out = append(out, m.detail(b))
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartUTC.Before(out[j].StartUTC) })
	return out, nil
}

type memoryBatches struct{ store *memoryStore }

func (l memoryBatches) FindByID(_ context.Context, _ sqlx.ExtContext, id int64) (*models.Batch, error) {
	batch, ok := l.store.batches[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &batch, nil
}

type memoryDepartments struct{ store *memoryStore }

func (l memoryDepartments) FindByID(_ context.Context, _ sqlx.ExtContext, id int64) (*models.Department, error) {
	department, ok := l.store.departments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &department, nil
}

// fakeTx runs the unit of work directly and counts outcomes.
type fakeTx struct {
	commits   int
	rollbacks int
	isolation sql.IsolationLevel
}

func (f *fakeTx) WithinTx(_ context.Context, isolation sql.IsolationLevel, fn func(tx *sqlx.Tx) error) error {
	f.isolation = isolation
	if err := fn(nil); err != nil {
		f.rollbacks++
		return err
	}
	f.commits++
	return nil
}

type recordingAudit struct {
	mu      sync.Mutex
	entries []models.AuditLog
}

func (r *recordingAudit) Record(_ context.Context, entry models.AuditLog) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
}

type recordingEvents struct {
	events []BookingEvent
}

func (r *recordingEvents) Publish(_ context.Context, evt BookingEvent) {
	r.events = append(r.events, evt)
}
