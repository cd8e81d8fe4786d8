package models

import (
	"fmt"
	"time"
)

// BookingConflict is an existing booking overlapping a candidate window.
type BookingConflict struct {
	Kind         BookingKind `db:"kind" json:"kind"`
	ID           int64       `db:"id" json:"id"`
	Title        string      `db:"title" json:"title"`
	VenueID      int64       `db:"venue_id" json:"venue_id"`
	DepartmentID *int64      `db:"department_id" json:"department_id,omitempty"`
	BatchID      *int64      `db:"batch_id" json:"batch_id,omitempty"`
	StartUTC     time.Time   `db:"start_utc" json:"start"`
	EndUTC       time.Time   `db:"end_utc" json:"end"`
}

// Ref returns the (kind, id) identity of the conflicting booking.
func (c BookingConflict) Ref() BookingRef {
	return BookingRef{Kind: c.Kind, ID: c.ID}
}

// ConflictSet groups overlaps by the dimension they were found on.
type ConflictSet struct {
	Venue []BookingConflict `json:"venue"`
	Batch []BookingConflict `json:"batch"`
}

// Normalize replaces nil lists so they serialise as empty arrays.
func (s ConflictSet) Normalize() ConflictSet {
	if s.Venue == nil {
		s.Venue = []BookingConflict{}
	}
	if s.Batch == nil {
		s.Batch = []BookingConflict{}
	}
	return s
}

// Empty reports whether no overlap was found on either dimension.
func (s ConflictSet) Empty() bool {
	return len(s.Venue) == 0 && len(s.Batch) == 0
}

// ConflictVerdict is the outcome of conflict resolution.
type ConflictVerdict string

const (
	VerdictOK            ConflictVerdict = "ok"
	VerdictVenueConflict ConflictVerdict = "venue_conflict"
	VerdictBatchConflict ConflictVerdict = "batch_conflict"
)

// ConflictReport is produced for every candidate booking, admitted or not.
type ConflictReport struct {
	Verdict       ConflictVerdict `json:"verdict"`
	Conflicts     ConflictSet     `json:"conflicts"`
	CampusScoped  bool            `json:"campus_scoped"`
	AllowConflict bool            `json:"venue_allows_conflict"`
}

// Blocking reports whether the verdict rejects the booking.
func (r *ConflictReport) Blocking() bool {
	return r != nil && r.Verdict != VerdictOK
}

// BookingConflictError is returned when a booking is rejected by conflict policy.
// Message is optional; the wrapping application error usually carries the reason.
type BookingConflictError struct {
	Type      ConflictVerdict `json:"type"`
	Message   string          `json:"message,omitempty"`
	Conflicts ConflictSet     `json:"conflicts"`
}

// Error implements the error interface for conflict errors.
func (e *BookingConflictError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%d venue, %d batch overlaps)", e.Type, len(e.Conflicts.Venue), len(e.Conflicts.Batch))
}
