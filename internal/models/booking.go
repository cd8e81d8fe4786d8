package models

import (
	"fmt"
	"strings"
	"time"
)

// BookingKind identifies which booking table a record lives in.
type BookingKind string

const (
	BookingKindEvent BookingKind = "event"
	BookingKindExam  BookingKind = "exam"
)

// BookingKinds lists every supported kind in a stable order.
func BookingKinds() []BookingKind {
	return []BookingKind{BookingKindEvent, BookingKindExam}
}

// ParseBookingKind validates a raw kind value.
func ParseBookingKind(raw string) (BookingKind, error) {
	kind := BookingKind(strings.ToLower(strings.TrimSpace(raw)))
	if !kind.Valid() {
		return "", fmt.Errorf("unknown booking kind %q", raw)
	}
	return kind, nil
}

// Valid reports whether the kind is one of the known kinds.
func (k BookingKind) Valid() bool {
	return k == BookingKindEvent || k == BookingKindExam
}

// Table returns the backing table. Unknown kinds return an empty string.
func (k BookingKind) Table() string {
	switch k {
	case BookingKindEvent:
		return "events"
	case BookingKindExam:
		return "exams"
	default:
		return ""
	}
}

// Label is the human readable singular form.
func (k BookingKind) Label() string {
	switch k {
	case BookingKindEvent:
		return "Event"
	case BookingKindExam:
		return "Exam"
	default:
		return string(k)
	}
}

// Booking is an event or exam occupying a venue for a time window.
type Booking struct {
	ID           int64       `db:"id" json:"id"`
	Kind         BookingKind `db:"kind" json:"kind"`
	Title        string      `db:"title" json:"title"`
	VenueID      int64       `db:"venue_id" json:"venue_id"`
	DepartmentID *int64      `db:"department_id" json:"department_id,omitempty"`
	BatchID      *int64      `db:"batch_id" json:"batch_id,omitempty"`
	StartUTC     time.Time   `db:"start_utc" json:"start"`
	EndUTC       time.Time   `db:"end_utc" json:"end"`
	CreatedBy    *int64      `db:"created_by" json:"created_by,omitempty"`
	UpdatedBy    *int64      `db:"updated_by" json:"updated_by,omitempty"`
	CreatedAt    time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at" json:"updated_at"`
}

// Ref returns the (kind, id) identity of the booking.
func (b Booking) Ref() BookingRef {
	return BookingRef{Kind: b.Kind, ID: b.ID}
}

// BookingDetail enriches a booking with the names of the referenced entities.
type BookingDetail struct {
	Booking
	VenueName      string  `db:"venue_name" json:"venue_name"`
	VenueCapacity  *int    `db:"venue_capacity" json:"venue_capacity,omitempty"`
	BatchName      *string `db:"batch_name" json:"batch_name,omitempty"`
	DepartmentName *string `db:"department_name" json:"department_name,omitempty"`
}

// BookingRef identifies a booking across both kinds. Ids are only unique per kind.
type BookingRef struct {
	Kind BookingKind `json:"kind"`
	ID   int64       `json:"id"`
}

func (r BookingRef) String() string {
	return fmt.Sprintf("%s#%d", r.Kind, r.ID)
}

// BookingFields carries the writable attributes of a booking in canonical form.
type BookingFields struct {
	Title        string
	VenueID      int64
	DepartmentID *int64
	BatchID      *int64
	StartUTC     time.Time
	EndUTC       time.Time
}

// BookingFilter narrows booking listings. From/To select bookings overlapping [From, To).
type BookingFilter struct {
	Kind         *BookingKind
	VenueID      *int64
	BatchID      *int64
	DepartmentID *int64
	From         *time.Time
	To           *time.Time
	Limit        int
}

// CacheKey renders a deterministic representation used for listing cache keys.
func (f BookingFilter) CacheKey() string {
	var b strings.Builder
	if f.Kind != nil {
		fmt.Fprintf(&b, "k=%s;", *f.Kind)
	}
	if f.VenueID != nil {
		fmt.Fprintf(&b, "v=%d;", *f.VenueID)
	}
	if f.BatchID != nil {
		fmt.Fprintf(&b, "b=%d;", *f.BatchID)
	}
	if f.DepartmentID != nil {
		fmt.Fprintf(&b, "d=%d;", *f.DepartmentID)
	}
	if f.From != nil {
		fmt.Fprintf(&b, "f=%d;", f.From.Unix())
	}
	if f.To != nil {
		fmt.Fprintf(&b, "t=%d;", f.To.Unix())
	}
	if f.Limit > 0 {
		fmt.Fprintf(&b, "l=%d;", f.Limit)
	}
	if b.Len() == 0 {
		return "all"
	}
	return b.String()
}

// BookingResult is returned by successful create and update operations.
type BookingResult struct {
	Booking          BookingDetail  `json:"booking"`
	Conflicts        ConflictSet    `json:"conflicts"`
	Seating          *SeatingResult `json:"seating,omitempty"`
	AffectedStudents *int           `json:"affected_students,omitempty"`
}
