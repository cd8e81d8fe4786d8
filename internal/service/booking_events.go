package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
	"github.com/noah-isme/uni-scheduler-api/pkg/mq"
)

// Booking domain event routing keys.
const (
	BookingCreatedEvent = "booking.created"
	BookingUpdatedEvent = "booking.updated"
	BookingDeletedEvent = "booking.deleted"
)

// BookingEvent is published after a booking write commits.
type BookingEvent struct {
	ID           string             `json:"id"`
	Type         string             `json:"type"`
	Kind         models.BookingKind `json:"kind"`
	BookingID    int64              `json:"booking_id"`
	Title        string             `json:"title,omitempty"`
	VenueID      int64              `json:"venue_id,omitempty"`
	BatchID      *int64             `json:"batch_id,omitempty"`
	DepartmentID *int64             `json:"department_id,omitempty"`
	Start        *time.Time         `json:"start,omitempty"`
	End          *time.Time         `json:"end,omitempty"`
	Actor        string             `json:"actor"`
	OccurredAt   time.Time          `json:"occurred_at"`
}

func newBookingEvent(eventType string, kind models.BookingKind, id int64, detail *models.BookingDetail, actor models.Actor) BookingEvent {
	evt := BookingEvent{
		ID:         uuid.NewString(),
		Type:       eventType,
		Kind:       kind,
		BookingID:  id,
		Actor:      actor.DisplayName(),
		OccurredAt: time.Now().UTC(),
	}
	if detail != nil {
		start, end := detail.StartUTC, detail.EndUTC
		evt.Title = detail.Title
		evt.VenueID = detail.VenueID
		evt.BatchID = detail.BatchID
		evt.DepartmentID = detail.DepartmentID
		evt.Start = &start
		evt.End = &end
	}
	return evt
}

// EventPublisher forwards booking events to the message broker. Publishing is best effort.
type EventPublisher struct {
	publisher mq.Publisher
	logger    *zap.Logger
	timeout   time.Duration
}

// NewEventPublisher wraps a broker publisher; a nil publisher discards events.
func NewEventPublisher(publisher mq.Publisher, logger *zap.Logger) *EventPublisher {
	if publisher == nil {
		publisher = mq.NopPublisher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventPublisher{publisher: publisher, logger: logger, timeout: 3 * time.Second}
}

// Publish sends the event; failures are logged at warn level.
func (p *EventPublisher) Publish(ctx context.Context, evt BookingEvent) {
	if p == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()
	if err := p.publisher.PublishJSON(pubCtx, evt.Type, evt); err != nil {
		p.logger.Warn("booking event publish failed",
			zap.String("type", evt.Type),
			zap.String("kind", string(evt.Kind)),
			zap.Int64("booking_id", evt.BookingID),
			zap.Error(err))
	}
}
