package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-scheduler-api/internal/dto"
	"github.com/noah-isme/uni-scheduler-api/internal/middleware"
	"github.com/noah-isme/uni-scheduler-api/internal/models"
	"github.com/noah-isme/uni-scheduler-api/pkg/response"
)

type bookingService interface {
	Create(ctx context.Context, kind models.BookingKind, req dto.BookingRequest, actor models.Actor) (*models.BookingResult, error)
	Update(ctx context.Context, kind models.BookingKind, id int64, req dto.BookingRequest, actor models.Actor) (*models.BookingResult, error)
	Delete(ctx context.Context, kind models.BookingKind, id int64, actor models.Actor) error
	Get(ctx context.Context, kind models.BookingKind, id int64) (*models.BookingDetail, error)
	List(ctx context.Context, kind models.BookingKind, filter models.BookingFilter) ([]models.BookingDetail, bool, error)
}

// BookingHandler serves one booking kind; events and exams each get an instance.
type BookingHandler struct {
	service bookingService
	kind    models.BookingKind
}

// NewBookingHandler constructs a handler bound to kind.
func NewBookingHandler(svc bookingService, kind models.BookingKind) *BookingHandler {
	return &BookingHandler{service: svc, kind: kind}
}

// List godoc
// @Summary List bookings
// @Description Events or exams ordered by start time
// @Tags Bookings
// @Produce json
// @Param venueId query int false "Venue"
// @Param batchId query int false "Batch"
// @Param departmentId query int false "Department"
// @Param from query string false "Overlapping from (ISO-8601)"
// @Param to query string false "Overlapping until (ISO-8601)"
// @Param limit query int false "Maximum rows"
// @Success 200 {object} response.Envelope
// @Router /events [get]
// @Router /exams [get]
func (h *BookingHandler) List(c *gin.Context) {
	filter, ok := bookingFilter(c)
	if !ok {
		return
	}
	items, hit, err := h.service.List(c.Request.Context(), h.kind, filter)
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	middleware.SetResultCount(c, len(items))
	response.JSON(c, http.StatusOK, items, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get booking
// @Tags Bookings
// @Produce json
// @Param id path int true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [get]
// @Router /exams/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	item, err := h.service.Get(c.Request.Context(), h.kind, id)
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item)
}

// Create godoc
// @Summary Create booking
// @Description Checks venue and batch conflicts, then stores the booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events [post]
// @Router /exams [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req dto.BookingRequest
	if !bindJSON(c, &req, "invalid booking payload") {
		return
	}
	result, err := h.service.Create(c.Request.Context(), h.kind, req, actorFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.Created(c, result)
}

// Update godoc
// @Summary Update booking
// @Description Re-checks conflicts excluding the booking itself
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Param payload body dto.BookingRequest true "Booking payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{id} [put]
// @Router /exams/{id} [put]
func (h *BookingHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.BookingRequest
	if !bindJSON(c, &req, "invalid booking payload") {
		return
	}
	result, err := h.service.Update(c.Request.Context(), h.kind, id, req, actorFromContext(c))
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// Delete godoc
// @Summary Delete booking
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path int true "Booking ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id} [delete]
// @Router /exams/{id} [delete]
func (h *BookingHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), h.kind, id, actorFromContext(c)); err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DeleteResponse{Deleted: true})
}
