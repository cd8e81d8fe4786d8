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

type venueService interface {
	List(ctx context.Context) ([]models.Venue, bool, error)
	Get(ctx context.Context, id int64) (*models.Venue, error)
	Create(ctx context.Context, req dto.VenueRequest) (*models.Venue, error)
	Update(ctx context.Context, id int64, req dto.VenueRequest) (*models.Venue, error)
	Delete(ctx context.Context, id int64) error
}

// VenueHandler handles venue endpoints.
type VenueHandler struct {
	service venueService
}

// NewVenueHandler constructs a venue handler.
func NewVenueHandler(svc venueService) *VenueHandler {
	return &VenueHandler{service: svc}
}

// List godoc
// @Summary List venues
// @Tags Venues
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /venues [get]
func (h *VenueHandler) List(c *gin.Context) {
	venues, hit, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	middleware.SetResultCount(c, len(venues))
	response.JSON(c, http.StatusOK, venues, middleware.ExtractMeta(c))
}

// Get godoc
// @Summary Get venue
// @Tags Venues
// @Produce json
// @Param id path int true "Venue ID"
// @Success 200 {object} response.Envelope
// @Router /venues/{id} [get]
func (h *VenueHandler) Get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	venue, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, venue)
}

// Create godoc
// @Summary Create venue
// @Tags Venues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.VenueRequest true "Venue payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /venues [post]
func (h *VenueHandler) Create(c *gin.Context) {
	var req dto.VenueRequest
	if !bindJSON(c, &req, "invalid venue payload") {
		return
	}
	venue, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, venue)
}

// Update godoc
// @Summary Update venue
// @Tags Venues
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Venue ID"
// @Param payload body dto.VenueRequest true "Venue payload"
// @Success 200 {object} response.Envelope
// @Router /venues/{id} [put]
func (h *VenueHandler) Update(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.VenueRequest
	if !bindJSON(c, &req, "invalid venue payload") {
		return
	}
	venue, err := h.service.Update(c.Request.Context(), id, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, venue)
}

// Delete godoc
// @Summary Delete venue
// @Description Refused with VENUE_IN_USE while events or exams reference the venue
// @Tags Venues
// @Produce json
// @Security BearerAuth
// @Param id path int true "Venue ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /venues/{id} [delete]
func (h *VenueHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DeleteResponse{Deleted: true})
}
