package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-scheduler-api/internal/dto"
	"github.com/noah-isme/uni-scheduler-api/internal/middleware"
	"github.com/noah-isme/uni-scheduler-api/internal/models"
	"github.com/noah-isme/uni-scheduler-api/internal/service"
	appErrors "github.com/noah-isme/uni-scheduler-api/pkg/errors"
	"github.com/noah-isme/uni-scheduler-api/pkg/response"
)

type scheduleService interface {
	ListAll(ctx context.Context, filter models.BookingFilter) ([]models.BookingDetail, bool, error)
	CheckConflicts(ctx context.Context, req dto.BookingRequest, exclude *models.BookingRef) (*models.ConflictReport, error)
}

type scheduleExporter interface {
	Export(ctx context.Context, filter models.BookingFilter, format string) (*service.ExportFile, error)
}

// ConflictCheckRequest is a prospective booking, optionally naming the booking being edited.
type ConflictCheckRequest struct {
	dto.BookingRequest
	ExcludeKind string `json:"excludeKind"`
	ExcludeID   int64  `json:"excludeId"`
}

// ScheduleHandler exposes the unified schedule across events and exams.
type ScheduleHandler struct {
	bookings scheduleService
	exports  scheduleExporter
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(bookings scheduleService, exports scheduleExporter) *ScheduleHandler {
	return &ScheduleHandler{bookings: bookings, exports: exports}
}

// List godoc
// @Summary Unified schedule
// @Description Events and exams together ordered by start time
// @Tags Schedules
// @Produce json
// @Param kind query string false "event or exam"
// @Param venueId query int false "Venue"
// @Param batchId query int false "Batch"
// @Param departmentId query int false "Department"
// @Param from query string false "Overlapping from (ISO-8601)"
// @Param to query string false "Overlapping until (ISO-8601)"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	filter, ok := bookingFilter(c)
	if !ok {
		return
	}
	items, hit, err := h.bookings.ListAll(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	middleware.SetResultCount(c, len(items))
	response.JSON(c, http.StatusOK, items, middleware.ExtractMeta(c))
}

// Check godoc
// @Summary Dry-run conflict check
// @Description Evaluates a prospective booking without storing it
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body ConflictCheckRequest true "Prospective booking"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/check [post]
func (h *ScheduleHandler) Check(c *gin.Context) {
	var req ConflictCheckRequest
	if !bindJSON(c, &req, "invalid conflict check payload") {
		return
	}
	var exclude *models.BookingRef
	if req.ExcludeKind != "" || req.ExcludeID != 0 {
		kind, err := models.ParseBookingKind(req.ExcludeKind)
		if err != nil || req.ExcludeID <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "excludeKind and excludeId must name an existing booking"))
			return
		}
		exclude = &models.BookingRef{Kind: kind, ID: req.ExcludeID}
	}
	report, err := h.bookings.CheckConflicts(c.Request.Context(), req.BookingRequest, exclude)
	if err != nil {
		writeError(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report)
}

// Export godoc
// @Summary Export schedule
// @Tags Schedules
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf" Enums(csv, pdf)
// @Param kind query string false "event or exam"
// @Param venueId query int false "Venue"
// @Param batchId query int false "Batch"
// @Param from query string false "Overlapping from (ISO-8601)"
// @Param to query string false "Overlapping until (ISO-8601)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /schedules/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid export parameters"))
		return
	}
	filter, err := filterFromQuery(query.BookingListQuery)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.exports.Export(c.Request.Context(), filter, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("X-Total-Count", strconv.Itoa(file.Rows))
	response.Binary(c, file.ContentType, file.Filename, file.Payload)
}
