package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-scheduler-api/internal/middleware"
	"github.com/noah-isme/uni-scheduler-api/internal/models"
	"github.com/noah-isme/uni-scheduler-api/pkg/response"
)

type seatPlanReader interface {
	Seats(ctx context.Context, examID int64) ([]models.ExamSeat, error)
}

// SeatingHandler exposes stored exam seat plans.
type SeatingHandler struct {
	service seatPlanReader
}

// NewSeatingHandler constructs the handler.
func NewSeatingHandler(svc seatPlanReader) *SeatingHandler {
	return &SeatingHandler{service: svc}
}

// List godoc
// @Summary Exam seat plan
// @Description Seats assigned when the exam was created, ordered by seat number
// @Tags Bookings
// @Produce json
// @Param id path int true "Exam ID"
// @Success 200 {object} response.Envelope
// @Router /exams/{id}/seats [get]
func (h *SeatingHandler) List(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	seats, err := h.service.Seats(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetResultCount(c, len(seats))
	response.JSON(c, http.StatusOK, seats, middleware.ExtractMeta(c))
}
