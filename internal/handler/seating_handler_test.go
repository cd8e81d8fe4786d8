package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
)

type fakeSeatPlan struct {
	examID int64
	seats  []models.ExamSeat
}

func (f *fakeSeatPlan) Seats(_ context.Context, examID int64) ([]models.ExamSeat, error) {
	f.examID = examID
	return f.seats, nil
}

func TestSeatingHandlerListsPlan(t *testing.T) {
	srv := &fakeSeatPlan{seats: []models.ExamSeat{
		{ExamID: 14, StudentID: 100, SeatNo: "A001"},
		{ExamID: 14, StudentID: 101, SeatNo: "A002"},
	}}
	h := NewSeatingHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/exams/14/seats", "")
	c.Params = append(c.Params, paramID("14"))
	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, float64(2), env.Meta["count"])
	assert.Contains(t, string(env.Data), `"seat_no":"A002"`)
	assert.Equal(t, int64(14), srv.examID)
}

func TestSeatingHandlerRejectsBadID(t *testing.T) {
	srv := &fakeSeatPlan{}
	h := NewSeatingHandler(srv)

	c, rec := newTestContext(http.MethodGet, "/exams/x/seats", "")
	c.Params = append(c.Params, paramID("x"))
	h.List(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Zero(t, srv.examID)
}
