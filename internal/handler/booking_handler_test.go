package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-scheduler-api/internal/dto"
	"github.com/noah-isme/uni-scheduler-api/internal/middleware"
	"github.com/noah-isme/uni-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/uni-scheduler-api/pkg/errors"
)

type responseEnvelope struct {
	Data  json.RawMessage        `json:"data"`
	Error map[string]interface{} `json:"error"`
	Meta  map[string]interface{} `json:"meta"`
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var env responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	return env
}

func newTestContext(method, target, body string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	c.Request = req
	return c, rec
}

type fakeBookingSrv struct {
	result     *models.BookingResult
	detail     *models.BookingDetail
	list       []models.BookingDetail
	hit        bool
	err        error
	lastKind   models.BookingKind
	lastID     int64
	lastReq    dto.BookingRequest
	lastActor  models.Actor
	lastFilter models.BookingFilter
}

func (f *fakeBookingSrv) Create(_ context.Context, kind models.BookingKind, req dto.BookingRequest, actor models.Actor) (*models.BookingResult, error) {
	f.lastKind, f.lastReq, f.lastActor = kind, req, actor
	return f.result, f.err
}

func (f *fakeBookingSrv) Update(_ context.Context, kind models.BookingKind, id int64, req dto.BookingRequest, actor models.Actor) (*models.BookingResult, error) {
	f.lastKind, f.lastID, f.lastReq, f.lastActor = kind, id, req, actor
	return f.result, f.err
}

func (f *fakeBookingSrv) Delete(_ context.Context, kind models.BookingKind, id int64, actor models.Actor) error {
	f.lastKind, f.lastID, f.lastActor = kind, id, actor
	return f.err
}

func (f *fakeBookingSrv) Get(_ context.Context, kind models.BookingKind, id int64) (*models.BookingDetail, error) {
	f.lastKind, f.lastID = kind, id
	return f.detail, f.err
}

func (f *fakeBookingSrv) List(_ context.Context, kind models.BookingKind, filter models.BookingFilter) ([]models.BookingDetail, bool, error) {
	f.lastKind, f.lastFilter = kind, filter
	return f.list, f.hit, f.err
}

const bookingBody = `{"title":"Lecture","venueId":1,"batchId":11,"start":"2025-03-10T10:00:00Z","end":"2025-03-10T11:00:00Z"}`

func TestBookingHandlerCreateSuccess(t *testing.T) {
	srv := &fakeBookingSrv{result: &models.BookingResult{
		Booking:   models.BookingDetail{Booking: models.Booking{ID: 5, Kind: models.BookingKindExam, Title: "Lecture"}},
		Conflicts: models.ConflictSet{}.Normalize(),
	}}
	h := NewBookingHandler(srv, models.BookingKindExam)

	c, rec := newTestContext(http.MethodPost, "/exams", bookingBody)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: 3, FullName: "Registrar"})
	h.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, models.BookingKindExam, srv.lastKind)
	assert.Equal(t, "Lecture", srv.lastReq.Title)
	require.NotNil(t, srv.lastReq.BatchID)
	assert.Equal(t, int64(11), *srv.lastReq.BatchID)
	assert.Equal(t, "Registrar", srv.lastActor.DisplayName())

	var data struct {
		Booking   map[string]interface{} `json:"booking"`
		Conflicts map[string][]interface{} `json:"conflicts"`
	}
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, rec).Data, &data))
	assert.EqualValues(t, 5, data.Booking["id"])
	assert.Empty(t, data.Conflicts["venue"])
	assert.Contains(t, data.Conflicts, "batch")
}

func TestBookingHandlerCreateMalformedBody(t *testing.T) {
	srv := &fakeBookingSrv{}
	h := NewBookingHandler(srv, models.BookingKindEvent)

	c, rec := newTestContext(http.MethodPost, "/events", `{"title":`)
	h.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, appErrors.ErrValidation.Code, decodeEnvelope(t, rec).Error["code"])
	assert.Empty(t, srv.lastKind)
}

func TestBookingHandlerConflictCarriesBothLists(t *testing.T) {
	clash := models.BookingConflict{Kind: models.BookingKindEvent, ID: 9, Title: "Seminar", VenueID: 1}
	domainErr := &models.BookingConflictError{
		Type:      models.VerdictVenueConflict,
		Message:   "venue is already booked",
		Conflicts: models.ConflictSet{Venue: []models.BookingConflict{clash}},
	}
	srv := &fakeBookingSrv{err: appErrors.Wrap(domainErr, appErrors.ErrVenueConflict.Code, http.StatusConflict, domainErr.Message)}
	h := NewBookingHandler(srv, models.BookingKindEvent)

	c, rec := newTestContext(http.MethodPost, "/events", bookingBody)
	h.Create(c)

	require.Equal(t, http.StatusConflict, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "VENUE_CONFLICT", env.Error["code"])
	assert.Equal(t, "venue_conflict", env.Meta["conflict_type"])

	conflicts, ok := env.Meta["conflicts"].(map[string]interface{})
	require.True(t, ok)
	venue, ok := conflicts["venue"].([]interface{})
	require.True(t, ok)
	require.Len(t, venue, 1)
	assert.Equal(t, "Seminar", venue[0].(map[string]interface{})["title"])
	batch, ok := conflicts["batch"].([]interface{})
	require.True(t, ok, "batch list is present even when empty")
	assert.Empty(t, batch)
}

func TestBookingHandlerInvalidIDIsNotFound(t *testing.T) {
	srv := &fakeBookingSrv{}
	h := NewBookingHandler(srv, models.BookingKindEvent)

	for _, raw := range []string{"abc", "0", "-4"} {
		c, rec := newTestContext(http.MethodGet, "/events/"+raw, "")
		c.Params = gin.Params{{Key: "id", Value: raw}}
		h.Get(c)
		assert.Equal(t, http.StatusNotFound, rec.Code, raw)
	}
	assert.Zero(t, srv.lastID)
}

func TestBookingHandlerUpdateAndDelete(t *testing.T) {
	srv := &fakeBookingSrv{result: &models.BookingResult{}}
	h := NewBookingHandler(srv, models.BookingKindEvent)

	c, rec := newTestContext(http.MethodPut, "/events/7", bookingBody)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	h.Update(c)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), srv.lastID)
	assert.Equal(t, models.SystemActor, srv.lastActor.DisplayName())

	c, rec = newTestContext(http.MethodDelete, "/events/8", "")
	c.Params = gin.Params{{Key: "id", Value: "8"}}
	h.Delete(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(8), srv.lastID)
	assert.JSONEq(t, `{"deleted":true}`, string(decodeEnvelope(t, rec).Data))
}

func TestBookingHandlerDeleteMissing(t *testing.T) {
	srv := &fakeBookingSrv{err: appErrors.Clone(appErrors.ErrNotFound, "event not found")}
	h := NewBookingHandler(srv, models.BookingKindEvent)

	c, rec := newTestContext(http.MethodDelete, "/events/99", "")
	c.Params = gin.Params{{Key: "id", Value: "99"}}
	h.Delete(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", decodeEnvelope(t, rec).Error["code"])
}

func TestBookingHandlerListParsesFilters(t *testing.T) {
	srv := &fakeBookingSrv{list: []models.BookingDetail{}, hit: true}
	h := NewBookingHandler(srv, models.BookingKindEvent)

	c, rec := newTestContext(http.MethodGet, "/events?venueId=4&from=2025-03-10T08:00:00%2B02:00&limit=20", "")
	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, srv.lastFilter.VenueID)
	assert.Equal(t, int64(4), *srv.lastFilter.VenueID)
	require.NotNil(t, srv.lastFilter.From)
	assert.True(t, srv.lastFilter.From.Equal(time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)))
	assert.Nil(t, srv.lastFilter.To)
	assert.Equal(t, 20, srv.lastFilter.Limit)
	assert.Equal(t, true, decodeEnvelope(t, rec).Meta["cache_hit"])
}

func TestBookingHandlerListRejectsBadTimestamp(t *testing.T) {
	srv := &fakeBookingSrv{}
	h := NewBookingHandler(srv, models.BookingKindEvent)

	c, rec := newTestContext(http.MethodGet, "/events?to=yesterday", "")
	h.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_TIMESTAMP", decodeEnvelope(t, rec).Error["code"])
}
