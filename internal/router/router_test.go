package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/uni-scheduler-api/internal/handler"
	"github.com/noah-isme/uni-scheduler-api/internal/models"
	"github.com/noah-isme/uni-scheduler-api/internal/service"
	"github.com/noah-isme/uni-scheduler-api/pkg/config"
	appErrors "github.com/noah-isme/uni-scheduler-api/pkg/errors"
)

type rejectAll struct{}

func (rejectAll) ValidateToken(string) (*models.JWTClaims, error) {
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newTestEngine(env string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	return New(Options{
		Env:       env,
		APIPrefix: "/api",
		Tokens:    rejectAll{},
		Metrics:   metrics,
	}, Handlers{
		Auth:      handler.NewAuthHandler(nil),
		Events:    handler.NewBookingHandler(nil, models.BookingKindEvent),
		Exams:     handler.NewBookingHandler(nil, models.BookingKindExam),
		Seating:   handler.NewSeatingHandler(nil),
		Schedules: handler.NewScheduleHandler(nil, nil),
		Venues:    handler.NewVenueHandler(nil),
		Reference: handler.NewReferenceHandler(nil),
		Audit:     handler.NewAuditHandler(nil),
		Metrics:   handler.NewMetricsHandler(metrics, nil, nil),
	})
}

func serve(r http.Handler, method, path string) int {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w.Code
}

func TestWritesRequireToken(t *testing.T) {
	r := newTestEngine(config.EnvDevelopment)

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/api/events"},
		{http.MethodPut, "/api/exams/3"},
		{http.MethodDelete, "/api/events/3"},
		{http.MethodPost, "/api/venues"},
		{http.MethodDelete, "/api/batches/10"},
		{http.MethodPut, "/api/departments/20"},
		{http.MethodPost, "/api/buildings"},
		{http.MethodGet, "/api/me"},
	} {
		assert.Equal(t, http.StatusUnauthorized, serve(r, tc.method, tc.path), tc.method+" "+tc.path)
	}
}

func TestReadsArePublic(t *testing.T) {
	r := newTestEngine(config.EnvDevelopment)

	// an unparsable id is answered by the handler, which proves the route is reachable without a token
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/events/abc"))
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/exams/abc"))
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/exams/abc/seats"))
	assert.Equal(t, http.StatusNotFound, serve(r, http.MethodGet, "/api/venues/abc"))
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/health"))
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/api/health"))
	assert.Equal(t, http.StatusOK, serve(r, http.MethodGet, "/metrics"))
}

func TestDocsHiddenInProduction(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, serve(newTestEngine(config.EnvProduction), http.MethodGet, "/docs/index.html"))
}
