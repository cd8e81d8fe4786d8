package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/uni-scheduler-api/internal/dto"
	"github.com/noah-isme/uni-scheduler-api/internal/models"
	appErrors "github.com/noah-isme/uni-scheduler-api/pkg/errors"
)

func paramID(value string) gin.Param {
	return gin.Param{Key: "id", Value: value}
}

type fakeVenueSrv struct {
	venues    []models.Venue
	hit       bool
	err       error
	lastID    int64
	lastReq   dto.VenueRequest
	deleteErr error
}

func (f *fakeVenueSrv) List(context.Context) ([]models.Venue, bool, error) {
	return f.venues, f.hit, f.err
}

func (f *fakeVenueSrv) Get(_ context.Context, id int64) (*models.Venue, error) {
	f.lastID = id
	if f.err != nil {
		return nil, f.err
	}
	return &models.Venue{ID: id, Name: "F403"}, nil
}

func (f *fakeVenueSrv) Create(_ context.Context, req dto.VenueRequest) (*models.Venue, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.Venue{ID: 1, Name: req.Name}, nil
}

func (f *fakeVenueSrv) Update(_ context.Context, id int64, req dto.VenueRequest) (*models.Venue, error) {
	f.lastID, f.lastReq = id, req
	return &models.Venue{ID: id, Name: req.Name}, f.err
}

func (f *fakeVenueSrv) Delete(_ context.Context, id int64) error {
	f.lastID = id
	return f.deleteErr
}

func TestVenueHandlerListReportsCacheHit(t *testing.T) {
	h := NewVenueHandler(&fakeVenueSrv{venues: []models.Venue{{ID: 1, Name: "F403"}}, hit: true})

	c, rec := newTestContext(http.MethodGet, "/venues", "")
	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, true, env.Meta["cache_hit"])
	assert.Contains(t, string(env.Data), "F403")
}

func TestVenueHandlerCreateDuplicate(t *testing.T) {
	srv := &fakeVenueSrv{err: appErrors.Clone(appErrors.ErrDuplicate, "venue name already exists")}
	h := NewVenueHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/venues", `{"name":"F403","capacity":40}`)
	h.Create(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "F403", srv.lastReq.Name)
}

func TestVenueHandlerDeleteInUse(t *testing.T) {
	srv := &fakeVenueSrv{deleteErr: appErrors.Clone(appErrors.ErrVenueInUse, "venue has bookings")}
	h := NewVenueHandler(srv)

	c, rec := newTestContext(http.MethodDelete, "/venues/4", "")
	c.Params = append(c.Params, paramID("4"))
	h.Delete(c)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "VENUE_IN_USE", decodeEnvelope(t, rec).Error["code"])
	assert.Equal(t, int64(4), srv.lastID)
}

type fakeReferenceSrv struct {
	batchReq  dto.BatchRequest
	deletedID int64
	err       error
}

func (f *fakeReferenceSrv) ListBatches(context.Context) ([]models.Batch, error) {
	return []models.Batch{{ID: 10, Label: "Campus"}}, f.err
}

func (f *fakeReferenceSrv) GetBatch(_ context.Context, id int64) (*models.Batch, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Batch{ID: id, Label: "CS-Year2"}, nil
}

func (f *fakeReferenceSrv) GetDepartment(_ context.Context, id int64) (*models.Department, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Department{ID: id, Name: "CAMPUS"}, nil
}

func (f *fakeReferenceSrv) CreateBatch(_ context.Context, req dto.BatchRequest) (*models.Batch, error) {
	f.batchReq = req
	return &models.Batch{ID: 12, Label: req.Label}, f.err
}

func (f *fakeReferenceSrv) UpdateBatch(_ context.Context, id int64, req dto.BatchRequest) (*models.Batch, error) {
	return &models.Batch{ID: id, Label: req.Label}, f.err
}

func (f *fakeReferenceSrv) DeleteBatch(_ context.Context, id int64) error {
	f.deletedID = id
	return f.err
}

func (f *fakeReferenceSrv) ListDepartments(context.Context) ([]models.Department, error) {
	return []models.Department{}, f.err
}

func (f *fakeReferenceSrv) CreateDepartment(_ context.Context, req dto.DepartmentRequest) (*models.Department, error) {
	return &models.Department{Name: req.Name}, f.err
}

func (f *fakeReferenceSrv) UpdateDepartment(_ context.Context, id int64, req dto.DepartmentRequest) (*models.Department, error) {
	return &models.Department{ID: id, Name: req.Name}, f.err
}

func (f *fakeReferenceSrv) DeleteDepartment(_ context.Context, id int64) error {
	f.deletedID = id
	return f.err
}

func (f *fakeReferenceSrv) ListBuildings(context.Context) ([]models.Building, error) {
	return []models.Building{}, f.err
}

func (f *fakeReferenceSrv) CreateBuilding(_ context.Context, req dto.BuildingRequest) (*models.Building, error) {
	return &models.Building{Name: req.Name}, f.err
}

func (f *fakeReferenceSrv) UpdateBuilding(_ context.Context, id int64, req dto.BuildingRequest) (*models.Building, error) {
	return &models.Building{ID: id, Name: req.Name}, f.err
}

func (f *fakeReferenceSrv) DeleteBuilding(_ context.Context, id int64) error {
	f.deletedID = id
	return f.err
}

func TestReferenceHandlerBatches(t *testing.T) {
	srv := &fakeReferenceSrv{}
	h := NewReferenceHandler(srv)

	c, rec := newTestContext(http.MethodPost, "/batches", `{"label":"CS-Year3"}`)
	h.CreateBatch(c)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "CS-Year3", srv.batchReq.Label)

	c, rec = newTestContext(http.MethodGet, "/batches", "")
	h.ListBatches(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, string(decodeEnvelope(t, rec).Data), "Campus")

	c, rec = newTestContext(http.MethodDelete, "/departments/21", "")
	c.Params = append(c.Params, paramID("21"))
	h.DeleteDepartment(c)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(21), srv.deletedID)
}

func TestReferenceHandlerInternalErrorIsOpaque(t *testing.T) {
	h := NewReferenceHandler(&fakeReferenceSrv{err: errors.New("connection reset by peer")})

	c, rec := newTestContext(http.MethodGet, "/buildings", "")
	h.ListBuildings(c)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection reset")
}

func TestReferenceHandlerGetMissingDepartment(t *testing.T) {
	h := NewReferenceHandler(&fakeReferenceSrv{err: appErrors.Clone(appErrors.ErrNotFound, "department not found")})

	c, rec := newTestContext(http.MethodGet, "/departments/77", "")
	c.Params = append(c.Params, paramID("77"))
	h.GetDepartment(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
