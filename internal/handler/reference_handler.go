package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/uni-scheduler-api/internal/dto"
	"github.com/noah-isme/uni-scheduler-api/internal/models"
	"github.com/noah-isme/uni-scheduler-api/pkg/response"
)

type referenceService interface {
	ListBatches(ctx context.Context) ([]models.Batch, error)
	GetBatch(ctx context.Context, id int64) (*models.Batch, error)
	CreateBatch(ctx context.Context, req dto.BatchRequest) (*models.Batch, error)
	UpdateBatch(ctx context.Context, id int64, req dto.BatchRequest) (*models.Batch, error)
	DeleteBatch(ctx context.Context, id int64) error
	ListDepartments(ctx context.Context) ([]models.Department, error)
	GetDepartment(ctx context.Context, id int64) (*models.Department, error)
	CreateDepartment(ctx context.Context, req dto.DepartmentRequest) (*models.Department, error)
	UpdateDepartment(ctx context.Context, id int64, req dto.DepartmentRequest) (*models.Department, error)
	DeleteDepartment(ctx context.Context, id int64) error
	ListBuildings(ctx context.Context) ([]models.Building, error)
	CreateBuilding(ctx context.Context, req dto.BuildingRequest) (*models.Building, error)
	UpdateBuilding(ctx context.Context, id int64, req dto.BuildingRequest) (*models.Building, error)
	DeleteBuilding(ctx context.Context, id int64) error
}

// ReferenceHandler serves batches, departments and buildings.
type ReferenceHandler struct {
	service referenceService
}

// NewReferenceHandler constructs the handler.
func NewReferenceHandler(svc referenceService) *ReferenceHandler {
	return &ReferenceHandler{service: svc}
}

// ListBatches godoc
// @Summary List batches
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /batches [get]
func (h *ReferenceHandler) ListBatches(c *gin.Context) {
	items, err := h.service.ListBatches(c.Request.Context())
	respond(c, http.StatusOK, items, err)
}

// GetBatch godoc
// @Summary Get batch
// @Tags Reference
// @Produce json
// @Param id path int true "Batch ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /batches/{id} [get]
func (h *ReferenceHandler) GetBatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	item, err := h.service.GetBatch(c.Request.Context(), id)
	respond(c, http.StatusOK, item, err)
}

// CreateBatch godoc
// @Summary Create batch
// @Description A batch labelled Campus makes its bookings conflict with every batch
// @Tags Reference
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BatchRequest true "Batch payload"
// @Success 201 {object} response.Envelope
// @Router /batches [post]
func (h *ReferenceHandler) CreateBatch(c *gin.Context) {
	var req dto.BatchRequest
	if !bindJSON(c, &req, "invalid batch payload") {
		return
	}
	item, err := h.service.CreateBatch(c.Request.Context(), req)
	respond(c, http.StatusCreated, item, err)
}

// UpdateBatch godoc
// @Summary Rename batch
// @Tags Reference
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Batch ID"
// @Param payload body dto.BatchRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Router /batches/{id} [put]
func (h *ReferenceHandler) UpdateBatch(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.BatchRequest
	if !bindJSON(c, &req, "invalid batch payload") {
		return
	}
	item, err := h.service.UpdateBatch(c.Request.Context(), id, req)
	respond(c, http.StatusOK, item, err)
}

// DeleteBatch godoc
// @Summary Delete batch
// @Tags Reference
// @Security BearerAuth
// @Param id path int true "Batch ID"
// @Success 200 {object} response.Envelope
// @Router /batches/{id} [delete]
func (h *ReferenceHandler) DeleteBatch(c *gin.Context) {
	h.delete(c, h.service.DeleteBatch)
}

// ListDepartments godoc
// @Summary List departments
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /departments [get]
func (h *ReferenceHandler) ListDepartments(c *gin.Context) {
	items, err := h.service.ListDepartments(c.Request.Context())
	respond(c, http.StatusOK, items, err)
}

// GetDepartment godoc
// @Summary Get department
// @Tags Reference
// @Produce json
// @Param id path int true "Department ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /departments/{id} [get]
func (h *ReferenceHandler) GetDepartment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	item, err := h.service.GetDepartment(c.Request.Context(), id)
	respond(c, http.StatusOK, item, err)
}

// CreateDepartment godoc
// @Summary Create department
// @Tags Reference
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.DepartmentRequest true "Department payload"
// @Success 201 {object} response.Envelope
// @Router /departments [post]
func (h *ReferenceHandler) CreateDepartment(c *gin.Context) {
	var req dto.DepartmentRequest
	if !bindJSON(c, &req, "invalid department payload") {
		return
	}
	item, err := h.service.CreateDepartment(c.Request.Context(), req)
	respond(c, http.StatusCreated, item, err)
}

// UpdateDepartment godoc
// @Summary Rename department
// @Tags Reference
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Department ID"
// @Param payload body dto.DepartmentRequest true "Department payload"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [put]
func (h *ReferenceHandler) UpdateDepartment(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.DepartmentRequest
	if !bindJSON(c, &req, "invalid department payload") {
		return
	}
	item, err := h.service.UpdateDepartment(c.Request.Context(), id, req)
	respond(c, http.StatusOK, item, err)
}

// DeleteDepartment godoc
// @Summary Delete department
// @Tags Reference
// @Security BearerAuth
// @Param id path int true "Department ID"
// @Success 200 {object} response.Envelope
// @Router /departments/{id} [delete]
func (h *ReferenceHandler) DeleteDepartment(c *gin.Context) {
	h.delete(c, h.service.DeleteDepartment)
}

// ListBuildings godoc
// @Summary List buildings
// @Tags Reference
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /buildings [get]
func (h *ReferenceHandler) ListBuildings(c *gin.Context) {
	items, err := h.service.ListBuildings(c.Request.Context())
	respond(c, http.StatusOK, items, err)
}

// CreateBuilding godoc
// @Summary Create building
// @Tags Reference
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.BuildingRequest true "Building payload"
// @Success 201 {object} response.Envelope
// @Router /buildings [post]
func (h *ReferenceHandler) CreateBuilding(c *gin.Context) {
	var req dto.BuildingRequest
	if !bindJSON(c, &req, "invalid building payload") {
		return
	}
	item, err := h.service.CreateBuilding(c.Request.Context(), req)
	respond(c, http.StatusCreated, item, err)
}

// UpdateBuilding godoc
// @Summary Rename building
// @Tags Reference
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Building ID"
// @Param payload body dto.BuildingRequest true "Building payload"
// @Success 200 {object} response.Envelope
// @Router /buildings/{id} [put]
func (h *ReferenceHandler) UpdateBuilding(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req dto.BuildingRequest
	if !bindJSON(c, &req, "invalid building payload") {
		return
	}
	item, err := h.service.UpdateBuilding(c.Request.Context(), id, req)
	respond(c, http.StatusOK, item, err)
}

// DeleteBuilding godoc
// @Summary Delete building
// @Tags Reference
// @Security BearerAuth
// @Param id path int true "Building ID"
// @Success 200 {object} response.Envelope
// @Router /buildings/{id} [delete]
func (h *ReferenceHandler) DeleteBuilding(c *gin.Context) {
	h.delete(c, h.service.DeleteBuilding)
}

func (h *ReferenceHandler) delete(c *gin.Context, remove func(ctx context.Context, id int64) error) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := remove(c.Request.Context(), id); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.DeleteResponse{Deleted: true})
}

func respond(c *gin.Context, status int, data interface{}, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, status, data)
}
