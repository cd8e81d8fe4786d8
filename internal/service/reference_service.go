package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/uni-scheduler-api/internal/dto"
	"github.com/noah-isme/uni-scheduler-api/internal/models"
	"github.com/noah-isme/uni-scheduler-api/pkg/database"
	appErrors "github.com/noah-isme/uni-scheduler-api/pkg/errors"
)

type batchRepository interface {
	List(ctx context.Context) ([]models.Batch, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Batch, error)
	Create(ctx context.Context, batch *models.Batch) error
	Update(ctx context.Context, batch *models.Batch) error
	Delete(ctx context.Context, id int64) error
}

type departmentRepository interface {
	List(ctx context.Context) ([]models.Department, error)
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Department, error)
	Create(ctx context.Context, department *models.Department) error
	Update(ctx context.Context, department *models.Department) error
	Delete(ctx context.Context, id int64) error
}

type buildingRepository interface {
	List(ctx context.Context) ([]models.Building, error)
	Create(ctx context.Context, building *models.Building) error
	Update(ctx context.Context, building *models.Building) error
	Delete(ctx context.Context, id int64) error
}

// ReferenceService manages the batches, departments and buildings bookings point at.
// Renaming a batch or department to Campus changes how future bookings are checked;
// existing bookings are left as they are.
type ReferenceService struct {
	batches     batchRepository
	departments departmentRepository
	buildings   buildingRepository
	cache       *CacheService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewReferenceService creates the service. cache may be nil.
func NewReferenceService(batches batchRepository, departments departmentRepository, buildings buildingRepository, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ReferenceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceService{
		batches:     batches,
		departments: departments,
		buildings:   buildings,
		cache:       cache,
		validator:   validate,
		logger:      logger,
	}
}

// ListBatches returns all batches.
func (s *ReferenceService) ListBatches(ctx context.Context) ([]models.Batch, error) {
	batches, err := s.batches.List(ctx)
	if err != nil {
		return nil, s.mapError("batch", "list", err)
	}
	if batches == nil {
		batches = []models.Batch{}
	}
	return batches, nil
}

// GetBatch returns one batch.
func (s *ReferenceService) GetBatch(ctx context.Context, id int64) (*models.Batch, error) {
	batch, err := s.batches.FindByID(ctx, nil, id)
	if err != nil {
		return nil, s.mapError("batch", "load", err)
	}
	return batch, nil
}

// CreateBatch adds a batch. Labels are unique.
func (s *ReferenceService) CreateBatch(ctx context.Context, req dto.BatchRequest) (*models.Batch, error) {
	req.Label = strings.TrimSpace(req.Label)
	if err := s.validate(req, "batch"); err != nil {
		return nil, err
	}
	batch := &models.Batch{Label: req.Label}
	if err := s.batches.Create(ctx, batch); err != nil {
		return nil, s.mapError("batch", "create", err)
	}
	return batch, nil
}

// UpdateBatch renames a batch.
func (s *ReferenceService) UpdateBatch(ctx context.Context, id int64, req dto.BatchRequest) (*models.Batch, error) {
	req.Label = strings.TrimSpace(req.Label)
	if err := s.validate(req, "batch"); err != nil {
		return nil, err
	}
	if err := s.batches.Update(ctx, &models.Batch{ID: id, Label: req.Label}); err != nil {
		return nil, s.mapError("batch", "update", err)
	}
	s.invalidateBookings(ctx)
	return s.GetBatch(ctx, id)
}

// DeleteBatch removes a batch; bookings that used it become unscoped.
func (s *ReferenceService) DeleteBatch(ctx context.Context, id int64) error {
	if err := s.batches.Delete(ctx, id); err != nil {
		return s.mapError("batch", "delete", err)
	}
	s.invalidateBookings(ctx)
	return nil
}

// ListDepartments returns all departments.
func (s *ReferenceService) ListDepartments(ctx context.Context) ([]models.Department, error) {
	departments, err := s.departments.List(ctx)
	if err != nil {
		return nil, s.mapError("department", "list", err)
	}
	if departments == nil {
		departments = []models.Department{}
	}
	return departments, nil
}

// GetDepartment returns one department.
func (s *ReferenceService) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	department, err := s.departments.FindByID(ctx, nil, id)
	if err != nil {
		return nil, s.mapError("department", "load", err)
	}
	return department, nil
}

// CreateDepartment adds a department. Names are unique.
func (s *ReferenceService) CreateDepartment(ctx context.Context, req dto.DepartmentRequest) (*models.Department, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate(req, "department"); err != nil {
		return nil, err
	}
	department := &models.Department{Name: req.Name}
	if err := s.departments.Create(ctx, department); err != nil {
		return nil, s.mapError("department", "create", err)
	}
	return department, nil
}

// UpdateDepartment renames a department.
func (s *ReferenceService) UpdateDepartment(ctx context.Context, id int64, req dto.DepartmentRequest) (*models.Department, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate(req, "department"); err != nil {
		return nil, err
	}
	if err := s.departments.Update(ctx, &models.Department{ID: id, Name: req.Name}); err != nil {
		return nil, s.mapError("department", "update", err)
	}
	s.invalidateBookings(ctx)
	return s.GetDepartment(ctx, id)
}

// DeleteDepartment removes a department; bookings that used it keep no department.
func (s *ReferenceService) DeleteDepartment(ctx context.Context, id int64) error {
	if err := s.departments.Delete(ctx, id); err != nil {
		return s.mapError("department", "delete", err)
	}
	s.invalidateBookings(ctx)
	return nil
}

// ListBuildings returns all buildings.
func (s *ReferenceService) ListBuildings(ctx context.Context) ([]models.Building, error) {
	buildings, err := s.buildings.List(ctx)
	if err != nil {
		return nil, s.mapError("building", "list", err)
	}
	if buildings == nil {
		buildings = []models.Building{}
	}
	return buildings, nil
}

// CreateBuilding adds a building.
func (s *ReferenceService) CreateBuilding(ctx context.Context, req dto.BuildingRequest) (*models.Building, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate(req, "building"); err != nil {
		return nil, err
	}
	building := &models.Building{Name: req.Name}
	if err := s.buildings.Create(ctx, building); err != nil {
		return nil, s.mapError("building", "create", err)
	}
	return building, nil
}

// UpdateBuilding renames a building.
func (s *ReferenceService) UpdateBuilding(ctx context.Context, id int64, req dto.BuildingRequest) (*models.Building, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validate(req, "building"); err != nil {
		return nil, err
	}
	building := &models.Building{ID: id, Name: req.Name}
	if err := s.buildings.Update(ctx, building); err != nil {
		return nil, s.mapError("building", "update", err)
	}
	_ = s.cache.Invalidate(ctx, cachePrefixVenues+"*")
	return building, nil
}

// DeleteBuilding removes a building; its venues are detached.
func (s *ReferenceService) DeleteBuilding(ctx context.Context, id int64) error {
	if err := s.buildings.Delete(ctx, id); err != nil {
		return s.mapError("building", "delete", err)
	}
	_ = s.cache.Invalidate(ctx, cachePrefixVenues+"*")
	return nil
}

func (s *ReferenceService) validate(req interface{}, resource string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid %s payload", resource))
	}
	return nil
}

func (s *ReferenceService) mapError(resource, op string, err error) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return appErrors.Clone(appErrors.ErrNotFound, resource+" not found")
	case database.IsUniqueViolation(err):
		return appErrors.Clone(appErrors.ErrDuplicate, resource+" already exists")
	}
	s.logger.Error("reference data operation failed", zap.String("resource", resource), zap.String("operation", op), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to %s %s", op, resource))
}

func (s *ReferenceService) invalidateBookings(ctx context.Context) {
	_ = s.cache.Invalidate(ctx, cachePrefixBookings+"*")
}
