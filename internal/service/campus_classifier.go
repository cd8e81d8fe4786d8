package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
)

type batchLookup interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Batch, error)
}

type departmentLookup interface {
	FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Department, error)
}

// CampusClassifier decides whether a batch or department stands for the whole institution.
// Absent ids and missing rows are never Campus.
type CampusClassifier struct {
	batches     batchLookup
	departments departmentLookup
}

// NewCampusClassifier constructs the classifier.
func NewCampusClassifier(batches batchLookup, departments departmentLookup) *CampusClassifier {
	return &CampusClassifier{batches: batches, departments: departments}
}

// IsCampusBatch reports whether the batch label is Campus.
func (c *CampusClassifier) IsCampusBatch(ctx context.Context, exec sqlx.ExtContext, batchID *int64) (bool, error) {
	if batchID == nil {
		return false, nil
	}
	batch, err := c.batches.FindByID(ctx, exec, *batchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("classify batch %d: %w", *batchID, err)
	}
	return batch.IsCampus(), nil
}

// IsCampusDepartment reports whether the department name is Campus.
func (c *CampusClassifier) IsCampusDepartment(ctx context.Context, exec sqlx.ExtContext, departmentID *int64) (bool, error) {
	if departmentID == nil {
		return false, nil
	}
	department, err := c.departments.FindByID(ctx, exec, *departmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("classify department %d: %w", *departmentID, err)
	}
	return department.IsCampus(), nil
}

// Scope reports whether either reference escalates a booking to Campus scope.
func (c *CampusClassifier) Scope(ctx context.Context, exec sqlx.ExtContext, batchID, departmentID *int64) (bool, error) {
	campus, err := c.IsCampusBatch(ctx, exec, batchID)
	if err != nil || campus {
		return campus, err
	}
	return c.IsCampusDepartment(ctx, exec, departmentID)
}
