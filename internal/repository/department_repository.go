package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/uni-scheduler-api/internal/models"
)

// DepartmentRepository persists departments.
type DepartmentRepository struct {
	db *sqlx.DB
}

// NewDepartmentRepository constructs the repository.
func NewDepartmentRepository(db *sqlx.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

// List returns departments ordered by name.
func (r *DepartmentRepository) List(ctx context.Context) ([]models.Department, error) {
	var departments []models.Department
	if err := r.db.SelectContext(ctx, &departments, `SELECT id, name, created_at FROM departments ORDER BY name ASC`); err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	return departments, nil
}

// FindByID returns a department. A missing row returns sql.ErrNoRows.
func (r *DepartmentRepository) FindByID(ctx context.Context, exec sqlx.ExtContext, id int64) (*models.Department, error) {
	if exec == nil {
		exec = r.db
	}
	var department models.Department
	if err := sqlx.GetContext(ctx, exec, &department, `SELECT id, name, created_at FROM departments WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find department: %w", err)
	}
	return &department, nil
}

// Create inserts a department.
func (r *DepartmentRepository) Create(ctx context.Context, department *models.Department) error {
	row := r.db.QueryRowxContext(ctx, `INSERT INTO departments (name) VALUES ($1) RETURNING id, created_at`, department.Name)
	if err := row.Scan(&department.ID, &department.CreatedAt); err != nil {
		return fmt.Errorf("create department: %w", err)
	}
	return nil
}

// Update renames a department. A missing row returns sql.ErrNoRows.
func (r *DepartmentRepository) Update(ctx context.Context, department *models.Department) error {
	result, err := r.db.ExecContext(ctx, `UPDATE departments SET name = $1 WHERE id = $2`, department.Name, department.ID)
	if err != nil {
		return fmt.Errorf("update department: %w", err)
	}
	return requireAffected(result, "update department")
}

// Delete removes a department.
func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM departments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete department: %w", err)
	}
	return requireAffected(result, "delete department")
}
