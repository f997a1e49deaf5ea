package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/telvia/crm-api/internal/models"
)

// ReferenceRepository provides database access for the small reference
// tables: client statuses, categories, and cities.
type ReferenceRepository struct {
	db *sqlx.DB
}

// NewReferenceRepository creates a new instance of ReferenceRepository.
func NewReferenceRepository(db *sqlx.DB) *ReferenceRepository {
	return &ReferenceRepository{db: db}
}

// ListStatuses returns all client statuses ordered by name.
func (r *ReferenceRepository) ListStatuses(ctx context.Context) ([]models.ClientStatus, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM client_statuses ORDER BY name ASC`
	var statuses []models.ClientStatus
	if err := r.db.SelectContext(ctx, &statuses, query); err != nil {
		return nil, fmt.Errorf("list client statuses: %w", err)
	}
	return statuses, nil
}

// FindStatusByID returns a client status by identifier.
func (r *ReferenceRepository) FindStatusByID(ctx context.Context, id string) (*models.ClientStatus, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM client_statuses WHERE id = $1 LIMIT 1`
	var status models.ClientStatus
	if err := r.db.GetContext(ctx, &status, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find client status: %w", err)
	}
	return &status, nil
}

// CreateStatus inserts a new client status.
func (r *ReferenceRepository) CreateStatus(ctx context.Context, status *models.ClientStatus) error {
	prepareRefRow(&status.ID, &status.CreatedAt, &status.UpdatedAt)
	const query = `INSERT INTO client_statuses (id, name, description, created_at, updated_at) VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, status); err != nil {
		return fmt.Errorf("create client status: %w", err)
	}
	return nil
}

// UpdateStatus updates a client status.
func (r *ReferenceRepository) UpdateStatus(ctx context.Context, status *models.ClientStatus) error {
	status.UpdatedAt = time.Now().UTC()
	const query = `UPDATE client_statuses SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, status); err != nil {
		return fmt.Errorf("update client status: %w", err)
	}
	return nil
}

// DeleteStatus removes a client status.
func (r *ReferenceRepository) DeleteStatus(ctx context.Context, id string) error {
	const query = `DELETE FROM client_statuses WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete client status: %w", err)
	}
	return nil
}

// ListCategories returns all categories ordered by name.
func (r *ReferenceRepository) ListCategories(ctx context.Context) ([]models.Category, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM categories ORDER BY name ASC`
	var categories []models.Category
	if err := r.db.SelectContext(ctx, &categories, query); err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// FindCategoryByID returns a category by identifier.
func (r *ReferenceRepository) FindCategoryByID(ctx context.Context, id string) (*models.Category, error) {
	const query = `SELECT id, name, description, created_at, updated_at FROM categories WHERE id = $1 LIMIT 1`
	var category models.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find category: %w", err)
	}
	return &category, nil
}

// CreateCategory inserts a new category.
func (r *ReferenceRepository) CreateCategory(ctx context.Context, category *models.Category) error {
	prepareRefRow(&category.ID, &category.CreatedAt, &category.UpdatedAt)
	const query = `INSERT INTO categories (id, name, description, created_at, updated_at) VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("create category: %w", err)
	}
	return nil
}

// UpdateCategory updates a category.
func (r *ReferenceRepository) UpdateCategory(ctx context.Context, category *models.Category) error {
	category.UpdatedAt = time.Now().UTC()
	const query = `UPDATE categories SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return nil
}

// DeleteCategory removes a category.
func (r *ReferenceRepository) DeleteCategory(ctx context.Context, id string) error {
	const query = `DELETE FROM categories WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return nil
}

// ListCities returns all cities ordered by name then region.
func (r *ReferenceRepository) ListCities(ctx context.Context) ([]models.City, error) {
	const query = `SELECT id, name, region, created_at, updated_at FROM cities ORDER BY name ASC, region ASC`
	var cities []models.City
	if err := r.db.SelectContext(ctx, &cities, query); err != nil {
		return nil, fmt.Errorf("list cities: %w", err)
	}
	return cities, nil
}

// FindCityByID returns a city by identifier.
func (r *ReferenceRepository) FindCityByID(ctx context.Context, id string) (*models.City, error) {
	const query = `SELECT id, name, region, created_at, updated_at FROM cities WHERE id = $1 LIMIT 1`
	var city models.City
	if err := r.db.GetContext(ctx, &city, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find city: %w", err)
	}
	return &city, nil
}

// CreateCity inserts a new city.
func (r *ReferenceRepository) CreateCity(ctx context.Context, city *models.City) error {
	prepareRefRow(&city.ID, &city.CreatedAt, &city.UpdatedAt)
	const query = `INSERT INTO cities (id, name, region, created_at, updated_at) VALUES (:id, :name, :region, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, city); err != nil {
		return fmt.Errorf("create city: %w", err)
	}
	return nil
}

// UpdateCity updates a city.
func (r *ReferenceRepository) UpdateCity(ctx context.Context, city *models.City) error {
	city.UpdatedAt = time.Now().UTC()
	const query = `UPDATE cities SET name = :name, region = :region, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, city); err != nil {
		return fmt.Errorf("update city: %w", err)
	}
	return nil
}

// DeleteCity removes a city.
func (r *ReferenceRepository) DeleteCity(ctx context.Context, id string) error {
	const query = `DELETE FROM cities WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete city: %w", err)
	}
	return nil
}

func prepareRefRow(id *string, createdAt, updatedAt *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	now := time.Now().UTC()
	if createdAt.IsZero() {
		*createdAt = now
	}
	*updatedAt = now
}
