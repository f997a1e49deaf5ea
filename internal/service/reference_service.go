package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/telvia/crm-api/internal/models"
	appErrors "github.com/telvia/crm-api/pkg/errors"
)

type referenceRepository interface {
	ListStatuses(ctx context.Context) ([]models.ClientStatus, error)
	FindStatusByID(ctx context.Context, id string) (*models.ClientStatus, error)
	CreateStatus(ctx context.Context, status *models.ClientStatus) error
	UpdateStatus(ctx context.Context, status *models.ClientStatus) error
	DeleteStatus(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]models.Category, error)
	FindCategoryByID(ctx context.Context, id string) (*models.Category, error)
	CreateCategory(ctx context.Context, category *models.Category) error
	UpdateCategory(ctx context.Context, category *models.Category) error
	DeleteCategory(ctx context.Context, id string) error

	ListCities(ctx context.Context) ([]models.City, error)
	FindCityByID(ctx context.Context, id string) (*models.City, error)
	CreateCity(ctx context.Context, city *models.City) error
	UpdateCity(ctx context.Context, city *models.City) error
	DeleteCity(ctx context.Context, id string) error
}

// NamedRequest represents payload for statuses and categories.
type NamedRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description"`
}

// CityRequest represents payload for cities.
type CityRequest struct {
	Name   string  `json:"name" validate:"required"`
	Region *string `json:"region"`
}

// ReferenceService manages the client status, category, and city tables.
type ReferenceService struct {
	repo      referenceRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewReferenceService creates an instance of ReferenceService.
func NewReferenceService(repo referenceRepository, validate *validator.Validate, logger *zap.Logger) *ReferenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &ReferenceService{repo: repo, validator: validate, logger: logger}
}

// ListStatuses returns all client statuses.
func (s *ReferenceService) ListStatuses(ctx context.Context) ([]models.ClientStatus, error) {
	statuses, err := s.repo.ListStatuses(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list statuses")
	}
	return statuses, nil
}

// CreateStatus adds a client status.
func (s *ReferenceService) CreateStatus(ctx context.Context, req NamedRequest) (*models.ClientStatus, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	status := &models.ClientStatus{Name: req.Name, Description: req.Description}
	if err := s.repo.CreateStatus(ctx, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create status")
	}
	return status, nil
}

// UpdateStatus modifies a client status.
func (s *ReferenceService) UpdateStatus(ctx context.Context, id string, req NamedRequest) (*models.ClientStatus, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	status, err := s.repo.FindStatusByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "status not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status")
	}
	status.Name = req.Name
	status.Description = req.Description
	if err := s.repo.UpdateStatus(ctx, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update status")
	}
	return status, nil
}

// DeleteStatus removes a client status.
func (s *ReferenceService) DeleteStatus(ctx context.Context, id string) error {
	if _, err := s.repo.FindStatusByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "status not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load status")
	}
	if err := s.repo.DeleteStatus(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete status")
	}
	return nil
}

// ListCategories returns all categories.
func (s *ReferenceService) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.repo.ListCategories(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}
	return categories, nil
}

// CreateCategory adds a category.
func (s *ReferenceService) CreateCategory(ctx context.Context, req NamedRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}
	category := &models.Category{Name: req.Name, Description: req.Description}
	if err := s.repo.CreateCategory(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}
	return category, nil
}

// UpdateCategory modifies a category.
func (s *ReferenceService) UpdateCategory(ctx context.Context, id string, req NamedRequest) (*models.Category, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid category payload")
	}
	category, err := s.repo.FindCategoryByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	category.Name = req.Name
	category.Description = req.Description
	if err := s.repo.UpdateCategory(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}
	return category, nil
}

// DeleteCategory removes a category.
func (s *ReferenceService) DeleteCategory(ctx context.Context, id string) error {
	if _, err := s.repo.FindCategoryByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete category")
	}
	return nil
}

// ListCities returns all cities.
func (s *ReferenceService) ListCities(ctx context.Context) ([]models.City, error) {
	cities, err := s.repo.ListCities(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cities")
	}
	return cities, nil
}

// CreateCity adds a city.
func (s *ReferenceService) CreateCity(ctx context.Context, req CityRequest) (*models.City, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid city payload")
	}
	city := &models.City{Name: req.Name, Region: req.Region}
	if err := s.repo.CreateCity(ctx, city); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create city")
	}
	return city, nil
}

// UpdateCity modifies a city.
func (s *ReferenceService) UpdateCity(ctx context.Context, id string, req CityRequest) (*models.City, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid city payload")
	}
	city, err := s.repo.FindCityByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "city not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load city")
	}
	city.Name = req.Name
	city.Region = req.Region
	if err := s.repo.UpdateCity(ctx, city); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update city")
	}
	return city, nil
}

// DeleteCity removes a city.
func (s *ReferenceService) DeleteCity(ctx context.Context, id string) error {
	if _, err := s.repo.FindCityByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "city not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load city")
	}
	if err := s.repo.DeleteCity(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete city")
	}
	return nil
}
