package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/telvia/crm-api/internal/models"
	appErrors "github.com/telvia/crm-api/pkg/errors"
)

type taskRepository interface {
	List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error)
	FindByID(ctx context.Context, id string) (*models.Task, error)
	Create(ctx context.Context, task *models.Task) error
	Update(ctx context.Context, task *models.Task) error
	Delete(ctx context.Context, id string) error
}

type taskClientRepository interface {
	FindByID(ctx context.Context, id string) (*models.Client, error)
}

// CreateTaskRequest represents payload for creating a follow-up task.
type CreateTaskRequest struct {
	Title        string     `json:"title" validate:"required"`
	Description  *string    `json:"description"`
	ClientID     string     `json:"clientId" validate:"required"`
	AssignedToID string     `json:"assignedToId" validate:"required"`
	DueDate      *time.Time `json:"dueDate"`
}

// UpdateTaskRequest represents payload for updating a task.
type UpdateTaskRequest struct {
	Title        string            `json:"title" validate:"required"`
	Description  *string           `json:"description"`
	AssignedToID string            `json:"assignedToId" validate:"required"`
	Status       models.TaskStatus `json:"status" validate:"required,oneof=open in_progress done cancelled"`
	DueDate      *time.Time        `json:"dueDate"`
}

// TaskService handles follow-up task workflows.
type TaskService struct {
	repo      taskRepository
	clients   taskClientRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTaskService creates an instance of TaskService.
func NewTaskService(repo taskRepository, clients taskClientRepository, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TaskService{repo: repo, clients: clients, validator: validate, logger: logger}
}

// List returns tasks matching the filter with a total count.
func (s *TaskService) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	tasks, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list tasks")
	}
	return tasks, total, nil
}

// Get returns a task by ID.
func (s *TaskService) Get(ctx context.Context, id string) (*models.Task, error) {
	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	return task, nil
}

// Create adds a new task for an existing client.
func (s *TaskService) Create(ctx context.Context, req CreateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	if _, err := s.clients.FindByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}

	task := &models.Task{
		Title:        req.Title,
		Description:  req.Description,
		ClientID:     req.ClientID,
		AssignedToID: req.AssignedToID,
		DueDate:      req.DueDate,
	}

	if err := s.repo.Create(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create task")
	}
	return task, nil
}

// Update modifies a task.
func (s *TaskService) Update(ctx context.Context, id string, req UpdateTaskRequest) (*models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task payload")
	}

	task, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}

	task.Title = req.Title
	task.Description = req.Description
	task.AssignedToID = req.AssignedToID
	task.Status = req.Status
	task.DueDate = req.DueDate

	if err := s.repo.Update(ctx, task); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update task")
	}
	return task, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "task not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load task")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete task")
	}
	return nil
}
