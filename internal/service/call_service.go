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

type callRepository interface {
	List(ctx context.Context, filter models.CallFilter) ([]models.Call, int, error)
	ListByClient(ctx context.Context, clientID string) ([]models.Call, error)
	Create(ctx context.Context, call *models.Call) error
}

type callClientRepository interface {
	FindByID(ctx context.Context, id string) (*models.Client, error)
	UpdateOutcome(ctx context.Context, id string, statusID, potential *string) error
}

// CreateCallRequest represents payload for logging a call.
type CreateCallRequest struct {
	ClientID     string            `json:"clientId" validate:"required"`
	Result       models.CallResult `json:"result" validate:"required,oneof=success no_answer refused callback"`
	Comment      *string           `json:"comment"`
	NewStatusID  *string           `json:"newStatusId"`
	NewPotential *string           `json:"newPotential"`
	DateTime     *time.Time        `json:"dateTime"`
}

// CallService records calls and applies their outcome to the client.
type CallService struct {
	repo      callRepository
	clients   callClientRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCallService creates an instance of CallService.
func NewCallService(repo callRepository, clients callClientRepository, validate *validator.Validate, logger *zap.Logger) *CallService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CallService{repo: repo, clients: clients, validator: validate, logger: logger}
}

// List returns calls matching the filter with a total count.
func (s *CallService) List(ctx context.Context, filter models.CallFilter) ([]models.Call, int, error) {
	calls, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list calls")
	}
	return calls, total, nil
}

// ListByClient returns the call history of one client, newest first.
func (s *CallService) ListByClient(ctx context.Context, clientID string) ([]models.Call, error) {
	calls, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list client calls")
	}
	return calls, nil
}

// Create logs a call for the acting manager. When the call carries a new
// status or potential, the client row is updated in the same flow.
func (s *CallService) Create(ctx context.Context, req CreateCallRequest, managerID string) (*models.Call, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid call payload")
	}

	if _, err := s.clients.FindByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}

	call := &models.Call{
		ClientID:     req.ClientID,
		ManagerID:    managerID,
		Result:       req.Result,
		Comment:      req.Comment,
		NewStatusID:  req.NewStatusID,
		NewPotential: req.NewPotential,
	}
	if req.DateTime != nil {
		call.DateTime = *req.DateTime
	}

	if err := s.repo.Create(ctx, call); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create call")
	}

	if req.NewStatusID != nil || req.NewPotential != nil {
		if err := s.clients.UpdateOutcome(ctx, req.ClientID, req.NewStatusID, req.NewPotential); err != nil {
			s.logger.Warn("failed to apply call outcome to client", zap.String("client_id", req.ClientID), zap.Error(err))
		}
	}

	return call, nil
}
