package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/telvia/crm-api/internal/models"
	appErrors "github.com/telvia/crm-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string, firstLogin bool) error
	UpdateRefreshTokenHash(ctx context.Context, id string, hash *string) error
}

// CreateUserRequest represents payload for creating users.
type CreateUserRequest struct {
	Username string          `json:"username" validate:"required,min=3"`
	Email    string          `json:"email" validate:"required,email"`
	Role     models.UserRole `json:"role" validate:"required,oneof=manager chief_manager admin"`
	Password string          `json:"password" validate:"required,strongpw"`
}

// UpdateUserRequest payload for updating users.
type UpdateUserRequest struct {
	Email  string          `json:"email" validate:"required,email"`
	Role   models.UserRole `json:"role" validate:"required,oneof=manager chief_manager admin"`
	Active *bool           `json:"active"`
}

// ResetPasswordRequest payload for an administrative password reset.
type ResetPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required,strongpw"`
}

// UserService handles account management workflows.
type UserService struct {
	repo      userRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(repo userRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &UserService{repo: repo, audit: audit, validator: validate, logger: logger}
}

// List returns paginated users with a total count.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, total, nil
}

// Get returns a user by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// Create adds a new account. The account starts active with the first-login
// flag set so the owner must change the initial password.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest, actorID string) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid create user payload")
	}

	if _, err := s.repo.FindByUsername(ctx, req.Username); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "username already exists")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check username uniqueness")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        strings.ToLower(req.Email),
		Role:         req.Role,
		Active:       true,
		FirstLogin:   true,
		PasswordHash: string(passwordHash),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}

	s.recordUserAudit(actorID, models.AuditActionUserCreate, user.ID, map[string]interface{}{"username": user.Username, "role": user.Role})
	return user, nil
}

// Update modifies account attributes. Actors cannot change their own role,
// and deactivating an account invalidates its session.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest, actorID string) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid update payload")
	}

	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if actorID == id && req.Role != user.Role {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot change own role")
	}

	wasActive := user.Active

	user.Email = strings.ToLower(req.Email)
	user.Role = req.Role
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}

	if wasActive && !user.Active {
		if err := s.repo.UpdateRefreshTokenHash(ctx, id, nil); err != nil {
			s.logger.Warn("failed to clear refresh token on deactivation", zap.Error(err))
		}
	}

	s.recordUserAudit(actorID, models.AuditActionUserUpdate, user.ID, map[string]interface{}{"role": user.Role, "active": user.Active})
	return user, nil
}

// Delete removes an account. Actors cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, id string, actorID string) error {
	if actorID == id {
		return appErrors.Clone(appErrors.ErrForbidden, "cannot delete own account")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}

	s.recordUserAudit(actorID, models.AuditActionUserDelete, id, nil)
	return nil
}

// ResetPassword sets a new password on the target account and flags it for a
// forced change on next login. The active session is invalidated.
func (s *UserService) ResetPassword(ctx context.Context, id string, req ResetPasswordRequest, actorID string) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid reset password payload")
	}

	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	if err := s.repo.UpdatePassword(ctx, id, string(passwordHash), true); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset password")
	}

	if err := s.repo.UpdateRefreshTokenHash(ctx, id, nil); err != nil {
		s.logger.Warn("failed to clear refresh token on password reset", zap.Error(err))
	}

	s.recordUserAudit(actorID, models.AuditActionPasswordReset, id, nil)
	return nil
}

func (s *UserService) recordUserAudit(actorID, action, entityID string, payload map[string]interface{}) {
	if s.audit == nil {
		return
	}
	var metadata []byte
	if payload != nil {
		metadata, _ = json.Marshal(payload)
	}
	s.audit.Record(&models.AuditLog{
		UserID:   &actorID,
		Action:   action,
		Entity:   strPtr("users"),
		EntityID: &entityID,
		Metadata: metadata,
	})
}
