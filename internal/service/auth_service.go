package service

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/telvia/crm-api/internal/models"
	appErrors "github.com/telvia/crm-api/pkg/errors"
)

type authUserRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string, firstLogin bool) error
	UpdateRefreshTokenHash(ctx context.Context, id string, hash *string) error
}

type auditRecorder interface {
	Record(log *models.AuditLog)
}

// AuthConfig defines configuration for authentication flows.
type AuthConfig struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	Issuer        string
}

// AuthService provides login, refresh rotation, logout, and password change.
type AuthService struct {
	repo      authUserRepository
	audit     auditRecorder
	validator *validator.Validate
	logger    *zap.Logger
	config    AuthConfig
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(repo authUserRepository, audit auditRecorder, validate *validator.Validate, logger *zap.Logger, config AuthConfig) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AuthService{repo: repo, audit: audit, validator: validate, logger: logger, config: config}
}

// Login authenticates a user by username and password and issues a token pair.
func (s *AuthService) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid login payload")
	}

	user, err := s.repo.FindByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "invalid username or password")
	}

	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrAccountDeactivated, "account is deactivated")
	}

	accessToken, refreshToken, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.recordAudit(user.ID, models.AuditActionLogin, req.IP)

	return &models.LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		FirstLogin:   user.FirstLogin,
	}, nil
}

// Refresh validates and rotates a refresh token, returning a new token pair.
// The presented token must verify against the refresh secret, name the same
// subject as the request, and match the digest stored on the user row.
func (s *AuthService) Refresh(ctx context.Context, req models.RefreshRequest) (*models.RefreshResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid refresh payload")
	}

	claims, err := s.parseRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidRefreshToken, "refresh token is invalid or expired")
	}

	if claims.Subject != req.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "refresh token does not belong to user")
	}

	user, err := s.repo.FindByID(ctx, req.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidRefreshToken, "refresh token is invalid or expired")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if user.RefreshTokenHash == nil || !digestMatches(*user.RefreshTokenHash, req.RefreshToken) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRefreshToken, "refresh token has been superseded")
	}

	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrAccountDeactivated, "account is deactivated")
	}

	accessToken, refreshToken, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}

	s.recordAudit(user.ID, models.AuditActionRefresh, "")

	return &models.RefreshResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// Logout clears the stored refresh token digest, invalidating the session.
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if err := s.repo.UpdateRefreshTokenHash(ctx, userID, nil); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to clear refresh token")
	}

	s.recordAudit(userID, models.AuditActionLogout, "")
	return nil
}

// ChangePassword verifies the current password and sets a new one, clearing
// the first-login flag and the stored refresh token digest.
func (s *AuthService) ChangePassword(ctx context.Context, userID string, req models.ChangePasswordRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid change password payload")
	}

	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return appErrors.Clone(appErrors.ErrInvalidCredentials, "current password is incorrect")
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	if err := s.repo.UpdatePassword(ctx, userID, string(newHash), false); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update password")
	}

	if err := s.repo.UpdateRefreshTokenHash(ctx, userID, nil); err != nil {
		s.logger.Warn("failed to clear refresh token after password change", zap.Error(err))
	}

	s.recordAudit(userID, models.AuditActionPasswordChange, "")
	return nil
}

// ValidateAccessToken parses and validates an access token returning the claims.
func (s *AuthService) ValidateAccessToken(tokenString string) (*models.AccessClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.AccessClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.AccessSecret), nil
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.AccessClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}

	return claims, nil
}

// issueTokens signs a fresh access and refresh token pair and stores the
// refresh token digest on the user row, superseding any previous session.
func (s *AuthService) issueTokens(ctx context.Context, user *models.User) (string, string, error) {
	accessToken, err := s.generateAccessToken(user)
	if err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create access token")
	}

	refreshToken, err := s.generateRefreshToken(user)
	if err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create refresh token")
	}

	digest := tokenDigest(refreshToken)
	if err := s.repo.UpdateRefreshTokenHash(ctx, user.ID, &digest); err != nil {
		return "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist refresh token")
	}

	return accessToken, refreshToken, nil
}

func (s *AuthService) generateAccessToken(user *models.User) (string, error) {
	issuedAt := time.Now().UTC()
	claims := &models.AccessClaims{
		Username:   user.Username,
		Role:       user.Role,
		FirstLogin: user.FirstLogin,
		Active:     user.Active,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.AccessExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.AccessSecret))
}

func (s *AuthService) generateRefreshToken(user *models.User) (string, error) {
	issuedAt := time.Now().UTC()
	// The jti makes every issuance distinct even within the same second, so
	// rotation always stores a new digest and the previous token dies.
	claims := &models.RefreshClaims{
		Type: models.RefreshTokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    s.config.Issuer,
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(s.config.RefreshExpiry)),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			NotBefore: jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.RefreshSecret))
}

func (s *AuthService) parseRefreshToken(tokenString string) (*models.RefreshClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.RefreshClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.RefreshSecret), nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*models.RefreshClaims)
	if !ok || !token.Valid || claims.Type != models.RefreshTokenType {
		return nil, errors.New("invalid refresh token claims")
	}

	return claims, nil
}

func (s *AuthService) recordAudit(userID, action, ip string) {
	if s.audit == nil {
		return
	}
	s.audit.Record(&models.AuditLog{
		UserID: &userID,
		Action: action,
		Entity: strPtr("auth"),
		IP:     ip,
	})
}

// tokenDigest hashes a refresh token for storage. SHA-256 keeps the raw
// token out of the database while supporting JWT-length inputs.
func tokenDigest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func digestMatches(stored, token string) bool {
	digest := tokenDigest(token)
	return subtle.ConstantTimeCompare([]byte(stored), []byte(digest)) == 1
}

func strPtr(s string) *string {
	return &s
}
