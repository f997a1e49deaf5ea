package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/telvia/crm-api/internal/models"
	appErrors "github.com/telvia/crm-api/pkg/errors"
)

type mockAuthRepo struct {
	user              *models.User
	findErr           error
	updatePasswordErr error
	updateHashErr     error
	hashUpdates       int
}

func (m *mockAuthRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.user == nil || m.user.Username != username {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.user == nil || m.user.ID != id {
		return nil, sql.ErrNoRows
	}
	return m.user, nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, firstLogin bool) error {
	if m.updatePasswordErr != nil {
		return m.updatePasswordErr
	}
	if m.user != nil && m.user.ID == id {
		m.user.PasswordHash = passwordHash
		m.user.FirstLogin = firstLogin
	}
	return nil
}

func (m *mockAuthRepo) UpdateRefreshTokenHash(ctx context.Context, id string, hash *string) error {
	if m.updateHashErr != nil {
		return m.updateHashErr
	}
	m.hashUpdates++
	if m.user != nil && m.user.ID == id {
		m.user.RefreshTokenHash = hash
	}
	return nil
}

type mockAudit struct {
	logs []*models.AuditLog
}

func (m *mockAudit) Record(log *models.AuditLog) {
	m.logs = append(m.logs, log)
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessSecret:  "access-secret",
		RefreshSecret: "refresh-secret",
		AccessExpiry:  time.Hour,
		RefreshExpiry: 168 * time.Hour,
		Issuer:        "crm-api",
	}
}

func newTestUser(password string) *models.User {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return &models.User{
		ID:           "u1",
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Active:       true,
		FirstLogin:   true,
	}
}

func TestAuthServiceLoginSuccess(t *testing.T) {
	repo := &mockAuthRepo{user: newTestUser("admin123")}
	audit := &mockAudit{}
	svc := NewAuthService(repo, audit, NewValidator(), zap.NewNop(), testAuthConfig())

	res, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.True(t, res.FirstLogin)
	require.NotNil(t, repo.user.RefreshTokenHash)
	assert.True(t, digestMatches(*repo.user.RefreshTokenHash, res.RefreshToken))
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionLogin, audit.logs[0].Action)
}

func TestAuthServiceLoginWrongPassword(t *testing.T) {
	repo := &mockAuthRepo{user: newTestUser("admin123")}
	svc := NewAuthService(repo, nil, NewValidator(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginUnknownUser(t *testing.T) {
	repo := &mockAuthRepo{}
	svc := NewAuthService(repo, nil, NewValidator(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "ghost", Password: "admin123"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceLoginDeactivated(t *testing.T) {
	user := newTestUser("admin123")
	user.Active = false
	repo := &mockAuthRepo{user: user}
	svc := NewAuthService(repo, nil, NewValidator(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "admin123"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrAccountDeactivated.Code, appErr.Code)
	assert.Equal(t, 403, appErr.Status)
}

func TestAuthServiceRefreshRotates(t *testing.T) {
	repo := &mockAuthRepo{user: newTestUser("admin123")}
	svc := NewAuthService(repo, nil, NewValidator(), zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	res, err := svc.Refresh(context.Background(), models.RefreshRequest{UserID: "u1", RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	require.NotNil(t, repo.user.RefreshTokenHash)
	assert.True(t, digestMatches(*repo.user.RefreshTokenHash, res.RefreshToken))
	assert.Equal(t, 2, repo.hashUpdates)
}

func TestAuthServiceRefreshReplayFails(t *testing.T) {
	repo := &mockAuthRepo{user: newTestUser("admin123")}
	svc := NewAuthService(repo, nil, NewValidator(), zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	// Immediate rotation: the jti guarantees a distinct token even when both
	// are signed within the same second.
	rotated, err := svc.Refresh(context.Background(), models.RefreshRequest{UserID: "u1", RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	require.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	_, err = svc.Refresh(context.Background(), models.RefreshRequest{UserID: "u1", RefreshToken: login.RefreshToken})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidRefreshToken.Code, appErr.Code)
	assert.Equal(t, 401, appErr.Status)

	// The rotated token is still the live one.
	_, err = svc.Refresh(context.Background(), models.RefreshRequest{UserID: "u1", RefreshToken: rotated.RefreshToken})
	require.NoError(t, err)
}

func TestAuthServiceRefreshAfterLogoutFails(t *testing.T) {
	repo := &mockAuthRepo{user: newTestUser("admin123")}
	svc := NewAuthService(repo, nil, NewValidator(), zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), "u1"))
	require.Nil(t, repo.user.RefreshTokenHash)

	_, err = svc.Refresh(context.Background(), models.RefreshRequest{UserID: "u1", RefreshToken: login.RefreshToken})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidRefreshToken.Code, appErr.Code)
	assert.Equal(t, 401, appErr.Status)
}

func TestAuthServiceRefreshSubjectMismatch(t *testing.T) {
	repo := &mockAuthRepo{user: newTestUser("admin123")}
	svc := NewAuthService(repo, nil, NewValidator(), zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), models.RefreshRequest{UserID: "someone-else", RefreshToken: login.RefreshToken})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
	assert.Equal(t, 403, appErr.Status)
}

func TestAuthServiceRefreshSuperseded(t *testing.T) {
	repo := &mockAuthRepo{user: newTestUser("admin123")}
	svc := NewAuthService(repo, nil, NewValidator(), zap.NewNop(), testAuthConfig())

	login, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)

	stale := "0000000000000000000000000000000000000000000000000000000000000000"
	repo.user.RefreshTokenHash = &stale

	_, err = svc.Refresh(context.Background(), models.RefreshRequest{UserID: "u1", RefreshToken: login.RefreshToken})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidRefreshToken.Code, appErr.Code)
	assert.Equal(t, 401, appErr.Status)
}

func TestAuthServiceRefreshBadSignature(t *testing.T) {
	repo := &mockAuthRepo{user: newTestUser("admin123")}
	svc := NewAuthService(repo, nil, NewValidator(), zap.NewNop(), testAuthConfig())

	otherCfg := testAuthConfig()
	otherCfg.RefreshSecret = "another-secret"
	other := NewAuthService(repo, nil, NewValidator(), zap.NewNop(), otherCfg)
	forged, err := other.generateRefreshToken(repo.user)
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), models.RefreshRequest{UserID: "u1", RefreshToken: forged})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidRefreshToken.Code, appErr.Code)
	assert.Equal(t, 401, appErr.Status)
}

func TestAuthServiceLogoutClearsDigest(t *testing.T) {
	repo := &mockAuthRepo{user: newTestUser("admin123")}
	svc := NewAuthService(repo, nil, NewValidator(), zap.NewNop(), testAuthConfig())

	_, err := svc.Login(context.Background(), models.LoginRequest{Username: "admin", Password: "admin123"})
	require.NoError(t, err)
	require.NotNil(t, repo.user.RefreshTokenHash)

	require.NoError(t, svc.Logout(context.Background(), "u1"))
	assert.Nil(t, repo.user.RefreshTokenHash)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := &mockAuthRepo{user: newTestUser("admin123")}
	svc := NewAuthService(repo, nil, NewValidator(), zap.NewNop(), testAuthConfig())

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{CurrentPassword: "admin123", NewPassword: "N3w-secret!"})
	require.NoError(t, err)
	assert.False(t, repo.user.FirstLogin)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.user.PasswordHash), []byte("N3w-secret!")))
	assert.Nil(t, repo.user.RefreshTokenHash)
}

func TestAuthServiceChangePasswordWrongCurrent(t *testing.T) {
	repo := &mockAuthRepo{user: newTestUser("admin123")}
	svc := NewAuthService(repo, nil, NewValidator(), zap.NewNop(), testAuthConfig())

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "N3w-secret!"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAuthServiceChangePasswordWeak(t *testing.T) {
	repo := &mockAuthRepo{user: newTestUser("admin123")}
	svc := NewAuthService(repo, nil, NewValidator(), zap.NewNop(), testAuthConfig())

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{CurrentPassword: "admin123", NewPassword: "weakpass"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestValidateAccessToken(t *testing.T) {
	repo := &mockAuthRepo{user: newTestUser("admin123")}
	svc := NewAuthService(repo, nil, NewValidator(), zap.NewNop(), testAuthConfig())

	token, err := svc.generateAccessToken(repo.user)
	require.NoError(t, err)

	claims, err := svc.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.Subject)
	assert.Equal(t, models.RoleAdmin, claims.Role)
	assert.True(t, claims.FirstLogin)
	assert.True(t, claims.Active)
}
