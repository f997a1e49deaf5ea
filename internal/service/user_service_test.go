package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/telvia/crm-api/internal/models"
	appErrors "github.com/telvia/crm-api/pkg/errors"
)

type mockUserRepo struct {
	users       map[string]*models.User
	deleted     []string
	hashCleared []string
}

func newMockUserRepo(users ...*models.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		m.users[u.ID] = u
	}
	return m
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	for _, u := range m.users {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, firstLogin bool) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
		u.FirstLogin = firstLogin
	}
	return nil
}

func (m *mockUserRepo) UpdateRefreshTokenHash(ctx context.Context, id string, hash *string) error {
	if hash == nil {
		m.hashCleared = append(m.hashCleared, id)
	}
	if u, ok := m.users[id]; ok {
		u.RefreshTokenHash = hash
	}
	return nil
}

func TestUserServiceCreate(t *testing.T) {
	repo := newMockUserRepo()
	audit := &mockAudit{}
	svc := NewUserService(repo, audit, NewValidator(), zap.NewNop())

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "manager1",
		Email:    "Manager1@Example.com",
		Role:     models.RoleManager,
		Password: "Init-pass1",
	}, "admin-id")
	require.NoError(t, err)
	assert.True(t, user.Active)
	assert.True(t, user.FirstLogin)
	assert.Equal(t, "manager1@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("Init-pass1")))
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionUserCreate, audit.logs[0].Action)
}

func TestUserServiceCreateDuplicateUsername(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "u1", Username: "manager1"})
	svc := NewUserService(repo, nil, NewValidator(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Username: "manager1",
		Email:    "m1@example.com",
		Role:     models.RoleManager,
		Password: "Init-pass1",
	}, "admin-id")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateOwnRoleForbidden(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "u1", Username: "admin", Role: models.RoleAdmin, Active: true})
	svc := NewUserService(repo, nil, NewValidator(), zap.NewNop())

	_, err := svc.Update(context.Background(), "u1", UpdateUserRequest{
		Email: "admin@example.com",
		Role:  models.RoleManager,
	}, "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateDeactivationClearsSession(t *testing.T) {
	hash := "digest"
	repo := newMockUserRepo(&models.User{ID: "u2", Username: "manager1", Role: models.RoleManager, Active: true, RefreshTokenHash: &hash})
	svc := NewUserService(repo, nil, NewValidator(), zap.NewNop())

	inactive := false
	user, err := svc.Update(context.Background(), "u2", UpdateUserRequest{
		Email:  "m1@example.com",
		Role:   models.RoleManager,
		Active: &inactive,
	}, "admin-id")
	require.NoError(t, err)
	assert.False(t, user.Active)
	assert.Contains(t, repo.hashCleared, "u2")
	assert.Nil(t, repo.users["u2"].RefreshTokenHash)
}

func TestUserServiceDeleteSelfForbidden(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "u1", Username: "admin", Role: models.RoleAdmin})
	svc := NewUserService(repo, nil, NewValidator(), zap.NewNop())

	err := svc.Delete(context.Background(), "u1", "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestUserServiceDelete(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "u2", Username: "manager1"})
	svc := NewUserService(repo, nil, NewValidator(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "u2", "u1"))
	assert.Contains(t, repo.deleted, "u2")
}

func TestUserServiceResetPassword(t *testing.T) {
	hash := "digest"
	repo := newMockUserRepo(&models.User{ID: "u2", Username: "manager1", FirstLogin: false, RefreshTokenHash: &hash})
	audit := &mockAudit{}
	svc := NewUserService(repo, audit, NewValidator(), zap.NewNop())

	err := svc.ResetPassword(context.Background(), "u2", ResetPasswordRequest{NewPassword: "Reset-pw1!"}, "admin-id")
	require.NoError(t, err)
	assert.True(t, repo.users["u2"].FirstLogin)
	assert.Nil(t, repo.users["u2"].RefreshTokenHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["u2"].PasswordHash), []byte("Reset-pw1!")))
	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionPasswordReset, audit.logs[0].Action)
}

func TestUserServiceResetPasswordWeak(t *testing.T) {
	repo := newMockUserRepo(&models.User{ID: "u2", Username: "manager1"})
	svc := NewUserService(repo, nil, NewValidator(), zap.NewNop())

	err := svc.ResetPassword(context.Background(), "u2", ResetPasswordRequest{NewPassword: "short"}, "admin-id")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
