package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/telvia/crm-api/internal/middleware"
	"github.com/telvia/crm-api/internal/models"
	"github.com/telvia/crm-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type stubUserRepo struct {
	user *models.User
}

func (r *stubUserRepo) FindByUsername(_ context.Context, username string) (*models.User, error) {
	if r.user == nil || r.user.Username != username {
		return nil, sql.ErrNoRows
	}
	u := *r.user
	return &u, nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*models.User, error) {
	if r.user == nil || r.user.ID != id {
		return nil, sql.ErrNoRows
	}
	u := *r.user
	return &u, nil
}

func (r *stubUserRepo) UpdatePassword(_ context.Context, _ string, hash string, firstLogin bool) error {
	r.user.PasswordHash = hash
	r.user.FirstLogin = firstLogin
	return nil
}

func (r *stubUserRepo) UpdateRefreshTokenHash(_ context.Context, _ string, hash *string) error {
	r.user.RefreshTokenHash = hash
	return nil
}

func newAuthRouter(t *testing.T, repo *stubUserRepo) *gin.Engine {
	t.Helper()

	svc := service.NewAuthService(repo, nil, service.NewValidator(), nil, service.AuthConfig{
		AccessSecret:  "test_access_secret",
		RefreshSecret: "test_refresh_secret",
		AccessExpiry:  time.Hour,
		RefreshExpiry: 24 * time.Hour,
		Issuer:        "crm-test",
	})
	h := NewAuthHandler(svc)

	r := gin.New()
	r.POST("/api/v1/auth/login", h.Login)
	r.POST("/api/v1/auth/refresh", h.Refresh)

	secured := r.Group("/api/v1/auth")
	secured.Use(middleware.JWT(svc))
	secured.Use(middleware.AccountState())
	secured.POST("/logout", h.Logout)
	secured.POST("/change-password", h.ChangePassword)

	return r
}

func seedUser(t *testing.T, password string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return &models.User{
		ID:           "u1",
		Username:     "admin",
		Email:        "admin@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Active:       true,
	}
}

func postJSON(r *gin.Engine, path, token string, body interface{}) *httptest.ResponseRecorder {
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLoginEndpointIssuesTokenPair(t *testing.T) {
	repo := &stubUserRepo{user: seedUser(t, "Passw0rd!")}
	r := newAuthRouter(t, repo)

	w := postJSON(r, "/api/v1/auth/login", "", map[string]string{
		"username": "admin",
		"password": "Passw0rd!",
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var res models.LoginResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.False(t, res.FirstLogin)
	assert.NotNil(t, repo.user.RefreshTokenHash)
}

func TestLoginEndpointRejectsWrongPassword(t *testing.T) {
	repo := &stubUserRepo{user: seedUser(t, "Passw0rd!")}
	r := newAuthRouter(t, repo)

	w := postJSON(r, "/api/v1/auth/login", "", map[string]string{
		"username": "admin",
		"password": "nope",
	})

	require.Equal(t, http.StatusUnauthorized, w.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "INVALID_CREDENTIALS", envelope.Error.Code)
}

func TestRefreshEndpointRotatesTokens(t *testing.T) {
	repo := &stubUserRepo{user: seedUser(t, "Passw0rd!")}
	r := newAuthRouter(t, repo)

	login := postJSON(r, "/api/v1/auth/login", "", map[string]string{
		"username": "admin",
		"password": "Passw0rd!",
	})
	require.Equal(t, http.StatusCreated, login.Code)

	var loginRes models.LoginResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &loginRes))

	w := postJSON(r, "/api/v1/auth/refresh", "", map[string]string{
		"userId":       "u1",
		"refreshToken": loginRes.RefreshToken,
	})

	require.Equal(t, http.StatusCreated, w.Code)

	var res models.RefreshResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
}

func TestRefreshEndpointRejectsReplayedToken(t *testing.T) {
	repo := &stubUserRepo{user: seedUser(t, "Passw0rd!")}
	r := newAuthRouter(t, repo)

	login := postJSON(r, "/api/v1/auth/login", "", map[string]string{
		"username": "admin",
		"password": "Passw0rd!",
	})
	require.Equal(t, http.StatusCreated, login.Code)

	var loginRes models.LoginResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &loginRes))

	first := postJSON(r, "/api/v1/auth/refresh", "", map[string]string{
		"userId":       "u1",
		"refreshToken": loginRes.RefreshToken,
	})
	require.Equal(t, http.StatusCreated, first.Code)

	// The rotation above invalidated the login token, even though both
	// were issued within the same second.
	replay := postJSON(r, "/api/v1/auth/refresh", "", map[string]string{
		"userId":       "u1",
		"refreshToken": loginRes.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, replay.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(replay.Body.Bytes(), &envelope))
	assert.Equal(t, "INVALID_REFRESH_TOKEN", envelope.Error.Code)
}

func TestRefreshEndpointFailsAfterLogout(t *testing.T) {
	repo := &stubUserRepo{user: seedUser(t, "Passw0rd!")}
	r := newAuthRouter(t, repo)

	login := postJSON(r, "/api/v1/auth/login", "", map[string]string{
		"username": "admin",
		"password": "Passw0rd!",
	})
	require.Equal(t, http.StatusCreated, login.Code)

	var loginRes models.LoginResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &loginRes))

	logout := postJSON(r, "/api/v1/auth/logout", loginRes.AccessToken, nil)
	require.Equal(t, http.StatusCreated, logout.Code)

	w := postJSON(r, "/api/v1/auth/refresh", "", map[string]string{
		"userId":       "u1",
		"refreshToken": loginRes.RefreshToken,
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var envelope struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "INVALID_REFRESH_TOKEN", envelope.Error.Code)
}

func TestLogoutEndpointRequiresToken(t *testing.T) {
	repo := &stubUserRepo{user: seedUser(t, "Passw0rd!")}
	r := newAuthRouter(t, repo)

	w := postJSON(r, "/api/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestChangePasswordEndpointAllowedDuringFirstLogin(t *testing.T) {
	user := seedUser(t, "Passw0rd!")
	user.FirstLogin = true
	repo := &stubUserRepo{user: user}
	r := newAuthRouter(t, repo)

	login := postJSON(r, "/api/v1/auth/login", "", map[string]string{
		"username": "admin",
		"password": "Passw0rd!",
	})
	require.Equal(t, http.StatusCreated, login.Code)

	var loginRes models.LoginResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &loginRes))
	require.True(t, loginRes.FirstLogin)

	w := postJSON(r, "/api/v1/auth/change-password", loginRes.AccessToken, map[string]string{
		"currentPassword": "Passw0rd!",
		"newPassword":     "Brand-new1",
	})

	require.Equal(t, http.StatusCreated, w.Code)
	assert.False(t, repo.user.FirstLogin)
}

func TestLogoutEndpointClearsStoredDigest(t *testing.T) {
	repo := &stubUserRepo{user: seedUser(t, "Passw0rd!")}
	r := newAuthRouter(t, repo)

	login := postJSON(r, "/api/v1/auth/login", "", map[string]string{
		"username": "admin",
		"password": "Passw0rd!",
	})
	require.Equal(t, http.StatusCreated, login.Code)

	var loginRes models.LoginResponse
	require.NoError(t, json.Unmarshal(login.Body.Bytes(), &loginRes))
	require.NotNil(t, repo.user.RefreshTokenHash)

	w := postJSON(r, "/api/v1/auth/logout", loginRes.AccessToken, nil)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Nil(t, repo.user.RefreshTokenHash)
}
