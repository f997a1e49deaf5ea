package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/telvia/crm-api/internal/models"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func claimsFor(user *models.User) *models.AccessClaims {
	return &models.AccessClaims{
		Username:   user.Username,
		Role:       user.Role,
		FirstLogin: user.FirstLogin,
		Active:     user.Active,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject: user.ID,
		},
	}
}

func performWithClaims(claims *models.AccessClaims, path string, handlers ...gin.HandlerFunc) *httptest.ResponseRecorder {
	router := gin.New()
	if claims != nil {
		router.Use(func(c *gin.Context) {
			c.Set(ContextUserKey, claims)
			c.Next()
		})
	}
	router.Use(handlers...)
	router.POST(path, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, nil)
	router.ServeHTTP(w, req)
	return w
}

func TestAccountStateDeactivated(t *testing.T) {
	claims := claimsFor(&models.User{ID: "u1", Active: false})
	w := performWithClaims(claims, "/api/v1/clients", AccountState())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "ACCOUNT_DEACTIVATED")
}

func TestAccountStateFirstLoginBlocked(t *testing.T) {
	claims := claimsFor(&models.User{ID: "u1", Active: true, FirstLogin: true})
	w := performWithClaims(claims, "/api/v1/clients", AccountState())
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "PASSWORD_CHANGE_REQUIRED")
}

func TestAccountStateFirstLoginAllowlist(t *testing.T) {
	claims := claimsFor(&models.User{ID: "u1", Active: true, FirstLogin: true})
	for _, path := range []string{"/api/v1/auth/change-password", "/api/v1/auth/refresh", "/api/v1/auth/logout"} {
		w := performWithClaims(claims, path, AccountState())
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestAccountStatePassesActiveUser(t *testing.T) {
	claims := claimsFor(&models.User{ID: "u1", Active: true})
	w := performWithClaims(claims, "/api/v1/clients", AccountState())
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesForbidden(t *testing.T) {
	claims := claimsFor(&models.User{ID: "u1", Active: true, Role: models.RoleManager})
	w := performWithClaims(claims, "/api/v1/users", RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRolesAllowed(t *testing.T) {
	claims := claimsFor(&models.User{ID: "u1", Active: true, Role: models.RoleChiefManager})
	w := performWithClaims(claims, "/api/v1/users", RequireRoles(models.RoleChiefManager, models.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRolesDefersWithoutIdentity(t *testing.T) {
	w := performWithClaims(nil, "/api/v1/users", RequireRoles(models.RoleAdmin))
	assert.Equal(t, http.StatusOK, w.Code)
}

type stubCounter struct {
	count int64
	err   error
}

func (s *stubCounter) Incr(ctx context.Context, key string, window time.Duration) (int64, error) {
	if s.err != nil {
		return 0, s.err
	}
	s.count++
	return s.count, nil
}

func TestRateLimitRejectsOverLimit(t *testing.T) {
	counter := &stubCounter{}
	limiter := RateLimit(counter, 2, time.Minute, nil, zap.NewNop())

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = performWithClaims(nil, "/api/v1/auth/login", limiter)
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.Contains(t, last.Body.String(), "TOO_MANY_REQUESTS")
}

func TestRateLimitFailsOpen(t *testing.T) {
	counter := &stubCounter{err: errors.New("redis down")}
	limiter := RateLimit(counter, 1, time.Minute, nil, zap.NewNop())

	w := performWithClaims(nil, "/api/v1/auth/login", limiter)
	assert.Equal(t, http.StatusOK, w.Code)
}

type sinkSpy struct {
	logs []*models.AuditLog
}

func (s *sinkSpy) Record(log *models.AuditLog) {
	s.logs = append(s.logs, log)
}

func TestAuditRecordsOnSuccess(t *testing.T) {
	sink := &sinkSpy{}
	claims := claimsFor(&models.User{ID: "u1", Active: true, Role: models.RoleAdmin})
	w := performWithClaims(claims, "/api/v1/clients", Audit(sink, "client.create", "clients"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, sink.logs, 1)
	assert.Equal(t, "client.create", sink.logs[0].Action)
	assert.Equal(t, "u1", *sink.logs[0].UserID)
}

func TestAuditSkipsFailures(t *testing.T) {
	sink := &sinkSpy{}
	router := gin.New()
	router.Use(Audit(sink, "client.create", "clients"))
	router.POST("/api/v1/clients", func(c *gin.Context) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nope"})
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/clients", nil)
	router.ServeHTTP(w, req)
	assert.Empty(t, sink.logs)
}
