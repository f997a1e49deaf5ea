package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/telvia/crm-api/internal/models"
	appErrors "github.com/telvia/crm-api/pkg/errors"
	"github.com/telvia/crm-api/pkg/response"
)

// RequireRoles enforces role-based access for routes. When no identity is on
// the context the check defers; the JWT middleware ahead of it already
// rejects anonymous callers on protected groups.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			c.Next()
			return
		}

		if _, permitted := allowed[claims.Role]; !permitted {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
