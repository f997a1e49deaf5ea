package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/telvia/crm-api/pkg/errors"
	"github.com/telvia/crm-api/pkg/response"
)

// firstLoginAllowlist names the route suffixes a user flagged for a forced
// password change may still reach.
var firstLoginAllowlist = []string{
	"/auth/change-password",
	"/auth/refresh",
	"/auth/logout",
}

// AccountState rejects requests whose token snapshot marks the account as
// deactivated or pending a forced password change. The flags are read from
// the claims set at issuance, so a revoked state takes effect on the next
// token refresh rather than mid-flight.
func AccountState() gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			c.Next()
			return
		}

		if !claims.Active {
			response.Error(c, appErrors.Clone(appErrors.ErrAccountDeactivated, "account is deactivated"))
			c.Abort()
			return
		}

		if claims.FirstLogin && !firstLoginAllowed(c.Request.URL.Path) {
			response.Error(c, appErrors.Clone(appErrors.ErrPasswordChangeRequired, "password change required"))
			c.Abort()
			return
		}

		c.Next()
	}
}

func firstLoginAllowed(path string) bool {
	for _, suffix := range firstLoginAllowlist {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}
