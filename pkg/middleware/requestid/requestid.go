// Package requestid tags every request with a correlation ID so access-log
// lines and audit entries can be tied back to a single call.
package requestid

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Header carries the correlation ID on both the request and the response.
const Header = "X-Request-ID"

const contextKey = "request_id"

// Middleware keeps an inbound ID when the caller supplied one and mints a
// fresh one otherwise.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(Header))
		if id == "" {
			id = uuid.NewString()
		}

		c.Set(contextKey, id)
		c.Writer.Header().Set(Header, id)

		c.Next()
	}
}

// Value reports the correlation ID attached to the request, or "" when the
// middleware did not run.
func Value(c *gin.Context) string {
	v, _ := c.Get(contextKey)
	id, _ := v.(string)
	return id
}
