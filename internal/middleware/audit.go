package middleware

import (
	"encoding/json"

	"github.com/gin-gonic/gin"

	"github.com/telvia/crm-api/internal/models"
)

// AuditSink accepts audit entries without blocking.
type AuditSink interface {
	Record(log *models.AuditLog)
}

// Audit records an audit entry after a successful request.
func Audit(sink AuditSink, action, entity string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if sink == nil || c.Writer.Status() >= 400 {
			return
		}

		var userID *string
		if claims, ok := CurrentClaims(c); ok {
			id := claims.Subject
			userID = &id
		}

		var entityID *string
		if id := c.Param("id"); id != "" {
			entityID = &id
		}

		metadata, _ := json.Marshal(map[string]interface{}{"status": c.Writer.Status()})

		sink.Record(&models.AuditLog{
			UserID:   userID,
			Action:   action,
			Method:   c.Request.Method,
			Path:     c.FullPath(),
			Entity:   &entity,
			EntityID: entityID,
			Metadata: metadata,
			IP:       c.ClientIP(),
		})
	}
}
