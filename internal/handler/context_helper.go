package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/telvia/crm-api/internal/middleware"
	"github.com/telvia/crm-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.AccessClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.AccessClaims)
	if !ok {
		return nil
	}
	return claims
}
