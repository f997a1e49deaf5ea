package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/telvia/crm-api/internal/service"
	"github.com/telvia/crm-api/pkg/response"
)

// AuditHandler exposes the audit trail, admin only.
type AuditHandler struct {
	service *service.AuditService
}

// NewAuditHandler creates a new handler.
func NewAuditHandler(svc *service.AuditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// List returns audit records, newest first.
func (h *AuditHandler) List(c *gin.Context) {
	page := queryInt(c, "page", 1)
	pageSize := queryInt(c, "pageSize", 50)

	logs, total, err := h.service.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, logs, total, page, pageSize)
}
