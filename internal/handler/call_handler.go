package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/telvia/crm-api/internal/models"
	"github.com/telvia/crm-api/internal/service"
	appErrors "github.com/telvia/crm-api/pkg/errors"
	"github.com/telvia/crm-api/pkg/response"
)

// CallHandler exposes call logging endpoints.
type CallHandler struct {
	service *service.CallService
}

// NewCallHandler creates a new handler.
func NewCallHandler(svc *service.CallService) *CallHandler {
	return &CallHandler{service: svc}
}

// List returns calls, filterable by period, client, and manager.
func (h *CallHandler) List(c *gin.Context) {
	filter := models.CallFilter{
		ClientID:  c.Query("clientId"),
		ManagerID: c.Query("managerId"),
		Page:      queryInt(c, "page", 1),
		PageSize:  queryInt(c, "pageSize", 20),
	}
	if from := queryTime(c, "from"); from != nil {
		filter.From = from
	}
	if to := queryTime(c, "to"); to != nil {
		filter.To = to
	}

	calls, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, calls, total, filter.Page, filter.PageSize)
}

// ListByClient returns the call history of one client.
func (h *CallHandler) ListByClient(c *gin.Context) {
	calls, err := h.service.ListByClient(c.Request.Context(), c.Param("clientId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, calls)
}

// Create logs a call for the acting manager.
func (h *CallHandler) Create(c *gin.Context) {
	var req service.CreateCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid call payload"))
		return
	}

	call, err := h.service.Create(c.Request.Context(), req, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, call)
}
