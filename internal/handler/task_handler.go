package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/telvia/crm-api/internal/models"
	"github.com/telvia/crm-api/internal/service"
	appErrors "github.com/telvia/crm-api/pkg/errors"
	"github.com/telvia/crm-api/pkg/response"
)

// TaskHandler exposes follow-up task endpoints.
type TaskHandler struct {
	service *service.TaskService
}

// NewTaskHandler creates a new handler.
func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// List returns tasks, filterable by status, assignee, client, and due window.
func (h *TaskHandler) List(c *gin.Context) {
	filter := models.TaskFilter{
		AssignedToID: c.Query("assignedToId"),
		ClientID:     c.Query("clientId"),
		Page:         queryInt(c, "page", 1),
		PageSize:     queryInt(c, "pageSize", 20),
	}
	if status := c.Query("status"); status != "" {
		s := models.TaskStatus(status)
		filter.Status = &s
	}
	if from := queryTime(c, "dueFrom"); from != nil {
		filter.DueFrom = from
	}
	if to := queryTime(c, "dueTo"); to != nil {
		filter.DueTo = to
	}

	tasks, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, tasks, total, filter.Page, filter.PageSize)
}

// Get returns a task by ID.
func (h *TaskHandler) Get(c *gin.Context) {
	task, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task)
}

// Create adds a task.
func (h *TaskHandler) Create(c *gin.Context) {
	var req service.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid task payload"))
		return
	}

	task, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// Update modifies a task.
func (h *TaskHandler) Update(c *gin.Context) {
	var req service.UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid task payload"))
		return
	}

	task, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, task)
}

// Delete removes a task.
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
