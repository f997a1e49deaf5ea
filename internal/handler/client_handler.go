package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/telvia/crm-api/internal/models"
	"github.com/telvia/crm-api/internal/service"
	appErrors "github.com/telvia/crm-api/pkg/errors"
	"github.com/telvia/crm-api/pkg/response"
)

// ClientHandler exposes client management and export endpoints.
type ClientHandler struct {
	service *service.ClientService
}

// NewClientHandler creates a new handler.
func NewClientHandler(svc *service.ClientService) *ClientHandler {
	return &ClientHandler{service: svc}
}

// List godoc
// @Summary List clients
// @Tags Clients
// @Produce json
// @Param q query string false "Free text search"
// @Param statusId query string false "Status filter"
// @Param dueInDays query int false "Contracts ending within N days"
// @Success 200 {object} response.PagedResult
// @Router /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	filter := clientFilterFromQuery(c)

	clients, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Page(c, clients, total, filter.Page, filter.PageSize)
}

// Get returns a client with its call and task history.
func (h *ClientHandler) Get(c *gin.Context) {
	detail, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail)
}

// Create adds a client.
func (h *ClientHandler) Create(c *gin.Context) {
	var req service.ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid client payload"))
		return
	}

	client, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, client)
}

// Update modifies a client.
func (h *ClientHandler) Update(c *gin.Context) {
	var req service.ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid client payload"))
		return
	}

	client, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, client)
}

// Delete removes a client.
func (h *ClientHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ExportCSV streams the filtered client list as a CSV attachment.
func (h *ClientHandler) ExportCSV(c *gin.Context) {
	payload, err := h.service.ExportCSV(c.Request.Context(), clientFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("clients-%s.csv", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", payload)
}

// ExportPDF streams a client summary as a PDF attachment.
func (h *ClientHandler) ExportPDF(c *gin.Context) {
	payload, err := h.service.ExportPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "client-"+c.Param("id")+".pdf"))
	c.Data(http.StatusOK, "application/pdf", payload)
}

func clientFilterFromQuery(c *gin.Context) models.ClientFilter {
	filter := models.ClientFilter{
		Search:   c.Query("q"),
		StatusID: c.Query("statusId"),
		Page:     queryInt(c, "page", 1),
		PageSize: queryInt(c, "pageSize", 20),
	}
	if raw := c.Query("dueInDays"); raw != "" {
		if days, err := strconv.Atoi(raw); err == nil {
			filter.DueInDays = &days
		}
	}
	if from := queryTime(c, "contractEndFrom"); from != nil {
		filter.ContractEndFrom = from
	}
	if to := queryTime(c, "contractEndTo"); to != nil {
		filter.ContractEndTo = to
	}
	return filter
}

func queryTime(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	value, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &value
}
