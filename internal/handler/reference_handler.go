package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/telvia/crm-api/internal/service"
	appErrors "github.com/telvia/crm-api/pkg/errors"
	"github.com/telvia/crm-api/pkg/response"
)

// ReferenceHandler exposes the client status, category, and city tables.
type ReferenceHandler struct {
	service *service.ReferenceService
}

// NewReferenceHandler creates a new handler.
func NewReferenceHandler(svc *service.ReferenceService) *ReferenceHandler {
	return &ReferenceHandler{service: svc}
}

// ListStatuses returns all client statuses.
func (h *ReferenceHandler) ListStatuses(c *gin.Context) {
	statuses, err := h.service.ListStatuses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, statuses)
}

// CreateStatus adds a client status.
func (h *ReferenceHandler) CreateStatus(c *gin.Context) {
	req, ok := bindNamed(c)
	if !ok {
		return
	}
	status, err := h.service.CreateStatus(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, status)
}

// UpdateStatus modifies a client status.
func (h *ReferenceHandler) UpdateStatus(c *gin.Context) {
	req, ok := bindNamed(c)
	if !ok {
		return
	}
	status, err := h.service.UpdateStatus(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status)
}

// DeleteStatus removes a client status.
func (h *ReferenceHandler) DeleteStatus(c *gin.Context) {
	if err := h.service.DeleteStatus(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListCategories returns all categories.
func (h *ReferenceHandler) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories)
}

// CreateCategory adds a category.
func (h *ReferenceHandler) CreateCategory(c *gin.Context) {
	req, ok := bindNamed(c)
	if !ok {
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// UpdateCategory modifies a category.
func (h *ReferenceHandler) UpdateCategory(c *gin.Context) {
	req, ok := bindNamed(c)
	if !ok {
		return
	}
	category, err := h.service.UpdateCategory(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category)
}

// DeleteCategory removes a category.
func (h *ReferenceHandler) DeleteCategory(c *gin.Context) {
	if err := h.service.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ListCities returns all cities.
func (h *ReferenceHandler) ListCities(c *gin.Context) {
	cities, err := h.service.ListCities(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cities)
}

// CreateCity adds a city.
func (h *ReferenceHandler) CreateCity(c *gin.Context) {
	var req service.CityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid city payload"))
		return
	}
	city, err := h.service.CreateCity(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, city)
}

// UpdateCity modifies a city.
func (h *ReferenceHandler) UpdateCity(c *gin.Context) {
	var req service.CityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid city payload"))
		return
	}
	city, err := h.service.UpdateCity(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, city)
}

// DeleteCity removes a city.
func (h *ReferenceHandler) DeleteCity(c *gin.Context) {
	if err := h.service.DeleteCity(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func bindNamed(c *gin.Context) (service.NamedRequest, bool) {
	var req service.NamedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return req, false
	}
	return req, true
}
