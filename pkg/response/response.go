package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/telvia/crm-api/pkg/errors"
)

// ErrorEnvelope wraps error payloads. Success payloads are written verbatim
// so clients can rely on the exact body shapes documented per endpoint.
type ErrorEnvelope struct {
	Error *appErrors.Error `json:"error"`
}

// PagedResult is the common shape for list endpoints.
type PagedResult struct {
	Items    interface{} `json:"items"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"pageSize"`
}

// JSON sends a success response.
func JSON(c *gin.Context, status int, data interface{}) {
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(status, data)
}

// Created responds with HTTP 201 Created.
func Created(c *gin.Context, data interface{}) {
	JSON(c, http.StatusCreated, data)
}

// Page sends a paginated list response.
func Page(c *gin.Context, items interface{}, total, page, pageSize int) {
	JSON(c, http.StatusOK, PagedResult{Items: items, Total: total, Page: page, PageSize: pageSize})
}

// Error sends an error response converting the error to the common structure.
func Error(c *gin.Context, err error) {
	appErr := appErrors.FromError(err)
	c.Header("Cache-Control", "no-store")
	c.Header("Pragma", "no-cache")
	c.JSON(appErr.Status, ErrorEnvelope{Error: appErr})
}

// NoContent sends a 204 response.
func NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
