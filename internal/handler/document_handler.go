package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/telvia/crm-api/internal/service"
	appErrors "github.com/telvia/crm-api/pkg/errors"
	"github.com/telvia/crm-api/pkg/response"
)

// DocumentHandler exposes client document upload, download, and sharing.
type DocumentHandler struct {
	service *service.DocumentService
}

// NewDocumentHandler creates a new handler.
func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// ListByClient returns document metadata for a client.
func (h *DocumentHandler) ListByClient(c *gin.Context) {
	docs, err := h.service.ListByClient(c.Request.Context(), c.Param("clientId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, docs)
}

// Upload godoc
// @Summary Upload a client document
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Param clientId path string true "Client ID"
// @Param file formData file true "Document file"
// @Success 201 {object} models.Document
// @Router /documents/upload/{clientId} [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file is required"))
		return
	}

	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, http.StatusInternalServerError, "failed to read upload"))
		return
	}
	defer file.Close()

	doc, err := h.service.Upload(c.Request.Context(), service.UploadRequest{
		ClientID:     c.Param("clientId"),
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
		Content:      file,
	}, actorID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, doc)
}

// Download streams the document bytes with its original name.
func (h *DocumentHandler) Download(c *gin.Context) {
	doc, file, err := h.service.Open(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.OriginalName))
	c.DataFromReader(http.StatusOK, doc.Size, doc.MimeType, file, nil)
}

// Delete removes a document and its file.
func (h *DocumentHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actorID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Share issues an expiring public download link.
func (h *DocumentHandler) Share(c *gin.Context) {
	link, err := h.service.Share(c.Request.Context(), c.Param("id"), actorID(c), requestBaseURL(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, link)
}

// DownloadShared resolves a share token without authentication.
func (h *DocumentHandler) DownloadShared(c *gin.Context) {
	doc, file, err := h.service.OpenShared(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.OriginalName))
	c.DataFromReader(http.StatusOK, doc.Size, doc.MimeType, file, nil)
}

func requestBaseURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + c.Request.Host
}
