package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telvia/crm-api/internal/models"
	appErrors "github.com/telvia/crm-api/pkg/errors"
	"github.com/telvia/crm-api/pkg/storage"
)

type documentRepository interface {
	ListByClient(ctx context.Context, clientID string) ([]models.Document, error)
	FindByID(ctx context.Context, id string) (*models.Document, error)
	Create(ctx context.Context, doc *models.Document) error
	Delete(ctx context.Context, id string) error
}

type documentClientRepository interface {
	FindByID(ctx context.Context, id string) (*models.Client, error)
}

// UploadRequest carries an incoming file and its metadata.
type UploadRequest struct {
	ClientID     string
	OriginalName string
	MimeType     string
	Size         int64
	Content      io.Reader
}

// DocumentConfig bounds uploads.
type DocumentConfig struct {
	MaxFileSizeBytes int64
	AllowedMIMEs     []string
}

// DocumentService stores client documents on disk and issues share links.
type DocumentService struct {
	repo    documentRepository
	clients documentClientRepository
	store   *storage.LocalStorage
	signer  *storage.ShareLinkSigner
	audit   auditRecorder
	config  DocumentConfig
	logger  *zap.Logger
}

// NewDocumentService creates an instance of DocumentService.
func NewDocumentService(repo documentRepository, clients documentClientRepository, store *storage.LocalStorage, signer *storage.ShareLinkSigner, audit auditRecorder, config DocumentConfig, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{repo: repo, clients: clients, store: store, signer: signer, audit: audit, config: config, logger: logger}
}

// ListByClient returns document metadata for a client.
func (s *DocumentService) ListByClient(ctx context.Context, clientID string) ([]models.Document, error) {
	docs, err := s.repo.ListByClient(ctx, clientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return docs, nil
}

// Upload validates and stores a file, then records its metadata.
func (s *DocumentService) Upload(ctx context.Context, req UploadRequest, uploaderID string) (*models.Document, error) {
	if req.ClientID == "" || req.OriginalName == "" || req.Content == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file and clientId are required")
	}
	if s.config.MaxFileSizeBytes > 0 && req.Size > s.config.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file exceeds maximum size")
	}
	if !s.mimeAllowed(req.MimeType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file type is not allowed")
	}

	if _, err := s.clients.FindByID(ctx, req.ClientID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "client not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}

	doc := &models.Document{
		ID:           uuid.NewString(),
		ClientID:     req.ClientID,
		OriginalName: req.OriginalName,
		MimeType:     req.MimeType,
		Size:         req.Size,
		UploadedByID: uploaderID,
	}
	doc.FileName = filepath.Join(req.ClientID, doc.ID+filepath.Ext(req.OriginalName))

	if _, err := s.store.SaveStream(doc.FileName, req.Content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		if cleanupErr := s.store.Delete(doc.FileName); cleanupErr != nil {
			s.logger.Warn("failed to remove orphaned upload", zap.String("file", doc.FileName), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record document")
	}

	s.recordDocumentAudit(uploaderID, models.AuditActionDocumentUpload, doc)
	return doc, nil
}

// Open returns the document metadata and a read handle on its bytes.
func (s *DocumentService) Open(ctx context.Context, id string) (*models.Document, *os.File, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	file, err := s.store.Open(doc.FileName)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "document file is missing")
	}
	return doc, file, nil
}

// Delete removes the file and its metadata.
func (s *DocumentService) Delete(ctx context.Context, id string, actorID string) error {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}
	if err := s.store.Delete(doc.FileName); err != nil {
		s.logger.Warn("failed to remove document file", zap.String("file", doc.FileName), zap.Error(err))
	}

	s.recordDocumentAudit(actorID, models.AuditActionDocumentDelete, doc)
	return nil
}

// Share issues a signed, expiring download link for a document.
func (s *DocumentService) Share(ctx context.Context, id string, actorID string, baseURL string) (*models.ShareLink, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	token, expiresAt, err := s.signer.Generate(doc.ID, doc.FileName)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign share link")
	}

	s.recordDocumentAudit(actorID, models.AuditActionDocumentShare, doc)
	return &models.ShareLink{
		URL:       fmt.Sprintf("%s/shared/%s", baseURL, token),
		ExpiresAt: expiresAt,
	}, nil
}

// OpenShared validates a share token and returns the referenced document.
func (s *DocumentService) OpenShared(ctx context.Context, token string) (*models.Document, *os.File, error) {
	documentID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "share link is invalid or expired")
	}

	doc, err := s.repo.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if doc.FileName != relPath {
		return nil, nil, appErrors.Clone(appErrors.ErrUnauthorized, "share link is invalid or expired")
	}

	file, err := s.store.Open(doc.FileName)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "document file is missing")
	}
	return doc, file, nil
}

func (s *DocumentService) mimeAllowed(mime string) bool {
	if len(s.config.AllowedMIMEs) == 0 {
		return true
	}
	for _, allowed := range s.config.AllowedMIMEs {
		if allowed == mime {
			return true
		}
	}
	return false
}

func (s *DocumentService) recordDocumentAudit(actorID, action string, doc *models.Document) {
	if s.audit == nil {
		return
	}
	s.audit.Record(&models.AuditLog{
		UserID:   &actorID,
		Action:   action,
		Entity:   strPtr("documents"),
		EntityID: &doc.ID,
	})
}
