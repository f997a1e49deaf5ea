package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/telvia/crm-api/internal/models"
)

// DocumentRepository provides database access for document metadata.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new instance of DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// ListByClient returns document metadata for a client, newest first.
func (r *DocumentRepository) ListByClient(ctx context.Context, clientID string) ([]models.Document, error) {
	const query = `SELECT id, client_id, file_name, original_name, mime_type, size, uploaded_by_id, created_at FROM documents WHERE client_id = $1 ORDER BY created_at DESC`
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, clientID); err != nil {
		return nil, fmt.Errorf("list documents by client: %w", err)
	}
	return docs, nil
}

// FindByID returns a document by identifier.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	const query = `SELECT id, client_id, file_name, original_name, mime_type, size, uploaded_by_id, created_at FROM documents WHERE id = $1 LIMIT 1`
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find document by id: %w", err)
	}
	return &doc, nil
}

// Create inserts document metadata.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO documents (id, client_id, file_name, original_name, mime_type, size, uploaded_by_id, created_at) VALUES (:id, :client_id, :file_name, :original_name, :mime_type, :size, :uploaded_by_id, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// Delete removes document metadata.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM documents WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
