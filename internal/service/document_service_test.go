package service

import (
	"context"
	"database/sql"
	"io"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/telvia/crm-api/internal/models"
	appErrors "github.com/telvia/crm-api/pkg/errors"
	"github.com/telvia/crm-api/pkg/storage"
)

type mockDocumentRepo struct {
	docs      map[string]*models.Document
	createErr error
	deleted   []string
}

func newMockDocumentRepo(docs ...*models.Document) *mockDocumentRepo {
	repo := &mockDocumentRepo{docs: make(map[string]*models.Document)}
	for _, doc := range docs {
		repo.docs[doc.ID] = doc
	}
	return repo
}

func (m *mockDocumentRepo) ListByClient(ctx context.Context, clientID string) ([]models.Document, error) {
	var out []models.Document
	for _, doc := range m.docs {
		if doc.ClientID == clientID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (m *mockDocumentRepo) FindByID(ctx context.Context, id string) (*models.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	d := *doc
	return &d, nil
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockDocumentRepo) Delete(ctx context.Context, id string) error {
	delete(m.docs, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func newDocumentService(t *testing.T, repo *mockDocumentRepo, clients *mockClientRepo) (*DocumentService, *storage.LocalStorage) {
	t.Helper()

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	signer := storage.NewShareLinkSigner("test_share_secret", 30*time.Minute)
	svc := NewDocumentService(repo, clients, store, signer, &mockAudit{}, DocumentConfig{
		MaxFileSizeBytes: 64,
		AllowedMIMEs:     []string{"application/pdf", "text/plain"},
	}, zap.NewNop())
	return svc, store
}

func uploadReq(name, mime, content string) UploadRequest {
	return UploadRequest{
		ClientID:     "c1",
		OriginalName: name,
		MimeType:     mime,
		Size:         int64(len(content)),
		Content:      strings.NewReader(content),
	}
}

func TestDocumentUploadStoresFileAndMetadata(t *testing.T) {
	repo := newMockDocumentRepo()
	svc, store := newDocumentService(t, repo, newMockClientRepo(&models.Client{ID: "c1"}))

	doc, err := svc.Upload(context.Background(), uploadReq("contract.pdf", "application/pdf", "pdf-bytes"), "u1")
	require.NoError(t, err)
	assert.Equal(t, "c1", doc.ClientID)
	assert.Equal(t, "u1", doc.UploadedByID)
	assert.Contains(t, doc.FileName, ".pdf")

	file, err := store.Open(doc.FileName)
	require.NoError(t, err)
	defer file.Close()
	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "pdf-bytes", string(data))
}

func TestDocumentUploadRejectsOversizedFile(t *testing.T) {
	repo := newMockDocumentRepo()
	svc, _ := newDocumentService(t, repo, newMockClientRepo(&models.Client{ID: "c1"}))

	_, err := svc.Upload(context.Background(), uploadReq("big.pdf", "application/pdf", strings.Repeat("x", 100)), "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDocumentUploadRejectsDisallowedMime(t *testing.T) {
	repo := newMockDocumentRepo()
	svc, _ := newDocumentService(t, repo, newMockClientRepo(&models.Client{ID: "c1"}))

	_, err := svc.Upload(context.Background(), uploadReq("run.exe", "application/octet-stream", "MZ"), "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDocumentUploadCleansUpWhenMetadataWriteFails(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.createErr = sql.ErrConnDone
	svc, store := newDocumentService(t, repo, newMockClientRepo(&models.Client{ID: "c1"}))

	_, err := svc.Upload(context.Background(), uploadReq("contract.pdf", "application/pdf", "pdf-bytes"), "u1")
	require.Error(t, err)

	entries, err := os.ReadDir(store.Path("c1"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDocumentShareRoundTrip(t *testing.T) {
	repo := newMockDocumentRepo()
	svc, _ := newDocumentService(t, repo, newMockClientRepo(&models.Client{ID: "c1"}))

	doc, err := svc.Upload(context.Background(), uploadReq("notes.txt", "text/plain", "hello"), "u1")
	require.NoError(t, err)

	link, err := svc.Share(context.Background(), doc.ID, "u1", "http://localhost:8080")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link.URL, "http://localhost:8080/shared/"))
	assert.True(t, link.ExpiresAt.After(time.Now()))

	token := strings.TrimPrefix(link.URL, "http://localhost:8080/shared/")
	shared, file, err := svc.OpenShared(context.Background(), token)
	require.NoError(t, err)
	defer file.Close()
	assert.Equal(t, doc.ID, shared.ID)

	data, err := io.ReadAll(file)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))
}

func TestDocumentOpenSharedRejectsTamperedToken(t *testing.T) {
	repo := newMockDocumentRepo()
	svc, _ := newDocumentService(t, repo, newMockClientRepo(&models.Client{ID: "c1"}))

	doc, err := svc.Upload(context.Background(), uploadReq("notes.txt", "text/plain", "hello"), "u1")
	require.NoError(t, err)

	link, err := svc.Share(context.Background(), doc.ID, "u1", "http://localhost:8080")
	require.NoError(t, err)
	token := strings.TrimPrefix(link.URL, "http://localhost:8080/shared/")

	_, _, err = svc.OpenShared(context.Background(), token+"tampered")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestDocumentDeleteRemovesFile(t *testing.T) {
	repo := newMockDocumentRepo()
	svc, store := newDocumentService(t, repo, newMockClientRepo(&models.Client{ID: "c1"}))

	doc, err := svc.Upload(context.Background(), uploadReq("notes.txt", "text/plain", "hello"), "u1")
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), doc.ID, "u1"))
	assert.Contains(t, repo.deleted, doc.ID)

	_, err = store.Open(doc.FileName)
	assert.Error(t, err)
}
