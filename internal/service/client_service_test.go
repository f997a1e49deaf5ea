package service

import (
	"bytes"
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/telvia/crm-api/internal/models"
	appErrors "github.com/telvia/crm-api/pkg/errors"
)

type mockClientRepo struct {
	clients map[string]*models.Client
	deleted []string
}

func newMockClientRepo(clients ...*models.Client) *mockClientRepo {
	m := &mockClientRepo{clients: make(map[string]*models.Client)}
	for _, c := range clients {
		m.clients[c.ID] = c
	}
	return m
}

func (m *mockClientRepo) List(ctx context.Context, filter models.ClientFilter) ([]models.Client, int, error) {
	var out []models.Client
	for _, c := range m.clients {
		out = append(out, *c)
	}
	return out, len(out), nil
}

func (m *mockClientRepo) FindByID(ctx context.Context, id string) (*models.Client, error) {
	if c, ok := m.clients[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockClientRepo) Create(ctx context.Context, client *models.Client) error {
	m.clients[client.ID] = client
	return nil
}

func (m *mockClientRepo) Update(ctx context.Context, client *models.Client) error {
	m.clients[client.ID] = client
	return nil
}

func (m *mockClientRepo) Delete(ctx context.Context, id string) error {
	delete(m.clients, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockCallsByClient struct {
	calls []models.Call
}

func (m *mockCallsByClient) ListByClient(ctx context.Context, clientID string) ([]models.Call, error) {
	return m.calls, nil
}

type mockTasksByClient struct {
	tasks []models.Task
}

func (m *mockTasksByClient) ListByClient(ctx context.Context, clientID string) ([]models.Task, error) {
	return m.tasks, nil
}

func TestClientServiceGetDetail(t *testing.T) {
	repo := newMockClientRepo(&models.Client{ID: "c1", FirstName: "Ivan", LastName: "Petrov"})
	calls := &mockCallsByClient{calls: []models.Call{{ID: "ca1", ClientID: "c1"}}}
	tasks := &mockTasksByClient{tasks: []models.Task{{ID: "t1", ClientID: "c1"}}}
	svc := NewClientService(repo, calls, tasks, NewValidator(), zap.NewNop())

	detail, err := svc.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, "Petrov", detail.LastName)
	assert.Len(t, detail.Calls, 1)
	assert.Len(t, detail.Tasks, 1)
}

func TestClientServiceGetNotFound(t *testing.T) {
	svc := NewClientService(newMockClientRepo(), &mockCallsByClient{}, &mockTasksByClient{}, NewValidator(), zap.NewNop())

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestClientServiceCreateValidation(t *testing.T) {
	svc := NewClientService(newMockClientRepo(), &mockCallsByClient{}, &mockTasksByClient{}, NewValidator(), zap.NewNop())

	_, err := svc.Create(context.Background(), ClientRequest{FirstName: "Ivan"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestClientServiceExportCSV(t *testing.T) {
	phone := "+359111"
	repo := newMockClientRepo(&models.Client{ID: "c1", FirstName: "Ivan", LastName: "Petrov", Phone: &phone})
	svc := NewClientService(repo, &mockCallsByClient{}, &mockTasksByClient{}, NewValidator(), zap.NewNop())

	payload, err := svc.ExportCSV(context.Background(), models.ClientFilter{})
	require.NoError(t, err)
	assert.True(t, bytes.Contains(payload, []byte("Petrov")))
	assert.True(t, bytes.Contains(payload, []byte("+359111")))
}

func TestClientServiceExportPDF(t *testing.T) {
	repo := newMockClientRepo(&models.Client{ID: "c1", FirstName: "Ivan", LastName: "Petrov"})
	svc := NewClientService(repo, &mockCallsByClient{}, &mockTasksByClient{}, NewValidator(), zap.NewNop())

	payload, err := svc.ExportPDF(context.Background(), "c1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}
