package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/telvia/crm-api/internal/models"
	appErrors "github.com/telvia/crm-api/pkg/errors"
)

type mockCallRepo struct {
	created []*models.Call
}

func (m *mockCallRepo) List(ctx context.Context, filter models.CallFilter) ([]models.Call, int, error) {
	return nil, 0, nil
}

func (m *mockCallRepo) ListByClient(ctx context.Context, clientID string) ([]models.Call, error) {
	var out []models.Call
	for _, call := range m.created {
		if call.ClientID == clientID {
			out = append(out, *call)
		}
	}
	return out, nil
}

func (m *mockCallRepo) Create(ctx context.Context, call *models.Call) error {
	m.created = append(m.created, call)
	return nil
}

type mockOutcomeRepo struct {
	*mockClientRepo
	outcomes []string
}

func (m *mockOutcomeRepo) UpdateOutcome(ctx context.Context, id string, statusID, potential *string) error {
	m.outcomes = append(m.outcomes, id)
	if c, ok := m.clients[id]; ok {
		if statusID != nil {
			c.StatusID = statusID
		}
		if potential != nil {
			c.Potential = potential
		}
	}
	return nil
}

func TestCallServiceCreateAppliesOutcome(t *testing.T) {
	repo := &mockCallRepo{}
	clients := &mockOutcomeRepo{mockClientRepo: newMockClientRepo(&models.Client{ID: "c1"})}
	svc := NewCallService(repo, clients, NewValidator(), zap.NewNop())

	status := "s2"
	potential := "high"
	call, err := svc.Create(context.Background(), CreateCallRequest{
		ClientID:     "c1",
		Result:       models.CallResultSuccess,
		NewStatusID:  &status,
		NewPotential: &potential,
	}, "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", call.ManagerID)
	require.Len(t, repo.created, 1)
	assert.Contains(t, clients.outcomes, "c1")
	assert.Equal(t, "s2", *clients.clients["c1"].StatusID)
	assert.Equal(t, "high", *clients.clients["c1"].Potential)
}

func TestCallServiceCreateWithoutOutcome(t *testing.T) {
	repo := &mockCallRepo{}
	clients := &mockOutcomeRepo{mockClientRepo: newMockClientRepo(&models.Client{ID: "c1"})}
	svc := NewCallService(repo, clients, NewValidator(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateCallRequest{ClientID: "c1", Result: models.CallResultNoAnswer}, "u1")
	require.NoError(t, err)
	assert.Empty(t, clients.outcomes)
}

func TestCallServiceCreateUnknownClient(t *testing.T) {
	repo := &mockCallRepo{}
	clients := &mockOutcomeRepo{mockClientRepo: newMockClientRepo()}
	svc := NewCallService(repo, clients, NewValidator(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateCallRequest{ClientID: "missing", Result: models.CallResultSuccess}, "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCallServiceCreateInvalidResult(t *testing.T) {
	repo := &mockCallRepo{}
	clients := &mockOutcomeRepo{mockClientRepo: newMockClientRepo(&models.Client{ID: "c1"})}
	svc := NewCallService(repo, clients, NewValidator(), zap.NewNop())

	_, err := svc.Create(context.Background(), CreateCallRequest{ClientID: "c1", Result: "shouted"}, "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
