package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telvia/crm-api/internal/models"
)

func TestListStatusesOrdersByName(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReferenceRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "description", "created_at", "updated_at"}).
		AddRow("s1", "Активный", nil, now, now).
		AddRow("s2", "Новый", "Новый клиент", now, now)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, description, created_at, updated_at FROM client_statuses ORDER BY name ASC`)).
		WillReturnRows(rows)

	statuses, err := repo.ListStatuses(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, "Активный", statuses[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateStatusAssignsIDAndTimestamps(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReferenceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO client_statuses (id, name, description, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	status := &models.ClientStatus{Name: "Новый"}
	require.NoError(t, repo.CreateStatus(context.Background(), status))
	assert.NotEmpty(t, status.ID)
	assert.False(t, status.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCity(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReferenceRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM cities WHERE id = $1`)).
		WithArgs("city-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.DeleteCity(context.Background(), "city-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
