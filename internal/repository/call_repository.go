package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/telvia/crm-api/internal/models"
)

// CallRepository provides database access for call records.
type CallRepository struct {
	db *sqlx.DB
}

// NewCallRepository creates a new instance of CallRepository.
func NewCallRepository(db *sqlx.DB) *CallRepository {
	return &CallRepository{db: db}
}

const callSelect = `SELECT ca.id, ca.client_id, ca.manager_id, ca.result, ca.comment, ca.new_status_id, ca.new_potential, ca.date_time, ca.created_at, cl.last_name || ' ' || cl.first_name AS client_name, u.username AS manager_name, s.name AS status_name FROM calls ca JOIN clients cl ON cl.id = ca.client_id JOIN users u ON u.id = ca.manager_id LEFT JOIN client_statuses s ON s.id = ca.new_status_id`

// List returns calls matching the filter with a total count.
func (r *CallRepository) List(ctx context.Context, filter models.CallFilter) ([]models.Call, int, error) {
	whereClause := ` WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.From != nil {
		conditions = append(conditions, fmt.Sprintf("ca.date_time >= $%d", len(args)+1))
		args = append(args, *filter.From)
	}
	if filter.To != nil {
		conditions = append(conditions, fmt.Sprintf("ca.date_time <= $%d", len(args)+1))
		args = append(args, *filter.To)
	}
	if filter.ClientID != "" {
		conditions = append(conditions, fmt.Sprintf("ca.client_id = $%d", len(args)+1))
		args = append(args, filter.ClientID)
	}
	if filter.ManagerID != "" {
		conditions = append(conditions, fmt.Sprintf("ca.manager_id = $%d", len(args)+1))
		args = append(args, filter.ManagerID)
	}

	if len(conditions) > 0 {
		whereClause += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	listQuery := fmt.Sprintf("%s%s ORDER BY ca.date_time DESC LIMIT %d OFFSET %d", callSelect, whereClause, pageSize, offset)

	var calls []models.Call
	if err := r.db.SelectContext(ctx, &calls, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list calls: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM calls ca%s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count calls: %w", err)
	}

	return calls, total, nil
}

// ListByClient returns all calls for a client, newest first.
func (r *CallRepository) ListByClient(ctx context.Context, clientID string) ([]models.Call, error) {
	query := callSelect + ` WHERE ca.client_id = $1 ORDER BY ca.date_time DESC`
	var calls []models.Call
	if err := r.db.SelectContext(ctx, &calls, query, clientID); err != nil {
		return nil, fmt.Errorf("list calls by client: %w", err)
	}
	return calls, nil
}

// Recent returns the most recent calls.
func (r *CallRepository) Recent(ctx context.Context, limit int) ([]models.Call, error) {
	query := fmt.Sprintf("%s ORDER BY ca.date_time DESC LIMIT %d", callSelect, limit)
	var calls []models.Call
	if err := r.db.SelectContext(ctx, &calls, query); err != nil {
		return nil, fmt.Errorf("recent calls: %w", err)
	}
	return calls, nil
}

// Create inserts a new call record.
func (r *CallRepository) Create(ctx context.Context, call *models.Call) error {
	if call.ID == "" {
		call.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if call.DateTime.IsZero() {
		call.DateTime = now
	}
	if call.CreatedAt.IsZero() {
		call.CreatedAt = now
	}

	const query = `INSERT INTO calls (id, client_id, manager_id, result, comment, new_status_id, new_potential, date_time, created_at) VALUES (:id, :client_id, :manager_id, :result, :comment, :new_status_id, :new_potential, :date_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, call); err != nil {
		return fmt.Errorf("create call: %w", err)
	}
	return nil
}
