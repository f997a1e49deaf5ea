package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/telvia/crm-api/internal/models"
)

// ClientRepository provides database access for clients.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository creates a new instance of ClientRepository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

const clientSelect = `SELECT c.id, c.first_name, c.last_name, c.email, c.phone, c.address, c.city_id, c.current_provider, c.contract_end_date, c.notes, c.status_id, c.category_id, c.potential, c.assigned_manager_id, c.created_at, c.updated_at, s.name AS status_name, cat.name AS category_name, ci.name AS city_name FROM clients c LEFT JOIN client_statuses s ON s.id = c.status_id LEFT JOIN categories cat ON cat.id = c.category_id LEFT JOIN cities ci ON ci.id = c.city_id`

// List returns clients matching the filter with a total count.
func (r *ClientRepository) List(ctx context.Context, filter models.ClientFilter) ([]models.Client, int, error) {
	whereClause := ` WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		n := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(c.first_name) LIKE $%d OR LOWER(c.last_name) LIKE $%d OR LOWER(c.email) LIKE $%d OR c.phone LIKE $%d)", n, n, n, n))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}
	if filter.StatusID != "" {
		conditions = append(conditions, fmt.Sprintf("c.status_id = $%d", len(args)+1))
		args = append(args, filter.StatusID)
	}
	if filter.DueInDays != nil {
		now := time.Now().UTC()
		conditions = append(conditions, fmt.Sprintf("c.contract_end_date >= $%d AND c.contract_end_date <= $%d", len(args)+1, len(args)+2))
		args = append(args, now, now.AddDate(0, 0, *filter.DueInDays))
	}
	if filter.ContractEndFrom != nil {
		conditions = append(conditions, fmt.Sprintf("c.contract_end_date >= $%d", len(args)+1))
		args = append(args, *filter.ContractEndFrom)
	}
	if filter.ContractEndTo != nil {
		conditions = append(conditions, fmt.Sprintf("c.contract_end_date <= $%d", len(args)+1))
		args = append(args, *filter.ContractEndTo)
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

	listQuery := fmt.Sprintf("%s%s ORDER BY c.last_name ASC, c.first_name ASC LIMIT %d OFFSET %d", clientSelect, whereClause, pageSize, offset)

	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list clients: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM clients c%s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count clients: %w", err)
	}

	return clients, total, nil
}

// FindByID returns a client by identifier.
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*models.Client, error) {
	query := clientSelect + ` WHERE c.id = $1 LIMIT 1`
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find client by id: %w", err)
	}
	return &client, nil
}

// Create inserts a new client.
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	client.UpdatedAt = now

	const query = `INSERT INTO clients (id, first_name, last_name, email, phone, address, city_id, current_provider, contract_end_date, notes, status_id, category_id, potential, assigned_manager_id, created_at, updated_at) VALUES (:id, :first_name, :last_name, :email, :phone, :address, :city_id, :current_provider, :contract_end_date, :notes, :status_id, :category_id, :potential, :assigned_manager_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, client); err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// Update updates mutable fields of a client.
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	client.UpdatedAt = time.Now().UTC()
	const query = `UPDATE clients SET first_name = :first_name, last_name = :last_name, email = :email, phone = :phone, address = :address, city_id = :city_id, current_provider = :current_provider, contract_end_date = :contract_end_date, notes = :notes, status_id = :status_id, category_id = :category_id, potential = :potential, assigned_manager_id = :assigned_manager_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, client); err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return nil
}

// UpdateOutcome applies a call outcome (status and/or potential) to the client.
func (r *ClientRepository) UpdateOutcome(ctx context.Context, id string, statusID, potential *string) error {
	const query = `UPDATE clients SET status_id = COALESCE($2, status_id), potential = COALESCE($3, potential), updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, statusID, potential, time.Now().UTC()); err != nil {
		return fmt.Errorf("update client outcome: %w", err)
	}
	return nil
}

// Delete removes a client permanently.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM clients WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return nil
}

// CountContractsEndingBetween counts clients whose contract ends in the window.
func (r *ClientRepository) CountContractsEndingBetween(ctx context.Context, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM clients WHERE contract_end_date >= $1 AND contract_end_date <= $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, from, to); err != nil {
		return 0, fmt.Errorf("count expiring contracts: %w", err)
	}
	return total, nil
}
