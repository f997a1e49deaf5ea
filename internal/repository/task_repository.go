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

// TaskRepository provides database access for follow-up tasks.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new instance of TaskRepository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

const taskSelect = `SELECT t.id, t.title, t.description, t.client_id, t.assigned_to_id, t.status, t.due_date, t.created_at, t.updated_at, cl.last_name || ' ' || cl.first_name AS client_name, u.username AS assignee_name FROM tasks t JOIN clients cl ON cl.id = t.client_id JOIN users u ON u.id = t.assigned_to_id`

// List returns tasks matching the filter with a total count.
func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter) ([]models.Task, int, error) {
	whereClause := ` WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.AssignedToID != "" {
		conditions = append(conditions, fmt.Sprintf("t.assigned_to_id = $%d", len(args)+1))
		args = append(args, filter.AssignedToID)
	}
	if filter.ClientID != "" {
		conditions = append(conditions, fmt.Sprintf("t.client_id = $%d", len(args)+1))
		args = append(args, filter.ClientID)
	}
	if filter.DueFrom != nil {
		conditions = append(conditions, fmt.Sprintf("t.due_date >= $%d", len(args)+1))
		args = append(args, *filter.DueFrom)
	}
	if filter.DueTo != nil {
		conditions = append(conditions, fmt.Sprintf("t.due_date <= $%d", len(args)+1))
		args = append(args, *filter.DueTo)
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

	listQuery := fmt.Sprintf("%s%s ORDER BY t.due_date ASC LIMIT %d OFFSET %d", taskSelect, whereClause, pageSize, offset)

	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list tasks: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM tasks t%s", whereClause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	return tasks, total, nil
}

// ListByClient returns tasks attached to a client.
func (r *TaskRepository) ListByClient(ctx context.Context, clientID string) ([]models.Task, error) {
	query := taskSelect + ` WHERE t.client_id = $1 ORDER BY t.due_date ASC`
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query, clientID); err != nil {
		return nil, fmt.Errorf("list tasks by client: %w", err)
	}
	return tasks, nil
}

// Recent returns the most recently updated tasks.
func (r *TaskRepository) Recent(ctx context.Context, limit int) ([]models.Task, error) {
	query := fmt.Sprintf("%s ORDER BY t.updated_at DESC LIMIT %d", taskSelect, limit)
	var tasks []models.Task
	if err := r.db.SelectContext(ctx, &tasks, query); err != nil {
		return nil, fmt.Errorf("recent tasks: %w", err)
	}
	return tasks, nil
}

// FindByID returns a task by identifier.
func (r *TaskRepository) FindByID(ctx context.Context, id string) (*models.Task, error) {
	query := taskSelect + ` WHERE t.id = $1 LIMIT 1`
	var task models.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find task by id: %w", err)
	}
	return &task, nil
}

// CountDueBetween counts tasks due in the given window.
func (r *TaskRepository) CountDueBetween(ctx context.Context, from, to time.Time) (int, error) {
	const query = `SELECT COUNT(*) FROM tasks WHERE due_date >= $1 AND due_date < $2`
	var total int
	if err := r.db.GetContext(ctx, &total, query, from, to); err != nil {
		return 0, fmt.Errorf("count due tasks: %w", err)
	}
	return total, nil
}

// Create inserts a new task.
func (r *TaskRepository) Create(ctx context.Context, task *models.Task) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = models.TaskStatusOpen
	}

	const query = `INSERT INTO tasks (id, title, description, client_id, assigned_to_id, status, due_date, created_at, updated_at) VALUES (:id, :title, :description, :client_id, :assigned_to_id, :status, :due_date, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// Update updates mutable fields of a task.
func (r *TaskRepository) Update(ctx context.Context, task *models.Task) error {
	task.UpdatedAt = time.Now().UTC()
	const query = `UPDATE tasks SET title = :title, description = :description, assigned_to_id = :assigned_to_id, status = :status, due_date = :due_date, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// Delete removes a task permanently.
func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM tasks WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}
