package models

import "time"

// TaskStatus enumerates follow-up task states.
type TaskStatus string

const (
	TaskStatusOpen       TaskStatus = "open"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusDone       TaskStatus = "done"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

// Task is a follow-up item attached to a client.
type Task struct {
	ID           string     `db:"id" json:"id"`
	Title        string     `db:"title" json:"title"`
	Description  *string    `db:"description" json:"description,omitempty"`
	ClientID     string     `db:"client_id" json:"clientId"`
	AssignedToID string     `db:"assigned_to_id" json:"assignedToId"`
	Status       TaskStatus `db:"status" json:"status"`
	DueDate      *time.Time `db:"due_date" json:"dueDate,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`

	ClientName   *string `db:"client_name" json:"clientName,omitempty"`
	AssigneeName *string `db:"assignee_name" json:"assigneeName,omitempty"`
}

// TaskFilter captures list filtering criteria.
type TaskFilter struct {
	Status       *TaskStatus
	AssignedToID string
	ClientID     string
	DueFrom      *time.Time
	DueTo        *time.Time
	Page         int
	PageSize     int
}
