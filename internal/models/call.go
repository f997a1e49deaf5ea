package models

import "time"

// CallResult enumerates call outcomes.
type CallResult string

const (
	CallResultSuccess  CallResult = "success"
	CallResultNoAnswer CallResult = "no_answer"
	CallResultRefused  CallResult = "refused"
	CallResultCallback CallResult = "callback"
)

// Call records a conversation with a client.
type Call struct {
	ID           string     `db:"id" json:"id"`
	ClientID     string     `db:"client_id" json:"clientId"`
	ManagerID    string     `db:"manager_id" json:"managerId"`
	Result       CallResult `db:"result" json:"result"`
	Comment      *string    `db:"comment" json:"comment,omitempty"`
	NewStatusID  *string    `db:"new_status_id" json:"newStatusId,omitempty"`
	NewPotential *string    `db:"new_potential" json:"newPotential,omitempty"`
	DateTime     time.Time  `db:"date_time" json:"dateTime"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`

	ClientName  *string `db:"client_name" json:"clientName,omitempty"`
	ManagerName *string `db:"manager_name" json:"managerName,omitempty"`
	StatusName  *string `db:"status_name" json:"statusName,omitempty"`
}

// CallFilter captures list filtering criteria.
type CallFilter struct {
	From      *time.Time
	To        *time.Time
	ClientID  string
	ManagerID string
	Page      int
	PageSize  int
}
