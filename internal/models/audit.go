package models

import "time"

// Audit action constants used by the core flows.
const (
	AuditActionLogin          = "auth.login"
	AuditActionRefresh        = "auth.refresh"
	AuditActionLogout         = "auth.logout"
	AuditActionPasswordChange = "auth.change-password"
	AuditActionPasswordReset  = "user.reset-password"
	AuditActionUserCreate     = "user.create"
	AuditActionUserUpdate     = "user.update"
	AuditActionUserDelete     = "user.delete"
	AuditActionDocumentUpload = "document.upload"
	AuditActionDocumentDelete = "document.delete"
	AuditActionDocumentShare  = "document.share"
)

// AuditLog represents an audit trail record.
type AuditLog struct {
	ID        string    `db:"id" json:"id"`
	UserID    *string   `db:"user_id" json:"userId,omitempty"`
	Action    string    `db:"action" json:"action"`
	Method    string    `db:"method" json:"method"`
	Path      string    `db:"path" json:"path"`
	Entity    *string   `db:"entity" json:"entity,omitempty"`
	EntityID  *string   `db:"entity_id" json:"entityId,omitempty"`
	Metadata  []byte    `db:"metadata" json:"metadata,omitempty"`
	IP        string    `db:"ip" json:"ip"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
