package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleManager      UserRole = "manager"
	RoleChiefManager UserRole = "chief_manager"
	RoleAdmin        UserRole = "admin"
)

// User represents an application account stored in the users table.
type User struct {
	ID               string    `db:"id" json:"id"`
	Username         string    `db:"username" json:"username"`
	Email            string    `db:"email" json:"email"`
	PasswordHash     string    `db:"password_hash" json:"-"`
	RefreshTokenHash *string   `db:"refresh_token_hash" json:"-"`
	Role             UserRole  `db:"role" json:"role"`
	Active           bool      `db:"active" json:"active"`
	FirstLogin       bool      `db:"first_login" json:"firstLogin"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Active   *bool
	Search   string
	Page     int
	PageSize int
}
