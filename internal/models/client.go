package models

import "time"

// Client represents a tracked customer.
type Client struct {
	ID                string     `db:"id" json:"id"`
	FirstName         string     `db:"first_name" json:"firstName"`
	LastName          string     `db:"last_name" json:"lastName"`
	Email             *string    `db:"email" json:"email,omitempty"`
	Phone             *string    `db:"phone" json:"phone,omitempty"`
	Address           *string    `db:"address" json:"address,omitempty"`
	CityID            *string    `db:"city_id" json:"cityId,omitempty"`
	CurrentProvider   *string    `db:"current_provider" json:"currentProvider,omitempty"`
	ContractEndDate   *time.Time `db:"contract_end_date" json:"contractEndDate,omitempty"`
	Notes             *string    `db:"notes" json:"notes,omitempty"`
	StatusID          *string    `db:"status_id" json:"statusId,omitempty"`
	CategoryID        *string    `db:"category_id" json:"categoryId,omitempty"`
	Potential         *string    `db:"potential" json:"potential,omitempty"`
	AssignedManagerID *string    `db:"assigned_manager_id" json:"assignedManagerId,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`

	// Joined reference names, populated by list/detail queries.
	StatusName   *string `db:"status_name" json:"statusName,omitempty"`
	CategoryName *string `db:"category_name" json:"categoryName,omitempty"`
	CityName     *string `db:"city_name" json:"cityName,omitempty"`
}

// ClientDetail bundles a client with its recent activity.
type ClientDetail struct {
	Client
	Calls []Call `json:"calls"`
	Tasks []Task `json:"tasks"`
}

// ClientFilter captures list filtering criteria.
type ClientFilter struct {
	Search          string
	StatusID        string
	DueInDays       *int
	ContractEndFrom *time.Time
	ContractEndTo   *time.Time
	Page            int
	PageSize        int
}
