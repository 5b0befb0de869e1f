package models

import (
	"time"

	"github.com/lib/pq"
)

// Account is a CRM account keyed by the external ID assigned by the
// upstream source system. The external ID is stable across re-imports.
type Account struct {
	ID         string         `json:"id" db:"id"`
	TenantID   string         `json:"tenant_id" db:"tenant_id"`
	ExternalID string         `json:"external_id" db:"external_id"`
	Name       string         `json:"name" db:"name"`
	Type       string         `json:"type,omitempty" db:"type"`
	Tags       pq.StringArray `json:"tags" db:"tags"`
	Archived   bool           `json:"archived" db:"archived"`
	Street     string         `json:"street,omitempty" db:"street"`
	City       string         `json:"city,omitempty" db:"city"`
	State      string         `json:"state,omitempty" db:"state"`
	Zip        string         `json:"zip,omitempty" db:"zip"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt  *time.Time     `json:"deleted_at,omitempty" db:"deleted_at"`
}

// AccountListResponse is the response for listing accounts
type AccountListResponse struct {
	Success bool      `json:"success"`
	Data    []Account `json:"data"`
}
