package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Estimate statuses as exported by the source system.
const (
	EstimateStatusWon     = "won"
	EstimateStatusLost    = "lost"
	EstimateStatusPending = "pending"
)

// Estimate is a CRM estimate. AccountID is resolved by the linking cascade
// and is null when no strategy matched; such estimates are retained and
// counted as orphaned because their monetary and date data still matters
// for reporting.
type Estimate struct {
	ID            string          `json:"id" db:"id"`
	TenantID      string          `json:"tenant_id" db:"tenant_id"`
	ExternalID    string          `json:"external_id" db:"external_id"`
	AccountID     *string         `json:"account_id" db:"account_id"`
	ContactID     *string         `json:"contact_id" db:"contact_id"`
	ClientName    string          `json:"client_name,omitempty" db:"client_name"`
	Email         string          `json:"email,omitempty" db:"email"`
	Phone         string          `json:"phone,omitempty" db:"phone"`
	Status        string          `json:"status" db:"status"`
	Tags          pq.StringArray  `json:"tags" db:"tags"`
	Street        string          `json:"street,omitempty" db:"street"`
	City          string          `json:"city,omitempty" db:"city"`
	State         string          `json:"state,omitempty" db:"state"`
	Zip           string          `json:"zip,omitempty" db:"zip"`
	EstimateDate  *time.Time      `json:"estimate_date,omitempty" db:"estimate_date"`
	ContractStart *time.Time      `json:"contract_start,omitempty" db:"contract_start"`
	ContractEnd   *time.Time      `json:"contract_end,omitempty" db:"contract_end"`
	Total         decimal.Decimal `json:"total" db:"total"`
	CreatedAt     time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt     *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`

	// LinkedBy records which cascade strategy resolved AccountID.
	// Derived during merge, never persisted.
	LinkedBy string `json:"linked_by,omitempty" db:"-"`
}

// EstimateListResponse is the response for listing estimates
type EstimateListResponse struct {
	Success bool       `json:"success"`
	Data    []Estimate `json:"data"`
}
