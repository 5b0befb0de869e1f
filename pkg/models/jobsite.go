package models

import "time"

// Jobsite is a CRM jobsite. It is the only record type whose account
// link can be set or cleared manually by the operator before commit.
type Jobsite struct {
	ID         string     `json:"id" db:"id"`
	TenantID   string     `json:"tenant_id" db:"tenant_id"`
	ExternalID string     `json:"external_id" db:"external_id"`
	AccountID  *string    `json:"account_id" db:"account_id"`
	ContactID  *string    `json:"contact_id" db:"contact_id"`
	Name       string     `json:"name,omitempty" db:"name"`
	Street     string     `json:"street,omitempty" db:"street"`
	City       string     `json:"city,omitempty" db:"city"`
	State      string     `json:"state,omitempty" db:"state"`
	Zip        string     `json:"zip,omitempty" db:"zip"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`

	// LinkedBy records which cascade strategy resolved AccountID, or
	// "manual" when the operator set the link. Derived, never persisted.
	LinkedBy string `json:"linked_by,omitempty" db:"-"`
	// ManualLink is true when the operator overrode the automatic cascade.
	ManualLink bool `json:"manual_link,omitempty" db:"-"`
}

// JobsiteListResponse is the response for listing jobsites
type JobsiteListResponse struct {
	Success bool      `json:"success"`
	Data    []Jobsite `json:"data"`
}

// LinkJobsiteRequest sets or clears a jobsite's account link. A nil
// AccountID clears the link.
type LinkJobsiteRequest struct {
	AccountID *string `json:"account_id"`
}
