package models

import "time"

// Contact is a CRM contact. AccountID is a weak reference to an Account
// by external ID and may be null when no account could be attributed.
//
// Contacts normally originate from the Contacts Export sheet. A contact
// synthesized from a Leads List row that matched nothing is flagged
// NewFromLeads so the operator can review it before commit.
type Contact struct {
	ID           string     `json:"id" db:"id"`
	TenantID     string     `json:"tenant_id" db:"tenant_id"`
	ExternalID   string     `json:"external_id" db:"external_id"`
	AccountID    *string    `json:"account_id" db:"account_id"`
	Name         string     `json:"name" db:"name"`
	Email        string     `json:"email,omitempty" db:"email"`
	Phone        string     `json:"phone,omitempty" db:"phone"`
	DoNotEmail   bool       `json:"do_not_email" db:"do_not_email"`
	DoNotMail    bool       `json:"do_not_mail" db:"do_not_mail"`
	DoNotCall    bool       `json:"do_not_call" db:"do_not_call"`
	NewFromLeads bool       `json:"new_from_leads" db:"new_from_leads"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
}

// ContactListResponse is the response for listing contacts
type ContactListResponse struct {
	Success bool      `json:"success"`
	Data    []Contact `json:"data"`
}
