package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SheetKind identifies one of the four fixed import layouts.
type SheetKind string

const (
	SheetKindContacts  SheetKind = "contacts"
	SheetKindLeads     SheetKind = "leads"
	SheetKindEstimates SheetKind = "estimates"
	SheetKindJobsites  SheetKind = "jobsites"
)

// SheetKinds lists all layouts an import needs before the merge can run.
var SheetKinds = []SheetKind{SheetKindContacts, SheetKindLeads, SheetKindEstimates, SheetKindJobsites}

// IsValid reports whether k names a known layout.
func (k SheetKind) IsValid() bool {
	switch k {
	case SheetKindContacts, SheetKindLeads, SheetKindEstimates, SheetKindJobsites:
		return true
	}
	return false
}

// ParseStats summarizes a single sheet parse. Error is set only when the
// input is not recognizable as the expected layout at all; individual
// malformed rows are skipped and counted in Skipped.
type ParseStats struct {
	Rows    int    `json:"rows"`
	Parsed  int    `json:"parsed"`
	Skipped int    `json:"skipped"`
	Error   string `json:"error,omitempty"`
}

// ContactRow is a normalized row from the Contacts Export sheet.
type ContactRow struct {
	AccountID   string   `json:"account_id"`
	AccountName string   `json:"account_name"`
	AccountType string   `json:"account_type"`
	Tags        []string `json:"tags"`
	Archived    bool     `json:"archived"`
	ContactID   string   `json:"contact_id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Phone       string   `json:"phone"`
	Street      string   `json:"street"`
	City        string   `json:"city"`
	State       string   `json:"state"`
	Zip         string   `json:"zip"`
}

// LeadRow is a normalized row from the Leads List sheet. ContactID is
// optional; rows without one fall back to email/phone matching and may
// synthesize a new contact.
type LeadRow struct {
	ContactID  string `json:"contact_id"`
	Name       string `json:"name"`
	Company    string `json:"company"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	DoNotEmail bool   `json:"do_not_email"`
	DoNotMail  bool   `json:"do_not_mail"`
	DoNotCall  bool   `json:"do_not_call"`
}

// EstimateRow is a normalized row from the Estimates List sheet.
type EstimateRow struct {
	EstimateID    string          `json:"estimate_id"`
	ContactID     string          `json:"contact_id"`
	ClientName    string          `json:"client_name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone"`
	Status        string          `json:"status"`
	Tags          []string        `json:"tags"`
	Street        string          `json:"street"`
	City          string          `json:"city"`
	State         string          `json:"state"`
	Zip           string          `json:"zip"`
	EstimateDate  *time.Time      `json:"estimate_date,omitempty"`
	ContractStart *time.Time      `json:"contract_start,omitempty"`
	ContractEnd   *time.Time      `json:"contract_end,omitempty"`
	Total         decimal.Decimal `json:"total"`
}

// JobsiteRow is a normalized row from the Jobsite Export sheet.
type JobsiteRow struct {
	JobsiteID string `json:"jobsite_id"`
	Name      string `json:"name"`
	ContactID string `json:"contact_id"`
	Street    string `json:"street"`
	City      string `json:"city"`
	State     string `json:"state"`
	Zip       string `json:"zip"`
}

// ParsedSheets holds the parsed output of all four layouts for one
// import session. The merge runs only once every sheet is present.
type ParsedSheets struct {
	Contacts  []ContactRow  `json:"contacts"`
	Leads     []LeadRow     `json:"leads"`
	Estimates []EstimateRow `json:"estimates"`
	Jobsites  []JobsiteRow  `json:"jobsites"`

	Present map[SheetKind]bool       `json:"present"`
	Stats   map[SheetKind]ParseStats `json:"stats"`
}

// NewParsedSheets returns an empty ParsedSheets.
func NewParsedSheets() *ParsedSheets {
	return &ParsedSheets{
		Present: make(map[SheetKind]bool),
		Stats:   make(map[SheetKind]ParseStats),
	}
}

// Clone returns a copy that is safe to read while new uploads land.
// Uploads replace whole row slices and never mutate rows in place, so
// the row slices can be shared; the maps are copied.
func (p *ParsedSheets) Clone() *ParsedSheets {
	clone := *p
	clone.Present = make(map[SheetKind]bool, len(p.Present))
	for kind, present := range p.Present {
		clone.Present[kind] = present
	}
	clone.Stats = make(map[SheetKind]ParseStats, len(p.Stats))
	for kind, stats := range p.Stats {
		clone.Stats[kind] = stats
	}
	return &clone
}

// Complete reports whether all four layouts have been parsed.
func (p *ParsedSheets) Complete() bool {
	for _, kind := range SheetKinds {
		if !p.Present[kind] {
			return false
		}
	}
	return true
}

// Missing returns the layouts that have not been uploaded yet.
func (p *ParsedSheets) Missing() []SheetKind {
	var missing []SheetKind
	for _, kind := range SheetKinds {
		if !p.Present[kind] {
			missing = append(missing, kind)
		}
	}
	return missing
}
