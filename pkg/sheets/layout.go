// Package sheets parses the four fixed CRM export layouts into
// normalized row records. Column names are configuration owned by the
// upstream exporting system, never hard-coded positions.
package sheets

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Layout maps logical field names to the header names one export layout
// uses. Header lookup is case-insensitive and trimmed. A field listed in
// Required must appear in the header row or the sheet is rejected as
// unrecognizable.
type Layout struct {
	Kind     models.SheetKind  `json:"kind"`
	Headers  map[string]string `json:"headers"`
	Required []string          `json:"required"`
}

// Field names shared across layouts.
const (
	FieldAccountID     = "account_id"
	FieldAccountName   = "account_name"
	FieldAccountType   = "account_type"
	FieldTags          = "tags"
	FieldArchived      = "archived"
	FieldContactID     = "contact_id"
	FieldName          = "name"
	FieldCompany       = "company"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldStreet        = "street"
	FieldCity          = "city"
	FieldState         = "state"
	FieldZip           = "zip"
	FieldDoNotEmail    = "do_not_email"
	FieldDoNotMail     = "do_not_mail"
	FieldDoNotCall     = "do_not_call"
	FieldEstimateID    = "estimate_id"
	FieldClientName    = "client_name"
	FieldStatus        = "status"
	FieldEstimateDate  = "estimate_date"
	FieldContractStart = "contract_start"
	FieldContractEnd   = "contract_end"
	FieldTotal         = "total"
	FieldJobsiteID     = "jobsite_id"
)

// DefaultLayouts returns the column mappings the upstream CRM ships with.
// Deployments with customized export columns override these from a JSON
// file via LoadLayouts.
func DefaultLayouts() map[models.SheetKind]Layout {
	return map[models.SheetKind]Layout{
		models.SheetKindContacts: {
			Kind: models.SheetKindContacts,
			Headers: map[string]string{
				FieldAccountID:   "Account ID",
				FieldAccountName: "Account Name",
				FieldAccountType: "Account Type",
				FieldTags:        "Tags",
				FieldArchived:    "Archived",
				FieldContactID:   "Contact ID",
				FieldName:        "Contact Name",
				FieldEmail:       "Email",
				FieldPhone:       "Phone",
				FieldStreet:      "Street",
				FieldCity:        "City",
				FieldState:       "State",
				FieldZip:         "Zip",
			},
			Required: []string{FieldAccountID, FieldContactID, FieldName},
		},
		models.SheetKindLeads: {
			Kind: models.SheetKindLeads,
			Headers: map[string]string{
				FieldContactID:  "Contact ID",
				FieldName:       "Name",
				FieldCompany:    "Company",
				FieldEmail:      "Email",
				FieldPhone:      "Phone",
				FieldDoNotEmail: "Do Not Email",
				FieldDoNotMail:  "Do Not Mail",
				FieldDoNotCall:  "Do Not Call",
			},
			Required: []string{FieldName},
		},
		models.SheetKindEstimates: {
			Kind: models.SheetKindEstimates,
			Headers: map[string]string{
				FieldEstimateID:    "Estimate ID",
				FieldContactID:     "Contact ID",
				FieldClientName:    "Client Name",
				FieldEmail:         "Email",
				FieldPhone:         "Phone",
				FieldStatus:        "Status",
				FieldTags:          "Tags",
				FieldStreet:        "Street",
				FieldCity:          "City",
				FieldState:         "State",
				FieldZip:           "Zip",
				FieldEstimateDate:  "Estimate Date",
				FieldContractStart: "Contract Start",
				FieldContractEnd:   "Contract End",
				FieldTotal:         "Total",
			},
			Required: []string{FieldEstimateID, FieldStatus},
		},
		models.SheetKindJobsites: {
			Kind: models.SheetKindJobsites,
			Headers: map[string]string{
				FieldJobsiteID: "Jobsite ID",
				FieldName:      "Jobsite Name",
				FieldContactID: "Contact ID",
				FieldStreet:    "Street",
				FieldCity:      "City",
				FieldState:     "State",
				FieldZip:       "Zip",
			},
			Required: []string{FieldJobsiteID, FieldStreet},
		},
	}
}

// LoadLayouts merges layout overrides from a JSON file over the
// defaults. An empty path returns the defaults unchanged.
func LoadLayouts(path string) (map[models.SheetKind]Layout, error) {
	layouts := DefaultLayouts()
	if path == "" {
		return layouts, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read layout file %s: %w", path, err)
	}

	var overrides []Layout
	if err := json.Unmarshal(raw, &overrides); err != nil {
		return nil, fmt.Errorf("failed to parse layout file %s: %w", path, err)
	}

	for _, o := range overrides {
		if !o.Kind.IsValid() {
			return nil, fmt.Errorf("layout file %s: unknown sheet kind %q", path, o.Kind)
		}
		base := layouts[o.Kind]
		for field, header := range o.Headers {
			base.Headers[field] = header
		}
		if len(o.Required) > 0 {
			base.Required = o.Required
		}
		layouts[o.Kind] = base
	}

	return layouts, nil
}

// columnIndex resolves the layout's headers against the sheet's header
// row. Missing required columns make the sheet unrecognizable.
func columnIndex(header []string, layout Layout) (map[string]int, error) {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}

	index := make(map[string]int, len(layout.Headers))
	for field, name := range layout.Headers {
		if i, ok := byName[strings.ToLower(strings.TrimSpace(name))]; ok {
			index[field] = i
		}
	}

	var missing []string
	for _, field := range layout.Required {
		if _, ok := index[field]; !ok {
			missing = append(missing, layout.Headers[field])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("header row is missing expected columns: %s", strings.Join(missing, ", "))
	}

	return index, nil
}
