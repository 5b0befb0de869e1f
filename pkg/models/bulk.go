package models

// BulkActionUpsert is the only action the bulk endpoints accept.
const BulkActionUpsert = "bulk_upsert"

// DefaultLookupField is the field bulk upserts match on.
const DefaultLookupField = "external_id"

// BulkUpsertData carries the records for one bulk upsert. Exactly one of
// the entity slices is populated, matching the endpoint it was posted to.
type BulkUpsertData struct {
	Accounts    []Account  `json:"accounts,omitempty"`
	Contacts    []Contact  `json:"contacts,omitempty"`
	Estimates   []Estimate `json:"estimates,omitempty"`
	Jobsites    []Jobsite  `json:"jobsites,omitempty"`
	LookupField string     `json:"lookupField"`
}

// BulkRequest is the action envelope accepted by the per-entity bulk
// endpoints.
type BulkRequest struct {
	Action string         `json:"action" validate:"required"`
	Data   BulkUpsertData `json:"data"`
}

// BulkResponse reports created/updated counts for one bulk upsert call.
type BulkResponse struct {
	Success bool   `json:"success"`
	Created int    `json:"created"`
	Updated int    `json:"updated"`
	Total   int    `json:"total"`
	Error   string `json:"error,omitempty"`
}
