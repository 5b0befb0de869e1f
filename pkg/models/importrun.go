package models

import (
	"time"

	"github.com/Ramsey-B/clover/pkg/database"
)

// Import run statuses.
const (
	ImportRunStatusSuccess = "success"
	ImportRunStatusPartial = "partial"
)

// EntityCommitResult reports the outcome of committing one record type.
// Failed counts records in chunks whose upsert call failed; those chunks
// are skipped, never retried, and the commit continues.
type EntityCommitResult struct {
	Entity  string   `json:"entity"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Failed  int      `json:"failed"`
	Errors  []string `json:"errors,omitempty"`
}

// CommitResult is the record-count-accurate outcome of one import
// commit. Success is true even under partial failure; Errors carries the
// per-chunk messages for operator review.
type CommitResult struct {
	Success   bool                 `json:"success"`
	RunID     string               `json:"run_id"`
	Status    string               `json:"status"`
	Entities  []EntityCommitResult `json:"entities"`
	Errors    []string             `json:"errors,omitempty"`
	StartedAt time.Time            `json:"started_at"`
	Duration  string               `json:"duration"`
}

// ImportRun is the persisted audit record of one commit.
type ImportRun struct {
	ID         string                               `json:"id" db:"id"`
	TenantID   string                               `json:"tenant_id" db:"tenant_id"`
	SessionID  string                               `json:"session_id" db:"session_id"`
	Status     string                               `json:"status" db:"status"`
	MergeStats database.JSONB[MergeStats]           `json:"merge_stats" db:"merge_stats"`
	Entities   database.JSONB[[]EntityCommitResult] `json:"entities" db:"entities"`
	Errors     database.JSONB[[]string]             `json:"errors" db:"errors"`
	StartedAt  time.Time                            `json:"started_at" db:"started_at"`
	FinishedAt time.Time                            `json:"finished_at" db:"finished_at"`
}

// ImportRunListResponse is the response for listing import runs.
type ImportRunListResponse struct {
	Success bool        `json:"success"`
	Data    []ImportRun `json:"data"`
}

// PurgeOrphansRequest names stored records the operator confirmed for
// deletion. EntityType is one of accounts, contacts, estimates, jobsites.
type PurgeOrphansRequest struct {
	EntityType  string   `json:"entity_type" validate:"required,oneof=accounts contacts estimates jobsites"`
	ExternalIDs []string `json:"external_ids" validate:"required,min=1"`
}

// PurgeOrphansResponse reports how many records were soft deleted.
type PurgeOrphansResponse struct {
	Success bool  `json:"success"`
	Deleted int64 `json:"deleted"`
}
