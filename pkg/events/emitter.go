// Package events handles event emission for import lifecycle changes
package events

import (
	"context"
	"time"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/kafka"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Event types emitted around the import workflow.
const (
	EventImportCommitted = "import.committed"
	EventRecordsPurged   = "records.purged"
)

// ImportCommittedEvent is emitted once per commit, after the per-entity
// upserts finish, successful or partial.
type ImportCommittedEvent struct {
	TenantID  string                      `json:"tenant_id"`
	RunID     string                      `json:"run_id"`
	SessionID string                      `json:"session_id"`
	Status    string                      `json:"status"`
	Entities  []models.EntityCommitResult `json:"entities"`
	Timestamp time.Time                   `json:"timestamp"`
}

// RecordsPurgedEvent is emitted after an operator-confirmed orphan purge.
type RecordsPurgedEvent struct {
	TenantID    string    `json:"tenant_id"`
	EntityType  string    `json:"entity_type"`
	ExternalIDs []string  `json:"external_ids"`
	Deleted     int64     `json:"deleted"`
	Timestamp   time.Time `json:"timestamp"`
}

// Emitter publishes import workflow events. A nil producer disables
// emission, keeping event publishing optional in tests and local runs.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitImportCommitted emits an import.committed event. Emission failures
// are logged and swallowed; the commit already happened.
func (e *Emitter) EmitImportCommitted(ctx context.Context, event ImportCommittedEvent) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitImportCommitted")
	defer span.End()

	if e.producer == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	if err := e.producer.Publish(ctx, EventImportCommitted, event.TenantID, event.RunID, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit import.committed event")
	}
}

// EmitRecordsPurged emits a records.purged event.
func (e *Emitter) EmitRecordsPurged(ctx context.Context, event RecordsPurgedEvent) {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitRecordsPurged")
	defer span.End()

	if e.producer == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	if err := e.producer.Publish(ctx, EventRecordsPurged, event.TenantID, event.EntityType, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit records.purged event")
	}
}
