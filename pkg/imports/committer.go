package imports

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"

	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/identity"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/tracing"
)

// Commit pushes the merge output to storage: sequential per-entity bulk
// upserts in fixed-size chunks, no retries. A failed chunk adds its
// record count to the entity's failure counter and the commit moves on;
// partial failure is an expected outcome the operator reviews, never an
// abort. A per-tenant lock rejects concurrent commits.
func (s *Service) Commit(ctx context.Context, tenantID, sessionID string) (*models.CommitResult, error) {
	ctx, span := tracing.StartSpan(ctx, "imports.Service.Commit")
	defer span.End()

	session, err := s.store.Get(tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	merged, err := s.runMerge(ctx, session)
	if err != nil {
		return nil, err
	}

	lock, err := s.locker.Acquire(ctx, "import:"+tenantID, s.lockTTL)
	if err != nil {
		if errors.Is(err, redis.ErrLockNotAcquired) {
			return nil, httperror.NewHTTPError(http.StatusConflict, "an import commit is already in progress for this tenant")
		}
		return nil, err
	}
	defer lock.Release(ctx)

	start := time.Now().UTC()
	valid := identity.ExtractValidIDs(session.Sheets.Contacts, session.Sheets.Leads, session.Sheets.Estimates, session.Sheets.Jobsites)
	clearDanglingRefs(merged, valid)

	result := &models.CommitResult{
		Success:   true,
		StartedAt: start,
	}

	contacts, skippedNoID := committableContacts(merged.Contacts)
	if skippedNoID > 0 {
		result.Errors = append(result.Errors, fmt.Sprintf("%d contacts synthesized from leads have no external ID and were not committed", skippedNoID))
	}

	result.Entities = append(result.Entities, commitChunks(ctx, s, "accounts", merged.Accounts, tenantID, s.accounts.BulkUpsert))
	result.Entities = append(result.Entities, commitChunks(ctx, s, "contacts", contacts, tenantID, s.contacts.BulkUpsert))
	result.Entities = append(result.Entities, commitChunks(ctx, s, "estimates", merged.Estimates, tenantID, s.estimates.BulkUpsert))
	result.Entities = append(result.Entities, commitChunks(ctx, s, "jobsites", merged.Jobsites, tenantID, s.jobsites.BulkUpsert))

	result.Status = models.ImportRunStatusSuccess
	for _, entity := range result.Entities {
		result.Errors = append(result.Errors, entity.Errors...)
		if entity.Failed > 0 {
			result.Status = models.ImportRunStatusPartial
		}
	}
	finished := time.Now().UTC()
	result.Duration = finished.Sub(start).String()

	run, err := s.runs.Create(ctx, models.ImportRun{
		TenantID:   tenantID,
		SessionID:  sessionID,
		Status:     result.Status,
		MergeStats: database.NewJSONB(merged.Stats),
		Entities:   database.NewJSONB(result.Entities),
		Errors:     database.NewJSONB(result.Errors),
		StartedAt:  start,
		FinishedAt: finished,
	})
	if err != nil {
		// The upserts already landed; surface the commit with a bookkeeping
		// error rather than failing it.
		s.logger.WithContext(ctx).WithError(err).Error("Failed to persist import run")
		result.Errors = append(result.Errors, "failed to persist import run record")
	} else {
		result.RunID = run.ID
	}

	metrics.CommitsTotal.WithLabelValues(tenantID, result.Status).Inc()
	metrics.CommitDuration.WithLabelValues(tenantID).Observe(finished.Sub(start).Seconds())
	if s.emitter != nil {
		s.emitter.EmitImportCommitted(ctx, events.ImportCommittedEvent{
			TenantID:  tenantID,
			RunID:     result.RunID,
			SessionID: sessionID,
			Status:    result.Status,
			Entities:  result.Entities,
		})
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"session_id": sessionID,
		"run_id":     result.RunID,
		"status":     result.Status,
		"duration":   result.Duration,
	}).Info("Committed import")

	return result, nil
}

// commitChunks upserts one entity type in chunks. Chunking exists to
// bound statement size, not for throughput; chunks run sequentially.
func commitChunks[T any](ctx context.Context, s *Service, entity string, records []T, tenantID string, upsert func(context.Context, string, []T) (int, int, error)) models.EntityCommitResult {
	ctx, span := tracing.StartSpan(ctx, "imports.commitChunks."+entity)
	defer span.End()

	result := models.EntityCommitResult{Entity: entity}
	for offset := 0; offset < len(records); offset += s.chunkSize {
		end := offset + s.chunkSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[offset:end]

		created, updated, err := upsert(ctx, tenantID, chunk)
		if err != nil {
			result.Failed += len(chunk)
			result.Errors = append(result.Errors, fmt.Sprintf("%s chunk %d-%d failed: %v", entity, offset, end, err))
			metrics.ChunksFailedTotal.WithLabelValues(entity).Inc()
			metrics.RecordsCommittedTotal.WithLabelValues(entity, "failed").Add(float64(len(chunk)))
			s.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
				"entity": entity,
				"offset": offset,
				"size":   len(chunk),
			}).Error("Bulk upsert chunk failed")
			continue
		}
		result.Created += created
		result.Updated += updated
		metrics.RecordsCommittedTotal.WithLabelValues(entity, "created").Add(float64(created))
		metrics.RecordsCommittedTotal.WithLabelValues(entity, "updated").Add(float64(updated))
	}
	return result
}

// committableContacts filters out contacts with no external ID. Those
// are lead-synthesized records the operator reviews in the preview; a
// record is never written under a fabricated identity.
func committableContacts(contacts []models.Contact) ([]models.Contact, int) {
	out := make([]models.Contact, 0, len(contacts))
	skipped := 0
	for _, c := range contacts {
		if c.ExternalID == "" {
			skipped++
			continue
		}
		out = append(out, c)
	}
	return out, skipped
}

// clearDanglingRefs nulls references that point outside the valid-ID
// universe before commit, matching the validator's warning semantics.
func clearDanglingRefs(merged *models.MergeResult, valid models.ValidIDs) {
	for i := range merged.Contacts {
		if ref := merged.Contacts[i].AccountID; ref != nil && !valid.AccountIDs.Has(*ref) {
			merged.Contacts[i].AccountID = nil
		}
	}
	for i := range merged.Estimates {
		if ref := merged.Estimates[i].AccountID; ref != nil && !valid.AccountIDs.Has(*ref) {
			merged.Estimates[i].AccountID = nil
		}
		if ref := merged.Estimates[i].ContactID; ref != nil && !valid.ContactIDs.Has(*ref) {
			merged.Estimates[i].ContactID = nil
		}
	}
	for i := range merged.Jobsites {
		if ref := merged.Jobsites[i].AccountID; ref != nil && !valid.AccountIDs.Has(*ref) {
			merged.Jobsites[i].AccountID = nil
		}
		if ref := merged.Jobsites[i].ContactID; ref != nil && !valid.ContactIDs.Has(*ref) {
			merged.Jobsites[i].ContactID = nil
		}
	}
}
