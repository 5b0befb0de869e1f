// Package imports orchestrates the bulk import workflow: sheet uploads,
// the merge preview, comparison against stored data, reference
// validation, manual jobsite linking and the final commit.
package imports

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/clover/pkg/compare"
	"github.com/Ramsey-B/clover/pkg/events"
	"github.com/Ramsey-B/clover/pkg/identity"
	"github.com/Ramsey-B/clover/pkg/merge"
	"github.com/Ramsey-B/clover/pkg/metrics"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/sheets"
	"github.com/Ramsey-B/clover/pkg/tracing"
	"github.com/Ramsey-B/clover/pkg/validate"
)

// AccountRepository is the account persistence the service depends on.
type AccountRepository interface {
	List(ctx context.Context, tenantID string) ([]models.Account, error)
	BulkUpsert(ctx context.Context, tenantID string, accounts []models.Account) (created, updated int, err error)
	SoftDeleteByExternalIDs(ctx context.Context, tenantID string, externalIDs []string) (int64, error)
}

// ContactRepository is the contact persistence the service depends on.
type ContactRepository interface {
	List(ctx context.Context, tenantID string) ([]models.Contact, error)
	BulkUpsert(ctx context.Context, tenantID string, contacts []models.Contact) (created, updated int, err error)
	SoftDeleteByExternalIDs(ctx context.Context, tenantID string, externalIDs []string) (int64, error)
}

// EstimateRepository is the estimate persistence the service depends on.
type EstimateRepository interface {
	List(ctx context.Context, tenantID string) ([]models.Estimate, error)
	BulkUpsert(ctx context.Context, tenantID string, estimates []models.Estimate) (created, updated int, err error)
	SoftDeleteByExternalIDs(ctx context.Context, tenantID string, externalIDs []string) (int64, error)
}

// JobsiteRepository is the jobsite persistence the service depends on.
type JobsiteRepository interface {
	List(ctx context.Context, tenantID string) ([]models.Jobsite, error)
	BulkUpsert(ctx context.Context, tenantID string, jobsites []models.Jobsite) (created, updated int, err error)
	SoftDeleteByExternalIDs(ctx context.Context, tenantID string, externalIDs []string) (int64, error)
}

// RunRepository persists the audit trail of committed imports.
type RunRepository interface {
	Create(ctx context.Context, run models.ImportRun) (*models.ImportRun, error)
	List(ctx context.Context, tenantID string, limit int) ([]models.ImportRun, error)
}

// Lock is a held commit lock.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker serializes commits per tenant. Acquire fails fast when the
// lock is already held.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}

// Service implements the import workflow.
type Service struct {
	store     *Store
	layouts   map[models.SheetKind]sheets.Layout
	accounts  AccountRepository
	contacts  ContactRepository
	estimates EstimateRepository
	jobsites  JobsiteRepository
	runs      RunRepository
	locker    Locker
	emitter   *events.Emitter
	logger    ectologger.Logger
	chunkSize int
	lockTTL   time.Duration
}

// Config holds the service's tunables.
type Config struct {
	ChunkSize  int
	LockTTL    time.Duration
	SessionTTL time.Duration
}

// NewService creates the import service.
func NewService(
	cfg Config,
	layouts map[models.SheetKind]sheets.Layout,
	accounts AccountRepository,
	contacts ContactRepository,
	estimates EstimateRepository,
	jobsites JobsiteRepository,
	runs RunRepository,
	locker Locker,
	emitter *events.Emitter,
	logger ectologger.Logger,
) *Service {
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = 500
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 10 * time.Minute
	}
	return &Service{
		store:     NewStore(cfg.SessionTTL),
		layouts:   layouts,
		accounts:  accounts,
		contacts:  contacts,
		estimates: estimates,
		jobsites:  jobsites,
		runs:      runs,
		locker:    locker,
		emitter:   emitter,
		logger:    logger,
		chunkSize: cfg.ChunkSize,
		lockTTL:   cfg.LockTTL,
	}
}

// CreateSession starts a new import session for the tenant.
func (s *Service) CreateSession(ctx context.Context, tenantID string) (*Session, error) {
	ctx, span := tracing.StartSpan(ctx, "imports.Service.CreateSession")
	defer span.End()

	session := s.store.Create(tenantID)
	s.logger.WithContext(ctx).WithField("session_id", session.ID).Info("Created import session")
	return session, nil
}

// GetSession returns a session with its parse progress.
func (s *Service) GetSession(ctx context.Context, tenantID, sessionID string) (*Session, error) {
	_, span := tracing.StartSpan(ctx, "imports.Service.GetSession")
	defer span.End()

	return s.store.Get(tenantID, sessionID)
}

// UploadSheet parses one uploaded export file into the session. Each
// upload replaces any earlier upload of the same kind. A structural
// error (unrecognizable layout) is returned as a 422 and the sheet is
// not stored.
func (s *Service) UploadSheet(ctx context.Context, tenantID, sessionID string, kind models.SheetKind, filename string, file io.Reader) (models.ParseStats, error) {
	ctx, span := tracing.StartSpan(ctx, "imports.Service.UploadSheet")
	defer span.End()

	if !kind.IsValid() {
		return models.ParseStats{}, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown sheet kind %q", kind)
	}

	rows, err := sheets.ReadRows(filename, file)
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).WithField("kind", string(kind)).Warn("Failed to read uploaded sheet")
		return models.ParseStats{}, httperror.NewHTTPErrorf(http.StatusUnprocessableEntity, "unreadable %s file: %v", kind, err)
	}

	layout := s.layouts[kind]
	var stats models.ParseStats
	var apply func(*Session)

	switch kind {
	case models.SheetKindContacts:
		var parsed []models.ContactRow
		parsed, stats = sheets.ParseContacts(rows, layout)
		apply = func(sess *Session) { sess.Sheets.Contacts = parsed }
	case models.SheetKindLeads:
		var parsed []models.LeadRow
		parsed, stats = sheets.ParseLeads(rows, layout)
		apply = func(sess *Session) { sess.Sheets.Leads = parsed }
	case models.SheetKindEstimates:
		var parsed []models.EstimateRow
		parsed, stats = sheets.ParseEstimates(rows, layout)
		apply = func(sess *Session) { sess.Sheets.Estimates = parsed }
	case models.SheetKindJobsites:
		var parsed []models.JobsiteRow
		parsed, stats = sheets.ParseJobsites(rows, layout)
		apply = func(sess *Session) { sess.Sheets.Jobsites = parsed }
	}

	if stats.Error != "" {
		metrics.SheetsParsedTotal.WithLabelValues(tenantID, string(kind), "rejected").Inc()
		return stats, httperror.NewHTTPErrorf(http.StatusUnprocessableEntity, "%s sheet rejected: %s", kind, stats.Error)
	}

	err = s.store.Update(tenantID, sessionID, func(sess *Session) error {
		apply(sess)
		sess.Sheets.Present[kind] = true
		sess.Sheets.Stats[kind] = stats
		return nil
	})
	if err != nil {
		return models.ParseStats{}, err
	}

	metrics.SheetsParsedTotal.WithLabelValues(tenantID, string(kind), "accepted").Inc()
	metrics.RowsParsedTotal.WithLabelValues(string(kind), "parsed").Add(float64(stats.Parsed))
	metrics.RowsParsedTotal.WithLabelValues(string(kind), "skipped").Add(float64(stats.Skipped))

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"session_id": sessionID,
		"kind":       string(kind),
		"rows":       stats.Rows,
		"parsed":     stats.Parsed,
		"skipped":    stats.Skipped,
	}).Info("Parsed import sheet")

	return stats, nil
}

// Preview runs the merge over the session's sheets with the operator's
// manual jobsite links applied. It requires all four sheets.
func (s *Service) Preview(ctx context.Context, tenantID, sessionID string) (*models.MergeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "imports.Service.Preview")
	defer span.End()

	session, err := s.store.Get(tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.runMerge(ctx, session)
}

func (s *Service) runMerge(ctx context.Context, session *Session) (*models.MergeResult, error) {
	_, span := tracing.StartSpan(ctx, "imports.Service.runMerge")
	defer span.End()

	if !session.Sheets.Complete() {
		missing := make([]string, 0, 4)
		for _, kind := range session.Sheets.Missing() {
			missing = append(missing, string(kind))
		}
		return nil, httperror.NewHTTPErrorf(http.StatusConflict, "merge requires all four sheets; missing: %s", strings.Join(missing, ", "))
	}

	start := time.Now()
	result := merge.Merge(session.Sheets)
	merge.ApplyJobsiteLinks(result, session.Overrides)
	metrics.MergeRunsTotal.WithLabelValues(session.TenantID).Inc()
	metrics.MergeDuration.Observe(time.Since(start).Seconds())
	recordLinkMetrics("estimate", result.Stats.EstimateLinking)
	recordLinkMetrics("jobsite", result.Stats.JobsiteLinking)
	return result, nil
}

func recordLinkMetrics(recordType string, stats models.LinkStats) {
	for strategy, linked := range map[string]int{
		models.LinkedByContact: stats.LinkedByContact,
		models.LinkedByEmail:   stats.LinkedByEmail,
		models.LinkedByPhone:   stats.LinkedByPhone,
		models.LinkedByTags:    stats.LinkedByTags,
		models.LinkedByAddress: stats.LinkedByAddress,
		models.LinkedByName:    stats.LinkedByName,
		models.LinkedByFuzzy:   stats.LinkedByFuzzy,
	} {
		if linked > 0 {
			metrics.RecordsLinkedTotal.WithLabelValues(recordType, strategy).Add(float64(linked))
		}
	}
}

// Comparison diffs the merge output against the records in storage.
func (s *Service) Comparison(ctx context.Context, tenantID, sessionID string) (*models.ComparisonResult, error) {
	ctx, span := tracing.StartSpan(ctx, "imports.Service.Comparison")
	defer span.End()

	session, err := s.store.Get(tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	merged, err := s.runMerge(ctx, session)
	if err != nil {
		return nil, err
	}

	existing, err := s.fetchExisting(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	valid := identity.ExtractValidIDs(session.Sheets.Contacts, session.Sheets.Leads, session.Sheets.Estimates, session.Sheets.Jobsites)
	return compare.Compare(merged, existing, valid), nil
}

// Validation checks every estimate and jobsite reference in the merge
// output against the sheets' valid-ID sets.
func (s *Service) Validation(ctx context.Context, tenantID, sessionID string) (*models.ValidationResult, error) {
	ctx, span := tracing.StartSpan(ctx, "imports.Service.Validation")
	defer span.End()

	session, err := s.store.Get(tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	merged, err := s.runMerge(ctx, session)
	if err != nil {
		return nil, err
	}

	valid := identity.ExtractValidIDs(session.Sheets.Contacts, session.Sheets.Leads, session.Sheets.Estimates, session.Sheets.Jobsites)
	return validate.ValidateReferences(merged, valid), nil
}

// LinkJobsite sets or clears a jobsite's account link and returns the
// recomputed merge result. The override lives with the session until
// commit, so the automatic cascade's answer is never lost.
func (s *Service) LinkJobsite(ctx context.Context, tenantID, sessionID, externalID string, req models.LinkJobsiteRequest) (*models.MergeResult, error) {
	ctx, span := tracing.StartSpan(ctx, "imports.Service.LinkJobsite")
	defer span.End()

	session, err := s.store.Get(tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	merged, err := s.runMerge(ctx, session)
	if err != nil {
		return nil, err
	}

	found := false
	for _, js := range merged.Jobsites {
		if js.ExternalID == externalID {
			found = true
			break
		}
	}
	if !found {
		return nil, httperror.NewHTTPErrorf(http.StatusNotFound, "jobsite %s not present in this import", externalID)
	}

	if req.AccountID != nil && *req.AccountID != "" {
		known := false
		for _, a := range merged.Accounts {
			if a.ExternalID == *req.AccountID {
				known = true
				break
			}
		}
		if !known {
			return nil, httperror.NewHTTPErrorf(http.StatusUnprocessableEntity, "account %s not present in this import", *req.AccountID)
		}
	}

	err = s.store.Update(tenantID, sessionID, func(sess *Session) error {
		sess.Overrides[externalID] = req.AccountID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"session_id":  sessionID,
		"external_id": externalID,
		"linked":      req.AccountID != nil,
	}).Info("Applied manual jobsite link")

	// Re-read so the merge sees the override just stored.
	session, err = s.store.Get(tenantID, sessionID)
	if err != nil {
		return nil, err
	}
	return s.runMerge(ctx, session)
}

// ImportRuns lists the tenant's committed import runs.
func (s *Service) ImportRuns(ctx context.Context, tenantID string, limit int) ([]models.ImportRun, error) {
	ctx, span := tracing.StartSpan(ctx, "imports.Service.ImportRuns")
	defer span.End()

	return s.runs.List(ctx, tenantID, limit)
}

// PurgeOrphans soft deletes operator-confirmed orphaned records of one
// entity type. Never called automatically.
func (s *Service) PurgeOrphans(ctx context.Context, tenantID string, req models.PurgeOrphansRequest) (int64, error) {
	ctx, span := tracing.StartSpan(ctx, "imports.Service.PurgeOrphans")
	defer span.End()

	var deleted int64
	var err error
	switch req.EntityType {
	case "accounts":
		deleted, err = s.accounts.SoftDeleteByExternalIDs(ctx, tenantID, req.ExternalIDs)
	case "contacts":
		deleted, err = s.contacts.SoftDeleteByExternalIDs(ctx, tenantID, req.ExternalIDs)
	case "estimates":
		deleted, err = s.estimates.SoftDeleteByExternalIDs(ctx, tenantID, req.ExternalIDs)
	case "jobsites":
		deleted, err = s.jobsites.SoftDeleteByExternalIDs(ctx, tenantID, req.ExternalIDs)
	default:
		return 0, httperror.NewHTTPErrorf(http.StatusBadRequest, "unknown entity type %q", req.EntityType)
	}
	if err != nil {
		return 0, err
	}

	metrics.RecordsPurgedTotal.WithLabelValues(tenantID, req.EntityType).Add(float64(deleted))
	if s.emitter != nil {
		s.emitter.EmitRecordsPurged(ctx, events.RecordsPurgedEvent{
			TenantID:    tenantID,
			EntityType:  req.EntityType,
			ExternalIDs: req.ExternalIDs,
			Deleted:     deleted,
		})
	}

	s.logger.WithContext(ctx).WithFields(map[string]any{
		"entity_type": req.EntityType,
		"requested":   len(req.ExternalIDs),
		"deleted":     deleted,
	}).Info("Purged orphaned records")

	return deleted, nil
}

func (s *Service) fetchExisting(ctx context.Context, tenantID string) (compare.Existing, error) {
	ctx, span := tracing.StartSpan(ctx, "imports.Service.fetchExisting")
	defer span.End()

	var existing compare.Existing
	var err error
	if existing.Accounts, err = s.accounts.List(ctx, tenantID); err != nil {
		return existing, err
	}
	if existing.Contacts, err = s.contacts.List(ctx, tenantID); err != nil {
		return existing, err
	}
	if existing.Estimates, err = s.estimates.List(ctx, tenantID); err != nil {
		return existing, err
	}
	if existing.Jobsites, err = s.jobsites.List(ctx, tenantID); err != nil {
		return existing, err
	}
	return existing, nil
}
