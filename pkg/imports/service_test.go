package imports

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/redis"
	"github.com/Ramsey-B/clover/pkg/sheets"
)

const testTenant = "tenant-1"

type fakeRepo[T any] struct {
	stored    []T
	upserted  [][]T
	deleted   []string
	listErr   error
	upsertErr error
	created   int
	updated   int
}

func (f *fakeRepo[T]) List(ctx context.Context, tenantID string) ([]T, error) {
	return f.stored, f.listErr
}

func (f *fakeRepo[T]) BulkUpsert(ctx context.Context, tenantID string, records []T) (int, int, error) {
	if f.upsertErr != nil {
		return 0, 0, f.upsertErr
	}
	f.upserted = append(f.upserted, records)
	f.created += len(records)
	return len(records), 0, nil
}

func (f *fakeRepo[T]) SoftDeleteByExternalIDs(ctx context.Context, tenantID string, ids []string) (int64, error) {
	f.deleted = append(f.deleted, ids...)
	return int64(len(ids)), nil
}

type fakeRuns struct {
	runs []models.ImportRun
}

func (f *fakeRuns) Create(ctx context.Context, run models.ImportRun) (*models.ImportRun, error) {
	run.ID = "run-1"
	f.runs = append(f.runs, run)
	return &run, nil
}

func (f *fakeRuns) List(ctx context.Context, tenantID string, limit int) ([]models.ImportRun, error) {
	return f.runs, nil
}

type fakeLock struct{ released bool }

func (f *fakeLock) Release(ctx context.Context) error {
	f.released = true
	return nil
}

type fakeLocker struct {
	err  error
	lock *fakeLock
}

func (f *fakeLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (Lock, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.lock = &fakeLock{}
	return f.lock, nil
}

type testEnv struct {
	svc       *Service
	accounts  *fakeRepo[models.Account]
	contacts  *fakeRepo[models.Contact]
	estimates *fakeRepo[models.Estimate]
	jobsites  *fakeRepo[models.Jobsite]
	runs      *fakeRuns
	locker    *fakeLocker
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
	env := &testEnv{
		accounts:  &fakeRepo[models.Account]{},
		contacts:  &fakeRepo[models.Contact]{},
		estimates: &fakeRepo[models.Estimate]{},
		jobsites:  &fakeRepo[models.Jobsite]{},
		runs:      &fakeRuns{},
		locker:    &fakeLocker{},
	}
	env.svc = NewService(
		Config{ChunkSize: 2},
		sheets.DefaultLayouts(),
		env.accounts, env.contacts, env.estimates, env.jobsites,
		env.runs, env.locker, nil, logger,
	)
	return env
}

func uploadCSV(t *testing.T, env *testEnv, sessionID string, kind models.SheetKind, csv string) models.ParseStats {
	t.Helper()
	stats, err := env.svc.UploadSheet(context.Background(), testTenant, sessionID, kind, string(kind)+".csv", strings.NewReader(csv))
	require.NoError(t, err)
	return stats
}

func seedSession(t *testing.T, env *testEnv) string {
	t.Helper()
	session, err := env.svc.CreateSession(context.Background(), testTenant)
	require.NoError(t, err)

	uploadCSV(t, env, session.ID, models.SheetKindContacts,
		"Account ID,Account Name,Account Type,Tags,Archived,Contact ID,Contact Name,Email,Phone,Street,City,State,Zip\n"+
			"A1,Acme Roofing,commercial,roofing,false,C1,Jane Smith,jane@acme.com,555-111-2222,123 Main St,Springfield,IL,62701\n"+
			"A2,Jones Paving,,paving,false,C2,Bill Jones,bill@jones.com,,,,,\n")
	uploadCSV(t, env, session.ID, models.SheetKindLeads,
		"Contact ID,Name,Company,Email,Phone,Do Not Email,Do Not Mail,Do Not Call\n"+
			"C1,Jane Smith,,,,true,false,false\n")
	uploadCSV(t, env, session.ID, models.SheetKindEstimates,
		"Estimate ID,Contact ID,Client Name,Email,Phone,Status,Tags,Street,City,State,Zip,Estimate Date,Contract Start,Contract End,Total\n"+
			"E1,C1,,,,won,,,,,,,,,1200.00\n"+
			"E2,,Nobody Known,,,pending,,,,,,,,,\n")
	uploadCSV(t, env, session.ID, models.SheetKindJobsites,
		"Jobsite ID,Jobsite Name,Contact ID,Street,City,State,Zip\n"+
			"J1,Acme Yard,C1,9 Dock Rd,,,\n"+
			"J2,Lonely Site,,77 Nowhere Ln,,,\n")

	return session.ID
}

func TestPreviewRequiresAllFourSheets(t *testing.T) {
	env := newTestEnv(t)
	session, err := env.svc.CreateSession(context.Background(), testTenant)
	require.NoError(t, err)

	uploadCSV(t, env, session.ID, models.SheetKindLeads,
		"Contact ID,Name,Company,Email,Phone,Do Not Email,Do Not Mail,Do Not Call\n")

	_, err = env.svc.Preview(context.Background(), testTenant, session.ID)
	require.Error(t, err)
	assert.Equal(t, 409, httperror.GetStatusCode(err))
	assert.Contains(t, err.Error(), "contacts")
}

func TestUploadRejectsUnrecognizableLayout(t *testing.T) {
	env := newTestEnv(t)
	session, err := env.svc.CreateSession(context.Background(), testTenant)
	require.NoError(t, err)

	_, err = env.svc.UploadSheet(context.Background(), testTenant, session.ID, models.SheetKindContacts,
		"contacts.csv", strings.NewReader("Foo,Bar\n1,2\n"))
	require.Error(t, err)
	assert.Equal(t, 422, httperror.GetStatusCode(err))

	// The rejected sheet was not stored.
	stored, err := env.svc.GetSession(context.Background(), testTenant, session.ID)
	require.NoError(t, err)
	assert.False(t, stored.Sheets.Present[models.SheetKindContacts])
}

func TestPreviewMergesOnceComplete(t *testing.T) {
	env := newTestEnv(t)
	sessionID := seedSession(t, env)

	result, err := env.svc.Preview(context.Background(), testTenant, sessionID)
	require.NoError(t, err)

	assert.Len(t, result.Accounts, 2)
	assert.Equal(t, []string{"J2"}, result.OrphanedJobsites)

	// C1 got the lead's do-not-email flag by ID match.
	for _, c := range result.Contacts {
		if c.ExternalID == "C1" {
			assert.True(t, c.DoNotEmail)
		}
	}
}

func TestPreviewWarnsOnEstimateRowMissingID(t *testing.T) {
	env := newTestEnv(t)
	sessionID := seedSession(t, env)

	uploadCSV(t, env, sessionID, models.SheetKindEstimates,
		"Estimate ID,Contact ID,Client Name,Email,Phone,Status,Tags,Street,City,State,Zip,Estimate Date,Contract Start,Contract End,Total\n"+
			"E1,C1,,,,won,,,,,,,,,1200.00\n"+
			",C2,No Identity,,,pending,,,,,,,,,50\n")

	result, err := env.svc.Preview(context.Background(), testTenant, sessionID)
	require.NoError(t, err)

	// The ID-less row is dropped by the merge, not silently at parse.
	assert.Len(t, result.Estimates, 1)
	assert.Contains(t, result.Warnings, "estimate row dropped: missing external ID")
}

func TestLinkJobsiteRecomputesPreview(t *testing.T) {
	env := newTestEnv(t)
	sessionID := seedSession(t, env)

	accountID := "A2"
	result, err := env.svc.LinkJobsite(context.Background(), testTenant, sessionID, "J2", models.LinkJobsiteRequest{AccountID: &accountID})
	require.NoError(t, err)

	assert.Empty(t, result.OrphanedJobsites)
	assert.Equal(t, 1, result.Stats.JobsiteLinking.LinkedManually)
	stats := result.Stats.JobsiteLinking
	assert.Equal(t, stats.Total, stats.Linked+stats.Orphaned)

	// The override survives into later previews.
	again, err := env.svc.Preview(context.Background(), testTenant, sessionID)
	require.NoError(t, err)
	assert.Equal(t, 1, again.Stats.JobsiteLinking.LinkedManually)
}

// Uploads rewrite session sheets while previews and link edits read
// them; every reader must get a consistent snapshot. Run with -race.
func TestConcurrentUploadPreviewAndLink(t *testing.T) {
	env := newTestEnv(t)
	sessionID := seedSession(t, env)

	leadsCSV := "Contact ID,Name,Company,Email,Phone,Do Not Email,Do Not Mail,Do Not Call\n" +
		"C1,Jane Smith,,,,true,false,false\n"
	accountID := "A2"

	const rounds = 100
	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := env.svc.UploadSheet(context.Background(), testTenant, sessionID, models.SheetKindLeads, "leads.csv", strings.NewReader(leadsCSV))
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := env.svc.Preview(context.Background(), testTenant, sessionID)
			assert.NoError(t, err)
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			_, err := env.svc.LinkJobsite(context.Background(), testTenant, sessionID, "J2", models.LinkJobsiteRequest{AccountID: &accountID})
			assert.NoError(t, err)
		}
	}()
	wg.Wait()

	result, err := env.svc.Preview(context.Background(), testTenant, sessionID)
	require.NoError(t, err)
	assert.Empty(t, result.OrphanedJobsites)
}

func TestLinkJobsiteUnknownJobsite(t *testing.T) {
	env := newTestEnv(t)
	sessionID := seedSession(t, env)

	_, err := env.svc.LinkJobsite(context.Background(), testTenant, sessionID, "J404", models.LinkJobsiteRequest{})
	require.Error(t, err)
	assert.Equal(t, 404, httperror.GetStatusCode(err))
}

func TestLinkJobsiteUnknownAccount(t *testing.T) {
	env := newTestEnv(t)
	sessionID := seedSession(t, env)

	accountID := "A404"
	_, err := env.svc.LinkJobsite(context.Background(), testTenant, sessionID, "J2", models.LinkJobsiteRequest{AccountID: &accountID})
	require.Error(t, err)
	assert.Equal(t, 422, httperror.GetStatusCode(err))
}

func TestCommitUpsertsAllEntities(t *testing.T) {
	env := newTestEnv(t)
	sessionID := seedSession(t, env)

	result, err := env.svc.Commit(context.Background(), testTenant, sessionID)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, models.ImportRunStatusSuccess, result.Status)
	assert.Equal(t, "run-1", result.RunID)
	require.Len(t, result.Entities, 4)
	assert.Equal(t, "accounts", result.Entities[0].Entity)
	assert.Equal(t, 2, result.Entities[0].Created)
	assert.Equal(t, 2, result.Entities[2].Created)

	// Chunk size 2: the two estimates arrive in one call.
	assert.Len(t, env.estimates.upserted, 1)
	require.True(t, env.locker.lock.released)
	require.Len(t, env.runs.runs, 1)
	assert.Equal(t, models.ImportRunStatusSuccess, env.runs.runs[0].Status)
}

func TestCommitPartialFailureContinues(t *testing.T) {
	env := newTestEnv(t)
	sessionID := seedSession(t, env)
	env.contacts.upsertErr = errors.New("db down")

	result, err := env.svc.Commit(context.Background(), testTenant, sessionID)
	require.NoError(t, err)

	// A failed entity degrades the status but never aborts the commit.
	assert.True(t, result.Success)
	assert.Equal(t, models.ImportRunStatusPartial, result.Status)

	var contactsResult models.EntityCommitResult
	for _, e := range result.Entities {
		if e.Entity == "contacts" {
			contactsResult = e
		}
	}
	assert.Equal(t, 2, contactsResult.Failed)
	assert.NotEmpty(t, contactsResult.Errors)

	// Later entities still committed.
	assert.NotEmpty(t, env.estimates.upserted)
	assert.NotEmpty(t, env.jobsites.upserted)
}

func TestCommitRejectedWhileLocked(t *testing.T) {
	env := newTestEnv(t)
	sessionID := seedSession(t, env)
	env.locker.err = redis.ErrLockNotAcquired

	_, err := env.svc.Commit(context.Background(), testTenant, sessionID)
	require.Error(t, err)
	assert.Equal(t, 409, httperror.GetStatusCode(err))
	assert.Contains(t, err.Error(), "already in progress")

	// Nothing was written while the lock was held elsewhere.
	assert.Empty(t, env.accounts.upserted)
	assert.Empty(t, env.runs.runs)
}

func TestCommitPassesThroughLockerFailures(t *testing.T) {
	env := newTestEnv(t)
	sessionID := seedSession(t, env)
	env.locker.err = errors.New("redis unreachable")

	_, err := env.svc.Commit(context.Background(), testTenant, sessionID)
	require.Error(t, err)
	assert.NotEqual(t, 409, httperror.GetStatusCode(err))
}

func TestCommitClearsDanglingReferences(t *testing.T) {
	env := newTestEnv(t)
	sessionID := seedSession(t, env)

	_, err := env.svc.Commit(context.Background(), testTenant, sessionID)
	require.NoError(t, err)

	// E1 referenced contact C1 which exists, so the reference survives.
	require.Len(t, env.estimates.upserted, 1)
	for _, e := range env.estimates.upserted[0] {
		if e.ExternalID == "E1" {
			require.NotNil(t, e.ContactID)
			assert.Equal(t, "C1", *e.ContactID)
		}
	}
}

func TestPurgeOrphans(t *testing.T) {
	env := newTestEnv(t)

	deleted, err := env.svc.PurgeOrphans(context.Background(), testTenant, models.PurgeOrphansRequest{
		EntityType:  "estimates",
		ExternalIDs: []string{"EST-1", "EST-9"},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
	assert.Equal(t, []string{"EST-1", "EST-9"}, env.estimates.deleted)
}

func TestPurgeOrphansUnknownEntity(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.PurgeOrphans(context.Background(), testTenant, models.PurgeOrphansRequest{
		EntityType:  "tickets",
		ExternalIDs: []string{"T-1"},
	})
	require.Error(t, err)
	assert.Equal(t, 400, httperror.GetStatusCode(err))
}
