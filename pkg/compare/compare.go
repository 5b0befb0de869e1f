// Package compare diffs a merge result against the records currently in
// storage, partitioning each type into new, updated and orphaned.
package compare

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalize"
)

// Existing holds the stored records fetched per entity type.
type Existing struct {
	Accounts  []models.Account
	Contacts  []models.Contact
	Estimates []models.Estimate
	Jobsites  []models.Jobsite
}

// Compare classifies every merged record as new or updated against
// storage, and every stored record whose external ID fell out of the
// valid-ID sets as orphaned. Orphan classification is advisory; nothing
// here deletes anything.
func Compare(merged *models.MergeResult, existing Existing, valid models.ValidIDs) *models.ComparisonResult {
	return &models.ComparisonResult{
		Accounts:  compareEntities(merged.Accounts, existing.Accounts, accountID, diffAccounts, valid.AccountIDs),
		Contacts:  compareEntities(merged.Contacts, existing.Contacts, contactID, diffContacts, valid.ContactIDs),
		Estimates: compareEntities(merged.Estimates, existing.Estimates, estimateID, diffEstimates, valid.EstimateIDs),
		Jobsites:  compareEntities(merged.Jobsites, existing.Jobsites, jobsiteID, diffJobsites, valid.JobsiteIDs),
	}
}

func accountID(a models.Account) string   { return a.ExternalID }
func contactID(c models.Contact) string   { return c.ExternalID }
func estimateID(e models.Estimate) string { return e.ExternalID }
func jobsiteID(j models.Jobsite) string   { return j.ExternalID }

func compareEntities[T any](
	merged []T,
	existing []T,
	key func(T) string,
	diff func(existing, imported T) []models.FieldDiff,
	valid models.IDSet,
) models.EntityComparison[T] {
	stored := make(map[string]T, len(existing))
	for _, record := range existing {
		if id := key(record); id != "" {
			stored[id] = record
		}
	}

	result := models.EntityComparison[T]{}
	for _, record := range merged {
		id := key(record)
		current, ok := stored[id]
		if !ok {
			result.New = append(result.New, record)
			continue
		}
		if diffs := diff(current, record); len(diffs) > 0 {
			result.Updated = append(result.Updated, models.RecordUpdate[T]{Record: record, Differences: diffs})
		}
	}

	orphanIDs := make([]string, 0)
	for id := range stored {
		if !valid.Has(id) {
			orphanIDs = append(orphanIDs, id)
		}
	}
	sort.Strings(orphanIDs)
	for _, id := range orphanIDs {
		result.Orphaned = append(result.Orphaned, models.OrphanRecord[T]{
			Record: stored[id],
			Source: GuessOrphanSource(id),
		})
	}

	return result
}

var sourceIDPattern = regexp.MustCompile(`^(\d+|(ACCT|CON|EST|JOB)-[A-Za-z0-9-]+)$`)

// GuessOrphanSource guesses where a stored orphan came from. IDs in the
// source system's formats (numeric, or the exporter's prefixed forms)
// are presumed left over from a previous import; anything else is
// flagged as possibly seeded or mock data.
func GuessOrphanSource(externalID string) string {
	if sourceIDPattern.MatchString(externalID) {
		return models.OrphanSourcePreviousImport
	}
	return models.OrphanSourcePossiblyMock
}

func diffAccounts(existing, imported models.Account) []models.FieldDiff {
	var diffs []models.FieldDiff
	diffs = appendDiff(diffs, "name", existing.Name, imported.Name)
	diffs = appendDiff(diffs, "type", existing.Type, imported.Type)
	diffs = appendDiff(diffs, "tags", joinTags(existing.Tags), joinTags(imported.Tags))
	diffs = appendDiff(diffs, "archived", formatBool(existing.Archived), formatBool(imported.Archived))
	diffs = appendDiff(diffs, "street", existing.Street, imported.Street)
	diffs = appendDiff(diffs, "city", existing.City, imported.City)
	diffs = appendDiff(diffs, "state", existing.State, imported.State)
	diffs = appendDiff(diffs, "zip", existing.Zip, imported.Zip)
	return diffs
}

func diffContacts(existing, imported models.Contact) []models.FieldDiff {
	var diffs []models.FieldDiff
	diffs = appendDiff(diffs, "name", existing.Name, imported.Name)
	diffs = appendDiff(diffs, "email", existing.Email, imported.Email)
	diffs = appendDiff(diffs, "phone", existing.Phone, imported.Phone)
	diffs = appendDiff(diffs, "account_id", deref(existing.AccountID), deref(imported.AccountID))
	diffs = appendDiff(diffs, "do_not_email", formatBool(existing.DoNotEmail), formatBool(imported.DoNotEmail))
	diffs = appendDiff(diffs, "do_not_mail", formatBool(existing.DoNotMail), formatBool(imported.DoNotMail))
	diffs = appendDiff(diffs, "do_not_call", formatBool(existing.DoNotCall), formatBool(imported.DoNotCall))
	return diffs
}

func diffEstimates(existing, imported models.Estimate) []models.FieldDiff {
	var diffs []models.FieldDiff
	diffs = appendDiff(diffs, "status", existing.Status, imported.Status)
	diffs = appendDiff(diffs, "client_name", existing.ClientName, imported.ClientName)
	diffs = appendDiff(diffs, "email", existing.Email, imported.Email)
	diffs = appendDiff(diffs, "phone", existing.Phone, imported.Phone)
	diffs = appendDiff(diffs, "account_id", deref(existing.AccountID), deref(imported.AccountID))
	diffs = appendDiff(diffs, "contact_id", deref(existing.ContactID), deref(imported.ContactID))
	diffs = appendDiff(diffs, "tags", joinTags(existing.Tags), joinTags(imported.Tags))
	diffs = appendDiff(diffs, "total", existing.Total.String(), imported.Total.String())
	diffs = appendDiff(diffs, "estimate_date", formatDate(existing.EstimateDate), formatDate(imported.EstimateDate))
	diffs = appendDiff(diffs, "contract_start", formatDate(existing.ContractStart), formatDate(imported.ContractStart))
	diffs = appendDiff(diffs, "contract_end", formatDate(existing.ContractEnd), formatDate(imported.ContractEnd))
	diffs = appendDiff(diffs, "street", existing.Street, imported.Street)
	diffs = appendDiff(diffs, "city", existing.City, imported.City)
	diffs = appendDiff(diffs, "state", existing.State, imported.State)
	diffs = appendDiff(diffs, "zip", existing.Zip, imported.Zip)
	return diffs
}

func diffJobsites(existing, imported models.Jobsite) []models.FieldDiff {
	var diffs []models.FieldDiff
	diffs = appendDiff(diffs, "name", existing.Name, imported.Name)
	diffs = appendDiff(diffs, "account_id", deref(existing.AccountID), deref(imported.AccountID))
	diffs = appendDiff(diffs, "contact_id", deref(existing.ContactID), deref(imported.ContactID))
	diffs = appendDiff(diffs, "street", existing.Street, imported.Street)
	diffs = appendDiff(diffs, "city", existing.City, imported.City)
	diffs = appendDiff(diffs, "state", existing.State, imported.State)
	diffs = appendDiff(diffs, "zip", existing.Zip, imported.Zip)
	return diffs
}

// appendDiff records a diff when the two values differ after trivial
// whitespace and number-format normalization. No other coercion.
func appendDiff(diffs []models.FieldDiff, field, existing, imported string) []models.FieldDiff {
	if equalValues(existing, imported) {
		return diffs
	}
	return append(diffs, models.FieldDiff{Field: field, Existing: existing, Imported: imported})
}

var wsRe = regexp.MustCompile(`\s+`)

func equalValues(a, b string) bool {
	a = wsRe.ReplaceAllString(strings.TrimSpace(a), " ")
	b = wsRe.ReplaceAllString(strings.TrimSpace(b), " ")
	if a == b {
		return true
	}
	// "1200" and "1200.00" are the same value, not an update.
	da, errA := decimal.NewFromString(a)
	db, errB := decimal.NewFromString(b)
	return errA == nil && errB == nil && da.Equal(db)
}

func joinTags(tags []string) string {
	set := normalize.TagSet(tags)
	sorted := make([]string, 0, len(set))
	for t := range set {
		sorted = append(sorted, t)
	}
	sort.Strings(sorted)
	return strings.Join(sorted, ",")
}

func formatBool(b bool) string {
	return strconv.FormatBool(b)
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
