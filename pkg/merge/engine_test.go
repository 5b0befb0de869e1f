package merge

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/identity"
	"github.com/Ramsey-B/clover/pkg/models"
)

func fixtureSheets() *models.ParsedSheets {
	sheets := models.NewParsedSheets()
	sheets.Contacts = []models.ContactRow{
		{AccountID: "A1", AccountName: "Acme Roofing", AccountType: "commercial",
			Tags: []string{"roofing", "Premium"}, ContactID: "C1", Name: "Jane Smith",
			Email: "jane@acme.com", Phone: "(555) 111-2222",
			Street: "123 Main St", City: "Springfield", State: "IL", Zip: "62701"},
		{AccountID: "A1", AccountName: "Acme Roofing", ContactID: "C2",
			Name: "Tom Ward", Email: "tom@acme.com", Tags: []string{"roofing"}},
		{AccountID: "A2", AccountName: "Jones Paving", ContactID: "C3",
			Name: "Bill Jones", Email: "bill@jones.com", Phone: "555-333-4444"},
	}
	sheets.Leads = []models.LeadRow{
		{ContactID: "C1", Name: "Jane Smith", DoNotEmail: true},
		{Name: "New Person", Company: "Jones Paving LLC", Email: "new@person.com", DoNotCall: true},
	}
	sheets.Estimates = []models.EstimateRow{
		{EstimateID: "E1", ContactID: "C9", Email: "tom@acme.com",
			Status: models.EstimateStatusWon, Total: decimal.NewFromInt(1200)},
		{EstimateID: "E2", ClientName: "Nobody Known", Status: models.EstimateStatusPending},
	}
	sheets.Jobsites = []models.JobsiteRow{
		{JobsiteID: "J1", Name: "Acme Warehouse", ContactID: "C1", Street: "9 Dock Rd"},
		{JobsiteID: "J2", Name: "Unmatched Site", Street: "77 Nowhere Ln"},
	}
	for _, kind := range models.SheetKinds {
		sheets.Present[kind] = true
	}
	return sheets
}

func TestMergeAccountsFromContactsOnly(t *testing.T) {
	result := Merge(fixtureSheets())

	require.Len(t, result.Accounts, 2)
	assert.Equal(t, "A1", result.Accounts[0].ExternalID)
	assert.Equal(t, "A2", result.Accounts[1].ExternalID)
	// Tags union across every row of the account, normalized and sorted.
	assert.Equal(t, []string{"premium", "roofing"}, []string(result.Accounts[0].Tags))
	assert.Equal(t, 2, result.Stats.TotalAccounts)
}

func TestLeadIDMatchWinsOverFallbacks(t *testing.T) {
	sheets := fixtureSheets()
	// The lead carries C1's ID but C3's email. The ID match must win and
	// the email must never be consulted.
	sheets.Leads = []models.LeadRow{
		{ContactID: "C1", Email: "bill@jones.com", DoNotEmail: true},
	}

	result := Merge(sheets)

	var c1, c3 models.Contact
	for _, c := range result.Contacts {
		switch c.ExternalID {
		case "C1":
			c1 = c
		case "C3":
			c3 = c
		}
	}
	assert.True(t, c1.DoNotEmail)
	assert.False(t, c3.DoNotEmail)
	assert.Equal(t, 1, result.Stats.MatchedContacts)
	assert.Equal(t, 0, result.Stats.NewContactsFromLeads)
}

func TestUnmatchedLeadSynthesizesContact(t *testing.T) {
	result := Merge(fixtureSheets())

	var synthesized *models.Contact
	for i, c := range result.Contacts {
		if c.NewFromLeads {
			synthesized = &result.Contacts[i]
		}
	}
	require.NotNil(t, synthesized)
	assert.Equal(t, "New Person", synthesized.Name)
	assert.True(t, synthesized.DoNotCall)
	// Attributed to Jones Paving by company name.
	require.NotNil(t, synthesized.AccountID)
	assert.Equal(t, "A2", *synthesized.AccountID)
	assert.Equal(t, 1, result.Stats.NewContactsFromLeads)
	assert.Equal(t, 1, result.Stats.UnmatchedContacts)
}

func TestEstimateLinksByEmailWhenContactIDDangles(t *testing.T) {
	result := Merge(fixtureSheets())

	require.Len(t, result.Estimates, 2)
	e1 := result.Estimates[0]
	require.Equal(t, "E1", e1.ExternalID)
	require.NotNil(t, e1.AccountID)
	assert.Equal(t, "A1", *e1.AccountID)
	assert.Equal(t, models.LinkedByEmail, e1.LinkedBy)
	assert.Equal(t, 1, result.Stats.EstimateLinking.LinkedByEmail)
	assert.Equal(t, 0, result.Stats.EstimateLinking.LinkedByContact)
}

func TestEstimatesRetainedWhenUnlinked(t *testing.T) {
	result := Merge(fixtureSheets())

	e2 := result.Estimates[1]
	require.Equal(t, "E2", e2.ExternalID)
	assert.Nil(t, e2.AccountID)

	stats := result.Stats.EstimateLinking
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Linked)
	assert.Equal(t, 1, stats.Orphaned)
	assert.InDelta(t, 0.5, stats.LinkRate, 1e-9)
}

func TestEstimatesAppearExactlyOnce(t *testing.T) {
	sheets := fixtureSheets()
	sheets.Estimates = append(sheets.Estimates, models.EstimateRow{EstimateID: "E1"})
	sheets.Estimates = append(sheets.Estimates, models.EstimateRow{Status: models.EstimateStatusLost})

	result := Merge(sheets)

	ids := make(map[string]int)
	for _, e := range result.Estimates {
		ids[e.ExternalID]++
	}
	assert.Equal(t, 1, ids["E1"])
	assert.Equal(t, 1, ids["E2"])
	assert.Len(t, result.Estimates, 2)
	// One duplicate and one missing-ID row, both surfaced as warnings.
	assert.Len(t, result.Warnings, 2)
}

func TestJobsiteCascadeAndOrphans(t *testing.T) {
	result := Merge(fixtureSheets())

	require.Len(t, result.Jobsites, 2)
	j1 := result.Jobsites[0]
	require.NotNil(t, j1.AccountID)
	assert.Equal(t, "A1", *j1.AccountID)
	assert.Equal(t, models.LinkedByContact, j1.LinkedBy)

	assert.Equal(t, []string{"J2"}, result.OrphanedJobsites)
	stats := result.Stats.JobsiteLinking
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, stats.Total, stats.Linked+stats.Orphaned)
}

func TestMergeIsIdempotent(t *testing.T) {
	first := Merge(fixtureSheets())
	second := Merge(fixtureSheets())

	assert.Equal(t, first, second)
}

func TestValidIDsRoundTripWithAccounts(t *testing.T) {
	sheets := fixtureSheets()
	valid := identity.ExtractValidIDs(sheets.Contacts, sheets.Leads, sheets.Estimates, sheets.Jobsites)
	result := Merge(sheets)

	assert.Len(t, result.Accounts, len(valid.AccountIDs))
	for _, a := range result.Accounts {
		assert.True(t, valid.AccountIDs.Has(a.ExternalID), "account %s missing from valid IDs", a.ExternalID)
	}
}

func TestApplyJobsiteLinksRecomputesStats(t *testing.T) {
	result := Merge(fixtureSheets())
	require.Contains(t, result.OrphanedJobsites, "J2")

	accountID := "A2"
	ApplyJobsiteLinks(result, map[string]*string{"J2": &accountID})

	var j2 models.Jobsite
	for _, js := range result.Jobsites {
		if js.ExternalID == "J2" {
			j2 = js
		}
	}
	require.NotNil(t, j2.AccountID)
	assert.Equal(t, "A2", *j2.AccountID)
	assert.Equal(t, models.LinkedManually, j2.LinkedBy)
	assert.True(t, j2.ManualLink)
	assert.NotContains(t, result.OrphanedJobsites, "J2")

	stats := result.Stats.JobsiteLinking
	assert.Equal(t, 1, stats.LinkedManually)
	assert.Equal(t, 0, stats.Orphaned)
	assert.Equal(t, stats.Total, stats.Linked+stats.Orphaned)

	// Clearing the link puts the jobsite back in the orphan list.
	ApplyJobsiteLinks(result, map[string]*string{"J2": nil})
	assert.Contains(t, result.OrphanedJobsites, "J2")
	assert.Equal(t, 1, result.Stats.JobsiteLinking.Orphaned)
}
