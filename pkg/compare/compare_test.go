package compare

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func ptr(s string) *string { return &s }

func TestCompareClassifiesNewAndUpdated(t *testing.T) {
	merged := &models.MergeResult{
		Accounts: []models.Account{
			{ExternalID: "A1", Name: "Acme Roofing", Tags: []string{"roofing"}},
			{ExternalID: "A2", Name: "Jones Paving"},
		},
	}
	existing := Existing{
		Accounts: []models.Account{
			{ExternalID: "A1", Name: "Acme Roofing Co", Tags: []string{"roofing"}},
		},
	}
	valid := models.ValidIDs{
		AccountIDs:  models.NewIDSet("A1", "A2"),
		ContactIDs:  models.NewIDSet(),
		EstimateIDs: models.NewIDSet(),
		JobsiteIDs:  models.NewIDSet(),
	}

	result := Compare(merged, existing, valid)

	require.Len(t, result.Accounts.New, 1)
	assert.Equal(t, "A2", result.Accounts.New[0].ExternalID)

	require.Len(t, result.Accounts.Updated, 1)
	update := result.Accounts.Updated[0]
	assert.Equal(t, "A1", update.Record.ExternalID)
	require.Len(t, update.Differences, 1)
	assert.Equal(t, "name", update.Differences[0].Field)
	assert.Equal(t, "Acme Roofing Co", update.Differences[0].Existing)
	assert.Equal(t, "Acme Roofing", update.Differences[0].Imported)

	assert.Empty(t, result.Accounts.Orphaned)
}

func TestCompareIgnoresTrivialFormatting(t *testing.T) {
	merged := &models.MergeResult{
		Estimates: []models.Estimate{
			{ExternalID: "EST-1", Status: "won", ClientName: "Acme  Roofing", Total: decimal.RequireFromString("1200")},
		},
	}
	existing := Existing{
		Estimates: []models.Estimate{
			{ExternalID: "EST-1", Status: "won", ClientName: "Acme Roofing", Total: decimal.RequireFromString("1200.00")},
		},
	}
	valid := models.ValidIDs{
		AccountIDs:  models.NewIDSet(),
		ContactIDs:  models.NewIDSet(),
		EstimateIDs: models.NewIDSet("EST-1"),
		JobsiteIDs:  models.NewIDSet(),
	}

	result := Compare(merged, existing, valid)

	// Double spaces and "1200" vs "1200.00" are formatting, not updates.
	assert.Empty(t, result.Estimates.Updated)
	assert.Empty(t, result.Estimates.New)
}

func TestCompareOrphanDetection(t *testing.T) {
	merged := &models.MergeResult{
		Estimates: []models.Estimate{{ExternalID: "EST-2", Status: "pending"}},
	}
	existing := Existing{
		Estimates: []models.Estimate{
			{ExternalID: "EST-2", Status: "pending"},
			{ExternalID: "EST-1", Status: "won"},
			{ExternalID: "demo-estimate-x", Status: "lost"},
		},
	}
	valid := models.ValidIDs{
		AccountIDs:  models.NewIDSet(),
		ContactIDs:  models.NewIDSet(),
		EstimateIDs: models.NewIDSet("EST-2"),
		JobsiteIDs:  models.NewIDSet(),
	}

	result := Compare(merged, existing, valid)

	require.Len(t, result.Estimates.Orphaned, 2)
	// Sorted by external ID, so EST-1 first.
	assert.Equal(t, "EST-1", result.Estimates.Orphaned[0].Record.ExternalID)
	assert.Equal(t, models.OrphanSourcePreviousImport, result.Estimates.Orphaned[0].Source)
	assert.Equal(t, "demo-estimate-x", result.Estimates.Orphaned[1].Record.ExternalID)
	assert.Equal(t, models.OrphanSourcePossiblyMock, result.Estimates.Orphaned[1].Source)

	// The orphan appears nowhere else.
	assert.Empty(t, result.Estimates.New)
	assert.Empty(t, result.Estimates.Updated)
}

func TestCompareAccountLinkChange(t *testing.T) {
	merged := &models.MergeResult{
		Jobsites: []models.Jobsite{{ExternalID: "JOB-1", AccountID: ptr("A1")}},
	}
	existing := Existing{
		Jobsites: []models.Jobsite{{ExternalID: "JOB-1"}},
	}
	valid := models.ValidIDs{
		AccountIDs:  models.NewIDSet("A1"),
		ContactIDs:  models.NewIDSet(),
		EstimateIDs: models.NewIDSet(),
		JobsiteIDs:  models.NewIDSet("JOB-1"),
	}

	result := Compare(merged, existing, valid)

	require.Len(t, result.Jobsites.Updated, 1)
	diffs := result.Jobsites.Updated[0].Differences
	require.Len(t, diffs, 1)
	assert.Equal(t, "account_id", diffs[0].Field)
	assert.Equal(t, "", diffs[0].Existing)
	assert.Equal(t, "A1", diffs[0].Imported)
}

func TestGuessOrphanSource(t *testing.T) {
	assert.Equal(t, models.OrphanSourcePreviousImport, GuessOrphanSource("12345"))
	assert.Equal(t, models.OrphanSourcePreviousImport, GuessOrphanSource("ACCT-88f2"))
	assert.Equal(t, models.OrphanSourcePreviousImport, GuessOrphanSource("CON-12"))
	assert.Equal(t, models.OrphanSourcePossiblyMock, GuessOrphanSource("demo-account-1"))
	assert.Equal(t, models.OrphanSourcePossiblyMock, GuessOrphanSource("test"))
}
