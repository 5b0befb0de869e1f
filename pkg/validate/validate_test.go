package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func ptr(s string) *string { return &s }

func validSets() models.ValidIDs {
	return models.ValidIDs{
		AccountIDs:  models.NewIDSet("ACCT-1"),
		ContactIDs:  models.NewIDSet("CON-1"),
		EstimateIDs: models.NewIDSet("EST-1", "EST-2", "EST-3"),
		JobsiteIDs:  models.NewIDSet("JOB-1"),
	}
}

func TestValidReferencesProduceNoIssues(t *testing.T) {
	merged := &models.MergeResult{
		Estimates: []models.Estimate{
			{ExternalID: "EST-1", AccountID: ptr("ACCT-1"), ContactID: ptr("CON-1")},
			{ExternalID: "EST-2"},
		},
		Jobsites: []models.Jobsite{
			{ExternalID: "JOB-1", AccountID: ptr("ACCT-1")},
		},
	}

	result := ValidateReferences(merged, validSets())

	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}

func TestDanglingRecognizedReferenceIsWarning(t *testing.T) {
	merged := &models.MergeResult{
		Estimates: []models.Estimate{
			{ExternalID: "EST-1", ContactID: ptr("CON-404")},
		},
	}

	result := ValidateReferences(merged, validSets())

	assert.Empty(t, result.Errors)
	require.Len(t, result.Warnings, 1)
	issue := result.Warnings[0]
	assert.Equal(t, "estimate", issue.RecordType)
	assert.Equal(t, "EST-1", issue.RecordID)
	assert.Equal(t, "contact_id", issue.Field)
	assert.Equal(t, "CON-404", issue.ReferenceID)
}

func TestMalformedReferenceIsError(t *testing.T) {
	merged := &models.MergeResult{
		Jobsites: []models.Jobsite{
			{ExternalID: "JOB-1", AccountID: ptr("not an id!!")},
		},
	}

	result := ValidateReferences(merged, validSets())

	assert.Empty(t, result.Warnings)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "account_id", result.Errors[0].Field)
	assert.Equal(t, "not an id!!", result.Errors[0].ReferenceID)
}

func TestNilReferencesAreSkipped(t *testing.T) {
	merged := &models.MergeResult{
		Estimates: []models.Estimate{{ExternalID: "EST-3"}},
		Jobsites:  []models.Jobsite{{ExternalID: "JOB-1"}},
	}

	result := ValidateReferences(merged, validSets())

	assert.Empty(t, result.Errors)
	assert.Empty(t, result.Warnings)
}
