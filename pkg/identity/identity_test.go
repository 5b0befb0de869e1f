package identity

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ramsey-B/clover/pkg/models"
)

func TestExtractValidIDs(t *testing.T) {
	contacts := []models.ContactRow{
		{AccountID: "ACCT-1", ContactID: "CON-1"},
		{AccountID: "ACCT-1", ContactID: "CON-2"}, // same account twice
		{AccountID: "ACCT-2", ContactID: ""},      // contact ID absent
	}
	leads := []models.LeadRow{
		{ContactID: "CON-9", Name: "Lead Only"},
		{ContactID: "", Name: "No ID"},
	}
	estimates := []models.EstimateRow{
		{EstimateID: "EST-1"},
		{EstimateID: "EST-2"},
	}
	jobsites := []models.JobsiteRow{
		{JobsiteID: "JOB-1"},
	}

	valid := ExtractValidIDs(contacts, leads, estimates, jobsites)

	assert.ElementsMatch(t, []string{"ACCT-1", "ACCT-2"}, valid.AccountIDs.Values())
	assert.ElementsMatch(t, []string{"CON-1", "CON-2", "CON-9"}, valid.ContactIDs.Values())
	assert.ElementsMatch(t, []string{"EST-1", "EST-2"}, valid.EstimateIDs.Values())
	assert.ElementsMatch(t, []string{"JOB-1"}, valid.JobsiteIDs.Values())

	assert.True(t, valid.EstimateIDs.Has("EST-1"))
	assert.False(t, valid.EstimateIDs.Has("EST-999"))
}

func TestExtractValidIDsEmptySheets(t *testing.T) {
	valid := ExtractValidIDs(nil, nil, nil, nil)
	assert.Empty(t, valid.AccountIDs)
	assert.Empty(t, valid.ContactIDs)
	assert.Empty(t, valid.EstimateIDs)
	assert.Empty(t, valid.JobsiteIDs)
}
