package linking

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func strPtr(s string) *string { return &s }

func testIndex() *Index {
	accounts := []models.Account{
		{ExternalID: "ACCT-1", Name: "Acme Roofing", Tags: []string{"roofing", "premium"},
			Street: "123 Main St", City: "Springfield", State: "IL", Zip: "62701"},
		{ExternalID: "ACCT-2", Name: "Jones Paving", Tags: []string{"paving"}},
	}
	contacts := []models.Contact{
		{ExternalID: "CON-1", AccountID: strPtr("ACCT-1"), Email: "jane@acme.com", Phone: "(555) 111-2222"},
		{ExternalID: "CON-2", AccountID: strPtr("ACCT-2"), Email: "bill@jones.com"},
	}
	return BuildIndex(accounts, contacts, nil)
}

func TestCascadeContactIDWins(t *testing.T) {
	idx := testIndex()

	// This query would match ACCT-2 by email, but the contact ID points
	// at ACCT-1. The higher-priority strategy must win and the email
	// strategy must never be consulted.
	q := Query{ContactID: "CON-1", Email: "bill@jones.com"}
	outcome := Resolve(EstimateStrategies(), q, idx)

	require.True(t, outcome.Matched)
	assert.Equal(t, models.LinkedByContact, outcome.Strategy)
	assert.Equal(t, "ACCT-1", outcome.AccountID)
}

func TestCascadeFallsThroughToEmail(t *testing.T) {
	idx := testIndex()

	// CON-9 exists nowhere; the email matches CON-1's account.
	q := Query{ContactID: "CON-9", Email: "Jane@Acme.com"}
	outcome := Resolve(EstimateStrategies(), q, idx)

	require.True(t, outcome.Matched)
	assert.Equal(t, models.LinkedByEmail, outcome.Strategy)
	assert.Equal(t, "ACCT-1", outcome.AccountID)
}

func TestCascadePhone(t *testing.T) {
	idx := testIndex()

	q := Query{Phone: "+1 555 111 2222"}
	outcome := Resolve(EstimateStrategies(), q, idx)

	require.True(t, outcome.Matched)
	assert.Equal(t, models.LinkedByPhone, outcome.Strategy)
	assert.Equal(t, "ACCT-1", outcome.AccountID)
}

func TestCascadeTagOverlap(t *testing.T) {
	idx := testIndex()

	q := Query{Tags: []string{"Premium", "other"}}
	outcome := Resolve(EstimateStrategies(), q, idx)

	require.True(t, outcome.Matched)
	assert.Equal(t, models.LinkedByTags, outcome.Strategy)
	assert.Equal(t, "ACCT-1", outcome.AccountID)
}

func TestCascadeAddress(t *testing.T) {
	idx := testIndex()

	q := Query{Address: "123 Main Street, Springfield, IL 62701"}
	outcome := Resolve(EstimateStrategies(), q, idx)

	require.True(t, outcome.Matched)
	assert.Equal(t, models.LinkedByAddress, outcome.Strategy)
}

func TestCascadeFuzzyName(t *testing.T) {
	idx := testIndex()

	q := Query{Name: "ACME Roofing, Inc."}
	outcome := Resolve(EstimateStrategies(), q, idx)

	require.True(t, outcome.Matched)
	assert.Equal(t, models.LinkedByFuzzy, outcome.Strategy)
	assert.Equal(t, "ACCT-1", outcome.AccountID)
}

func TestCascadeNoMatch(t *testing.T) {
	idx := testIndex()

	q := Query{ContactID: "CON-404", Email: "nobody@nowhere.com", Name: "Zetta Industrial"}
	outcome := Resolve(EstimateStrategies(), q, idx)

	assert.False(t, outcome.Matched)
	assert.Equal(t, NoMatch, outcome)
}

func TestJobsiteCascadeUsesExactNameBeforeFuzzy(t *testing.T) {
	idx := testIndex()

	q := Query{Name: "acme roofing"}
	outcome := Resolve(JobsiteStrategies(), q, idx)

	require.True(t, outcome.Matched)
	assert.Equal(t, models.LinkedByName, outcome.Strategy)
}

func TestIndexDeterministicTieBreak(t *testing.T) {
	accounts := []models.Account{
		{ExternalID: "ACCT-9", Name: "Acme West", Tags: []string{"shared"}},
		{ExternalID: "ACCT-3", Name: "Acme East", Tags: []string{"shared"}},
	}

	for i := 0; i < 5; i++ {
		idx := BuildIndex(accounts, nil, nil)
		// Lowest external ID wins ties, every time.
		assert.Equal(t, "ACCT-3", idx.AccountByTagOverlap([]string{"shared"}))
		assert.Equal(t, "ACCT-3", idx.AccountByFuzzyName("Acme"))
	}
}
