package sheets

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/clover/pkg/models"
)

func contactsLayout() Layout {
	return DefaultLayouts()[models.SheetKindContacts]
}

func TestParseContacts(t *testing.T) {
	rows := [][]string{
		{"Account ID", "Account Name", "Account Type", "Tags", "Archived", "Contact ID", "Contact Name", "Email", "Phone", "Street", "City", "State", "Zip"},
		{"ACCT-1", "Acme Roofing", "commercial", "roofing; premium", "", "CON-1", "Jane Doe", "Jane@Acme.com", "(555) 111-2222", "123 Main St", "Springfield", "IL", "62701"},
		{"", "", "", "", "", "", "", "", "", "", "", "", ""},
		{"", "No IDs Here", "", "", "", "", "Nobody", "", "", "", "", "", ""},
	}

	records, stats := ParseContacts(rows, contactsLayout())
	require.Empty(t, stats.Error)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, "ACCT-1", rec.AccountID)
	assert.Equal(t, "CON-1", rec.ContactID)
	assert.Equal(t, "jane@acme.com", rec.Email) // normalized
	assert.Equal(t, []string{"roofing", "premium"}, rec.Tags)

	// The blank row is ignored entirely; the ID-less row is counted.
	assert.Equal(t, 2, stats.Rows)
	assert.Equal(t, 1, stats.Parsed)
	assert.Equal(t, 1, stats.Skipped)
}

func TestParseContactsMissingHeader(t *testing.T) {
	rows := [][]string{
		{"Totally", "Wrong", "Columns"},
		{"a", "b", "c"},
	}

	records, stats := ParseContacts(rows, contactsLayout())
	assert.Nil(t, records)
	assert.Contains(t, stats.Error, "missing expected columns")
}

func TestParseContactsHeaderCaseInsensitive(t *testing.T) {
	rows := [][]string{
		{"account id", " CONTACT ID ", "contact name"},
		{"ACCT-1", "CON-1", "Jane"},
	}

	records, stats := ParseContacts(rows, contactsLayout())
	require.Empty(t, stats.Error)
	require.Len(t, records, 1)
	assert.Equal(t, "Jane", records[0].Name)
}

func TestParseLeads(t *testing.T) {
	layout := DefaultLayouts()[models.SheetKindLeads]
	rows := [][]string{
		{"Contact ID", "Name", "Company", "Email", "Phone", "Do Not Email", "Do Not Mail", "Do Not Call"},
		{"CON-1", "Jane Doe", "Acme", "", "", "Yes", "", "1"},
		{"", "Walk In", "", "", "", "", "", ""}, // nothing to match on
	}

	records, stats := ParseLeads(rows, layout)
	require.Empty(t, stats.Error)
	require.Len(t, records, 1)
	assert.True(t, records[0].DoNotEmail)
	assert.True(t, records[0].DoNotCall)
	assert.False(t, records[0].DoNotMail)
	assert.Equal(t, 1, stats.Skipped)
}

func TestParseEstimates(t *testing.T) {
	layout := DefaultLayouts()[models.SheetKindEstimates]
	rows := [][]string{
		{"Estimate ID", "Contact ID", "Client Name", "Email", "Phone", "Status", "Tags", "Street", "City", "State", "Zip", "Estimate Date", "Contract Start", "Contract End", "Total"},
		{"EST-1", "CON-1", "Acme Roofing", "", "", "won", "", "", "", "", "", "2025-03-01", "03/15/2025", "", "$12,500.00"},
		{"", "CON-2", "Missing ID", "", "", "pending", "", "", "", "", "", "", "", "", "100"},
		{"EST-3", "", "Bad Money", "", "", "lost", "", "", "", "", "", "", "", "", "not a number"},
	}

	records, stats := ParseEstimates(rows, layout)
	require.Empty(t, stats.Error)
	require.Len(t, records, 2)

	rec := records[0]
	assert.Equal(t, "EST-1", rec.EstimateID)
	assert.True(t, rec.Total.Equal(decimal.RequireFromString("12500")))
	require.NotNil(t, rec.EstimateDate)
	assert.Equal(t, "2025-03-01", rec.EstimateDate.Format("2006-01-02"))
	require.NotNil(t, rec.ContractStart)
	assert.Equal(t, "2025-03-15", rec.ContractStart.Format("2006-01-02"))
	assert.Nil(t, rec.ContractEnd)

	// The ID-less row is kept so the merge can warn about dropping it;
	// only the unparseable money row is skipped at parse.
	assert.Empty(t, records[1].EstimateID)
	assert.Equal(t, "Missing ID", records[1].ClientName)

	assert.Equal(t, 3, stats.Rows)
	assert.Equal(t, 1, stats.Skipped)
}

func TestParseJobsites(t *testing.T) {
	layout := DefaultLayouts()[models.SheetKindJobsites]
	rows := [][]string{
		{"Jobsite ID", "Jobsite Name", "Contact ID", "Street", "City", "State", "Zip"},
		{"JOB-1", "Warehouse", "CON-1", "9 Dock Rd", "Springfield", "IL", "62701"},
	}

	records, stats := ParseJobsites(rows, layout)
	require.Empty(t, stats.Error)
	require.Len(t, records, 1)
	assert.Equal(t, "JOB-1", records[0].JobsiteID)
}

func TestReadRowsCSV(t *testing.T) {
	csv := "Estimate ID,Status\nEST-1,won\nEST-2,\"lost, badly\"\n"
	rows, err := ReadRows("estimates.csv", strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "lost, badly", rows[2][1])
}

func TestLoadLayoutsDefaultsWhenNoPath(t *testing.T) {
	layouts, err := LoadLayouts("")
	require.NoError(t, err)
	assert.Len(t, layouts, 4)
	assert.Equal(t, "Estimate ID", layouts[models.SheetKindEstimates].Headers[FieldEstimateID])
}
