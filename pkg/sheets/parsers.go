package sheets

import (
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalize"
)

// ParseContacts parses Contacts Export rows. The first row must be the
// header row. Rows missing both an account ID and a contact ID are
// skipped and counted; they carry nothing the merge can key on.
func ParseContacts(rows [][]string, layout Layout) ([]models.ContactRow, models.ParseStats) {
	stats := models.ParseStats{}
	if len(rows) == 0 {
		stats.Error = "sheet is empty"
		return nil, stats
	}

	index, err := columnIndex(rows[0], layout)
	if err != nil {
		stats.Error = err.Error()
		return nil, stats
	}

	records := make([]models.ContactRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		stats.Rows++

		rec := models.ContactRow{
			AccountID:   cell(row, index, FieldAccountID),
			AccountName: cell(row, index, FieldAccountName),
			AccountType: cell(row, index, FieldAccountType),
			Tags:        parseTags(cell(row, index, FieldTags)),
			Archived:    parseBool(cell(row, index, FieldArchived)),
			ContactID:   cell(row, index, FieldContactID),
			Name:        cell(row, index, FieldName),
			Email:       normalize.Email(cell(row, index, FieldEmail)),
			Phone:       cell(row, index, FieldPhone),
			Street:      cell(row, index, FieldStreet),
			City:        cell(row, index, FieldCity),
			State:       cell(row, index, FieldState),
			Zip:         cell(row, index, FieldZip),
		}

		if rec.AccountID == "" && rec.ContactID == "" {
			stats.Skipped++
			continue
		}

		records = append(records, rec)
		stats.Parsed++
	}

	return records, stats
}

// ParseLeads parses Leads List rows. Leads have no required external ID;
// a row only needs a name plus at least one of contact ID, email or
// phone to be matchable.
func ParseLeads(rows [][]string, layout Layout) ([]models.LeadRow, models.ParseStats) {
	stats := models.ParseStats{}
	if len(rows) == 0 {
		stats.Error = "sheet is empty"
		return nil, stats
	}

	index, err := columnIndex(rows[0], layout)
	if err != nil {
		stats.Error = err.Error()
		return nil, stats
	}

	records := make([]models.LeadRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		stats.Rows++

		rec := models.LeadRow{
			ContactID:  cell(row, index, FieldContactID),
			Name:       cell(row, index, FieldName),
			Company:    cell(row, index, FieldCompany),
			Email:      normalize.Email(cell(row, index, FieldEmail)),
			Phone:      cell(row, index, FieldPhone),
			DoNotEmail: parseBool(cell(row, index, FieldDoNotEmail)),
			DoNotMail:  parseBool(cell(row, index, FieldDoNotMail)),
			DoNotCall:  parseBool(cell(row, index, FieldDoNotCall)),
		}

		if rec.Name == "" || (rec.ContactID == "" && rec.Email == "" && normalize.Phone(rec.Phone) == "") {
			stats.Skipped++
			continue
		}

		records = append(records, rec)
		stats.Parsed++
	}

	return records, stats
}

// ParseEstimates parses Estimates List rows. Rows without an estimate
// ID are passed through so the merge can report them as dropped with a
// warning the operator sees; only structurally malformed rows are
// skipped here.
func ParseEstimates(rows [][]string, layout Layout) ([]models.EstimateRow, models.ParseStats) {
	stats := models.ParseStats{}
	if len(rows) == 0 {
		stats.Error = "sheet is empty"
		return nil, stats
	}

	index, err := columnIndex(rows[0], layout)
	if err != nil {
		stats.Error = err.Error()
		return nil, stats
	}

	records := make([]models.EstimateRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		stats.Rows++

		total, ok := parseMoney(cell(row, index, FieldTotal))
		rec := models.EstimateRow{
			EstimateID:    cell(row, index, FieldEstimateID),
			ContactID:     cell(row, index, FieldContactID),
			ClientName:    cell(row, index, FieldClientName),
			Email:         normalize.Email(cell(row, index, FieldEmail)),
			Phone:         cell(row, index, FieldPhone),
			Status:        cell(row, index, FieldStatus),
			Tags:          parseTags(cell(row, index, FieldTags)),
			Street:        cell(row, index, FieldStreet),
			City:          cell(row, index, FieldCity),
			State:         cell(row, index, FieldState),
			Zip:           cell(row, index, FieldZip),
			EstimateDate:  parseDate(cell(row, index, FieldEstimateDate)),
			ContractStart: parseDate(cell(row, index, FieldContractStart)),
			ContractEnd:   parseDate(cell(row, index, FieldContractEnd)),
			Total:         total,
		}

		if !ok {
			stats.Skipped++
			continue
		}

		records = append(records, rec)
		stats.Parsed++
	}

	return records, stats
}

// ParseJobsites parses Jobsite Export rows. Rows without a jobsite ID
// are skipped and counted.
func ParseJobsites(rows [][]string, layout Layout) ([]models.JobsiteRow, models.ParseStats) {
	stats := models.ParseStats{}
	if len(rows) == 0 {
		stats.Error = "sheet is empty"
		return nil, stats
	}

	index, err := columnIndex(rows[0], layout)
	if err != nil {
		stats.Error = err.Error()
		return nil, stats
	}

	records := make([]models.JobsiteRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		if isBlank(row) {
			continue
		}
		stats.Rows++

		rec := models.JobsiteRow{
			JobsiteID: cell(row, index, FieldJobsiteID),
			Name:      cell(row, index, FieldName),
			ContactID: cell(row, index, FieldContactID),
			Street:    cell(row, index, FieldStreet),
			City:      cell(row, index, FieldCity),
			State:     cell(row, index, FieldState),
			Zip:       cell(row, index, FieldZip),
		}

		if rec.JobsiteID == "" {
			stats.Skipped++
			continue
		}

		records = append(records, rec)
		stats.Parsed++
	}

	return records, stats
}
