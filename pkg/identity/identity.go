// Package identity derives the authoritative universe of external IDs
// from the parsed import sheets.
package identity

import "github.com/Ramsey-B/clover/pkg/models"

// ExtractValidIDs scans all four parsed sheets and returns the sets of
// external IDs that should exist after the import. Pure function of its
// inputs; no side effects, no I/O.
//
// The sets are used both to filter estimates/jobsites before upload and
// to validate references: anything stored under an ID outside these sets
// is an orphan, and any reference to an ID outside them is dangling.
func ExtractValidIDs(
	contacts []models.ContactRow,
	leads []models.LeadRow,
	estimates []models.EstimateRow,
	jobsites []models.JobsiteRow,
) models.ValidIDs {
	valid := models.ValidIDs{
		AccountIDs:  models.NewIDSet(),
		ContactIDs:  models.NewIDSet(),
		EstimateIDs: models.NewIDSet(),
		JobsiteIDs:  models.NewIDSet(),
	}

	for _, row := range contacts {
		valid.AccountIDs.Add(row.AccountID)
		valid.ContactIDs.Add(row.ContactID)
	}

	// Leads never create accounts, but a lead carrying a contact ID keeps
	// that contact in the valid universe even if the contacts export
	// missed it.
	for _, row := range leads {
		valid.ContactIDs.Add(row.ContactID)
	}

	for _, row := range estimates {
		valid.EstimateIDs.Add(row.EstimateID)
	}

	for _, row := range jobsites {
		valid.JobsiteIDs.Add(row.JobsiteID)
	}

	return valid
}
