// Package validate checks referential integrity of a merge result
// against the valid-ID universe extracted from the sheets.
package validate

import (
	"fmt"
	"regexp"

	"github.com/Ramsey-B/clover/pkg/models"
)

// recognizedIDPattern matches the ID formats the source system emits:
// plain numeric IDs or the exporter's prefixed forms.
var recognizedIDPattern = regexp.MustCompile(`^(\d+|(ACCT|CON|EST|JOB)-[A-Za-z0-9-]+)$`)

// ValidateReferences walks every estimate and jobsite reference and
// confirms it resolves inside the valid-ID sets. A dangling reference in
// a recognized source-system format is a warning: the record still
// imports, with the reference nulled at commit. A reference in an
// unrecognized format is an error.
func ValidateReferences(merged *models.MergeResult, valid models.ValidIDs) *models.ValidationResult {
	result := &models.ValidationResult{}

	for _, e := range merged.Estimates {
		checkRef(result, "estimate", e.ExternalID, "account_id", e.AccountID, valid.AccountIDs)
		checkRef(result, "estimate", e.ExternalID, "contact_id", e.ContactID, valid.ContactIDs)
	}
	for _, j := range merged.Jobsites {
		checkRef(result, "jobsite", j.ExternalID, "account_id", j.AccountID, valid.AccountIDs)
		checkRef(result, "jobsite", j.ExternalID, "contact_id", j.ContactID, valid.ContactIDs)
	}

	return result
}

func checkRef(result *models.ValidationResult, recordType, recordID, field string, ref *string, valid models.IDSet) {
	if ref == nil || *ref == "" {
		return
	}
	if valid.Has(*ref) {
		return
	}

	issue := models.ReferenceIssue{
		RecordType:  recordType,
		RecordID:    recordID,
		Field:       field,
		ReferenceID: *ref,
	}
	if recognizedIDPattern.MatchString(*ref) {
		issue.Message = fmt.Sprintf("%s %s references %s %q not present in the import sheets; the reference will be cleared", recordType, recordID, field, *ref)
		result.Warnings = append(result.Warnings, issue)
		return
	}
	issue.Message = fmt.Sprintf("%s %s references %s %q in an unrecognized ID format", recordType, recordID, field, *ref)
	result.Errors = append(result.Errors, issue)
}
