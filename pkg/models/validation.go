package models

// ReferenceIssue is one dangling or malformed ID reference found while
// walking estimate and jobsite references.
type ReferenceIssue struct {
	RecordType  string `json:"record_type"`
	RecordID    string `json:"record_id"`
	Field       string `json:"field"`
	ReferenceID string `json:"reference_id"`
	Message     string `json:"message"`
}

// ValidationResult partitions reference issues by severity. A dangling
// reference in a recognized source-system ID format is a warning (the
// record is still imported with the reference nulled); a reference in an
// unrecognized format is an error.
type ValidationResult struct {
	Errors   []ReferenceIssue `json:"errors"`
	Warnings []ReferenceIssue `json:"warnings"`
}

// ValidationResponse wraps a validation result for the review UI.
type ValidationResponse struct {
	Success bool              `json:"success"`
	Result  *ValidationResult `json:"result"`
}
