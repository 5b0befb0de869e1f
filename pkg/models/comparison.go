package models

// Orphan source guesses. Advisory only; deletion always requires
// explicit operator confirmation.
const (
	OrphanSourcePreviousImport = "previous_import"
	OrphanSourcePossiblyMock   = "possibly_mock"
)

// FieldDiff is one field-level difference between a stored record and
// its imported counterpart.
type FieldDiff struct {
	Field    string `json:"field"`
	Existing string `json:"existing"`
	Imported string `json:"imported"`
}

// RecordUpdate pairs an imported record with the diffs against its
// stored counterpart.
type RecordUpdate[T any] struct {
	Record      T           `json:"record"`
	Differences []FieldDiff `json:"differences"`
}

// OrphanRecord is a stored record whose external ID is absent from the
// current sheets, annotated with a best-effort guess at where it came
// from.
type OrphanRecord[T any] struct {
	Record T      `json:"record"`
	Source string `json:"source"`
}

// EntityComparison partitions one record type into records to create,
// records to update, and stored orphans flagged for optional deletion.
type EntityComparison[T any] struct {
	New      []T               `json:"new"`
	Updated  []RecordUpdate[T] `json:"updated"`
	Orphaned []OrphanRecord[T] `json:"orphaned"`
}

// ComparisonResult is the diff of a merge result against the records
// currently in storage.
type ComparisonResult struct {
	Accounts  EntityComparison[Account]  `json:"accounts"`
	Contacts  EntityComparison[Contact]  `json:"contacts"`
	Estimates EntityComparison[Estimate] `json:"estimates"`
	Jobsites  EntityComparison[Jobsite]  `json:"jobsites"`
}

// ComparisonResponse wraps a comparison result for the review UI.
type ComparisonResponse struct {
	Success bool              `json:"success"`
	Result  *ComparisonResult `json:"result"`
}
