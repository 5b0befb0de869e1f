package models

// Linking strategy names, in cascade priority order. The first strategy
// that resolves an account wins; lower-priority strategies are never
// consulted for that record.
const (
	LinkedByContact = "contact"
	LinkedByEmail   = "email"
	LinkedByPhone   = "phone"
	LinkedByTags    = "tags"
	LinkedByAddress = "address"
	LinkedByName    = "name"
	LinkedByFuzzy   = "fuzzy"
	LinkedManually  = "manual"
)

// LinkStats counts how many records of one type were linked to an
// account by each strategy. Linked + Orphaned always equals Total.
type LinkStats struct {
	LinkedByContact int     `json:"linked_by_contact"`
	LinkedByEmail   int     `json:"linked_by_email"`
	LinkedByPhone   int     `json:"linked_by_phone"`
	LinkedByTags    int     `json:"linked_by_tags"`
	LinkedByAddress int     `json:"linked_by_address"`
	LinkedByName    int     `json:"linked_by_name"`
	LinkedByFuzzy   int     `json:"linked_by_fuzzy"`
	LinkedManually  int     `json:"linked_manually"`
	Linked          int     `json:"linked"`
	Orphaned        int     `json:"orphaned"`
	Total           int     `json:"total"`
	LinkRate        float64 `json:"link_rate"`
}

// Record counts one linked record against the named strategy.
func (s *LinkStats) Record(strategy string) {
	switch strategy {
	case LinkedByContact:
		s.LinkedByContact++
	case LinkedByEmail:
		s.LinkedByEmail++
	case LinkedByPhone:
		s.LinkedByPhone++
	case LinkedByTags:
		s.LinkedByTags++
	case LinkedByAddress:
		s.LinkedByAddress++
	case LinkedByName:
		s.LinkedByName++
	case LinkedByFuzzy:
		s.LinkedByFuzzy++
	case LinkedManually:
		s.LinkedManually++
	}
}

// Finalize computes Linked, Orphaned and LinkRate from the per-strategy
// counts and the given total.
func (s *LinkStats) Finalize(total int) {
	s.Total = total
	s.Linked = s.LinkedByContact + s.LinkedByEmail + s.LinkedByPhone +
		s.LinkedByTags + s.LinkedByAddress + s.LinkedByName + s.LinkedByFuzzy + s.LinkedManually
	s.Orphaned = total - s.Linked
	if total > 0 {
		s.LinkRate = float64(s.Linked) / float64(total)
	} else {
		s.LinkRate = 0
	}
}

// MergeStats summarizes one merge run. It is derived from the input
// sheets and never persisted.
type MergeStats struct {
	TotalAccounts        int       `json:"total_accounts"`
	TotalContacts        int       `json:"total_contacts"`
	MatchedContacts      int       `json:"matched_contacts"`
	UnmatchedContacts    int       `json:"unmatched_contacts"`
	MatchRate            float64   `json:"match_rate"`
	NewContactsFromLeads int       `json:"new_contacts_from_leads"`
	EstimateLinking      LinkStats `json:"estimate_linking"`
	JobsiteLinking       LinkStats `json:"jobsite_linking"`
}

// MergeResult is the unified output of one merge run over the four
// parsed sheets.
type MergeResult struct {
	Accounts  []Account  `json:"accounts"`
	Contacts  []Contact  `json:"contacts"`
	Estimates []Estimate `json:"estimates"`
	Jobsites  []Jobsite  `json:"jobsites"`

	// OrphanedJobsites lists external IDs of jobsites no automatic
	// strategy could link; these are open to manual linking.
	OrphanedJobsites []string `json:"orphaned_jobsites"`

	// Warnings carries row-level conditions worth operator review, such
	// as estimate rows dropped for missing an external ID.
	Warnings []string `json:"warnings,omitempty"`

	Stats MergeStats `json:"stats"`
}

// MergePreviewResponse wraps a merge result for the review UI.
type MergePreviewResponse struct {
	Success bool         `json:"success"`
	Result  *MergeResult `json:"result"`
}
