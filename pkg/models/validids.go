package models

// IDSet is a set of external IDs.
type IDSet map[string]struct{}

// NewIDSet builds a set from the given IDs, ignoring empty strings.
func NewIDSet(ids ...string) IDSet {
	s := make(IDSet, len(ids))
	for _, id := range ids {
		if id != "" {
			s[id] = struct{}{}
		}
	}
	return s
}

// Add inserts an ID unless it is empty.
func (s IDSet) Add(id string) {
	if id != "" {
		s[id] = struct{}{}
	}
}

// Has reports whether the set contains id.
func (s IDSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// Values returns the members in unspecified order.
func (s IDSet) Values() []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	return out
}

// ValidIDs is the authoritative universe of external IDs present in the
// current import sheets. Records stored with IDs outside these sets are
// orphans; references to IDs outside these sets are dangling.
type ValidIDs struct {
	AccountIDs  IDSet `json:"account_ids"`
	ContactIDs  IDSet `json:"contact_ids"`
	EstimateIDs IDSet `json:"estimate_ids"`
	JobsiteIDs  IDSet `json:"jobsite_ids"`
}
