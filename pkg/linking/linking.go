// Package linking implements the account-linking cascade: an ordered
// list of pure resolver strategies evaluated in sequence with early exit
// on the first match.
package linking

import (
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalize"
)

// Query carries the fields of the record being linked. Strategies read
// only from the query and the index, never from shared state.
type Query struct {
	ContactID string
	Email     string
	Phone     string
	Tags      []string
	Address   string
	Name      string
}

// Outcome is the tagged result of one cascade run: either no match, or
// matched-by(strategy, account).
type Outcome struct {
	Matched   bool
	Strategy  string
	AccountID string
}

// NoMatch is the zero outcome.
var NoMatch = Outcome{}

// Strategy is one step of the cascade. Resolve returns the external ID
// of the matched account, or "" for no match.
type Strategy struct {
	Name    string
	Resolve func(q Query, idx *Index) string
}

// Resolve runs the strategies in order and stops at the first match.
// Given a higher-priority match, no lower-priority strategy is ever
// consulted.
func Resolve(strategies []Strategy, q Query, idx *Index) Outcome {
	for _, s := range strategies {
		if accountID := s.Resolve(q, idx); accountID != "" {
			return Outcome{Matched: true, Strategy: s.Name, AccountID: accountID}
		}
	}
	return NoMatch
}

// EstimateStrategies is the cascade for linking estimates to accounts:
// contact-ID, email, phone, tag overlap, address, fuzzy name.
func EstimateStrategies() []Strategy {
	return []Strategy{
		{Name: models.LinkedByContact, Resolve: byContactID},
		{Name: models.LinkedByEmail, Resolve: byEmail},
		{Name: models.LinkedByPhone, Resolve: byPhone},
		{Name: models.LinkedByTags, Resolve: byTagOverlap},
		{Name: models.LinkedByAddress, Resolve: byAddress},
		{Name: models.LinkedByFuzzy, Resolve: byFuzzyName},
	}
}

// JobsiteStrategies is the cascade for linking jobsites to accounts:
// contact-ID, address, exact normalized name, fuzzy name.
func JobsiteStrategies() []Strategy {
	return []Strategy{
		{Name: models.LinkedByContact, Resolve: byContactID},
		{Name: models.LinkedByAddress, Resolve: byAddress},
		{Name: models.LinkedByName, Resolve: byExactName},
		{Name: models.LinkedByFuzzy, Resolve: byFuzzyName},
	}
}

func byContactID(q Query, idx *Index) string {
	if q.ContactID == "" {
		return ""
	}
	return idx.AccountOfContact(q.ContactID)
}

func byEmail(q Query, idx *Index) string {
	if q.Email == "" {
		return ""
	}
	return idx.AccountOfEmail(q.Email)
}

func byPhone(q Query, idx *Index) string {
	digits := normalize.Phone(q.Phone)
	if digits == "" {
		return ""
	}
	return idx.AccountOfPhone(digits)
}

func byTagOverlap(q Query, idx *Index) string {
	if len(q.Tags) == 0 {
		return ""
	}
	return idx.AccountByTagOverlap(q.Tags)
}

func byAddress(q Query, idx *Index) string {
	if q.Address == "" {
		return ""
	}
	return idx.AccountOfAddress(q.Address)
}

func byExactName(q Query, idx *Index) string {
	if q.Name == "" {
		return ""
	}
	return idx.AccountOfName(q.Name)
}

func byFuzzyName(q Query, idx *Index) string {
	if q.Name == "" {
		return ""
	}
	return idx.AccountByFuzzyName(q.Name)
}
