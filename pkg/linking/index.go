package linking

import (
	"sort"

	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalize"
)

// Index holds the lookup tables one merge run links against. It is
// built once from the merged accounts and contacts and never mutated by
// the strategies, so repeated cascades over the same index are
// deterministic.
type Index struct {
	accountOfContact map[string]string // contact external ID -> account external ID
	accountOfEmail   map[string]string // normalized email -> account external ID
	accountOfPhone   map[string]string // digits-only phone -> account external ID
	accountOfAddress map[string]string // normalized full address -> account external ID
	accountOfName    map[string]string // normalized account name -> account external ID
	accountTags      map[string]map[string]struct{}

	// orderedAccounts fixes iteration order for tag and fuzzy scans so
	// ties always resolve to the same account.
	orderedAccounts []indexedAccount
}

type indexedAccount struct {
	externalID string
	name       string
}

// BuildIndex indexes accounts and contacts for the cascade. When two
// contacts share an email or phone, the first one in external-ID order
// wins, keeping the index deterministic across runs.
func BuildIndex(accounts []models.Account, contacts []models.Contact, contactRows []models.ContactRow) *Index {
	idx := &Index{
		accountOfContact: make(map[string]string),
		accountOfEmail:   make(map[string]string),
		accountOfPhone:   make(map[string]string),
		accountOfAddress: make(map[string]string),
		accountOfName:    make(map[string]string),
		accountTags:      make(map[string]map[string]struct{}),
	}

	sortedAccounts := make([]models.Account, len(accounts))
	copy(sortedAccounts, accounts)
	sort.Slice(sortedAccounts, func(i, j int) bool {
		return sortedAccounts[i].ExternalID < sortedAccounts[j].ExternalID
	})

	for _, a := range sortedAccounts {
		idx.orderedAccounts = append(idx.orderedAccounts, indexedAccount{externalID: a.ExternalID, name: a.Name})
		idx.accountTags[a.ExternalID] = normalize.TagSet(a.Tags)

		if name := normalize.Name(a.Name); name != "" {
			setIfAbsent(idx.accountOfName, name, a.ExternalID)
		}
		if addr := normalize.FullAddress(a.Street, a.City, a.State, a.Zip); addr != "" {
			setIfAbsent(idx.accountOfAddress, addr, a.ExternalID)
		}
	}

	sortedContacts := make([]models.Contact, len(contacts))
	copy(sortedContacts, contacts)
	sort.Slice(sortedContacts, func(i, j int) bool {
		return sortedContacts[i].ExternalID < sortedContacts[j].ExternalID
	})

	for _, c := range sortedContacts {
		if c.AccountID == nil || *c.AccountID == "" {
			continue
		}
		account := *c.AccountID
		if c.ExternalID != "" {
			setIfAbsent(idx.accountOfContact, c.ExternalID, account)
		}
		if email := normalize.Email(c.Email); email != "" {
			setIfAbsent(idx.accountOfEmail, email, account)
		}
		if digits := normalize.Phone(c.Phone); digits != "" {
			setIfAbsent(idx.accountOfPhone, digits, account)
		}
	}

	// Contact rows also carry addresses usable as account match keys.
	for _, row := range contactRows {
		if row.AccountID == "" {
			continue
		}
		if addr := normalize.FullAddress(row.Street, row.City, row.State, row.Zip); addr != "" {
			setIfAbsent(idx.accountOfAddress, addr, row.AccountID)
		}
	}

	return idx
}

func setIfAbsent(m map[string]string, key, value string) {
	if _, ok := m[key]; !ok {
		m[key] = value
	}
}

// AccountOfContact resolves a contact external ID to its account.
func (idx *Index) AccountOfContact(contactID string) string {
	return idx.accountOfContact[contactID]
}

// AccountOfEmail resolves a normalized email to the account of the
// contact carrying it.
func (idx *Index) AccountOfEmail(email string) string {
	return idx.accountOfEmail[normalize.Email(email)]
}

// AccountOfPhone resolves a digits-only phone to the account of the
// contact carrying it.
func (idx *Index) AccountOfPhone(digits string) string {
	return idx.accountOfPhone[digits]
}

// AccountOfAddress resolves an address to an account. The lookup
// normalizes its input, so raw and pre-normalized addresses both work.
func (idx *Index) AccountOfAddress(address string) string {
	return idx.accountOfAddress[normalize.Address(address)]
}

// AccountOfName resolves an exact normalized name to an account.
func (idx *Index) AccountOfName(name string) string {
	return idx.accountOfName[normalize.Name(name)]
}

// AccountByTagOverlap returns the first account (in external-ID order)
// sharing at least one tag with the given set.
func (idx *Index) AccountByTagOverlap(tags []string) string {
	query := normalize.TagSet(tags)
	if len(query) == 0 {
		return ""
	}
	for _, a := range idx.orderedAccounts {
		for tag := range query {
			if _, ok := idx.accountTags[a.externalID][tag]; ok {
				return a.externalID
			}
		}
	}
	return ""
}

// AccountByFuzzyName returns the first account (in external-ID order)
// whose name fuzzy-matches the given name.
func (idx *Index) AccountByFuzzyName(name string) string {
	for _, a := range idx.orderedAccounts {
		if normalize.FuzzyNameMatch(name, a.name) {
			return a.externalID
		}
	}
	return ""
}
