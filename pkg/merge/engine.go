// Package merge combines the four parsed import sheets into unified
// account, contact, estimate and jobsite records. The merge is a pure
// function of the sheets: no I/O, no shared state, and identical inputs
// always produce identical output, so a preview can be recomputed at
// any time without touching storage.
package merge

import (
	"fmt"
	"sort"

	"github.com/Ramsey-B/clover/pkg/linking"
	"github.com/Ramsey-B/clover/pkg/models"
	"github.com/Ramsey-B/clover/pkg/normalize"
)

// Merge runs the full reconciliation over the parsed sheets: accounts
// and contacts from the contacts export, contact enrichment from leads,
// then the estimate and jobsite linking cascades. Statistics accumulate
// in the returned result only, never in package state.
func Merge(sheets *models.ParsedSheets) *models.MergeResult {
	result := &models.MergeResult{}

	result.Accounts = mergeAccounts(sheets.Contacts)
	result.Contacts = mergeContacts(sheets.Contacts, sheets.Leads, result.Accounts, &result.Stats)

	idx := linking.BuildIndex(result.Accounts, result.Contacts, sheets.Contacts)
	result.Estimates = linkEstimates(sheets.Estimates, idx, result)
	result.Jobsites, result.OrphanedJobsites = linkJobsites(sheets.Jobsites, idx, &result.Stats)

	result.Stats.TotalAccounts = len(result.Accounts)
	result.Stats.TotalContacts = len(result.Contacts)

	return result
}

// mergeAccounts builds one account per unique account ID seen in the
// contacts export. The first row for an ID supplies the fields; tags
// from every row for that account are unioned. Lead rows never create
// accounts.
func mergeAccounts(rows []models.ContactRow) []models.Account {
	byID := make(map[string]*models.Account)
	tagSets := make(map[string]map[string]struct{})
	var order []string

	for _, row := range rows {
		if row.AccountID == "" {
			continue
		}
		account, ok := byID[row.AccountID]
		if !ok {
			account = &models.Account{
				ExternalID: row.AccountID,
				Name:       row.AccountName,
				Type:       row.AccountType,
				Archived:   row.Archived,
				Street:     row.Street,
				City:       row.City,
				State:      row.State,
				Zip:        row.Zip,
			}
			byID[row.AccountID] = account
			tagSets[row.AccountID] = make(map[string]struct{})
			order = append(order, row.AccountID)
		}
		for _, tag := range row.Tags {
			if t := normalize.Tag(tag); t != "" {
				tagSets[row.AccountID][t] = struct{}{}
			}
		}
	}

	sort.Strings(order)
	accounts := make([]models.Account, 0, len(order))
	for _, id := range order {
		account := byID[id]
		tags := make([]string, 0, len(tagSets[id]))
		for t := range tagSets[id] {
			tags = append(tags, t)
		}
		sort.Strings(tags)
		account.Tags = tags
		accounts = append(accounts, *account)
	}
	return accounts
}

// mergeContacts builds contacts from the contacts export, then folds in
// the leads list. Each lead matches an existing contact by contact ID,
// then email, then digits-only phone; the first match wins and lower
// strategies are not attempted. A lead matching nothing synthesizes a
// new contact flagged NewFromLeads, attributed to an account by company
// name match. Synthesized contacts join the lookup tables so duplicate
// lead rows enrich the first instead of multiplying.
func mergeContacts(rows []models.ContactRow, leads []models.LeadRow, accounts []models.Account, stats *models.MergeStats) []models.Contact {
	contacts := make([]models.Contact, 0, len(rows))
	byID := make(map[string]int)
	byEmail := make(map[string]int)
	byPhone := make(map[string]int)

	register := func(i int) {
		c := &contacts[i]
		if c.ExternalID != "" {
			if _, ok := byID[c.ExternalID]; !ok {
				byID[c.ExternalID] = i
			}
		}
		if email := normalize.Email(c.Email); email != "" {
			if _, ok := byEmail[email]; !ok {
				byEmail[email] = i
			}
		}
		if digits := normalize.Phone(c.Phone); digits != "" {
			if _, ok := byPhone[digits]; !ok {
				byPhone[digits] = i
			}
		}
	}

	for _, row := range rows {
		if row.ContactID == "" {
			continue
		}
		if _, seen := byID[row.ContactID]; seen {
			continue
		}
		contact := models.Contact{
			ExternalID: row.ContactID,
			Name:       row.Name,
			Email:      row.Email,
			Phone:      row.Phone,
		}
		if row.AccountID != "" {
			accountID := row.AccountID
			contact.AccountID = &accountID
		}
		contacts = append(contacts, contact)
		register(len(contacts) - 1)
	}

	for _, lead := range leads {
		i, ok := matchLead(lead, byID, byEmail, byPhone)
		if ok {
			stats.MatchedContacts++
			enrichContact(&contacts[i], lead)
			continue
		}

		stats.UnmatchedContacts++
		stats.NewContactsFromLeads++
		contact := models.Contact{
			ExternalID:   lead.ContactID,
			Name:         lead.Name,
			Email:        lead.Email,
			Phone:        lead.Phone,
			DoNotEmail:   lead.DoNotEmail,
			DoNotMail:    lead.DoNotMail,
			DoNotCall:    lead.DoNotCall,
			NewFromLeads: true,
		}
		if accountID := attributeCompany(lead.Company, accounts); accountID != "" {
			contact.AccountID = &accountID
		}
		contacts = append(contacts, contact)
		register(len(contacts) - 1)
	}

	if total := len(leads); total > 0 {
		stats.MatchRate = float64(stats.MatchedContacts) / float64(total)
	}

	sort.SliceStable(contacts, func(i, j int) bool {
		return contacts[i].ExternalID < contacts[j].ExternalID
	})
	return contacts
}

// matchLead resolves a lead row to an existing contact index. Priority
// is contact ID, then email, then phone; the first hit wins.
func matchLead(lead models.LeadRow, byID, byEmail, byPhone map[string]int) (int, bool) {
	if lead.ContactID != "" {
		if i, ok := byID[lead.ContactID]; ok {
			return i, true
		}
	}
	if email := normalize.Email(lead.Email); email != "" {
		if i, ok := byEmail[email]; ok {
			return i, true
		}
	}
	if digits := normalize.Phone(lead.Phone); digits != "" {
		if i, ok := byPhone[digits]; ok {
			return i, true
		}
	}
	return 0, false
}

func enrichContact(c *models.Contact, lead models.LeadRow) {
	c.DoNotEmail = c.DoNotEmail || lead.DoNotEmail
	c.DoNotMail = c.DoNotMail || lead.DoNotMail
	c.DoNotCall = c.DoNotCall || lead.DoNotCall
	if c.Email == "" {
		c.Email = lead.Email
	}
	if c.Phone == "" {
		c.Phone = lead.Phone
	}
}

// attributeCompany matches a lead's company name against the known
// account names. Accounts are already sorted by external ID, so ties
// resolve the same way every run.
func attributeCompany(company string, accounts []models.Account) string {
	if normalize.Name(company) == "" {
		return ""
	}
	for _, a := range accounts {
		if normalize.FuzzyNameMatch(company, a.Name) {
			return a.ExternalID
		}
	}
	return ""
}

// linkEstimates links each estimate row to an account through the
// estimate cascade. Rows without an external ID are dropped with a
// warning; everything else is retained exactly once, linked or not,
// since the monetary and date data matters either way.
func linkEstimates(rows []models.EstimateRow, idx *linking.Index, result *models.MergeResult) []models.Estimate {
	strategies := linking.EstimateStrategies()
	estimates := make([]models.Estimate, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		if row.EstimateID == "" {
			result.Warnings = append(result.Warnings, "estimate row dropped: missing external ID")
			continue
		}
		if _, dup := seen[row.EstimateID]; dup {
			result.Warnings = append(result.Warnings, fmt.Sprintf("duplicate estimate %s skipped", row.EstimateID))
			continue
		}
		seen[row.EstimateID] = struct{}{}

		estimate := models.Estimate{
			ExternalID:    row.EstimateID,
			ClientName:    row.ClientName,
			Email:         row.Email,
			Phone:         row.Phone,
			Status:        row.Status,
			Tags:          row.Tags,
			Street:        row.Street,
			City:          row.City,
			State:         row.State,
			Zip:           row.Zip,
			EstimateDate:  row.EstimateDate,
			ContractStart: row.ContractStart,
			ContractEnd:   row.ContractEnd,
			Total:         row.Total,
		}
		if row.ContactID != "" {
			contactID := row.ContactID
			estimate.ContactID = &contactID
		}

		outcome := linking.Resolve(strategies, linking.Query{
			ContactID: row.ContactID,
			Email:     row.Email,
			Phone:     row.Phone,
			Tags:      row.Tags,
			Address:   normalize.FullAddress(row.Street, row.City, row.State, row.Zip),
			Name:      row.ClientName,
		}, idx)
		if outcome.Matched {
			accountID := outcome.AccountID
			estimate.AccountID = &accountID
			estimate.LinkedBy = outcome.Strategy
			result.Stats.EstimateLinking.Record(outcome.Strategy)
		}

		estimates = append(estimates, estimate)
	}

	sort.SliceStable(estimates, func(i, j int) bool {
		return estimates[i].ExternalID < estimates[j].ExternalID
	})
	result.Stats.EstimateLinking.Finalize(len(estimates))
	return estimates
}

// linkJobsites links each jobsite row through the jobsite cascade and
// collects the external IDs no strategy matched. Orphaned jobsites stay
// in the output with a null account and are open to manual linking.
func linkJobsites(rows []models.JobsiteRow, idx *linking.Index, stats *models.MergeStats) ([]models.Jobsite, []string) {
	strategies := linking.JobsiteStrategies()
	jobsites := make([]models.Jobsite, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))
	var orphaned []string

	for _, row := range rows {
		if row.JobsiteID == "" {
			continue
		}
		if _, dup := seen[row.JobsiteID]; dup {
			continue
		}
		seen[row.JobsiteID] = struct{}{}

		jobsite := models.Jobsite{
			ExternalID: row.JobsiteID,
			Name:       row.Name,
			Street:     row.Street,
			City:       row.City,
			State:      row.State,
			Zip:        row.Zip,
		}
		if row.ContactID != "" {
			contactID := row.ContactID
			jobsite.ContactID = &contactID
		}

		outcome := linking.Resolve(strategies, linking.Query{
			ContactID: row.ContactID,
			Address:   normalize.FullAddress(row.Street, row.City, row.State, row.Zip),
			Name:      row.Name,
		}, idx)
		if outcome.Matched {
			accountID := outcome.AccountID
			jobsite.AccountID = &accountID
			jobsite.LinkedBy = outcome.Strategy
			stats.JobsiteLinking.Record(outcome.Strategy)
		} else {
			orphaned = append(orphaned, row.JobsiteID)
		}

		jobsites = append(jobsites, jobsite)
	}

	sort.SliceStable(jobsites, func(i, j int) bool {
		return jobsites[i].ExternalID < jobsites[j].ExternalID
	})
	sort.Strings(orphaned)
	stats.JobsiteLinking.Finalize(len(jobsites))
	return jobsites, orphaned
}

// ApplyJobsiteLinks applies the operator's manual link overrides on top
// of a freshly merged result and recomputes the jobsite linking stats.
// The overrides map external ID to an account ID, or to nil for an
// explicit unlink. Overrides for unknown jobsites are ignored.
func ApplyJobsiteLinks(result *models.MergeResult, overrides map[string]*string) {
	if len(overrides) > 0 {
		for i := range result.Jobsites {
			js := &result.Jobsites[i]
			override, ok := overrides[js.ExternalID]
			if !ok {
				continue
			}
			js.ManualLink = true
			if override != nil && *override != "" {
				accountID := *override
				js.AccountID = &accountID
				js.LinkedBy = models.LinkedManually
			} else {
				js.AccountID = nil
				js.LinkedBy = ""
			}
		}
	}

	stats := models.LinkStats{}
	orphaned := make([]string, 0)
	for _, js := range result.Jobsites {
		if js.AccountID != nil {
			stats.Record(js.LinkedBy)
		} else {
			orphaned = append(orphaned, js.ExternalID)
		}
	}
	sort.Strings(orphaned)
	stats.Finalize(len(result.Jobsites))
	result.Stats.JobsiteLinking = stats
	result.OrphanedJobsites = orphaned
}
