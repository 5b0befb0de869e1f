// Package normalize provides the string normalization and name-matching
// rules the linking cascade depends on. Every rule here is deterministic:
// the same two inputs always produce the same answer.
package normalize

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
)

// Phone keeps only digit characters. A leading US country code "1" on an
// 11-digit number is dropped so "+1 (555) 123-4567" and "555.123.4567"
// compare equal.
func Phone(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	digits := result.String()
	if len(digits) == 11 && digits[0] == '1' {
		digits = digits[1:]
	}
	return digits
}

// Email lowercases and trims an email address.
func Email(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// nameSuffixes are legal and title suffixes dropped before comparing names.
var nameSuffixes = []string{
	" inc.", " inc", " llc.", " llc", " ltd.", " ltd", " corp.", " corp",
	" co.", " co", " jr.", " jr", " sr.", " sr", " iii", " ii", " iv",
}

// Name normalizes a person or company name for matching: lowercase,
// suffixes removed, punctuation dropped, whitespace collapsed.
func Name(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	for _, suffix := range nameSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(s[:len(s)-len(suffix)])
		}
	}

	var result strings.Builder
	prevSpace := false
	for _, r := range s {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			result.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '/':
			if !prevSpace && result.Len() > 0 {
				result.WriteRune(' ')
				prevSpace = true
			}
		}
	}

	return strings.TrimSpace(result.String())
}

// addressAbbreviations maps spelled-out street terms to the abbreviated
// forms the upstream exports mix freely.
var addressAbbreviations = map[string]string{
	"street":    "st",
	"avenue":    "ave",
	"boulevard": "blvd",
	"drive":     "dr",
	"road":      "rd",
	"lane":      "ln",
	"court":     "ct",
	"circle":    "cir",
	"place":     "pl",
	"highway":   "hwy",
	"suite":     "ste",
	"apartment": "apt",
	"north":     "n",
	"south":     "s",
	"east":      "e",
	"west":      "w",
}

var spaceRe = regexp.MustCompile(`\s+`)

// Address normalizes a street address for matching: lowercase,
// punctuation stripped, common street terms abbreviated, whitespace
// collapsed.
func Address(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))

	var cleaned strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			cleaned.WriteRune(r)
		} else {
			cleaned.WriteRune(' ')
		}
	}

	words := strings.Fields(cleaned.String())
	for i, w := range words {
		if abbr, ok := addressAbbreviations[w]; ok {
			words[i] = abbr
		}
	}

	return spaceRe.ReplaceAllString(strings.Join(words, " "), " ")
}

// FullAddress joins street/city/state/zip into one normalized key.
// Empty parts are skipped; an address needs at least a street to be
// usable as a match key.
func FullAddress(street, city, state, zip string) string {
	if strings.TrimSpace(street) == "" {
		return ""
	}
	parts := make([]string, 0, 4)
	for _, p := range []string{street, city, state, zip} {
		if n := Address(p); n != "" {
			parts = append(parts, n)
		}
	}
	return strings.Join(parts, " ")
}

// Tag normalizes one CRM tag for overlap comparison.
func Tag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// TagSet normalizes a tag list into a deduplicated set.
func TagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		if n := Tag(t); n != "" {
			set[n] = struct{}{}
		}
	}
	return set
}

// Tokens splits a normalized name into its sorted unique tokens.
func Tokens(name string) []string {
	fields := strings.Fields(Name(name))
	seen := make(map[string]struct{}, len(fields))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if _, ok := seen[f]; ok {
			continue
		}
		seen[f] = struct{}{}
		tokens = append(tokens, f)
	}
	sort.Strings(tokens)
	return tokens
}

// FuzzyNameMatch reports whether two names refer to the same party.
//
// The rule is deterministic, no scores or thresholds:
//  1. normalize both names with Name
//  2. equal normalized names match
//  3. if one normalized name contains the other and the shorter one has
//     at least 4 runes, they match
//  4. otherwise compare token sets: 2 or more shared tokens match, and a
//     single shared token matches only when either name has exactly one
//     token
func FuzzyNameMatch(a, b string) bool {
	na, nb := Name(a), Name(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}

	shorter, longer := na, nb
	if len([]rune(shorter)) > len([]rune(longer)) {
		shorter, longer = longer, shorter
	}
	if len([]rune(shorter)) >= 4 && strings.Contains(longer, shorter) {
		return true
	}

	ta, tb := Tokens(na), Tokens(nb)
	shared := 0
	set := make(map[string]struct{}, len(ta))
	for _, t := range ta {
		set[t] = struct{}{}
	}
	for _, t := range tb {
		if _, ok := set[t]; ok {
			shared++
		}
	}

	if shared >= 2 {
		return true
	}
	return shared == 1 && (len(ta) == 1 || len(tb) == 1)
}
