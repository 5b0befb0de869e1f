package sheets

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// cell returns the trimmed value of a mapped field, or "" when the
// column is absent or the row is short.
func cell(row []string, index map[string]int, field string) string {
	i, ok := index[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// isBlank reports whether every cell in the row is empty.
func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// parseBool accepts the truthy spellings seen in CRM exports.
func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "yes", "y", "1", "x", "checked":
		return true
	}
	return false
}

// parseTags splits a delimited tag cell. Exports use both commas and
// semicolons.
func parseTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	split := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ';'
	})
	tags := make([]string, 0, len(split))
	for _, t := range split {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// dateFormats covers the formats the upstream exporter has been seen to
// produce.
var dateFormats = []string{
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05Z07:00",
	"Jan 2, 2006",
}

// parseDate parses a date cell, returning nil for empty or
// unparseable values.
func parseDate(s string) *time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// parseMoney parses a monetary cell, stripping currency symbols and
// thousands separators. Unparseable values come back as zero with
// ok=false so the caller can count the row as malformed.
func parseMoney(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, true
	}

	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	negative := false
	if strings.HasPrefix(cleaned, "(") && strings.HasSuffix(cleaned, ")") {
		negative = true
		cleaned = cleaned[1 : len(cleaned)-1]
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, false
	}
	if negative {
		d = d.Neg()
	}
	return d, true
}
