package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPhone(t *testing.T) {
	assert.Equal(t, "5551234567", Phone("(555) 123-4567"))
	assert.Equal(t, "5551234567", Phone("+1 555.123.4567"))
	assert.Equal(t, "5551234567", Phone("555 123 4567"))
	assert.Equal(t, "", Phone("n/a"))
}

func TestEmail(t *testing.T) {
	assert.Equal(t, "bob@example.com", Email("  Bob@Example.COM "))
}

func TestName(t *testing.T) {
	assert.Equal(t, "acme roofing", Name("ACME Roofing, Inc."))
	assert.Equal(t, "john smith", Name("John  Smith Jr."))
	assert.Equal(t, "oneil paving", Name("O'Neil Paving LLC"))
	assert.Equal(t, "smith jones", Name("Smith-Jones"))
}

func TestAddress(t *testing.T) {
	assert.Equal(t, "123 n main st", Address("123 North Main Street"))
	assert.Equal(t, "123 n main st", Address("123 N. Main St."))
	assert.Equal(t, "45 oak ave ste 2", Address("45 Oak Avenue, Suite 2"))
}

func TestFullAddress(t *testing.T) {
	a := FullAddress("123 Main Street", "Springfield", "IL", "62701")
	b := FullAddress("123 Main St", "Springfield", "il", "62701")
	assert.Equal(t, a, b)

	// No street, no key.
	assert.Equal(t, "", FullAddress("", "Springfield", "IL", "62701"))
}

func TestTokens(t *testing.T) {
	assert.Equal(t, []string{"acme", "roofing"}, Tokens("ACME Roofing Inc."))
	assert.Equal(t, []string{"smith"}, Tokens("Smith smith"))
}

func TestFuzzyNameMatch(t *testing.T) {
	// Exact after normalization.
	assert.True(t, FuzzyNameMatch("ACME Roofing, Inc.", "acme roofing"))

	// Substring with long enough shorter side.
	assert.True(t, FuzzyNameMatch("Acme", "Acme Roofing and Siding"))

	// Two shared tokens.
	assert.True(t, FuzzyNameMatch("Acme Roofing Springfield", "Springfield Acme Paving"))

	// One shared token only matches when a side is a single token.
	assert.True(t, FuzzyNameMatch("Smith", "Smith Brothers Paving"))
	assert.False(t, FuzzyNameMatch("Smith Roofing", "Jones Roofing"))

	// Short fragments never match on containment alone.
	assert.False(t, FuzzyNameMatch("Ace", "Acme Hardware"))

	// Deterministic: same inputs, same answer.
	for i := 0; i < 3; i++ {
		assert.True(t, FuzzyNameMatch("Acme Roofing", "ACME ROOFING INC"))
	}
}
