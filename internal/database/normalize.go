package database

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Doplňky" -> "Doplnky").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeCategory normalizes a category for comparison (lowercase, no
// diacritics, spaces for dashes, collapsed whitespace).
func NormalizeCategory(category string) string {
	category = RemoveDiacritics(category)
	category = strings.ToLower(category)
	category = strings.ReplaceAll(category, "-", " ")
	return strings.Join(strings.Fields(category), " ")
}
