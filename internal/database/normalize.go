package database

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Trần Mạnh" -> "Tran Manh").
// "đ" has no decomposition and is mapped explicitly.
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return strings.NewReplacer("đ", "d", "Đ", "D").Replace(result)
}

// NormalizeName normalizes a name for comparison (lowercase, no diacritics, collapsed spaces).
func NormalizeName(name string) string {
	name = RemoveDiacritics(name)
	name = strings.ToLower(name)
	return strings.Join(strings.Fields(name), " ")
}
