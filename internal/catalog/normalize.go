package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// punctuation removed before names are compared. Card names differ only in
// punctuation often enough that users rarely type it exactly.
var punctuation = strings.NewReplacer(
	"'", "",
	"’", "",
	"\"", "",
	"“", "",
	"”", "",
	",", "",
	".", "",
	":", "",
	"!", "",
	"?", "",
	"-", " ",
	"æ", "ae",
	"Æ", "ae",
)

// Normalize reduces a card name to a comparison key: trimmed, case folded,
// stripped of diacritics and punctuation, with runs of spaces collapsed.
func Normalize(name string) string {
	name = punctuation.Replace(strings.TrimSpace(name))

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if stripped, _, err := transform.String(t, name); err == nil {
		name = stripped
	}

	// A Caser is stateful, so each call gets its own.
	name = cases.Fold().String(name)
	return strings.Join(strings.Fields(name), " ")
}

// Equals reports whether two card names are the same after normalization.
func Equals(a, b string) bool {
	return Normalize(a) == Normalize(b)
}
