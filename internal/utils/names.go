package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// FoldName reduces a guest name to its search key: diacritics stripped,
// case folded, punctuation turned into spaces and whitespace collapsed.
// "  Zoë  O'Brien-Núñez " folds to "zoe o brien nunez".
func FoldName(name string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, name)
	if err != nil {
		stripped = name
	}

	folded := cases.Fold().String(stripped)
	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return r
		}
		return ' '
	}, folded)

	return strings.Join(strings.Fields(folded), " ")
}

// DisplayName trims and collapses inner whitespace, keeping the
// original spelling and case.
func DisplayName(name string) string {
	return strings.Join(strings.Fields(name), " ")
}
