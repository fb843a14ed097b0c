package rules

import (
	"strings"
	"unicode"
)

// Normalize lowercases text, strips punctuation to whitespace, and collapses
// runs of whitespace. Letters and digits from any alphabet are preserved, so
// non-ASCII vendor names normalize without loss.
func Normalize(text string) string {
	var b strings.Builder
	b.Grow(len(text))

	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}
