package llm

import "regexp"

// PII-shaped substrings are replaced with fixed placeholder tokens before any
// text leaves the process. Order matters: emails before phones (digits in a
// local part must not be misread as a number), state+zip pairs before bare
// zips (so the state abbreviation is consumed too).
var (
	emailPattern    = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern    = regexp.MustCompile(`(?:\+?\d{1,2}[\s.\-]?)?(?:\(\d{3}\)|\d{3})[\s.\-]\d{3}[\s.\-]?\d{4}`)
	stateZipPattern = regexp.MustCompile(`\b[A-Z]{2},?\s+\d{5}(?:-\d{4})?\b`)
	zipPattern      = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
)

// Scrub strips personally identifiable substrings from receipt text. It is
// mandatory before prompt assembly; the prompt builder only accepts scrubbed
// input.
func Scrub(text string) string {
	text = emailPattern.ReplaceAllString(text, "[EMAIL]")
	text = phonePattern.ReplaceAllString(text, "[PHONE]")
	text = stateZipPattern.ReplaceAllString(text, "[STATE_ZIP]")
	text = zipPattern.ReplaceAllString(text, "[ZIP]")
	return text
}
