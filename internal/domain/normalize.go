package domain

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// NormalizeKey turns a headword or translation into a lookup key:
//   - trims leading/trailing whitespace
//   - converts to lowercase (see Lower)
//
// Inner whitespace, diacritics, hyphens, and apostrophes are preserved.
func NormalizeKey(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	return Lower(text)
}

// Lower applies full Unicode lowercasing: a word-final capital sigma becomes
// ς and İ becomes i followed by a combining dot. A Caser is not safe for
// concurrent use, so one is built per call.
func Lower(text string) string {
	return cases.Lower(language.Und).String(text)
}
