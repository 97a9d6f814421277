// Package sanitize cleans text the user pasted into a prompt, such as a
// dashboard URL or a session token copied out of a browser.
package sanitize

import (
	"strings"
)

// invisibleChars are zero-width and other invisible characters that
// survive copy and paste but break URLs and cookie values.
var invisibleChars = strings.NewReplacer(
	"\u200B", "", // Zero-width space
	"\u200C", "", // Zero-width non-joiner
	"\u200D", "", // Zero-width joiner
	"\uFEFF", "", // Zero-width no-break space (BOM)
	"\u00AD", "", // Soft hyphen
	"\u2060", "", // Word joiner
	"\u180E", "", // Mongolian vowel separator
)

// SanitizeField removes invisible characters and trims surrounding
// whitespace.
func SanitizeField(field string) string {
	if field == "" {
		return field
	}
	return strings.TrimSpace(removeInvisibleChars(field))
}

func removeInvisibleChars(s string) string {
	return invisibleChars.Replace(s)
}
