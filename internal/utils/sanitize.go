package utils

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var strictPolicy = bluemonday.StrictPolicy()

// SanitizeText strips any markup from free-form user input and collapses surrounding whitespace.
func SanitizeText(s string) string {
	// bluemonday escapes entities, the stored value is plain text
	return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(s)))
}
