// Package sanitize strips markup from free text that admins type into
// reasons and notes before it is stored and echoed back to dashboards.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

const maxTextLength = 1000

var strict = bluemonday.StrictPolicy()

// Text removes every HTML element, unescapes entities left behind and trims
// the result to a bounded length.
func Text(s string) string {
	clean := html.UnescapeString(strict.Sanitize(s))
	clean = strings.TrimSpace(clean)
	if r := []rune(clean); len(r) > maxTextLength {
		clean = string(r[:maxTextLength])
	}
	return clean
}
