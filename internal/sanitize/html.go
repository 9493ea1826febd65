// Package sanitize strips markup from user input before it is stored.
package sanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	// StrictPolicy removes all HTML tags and attributes.
	StrictPolicy = bluemonday.StrictPolicy()

	// UGCPolicy keeps basic formatting (paragraphs, emphasis, lists, links).
	UGCPolicy = bluemonday.UGCPolicy()
)

// Text strips all HTML and trims whitespace. Entities are decoded so that
// "Tom & Jerry" is stored as typed; clients escape on display.
// Use for names, addresses, categories and incident descriptions.
func Text(input string) string {
	return strings.TrimSpace(html.UnescapeString(StrictPolicy.Sanitize(input)))
}

// HTML keeps safe formatting tags and drops scripts, event handlers and
// styles. Use for case note bodies.
func HTML(input string) string {
	return strings.TrimSpace(UGCPolicy.Sanitize(input))
}

// TextPtr sanitizes an optional field in place.
func TextPtr(input *string) *string {
	if input == nil {
		return nil
	}
	out := Text(*input)
	return &out
}
