package utils

import (
	"regexp"
	"strings"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9\-_\.]`)
var underscoreRuns = regexp.MustCompile(`_+`)

// IsTruthy reports whether a request flag value means "enabled" ("1" or
// "true").
func IsTruthy(value string) bool {
	return value == "1" || value == "true"
}

// SafeFilename sanitizes a user-supplied name for use in a filesystem path or
// download header: unsafe characters become underscores, underscore runs
// collapse, and the result is capped at 70 characters.
func SafeFilename(name string) string {
	safe := unsafeChars.ReplaceAllString(name, "_")
	safe = underscoreRuns.ReplaceAllString(safe, "_")
	safe = strings.Trim(safe, "_")
	if len(safe) > 70 {
		safe = safe[:70]
	}
	if safe == "" {
		safe = "document"
	}
	return safe
}
