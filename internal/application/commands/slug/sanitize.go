package slug

import (
	"regexp"
	"strings"
)

var (
	invalidRunes    = regexp.MustCompile(`[^a-z0-9-]`)
	repeatedHyphens = regexp.MustCompile(`-+`)
)

// Sanitize normalizes raw user input into a subdomain slug: lowercase,
// alphanumeric and hyphens only, no edge hyphens, 3-50 characters.
// Returns "" when nothing usable remains.
func Sanitize(input string) string {
	s := strings.ToLower(strings.TrimSpace(input))
	s = invalidRunes.ReplaceAllString(s, "-")
	s = repeatedHyphens.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")

	if len(s) < 3 || len(s) > 50 {
		return ""
	}
	return s
}
