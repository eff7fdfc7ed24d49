package common

import (
	"regexp"
	"strings"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// ValidSlug reports whether s is usable as a category slug.
func ValidSlug(s string) bool {
	return s != "" && slugPattern.MatchString(s)
}

// GenerateSlug derives a URL-safe slug from a title.
func GenerateSlug(title string) string {
	slug := strings.ToLower(strings.TrimSpace(title))

	// Collapse whitespace runs into single dashes
	slug = regexp.MustCompile(`\s+`).ReplaceAllString(slug, "-")

	// Drop everything that is not a letter, digit or dash
	slug = regexp.MustCompile(`[^a-z0-9-]`).ReplaceAllString(slug, "")

	// Collapse dash runs and trim leading/trailing dashes
	slug = regexp.MustCompile(`-+`).ReplaceAllString(slug, "-")
	slug = strings.Trim(slug, "-")

	return slug
}
