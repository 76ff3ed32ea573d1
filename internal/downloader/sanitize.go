package downloader

import "regexp"

// Placeholder replaces each run of characters rejected by Sanitize.
const Placeholder = "_"

// invalidNameChars is the union of characters reserved on the common
// filesystems plus ':' which separates scheme and host in URLs.
const invalidNameChars = `\x00-\x1F"<>|*?\\/:`

var invalidNamePattern = regexp.MustCompile(
	`([` + invalidNameChars + `]*\.+$)|([` + invalidNameChars + `]+)`,
)

// Sanitize maps name to a string usable as a single path component.
// Every run of invalid characters becomes one Placeholder, and a trailing
// run of dots (with any invalid characters before it) becomes one as well.
// The result is stable under repeated application and is never empty for
// a non-empty input.
func Sanitize(name string) string {
	if !hasInvalidNameChars(name) {
		return name
	}
	return invalidNamePattern.ReplaceAllLiteralString(name, Placeholder)
}

// hasInvalidNameChars reports whether Sanitize would change name.
func hasInvalidNameChars(name string) bool {
	return invalidNamePattern.MatchString(name)
}
