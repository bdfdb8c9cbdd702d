package filter

import (
	"regexp"
	"strings"
)

// Links start with http(s) or www, or end in a common top-level domain.
// Shortened links without an extension are only caught by the scheme.
var (
	linkRe     = regexp.MustCompile(`((\S*\.)?www\.\S+)|(https?://\S+\.\S+(\.\S+)?)|([^\s.]+\.((com)|(edu)|(org)|(net)|(gov)))(/\S+)*/?`)
	usernameRe = regexp.MustCompile(`@\S+`)
)

// RemoveLinks deletes hyperlinks from input.
func RemoveLinks(input string) string {
	return linkRe.ReplaceAllLiteralString(input, "")
}

// ReplaceLinks substitutes every hyperlink in input with replacement. Each
// '!' in replacement stands for the matched link itself, so "<!>" wraps
// links in angle brackets.
func ReplaceLinks(input, replacement string) string {
	tmpl := strings.ReplaceAll(replacement, "$", "$$")
	tmpl = strings.ReplaceAll(tmpl, "!", "${0}")
	return linkRe.ReplaceAllString(input, tmpl)
}

// RemoveUsernames deletes @mentions from input.
func RemoveUsernames(input string) string {
	return usernameRe.ReplaceAllLiteralString(input, "")
}
