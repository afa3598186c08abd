package metrics

import (
	"regexp"
	"strings"
)

// unallowedChars matches every character Prometheus label values from
// untrusted dimensions are not allowed to carry.
var unallowedChars = regexp.MustCompile(`[^a-z0-9:_]`)

// Sanitize normalizes an arbitrary user-supplied dimension value into a valid
// label value: the input is lowercased, then every character outside
// [a-z0-9:_] is replaced by a single underscore. The replacement is
// one-to-one per character; runs of illegal characters are not collapsed.
// Sanitize is total: any input, including the empty string, yields a valid
// label value.
func Sanitize(s string) string {
	return unallowedChars.ReplaceAllString(strings.ToLower(s), "_")
}
