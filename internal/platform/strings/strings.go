// Package strings provides string helpers shared across the workflow
package strings

import std "strings"

// CollapseSpaces folds every whitespace run in s to a single space and trims
// the ends. Identity keys and month labels are normalized through here so the
// same text always produces the same key
func CollapseSpaces(s string) string {
	return std.Join(std.Fields(s), " ")
}

// FirstTokens returns the first n whitespace-delimited tokens of s joined by
// single spaces; fewer if s is shorter
func FirstTokens(s string, n int) string {
	f := std.Fields(s)
	if len(f) > n {
		f = f[:n]
	}
	return std.Join(f, " ")
}
