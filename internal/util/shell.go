// Package util provides small helpers shared across nasmon packages.
package util

import (
	"regexp"
	"strings"
)

// ShellQuote wraps a string in single quotes, escaping any existing single quotes.
// The remote shell treats the result as one literal word.
func ShellQuote(s string) string {
	// Replace ' with '\'' (end quote, escaped quote, start quote)
	escaped := strings.ReplaceAll(s, "'", "'\\''")
	return "'" + escaped + "'"
}

var plainWord = regexp.MustCompile(`^[A-Za-z0-9._/+:@=-]+$`)

// QuoteIfNeeded leaves plain identifiers (pool, VM and container names)
// untouched and single-quotes anything else.
func QuoteIfNeeded(s string) string {
	if s != "" && plainWord.MatchString(s) {
		return s
	}
	return ShellQuote(s)
}
