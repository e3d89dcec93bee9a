// Package parsers turns raw text from NAS command-line tools into typed
// values. Every function is pure and best-effort: a miss is reported as
// ok=false or as a sentinel, never as a panic or error.
package parsers

import (
	"regexp"
	"strings"
)

// firstMatch returns the first capture group of the first pattern that
// matches text, trimmed.
func firstMatch(text string, patterns []*regexp.Regexp) (string, bool) {
	if text == "" {
		return "", false
	}
	for _, re := range patterns {
		if m := re.FindStringSubmatch(text); len(m) > 1 {
			if v := strings.TrimSpace(m[1]); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func compileAll(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(e)
	}
	return out
}
