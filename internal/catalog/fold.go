package catalog

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// fold normalises text for substring matching: NFKC turns full-width
// letters and digits into their ASCII forms, then everything is lowercased.
// "ＤＵＮＥ" and "dune" fold to the same key.
func fold(s string) string {
	return strings.ToLower(norm.NFKC.String(s))
}

// wildcardTerm folds a title filter and strips the wildcard operators so
// user input is always matched literally.
func wildcardTerm(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '*' || r == '?' {
			return -1
		}
		return r
	}, fold(s))
}
