// Package textkey builds diacritic- and case-insensitive comparison keys.
package textkey

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// đ and Đ carry a stroke, not a combining mark, so NFD leaves them alone.
var foldStroke = runes.Map(func(r rune) rune {
	switch r {
	case 'đ', 'Đ':
		return 'd'
	}
	return r
})

// Key lowercases s and strips accents, e.g. "Bưởi" -> "buoi".
func Key(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), foldStroke)
	result, _, err := transform.String(t, s)
	if err != nil {
		// Only reachable on invalid UTF-8; fall back to plain folding.
		return strings.ToLower(s)
	}
	return strings.ToLower(result)
}

// Contains reports whether the key of s contains the key of term.
// An empty term matches everything.
func Contains(s, term string) bool {
	return strings.Contains(Key(s), Key(term))
}
