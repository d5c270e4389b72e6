package match

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reNonAlnum   = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	reMultiSpace = regexp.MustCompile(`\s+`)
)

// stripDiacritics decomposes, drops combining marks and recomposes
// (é -> e, ñ -> n, ō -> o). Chains hold state, so each call gets its own.
func stripDiacritics() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// NormalizeTitle returns the comparison key for a title.
func NormalizeTitle(s string) string {
	if s == "" {
		return ""
	}

	// Fold width/compatibility forms (full-width, ligatures, roman numerals)
	s = norm.NFKC.String(s)
	s = strings.ToLower(s)

	if folded, _, err := transform.String(stripDiacritics(), s); err == nil {
		s = folded
	}

	// Punctuation becomes a space so word boundaries survive ("Harry-Potter" -> "harry potter")
	s = reNonAlnum.ReplaceAllString(s, " ")
	s = reMultiSpace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
