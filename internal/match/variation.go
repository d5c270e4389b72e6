package match

import (
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// DefaultVariationThreshold is the base-title similarity above which two
// numbered titles are treated as entries of the same series.
const DefaultVariationThreshold = 0.8

var (
	reOfMarker      = regexp.MustCompile(`(?i)\b(?P<n>\d+)\s*of\s*\d+\b`)
	reKeywordMarker = regexp.MustCompile(`(?i)\b(?P<kw>vol(?:ume)?|part|pt|book|chapter|ch|episode|ep|issue|no|number)\b\.?\s*#?\s*(?P<n>\d+|[ivxlcdm]+)\b`)
	reHashMarker    = regexp.MustCompile(`#\s*(?P<n>\d+)\b`)
	reTrailingNum   = regexp.MustCompile(`\b(?P<n>\d+)\s*$`)

	// kind "" takes the kind from the keyword; reTrailingNum has no kind
	markerPatterns = []struct {
		re   *regexp.Regexp
		kind string
	}{
		{reOfMarker, "of"},
		{reKeywordMarker, ""},
		{reHashMarker, "issue"},
		{reTrailingNum, ""},
	}

	markerKinds = map[string]string{
		"vol": "vol", "volume": "vol",
		"part": "part", "pt": "part",
		"book":    "book",
		"chapter": "chapter", "ch": "chapter",
		"episode": "episode", "ep": "episode",
		"issue": "issue", "no": "issue", "number": "issue",
	}
)

// marker is one sequence number found in a title. An empty kind is a bare
// trailing number.
type marker struct {
	kind string
	n    int
}

// SeriesVariation returns an ExcludeFunc that keeps distinct volumes, parts
// or issues of one series apart: both titles must carry sequence markers,
// the markers must differ, and the titles without markers must have a
// similarity of at least baseThreshold.
func SeriesVariation(baseThreshold float64) ExcludeFunc {
	return func(a, b string) bool {
		baseA, markA := splitSequence(a)
		baseB, markB := splitSequence(b)
		if len(markA) == 0 || len(markB) == 0 {
			return false
		}
		if !markersDiffer(markA, markB) {
			return false
		}
		return Similarity(baseA, baseB) >= baseThreshold
	}
}

// markersDiffer compares markers of the same kind ("Vol 1" against "Vol 2").
// When the titles share no kind, the numbers are compared in order, so
// "Harry Potter 3" and "Harry Potter Vol 3" are the same entry.
func markersDiffer(a, b []marker) bool {
	shared := false
	for _, x := range a {
		if x.kind == "" {
			continue
		}
		for _, y := range b {
			if x.kind != y.kind {
				continue
			}
			shared = true
			if x.n != y.n {
				return true
			}
		}
	}
	if shared {
		return false
	}
	return !slices.EqualFunc(a, b, func(x, y marker) bool { return x.n == y.n })
}

// splitSequence removes sequence markers from a title and returns the
// normalized remainder with the markers in order of pattern.
func splitSequence(title string) (string, []marker) {
	var markers []marker
	s := title
	for _, p := range markerPatterns {
		re := p.re
		nIdx, kwIdx := re.SubexpIndex("n"), re.SubexpIndex("kw")
		s = re.ReplaceAllStringFunc(s, func(m string) string {
			sub := re.FindStringSubmatch(m)
			if sub == nil {
				return m
			}
			n, ok := parseSequenceNumber(sub[nIdx])
			if !ok {
				return m
			}
			kind := p.kind
			if kwIdx >= 0 {
				kind = markerKinds[strings.ToLower(sub[kwIdx])]
			}
			markers = append(markers, marker{kind: kind, n: n})
			return " "
		})
	}
	return NormalizeTitle(s), markers
}

func parseSequenceNumber(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	return parseRoman(strings.ToLower(s))
}

// maxRomanSequence bounds roman sequence numbers; "mix" is 1009, not a volume.
const maxRomanSequence = 100

var romanValues = map[byte]int{'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100, 'd': 500, 'm': 1000}

// parseRoman accepts canonical roman numerals up to maxRomanSequence, so
// words such as "mix" or "dim" are not mistaken for numbers.
func parseRoman(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	total := 0
	for i := 0; i < len(s); i++ {
		v, ok := romanValues[s[i]]
		if !ok {
			return 0, false
		}
		if i+1 < len(s) && v < romanValues[s[i+1]] {
			total -= v
		} else {
			total += v
		}
	}
	if total <= 0 || total > maxRomanSequence || toRoman(total) != s {
		return 0, false
	}
	return total, true
}

func toRoman(n int) string {
	numerals := []struct {
		v int
		s string
	}{
		{1000, "m"}, {900, "cm"}, {500, "d"}, {400, "cd"},
		{100, "c"}, {90, "xc"}, {50, "l"}, {40, "xl"},
		{10, "x"}, {9, "ix"}, {5, "v"}, {4, "iv"}, {1, "i"},
	}
	var b strings.Builder
	for _, num := range numerals {
		for n >= num.v {
			b.WriteString(num.s)
			n -= num.v
		}
	}
	return b.String()
}
