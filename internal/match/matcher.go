package match

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"
)

// words that may precede a trailing "Edition" without being part of the title
const editionQualifiers = `deluxe|special|limited|collector(?:'|’)?s|anniversary|revised|expanded|` +
	`illustrated|annotated|definitive|complete|unabridged|abridged|international|` +
	`first|second|third|new|\d+(?:st|nd|rd|th)`

var (
	reBracketed = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]|\{[^}]*\}`)
	reEdition   = regexp.MustCompile(`(?i)[\s:,\-–—]*\b(?:(?:` + editionQualifiers + `)\s+){1,2}edition\s*$`)
)

// entry bundles a record with its derived comparison keys
type entry struct {
	rec  Record
	norm string // normalized title
	core string // normalized title without bracketed or edition qualifiers
}

// FindDuplicateGroups partitions records into duplicate groups. Records that
// match nothing are not reported.
func FindDuplicateGroups(records []Record, opts Options) ([]Group, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := ValidateRecords(records); err != nil {
		return nil, err
	}

	entries := prepareEntries(records)

	if opts.Strategy == StrategyComponents {
		return groupComponents(entries, opts), nil
	}
	return groupGreedy(entries, opts), nil
}

// ValidateRecords rejects empty or repeated ids and titles that are not
// valid UTF-8.
func ValidateRecords(records []Record) error {
	seen := make(map[string]int, len(records))
	for i, r := range records {
		if r.ID == "" {
			return fmt.Errorf("%w: record %d has an empty id", ErrInvalidArgument, i)
		}
		if prev, dup := seen[r.ID]; dup {
			return fmt.Errorf("%w: records %d and %d share id %q", ErrInvalidArgument, prev, i, r.ID)
		}
		seen[r.ID] = i
		if !utf8.ValidString(r.Title) {
			return fmt.Errorf("%w: record %q has a title that is not valid UTF-8", ErrInvalidArgument, r.ID)
		}
	}
	return nil
}

func prepareEntries(records []Record) []entry {
	entries := make([]entry, len(records))
	for i, r := range records {
		entries[i] = entry{
			rec:  r,
			norm: NormalizeTitle(r.Title),
			core: NormalizeTitle(stripQualifiers(r.Title)),
		}
	}
	return entries
}

// stripQualifiers drops "(Deluxe Edition)", "[Box Set]" and a trailing
// qualifier edition such as "25th Anniversary Edition" from a raw title.
func stripQualifiers(title string) string {
	s := reBracketed.ReplaceAllString(title, " ")
	return reEdition.ReplaceAllString(s, "")
}

// matchPair decides whether two entries belong together.
func matchPair(a, b *entry, opts Options) (MatchType, float64, bool) {
	if opts.Exclude != nil && opts.Exclude(a.rec.Title, b.rec.Title) {
		return "", 0, false
	}

	sim := Similarity(a.norm, b.norm)

	if opts.ExactMatchAlwaysGroups && a.norm == b.norm {
		return MatchExact, sim, true
	}
	if sim >= opts.HighSimilarityThreshold {
		return MatchSimilar, sim, true
	}

	short, long := a, b
	if utf8.RuneCountInString(a.norm) > utf8.RuneCountInString(b.norm) {
		short, long = b, a
	}
	if short.norm == "" || !strings.Contains(long.norm, short.norm) {
		return "", 0, false
	}

	score := sim
	if long.core != "" {
		score = max(score, Similarity(short.norm, long.core))
	}
	if score >= opts.ContainmentThreshold {
		return MatchContainment, score, true
	}
	return "", 0, false
}

// groupGreedy compares every unclaimed record with one anchor at a time.
// A candidate that joins an anchor is never compared with anything else.
func groupGreedy(entries []entry, opts Options) []Group {
	claimed := make([]bool, len(entries))
	var groups []Group

	for i := range entries {
		if claimed[i] {
			continue
		}
		claimed[i] = true

		members := []int{i}
		var links []Link
		for j := i + 1; j < len(entries); j++ {
			if claimed[j] {
				continue
			}
			typ, sim, ok := matchPair(&entries[i], &entries[j], opts)
			if !ok {
				continue
			}
			claimed[j] = true
			members = append(members, j)
			links = append(links, Link{
				From:       entries[i].rec.ID,
				To:         entries[j].rec.ID,
				Type:       typ,
				Similarity: sim,
			})
		}

		if len(members) > 1 {
			groups = append(groups, buildGroup(entries, members, links))
		}
	}
	return groups
}

// groupComponents unions every matching pair and emits connected components
// in order of their first member.
func groupComponents(entries []entry, opts Options) []Group {
	set := newDisjointSet(len(entries))
	var edges []Link

	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			typ, sim, ok := matchPair(&entries[i], &entries[j], opts)
			if !ok || !set.union(i, j) {
				continue
			}
			edges = append(edges, Link{
				From:       entries[i].rec.ID,
				To:         entries[j].rec.ID,
				Type:       typ,
				Similarity: sim,
			})
		}
	}

	byRoot := make(map[int][]int)
	var roots []int
	for i := range entries {
		r := set.find(i)
		if _, ok := byRoot[r]; !ok {
			roots = append(roots, r)
		}
		byRoot[r] = append(byRoot[r], i)
	}

	index := make(map[string]int, len(entries))
	for i, e := range entries {
		index[e.rec.ID] = i
	}
	linksByRoot := make(map[int][]Link)
	for _, l := range edges {
		r := set.find(index[l.From])
		linksByRoot[r] = append(linksByRoot[r], l)
	}

	var groups []Group
	for _, r := range roots {
		members := byRoot[r]
		if len(members) < 2 {
			continue
		}
		groups = append(groups, buildGroup(entries, members, linksByRoot[r]))
	}
	return groups
}

// buildGroup orders members by order key (records without one go last,
// ties keep input order) and picks the first as canonical.
func buildGroup(entries []entry, members []int, links []Link) Group {
	slices.SortStableFunc(members, func(a, b int) int {
		ka, kb := entries[a].rec.OrderKey, entries[b].rec.OrderKey
		switch {
		case ka == "" && kb == "":
			return 0
		case ka == "":
			return 1
		case kb == "":
			return -1
		}
		return cmp.Compare(ka, kb)
	})

	g := Group{
		Canonical:  entries[members[0]].rec,
		Duplicates: make([]Record, 0, len(members)-1),
		Links:      links,
	}
	for _, m := range members[1:] {
		g.Duplicates = append(g.Duplicates, entries[m].rec)
	}
	return g
}

type disjointSet struct {
	parent []int
	rank   []int
}

func newDisjointSet(n int) *disjointSet {
	s := &disjointSet{parent: make([]int, n), rank: make([]int, n)}
	for i := range s.parent {
		s.parent[i] = i
	}
	return s
}

func (s *disjointSet) find(x int) int {
	for s.parent[x] != x {
		s.parent[x] = s.parent[s.parent[x]]
		x = s.parent[x]
	}
	return x
}

// union merges the sets of a and b and reports whether they were distinct.
func (s *disjointSet) union(a, b int) bool {
	ra, rb := s.find(a), s.find(b)
	if ra == rb {
		return false
	}
	switch {
	case s.rank[ra] < s.rank[rb]:
		s.parent[ra] = rb
	case s.rank[ra] > s.rank[rb]:
		s.parent[rb] = ra
	default:
		s.parent[rb] = ra
		s.rank[ra]++
	}
	return true
}
