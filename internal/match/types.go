package match

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidArgument reports malformed input records.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConfiguration reports degenerate matcher options.
	ErrConfiguration = errors.New("invalid configuration")
)

// Record is a titled item to deduplicate. OrderKey is optional and compared
// lexicographically, so ISO-8601 timestamps order correctly.
type Record struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	OrderKey string `json:"order_key,omitempty"`
}

// MatchType describes why a record joined a group.
type MatchType string

const (
	MatchExact       MatchType = "exact"
	MatchSimilar     MatchType = "similar"
	MatchContainment MatchType = "containment"
)

// Link records the comparison that pulled a record into its group.
type Link struct {
	From       string    `json:"from"` // id of the record it was compared against
	To         string    `json:"to"`   // id of the record that joined
	Type       MatchType `json:"type"`
	Similarity float64   `json:"similarity"`
}

// Group is a set of records judged equivalent. Canonical has the earliest
// order key; Duplicates keep the same ordering after it.
type Group struct {
	Canonical  Record   `json:"canonical"`
	Duplicates []Record `json:"duplicates"`
	Links      []Link   `json:"links,omitempty"`
}

// Members returns the canonical record followed by its duplicates.
func (g Group) Members() []Record {
	out := make([]Record, 0, len(g.Duplicates)+1)
	out = append(out, g.Canonical)
	return append(out, g.Duplicates...)
}

// LinkFor returns the link through which id joined the group.
func (g Group) LinkFor(id string) (Link, bool) {
	for _, l := range g.Links {
		if l.To == id {
			return l, true
		}
	}
	return Link{}, false
}

// ExcludeFunc reports whether two raw titles must never be grouped.
type ExcludeFunc func(a, b string) bool

// Strategy selects how pairwise matches become groups.
type Strategy string

const (
	// StrategyGreedy compares candidates against a single anchor only.
	// Output depends on input order.
	StrategyGreedy Strategy = "greedy"
	// StrategyComponents emits connected components of the match relation.
	StrategyComponents Strategy = "components"
)

// ParseStrategy maps a config or flag value to a Strategy.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case "", StrategyGreedy:
		return StrategyGreedy, nil
	case StrategyComponents:
		return StrategyComponents, nil
	default:
		return "", fmt.Errorf("%w: unknown strategy %q", ErrConfiguration, s)
	}
}

// Options tunes FindDuplicateGroups. Exclude may be nil.
type Options struct {
	ExactMatchAlwaysGroups  bool
	HighSimilarityThreshold float64
	ContainmentThreshold    float64
	Exclude                 ExcludeFunc
	Strategy                Strategy
}

// DefaultOptions groups exact matches, similarities of 0.95 and above, and
// containment scores of 0.85 and above, using the greedy strategy.
func DefaultOptions() Options {
	return Options{
		ExactMatchAlwaysGroups:  true,
		HighSimilarityThreshold: 0.95,
		ContainmentThreshold:    0.85,
		Strategy:                StrategyGreedy,
	}
}

// Validate rejects thresholds outside [0,1] and a containment threshold
// above the high-similarity threshold.
func (o Options) Validate() error {
	if err := checkUnit("high similarity threshold", o.HighSimilarityThreshold); err != nil {
		return err
	}
	if err := checkUnit("containment threshold", o.ContainmentThreshold); err != nil {
		return err
	}
	if o.ContainmentThreshold > o.HighSimilarityThreshold {
		return fmt.Errorf("%w: containment threshold %.2f exceeds high similarity threshold %.2f",
			ErrConfiguration, o.ContainmentThreshold, o.HighSimilarityThreshold)
	}
	if _, err := ParseStrategy(string(o.Strategy)); err != nil {
		return err
	}
	return nil
}

func checkUnit(name string, v float64) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("%w: %s %v not in [0,1]", ErrConfiguration, name, v)
	}
	return nil
}
