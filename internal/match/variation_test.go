package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitSequence(t *testing.T) {
	tests := []struct {
		title   string
		base    string
		markers []marker
	}{
		{"Chronicles of Narnia Vol 1", "chronicles of narnia", []marker{{"vol", 1}}},
		{"Chronicles of Narnia, Volume 02", "chronicles of narnia", []marker{{"vol", 2}}},
		{"The Hunger Games Part II", "the hunger games", []marker{{"part", 2}}},
		{"Saga Book 1 of 3", "saga book", []marker{{"of", 1}}},
		{"Batman Issue #4", "batman", []marker{{"issue", 4}}},
		{"Batman #5", "batman", []marker{{"issue", 5}}},
		{"Harry Potter 3", "harry potter", []marker{{"", 3}}},
		{"Saga Vol 1 Part 2", "saga", []marker{{"vol", 1}, {"part", 2}}},
		{"No Longer Human", "no longer human", nil},
		{"Part Mix", "part mix", nil},
	}
	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			base, markers := splitSequence(tt.title)
			assert.Equal(t, tt.base, base)
			assert.Equal(t, tt.markers, markers)
		})
	}
}

func TestParseRoman(t *testing.T) {
	for s, want := range map[string]int{"i": 1, "iv": 4, "ix": 9, "xiv": 14, "xlii": 42, "c": 100} {
		n, ok := parseRoman(s)
		assert.True(t, ok, s)
		assert.Equal(t, want, n, s)
	}
	for _, s := range []string{"", "iiii", "mix", "dim", "vx", "abc", "ci"} {
		_, ok := parseRoman(s)
		assert.False(t, ok, s)
	}
}

func TestSeriesVariation(t *testing.T) {
	exclude := SeriesVariation(DefaultVariationThreshold)

	tests := []struct {
		a, b string
		want bool
	}{
		{"Chronicles of Narnia Vol 1", "Chronicles of Narnia Vol 2", true},
		{"The Hunger Games Part II", "The Hunger Games Part 3", true},
		{"Batman Issue #4", "Batman #5", true},
		{"Saga Book 1 of 3", "Saga Book 2 of 3", true},
		{"Chronicles of Narnia Vol 1", "Chronicles of Narnia Volume 1", false},
		{"Chronicles of Narnia Vol 1", "Chronicles of Narnia", false},
		{"Harry Potter 1", "Lord of the Rings 2", false},
		{"Catch-22", "Catch 22", false},
		{"Saga Vol 1 Part 2", "Saga Part 1 Vol 2", true},
		{"Saga Vol 1 Part 2", "Saga Part 2 Vol 1", false},
		{"Harry Potter 3", "Harry Potter Vol 3", false},
		{"Harry Potter 3", "Harry Potter Vol 4", true},
	}
	for _, tt := range tests {
		t.Run(tt.a+"/"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, exclude(tt.a, tt.b))
			assert.Equal(t, tt.want, exclude(tt.b, tt.a))
		})
	}
}
