package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"The Great Gatsby", "the great gatsby"},
		{"the great gatsby!!", "the great gatsby"},
		{"  Harry--Potter:  the   Boy ", "harry potter the boy"},
		{"Pokémon", "pokemon"},
		{"ＦＵＬＬ　ＷＩＤＴＨ", "full width"},
		{"Tab\tand\nnewline", "tab and newline"},
		{"", ""},
		{"!!!", ""},
		{"Dune (Deluxe Edition)", "dune deluxe edition"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeTitle(tt.in))
		})
	}
}

func TestNormalizeTitleIdempotent(t *testing.T) {
	inputs := []string{
		"A Christmas Carol",
		"  Ｄｒａｇｏｎ　Ｂａｌｌ  ",
		"İstanbul Hatırası",
		"한국어 제목",
		"Ⅻ Kingdoms",
		"naïve café — déjà vu",
		"Vol. 2: The Return (Special Edition) [Box Set]",
		" non breaking ",
		"",
	}
	for _, s := range inputs {
		once := NormalizeTitle(s)
		assert.Equal(t, once, NormalizeTitle(once), "input %q", s)
	}
}
