package slug

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMake(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{name: "simple title", title: "Ancient Coins", want: "ancient-coins"},
		{name: "mixed case and punctuation", title: "Gold & Silver: Proof Sets!", want: "gold-silver-proof-sets"},
		{name: "underscores collapse to dash", title: "world_coins__modern", want: "world-coins-modern"},
		{name: "repeated whitespace", title: "  Rare   Banknotes  ", want: "rare-banknotes"},
		{name: "leading and trailing separators", title: "--Sovereigns--", want: "sovereigns"},
		{name: "unicode stripped to residue", title: "Münzen", want: "mnzen"},
		{name: "digits only falls back to residue", title: "2024", want: "2024"},
		{name: "digits and dashes falls back to residue", title: "19-26", want: "1926"},
		{name: "punctuation only falls back to literal", title: "???", want: Fallback},
		{name: "empty title falls back to literal", title: "", want: Fallback},
		{name: "whitespace only falls back to literal", title: "   ", want: Fallback},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Make(tt.title))
		})
	}
}
