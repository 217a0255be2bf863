package macro

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseList(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "double colon separator, no trimming",
			input:    "a::b::c",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "double colon keeps whitespace",
			input:    " a :: b ",
			expected: []string{" a ", " b "},
		},
		{
			name:     "comma separator trims items",
			input:    "a, b ,  c",
			expected: []string{"a", "b", "c"},
		},
		{
			name:     "single item",
			input:    "only",
			expected: []string{"only"},
		},
		{
			name:     "double colon wins over comma",
			input:    "a,b::c,d",
			expected: []string{"a,b", "c,d"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseList(tt.input))
		})
	}
}

func TestPickIndexBounds(t *testing.T) {
	rng := seededRand(42)
	for i := 0; i < 1000; i++ {
		idx := pickIndex(rng, 3)
		assert.GreaterOrEqual(t, idx, 0)
		assert.Less(t, idx, 3)
	}
}

func TestSeededRandReproducible(t *testing.T) {
	a := seededRand(1234)
	b := seededRand(1234)

	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Float64(), b.Float64())
	}
}

func TestEntropyRandVaries(t *testing.T) {
	a := entropyRand()
	b := entropyRand()

	same := true
	for i := 0; i < 8; i++ {
		if a.Float64() != b.Float64() {
			same = false
			break
		}
	}
	assert.False(t, same, "two entropy-seeded sources produced identical sequences")
}
