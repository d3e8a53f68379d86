package nlp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected []string
	}{
		{
			name:     "lowercases and splits on punctuation",
			text:     "Toyota Camry, 2022 model!",
			expected: []string{"toyota", "camry", "2022", "model"},
		},
		{
			name:     "drops single-rune tokens",
			text:     "a BMW X5 w sunroof",
			expected: []string{"bmw", "x5", "sunroof"},
		},
		{
			name:     "keeps duplicates and order",
			text:     "camry or camry hybrid",
			expected: []string{"camry", "or", "camry", "hybrid"},
		},
		{
			name:     "arabic script tokens survive",
			text:     "سيارة تويوتا كامري",
			expected: []string{"سيارة", "تويوتا", "كامري"},
		},
		{
			name:     "mixed scripts split at boundaries",
			text:     "Camry كامري 2022",
			expected: []string{"camry", "كامري", "2022"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Tokenize(tc.text), "token order must be preserved")
		})
	}

	t.Run("empty and punctuation-only input", func(t *testing.T) {
		assert.Empty(t, Tokenize(""))
		assert.Empty(t, Tokenize("?! -- .."))
	})
}

func TestSearchTokens(t *testing.T) {
	t.Run("filters stop words", func(t *testing.T) {
		tokens := SearchTokens("show me a cheap car under 80k", 8)
		assert.NotContains(t, tokens, "car")
		assert.NotContains(t, tokens, "under")
		assert.Contains(t, tokens, "cheap")
		assert.Contains(t, tokens, "80k")
	})

	t.Run("caps at limit", func(t *testing.T) {
		tokens := SearchTokens("toyota honda nissan bmw audi lexus kia mazda ford jeep", 3)
		assert.Equal(t, []string{"toyota", "honda", "nissan"}, tokens)
	})

	t.Run("zero limit means unlimited", func(t *testing.T) {
		tokens := SearchTokens("toyota honda nissan bmw audi lexus kia mazda ford jeep", 0)
		assert.Len(t, tokens, 10)
	})
}
