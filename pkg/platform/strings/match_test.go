package strings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeTerms(t *testing.T) {
	tests := []struct {
		name     string
		input    []string
		expected []string
	}{
		{
			name:     "nil slice",
			input:    nil,
			expected: nil,
		},
		{
			name:     "lowercases and dedupes",
			input:    []string{"Chatbot", "chatbot", "CHATBOT"},
			expected: []string{"chatbot"},
		},
		{
			name:     "trims and drops empties preserving order",
			input:    []string{"  Glucose ", "", "  ", "bmi", "glucose"},
			expected: []string{"glucose", "bmi"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeTerms(tt.input))
		})
	}
}

func TestMatches(t *testing.T) {
	terms := []string{"machine learning", "algorithm", "neural network"}

	assert.Equal(t, []string{"machine learning", "algorithm"},
		Matches("our algorithm uses machine learning", terms))
	assert.Empty(t, Matches("nothing relevant here", terms))
}

func TestContainsAnyAndFirstMatch(t *testing.T) {
	terms := []string{"intercom", "drift", "tawk"}

	assert.True(t, ContainsAny("widget.tawk.to/script", terms))
	assert.False(t, ContainsAny("static.example.com", terms))

	term, ok := FirstMatch("js.intercomcdn.com and tawk", terms)
	assert.True(t, ok)
	assert.Equal(t, "intercom", term)

	_, ok = FirstMatch("", terms)
	assert.False(t, ok)
}
