package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "lowercases",
			input:    "STARBUCKS",
			expected: "starbucks",
		},
		{
			name:     "strips punctuation to spaces",
			input:    "STARBUCKS STORE #4521",
			expected: "starbucks store 4521",
		},
		{
			name:     "collapses whitespace runs",
			input:    "  AMZN   Mktp*US  ",
			expected: "amzn mktp us",
		},
		{
			name:     "preserves digits",
			input:    "7-ELEVEN 23881",
			expected: "7 eleven 23881",
		},
		{
			name:     "preserves non-ascii letters",
			input:    "CAFÉ MÜNCHEN",
			expected: "café münchen",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
		{
			name:     "only punctuation",
			input:    "***///---",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Normalize(tt.input))
		})
	}
}
