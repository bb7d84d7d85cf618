package parse

import (
	"math"
	"testing"
)

func TestAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected float64
	}{
		{
			name:     "Currency formatted",
			input:    "$45,000.50",
			expected: 45000.50,
		},
		{
			name:     "Currency with no decimals",
			input:    "$250,000",
			expected: 250000,
		},
		{
			name:     "Plain number",
			input:    "1234.5",
			expected: 1234.5,
		},
		{
			name:     "Negative number",
			input:    "-500",
			expected: -500,
		},
		{
			name:     "Negative currency",
			input:    "-$1,234.56",
			expected: -1234.56,
		},
		{
			name:     "Empty string",
			input:    "",
			expected: 0,
		},
		{
			name:     "Letters only",
			input:    "abc",
			expected: 0,
		},
		{
			name:     "Letters around digits",
			input:    "about 1500 dollars",
			expected: 1500,
		},
		{
			name:     "Leading decimal point",
			input:    ".5",
			expected: 0.5,
		},
		{
			name:     "Negative leading decimal point",
			input:    "-.5",
			expected: -0.5,
		},
		{
			name:     "Bare decimal point",
			input:    ".",
			expected: 0,
		},
		{
			name:     "Bare minus",
			input:    "-",
			expected: 0,
		},
		{
			name:     "Double minus",
			input:    "--5",
			expected: 0,
		},
		{
			name:     "Second decimal point ignored",
			input:    "1.2.3",
			expected: 1.2,
		},
		{
			name:     "Trailing decimal point",
			input:    "5.",
			expected: 5,
		},
		{
			name:     "Trailing minus ignored",
			input:    "5-6",
			expected: 5,
		},
		{
			name:     "Whitespace and symbols",
			input:    "  $ 12 000 ",
			expected: 12000,
		},
		{
			name:     "Infinity text",
			input:    "Infinity",
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Amount(tt.input)
			if result != tt.expected {
				t.Errorf("Amount(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
			if math.IsNaN(result) || math.IsInf(result, 0) {
				t.Errorf("Amount(%q) = %v, expected a finite value", tt.input, result)
			}
		})
	}
}

func TestAmountAlwaysFinite(t *testing.T) {
	// A digit string long enough to overflow float64 must still coerce to 0
	// rather than infinity.
	huge := ""
	for i := 0; i < 400; i++ {
		huge += "9"
	}
	if got := Amount(huge); got != 0 {
		t.Errorf("Amount(<400 nines>) = %v, expected 0", got)
	}
}
