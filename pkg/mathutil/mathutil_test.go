package mathutil

import "testing"

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{name: "Round down", input: 1.234, expected: 1.23},
		{name: "Round up", input: 1.236, expected: 1.24},
		{name: "Already two decimals", input: 99.99, expected: 99.99},
		{name: "Negative", input: -1.005, expected: -1.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Round(tt.input); got != tt.expected {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestWithinTolerance(t *testing.T) {
	if !WithinTolerance(100.0, 100.009, 0.01) {
		t.Errorf("WithinTolerance(100, 100.009, 0.01) = false, expected true")
	}
	if WithinTolerance(100.0, 100.02, 0.01) {
		t.Errorf("WithinTolerance(100, 100.02, 0.01) = true, expected false")
	}
}
