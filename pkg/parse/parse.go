// Package parse converts free-form user input into numeric values.
//
// Calculator fields accept currency-formatted text ("$250,000"), partially
// typed numbers and outright garbage; every downstream formula relies on this
// package to coerce all of it to a finite float64 without an error path.
package parse

import (
	"math"
	"strconv"
	"strings"
)

// Amount converts raw text to a number. Every rune that is not a digit, '.'
// or '-' is stripped, then the longest valid leading decimal of the remainder
// is parsed. Anything unparsable or non-finite yields 0.
func Amount(raw string) float64 {
	var b strings.Builder
	for _, r := range raw {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	// Walk the longest prefix that forms a decimal number: an optional sign,
	// digits, and at most one decimal point.
	i := 0
	if i < len(cleaned) && cleaned[i] == '-' {
		i++
	}
	start := i
	for i < len(cleaned) && cleaned[i] >= '0' && cleaned[i] <= '9' {
		i++
	}
	if i < len(cleaned) && cleaned[i] == '.' {
		i++
		for i < len(cleaned) && cleaned[i] >= '0' && cleaned[i] <= '9' {
			i++
		}
	}
	if i == start || (i == start+1 && cleaned[start] == '.') {
		return 0
	}

	n, err := strconv.ParseFloat(cleaned[:i], 64)
	if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
		return 0
	}
	return n
}
