package format

import (
	"fmt"
	"math"
	"strings"

	"github.com/jmreiser/dealcalc/pkg/mathutil"
)

// Currency returns a currency string with a dollar sign and thousands separators (e.g., "-$1,234.56").
// Amounts are rounded to cents first so values within a cent of zero never
// render with a minus sign.
func Currency(amount float64) string {
	amount = mathutil.Round(amount)
	formatted := groupThousands(fmt.Sprintf("%.2f", math.Abs(amount)))
	if amount < 0 {
		return "-$" + formatted
	}
	return "$" + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	amount = mathutil.Round(amount)
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	return sign + groupThousands(fmt.Sprintf("%.2f", math.Abs(amount)))
}

// Amount renders a number for calculator display: thousands separators and at
// most two decimal places, with no trailing zeros (e.g., "45,000.5", "240,000").
func Amount(amount float64) string {
	amount = mathutil.Round(amount)
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	formatted := fmt.Sprintf("%.2f", math.Abs(amount))
	formatted = strings.TrimRight(formatted, "0")
	formatted = strings.TrimSuffix(formatted, ".")
	return sign + groupThousands(formatted)
}

// Percent renders a ratio as a percentage with one decimal place (e.g., 0.157 -> "15.7%").
func Percent(ratio float64) string {
	return fmt.Sprintf("%.1f%%", ratio*100)
}

func groupThousands(formatted string) string {
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]

	if len(intPart) > 3 {
		var builder strings.Builder
		for i, digit := range intPart {
			if i > 0 && (len(intPart)-i)%3 == 0 {
				builder.WriteByte(',')
			}
			builder.WriteRune(digit)
		}
		intPart = builder.String()
	}

	if len(parts) == 2 {
		return intPart + "." + parts[1]
	}
	return intPart
}
