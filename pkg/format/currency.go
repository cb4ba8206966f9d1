// Package format renders monetary amounts and percentages for display.
package format

import (
	"fmt"
	"math"
	"strings"
)

// Currency returns an amount prefixed with a currency code and thousands
// separators (e.g., "-AED 1,234.56"). An empty code renders a dollar sign.
func Currency(amount float64, code string) string {
	prefix := "$"
	if code = strings.TrimSpace(code); code != "" {
		prefix = code + " "
	}
	formatted := formatPositiveCurrency(math.Abs(amount))
	if amount < 0 {
		return "-" + prefix + formatted
	}
	return prefix + formatted
}

// NumericCurrency returns a currency string without a currency symbol but with separators (e.g., "-1,234.56").
func NumericCurrency(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
	}
	formatted := formatPositiveCurrency(math.Abs(amount))
	return sign + formatted
}

// SignedPercent renders a percentage with an explicit sign, e.g. "+4.5%".
func SignedPercent(pct float64) string {
	return fmt.Sprintf("%+.1f%%", pct)
}

func formatPositiveCurrency(value float64) string {
	formatted := fmt.Sprintf("%.2f", value)
	parts := strings.SplitN(formatted, ".", 2)
	intPart := parts[0]
	decPart := "00"
	if len(parts) == 2 {
		decPart = parts[1]
	}

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

	return intPart + "." + decPart
}
