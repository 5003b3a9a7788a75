package adapter

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

var errNoDigits = errors.New("price text has no digits")

// parsePriceText normalizes retailer price strings such as "$ 1.234,50",
// "USD 1,234.50" or "89" into a decimal. When both separators appear the last
// one is the decimal mark. A lone separator followed by exactly three digits
// is a thousands separator unless the leading group is zero ("0,500").
func parsePriceText(s string) (decimal.Decimal, error) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	clean := strings.Trim(b.String(), ".,")
	if clean == "" {
		return decimal.Zero, errNoDigits
	}

	lastDot := strings.LastIndex(clean, ".")
	lastComma := strings.LastIndex(clean, ",")

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			clean = strings.ReplaceAll(clean, ".", "")
			clean = strings.Replace(clean, ",", ".", 1)
		} else {
			clean = strings.ReplaceAll(clean, ",", "")
		}
	case lastComma >= 0:
		clean = normalizeSingleSeparator(clean, ",")
	case lastDot >= 0:
		clean = normalizeSingleSeparator(clean, ".")
	}

	return decimal.NewFromString(clean)
}

func normalizeSingleSeparator(s, sep string) string {
	parts := strings.Split(s, sep)
	last := parts[len(parts)-1]
	if len(parts) > 2 || (len(last) == 3 && strings.TrimLeft(parts[0], "0") != "") {
		return strings.Join(parts, "")
	}
	return strings.Join(parts[:len(parts)-1], "") + "." + last
}

func decimalPtr(d decimal.Decimal) *decimal.Decimal {
	return &d
}

func boolPtr(b bool) *bool {
	return &b
}
