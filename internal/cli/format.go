package cli

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount with comma separators. Whole amounts have
// no decimals; others show two.
// e.g., 1234 -> "1,234", -4.5 -> "-4.50"
func FormatMoney(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-" + FormatMoney(d.Neg())
	}
	d = d.Round(2)
	whole := d.Truncate(0)
	s := FormatNumber(whole.IntPart())
	if d.IsInteger() {
		return s
	}
	frac := d.Sub(whole).StringFixed(2)
	return s + strings.TrimPrefix(frac, "0")
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// ShortID returns the first block of a uuid, enough to tell rows apart.
func ShortID(id uuid.UUID) string {
	return id.String()[:8]
}
