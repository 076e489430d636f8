// Package phone normalizes Uzbek mobile numbers shared by Telegram users.
package phone

import (
	"fmt"
	"strings"
	"unicode"
)

// CountryCode is the Uzbek calling code.
const CountryCode = "998"

// Normalize keeps only the digits of raw. Numbers entered without a leading
// plus sign and with exactly nine digits are treated as local numbers and gain
// the country code.
func Normalize(raw string) string {
	raw = strings.TrimSpace(raw)

	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	if strings.HasPrefix(raw, "+") {
		return digits
	}
	if len(digits) == 9 && !strings.HasPrefix(digits, CountryCode) {
		return CountryCode + digits
	}

	return digits
}

// IsValidUzbek reports whether raw normalizes to a 12-digit Uzbek number.
func IsValidUzbek(raw string) bool {
	normalized := Normalize(raw)
	return len(normalized) == 12 && strings.HasPrefix(normalized, CountryCode)
}

// FormatDisplay renders raw as "+998 90 123 45 67". Foreign numbers are
// returned with a plus sign only.
func FormatDisplay(raw string) string {
	n := Normalize(raw)
	if len(n) == 12 && strings.HasPrefix(n, CountryCode) {
		return fmt.Sprintf("+%s %s %s %s %s", n[:3], n[3:5], n[5:8], n[8:10], n[10:])
	}

	return "+" + n
}
