package domain

import "strings"

// DefaultCountryCode is prepended to national numbers that lack an
// international prefix.
const DefaultCountryCode = "+61"

// Phone digit-count bounds; anything outside is discarded as noise.
const (
	minPhoneDigits = 8
	maxPhoneDigits = 15
)

// NormalizePhone converts a raw phone value into an E.164-like form.
// All characters except digits and a leading "+" are stripped. Numbers
// without a "+" prefix have leading zeros removed and the country code
// prepended. Returns "" when the remaining digit count falls outside
// [8,15].
func NormalizePhone(raw, countryCode string) string {
	if raw == "" {
		return ""
	}
	if countryCode == "" {
		countryCode = DefaultCountryCode
	}

	var b strings.Builder
	for i, c := range raw {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		} else if c == '+' && i == 0 {
			b.WriteRune(c)
		}
	}
	phone := b.String()

	if !strings.HasPrefix(phone, "+") {
		phone = countryCode + strings.TrimLeft(phone, "0")
	}

	digits := len(phone) - 1 // everything after "+" is a digit
	if digits < minPhoneDigits || digits > maxPhoneDigits {
		return ""
	}
	return phone
}
