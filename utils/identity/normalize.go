package identity

import (
	"strings"
)

// DefaultPhoneTailLength is the suffix length used for phone comparison.
// Matching on the last 10 digits tolerates differing country-code prefixes
// (+880, 880, 0) referring to the same number.
const DefaultPhoneTailLength = 10

// NormalizeEmail trims and lower-cases an email address. Empty input yields
// an empty string, never an error, so callers can test with simple truthiness.
func NormalizeEmail(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// NormalizePhone strips all non-digit characters. Returns an empty string if
// no digits remain.
func NormalizePhone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PhoneTail returns the last tailLength digits of the normalized phone, or
// the whole normalized string when shorter. tailLength <= 0 falls back to
// DefaultPhoneTailLength.
func PhoneTail(raw string, tailLength int) string {
	if tailLength <= 0 {
		tailLength = DefaultPhoneTailLength
	}
	digits := NormalizePhone(raw)
	if len(digits) <= tailLength {
		return digits
	}
	return digits[len(digits)-tailLength:]
}

// PhonesMatch reports whether two phone numbers refer to the same line,
// comparing by tail suffix rather than exact equality.
func PhonesMatch(a, b string) bool {
	ta := PhoneTail(a, DefaultPhoneTailLength)
	tb := PhoneTail(b, DefaultPhoneTailLength)
	if ta == "" || tb == "" {
		return false
	}
	return ta == tb
}

// EmailsMatch reports whether two emails are the same after normalization.
func EmailsMatch(a, b string) bool {
	na := NormalizeEmail(a)
	nb := NormalizeEmail(b)
	if na == "" || nb == "" {
		return false
	}
	return na == nb
}
