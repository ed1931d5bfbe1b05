package phone

import "strings"

// placeholders are cell values that mean "no number" in the source sheets.
var placeholders = map[string]bool{
	"":       true,
	"n/a":    true,
	"needed": true,
}

// Normalize converts a raw cell value into a canonical number.
// It returns false when the value is a placeholder or does not match
// any table entry after correction.
//
// Corrections, applied once and in this order:
//   - 11 digits starting with "01": the leading 0 is replaced by the local prefix
//   - otherwise a leading "00" international access code is dropped
//
// Normalize is idempotent on accepted values.
func (t *Table) Normalize(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if placeholders[strings.ToLower(s)] {
		return "", false
	}

	num := digitsOnly(s)

	switch {
	case len(num) == 11 && strings.HasPrefix(num, "01"):
		num = t.localPrefix + num[1:]
	case strings.HasPrefix(num, "00"):
		num = num[2:]
	}

	if !isDigits(num) {
		return "", false
	}

	if _, ok := t.Match(num); !ok {
		return "", false
	}
	return num, true
}

// digitsOnly keeps the decimal digits of s as ASCII. Arabic-Indic and
// Extended Arabic-Indic digits are folded to ASCII; everything else is dropped.
func digitsOnly(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= '٠' && r <= '٩':
			b.WriteByte(byte('0' + r - '٠'))
		case r >= '۰' && r <= '۹':
			b.WriteByte(byte('0' + r - '۰'))
		}
	}
	return b.String()
}
