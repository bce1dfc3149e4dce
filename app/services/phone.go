package services

import (
	"math"
	"strings"
)

const countryPrefix = "254"

// NormalizePhone canonicalizes a Kenyan MSISDN to the 254XXXXXXXXX wire
// format the Daraja API expects. It strips non-digits, rewrites a leading
// national zero, collapses a duplicated-prefix error (2540...), and prefixes
// a bare 9-digit subscriber number. Input it cannot make sense of is passed
// through unchanged; final validation is the caller's job.
func NormalizePhone(msisdn string) string {
	if msisdn == "" {
		return msisdn
	}

	var b strings.Builder
	for _, r := range msisdn {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if digits == "" {
		return msisdn
	}

	switch {
	case strings.HasPrefix(digits, "0"):
		return countryPrefix + digits[1:]
	case strings.HasPrefix(digits, countryPrefix+"0"):
		return countryPrefix + digits[len(countryPrefix)+1:]
	case strings.HasPrefix(digits, countryPrefix):
		return digits
	case strings.HasPrefix(digits, "7") && len(digits) == 9:
		return countryPrefix + digits
	}
	return digits
}

// ValidAmount reports whether v is a usable payment amount.
func ValidAmount(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0) && v > 0
}
