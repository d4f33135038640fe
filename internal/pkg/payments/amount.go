package payments

import (
	"math"
	"strconv"
	"strings"
)

// AmountToCents converts a provider decimal amount string ("19.99") into
// integer cents with ordinary rounding. Empty or malformed values yield 0 so
// destructive events can still be logged.
func AmountToCents(s string) int64 {
	v := strings.TrimSpace(s)
	if v == "" {
		return 0
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return int64(math.Round(f * 100))
}

// NormalizeCurrency lowercases an ISO currency code, defaulting to "usd".
func NormalizeCurrency(code string) string {
	c := strings.ToLower(strings.TrimSpace(code))
	if c == "" {
		return "usd"
	}
	return c
}
