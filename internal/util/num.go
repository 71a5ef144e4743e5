package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var intPrefixPattern = regexp.MustCompile(`^[+-]?\d+`)

// ParseNumber reports whether the trimmed input is a plain finite number.
// A trailing dot is rejected here; callers decide whether it is print noise.
func ParseNumber(input string) (float64, bool) {
	trimmed := strings.TrimSpace(input)
	if strings.HasSuffix(trimmed, ".") {
		return 0, false
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}
	return parsed, true
}

// ParseQuantity coerces free-form quantity text into an integer. A plain
// number is truncated toward zero, otherwise a leading integer is taken
// ("2 pcs" -> 2), otherwise the quantity defaults to 1. Values beyond the
// int32 range clamp: converting an out-of-range float64 to int is undefined.
func ParseQuantity(input string) int {
	trimmed := strings.TrimSpace(input)
	if parsed, ok := ParseNumber(trimmed); ok {
		switch {
		case parsed > math.MaxInt32:
			return math.MaxInt32
		case parsed < math.MinInt32:
			return math.MinInt32
		}
		return int(parsed)
	}
	if prefix := intPrefixPattern.FindString(trimmed); prefix != "" {
		if parsed, err := strconv.Atoi(prefix); err == nil {
			return parsed
		}
	}
	return 1
}

// JoinNonEmpty joins the non-empty parts with single spaces.
func JoinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
