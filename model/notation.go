package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// moneyRe matches dollar amounts with an optional magnitude suffix:
// "$50M", "$1.5B", "250K", "$1,000,000".
var moneyRe = regexp.MustCompile(`(?i)^\$?\s*([\d,]+(?:\.\d+)?)\s*([KMB])?$`)

// excessRe matches excess-of notation: "$25M xs $25M", "10M x/s 40M",
// "$5M excess of $10M".
var excessRe = regexp.MustCompile(`(?i)\$?\s*([\d,]+(?:\.\d+)?)\s*([KMB])?\s*(?:xs\.?|x/s|excess(?:\s+of)?)\s*\$?\s*([\d,]+(?:\.\d+)?)\s*([KMB])?`)

var magnitudes = map[string]float64{
	"":  1,
	"K": 1e3,
	"M": 1e6,
	"B": 1e9,
}

// ParseMoney parses a dollar amount, with or without a "$" prefix and a
// K/M/B magnitude suffix. Returns ok=false for anything else.
func ParseMoney(s string) (float64, bool) {
	m := moneyRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}
	num, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, false
	}
	return num * magnitudes[strings.ToUpper(m[2])], true
}

// IsLimitShorthand reports whether s is compact limit notation: a dollar
// sign, a number and a magnitude suffix, like "$50M" or "$1.5B".
func IsLimitShorthand(s string) bool {
	m := moneyRe.FindStringSubmatch(strings.TrimSpace(s))
	return m != nil && strings.HasPrefix(strings.TrimSpace(s), "$") && m[2] != ""
}

// FormatLimit renders a dollar value in compact notation: 5e7 -> "$50M".
// Values that don't divide evenly keep one decimal: 2.5e6 -> "$2.5M".
func FormatLimit(v float64) string {
	format := func(scaled float64, suffix string) string {
		if scaled == float64(int64(scaled)) {
			return fmt.Sprintf("$%d%s", int64(scaled), suffix)
		}
		return fmt.Sprintf("$%.1f%s", scaled, suffix)
	}
	switch {
	case v >= 1e9:
		return format(v/1e9, "B")
	case v >= 1e6:
		return format(v/1e6, "M")
	case v >= 1e3:
		return format(v/1e3, "K")
	default:
		return fmt.Sprintf("$%d", int64(v))
	}
}

// ParseExcess extracts (limit, attachment) from excess-of notation anywhere
// in s: "$25M xs $25M" -> (25e6, 25e6, true).
func ParseExcess(s string) (limit, attachment float64, ok bool) {
	m := excessRe.FindStringSubmatch(s)
	if m == nil {
		return 0, 0, false
	}
	l, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", ""), 64)
	if err != nil {
		return 0, 0, false
	}
	a, err := strconv.ParseFloat(strings.ReplaceAll(m[3], ",", ""), 64)
	if err != nil {
		return 0, 0, false
	}
	return l * magnitudes[strings.ToUpper(m[2])], a * magnitudes[strings.ToUpper(m[4])], true
}

// IsExcessNotation reports whether s contains excess-of notation.
func IsExcessNotation(s string) bool {
	return excessRe.MatchString(s)
}
