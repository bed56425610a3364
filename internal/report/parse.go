package report

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	bidiControls = regexp.MustCompile("[\u200e\u200f\u202a-\u202e\u2066-\u2069]")
	whitespace   = regexp.MustCompile(`[\s\p{Zs}]+`)

	// 전각/유니코드 부호를 ASCII로
	signReplacer = strings.NewReplacer(
		"\u2212", "-", // minus sign
		"\u2013", "-", // en dash
		"\u2014", "-", // em dash
		"\uff0d", "-", // fullwidth hyphen-minus
		"\uff0b", "+",
		"\uff05", "%",
	)

	percentPattern = regexp.MustCompile(`[+-]?\d+(?:[.,]\d+)*`)
	numberPattern  = regexp.MustCompile(`[+-]?\d+(?:\.\d+)?`)
)

// Normalize strips bidirectional control characters and collapses whitespace.
// Every label and value goes through it before comparison or storage.
func Normalize(s string) string {
	s = bidiControls.ReplaceAllString(s, "")
	s = whitespace.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ParsePercent extracts the first signed decimal of a percent-like text.
// Commas are treated as thousands separators and only the first dot is a
// decimal point. Returns NaN when nothing matches.
func ParsePercent(s string) float64 {
	if s == "" {
		return math.NaN()
	}

	normalized := signReplacer.Replace(Normalize(s))
	match := percentPattern.FindString(normalized)
	if match == "" {
		return math.NaN()
	}

	// 콤마 제거 후 첫 번째 소수점까지만 사용 ("1.2.3" -> "1.2")
	digits := strings.ReplaceAll(match, ",", "")
	if i := strings.Index(digits, "."); i >= 0 {
		if j := strings.Index(digits[i+1:], "."); j >= 0 {
			digits = digits[:i+1+j]
		}
	}

	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// ParseNumber extracts the first signed decimal of a general numeric text.
// A comma is the decimal separator only when no dot is present; otherwise it
// is a thousands separator. Returns NaN when nothing matches.
func ParseNumber(s string) float64 {
	if s == "" {
		return math.NaN()
	}

	normalized := signReplacer.Replace(Normalize(s))
	normalized = strings.Join(strings.Fields(normalized), "")
	if strings.Contains(normalized, ",") && !strings.Contains(normalized, ".") {
		normalized = strings.ReplaceAll(normalized, ",", ".")
	} else {
		normalized = strings.ReplaceAll(normalized, ",", "")
	}

	match := numberPattern.FindString(normalized)
	if match == "" {
		return math.NaN()
	}

	v, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
