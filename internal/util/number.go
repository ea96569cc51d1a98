package util

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	percentPattern  = regexp.MustCompile(`(\d{1,3}(?:[.,]\d{1,2})?)\s*%`)
	fractionPattern = regexp.MustCompile(`\b(\d+(?:[.,]\d+)?)\s*/\s*(\d+(?:[.,]\d+)?)\b`)
)

// ParseNumber accepts "85", "85%", "85,5" and "85.5 %". Anything else is nil.
func ParseNumber(token string) *float64 {
	s := strings.ReplaceAll(token, "\u00a0", " ")
	s = strings.TrimSpace(strings.ReplaceAll(s, "%", ""))
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return nil
	}
	parsed, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return nil
	}
	return FloatPtr(parsed)
}

// FractionToPct converts the first "a/b" in text to a percentage rounded to
// two decimals. Zero or unparsable denominators give nil.
func FractionToPct(text string) *float64 {
	m := fractionPattern.FindStringSubmatch(text)
	if len(m) < 3 {
		return nil
	}
	a := ParseNumber(m[1])
	b := ParseNumber(m[2])
	if a == nil || b == nil || *b == 0 {
		return nil
	}
	return FloatPtr(Round2(100 * *a / *b))
}

// Percentages returns every "N%" token of text in order, parsed.
func Percentages(text string) []float64 {
	matches := percentPattern.FindAllStringSubmatch(text, -1)
	out := make([]float64, 0, len(matches))
	for _, m := range matches {
		if v := ParseNumber(m[1]); v != nil {
			out = append(out, *v)
		}
	}
	return out
}

// PercentTokens returns the raw "N%" tokens, for debug traces.
func PercentTokens(text string) []string {
	return percentPattern.FindAllString(text, -1)
}

// FirstPercent returns the first "N%" of text.
func FirstPercent(text string) *float64 {
	m := percentPattern.FindStringSubmatch(text)
	if len(m) < 2 {
		return nil
	}
	return ParseNumber(m[1])
}

func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func Round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}

func InPercentRange(v *float64) bool {
	return v != nil && *v >= 0 && *v <= 100
}
