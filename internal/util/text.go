package util

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	reSpaces     = regexp.MustCompile(`\s+`)
	reAlphaToken = regexp.MustCompile(`[A-Za-zÀ-ÿ]{3,}`)
	stripMarks   = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
)

func NormalizeSpaces(input string) string {
	return strings.TrimSpace(reSpaces.ReplaceAllString(input, " "))
}

// NormalizeCode upper-cases a class code and drops all whitespace.
func NormalizeCode(input string) string {
	s := strings.ToUpper(input)
	return strings.Join(strings.Fields(s), "")
}

// FoldAccents lower-cases and strips combining marks ("Économie" -> "economie").
func FoldAccents(input string) string {
	out, _, err := transform.String(stripMarks, strings.ToLower(input))
	if err != nil {
		return strings.ToLower(input)
	}
	return out
}

// CountAlphaTokens counts runs of at least three Latin letters.
func CountAlphaTokens(input string) int {
	return len(reAlphaToken.FindAllString(input, -1))
}

func Tokenize(input string) []string {
	parts := strings.Fields(FoldAccents(input))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if len([]rune(p)) >= 2 {
			out = append(out, p)
		}
	}
	return out
}

func Truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 || len(r) <= n {
		return s
	}
	return string(r[:n])
}

func DiceCoefficient(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 1
	}

	pairs := func(s string) []string {
		r := []rune(s)
		if len(r) < 2 {
			return nil
		}
		out := make([]string, 0, len(r)-1)
		for i := 0; i < len(r)-1; i++ {
			out = append(out, string(r[i:i+2]))
		}
		return out
	}

	aPairs := pairs(a)
	bPairs := pairs(b)
	if len(aPairs) == 0 || len(bPairs) == 0 {
		return 0
	}

	bCount := map[string]int{}
	for _, p := range bPairs {
		bCount[p]++
	}
	inter := 0
	for _, p := range aPairs {
		if bCount[p] > 0 {
			inter++
			bCount[p]--
		}
	}

	return float64(2*inter) / float64(len(aPairs)+len(bPairs))
}

func FloatPtr(v float64) *float64 {
	return &v
}
